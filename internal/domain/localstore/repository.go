package localstore

import (
	"context"

	"github.com/riskibarqy/fpl-datasync/internal/domain/fixture"
	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
)

// Tx is the write view handed to a transaction body.
// Reads see the draft, including inserts made earlier in the same transaction.
type Tx interface {
	DeleteAll(kinds ...Kind)
	InsertTeam(record team.Record) error
	InsertPlayer(record player.Record) error
	InsertFixture(record fixture.Record) error

	Teams(pred team.Predicate) []team.Record
	Players(pred player.Predicate) []player.Record
	Fixtures(pred fixture.Predicate) []fixture.Record
}

// Store is the local transactional cache of reference data.
//
// Write serializes transactions. Mutations made by the body become visible together when it returns nil
// and are discarded when it returns an error or panics. Observe* channels deliver the current collection
// on subscribe and then one collection per committed transaction touching that kind; they close when ctx
// ends or the store is closed.
type Store interface {
	team.Repository
	player.Repository
	fixture.Repository

	Write(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Backend persists committed snapshots so the cache survives restarts.
type Backend interface {
	Load(ctx context.Context) (Snapshot, error)
	Commit(ctx context.Context, snapshot Snapshot, touched []Kind) error
	Close() error
}
