package localstore

import (
	"errors"
	"slices"

	"github.com/riskibarqy/fpl-datasync/internal/domain/fixture"
	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
)

var (
	ErrDuplicateRecord = errors.New("duplicate record")
	ErrClosed          = errors.New("store closed")
)

// Kind names one record collection in the store.
type Kind string

const (
	KindTeam    Kind = "team"
	KindPlayer  Kind = "player"
	KindFixture Kind = "fixture"
)

var AllKinds = []Kind{KindTeam, KindPlayer, KindFixture}

// Snapshot is one committed generation of the cache. Slices are never modified after commit.
type Snapshot struct {
	Teams    []team.Record
	Players  []player.Record
	Fixtures []fixture.Record
}

func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Teams:    slices.Clone(s.Teams),
		Players:  slices.Clone(s.Players),
		Fixtures: slices.Clone(s.Fixtures),
	}
}

// Counts reports the number of records per kind.
func (s Snapshot) Counts() map[Kind]int {
	return map[Kind]int{
		KindTeam:    len(s.Teams),
		KindPlayer:  len(s.Players),
		KindFixture: len(s.Fixtures),
	}
}
