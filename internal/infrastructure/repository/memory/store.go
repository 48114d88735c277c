package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/riskibarqy/fpl-datasync/internal/domain/fixture"
	"github.com/riskibarqy/fpl-datasync/internal/domain/localstore"
	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
	"github.com/riskibarqy/fpl-datasync/internal/platform/broadcast"
	"github.com/riskibarqy/fpl-datasync/internal/platform/logging"
)

// Store is the transactional in-memory cache. Committed snapshots are immutable and swapped atomically;
// an optional backend persists each commit before it becomes visible.
type Store struct {
	backend localstore.Backend
	logger  *logging.Logger

	writeMu   sync.Mutex
	committed atomic.Pointer[localstore.Snapshot]
	closed    atomic.Bool

	teams    *broadcast.Value[[]team.Record]
	players  *broadcast.Value[[]player.Record]
	fixtures *broadcast.Value[[]fixture.Record]
}

var _ localstore.Store = (*Store)(nil)

// NewStore returns an empty store without durability.
func NewStore(logger *logging.Logger) *Store {
	return newStore(nil, localstore.Snapshot{}, logger)
}

// Open loads the last committed snapshot from backend and returns a store that persists through it.
func Open(ctx context.Context, backend localstore.Backend, logger *logging.Logger) (*Store, error) {
	if backend == nil {
		return NewStore(logger), nil
	}

	snapshot, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load store snapshot: %w", err)
	}

	store := newStore(backend, snapshot, logger)
	store.logger.InfoContext(ctx, "store opened",
		"teams", len(snapshot.Teams),
		"players", len(snapshot.Players),
		"fixtures", len(snapshot.Fixtures),
	)
	return store, nil
}

func newStore(backend localstore.Backend, snapshot localstore.Snapshot, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}

	s := &Store{
		backend:  backend,
		logger:   logger.Named("store"),
		teams:    broadcast.NewValue(snapshot.Teams),
		players:  broadcast.NewValue(snapshot.Players),
		fixtures: broadcast.NewValue(snapshot.Fixtures),
	}
	s.committed.Store(&snapshot)
	return s
}

// Write runs fn against a draft of the committed snapshot. Only one transaction runs at a time.
func (s *Store) Write(ctx context.Context, fn func(tx localstore.Tx) error) error {
	if fn == nil {
		return fmt.Errorf("transaction body is required")
	}
	if s.closed.Load() {
		return localstore.ErrClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed.Load() {
		return localstore.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := newTx(*s.committed.Load())
	if err := fn(tx); err != nil {
		return err
	}
	tx.done = true

	touched := tx.touchedKinds()
	if len(touched) == 0 {
		return nil
	}

	next := tx.snapshot()
	if s.backend != nil {
		if err := s.backend.Commit(ctx, next, touched); err != nil {
			return fmt.Errorf("commit store transaction: %w", err)
		}
	}

	s.committed.Store(&next)
	for _, kind := range touched {
		switch kind {
		case localstore.KindTeam:
			s.teams.Publish(next.Teams)
		case localstore.KindPlayer:
			s.players.Publish(next.Players)
		case localstore.KindFixture:
			s.fixtures.Publish(next.Fixtures)
		}
	}

	s.logger.DebugContext(ctx, "store transaction committed",
		"touched", touched,
		"teams", len(next.Teams),
		"players", len(next.Players),
		"fixtures", len(next.Fixtures),
	)
	return nil
}

// Snapshot returns the committed snapshot. Callers must not modify the returned slices.
func (s *Store) Snapshot() localstore.Snapshot {
	return *s.committed.Load()
}

func (s *Store) Teams(_ context.Context, pred team.Predicate) ([]team.Record, error) {
	if s.closed.Load() {
		return nil, localstore.ErrClosed
	}
	return filter(s.committed.Load().Teams, pred), nil
}

func (s *Store) Players(_ context.Context, pred player.Predicate) ([]player.Record, error) {
	if s.closed.Load() {
		return nil, localstore.ErrClosed
	}
	return filter(s.committed.Load().Players, pred), nil
}

func (s *Store) Fixtures(_ context.Context, pred fixture.Predicate) ([]fixture.Record, error) {
	if s.closed.Load() {
		return nil, localstore.ErrClosed
	}
	return filter(s.committed.Load().Fixtures, pred), nil
}

// ObserveTeams streams the team collection. Delivered slices are shared and must not be modified.
func (s *Store) ObserveTeams(ctx context.Context) <-chan []team.Record {
	return s.teams.Subscribe(ctx)
}

// ObservePlayers streams the player collection. Delivered slices are shared and must not be modified.
func (s *Store) ObservePlayers(ctx context.Context) <-chan []player.Record {
	return s.players.Subscribe(ctx)
}

// ObserveFixtures streams the fixture collection. Delivered slices are shared and must not be modified.
func (s *Store) ObserveFixtures(ctx context.Context) <-chan []fixture.Record {
	return s.fixtures.Subscribe(ctx)
}

// Close completes every observer and closes the backend. Pending writers finish first.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.teams.Close(localstore.ErrClosed)
	s.players.Close(localstore.ErrClosed)
	s.fixtures.Close(localstore.ErrClosed)

	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			return fmt.Errorf("close store backend: %w", err)
		}
	}
	return nil
}

func filter[T any](items []T, pred func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if pred == nil || pred(item) {
			out = append(out, item)
		}
	}
	return out
}
