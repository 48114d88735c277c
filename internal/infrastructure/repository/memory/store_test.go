package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/fpl-datasync/internal/domain/fixture"
	"github.com/riskibarqy/fpl-datasync/internal/domain/localstore"
	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
)

type recordingBackend struct {
	mu       sync.Mutex
	loaded   localstore.Snapshot
	commits  []localstore.Snapshot
	touched  [][]localstore.Kind
	failWith error
	closed   bool
}

func (b *recordingBackend) Load(context.Context) (localstore.Snapshot, error) {
	return b.loaded, nil
}

func (b *recordingBackend) Commit(_ context.Context, snapshot localstore.Snapshot, touched []localstore.Kind) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	b.commits = append(b.commits, snapshot)
	b.touched = append(b.touched, touched)
	return nil
}

func (b *recordingBackend) Close() error {
	b.closed = true
	return nil
}

func receiveTeams(t *testing.T, ch <-chan []team.Record) []team.Record {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("team feed closed unexpectedly")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for team snapshot")
	}
	return nil
}

func seedTeams(t *testing.T, store *Store, names ...string) {
	t.Helper()
	err := store.Write(context.Background(), func(tx localstore.Tx) error {
		tx.DeleteAll(localstore.KindTeam)
		for i, name := range names {
			if err := tx.InsertTeam(team.Record{ID: int64(i + 1), Index: i + 1, Name: name, Code: int64((i + 1) * 10)}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed teams: %v", err)
	}
}

func TestStore_WriteCommitsAtomically(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	seedTeams(t, store, "A", "B")

	teams, err := store.Teams(context.Background(), nil)
	if err != nil {
		t.Fatalf("query teams: %v", err)
	}
	if len(teams) != 2 || teams[0].Name != "A" || teams[1].Name != "B" {
		t.Fatalf("unexpected teams: %+v", teams)
	}
}

func TestStore_FailedBodyLeavesStoreUnchanged(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	seedTeams(t, store, "A")

	boom := errors.New("boom")
	err := store.Write(context.Background(), func(tx localstore.Tx) error {
		tx.DeleteAll()
		if err := tx.InsertTeam(team.Record{ID: 9, Index: 1, Name: "Z"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected body error, got=%v", err)
	}

	teams, _ := store.Teams(context.Background(), nil)
	if len(teams) != 1 || teams[0].Name != "A" {
		t.Fatalf("expected pre-transaction state, got=%+v", teams)
	}
}

func TestStore_PanickingBodyLeavesStoreUnchangedAndUnlocked(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	seedTeams(t, store, "A")

	func() {
		defer func() { _ = recover() }()
		_ = store.Write(context.Background(), func(tx localstore.Tx) error {
			tx.DeleteAll()
			panic("disk on fire")
		})
	}()

	teams, _ := store.Teams(context.Background(), nil)
	if len(teams) != 1 {
		t.Fatalf("expected pre-transaction state, got=%+v", teams)
	}
	seedTeams(t, store, "B")
}

func TestStore_DuplicateIDAbortsTransaction(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	err := store.Write(context.Background(), func(tx localstore.Tx) error {
		if err := tx.InsertTeam(team.Record{ID: 1, Index: 1}); err != nil {
			return err
		}
		return tx.InsertTeam(team.Record{ID: 1, Index: 2})
	})
	if !errors.Is(err, localstore.ErrDuplicateRecord) {
		t.Fatalf("expected duplicate record error, got=%v", err)
	}
	teams, _ := store.Teams(context.Background(), nil)
	if len(teams) != 0 {
		t.Fatalf("expected no teams after aborted transaction, got=%d", len(teams))
	}
}

func TestStore_TxReadsSeeOwnInserts(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	err := store.Write(context.Background(), func(tx localstore.Tx) error {
		if err := tx.InsertTeam(team.Record{ID: 1, Index: 1, Name: "A", Code: 10}); err != nil {
			return err
		}
		got := tx.Teams(func(r team.Record) bool { return r.Code == 10 })
		if len(got) != 1 {
			return errors.New("insert not visible inside transaction")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_QueryPredicate(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	seedTeams(t, store, "A", "B", "C")

	got, err := store.Teams(context.Background(), func(r team.Record) bool { return r.Index >= 2 })
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 || got[0].Name != "B" {
		t.Fatalf("unexpected filtered teams: %+v", got)
	}
}

func TestStore_ObserveEmitsInitialThenPerCommit(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := store.ObserveTeams(ctx)
	if initial := receiveTeams(t, feed); len(initial) != 0 {
		t.Fatalf("expected empty initial snapshot, got=%+v", initial)
	}

	seedTeams(t, store, "A")
	if got := receiveTeams(t, feed); len(got) != 1 || got[0].Name != "A" {
		t.Fatalf("unexpected first commit snapshot: %+v", got)
	}

	seedTeams(t, store, "A", "B")
	if got := receiveTeams(t, feed); len(got) != 2 {
		t.Fatalf("unexpected second commit snapshot: %+v", got)
	}
}

func TestStore_UntouchedKindIsNotRepublished(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	players := store.ObservePlayers(ctx)
	<-players

	seedTeams(t, store, "A")

	select {
	case got := <-players:
		t.Fatalf("player feed must not fire for a team-only transaction, got=%+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStore_BackendFailureKeepsPreviousState(t *testing.T) {
	t.Parallel()

	backend := &recordingBackend{}
	store, err := Open(context.Background(), backend, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	seedTeams(t, store, "A")

	backend.failWith = errors.New("disk full")
	err = store.Write(context.Background(), func(tx localstore.Tx) error {
		tx.DeleteAll()
		return nil
	})
	if err == nil {
		t.Fatalf("expected commit error")
	}

	teams, _ := store.Teams(context.Background(), nil)
	if len(teams) != 1 {
		t.Fatalf("expected committed state to survive backend failure, got=%+v", teams)
	}
	if len(backend.touched) != 1 || len(backend.touched[0]) != 1 || backend.touched[0][0] != localstore.KindTeam {
		t.Fatalf("unexpected touched kinds: %+v", backend.touched)
	}
}

func TestStore_OpenPublishesPersistedSnapshot(t *testing.T) {
	t.Parallel()

	home := team.Record{ID: 1, Index: 1, Name: "A", Code: 10}
	backend := &recordingBackend{loaded: localstore.Snapshot{
		Teams:    []team.Record{home},
		Players:  []player.Record{{ID: 100, TeamCode: 10, Team: &home}},
		Fixtures: []fixture.Record{{ID: 500, KickoffTime: "2024-01-01T00:00:00Z", HomeTeam: &home}},
	}}

	store, err := Open(context.Background(), backend, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if got := receiveTeams(t, store.ObserveTeams(ctx)); len(got) != 1 {
		t.Fatalf("expected persisted teams on first emission, got=%+v", got)
	}
}

func TestStore_CloseCompletesObserversAndRejectsWrites(t *testing.T) {
	t.Parallel()

	backend := &recordingBackend{}
	store, _ := Open(context.Background(), backend, nil)
	feed := store.ObserveFixtures(context.Background())
	<-feed

	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case _, ok := <-feed:
		if ok {
			t.Fatalf("expected feed to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("feed not closed after store close")
	}

	if err := store.Write(context.Background(), func(localstore.Tx) error { return nil }); !errors.Is(err, localstore.ErrClosed) {
		t.Fatalf("expected ErrClosed, got=%v", err)
	}
	if _, err := store.Players(context.Background(), nil); !errors.Is(err, localstore.ErrClosed) {
		t.Fatalf("expected ErrClosed on query, got=%v", err)
	}
	if !backend.closed {
		t.Fatalf("expected backend to be closed")
	}
}

func TestStore_ReadersNeverSeePartialState(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	seedTeams(t, store, "A", "B")

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			teams, _ := store.Teams(context.Background(), nil)
			if len(teams) != 2 {
				t.Errorf("observed partial state: %d teams", len(teams))
				return
			}
		}
	}()

	for i := 0; i < 50; i++ {
		seedTeams(t, store, "A", "B")
	}
	close(stop)
	wg.Wait()
}
