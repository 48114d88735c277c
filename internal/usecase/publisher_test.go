package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/fpl-datasync/internal/domain/fixture"
	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
)

func next[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("subscription closed unexpectedly")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for published value")
	}
	var zero T
	return zero
}

func TestPublisher_StartsEmpty(t *testing.T) {
	t.Parallel()

	p := NewPublisher()
	defer p.Close()

	if p.Teams() == nil || len(p.Teams()) != 0 {
		t.Fatalf("expected empty non-nil teams, got=%v", p.Teams())
	}
	if len(p.Players()) != 0 || len(p.Fixtures()) != 0 {
		t.Fatalf("expected empty players and fixtures")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if got := next(t, p.SubscribeFixtures(ctx)); len(got) != 0 {
		t.Fatalf("expected empty initial fixtures, got=%v", got)
	}
}

func TestPublisher_LateSubscriberGetsCurrentCollection(t *testing.T) {
	t.Parallel()

	p := NewPublisher()
	defer p.Close()

	p.PublishTeams([]team.Team{{ID: 1, Index: 1, Name: "A", Code: 10}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := next(t, p.SubscribeTeams(ctx))
	if len(got) != 1 || got[0].Name != "A" {
		t.Fatalf("expected post-publish collection first, got=%v", got)
	}
}

func TestPublisher_SubscribersSeeUpdatesInOrder(t *testing.T) {
	t.Parallel()

	p := NewPublisher()
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := p.SubscribePlayers(ctx)
	_ = next(t, sub)

	p.PublishPlayers([]player.Player{{ID: 1}})
	if got := next(t, sub); len(got) != 1 {
		t.Fatalf("expected first update, got=%v", got)
	}
	p.PublishPlayers([]player.Player{{ID: 1}, {ID: 2}})
	if got := next(t, sub); len(got) != 2 {
		t.Fatalf("expected second update, got=%v", got)
	}
}

func TestPublisher_PlayersByPointsSortsAtDelivery(t *testing.T) {
	t.Parallel()

	p := NewPublisher()
	defer p.Close()

	stored := []player.Player{
		{ID: 1, Points: 10},
		{ID: 2, Points: 30},
		{ID: 3, Points: 10},
	}
	p.PublishPlayers(stored)

	sorted := p.PlayersByPoints()
	wantIDs := []int64{2, 1, 3}
	for i, id := range wantIDs {
		if sorted[i].ID != id {
			t.Fatalf("unexpected order at %d: got=%d want=%d", i, sorted[i].ID, id)
		}
	}
	if p.Players()[0].ID != 1 {
		t.Fatalf("expected stored order to be unchanged, got=%v", p.Players())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	streamed := next(t, p.SubscribePlayersByPoints(ctx))
	if streamed[0].ID != 2 {
		t.Fatalf("expected streamed players sorted by points, got=%v", streamed)
	}
}

func TestPublisher_FetchOnceDeliversCurrentValue(t *testing.T) {
	t.Parallel()

	p := NewPublisher()
	defer p.Close()

	p.PublishFixtures([]fixture.GameFixture{{ID: 500}})

	calls := 0
	p.FetchFixturesOnce(func(items []fixture.GameFixture) {
		calls++
		if len(items) != 1 || items[0].ID != 500 {
			t.Fatalf("unexpected fixtures: %v", items)
		}
	})
	p.PublishFixtures(nil)
	if calls != 1 {
		t.Fatalf("expected exactly one callback, got=%d", calls)
	}
}

func TestPublisher_CloseCompletesSubscriptions(t *testing.T) {
	t.Parallel()

	p := NewPublisher()
	sub := p.SubscribeTeams(context.Background())
	_ = next(t, sub)

	p.Close()

	select {
	case _, ok := <-sub:
		if ok {
			t.Fatalf("expected subscription to complete")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("subscription not completed after Close")
	}
}
