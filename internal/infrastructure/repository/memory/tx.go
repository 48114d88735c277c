package memory

import (
	"fmt"
	"slices"

	"github.com/riskibarqy/fpl-datasync/internal/domain/fixture"
	"github.com/riskibarqy/fpl-datasync/internal/domain/localstore"
	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
)

// draft is a copy-on-write view over a committed snapshot. A kind is copied on its first mutation.
type draft[T any] struct {
	items   []T
	ids     map[int64]struct{}
	touched bool
	idOf    func(T) int64
}

func newDraft[T any](items []T, idOf func(T) int64) *draft[T] {
	return &draft[T]{items: items, idOf: idOf}
}

func (d *draft[T]) clear() {
	d.items = nil
	d.ids = make(map[int64]struct{})
	d.touched = true
}

func (d *draft[T]) insert(item T) error {
	if !d.touched {
		d.items = slices.Clone(d.items)
		d.touched = true
	}
	if d.ids == nil {
		d.ids = make(map[int64]struct{}, len(d.items))
		for _, existing := range d.items {
			d.ids[d.idOf(existing)] = struct{}{}
		}
	}

	id := d.idOf(item)
	if _, exists := d.ids[id]; exists {
		return fmt.Errorf("id %d: %w", id, localstore.ErrDuplicateRecord)
	}
	d.ids[id] = struct{}{}
	d.items = append(d.items, item)
	return nil
}

func (d *draft[T]) result() []T {
	if d.items == nil {
		return []T{}
	}
	return d.items
}

type tx struct {
	teams    *draft[team.Record]
	players  *draft[player.Record]
	fixtures *draft[fixture.Record]
	done     bool
}

var _ localstore.Tx = (*tx)(nil)

func newTx(base localstore.Snapshot) *tx {
	return &tx{
		teams:    newDraft(base.Teams, func(r team.Record) int64 { return r.ID }),
		players:  newDraft(base.Players, func(r player.Record) int64 { return r.ID }),
		fixtures: newDraft(base.Fixtures, func(r fixture.Record) int64 { return r.ID }),
	}
}

func (t *tx) DeleteAll(kinds ...localstore.Kind) {
	t.mustBeOpen()
	if len(kinds) == 0 {
		kinds = localstore.AllKinds
	}
	for _, kind := range kinds {
		switch kind {
		case localstore.KindTeam:
			t.teams.clear()
		case localstore.KindPlayer:
			t.players.clear()
		case localstore.KindFixture:
			t.fixtures.clear()
		}
	}
}

func (t *tx) InsertTeam(record team.Record) error {
	t.mustBeOpen()
	if err := t.teams.insert(record); err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

func (t *tx) InsertPlayer(record player.Record) error {
	t.mustBeOpen()
	if err := t.players.insert(record); err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (t *tx) InsertFixture(record fixture.Record) error {
	t.mustBeOpen()
	if err := t.fixtures.insert(record); err != nil {
		return fmt.Errorf("insert fixture: %w", err)
	}
	return nil
}

func (t *tx) Teams(pred team.Predicate) []team.Record {
	return filter(t.teams.items, pred)
}

func (t *tx) Players(pred player.Predicate) []player.Record {
	return filter(t.players.items, pred)
}

func (t *tx) Fixtures(pred fixture.Predicate) []fixture.Record {
	return filter(t.fixtures.items, pred)
}

func (t *tx) touchedKinds() []localstore.Kind {
	out := make([]localstore.Kind, 0, len(localstore.AllKinds))
	if t.teams.touched {
		out = append(out, localstore.KindTeam)
	}
	if t.players.touched {
		out = append(out, localstore.KindPlayer)
	}
	if t.fixtures.touched {
		out = append(out, localstore.KindFixture)
	}
	return out
}

func (t *tx) snapshot() localstore.Snapshot {
	return localstore.Snapshot{
		Teams:    t.teams.result(),
		Players:  t.players.result(),
		Fixtures: t.fixtures.result(),
	}
}

func (t *tx) mustBeOpen() {
	if t.done {
		panic("memory store: transaction used after commit")
	}
}
