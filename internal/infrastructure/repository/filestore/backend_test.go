package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/riskibarqy/fpl-datasync/internal/domain/fixture"
	"github.com/riskibarqy/fpl-datasync/internal/domain/localstore"
	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
)

func sampleSnapshot() localstore.Snapshot {
	teams := []team.Record{
		{ID: 1, Index: 1, Name: "A", Code: 10},
		{ID: 2, Index: 2, Name: "B", Code: 20},
	}
	return localstore.Snapshot{
		Teams: teams,
		Players: []player.Record{
			{ID: 100, FirstName: "X", SecondName: "Y", Code: 7, TeamCode: 10, TotalPoints: 50, NowCost: 60, Team: &teams[0]},
			{ID: 101, FirstName: "N", SecondName: "O", Code: 8, TeamCode: 99},
		},
		Fixtures: []fixture.Record{
			{ID: 500, KickoffTime: "2024-01-01T00:00:00Z", HomeScore: 2, AwayScore: 1, HomeTeam: &teams[0], AwayTeam: &teams[1]},
		},
	}
}

func TestNewBackend_EmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend("", nil); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestBackend_LoadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	backend, err := NewBackend(filepath.Join(t.TempDir(), "cache.json"), nil)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	snapshot, err := backend.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snapshot.Teams)+len(snapshot.Players)+len(snapshot.Fixtures) != 0 {
		t.Fatalf("expected empty snapshot, got=%+v", snapshot)
	}
}

func TestBackend_CommitThenLoadRestoresReferences(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "cache.json")
	backend, err := NewBackend(path, nil)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	if err := backend.Commit(context.Background(), sampleSnapshot(), localstore.AllKinds); err != nil {
		t.Fatalf("commit: %v", err)
	}

	reopened, _ := NewBackend(path, nil)
	got, err := reopened.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(got.Teams) != 2 || got.Teams[1].Name != "B" {
		t.Fatalf("unexpected teams: %+v", got.Teams)
	}
	if got.Players[0].Team == nil || got.Players[0].Team.Code != got.Players[0].TeamCode {
		t.Fatalf("expected resolved team reference, got=%+v", got.Players[0])
	}
	if got.Players[1].Team != nil {
		t.Fatalf("expected absent team reference to stay absent")
	}
	if got.Fixtures[0].AwayTeam == nil || got.Fixtures[0].AwayTeam.Name != "B" {
		t.Fatalf("unexpected fixture away team: %+v", got.Fixtures[0].AwayTeam)
	}
}

func TestBackend_CommitLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	backend, _ := NewBackend(filepath.Join(dir, "cache.json"), nil)
	for i := 0; i < 3; i++ {
		if err := backend.Commit(context.Background(), sampleSnapshot(), localstore.AllKinds); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "cache.json" {
		t.Fatalf("expected only cache.json, got=%v", entries)
	}
}

func TestBackend_LoadRejectsInvalidDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
	}{
		{name: "malformed json", payload: `{"version":`},
		{name: "wrong version", payload: `{"version":2,"teams":[],"players":[],"fixtures":[]}`},
		{name: "team without id", payload: `{"version":1,"teams":[{"id":0,"index":1}],"players":[],"fixtures":[]}`},
		{name: "fixture without kickoff", payload: `{"version":1,"teams":[],"players":[],"fixtures":[{"id":1}]}`},
		{name: "dangling reference", payload: `{"version":1,"teams":[],"players":[{"id":1,"team_id":5}],"fixtures":[]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cache.json")
			if err := os.WriteFile(path, []byte(tc.payload), 0o644); err != nil {
				t.Fatalf("write fixture file: %v", err)
			}
			backend, _ := NewBackend(path, nil)
			if _, err := backend.Load(context.Background()); err == nil {
				t.Fatalf("expected load error")
			}
		})
	}
}

func TestBackend_CommitAfterCloseFails(t *testing.T) {
	t.Parallel()

	backend, _ := NewBackend(filepath.Join(t.TempDir(), "cache.json"), nil)
	_ = backend.Close()

	err := backend.Commit(context.Background(), sampleSnapshot(), localstore.AllKinds)
	if !errors.Is(err, localstore.ErrClosed) {
		t.Fatalf("expected ErrClosed, got=%v", err)
	}
}
