package postgres

import (
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/fpl-datasync/internal/domain/fixture"
	"github.com/riskibarqy/fpl-datasync/internal/domain/localstore"
	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
)

// insertBatchSize keeps one multi-row insert well below the 65535 bind parameter limit.
const insertBatchSize = 500

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	out := make([][]T, 0, (len(items)+size-1)/max(size, 1))
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

// restoreSnapshot rebuilds record references from the stored team ids.
func restoreSnapshot(teams []teamTableModel, players []playerTableModel, fixtures []fixtureTableModel) (localstore.Snapshot, error) {
	out := localstore.Snapshot{
		Teams:    make([]team.Record, 0, len(teams)),
		Players:  make([]player.Record, 0, len(players)),
		Fixtures: make([]fixture.Record, 0, len(fixtures)),
	}

	byID := make(map[int64]int, len(teams))
	for _, row := range teams {
		byID[row.ID] = len(out.Teams)
		out.Teams = append(out.Teams, team.Record{
			ID:    row.ID,
			Index: row.DisplayIndex,
			Name:  row.Name,
			Code:  row.Code,
		})
	}

	resolve := func(id sql.NullInt64) (*team.Record, error) {
		if !id.Valid {
			return nil, nil
		}
		idx, ok := byID[id.Int64]
		if !ok {
			return nil, errors.Newf("unknown team reference %d", id.Int64)
		}
		return &out.Teams[idx], nil
	}

	for _, row := range players {
		ref, err := resolve(row.TeamID)
		if err != nil {
			return localstore.Snapshot{}, errors.Wrapf(err, "player %d", row.ID)
		}
		out.Players = append(out.Players, player.Record{
			ID:          row.ID,
			FirstName:   row.FirstName,
			SecondName:  row.SecondName,
			Code:        row.Code,
			TeamCode:    row.TeamCode,
			TotalPoints: row.TotalPoints,
			NowCost:     row.NowCost,
			GoalsScored: row.GoalsScored,
			Assists:     row.Assists,
			Team:        ref,
		})
	}

	for _, row := range fixtures {
		home, err := resolve(row.HomeTeamID)
		if err != nil {
			return localstore.Snapshot{}, errors.Wrapf(err, "fixture %d home team", row.ID)
		}
		away, err := resolve(row.AwayTeamID)
		if err != nil {
			return localstore.Snapshot{}, errors.Wrapf(err, "fixture %d away team", row.ID)
		}
		out.Fixtures = append(out.Fixtures, fixture.Record{
			ID:          row.ID,
			KickoffTime: row.KickoffTime,
			HomeScore:   row.HomeScore,
			AwayScore:   row.AwayScore,
			HomeTeam:    home,
			AwayTeam:    away,
		})
	}

	return out, nil
}
