package postgres

import (
	"database/sql"

	"github.com/riskibarqy/fpl-datasync/internal/domain/fixture"
	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
)

const (
	tableTeams    = "fpl_teams"
	tablePlayers  = "fpl_players"
	tableFixtures = "fpl_fixtures"
)

type teamTableModel struct {
	ID           int64  `db:"id"`
	Position     int    `db:"position"`
	DisplayIndex int    `db:"display_index"`
	Name         string `db:"name"`
	Code         int64  `db:"code"`
}

type playerTableModel struct {
	ID          int64         `db:"id"`
	Position    int           `db:"position"`
	FirstName   string        `db:"first_name"`
	SecondName  string        `db:"second_name"`
	Code        int64         `db:"code"`
	TeamCode    int64         `db:"team_code"`
	TotalPoints int           `db:"total_points"`
	NowCost     int           `db:"now_cost"`
	GoalsScored int           `db:"goals_scored"`
	Assists     int           `db:"assists"`
	TeamID      sql.NullInt64 `db:"team_id"`
}

type fixtureTableModel struct {
	ID          int64         `db:"id"`
	Position    int           `db:"position"`
	KickoffTime string        `db:"kickoff_time"`
	HomeScore   int           `db:"home_score"`
	AwayScore   int           `db:"away_score"`
	HomeTeamID  sql.NullInt64 `db:"home_team_id"`
	AwayTeamID  sql.NullInt64 `db:"away_team_id"`
}

func teamRows(records []team.Record) []teamTableModel {
	out := make([]teamTableModel, 0, len(records))
	for i, r := range records {
		out = append(out, teamTableModel{
			ID:           r.ID,
			Position:     i,
			DisplayIndex: r.Index,
			Name:         r.Name,
			Code:         r.Code,
		})
	}
	return out
}

func playerRows(records []player.Record) []playerTableModel {
	out := make([]playerTableModel, 0, len(records))
	for i, r := range records {
		out = append(out, playerTableModel{
			ID:          r.ID,
			Position:    i,
			FirstName:   r.FirstName,
			SecondName:  r.SecondName,
			Code:        r.Code,
			TeamCode:    r.TeamCode,
			TotalPoints: r.TotalPoints,
			NowCost:     r.NowCost,
			GoalsScored: r.GoalsScored,
			Assists:     r.Assists,
			TeamID:      teamRefID(r.Team),
		})
	}
	return out
}

func fixtureRows(records []fixture.Record) []fixtureTableModel {
	out := make([]fixtureTableModel, 0, len(records))
	for i, r := range records {
		out = append(out, fixtureTableModel{
			ID:          r.ID,
			Position:    i,
			KickoffTime: r.KickoffTime,
			HomeScore:   r.HomeScore,
			AwayScore:   r.AwayScore,
			HomeTeamID:  teamRefID(r.HomeTeam),
			AwayTeamID:  teamRefID(r.AwayTeam),
		})
	}
	return out
}

func teamRefID(ref *team.Record) sql.NullInt64 {
	if ref == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: ref.ID, Valid: true}
}
