package filestore

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/fpl-datasync/internal/domain/fixture"
	"github.com/riskibarqy/fpl-datasync/internal/domain/localstore"
	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
)

const documentVersion = 1

// document is the on-disk form of a snapshot. References are stored as team ids.
type document struct {
	Version  int          `json:"version" validate:"eq=1"`
	SavedAt  time.Time    `json:"saved_at"`
	Teams    []teamDoc    `json:"teams" validate:"dive"`
	Players  []playerDoc  `json:"players" validate:"dive"`
	Fixtures []fixtureDoc `json:"fixtures" validate:"dive"`
}

type teamDoc struct {
	ID    int64  `json:"id" validate:"gt=0"`
	Index int    `json:"index" validate:"gte=1"`
	Name  string `json:"name"`
	Code  int64  `json:"code"`
}

type playerDoc struct {
	ID          int64  `json:"id" validate:"gt=0"`
	FirstName   string `json:"first_name"`
	SecondName  string `json:"second_name"`
	Code        int64  `json:"code"`
	TeamCode    int64  `json:"team_code"`
	TotalPoints int    `json:"total_points"`
	NowCost     int    `json:"now_cost"`
	GoalsScored int    `json:"goals_scored"`
	Assists     int    `json:"assists"`
	TeamID      *int64 `json:"team_id,omitempty"`
}

type fixtureDoc struct {
	ID          int64  `json:"id" validate:"gt=0"`
	KickoffTime string `json:"kickoff_time" validate:"required"`
	HomeScore   int    `json:"home_score"`
	AwayScore   int    `json:"away_score"`
	HomeTeamID  *int64 `json:"home_team_id,omitempty"`
	AwayTeamID  *int64 `json:"away_team_id,omitempty"`
}

func toDocument(snapshot localstore.Snapshot, savedAt time.Time) document {
	doc := document{
		Version:  documentVersion,
		SavedAt:  savedAt,
		Teams:    make([]teamDoc, 0, len(snapshot.Teams)),
		Players:  make([]playerDoc, 0, len(snapshot.Players)),
		Fixtures: make([]fixtureDoc, 0, len(snapshot.Fixtures)),
	}

	for _, r := range snapshot.Teams {
		doc.Teams = append(doc.Teams, teamDoc{ID: r.ID, Index: r.Index, Name: r.Name, Code: r.Code})
	}
	for _, r := range snapshot.Players {
		doc.Players = append(doc.Players, playerDoc{
			ID:          r.ID,
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
	for _, r := range snapshot.Fixtures {
		doc.Fixtures = append(doc.Fixtures, fixtureDoc{
			ID:          r.ID,
			KickoffTime: r.KickoffTime,
			HomeScore:   r.HomeScore,
			AwayScore:   r.AwayScore,
			HomeTeamID:  teamRefID(r.HomeTeam),
			AwayTeamID:  teamRefID(r.AwayTeam),
		})
	}

	return doc
}

func (d document) snapshot() (localstore.Snapshot, error) {
	out := localstore.Snapshot{
		Teams:    make([]team.Record, 0, len(d.Teams)),
		Players:  make([]player.Record, 0, len(d.Players)),
		Fixtures: make([]fixture.Record, 0, len(d.Fixtures)),
	}

	byID := make(map[int64]int, len(d.Teams))
	for _, t := range d.Teams {
		if _, exists := byID[t.ID]; exists {
			return localstore.Snapshot{}, errors.Wrapf(localstore.ErrDuplicateRecord, "team id %d", t.ID)
		}
		byID[t.ID] = len(out.Teams)
		out.Teams = append(out.Teams, team.Record{ID: t.ID, Index: t.Index, Name: t.Name, Code: t.Code})
	}

	resolve := func(id *int64) (*team.Record, error) {
		if id == nil {
			return nil, nil
		}
		idx, ok := byID[*id]
		if !ok {
			return nil, errors.Newf("unknown team reference %d", *id)
		}
		return &out.Teams[idx], nil
	}

	for _, p := range d.Players {
		ref, err := resolve(p.TeamID)
		if err != nil {
			return localstore.Snapshot{}, errors.Wrapf(err, "player %d", p.ID)
		}
		record := player.Record{
			ID:          p.ID,
			FirstName:   p.FirstName,
			SecondName:  p.SecondName,
			Code:        p.Code,
			TeamCode:    p.TeamCode,
			TotalPoints: p.TotalPoints,
			NowCost:     p.NowCost,
			GoalsScored: p.GoalsScored,
			Assists:     p.Assists,
			Team:        ref,
		}
		if err := record.Validate(); err != nil {
			return localstore.Snapshot{}, errors.Wrap(err, "validate player")
		}
		out.Players = append(out.Players, record)
	}

	for _, f := range d.Fixtures {
		home, err := resolve(f.HomeTeamID)
		if err != nil {
			return localstore.Snapshot{}, errors.Wrapf(err, "fixture %d home team", f.ID)
		}
		away, err := resolve(f.AwayTeamID)
		if err != nil {
			return localstore.Snapshot{}, errors.Wrapf(err, "fixture %d away team", f.ID)
		}
		out.Fixtures = append(out.Fixtures, fixture.Record{
			ID:          f.ID,
			KickoffTime: f.KickoffTime,
			HomeScore:   f.HomeScore,
			AwayScore:   f.AwayScore,
			HomeTeam:    home,
			AwayTeam:    away,
		})
	}

	return out, nil
}

func teamRefID(ref *team.Record) *int64 {
	if ref == nil {
		return nil
	}
	id := ref.ID
	return &id
}
