package usecase

import "context"

// TeamDTO is a team as served by the bootstrap-static payload.
type TeamDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code int64  `json:"code"`
}

// PlayerDTO is a player ("element") as served by the bootstrap-static payload.
type PlayerDTO struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	SecondName  string `json:"second_name"`
	Code        int64  `json:"code"`
	TeamCode    int64  `json:"team_code"`
	TotalPoints int    `json:"total_points"`
	NowCost     int    `json:"now_cost"`
	GoalsScored int    `json:"goals_scored"`
	Assists     int    `json:"assists"`
}

// FixtureDTO is one fixture from the fixtures payload. TeamH and TeamA are 1-based positions in the
// bootstrap team list, not team ids.
type FixtureDTO struct {
	ID          int64   `json:"id"`
	KickoffTime *string `json:"kickoff_time"`
	TeamH       int     `json:"team_h"`
	TeamA       int     `json:"team_a"`
	TeamHScore  *int    `json:"team_h_score"`
	TeamAScore  *int    `json:"team_a_score"`
}

// HasKickoff reports whether the fixture has been scheduled.
func (f FixtureDTO) HasKickoff() bool {
	return f.KickoffTime != nil && *f.KickoffTime != ""
}

// IsCompleted reports whether the fixture is scheduled and both scores are known.
func (f FixtureDTO) IsCompleted() bool {
	return f.HasKickoff() && f.TeamHScore != nil && f.TeamAScore != nil
}

type BootstrapStaticInfo struct {
	Teams    []TeamDTO   `json:"teams"`
	Elements []PlayerDTO `json:"elements"`
}

// RemoteDataSource is the read-only source of reference data.
type RemoteDataSource interface {
	FetchBootstrapStaticInfo(ctx context.Context) (BootstrapStaticInfo, error)
	FetchFixtures(ctx context.Context) ([]FixtureDTO, error)
}
