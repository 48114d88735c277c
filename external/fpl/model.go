package fpl

import "github.com/riskibarqy/fpl-datasync/internal/usecase"

type bootstrapStaticPayload struct {
	Teams    []teamItem    `json:"teams" validate:"dive"`
	Elements []elementItem `json:"elements" validate:"dive"`
}

type teamItem struct {
	ID   int64  `json:"id" validate:"gt=0"`
	Name string `json:"name" validate:"required"`
	Code int64  `json:"code"`
}

type elementItem struct {
	ID          int64  `json:"id" validate:"gt=0"`
	FirstName   string `json:"first_name"`
	SecondName  string `json:"second_name"`
	Code        int64  `json:"code"`
	TeamCode    int64  `json:"team_code"`
	TotalPoints int    `json:"total_points"`
	NowCost     int    `json:"now_cost" validate:"gte=0"`
	GoalsScored int    `json:"goals_scored" validate:"gte=0"`
	Assists     int    `json:"assists" validate:"gte=0"`
}

type fixtureItem struct {
	ID          int64   `json:"id" validate:"gt=0"`
	KickoffTime *string `json:"kickoff_time"`
	TeamH       int     `json:"team_h"`
	TeamA       int     `json:"team_a"`
	TeamHScore  *int    `json:"team_h_score"`
	TeamAScore  *int    `json:"team_a_score"`
}

type fixturesPayload struct {
	Items []fixtureItem `validate:"dive"`
}

func (p bootstrapStaticPayload) toDTO() usecase.BootstrapStaticInfo {
	out := usecase.BootstrapStaticInfo{
		Teams:    make([]usecase.TeamDTO, 0, len(p.Teams)),
		Elements: make([]usecase.PlayerDTO, 0, len(p.Elements)),
	}
	for _, item := range p.Teams {
		out.Teams = append(out.Teams, usecase.TeamDTO{
			ID:   item.ID,
			Name: item.Name,
			Code: item.Code,
		})
	}
	for _, item := range p.Elements {
		out.Elements = append(out.Elements, usecase.PlayerDTO{
			ID:          item.ID,
			FirstName:   item.FirstName,
			SecondName:  item.SecondName,
			Code:        item.Code,
			TeamCode:    item.TeamCode,
			TotalPoints: item.TotalPoints,
			NowCost:     item.NowCost,
			GoalsScored: item.GoalsScored,
			Assists:     item.Assists,
		})
	}
	return out
}

func (p fixturesPayload) toDTO() []usecase.FixtureDTO {
	out := make([]usecase.FixtureDTO, 0, len(p.Items))
	for _, item := range p.Items {
		out = append(out, usecase.FixtureDTO{
			ID:          item.ID,
			KickoffTime: item.KickoffTime,
			TeamH:       item.TeamH,
			TeamA:       item.TeamA,
			TeamHScore:  item.TeamHScore,
			TeamAScore:  item.TeamAScore,
		})
	}
	return out
}
