package player

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
)

const imageURLPrefix = "https://resources.premierleague.com/premierleague/photos/players/110x140/p"

// Record is a player as stored in the local cache.
// Team is resolved from TeamCode at load time and is nil when no team carries that code.
type Record struct {
	ID          int64
	FirstName   string
	SecondName  string
	Code        int64
	TeamCode    int64
	TotalPoints int
	NowCost     int
	GoalsScored int
	Assists     int
	Team        *team.Record
}

func (r Record) Validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("player id must be > 0")
	}
	if r.Team != nil && r.Team.Code != r.TeamCode {
		return fmt.Errorf("player %d team code mismatch: ref=%d team_code=%d", r.ID, r.Team.Code, r.TeamCode)
	}

	return nil
}

// Player is the presentation view of a player.
type Player struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	TeamName    string  `json:"teamName"`
	ImageURL    string  `json:"imageUrl"`
	Points      int     `json:"points"`
	Price       float64 `json:"price"`
	GoalsScored int     `json:"goalsScored"`
	Assists     int     `json:"assists"`
}

func Project(r Record) Player {
	teamName := ""
	if r.Team != nil {
		teamName = r.Team.Name
	}

	return Player{
		ID:          r.ID,
		Name:        r.FirstName + " " + r.SecondName,
		TeamName:    teamName,
		ImageURL:    ImageURL(r.Code),
		Points:      r.TotalPoints,
		Price:       Price(r.NowCost),
		GoalsScored: r.GoalsScored,
		Assists:     r.Assists,
	}
}

func ProjectAll(records []Record) []Player {
	out := make([]Player, 0, len(records))
	for _, r := range records {
		out = append(out, Project(r))
	}
	return out
}

// ImageURL renders the player photo location for a player code.
func ImageURL(code int64) string {
	return imageURLPrefix + strconv.FormatInt(code, 10) + ".png"
}

// Price converts a cost in tenths to currency units.
func Price(nowCost int) float64 {
	return float64(nowCost) / 10
}

// SortedByPoints returns a copy ordered by points descending. Ties keep their input order.
func SortedByPoints(players []Player) []Player {
	out := slices.Clone(players)
	slices.SortStableFunc(out, func(a, b Player) int {
		return b.Points - a.Points
	})
	return out
}
