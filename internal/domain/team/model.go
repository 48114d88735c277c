package team

import (
	"fmt"
	"strconv"
)

const badgeURLPrefix = "https://resources.premierleague.com/premierleague/badges/t"

// Record is a club as stored in the local cache.
//
// Index is the 1-based position of the team in the snapshot it was loaded from. Fixtures join on it,
// so it only has meaning within one generation of the cache.
type Record struct {
	ID    int64
	Index int
	Name  string
	Code  int64
}

func (r Record) Validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("team id must be > 0")
	}
	if r.Index < 1 {
		return fmt.Errorf("team %d index must be >= 1", r.ID)
	}

	return nil
}

// Team is the presentation view of a club.
type Team struct {
	ID    int64  `json:"id"`
	Index int    `json:"index"`
	Name  string `json:"name"`
	Code  int64  `json:"code"`
}

func Project(r Record) Team {
	return Team{
		ID:    r.ID,
		Index: r.Index,
		Name:  r.Name,
		Code:  r.Code,
	}
}

func ProjectAll(records []Record) []Team {
	out := make([]Team, 0, len(records))
	for _, r := range records {
		out = append(out, Project(r))
	}
	return out
}

// BadgeURL renders the club badge location for a team code.
func BadgeURL(code int64) string {
	return badgeURLPrefix + strconv.FormatInt(code, 10) + ".png"
}

// FindByCode returns the first record with the given code.
func FindByCode(records []Record, code int64) (*Record, bool) {
	for i := range records {
		if records[i].Code == code {
			return &records[i], true
		}
	}
	return nil, false
}

// FindByIndex returns the first record with the given display index.
func FindByIndex(records []Record, index int) (*Record, bool) {
	for i := range records {
		if records[i].Index == index {
			return &records[i], true
		}
	}
	return nil, false
}
