package fixture

import (
	"fmt"
	"time"

	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
)

// Record is a scheduled fixture as stored in the local cache.
//
// Scores default to 0, which is also the value of a played 0-0 draw; the two cases are not
// distinguishable once stored.
type Record struct {
	ID          int64
	KickoffTime string
	HomeScore   int
	AwayScore   int
	HomeTeam    *team.Record
	AwayTeam    *team.Record
}

func (r Record) Validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("fixture id must be > 0")
	}
	if r.KickoffTime == "" {
		return fmt.Errorf("fixture %d kickoff time is required", r.ID)
	}

	return nil
}

// GameFixture is the presentation view of a fixture.
type GameFixture struct {
	ID               int64     `json:"id"`
	KickoffTime      time.Time `json:"kickoffTime"`
	HomeTeam         string    `json:"homeTeam"`
	AwayTeam         string    `json:"awayTeam"`
	HomeTeamPhotoURL string    `json:"homeTeamPhotoUrl"`
	AwayTeamPhotoURL string    `json:"awayTeamPhotoUrl"`
	HomeScore        int       `json:"homeScore"`
	AwayScore        int       `json:"awayScore"`
}

// ParseKickoff reads an ISO-8601 kickoff timestamp and converts it to loc (time.Local when nil).
func ParseKickoff(raw string, loc *time.Location) (time.Time, error) {
	kickoff, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse kickoff time %q: %w", raw, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return kickoff.In(loc), nil
}

// Project maps a record to its presentation view. It reports false when the kickoff time cannot be parsed.
func Project(r Record, loc *time.Location) (GameFixture, bool) {
	kickoff, err := ParseKickoff(r.KickoffTime, loc)
	if err != nil {
		return GameFixture{}, false
	}

	homeName, homeCode := teamNameAndCode(r.HomeTeam)
	awayName, awayCode := teamNameAndCode(r.AwayTeam)

	return GameFixture{
		ID:               r.ID,
		KickoffTime:      kickoff,
		HomeTeam:         homeName,
		AwayTeam:         awayName,
		HomeTeamPhotoURL: team.BadgeURL(homeCode),
		AwayTeamPhotoURL: team.BadgeURL(awayCode),
		HomeScore:        r.HomeScore,
		AwayScore:        r.AwayScore,
	}, true
}

// ProjectAll maps records in order and drops the ones with an unparsable kickoff time.
func ProjectAll(records []Record, loc *time.Location) []GameFixture {
	out := make([]GameFixture, 0, len(records))
	for _, r := range records {
		item, ok := Project(r, loc)
		if !ok {
			continue
		}
		out = append(out, item)
	}
	return out
}

func teamNameAndCode(ref *team.Record) (string, int64) {
	if ref == nil {
		return "", 0
	}
	return ref.Name, ref.Code
}
