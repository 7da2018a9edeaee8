package fixture

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TeamID identifies a competing team. The core attaches no other meaning to it.
type TeamID string

// Stage tags the part of a tournament a match belongs to.
type Stage string

const (
	StageGroup      Stage = "Group"
	StageKnockout   Stage = "Knockout"
	StageQualifier1 Stage = "Qualifier1"
	StageEliminator Stage = "Eliminator"
	StageQualifier2 Stage = "Qualifier2"
	StageFinal      Stage = "Final"
	StageSuperRound Stage = "SuperRound"
	StageSemiFinal  Stage = "SemiFinal"
)

// Venue is a ground with the time slots it offers each day.
type Venue struct {
	Name      string
	TimeSlots []string // "09:00", "14:00", ...
}

// Match is a candidate fixture between two teams.
type Match struct {
	ID       string
	Home     TeamID
	Away     TeamID
	Round    int
	Label    string // "Round 3", "Quarter-Final", "Qualifier 1"
	Stage    Stage
	Group    string
	HomeSeed int
	AwaySeed int
	Leg      int // 2 for the mirrored pass of a double round-robin
}

func (m Match) String() string {
	s := fmt.Sprintf("%s vs %s (%s", m.Home, m.Away, m.Label)
	if m.Group != "" {
		s += ", Group " + m.Group
	}
	return s + ")"
}

// Involves reports whether team plays in the match.
func (m Match) Involves(team TeamID) bool {
	return m.Home == team || m.Away == team
}

// Round is an ordered set of matches sharing round metadata.
type Round struct {
	Number  int
	Label   string
	Stage   Stage
	Group   string
	Matches []Match
}

// ScheduledMatch is a match with its date, time slot and venue attached.
type ScheduledMatch struct {
	Match
	Date     time.Time
	TimeSlot string
	Venue    string
}

// Kickoff returns the instant the match starts in loc. A time slot that is
// not in HH:MM form is treated as midnight.
func (s ScheduledMatch) Kickoff(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := s.Date.Date()
	t, err := time.Parse("15:04", strings.TrimSpace(s.TimeSlot))
	if err != nil {
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
}

var matchNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("fixtures.match"))

// NewMatchID derives a stable identifier from the parts that make a match
// unique within a tournament. Identical inputs always yield the same ID.
func NewMatchID(parts ...string) string {
	return uuid.NewSHA1(matchNamespace, []byte(strings.Join(parts, "|"))).String()
}

// CountMatches returns the number of matches across rounds.
func CountMatches(rounds []Round) int {
	n := 0
	for _, r := range rounds {
		n += len(r.Matches)
	}
	return n
}

// Teams returns the distinct teams appearing in rounds, in first-seen order.
func Teams(rounds []Round) []TeamID {
	seen := make(map[TeamID]bool)
	var teams []TeamID
	for _, r := range rounds {
		for _, m := range r.Matches {
			for _, t := range []TeamID{m.Home, m.Away} {
				if !seen[t] {
					seen[t] = true
					teams = append(teams, t)
				}
			}
		}
	}
	return teams
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
