// Package status keeps match and tournament lifecycle states in step with
// the clock.
package status

import (
	"time"

	"github.com/derekprior/fixtures/internal/fixture"
)

// MatchStatus is the lifecycle state of one match.
type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchCompleted MatchStatus = "completed"
)

// TournamentStatus is the lifecycle state of a tournament.
type TournamentStatus string

const (
	TournamentOpen      TournamentStatus = "open"
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentOngoing   TournamentStatus = "ongoing"
	TournamentCompleted TournamentStatus = "completed"
)

var tournamentRank = map[TournamentStatus]int{
	TournamentOpen:      0,
	TournamentUpcoming:  1,
	TournamentOngoing:   2,
	TournamentCompleted: 3,
}

// Match is the status-relevant view of a scheduled match. Completed is set
// outside this package once a result is recorded.
type Match struct {
	ID      string      `yaml:"id"`
	Kickoff time.Time   `yaml:"kickoff"`
	Status  MatchStatus `yaml:"status"`
}

// Tournament is the status-relevant view of a tournament.
type Tournament struct {
	ID                   string           `yaml:"id"`
	Name                 string           `yaml:"name"`
	Status               TournamentStatus `yaml:"status"`
	RegistrationDeadline time.Time        `yaml:"registration_deadline"`
	StartDate            time.Time        `yaml:"start_date"`
	FixturesGenerated    bool             `yaml:"fixtures_generated"`
	Matches              []Match          `yaml:"matches"`
}

// due returns the matches that should go live at now.
func (t Tournament) due(now time.Time) []Match {
	var out []Match
	for _, m := range t.Matches {
		if m.Status == MatchScheduled && !m.Kickoff.IsZero() && !now.Before(m.Kickoff) {
			out = append(out, m)
		}
	}
	return out
}

// next returns the status t should hold at now, given that the matches in
// live have just gone live. Statuses only move forward.
func (t Tournament) next(now time.Time, live []Match) TournamentStatus {
	target := t.Status
	if target == "" {
		target = TournamentOpen
	}
	advance := func(s TournamentStatus) {
		if tournamentRank[s] > tournamentRank[target] {
			target = s
		}
	}

	if !t.RegistrationDeadline.IsZero() && !now.Before(t.RegistrationDeadline) {
		advance(TournamentUpcoming)
	}

	anyLive := len(live) > 0
	allDone := len(t.Matches) > 0
	for _, m := range t.Matches {
		if m.Status == MatchLive {
			anyLive = true
		}
		if m.Status != MatchCompleted {
			allDone = false
		}
	}
	if anyLive || (t.FixturesGenerated && !t.StartDate.IsZero() && !now.Before(t.StartDate)) {
		advance(TournamentOngoing)
	}
	if allDone {
		advance(TournamentCompleted)
	}
	return target
}

// FromSchedule builds the status view of a newly scheduled tournament.
// Kickoffs are taken in loc and the start date is midnight of the first
// match day.
func FromSchedule(id, name string, matches []fixture.ScheduledMatch, loc *time.Location) Tournament {
	if loc == nil {
		loc = time.UTC
	}
	t := Tournament{ID: id, Name: name, Status: TournamentOpen, FixturesGenerated: len(matches) > 0}
	for _, m := range matches {
		kickoff := m.Kickoff(loc)
		t.Matches = append(t.Matches, Match{ID: m.ID, Kickoff: kickoff, Status: MatchScheduled})
		y, mo, d := kickoff.Date()
		if day := time.Date(y, mo, d, 0, 0, 0, 0, loc); t.StartDate.IsZero() || day.Before(t.StartDate) {
			t.StartDate = day
		}
	}
	return t
}
