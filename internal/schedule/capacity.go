package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/derekprior/fixtures/internal/fixture"
)

// Capacity summarises how many matches a window can hold.
type Capacity struct {
	Days         int // calendar days in the window
	PlayableDays int // days that are not reserve dates
	TotalSlots   int // venue time slots across playable days
	SlotTimes    int // distinct (day, time) pairs across playable days
	PairingLimit int // matches the rest-day rule allows
	Effective    int
	Venues       int
	Teams        int
}

// CalculateCapacity counts the venue time slots in the window and the number
// of matches the rest-day rule permits for teamCount teams. Reserve dates and
// blacked-out venues contribute nothing.
func CalculateCapacity(w fixture.Window, teamCount int) Capacity {
	return RemainingCapacity(w, teamCount, time.Time{}, nil)
}

// CapacityForRounds is CalculateCapacity for the teams that actually play in
// rounds. Teams with a knockout bye do not count.
func CapacityForRounds(w fixture.Window, rounds []fixture.Round) Capacity {
	return CalculateCapacity(w, len(fixture.Teams(rounds)))
}

// RemainingCapacity is CalculateCapacity for a later stage: only days from
// notBefore on count, and the venue slots taken by booked matches are
// removed. A date and time with any booked match no longer counts towards
// SlotTimes.
func RemainingCapacity(w fixture.Window, teamCount int, notBefore time.Time, booked []fixture.ScheduledMatch) Capacity {
	c := Capacity{
		Venues: len(w.Venues),
		Teams:  teamCount,
	}
	taken := make(map[slotKey]bool, len(booked))
	busy := make(map[timeKey]bool, len(booked))
	for _, sm := range booked {
		d := fixture.Day(sm.Date)
		taken[slotKey{d, sm.TimeSlot, sm.Venue}] = true
		busy[timeKey{d, sm.TimeSlot}] = true
	}
	from := fixture.Day(notBefore)

	for _, d := range w.Dates() {
		if !d.Before(from) {
			c.Days++
		}
	}
	for _, d := range w.PlayableDates() {
		if d.Before(from) {
			continue
		}
		c.PlayableDays++
		times := make(map[string]bool)
		for _, v := range w.Venues {
			if w.VenueBlackouts.Blocked(v.Name, d) {
				continue
			}
			for _, t := range v.TimeSlots {
				if taken[slotKey{d, t, v.Name}] {
					continue
				}
				c.TotalSlots++
				if !busy[timeKey{d, t}] {
					times[t] = true
				}
			}
		}
		c.SlotTimes += len(times)
	}

	c.PairingLimit = c.PlayableDays / (w.MinRestDays + 1) * teamCount / 2
	c.Effective = min(c.TotalSlots, c.PairingLimit)
	return c
}

// Severity classifies a capacity issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes reported by Validate.
const (
	CodeInsufficientCapacity = "INSUFFICIENT_CAPACITY"
	CodeRestDaysConstraint   = "REST_DAYS_CONSTRAINT"
	CodeLimitedVenues        = "LIMITED_VENUES"
)

// limitedVenuesThreshold is the match count at which a single venue is worth
// a warning.
const limitedVenuesThreshold = 20

// Issue is one finding from a capacity check.
type Issue struct {
	Code      string
	Severity  Severity
	Message   string
	Required  int
	Available int
}

// Issues is the result of a capacity check.
type Issues []Issue

// HasErrors reports whether any issue is fatal.
func (is Issues) HasErrors() bool {
	for _, i := range is {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Warnings returns the non-fatal issues.
func (is Issues) Warnings() Issues {
	var out Issues
	for _, i := range is {
		if i.Severity == SeverityWarning {
			out = append(out, i)
		}
	}
	return out
}

// Validate checks required matches against c. It never fails itself; callers
// turn error issues into a *fixture.CapacityError with Err.
func Validate(required int, c Capacity) Issues {
	var issues Issues
	if required > c.Effective {
		issues = append(issues, Issue{
			Code:      CodeInsufficientCapacity,
			Severity:  SeverityError,
			Message:   fmt.Sprintf("%d matches required but the window holds at most %d", required, c.Effective),
			Required:  required,
			Available: c.Effective,
		})
	}
	if c.PairingLimit < c.TotalSlots && required > c.PairingLimit {
		issues = append(issues, Issue{
			Code:     CodeRestDaysConstraint,
			Severity: SeverityError,
			Message: fmt.Sprintf("rest days allow %d teams at most %d matches over %d playable days",
				c.Teams, c.PairingLimit, c.PlayableDays),
			Required:  required,
			Available: c.PairingLimit,
		})
	}
	if c.Venues < 2 && required >= limitedVenuesThreshold {
		issues = append(issues, Issue{
			Code:      CodeLimitedVenues,
			Severity:  SeverityWarning,
			Message:   fmt.Sprintf("%d matches share %d venue", required, c.Venues),
			Required:  required,
			Available: c.Venues,
		})
	}
	return issues
}

// Err returns a *fixture.CapacityError when any issue is fatal.
func (is Issues) Err(c Capacity) error {
	for _, i := range is {
		if i.Severity != SeverityError {
			continue
		}
		return &fixture.CapacityError{
			Required:     i.Required,
			Available:    c.Effective,
			SlotCapacity: c.TotalSlots,
			PairingLimit: c.PairingLimit,
		}
	}
	return nil
}

// SlotTimes returns the union of every venue's time slots in kickoff order.
func SlotTimes(venues []fixture.Venue) []string {
	seen := make(map[string]bool)
	var times []string
	for _, v := range venues {
		for _, t := range v.TimeSlots {
			if !seen[t] {
				seen[t] = true
				times = append(times, t)
			}
		}
	}
	sort.SliceStable(times, func(i, j int) bool {
		return kickoffMinutes(times[i]) < kickoffMinutes(times[j])
	})
	return times
}

// kickoffMinutes orders "15:04" labels; unparseable labels sort last.
func kickoffMinutes(label string) int {
	t, err := time.Parse("15:04", label)
	if err != nil {
		return 24 * 60
	}
	return t.Hour()*60 + t.Minute()
}
