// Package schedule places matches into a tournament window: it checks the
// window's capacity and assigns each match a date, time slot and venue under
// the rest-day, blackout and parallel-match rules.
package schedule

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/derekprior/fixtures/internal/fixture"
)

// Options tunes a scheduling run.
type Options struct {
	// AllowParallel lets more than one match share a date and time slot.
	AllowParallel bool
	// MaxParallel caps matches per date and time slot when parallel play is
	// on. Zero means one per venue.
	MaxParallel int
	// Cursor interleaves groups. A fresh cursor is used when nil.
	Cursor *GroupCursor
	// Booked holds matches already placed by an earlier run. Their dates
	// count towards rest days and their venues and slots stay taken.
	Booked []fixture.ScheduledMatch
	// NotBefore is the first day matches may be placed on. Zero means the
	// window start.
	NotBefore time.Time
	Logger logrus.FieldLogger
}

// Utilization compares the matches placed with the window's slot count.
type Utilization struct {
	Scheduled      int
	TheoreticalMax int
	Percent        float64
}

// TeamMetrics holds per-team schedule statistics.
type TeamMetrics struct {
	Games  int
	Home   int
	Away   int
	Dates  []time.Time
	MinGap int // fewest days between consecutive matches, 0 with fewer than two
}

// Result is the output of a successful scheduling run.
type Result struct {
	Matches             []fixture.ScheduledMatch
	Capacity            Capacity
	Utilization         Utilization
	ParallelLimit       int
	ParallelAutoEnabled bool
	Warnings            []string
	TeamMetrics         map[fixture.TeamID]*TeamMetrics
}

// rejectionReason categorizes why a candidate was passed over.
type rejectionReason int

const (
	rejectRestDays rejectionReason = iota
	rejectTeamBlackout
	rejectTimeslotCap
	rejectVenueBlackout
	rejectVenueBooked
)

func (r rejectionReason) String() string {
	switch r {
	case rejectRestDays:
		return "rest_days"
	case rejectTeamBlackout:
		return "team_blackout"
	case rejectTimeslotCap:
		return "timeslot_cap"
	case rejectVenueBlackout:
		return "venue_blackout"
	case rejectVenueBooked:
		return "venue_booked"
	}
	return "unknown"
}

type scheduler struct {
	window fixture.Window
	dates  []time.Time
	times  []string
	venues map[string][]string // time slot -> venues offering it, in config order
	limit  int
	log    logrus.FieldLogger

	assignments []fixture.ScheduledMatch
	usedSlots   map[slotKey]bool
	slotTimeCnt map[timeKey]int
	lastPlayed  map[fixture.TeamID]time.Time
	teamDates   map[fixture.TeamID][]time.Time
	rejections  map[rejectionReason]int
}

type slotKey struct {
	date  time.Time
	time  string
	venue string
}

type timeKey struct {
	date time.Time
	time string
}

// Schedule assigns every match in rounds a date, time slot and venue. The
// window's capacity is checked first so that infeasible requests fail with
// a *fixture.CapacityError before any placement. If any match cannot be
// placed the run fails with a *fixture.UnplaceableMatchError and no partial
// result is returned.
func Schedule(w fixture.Window, rounds []fixture.Round, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = discardLogger()
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	required := fixture.CountMatches(rounds)
	teams := fixture.Teams(rounds)
	capacity := RemainingCapacity(w, len(teams), opts.NotBefore, opts.Booked)
	issues := Validate(required, capacity)
	if err := issues.Err(capacity); err != nil {
		log.WithFields(logrus.Fields{
			"required":      required,
			"slots":         capacity.TotalSlots,
			"pairing_limit": capacity.PairingLimit,
		}).Warn("window cannot hold the fixtures")
		return nil, err
	}

	res := &Result{Capacity: capacity}
	for _, i := range issues.Warnings() {
		res.Warnings = append(res.Warnings, i.Message)
	}

	res.ParallelLimit, res.ParallelAutoEnabled = ParallelLimit(w, opts, required, capacity)
	if res.ParallelAutoEnabled {
		msg := fmt.Sprintf("parallel matches enabled: %d matches exceed %d date and time slots", required, capacity.SlotTimes)
		res.Warnings = append(res.Warnings, msg)
		log.WithFields(logrus.Fields{
			"required":       required,
			"slot_times":     capacity.SlotTimes,
			"parallel_limit": res.ParallelLimit,
		}).Warn("parallel matches enabled automatically")
	}

	s := newScheduler(w, opts.NotBefore, res.ParallelLimit, log)
	s.book(opts.Booked)

	log.WithFields(logrus.Fields{
		"matches":        required,
		"teams":          len(teams),
		"capacity":       capacity.Effective,
		"parallel_limit": res.ParallelLimit,
	}).Info("scheduling fixtures")

	for _, m := range queue(rounds, opts.Cursor) {
		if s.place(m) {
			continue
		}
		fields := logrus.Fields{"match": m.String(), "placed": len(s.assignments)}
		for r, n := range s.rejections {
			fields[r.String()] = n
		}
		log.WithFields(fields).Warn("match could not be placed")
		return nil, &fixture.UnplaceableMatchError{
			Match:     m,
			Required:  required,
			Capacity:  capacity.Effective,
			Scheduled: len(s.assignments),
		}
	}

	res.Matches = s.assignments
	res.TeamMetrics = s.buildMetrics(teams)
	res.Utilization = Utilization{Scheduled: len(s.assignments), TheoreticalMax: capacity.TotalSlots}
	if capacity.TotalSlots > 0 {
		pct := float64(len(s.assignments)) / float64(capacity.TotalSlots) * 100
		res.Utilization.Percent = math.Round(pct*10) / 10
	}
	return res, nil
}

// DayAfter returns the day after the latest booked match, or the zero time
// when nothing is booked. It is the NotBefore for a stage that follows them.
func DayAfter(booked []fixture.ScheduledMatch) time.Time {
	var last time.Time
	for _, sm := range booked {
		if d := fixture.Day(sm.Date); d.After(last) {
			last = d
		}
	}
	if last.IsZero() {
		return last
	}
	return last.AddDate(0, 0, 1)
}

// ParallelLimit returns how many matches may share a date and time slot
// when required matches are placed in w. auto is true when parallel play
// was not requested but required exceeds the window's date and time slots.
func ParallelLimit(w fixture.Window, opts Options, required int, c Capacity) (limit int, auto bool) {
	auto = !opts.AllowParallel && required > c.SlotTimes
	if !opts.AllowParallel && !auto {
		return 1, false
	}
	limit = opts.MaxParallel
	if limit <= 0 {
		limit = len(w.Venues)
	}
	return limit, auto
}

func newScheduler(w fixture.Window, notBefore time.Time, limit int, log logrus.FieldLogger) *scheduler {
	from := fixture.Day(notBefore)
	var dates []time.Time
	for _, d := range w.PlayableDates() {
		if !d.Before(from) {
			dates = append(dates, d)
		}
	}
	venues := make(map[string][]string)
	for _, v := range w.Venues {
		for _, t := range v.TimeSlots {
			venues[t] = append(venues[t], v.Name)
		}
	}
	return &scheduler{
		window:      w,
		dates:       dates,
		times:       SlotTimes(w.Venues),
		venues:      venues,
		limit:       limit,
		log:         log,
		usedSlots:   make(map[slotKey]bool),
		slotTimeCnt: make(map[timeKey]int),
		lastPlayed:  make(map[fixture.TeamID]time.Time),
		teamDates:   make(map[fixture.TeamID][]time.Time),
		rejections:  make(map[rejectionReason]int),
	}
}

// book records matches from an earlier run without returning them.
func (s *scheduler) book(booked []fixture.ScheduledMatch) {
	for _, sm := range booked {
		d := fixture.Day(sm.Date)
		s.usedSlots[slotKey{d, sm.TimeSlot, sm.Venue}] = true
		s.slotTimeCnt[timeKey{d, sm.TimeSlot}]++
		for _, team := range []fixture.TeamID{sm.Home, sm.Away} {
			if last, ok := s.lastPlayed[team]; !ok || d.After(last) {
				s.lastPlayed[team] = d
			}
		}
	}
}

// place scans days from NotBefore, then time slots, then venues, and takes
// the first candidate every rule allows.
func (s *scheduler) place(m fixture.Match) bool {
	for _, d := range s.dates {
		if reason, ok := s.teamsAvailable(m, d); !ok {
			s.rejections[reason]++
			continue
		}
		for _, t := range s.times {
			if s.slotTimeCnt[timeKey{d, t}] >= s.limit {
				s.rejections[rejectTimeslotCap]++
				continue
			}
			for _, v := range s.venues[t] {
				if s.window.VenueBlackouts.Blocked(v, d) {
					s.rejections[rejectVenueBlackout]++
					continue
				}
				if s.usedSlots[slotKey{d, t, v}] {
					s.rejections[rejectVenueBooked]++
					continue
				}
				s.assign(fixture.ScheduledMatch{Match: m, Date: d, TimeSlot: t, Venue: v})
				return true
			}
		}
	}
	return false
}

// teamsAvailable checks rest days and blackouts for both teams on d. A team
// that last played on day L may play again from day L+MinRestDays+1.
func (s *scheduler) teamsAvailable(m fixture.Match, d time.Time) (rejectionReason, bool) {
	for _, team := range []fixture.TeamID{m.Home, m.Away} {
		if last, ok := s.lastPlayed[team]; ok && fixture.DaysBetween(last, d) <= s.window.MinRestDays {
			return rejectRestDays, false
		}
		if s.window.TeamBlackouts.Blocked(string(team), d) {
			return rejectTeamBlackout, false
		}
	}
	return 0, true
}

func (s *scheduler) assign(sm fixture.ScheduledMatch) {
	s.assignments = append(s.assignments, sm)
	s.usedSlots[slotKey{sm.Date, sm.TimeSlot, sm.Venue}] = true
	s.slotTimeCnt[timeKey{sm.Date, sm.TimeSlot}]++
	for _, team := range []fixture.TeamID{sm.Home, sm.Away} {
		s.lastPlayed[team] = sm.Date
		s.teamDates[team] = insertSorted(s.teamDates[team], sm.Date)
	}
	s.log.WithFields(logrus.Fields{
		"match": sm.Match.String(),
		"date":  sm.Date.Format("2006-01-02"),
		"slot":  sm.TimeSlot,
		"venue": sm.Venue,
	}).Debug("match placed")
}

func (s *scheduler) buildMetrics(teams []fixture.TeamID) map[fixture.TeamID]*TeamMetrics {
	metrics := make(map[fixture.TeamID]*TeamMetrics, len(teams))
	for _, team := range teams {
		metrics[team] = &TeamMetrics{}
	}
	for _, sm := range s.assignments {
		metrics[sm.Home].Home++
		metrics[sm.Away].Away++
	}
	for team, m := range metrics {
		m.Dates = s.teamDates[team]
		m.Games = len(m.Dates)
		for i := 1; i < len(m.Dates); i++ {
			gap := fixture.DaysBetween(m.Dates[i-1], m.Dates[i])
			if m.MinGap == 0 || gap < m.MinGap {
				m.MinGap = gap
			}
		}
	}
	return metrics
}

func insertSorted(dates []time.Time, d time.Time) []time.Time {
	i := 0
	for i < len(dates) && dates[i].Before(d) {
		i++
	}
	dates = append(dates, time.Time{})
	copy(dates[i+1:], dates[i:])
	dates[i] = d
	return dates
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
