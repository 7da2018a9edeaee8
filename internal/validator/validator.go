package validator

import (
	"fmt"
	"sort"
	"time"

	"github.com/derekprior/fixtures/internal/config"
	"github.com/derekprior/fixtures/internal/excel"
	"github.com/derekprior/fixtures/internal/fixture"
	"github.com/derekprior/fixtures/internal/format"
	"github.com/derekprior/fixtures/internal/schedule"
	"github.com/xuri/excelize/v2"
)

// Violation represents a constraint violation found during validation.
type Violation struct {
	Row     int    // sheet row, 0 when the violation is not tied to one row
	Type    string // "error" or "warning"
	Message string
}

// Validate reads a schedule workbook and checks it against the config rules.
func Validate(cfg *config.Config, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	rows, err := excel.ReadSchedule(f)
	if err != nil {
		return nil, fmt.Errorf("reading schedule: %w", err)
	}
	return Check(cfg, rows)
}

// Check validates rows already read from a workbook.
func Check(cfg *config.Config, rows []excel.Row) ([]Violation, error) {
	w := cfg.FixtureWindow()

	var violations []Violation

	// Hard constraints
	violations = append(violations, checkSlots(w, rows)...)
	violations = append(violations, checkVenueDoubleBooking(rows)...)
	violations = append(violations, checkTeamBlackouts(w, rows)...)
	violations = append(violations, checkRestDays(w.MinRestDays, rows)...)
	violations = append(violations, checkParallel(cfg, w, rows)...)

	// Reserve day usage
	violations = append(violations, checkReserveUsage(w, rows)...)

	// Fixture completeness
	complete, err := checkCompleteness(cfg, rows)
	if err != nil {
		return nil, err
	}
	violations = append(violations, complete...)

	return violations, nil
}

// checkSlots verifies every match sits inside the window on a time slot its
// venue offers, at a venue that is not blacked out.
func checkSlots(w fixture.Window, rows []excel.Row) []Violation {
	venues := make(map[string]fixture.Venue, len(w.Venues))
	for _, v := range w.Venues {
		venues[v.Name] = v
	}

	var violations []Violation
	for _, r := range rows {
		if r.Date.Before(fixture.Day(w.Start)) || r.Date.After(fixture.Day(w.End)) {
			violations = append(violations, Violation{
				Row: r.Row, Type: "error",
				Message: fmt.Sprintf("%s on %s is outside the window", r.Match, r.Date.Format("01/02")),
			})
		}
		v, ok := venues[r.Venue]
		if !ok {
			violations = append(violations, Violation{
				Row: r.Row, Type: "error",
				Message: fmt.Sprintf("%s is at unknown venue %q", r.Match, r.Venue),
			})
			continue
		}
		if !offers(v, r.TimeSlot) {
			violations = append(violations, Violation{
				Row: r.Row, Type: "error",
				Message: fmt.Sprintf("%s has no %s slot", r.Venue, r.TimeSlot),
			})
		}
		if w.VenueBlackouts.Blocked(r.Venue, r.Date) {
			violations = append(violations, Violation{
				Row: r.Row, Type: "error",
				Message: fmt.Sprintf("%s is blacked out on %s", r.Venue, r.Date.Format("01/02")),
			})
		}
	}
	return violations
}

func offers(v fixture.Venue, slot string) bool {
	for _, ts := range v.TimeSlots {
		if ts == slot {
			return true
		}
	}
	return false
}

func checkVenueDoubleBooking(rows []excel.Row) []Violation {
	type slotKey struct {
		date  time.Time
		time  string
		venue string
	}
	first := make(map[slotKey]int)
	var violations []Violation
	for _, r := range rows {
		k := slotKey{r.Date, r.TimeSlot, r.Venue}
		if prev, ok := first[k]; ok {
			violations = append(violations, Violation{
				Row: r.Row, Type: "error",
				Message: fmt.Sprintf("%s %s %s is already used by row %d", r.Venue, r.Date.Format("01/02"), r.TimeSlot, prev),
			})
			continue
		}
		first[k] = r.Row
	}
	return violations
}

func checkTeamBlackouts(w fixture.Window, rows []excel.Row) []Violation {
	var violations []Violation
	for _, r := range rows {
		for _, team := range []fixture.TeamID{r.Home, r.Away} {
			if w.TeamBlackouts.Blocked(string(team), r.Date) {
				violations = append(violations, Violation{
					Row: r.Row, Type: "error",
					Message: fmt.Sprintf("%s is unavailable on %s", team, r.Date.Format("01/02")),
				})
			}
		}
	}
	return violations
}

// checkRestDays flags consecutive matches of a team with fewer than
// minRest full days between them. Two matches on the same day always fail.
func checkRestDays(minRest int, rows []excel.Row) []Violation {
	type appearance struct {
		row  int
		date time.Time
	}
	byTeam := make(map[fixture.TeamID][]appearance)
	var teams []fixture.TeamID
	for _, r := range rows {
		for _, team := range []fixture.TeamID{r.Home, r.Away} {
			if _, ok := byTeam[team]; !ok {
				teams = append(teams, team)
			}
			byTeam[team] = append(byTeam[team], appearance{r.Row, r.Date})
		}
	}

	var violations []Violation
	for _, team := range teams {
		apps := byTeam[team]
		sort.SliceStable(apps, func(i, j int) bool { return apps[i].date.Before(apps[j].date) })
		for i := 1; i < len(apps); i++ {
			gap := fixture.DaysBetween(apps[i-1].date, apps[i].date)
			if gap > minRest {
				continue
			}
			violations = append(violations, Violation{
				Row: apps[i].row, Type: "error",
				Message: fmt.Sprintf("%s plays %s and %s (%d day(s) apart, needs more than %d)",
					team, apps[i-1].date.Format("01/02"), apps[i].date.Format("01/02"), gap, minRest),
			})
		}
	}
	return violations
}

// checkParallel applies the same per-slot limit the scheduler uses, including
// switching parallel play on when the window has too few date and time slots.
func checkParallel(cfg *config.Config, w fixture.Window, rows []excel.Row) []Violation {
	capacity := schedule.CalculateCapacity(w, len(cfg.Teams()))
	limit, auto := schedule.ParallelLimit(w, cfg.ScheduleOptions(nil), len(rows), capacity)

	type timeKey struct {
		date time.Time
		time string
	}
	counts := make(map[timeKey]int)
	var violations []Violation
	for _, r := range rows {
		k := timeKey{r.Date, r.TimeSlot}
		counts[k]++
		if counts[k] == limit+1 {
			violations = append(violations, Violation{
				Row: r.Row, Type: "error",
				Message: fmt.Sprintf("more than %d match(es) at %s %s", limit, r.Date.Format("01/02"), r.TimeSlot),
			})
		}
	}
	if auto {
		violations = append(violations, Violation{
			Type:    "warning",
			Message: fmt.Sprintf("parallel matches needed: %d matches exceed %d date and time slots", len(rows), capacity.SlotTimes),
		})
	}
	return violations
}

// checkReserveUsage warns when matches sit on reserve days while regular
// slots are still free.
func checkReserveUsage(w fixture.Window, rows []excel.Row) []Violation {
	var onReserve, regular int
	for _, r := range rows {
		if w.IsReserve(r.Date) {
			onReserve++
		} else {
			regular++
		}
	}
	if onReserve == 0 {
		return nil
	}
	open := schedule.CalculateCapacity(w, 0).TotalSlots - regular
	if open <= 0 {
		return nil
	}
	return []Violation{{
		Type: "warning",
		Message: fmt.Sprintf(
			"%d match(es) on reserve days could potentially fit in %d open regular slot(s)",
			onReserve, open),
	}}
}

// checkCompleteness compares the workbook with the opening stage the
// configured format produces: every pairing present, none repeated, no
// unknown teams. Matches from later stages are ignored.
func checkCompleteness(cfg *config.Config, rows []excel.Row) ([]Violation, error) {
	builder, err := format.Get(cfg.Tournament.Format)
	if err != nil {
		return nil, err
	}
	plan, err := builder.Build(cfg.Teams(), cfg.FormatOptions())
	if err != nil {
		return nil, fmt.Errorf("building %s fixtures: %w", cfg.Tournament.Format, err)
	}

	type pairKey struct{ a, b fixture.TeamID }
	key := func(x, y fixture.TeamID) pairKey {
		if y < x {
			x, y = y, x
		}
		return pairKey{x, y}
	}

	stages := make(map[fixture.Stage]bool)
	expected := make(map[pairKey]int)
	var order []pairKey
	for _, r := range plan.Rounds {
		for _, m := range r.Matches {
			stages[m.Stage] = true
			k := key(m.Home, m.Away)
			if expected[k] == 0 {
				order = append(order, k)
			}
			expected[k]++
		}
	}

	known := make(map[fixture.TeamID]bool)
	for _, t := range cfg.Teams() {
		known[t] = true
	}

	var violations []Violation
	actual := make(map[pairKey]int)
	for _, r := range rows {
		for _, team := range []fixture.TeamID{r.Home, r.Away} {
			if !known[team] {
				violations = append(violations, Violation{
					Row: r.Row, Type: "error",
					Message: fmt.Sprintf("unknown team %q", team),
				})
			}
		}
		if r.Stage != "" && !stages[r.Stage] {
			continue
		}
		k := key(r.Home, r.Away)
		actual[k]++
		if actual[k] > expected[k] && expected[k] > 0 {
			violations = append(violations, Violation{
				Row: r.Row, Type: "error",
				Message: fmt.Sprintf("%s vs %s scheduled %d time(s), expected %d", k.a, k.b, actual[k], expected[k]),
			})
		}
		if expected[k] == 0 && known[r.Home] && known[r.Away] {
			violations = append(violations, Violation{
				Row: r.Row, Type: "error",
				Message: fmt.Sprintf("%s vs %s is not a %s fixture", k.a, k.b, cfg.Tournament.Format),
			})
		}
	}

	for _, k := range order {
		if actual[k] < expected[k] {
			violations = append(violations, Violation{
				Type:    "error",
				Message: fmt.Sprintf("%s vs %s scheduled %d time(s), expected %d", k.a, k.b, actual[k], expected[k]),
			})
		}
	}
	return violations, nil
}
