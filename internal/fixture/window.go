package fixture

import (
	"time"
)

// Blackouts maps a team or venue identifier to the dates it is unavailable.
type Blackouts map[string][]time.Time

// Blocked reports whether key is blacked out on date.
func (b Blackouts) Blocked(key string, date time.Time) bool {
	d := Day(date)
	for _, bd := range b[key] {
		if Day(bd).Equal(d) {
			return true
		}
	}
	return false
}

// Add blacks out key on the given dates.
func (b Blackouts) Add(key string, dates ...time.Time) {
	for _, d := range dates {
		b[key] = append(b[key], Day(d))
	}
}

// Window is the date range and resources a tournament is scheduled into.
type Window struct {
	Start          time.Time
	End            time.Time
	MinRestDays    int
	ReserveDates   []time.Time
	Venues         []Venue
	TeamBlackouts  Blackouts
	VenueBlackouts Blackouts
}

// Validate checks the window is well formed.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return &ValidationError{Field: "window", Reason: "start and end dates are required"}
	}
	if Day(w.End).Before(Day(w.Start)) {
		return &ValidationError{
			Field: "window",
			Reason: "end date " + Day(w.End).Format("2006-01-02") +
				" is before start date " + Day(w.Start).Format("2006-01-02"),
		}
	}
	if w.MinRestDays < 0 {
		return &ValidationError{Field: "min_rest_days", Reason: "must not be negative"}
	}
	if len(w.Venues) == 0 {
		return &ValidationError{Field: "venues", Reason: "at least one venue is required"}
	}
	seen := make(map[string]bool)
	for _, v := range w.Venues {
		if v.Name == "" {
			return &ValidationError{Field: "venues", Reason: "venue name is required"}
		}
		if seen[v.Name] {
			return &ValidationError{Field: "venues", Reason: "duplicate venue " + v.Name}
		}
		seen[v.Name] = true
		if len(v.TimeSlots) == 0 {
			return &ValidationError{Field: "venues", Reason: "venue " + v.Name + " has no time slots"}
		}
	}
	return nil
}

// Dates returns every calendar day from Start to End inclusive.
func (w Window) Dates() []time.Time {
	var dates []time.Time
	for d := Day(w.Start); !d.After(Day(w.End)); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// IsReserve reports whether date is held back as a reserve day.
func (w Window) IsReserve(date time.Time) bool {
	d := Day(date)
	for _, r := range w.ReserveDates {
		if Day(r).Equal(d) {
			return true
		}
	}
	return false
}

// PlayableDates returns the window's dates excluding reserve days.
func (w Window) PlayableDates() []time.Time {
	var dates []time.Time
	for _, d := range w.Dates() {
		if !w.IsReserve(d) {
			dates = append(dates, d)
		}
	}
	return dates
}
