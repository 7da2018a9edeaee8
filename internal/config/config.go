package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/derekprior/fixtures/internal/fixture"
	"github.com/derekprior/fixtures/internal/format"
	"github.com/derekprior/fixtures/internal/pairing"
	"github.com/derekprior/fixtures/internal/schedule"
	"github.com/derekprior/fixtures/internal/standings"
)

// Environment variables read by the CLI.
const (
	EnvConfigPath = "FIXTURES_CONFIG"
	EnvLogLevel   = "FIXTURES_LOG_LEVEL"
)

// DefaultPath is used when neither a flag nor FIXTURES_CONFIG names a file.
const DefaultPath = "fixtures.yaml"

// Date is a wrapper around time.Time for YAML date parsing.
type Date struct {
	Time time.Time
}

// UnmarshalYAML accepts ISO dates and, failing that, any layout dateparse
// recognises ("April 4, 2026", "04/04/2026").
func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse("2006-01-02", value.Value)
	if err != nil {
		t, err = dateparse.ParseIn(value.Value, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", value.Value, err)
		}
	}
	d.Time = fixture.Day(t)
	return nil
}

func (d Date) MarshalYAML() (interface{}, error) {
	return d.Time.Format("2006-01-02"), nil
}

// Blackout is a single date or an inclusive date range.
type Blackout struct {
	Date      *Date  `yaml:"date,omitempty"`
	StartDate *Date  `yaml:"start_date,omitempty"`
	EndDate   *Date  `yaml:"end_date,omitempty"`
	Reason    string `yaml:"reason,omitempty"`
}

// Dates returns all dates covered by this blackout.
// Supports single date (date:) or range (start_date:/end_date:).
func (b *Blackout) Dates() []time.Time {
	if b.StartDate != nil && b.EndDate != nil {
		var dates []time.Time
		for d := b.StartDate.Time; !d.After(b.EndDate.Time); d = d.AddDate(0, 0, 1) {
			dates = append(dates, d)
		}
		return dates
	}
	if b.Date != nil {
		return []time.Time{b.Date.Time}
	}
	return nil
}

func (b *Blackout) validate(owner string) error {
	hasDate := b.Date != nil
	hasRange := b.StartDate != nil || b.EndDate != nil
	switch {
	case !hasDate && !hasRange:
		return fmt.Errorf("%s: blackout must have either 'date' or 'start_date'/'end_date'", owner)
	case hasDate && hasRange:
		return fmt.Errorf("%s: blackout cannot have both 'date' and 'start_date'/'end_date'", owner)
	case hasRange && (b.StartDate == nil || b.EndDate == nil):
		return fmt.Errorf("%s: blackout with date range must have both 'start_date' and 'end_date'", owner)
	case hasRange && b.EndDate.Time.Before(b.StartDate.Time):
		return fmt.Errorf("%s: blackout end_date must be on or after start_date", owner)
	}
	return nil
}

// Team is a tournament entrant. In YAML it is either a bare name or a
// mapping with a seed.
type Team struct {
	Name string `yaml:"name"`
	Seed int    `yaml:"seed,omitempty"`
}

func (t *Team) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		t.Name = value.Value
		return nil
	}
	type plain Team
	return value.Decode((*plain)(t))
}

type Tournament struct {
	Name   string `yaml:"name"`
	Format string `yaml:"format"`
	Teams  []Team `yaml:"teams"`
}

type Window struct {
	StartDate    Date   `yaml:"start_date"`
	EndDate      Date   `yaml:"end_date"`
	MinRestDays  int    `yaml:"min_rest_days"`
	ReserveDates []Date `yaml:"reserve_dates"`
	Timezone     string `yaml:"timezone"`
}

type Venue struct {
	Name      string     `yaml:"name"`
	TimeSlots []string   `yaml:"time_slots"`
	Blackouts []Blackout `yaml:"blackouts"`
}

type TeamBlackout struct {
	Team     string `yaml:"team"`
	Blackout `yaml:",inline"`
}

type Options struct {
	DoubleRoundRobin   bool `yaml:"double_round_robin"`
	Groups             int  `yaml:"groups"`
	QualifiersPerGroup int  `yaml:"qualifiers_per_group"`
	SuperGroups        int  `yaml:"super_groups"`
	CarryForwardPoints bool `yaml:"carry_forward_points"`
	AllowParallel      bool `yaml:"allow_parallel"`
	MaxParallel        int  `yaml:"max_parallel"`
}

type Config struct {
	Tournament    Tournament             `yaml:"tournament"`
	Window        Window                 `yaml:"window"`
	Venues        []Venue                `yaml:"venues"`
	TeamBlackouts []TeamBlackout         `yaml:"team_blackouts"`
	Options       Options                `yaml:"options"`
	Points        *standings.PointsRules `yaml:"points"`
	TieBreakers   []string               `yaml:"tie_breakers"`
	LogLevel      string                 `yaml:"log_level"`
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

// Path picks the config file: the flag value if set, then FIXTURES_CONFIG,
// then DefaultPath.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultPath
}

func (c *Config) validate() error {
	if c.Tournament.Format == "" {
		return fmt.Errorf("tournament format is required")
	}
	if _, err := format.Get(c.Tournament.Format); err != nil {
		return fmt.Errorf("tournament format: %w", err)
	}

	if len(c.Tournament.Teams) < 2 {
		return fmt.Errorf("at least two teams are required, got %d", len(c.Tournament.Teams))
	}
	teams := make(map[string]bool)
	seeds := make(map[int]string)
	for _, t := range c.Tournament.Teams {
		if t.Name == "" {
			return fmt.Errorf("team name is required")
		}
		if teams[t.Name] {
			return fmt.Errorf("team %q is listed twice", t.Name)
		}
		teams[t.Name] = true
		if t.Seed < 0 {
			return fmt.Errorf("team %q: seed must not be negative", t.Name)
		}
		if t.Seed > 0 {
			if prev, ok := seeds[t.Seed]; ok {
				return fmt.Errorf("teams %q and %q share seed %d", prev, t.Name, t.Seed)
			}
			seeds[t.Seed] = t.Name
		}
	}

	if c.Window.StartDate.Time.IsZero() || c.Window.EndDate.Time.IsZero() {
		return fmt.Errorf("window start_date and end_date are required")
	}
	if c.Window.EndDate.Time.Before(c.Window.StartDate.Time) {
		return fmt.Errorf("end date %s must not be before start date %s",
			c.Window.EndDate.Time.Format("2006-01-02"),
			c.Window.StartDate.Time.Format("2006-01-02"))
	}
	if c.Window.MinRestDays < 0 {
		return fmt.Errorf("min_rest_days must not be negative")
	}
	for _, r := range c.Window.ReserveDates {
		if r.Time.Before(c.Window.StartDate.Time) || r.Time.After(c.Window.EndDate.Time) {
			return fmt.Errorf("reserve date %s is outside the window", r.Time.Format("2006-01-02"))
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if len(c.Venues) == 0 {
		return fmt.Errorf("at least one venue is required")
	}
	venues := make(map[string]bool)
	for _, v := range c.Venues {
		if v.Name == "" {
			return fmt.Errorf("venue name is required")
		}
		if venues[v.Name] {
			return fmt.Errorf("venue %q is listed twice", v.Name)
		}
		venues[v.Name] = true
		if len(v.TimeSlots) == 0 {
			return fmt.Errorf("venue %q has no time slots", v.Name)
		}
		for _, slot := range v.TimeSlots {
			if _, err := time.Parse("15:04", slot); err != nil {
				return fmt.Errorf("venue %q: time slot %q is not HH:MM", v.Name, slot)
			}
		}
		for _, b := range v.Blackouts {
			if err := b.validate(fmt.Sprintf("venue %q", v.Name)); err != nil {
				return err
			}
		}
	}

	for _, tb := range c.TeamBlackouts {
		if !teams[tb.Team] {
			return fmt.Errorf("team blackout for unknown team %q", tb.Team)
		}
		if err := tb.validate(fmt.Sprintf("team %q", tb.Team)); err != nil {
			return err
		}
	}

	o := c.Options
	if o.Groups < 0 || o.QualifiersPerGroup < 0 || o.SuperGroups < 0 || o.MaxParallel < 0 {
		return fmt.Errorf("options must not be negative")
	}

	if err := c.PointsRules().Validate(); err != nil {
		return fmt.Errorf("points: %w", err)
	}
	if _, err := standings.ParseRules(c.TieBreakers); err != nil {
		return err
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	return nil
}

// Teams returns the team IDs in configuration order.
func (c *Config) Teams() []fixture.TeamID {
	teams := make([]fixture.TeamID, len(c.Tournament.Teams))
	for i, t := range c.Tournament.Teams {
		teams[i] = fixture.TeamID(t.Name)
	}
	return teams
}

// Seeds returns the seeded teams' ranks.
func (c *Config) Seeds() pairing.Seeds {
	seeds := make(pairing.Seeds)
	for _, t := range c.Tournament.Teams {
		if t.Seed > 0 {
			seeds[fixture.TeamID(t.Name)] = t.Seed
		}
	}
	return seeds
}

// FixtureWindow converts the window, venues and blackouts for the scheduler.
func (c *Config) FixtureWindow() fixture.Window {
	w := fixture.Window{
		Start:          c.Window.StartDate.Time,
		End:            c.Window.EndDate.Time,
		MinRestDays:    c.Window.MinRestDays,
		TeamBlackouts:  fixture.Blackouts{},
		VenueBlackouts: fixture.Blackouts{},
	}
	for _, r := range c.Window.ReserveDates {
		w.ReserveDates = append(w.ReserveDates, r.Time)
	}
	for _, v := range c.Venues {
		w.Venues = append(w.Venues, fixture.Venue{Name: v.Name, TimeSlots: v.TimeSlots})
		for _, b := range v.Blackouts {
			w.VenueBlackouts.Add(v.Name, b.Dates()...)
		}
	}
	for _, tb := range c.TeamBlackouts {
		w.TeamBlackouts.Add(tb.Team, tb.Dates()...)
	}
	return w
}

// FormatOptions returns the options for format.Builder.Build.
func (c *Config) FormatOptions() format.Options {
	return format.Options{
		DoubleRoundRobin:   c.Options.DoubleRoundRobin,
		Groups:             c.Options.Groups,
		QualifiersPerGroup: c.Options.QualifiersPerGroup,
		SuperGroups:        c.Options.SuperGroups,
		CarryForwardPoints: c.Options.CarryForwardPoints,
		Seeds:              c.Seeds(),
	}
}

// ScheduleOptions returns the parallel-play settings for schedule.Schedule.
func (c *Config) ScheduleOptions(log logrus.FieldLogger) schedule.Options {
	return schedule.Options{
		AllowParallel: c.Options.AllowParallel,
		MaxParallel:   c.Options.MaxParallel,
		Logger:        log,
	}
}

// PointsRules returns the configured points table, or the default one.
func (c *Config) PointsRules() standings.PointsRules {
	if c.Points == nil {
		return standings.DefaultPoints()
	}
	return *c.Points
}

// Rules returns the tie-break order. The config has already been validated.
func (c *Config) Rules() []standings.Rule {
	rules, err := standings.ParseRules(c.TieBreakers)
	if err != nil {
		return standings.DefaultRules
	}
	return rules
}

// Location returns the timezone kickoff times are in, UTC when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Window.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Window.Timezone)
	if err != nil {
		return nil, fmt.Errorf("window timezone: %w", err)
	}
	return loc, nil
}

// Level returns the log level: FIXTURES_LOG_LEVEL, then log_level, then
// info.
func (c *Config) Level() logrus.Level {
	for _, s := range []string{os.Getenv(EnvLogLevel), c.LogLevel} {
		if s == "" {
			continue
		}
		if lvl, err := logrus.ParseLevel(strings.TrimSpace(s)); err == nil {
			return lvl
		}
	}
	return logrus.InfoLevel
}
