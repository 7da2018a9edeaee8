package config

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/derekprior/fixtures/internal/fixture"
	"github.com/derekprior/fixtures/internal/standings"
)

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

const testConfigYAML = `
tournament:
  name: Spring Cup
  format: groups_knockout
  teams:
    - name: Lions
      seed: 1
    - name: Tigers
      seed: 2
    - Bears
    - Wolves
    - Hawks
    - Eagles

window:
  start_date: "2026-04-04"
  end_date: "May 31, 2026"
  min_rest_days: 1
  reserve_dates: ["2026-05-30", "2026-05-31"]
  timezone: Europe/London

venues:
  - name: County Ground
    time_slots: ["10:30", "14:30"]
    blackouts:
      - date: "2026-04-18"
        reason: "Club day"
  - name: Riverside
    time_slots: ["14:30"]
    blackouts:
      - start_date: "2026-05-01"
        end_date: "2026-05-03"

team_blackouts:
  - team: Lions
    date: "2026-04-11"
    reason: "Cup tie"

options:
  groups: 2
  qualifiers_per_group: 2
  allow_parallel: true
  max_parallel: 2

points:
  win: 4
  tie: 2
  no_result: 2
  loss: 0
  bonus_run_margin: 50

tie_breakers: [points, nrr, wins, lot]
log_level: debug
`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("teams and seeds", func(t *testing.T) {
		teams := cfg.Teams()
		if len(teams) != 6 || teams[2] != "Bears" {
			t.Errorf("teams = %v", teams)
		}
		seeds := cfg.Seeds()
		if len(seeds) != 2 || seeds["Lions"] != 1 || seeds["Tigers"] != 2 {
			t.Errorf("seeds = %v", seeds)
		}
	})

	t.Run("window dates", func(t *testing.T) {
		if cfg.Window.StartDate.Time != mustDate("2026-04-04") {
			t.Errorf("start date = %v, want 2026-04-04", cfg.Window.StartDate.Time)
		}
		if cfg.Window.EndDate.Time != mustDate("2026-05-31") {
			t.Errorf("end date = %v, want 2026-05-31", cfg.Window.EndDate.Time)
		}
	})

	t.Run("fixture window", func(t *testing.T) {
		w := cfg.FixtureWindow()
		if err := w.Validate(); err != nil {
			t.Fatalf("Validate() error: %v", err)
		}
		if w.MinRestDays != 1 || len(w.ReserveDates) != 2 || len(w.Venues) != 2 {
			t.Errorf("window = %+v", w)
		}
		if !w.VenueBlackouts.Blocked("County Ground", mustDate("2026-04-18")) {
			t.Error("County Ground should be blacked out on 2026-04-18")
		}
		for _, d := range []string{"2026-05-01", "2026-05-02", "2026-05-03"} {
			if !w.VenueBlackouts.Blocked("Riverside", mustDate(d)) {
				t.Errorf("Riverside should be blacked out on %s", d)
			}
		}
		if w.VenueBlackouts.Blocked("Riverside", mustDate("2026-05-04")) {
			t.Error("Riverside blackout range should end on 2026-05-03")
		}
		if !w.TeamBlackouts.Blocked("Lions", mustDate("2026-04-11")) {
			t.Error("Lions should be blacked out on 2026-04-11")
		}
	})

	t.Run("options", func(t *testing.T) {
		fo := cfg.FormatOptions()
		if fo.Groups != 2 || fo.QualifiersPerGroup != 2 || fo.Seeds["Lions"] != 1 {
			t.Errorf("format options = %+v", fo)
		}
		so := cfg.ScheduleOptions(nil)
		if !so.AllowParallel || so.MaxParallel != 2 {
			t.Errorf("schedule options = %+v", so)
		}
	})

	t.Run("points and tie breakers", func(t *testing.T) {
		p := cfg.PointsRules()
		if p.Win != 4 || p.Tie != 2 || p.BonusRunMargin != 50 {
			t.Errorf("points = %+v", p)
		}
		rules := cfg.Rules()
		want := []standings.Rule{standings.RulePoints, standings.RuleNetRunRate, standings.RuleWins, standings.RuleLot}
		if len(rules) != len(want) {
			t.Fatalf("rules = %v, want %v", rules, want)
		}
		for i := range want {
			if rules[i] != want[i] {
				t.Errorf("rules[%d] = %s, want %s", i, rules[i], want[i])
			}
		}
	})

	t.Run("location", func(t *testing.T) {
		loc, err := cfg.Location()
		if err != nil {
			t.Fatal(err)
		}
		if loc.String() != "Europe/London" {
			t.Errorf("location = %s", loc)
		}
	})

	t.Run("log level", func(t *testing.T) {
		t.Setenv(EnvLogLevel, "")
		if cfg.Level() != logrus.DebugLevel {
			t.Errorf("Level() = %s, want debug", cfg.Level())
		}
		t.Setenv(EnvLogLevel, "warn")
		if cfg.Level() != logrus.WarnLevel {
			t.Errorf("Level() = %s, want warn from the environment", cfg.Level())
		}
	})
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
tournament:
  format: league
  teams: [A, B, C]
window:
  start_date: "2026-04-04"
  end_date: "2026-04-30"
venues:
  - name: Oval
    time_slots: ["11:00"]
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PointsRules() != standings.DefaultPoints() {
		t.Errorf("points = %+v, want defaults", cfg.PointsRules())
	}
	if len(cfg.Rules()) != len(standings.DefaultRules) {
		t.Errorf("rules = %v, want defaults", cfg.Rules())
	}
	if loc, _ := cfg.Location(); loc != time.UTC {
		t.Errorf("location = %v, want UTC", loc)
	}
	w := cfg.FixtureWindow()
	if len(w.TeamBlackouts) != 0 || len(w.VenueBlackouts) != 0 {
		t.Errorf("unexpected blackouts: %v %v", w.TeamBlackouts, w.VenueBlackouts)
	}
	if w.Start != fixture.Day(mustDate("2026-04-04")) {
		t.Errorf("start = %v", w.Start)
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	if got := Path(""); got != DefaultPath {
		t.Errorf("Path(\"\") = %q, want %q", got, DefaultPath)
	}
	t.Setenv(EnvConfigPath, "env.yaml")
	if got := Path(""); got != "env.yaml" {
		t.Errorf("Path(\"\") = %q, want env.yaml", got)
	}
	if got := Path("flag.yaml"); got != "flag.yaml" {
		t.Errorf("Path(flag) = %q, want flag.yaml", got)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	base := `
tournament:
  format: league
  teams: [A, B, C, D]
window:
  start_date: "2026-04-04"
  end_date: "2026-04-30"
venues:
  - name: Oval
    time_slots: ["11:00"]
`
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"end before start", strings.Replace(base, `end_date: "2026-04-30"`, `end_date: "2026-04-01"`, 1), "before start date"},
		{"unknown format", strings.Replace(base, "format: league", "format: ladder", 1), "unknown format"},
		{"one team", strings.Replace(base, "[A, B, C, D]", "[A]", 1), "at least two teams"},
		{"duplicate team", strings.Replace(base, "[A, B, C, D]", "[A, B, A]", 1), "listed twice"},
		{"no venues", strings.Replace(base, "venues:\n  - name: Oval\n    time_slots: [\"11:00\"]\n", "venues: []\n", 1), "at least one venue"},
		{"bad time slot", strings.Replace(base, `["11:00"]`, `["eleven"]`, 1), "not HH:MM"},
		{"negative rest", strings.Replace(base, `end_date: "2026-04-30"`, "end_date: \"2026-04-30\"\n  min_rest_days: -1", 1), "min_rest_days"},
		{"reserve outside window", strings.Replace(base, `end_date: "2026-04-30"`, "end_date: \"2026-04-30\"\n  reserve_dates: [\"2026-05-02\"]", 1), "outside the window"},
		{"unknown blackout team", base + "team_blackouts:\n  - team: Z\n    date: \"2026-04-10\"\n", "unknown team"},
		{"blackout with date and range", base + "team_blackouts:\n  - team: A\n    date: \"2026-04-10\"\n    start_date: \"2026-04-11\"\n    end_date: \"2026-04-12\"\n", "cannot have both"},
		{"negative points", base + "points:\n  win: -2\n", "points"},
		{"unknown tie breaker", base + "tie_breakers: [points, coin_toss]\n", "coin_toss"},
		{"bad log level", base + "log_level: loud\n", "log_level"},
		{"bad date", strings.Replace(base, `"2026-04-04"`, `"not a date"`, 1), "invalid date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}
