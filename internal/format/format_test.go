package format

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/derekprior/fixtures/internal/fixture"
	"github.com/derekprior/fixtures/internal/playoff"
	"github.com/derekprior/fixtures/internal/standings"
)

func teams(n int) []fixture.TeamID {
	out := make([]fixture.TeamID, n)
	for i := range out {
		out[i] = fixture.TeamID(fmt.Sprintf("T%d", i+1))
	}
	return out
}

func ranked(teams ...fixture.TeamID) []standings.Standing {
	rows := make([]standings.Standing, len(teams))
	for i, t := range teams {
		rows[i] = standings.Standing{Team: t}
	}
	return rows
}

func build(t *testing.T, name string, teams []fixture.TeamID, opts Options) (*Plan, error) {
	t.Helper()
	b, err := Get(name)
	if err != nil {
		t.Fatalf("Get(%q) error: %v", name, err)
	}
	return b.Build(teams, opts)
}

func TestGet(t *testing.T) {
	for _, name := range []string{League, Knockout, GroupsKnockout, SuperLeague, GroupsSuperRound} {
		if _, err := Get(name); err != nil {
			t.Errorf("Get(%q) error: %v", name, err)
		}
	}
	if _, err := Get("round_robin_plus"); !errors.Is(err, fixture.ErrConfiguration) {
		t.Errorf("unknown format error = %v, want ErrConfiguration", err)
	}
}

func TestTeamValidation(t *testing.T) {
	tests := []struct {
		name  string
		teams []fixture.TeamID
	}{
		{"empty", nil},
		{"one team", []fixture.TeamID{"T1"}},
		{"duplicate", []fixture.TeamID{"T1", "T2", "T1"}},
		{"blank name", []fixture.TeamID{"T1", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, f := range []string{League, Knockout, SuperLeague} {
				if _, err := build(t, f, tt.teams, Options{}); !errors.Is(err, fixture.ErrValidation) {
					t.Errorf("%s: error = %v, want ErrValidation", f, err)
				}
			}
		})
	}
}

func TestLeague(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		plan, err := build(t, League, teams(6), Options{})
		if err != nil {
			t.Fatal(err)
		}
		if len(plan.Rounds) != 5 || fixture.CountMatches(plan.Rounds) != 15 {
			t.Errorf("%d rounds, %d matches; want 5, 15", len(plan.Rounds), fixture.CountMatches(plan.Rounds))
		}
		if plan.Playoffs != nil || plan.Bracket != nil {
			t.Error("a league has no playoffs")
		}
	})

	t.Run("double", func(t *testing.T) {
		plan, err := build(t, League, teams(6), Options{DoubleRoundRobin: true})
		if err != nil {
			t.Fatal(err)
		}
		if got := fixture.CountMatches(plan.Rounds); got != 30 {
			t.Errorf("%d matches, want 30", got)
		}
	})
}

func TestKnockout(t *testing.T) {
	plan, err := build(t, Knockout, teams(8), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if plan.Bracket == nil || len(plan.Rounds) != 1 {
		t.Fatalf("plan = %+v, want one bracket round", plan)
	}
	r := plan.Rounds[0]
	if r.Label != "Quarter-Final" || len(r.Matches) != 4 {
		t.Errorf("round %q with %d matches, want Quarter-Final with 4", r.Label, len(r.Matches))
	}
}

func TestGroupsKnockout(t *testing.T) {
	plan, err := build(t, GroupsKnockout, teams(8), Options{})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("groups", func(t *testing.T) {
		if !reflect.DeepEqual(plan.GroupNames(), []string{"A", "B"}) {
			t.Fatalf("groups = %v", plan.GroupNames())
		}
		want := []fixture.TeamID{"T1", "T4", "T5", "T8"}
		if !reflect.DeepEqual(plan.Groups[0].Teams, want) {
			t.Errorf("group A = %v, want %v", plan.Groups[0].Teams, want)
		}
		if got := fixture.CountMatches(plan.Rounds); got != 12 {
			t.Errorf("%d matches, want 12", got)
		}
		for _, r := range plan.Rounds {
			for _, m := range r.Matches {
				if m.Group != r.Group || m.Group == "" {
					t.Errorf("%s tagged %q in round of group %q", m, m.Group, r.Group)
				}
			}
		}
		if plan.QualifiersPerGroup != 2 {
			t.Errorf("QualifiersPerGroup = %d, want 2", plan.QualifiersPerGroup)
		}
	})

	t.Run("knockout from group winners", func(t *testing.T) {
		tables := playoff.Tables{
			"A": ranked("T1", "T4", "T5", "T8"),
			"B": ranked("T2", "T3", "T6", "T7"),
		}
		b, err := KnockoutFromGroups(plan.GroupNames(), tables, plan.QualifiersPerGroup)
		if err != nil {
			t.Fatal(err)
		}
		if b.Round.Label != "Semi-Final" {
			t.Errorf("label = %q, want Semi-Final", b.Round.Label)
		}
		var got []string
		for _, m := range b.Round.Matches {
			got = append(got, string(m.Home)+"v"+string(m.Away))
		}
		want := []string{"T1vT3", "T2vT4"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("semis = %v, want %v", got, want)
		}
	})

	t.Run("missing group table", func(t *testing.T) {
		_, err := KnockoutFromGroups(plan.GroupNames(), playoff.Tables{"A": ranked("T1", "T4")}, 2)
		if !errors.Is(err, fixture.ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})

	t.Run("configuration limits", func(t *testing.T) {
		tests := []struct {
			name string
			opts Options
		}{
			{"groups too small", Options{Groups: 4, QualifiersPerGroup: 1}},
			{"too many qualifiers", Options{QualifiersPerGroup: 5}},
			{"negative groups", Options{Groups: -1}},
		}
		for _, tt := range tests {
			if _, err := build(t, GroupsKnockout, teams(6), tt.opts); !errors.Is(err, fixture.ErrConfiguration) {
				t.Errorf("%s: error = %v, want ErrConfiguration", tt.name, err)
			}
		}
	})
}

func TestSuperLeague(t *testing.T) {
	t.Run("needs four teams", func(t *testing.T) {
		_, err := build(t, SuperLeague, teams(3), Options{})
		if !errors.Is(err, fixture.ErrConfiguration) {
			t.Errorf("error = %v, want ErrConfiguration", err)
		}
	})

	t.Run("double round-robin and playoffs", func(t *testing.T) {
		plan, err := build(t, SuperLeague, teams(4), Options{})
		if err != nil {
			t.Fatal(err)
		}
		if got := fixture.CountMatches(plan.Rounds); got != 12 {
			t.Errorf("%d matches, want 12", got)
		}
		var names []string
		for _, s := range plan.Playoffs {
			names = append(names, s.Name)
		}
		want := []string{playoff.SlotQualifier1, playoff.SlotEliminator, playoff.SlotQualifier2, playoff.SlotFinal}
		if !reflect.DeepEqual(names, want) {
			t.Errorf("playoffs = %v, want %v", names, want)
		}
	})
}

func TestGroupsSuperRound(t *testing.T) {
	tables := playoff.Tables{
		"A": ranked("T1", "T4", "T5", "T8"),
		"B": ranked("T2", "T3", "T6", "T7"),
	}
	played := []standings.Result{
		{
			MatchID: "g1", Home: "T1", Away: "T4", Winner: "T1",
			HomeRuns: 160, AwayRuns: 150,
			HomeOvers: standings.NewOvers(20, 0), AwayOvers: standings.NewOvers(20, 0),
		},
		{
			MatchID: "g2", Home: "T2", Away: "T3", Winner: "T3",
			HomeRuns: 140, AwayRuns: 141,
			HomeOvers: standings.NewOvers(20, 0), AwayOvers: standings.NewOvers(18, 2),
		},
		{
			MatchID: "g3", Home: "T5", Away: "T8", Winner: "T5",
			HomeRuns: 120, AwayRuns: 100,
			HomeOvers: standings.NewOvers(20, 0), AwayOvers: standings.NewOvers(20, 0),
		},
	}

	t.Run("carry forward skips played pairs", func(t *testing.T) {
		plan, err := build(t, GroupsSuperRound, teams(8), Options{SuperGroups: 1, CarryForwardPoints: true})
		if err != nil {
			t.Fatal(err)
		}
		stage, err := plan.SuperRound(tables, played, standings.DefaultPoints())
		if err != nil {
			t.Fatalf("SuperRound() error: %v", err)
		}
		if got := fixture.CountMatches(stage.Rounds); got != 4 {
			t.Errorf("%d super-round matches, want 4", got)
		}
		for _, r := range stage.Rounds {
			for _, m := range r.Matches {
				if m.Stage != fixture.StageSuperRound || m.Group != "Super A" {
					t.Errorf("%s: stage %q, group %q", m, m.Stage, m.Group)
				}
				if pairOf(m.Home, m.Away) == pairOf("T1", "T4") || pairOf(m.Home, m.Away) == pairOf("T2", "T3") {
					t.Errorf("%s was already played in the group stage", m)
				}
			}
		}
		if len(stage.Carried) != 2 {
			t.Errorf("carried %d results, want 2", len(stage.Carried))
		}
		table := stage.Tables["Super A"]
		for team, want := range map[fixture.TeamID]int{"T1": 2, "T3": 2, "T2": 0, "T4": 0} {
			s, _ := table.Standing(team)
			if s.Points != want {
				t.Errorf("%s points = %d, want %d", team, s.Points, want)
			}
		}
		if len(plan.Playoffs) != 3 || plan.Playoffs[0].Home != playoff.GroupPosition("Super A", 1) {
			t.Errorf("playoffs = %v", plan.Playoffs)
		}
	})

	t.Run("reset replays every pair", func(t *testing.T) {
		plan, err := build(t, GroupsSuperRound, teams(8), Options{SuperGroups: 1})
		if err != nil {
			t.Fatal(err)
		}
		stage, err := plan.SuperRound(tables, played, standings.DefaultPoints())
		if err != nil {
			t.Fatal(err)
		}
		if got := fixture.CountMatches(stage.Rounds); got != 6 {
			t.Errorf("%d super-round matches, want 6", got)
		}
		for _, s := range stage.Tables["Super A"].Standings() {
			if s.Played != 0 {
				t.Errorf("%s starts with %d played", s.Team, s.Played)
			}
		}
	})

	t.Run("two super-groups", func(t *testing.T) {
		plan, err := build(t, GroupsSuperRound, teams(8), Options{})
		if err != nil {
			t.Fatal(err)
		}
		stage, err := plan.SuperRound(tables, nil, standings.DefaultPoints())
		if err != nil {
			t.Fatal(err)
		}
		want := [][]fixture.TeamID{{"T1", "T3"}, {"T2", "T4"}}
		for i, g := range stage.Groups {
			if !reflect.DeepEqual(g.Teams, want[i]) {
				t.Errorf("%s = %v, want %v", g.Name, g.Teams, want[i])
			}
		}
	})

	t.Run("configuration limits", func(t *testing.T) {
		if _, err := build(t, GroupsSuperRound, teams(8), Options{SuperGroups: 3}); !errors.Is(err, fixture.ErrConfiguration) {
			t.Errorf("error = %v, want ErrConfiguration", err)
		}
		plan, _ := build(t, League, teams(4), Options{})
		if _, err := plan.SuperRound(tables, nil, standings.DefaultPoints()); !errors.Is(err, fixture.ErrConfiguration) {
			t.Errorf("league SuperRound error = %v, want ErrConfiguration", err)
		}
	})
}
