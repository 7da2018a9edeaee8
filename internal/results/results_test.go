package results

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/derekprior/fixtures/internal/fixture"
	"github.com/derekprior/fixtures/internal/format"
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

func build(t *testing.T, name string, ts []fixture.TeamID, opts format.Options) *format.Plan {
	t.Helper()
	b, err := format.Get(name)
	if err != nil {
		t.Fatal(err)
	}
	plan, err := b.Build(ts, opts)
	if err != nil {
		t.Fatalf("Build(%s) error: %v", name, err)
	}
	return plan
}

// win is a result in which winner beats the other side by 30 runs.
func win(home, away, winner fixture.TeamID) standings.Result {
	r := standings.Result{
		Home: home, Away: away, Winner: winner,
		HomeRuns: 120, AwayRuns: 120,
		HomeOvers: standings.NewOvers(20, 0), AwayOvers: standings.NewOvers(20, 0),
		Quota: standings.NewOvers(20, 0), MarginRuns: 30,
	}
	if winner == home {
		r.HomeRuns = 150
	} else {
		r.AwayRuns = 150
	}
	return r
}

// lowerNameWins plays every match in rounds, the team with the lower name
// winning, with match IDs filled in.
func lowerNameWins(rounds []fixture.Round) []standings.Result {
	var out []standings.Result
	for _, r := range rounds {
		for _, m := range r.Matches {
			winner := m.Home
			if m.Away < m.Home {
				winner = m.Away
			}
			res := win(m.Home, m.Away, winner)
			res.MatchID = m.ID
			out = append(out, res)
		}
	}
	return out
}

func order(rows []standings.Standing) []fixture.TeamID {
	out := make([]fixture.TeamID, len(rows))
	for i, s := range rows {
		out[i] = s.Team
	}
	return out
}

func sameTeams(got, want []fixture.TeamID) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestApplyLeague(t *testing.T) {
	ts := teams(3)
	plan := build(t, format.League, ts, format.Options{})
	opts := Options{Points: standings.DefaultPoints()}

	t.Run("complete league crowns the top team", func(t *testing.T) {
		f := &File{Results: []standings.Result{
			win("T2", "T1", "T1"),
			win("T1", "T3", "T1"),
			win("T3", "T2", "T2"),
		}}
		out, err := Apply(plan, ts, f, opts)
		if err != nil {
			t.Fatalf("Apply() error: %v", err)
		}
		if out.Stage != StageComplete || out.Champion != "T1" {
			t.Errorf("stage = %s, champion = %s", out.Stage, out.Champion)
		}
		if got := order(out.Tables[""]); !sameTeams(got, []fixture.TeamID{"T1", "T2", "T3"}) {
			t.Errorf("table = %v", got)
		}
	})

	t.Run("partial league stays in the group stage", func(t *testing.T) {
		f := &File{Results: []standings.Result{
			win("T1", "T2", "T2"),
			win("T1", "T9", "T1"),
		}}
		out, err := Apply(plan, ts, f, opts)
		if err != nil {
			t.Fatalf("Apply() error: %v", err)
		}
		if out.Stage != StageGroup || out.Champion != "" || len(out.Next) != 0 {
			t.Errorf("outcome = %+v", out)
		}
		if len(out.Unmatched) != 1 || out.Unmatched[0].Away != "T9" {
			t.Errorf("unmatched = %+v", out.Unmatched)
		}
		top := out.Tables[""][0]
		if top.Team != "T2" || top.Points != 2 {
			t.Errorf("leader = %+v", top)
		}
	})

	t.Run("a match ID used twice", func(t *testing.T) {
		id := plan.Rounds[0].Matches[0].ID
		m := plan.Rounds[0].Matches[0]
		r := win(m.Home, m.Away, m.Home)
		r.MatchID = id
		_, err := Apply(plan, ts, &File{Results: []standings.Result{r, r}}, opts)
		if !errors.Is(err, fixture.ErrValidation) {
			t.Errorf("Apply() error = %v, want ErrValidation", err)
		}
	})

	t.Run("match ID with the wrong teams", func(t *testing.T) {
		m := plan.Rounds[0].Matches[0]
		r := win("T1", "T9", "T1")
		r.MatchID = m.ID
		_, err := Apply(plan, ts, &File{Results: []standings.Result{r}}, opts)
		if !errors.Is(err, fixture.ErrValidation) {
			t.Errorf("Apply() error = %v, want ErrValidation", err)
		}
	})
}

func TestApplyKnockout(t *testing.T) {
	ts := teams(4)
	plan := build(t, format.Knockout, ts, format.Options{})

	t.Run("semi-finals played", func(t *testing.T) {
		f := &File{Results: []standings.Result{
			win("T1", "T4", "T1"),
			win("T2", "T3", "T2"),
		}}
		out, err := Apply(plan, ts, f, Options{})
		if err != nil {
			t.Fatalf("Apply() error: %v", err)
		}
		if out.Stage != StageKnockout || len(out.Next) != 1 {
			t.Fatalf("outcome = %+v", out)
		}
		final := out.Next[0].Matches
		if len(final) != 1 || final[0].Home != "T1" || final[0].Away != "T2" || final[0].Label != "Final" {
			t.Errorf("next = %+v", final)
		}
	})

	t.Run("final played", func(t *testing.T) {
		f := &File{Results: []standings.Result{
			win("T1", "T4", "T1"),
			win("T2", "T3", "T2"),
			win("T1", "T2", "T2"),
		}}
		out, err := Apply(plan, ts, f, Options{})
		if err != nil {
			t.Fatalf("Apply() error: %v", err)
		}
		if out.Stage != StageComplete || out.Champion != "T2" {
			t.Errorf("stage = %s, champion = %s", out.Stage, out.Champion)
		}
	})

	t.Run("knockout result without a winner", func(t *testing.T) {
		f := &File{Results: []standings.Result{{Home: "T1", Away: "T4", NoResult: true}}}
		if _, err := Apply(plan, ts, f, Options{}); !errors.Is(err, fixture.ErrValidation) {
			t.Errorf("Apply() error = %v, want ErrValidation", err)
		}
	})
}

func TestApplyGroupsKnockout(t *testing.T) {
	ts := teams(4)
	plan := build(t, format.GroupsKnockout, ts, format.Options{Groups: 2, QualifiersPerGroup: 1})

	// Groups are A=[T1 T4] and B=[T2 T3].
	f := &File{Results: []standings.Result{
		win("T1", "T4", "T1"),
		win("T2", "T3", "T3"),
	}}
	out, err := Apply(plan, ts, f, Options{})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if out.Stage != StageKnockout {
		t.Fatalf("stage = %s, want knockout", out.Stage)
	}
	if got := order(out.Tables["B"]); !sameTeams(got, []fixture.TeamID{"T3", "T2"}) {
		t.Errorf("group B = %v", got)
	}
	if len(out.Next) != 1 || len(out.Next[0].Matches) != 1 {
		t.Fatalf("next = %+v", out.Next)
	}
	if m := out.Next[0].Matches[0]; m.Home != "T1" || m.Away != "T3" {
		t.Errorf("final = %s, want T1 v T3", m)
	}
}

func TestApplySuperLeague(t *testing.T) {
	ts := teams(4)
	plan := build(t, format.SuperLeague, ts, format.Options{})
	league := lowerNameWins(plan.Rounds)

	t.Run("playoffs open once the league is done", func(t *testing.T) {
		out, err := Apply(plan, ts, &File{Results: league}, Options{})
		if err != nil {
			t.Fatalf("Apply() error: %v", err)
		}
		if out.Stage != StagePlayoffs {
			t.Fatalf("stage = %s, want playoffs", out.Stage)
		}
		if len(out.Next) != 2 || out.Next[0].Label != playoff.SlotQualifier1 || out.Next[1].Label != playoff.SlotEliminator {
			t.Errorf("next = %+v", out.Next)
		}
		if m := out.Next[0].Matches[0]; m.Home != "T1" || m.Away != "T2" {
			t.Errorf("qualifier 1 = %s", m)
		}
	})

	t.Run("recorded playoff winners feed later slots", func(t *testing.T) {
		f := &File{
			Results: league,
			Playoffs: []PlayoffResult{
				{Slot: playoff.SlotQualifier1, Winner: "T1"},
				{Slot: playoff.SlotEliminator, Winner: "T3"},
			},
		}
		out, err := Apply(plan, ts, f, Options{})
		if err != nil {
			t.Fatalf("Apply() error: %v", err)
		}
		if len(out.Next) != 1 || out.Next[0].Label != playoff.SlotQualifier2 {
			t.Fatalf("next = %+v", out.Next)
		}
		if m := out.Next[0].Matches[0]; m.Home != "T2" || m.Away != "T3" {
			t.Errorf("qualifier 2 = %s, want T2 v T3", m)
		}

		f.Playoffs = append(f.Playoffs,
			PlayoffResult{Slot: playoff.SlotQualifier2, Winner: "T3"},
			PlayoffResult{Slot: playoff.SlotFinal, Winner: "T3"},
		)
		out, err = Apply(plan, ts, f, Options{})
		if err != nil {
			t.Fatalf("Apply() error: %v", err)
		}
		if out.Stage != StageComplete || out.Champion != "T3" {
			t.Errorf("stage = %s, champion = %s", out.Stage, out.Champion)
		}
	})
}

func TestApplyGroupsSuperRound(t *testing.T) {
	ts := teams(8)
	plan := build(t, format.GroupsSuperRound, ts, format.Options{
		Groups: 2, QualifiersPerGroup: 2, SuperGroups: 1, CarryForwardPoints: true,
	})
	groupStage := lowerNameWins(plan.Rounds)

	out, err := Apply(plan, ts, &File{Results: groupStage}, Options{Points: standings.DefaultPoints()})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	t.Run("super round is next", func(t *testing.T) {
		if out.Stage != StageSuperRound || out.Super == nil {
			t.Fatalf("stage = %s", out.Stage)
		}
		if n := fixture.CountMatches(out.Next); n != 4 {
			t.Errorf("next has %d matches, want 4", n)
		}
		super := out.Tables["Super A"]
		if len(super) != 4 || super[0].Points != 2 || super[1].Points != 2 {
			t.Errorf("super table = %+v", super)
		}
	})

	t.Run("semi-finals once the super round is played", func(t *testing.T) {
		f := &File{Results: append(append([]standings.Result(nil), groupStage...), lowerNameWins(out.Super.Rounds)...)}
		out, err := Apply(plan, ts, f, Options{Points: standings.DefaultPoints()})
		if err != nil {
			t.Fatalf("Apply() error: %v", err)
		}
		if out.Stage != StagePlayoffs {
			t.Fatalf("stage = %s, want playoffs", out.Stage)
		}
		if got := order(out.Tables["Super A"]); !sameTeams(got, []fixture.TeamID{"T1", "T2", "T3", "T4"}) {
			t.Errorf("super table = %v", got)
		}
		if len(out.Next) != 2 {
			t.Fatalf("next = %+v", out.Next)
		}
		if m := out.Next[0].Matches[0]; m.Home != "T1" || m.Away != "T4" {
			t.Errorf("semi-final 1 = %s, want T1 v T4", m)
		}
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.yaml")
	data := []byte(`
results:
  - home: Lions
    away: Tigers
    winner: Lions
    home_runs: 180
    away_runs: 142
    home_overs: "20.0"
    away_overs: "19.4"
    away_all_out: true
    quota: "20.0"
    margin_runs: 38
playoffs:
  - slot: Final
    winner: Lions
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(f.Results) != 1 || f.Results[0].AwayOvers != standings.NewOvers(19, 4) || !f.Results[0].AwayAllOut {
		t.Errorf("results = %+v", f.Results)
	}
	if len(f.Playoffs) != 1 || f.Playoffs[0].Winner != "Lions" {
		t.Errorf("playoffs = %+v", f.Playoffs)
	}

	t.Run("invalid result", func(t *testing.T) {
		if _, err := Parse([]byte("results:\n  - home: A\n    away: A\n")); err == nil {
			t.Error("expected an error for a team playing itself")
		}
	})

	t.Run("playoff without a winner", func(t *testing.T) {
		if _, err := Parse([]byte("playoffs:\n  - slot: Final\n")); err == nil {
			t.Error("expected an error for a playoff result without a winner")
		}
	})
}
