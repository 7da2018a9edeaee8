// Package standings keeps per-team league records and ranks them.
package standings

import (
	"fmt"
	"math"

	"github.com/derekprior/fixtures/internal/fixture"
)

// PointsRules is the points table applied to each result. A bonus margin of
// zero disables that bonus.
type PointsRules struct {
	Win               int `yaml:"win"`
	Tie               int `yaml:"tie"`
	NoResult          int `yaml:"no_result"`
	Loss              int `yaml:"loss"`
	BonusRunMargin    int `yaml:"bonus_run_margin"`
	BonusWicketMargin int `yaml:"bonus_wicket_margin"`
}

// DefaultPoints returns win=2, tie=1, no-result=1, loss=0 with no bonus.
func DefaultPoints() PointsRules {
	return PointsRules{Win: 2, Tie: 1, NoResult: 1, Loss: 0}
}

// Validate rejects negative values, which would let points fall as more
// matches are played.
func (p PointsRules) Validate() error {
	for name, v := range map[string]int{
		"win": p.Win, "tie": p.Tie, "no_result": p.NoResult, "loss": p.Loss,
		"bonus_run_margin": p.BonusRunMargin, "bonus_wicket_margin": p.BonusWicketMargin,
	} {
		if v < 0 {
			return &fixture.ConfigurationError{Format: "points", Reason: fmt.Sprintf("%s must not be negative", name)}
		}
	}
	return nil
}

// Result is a finalized match outcome. Winner is empty for a tie or a no
// result. Overs are those faced by each side.
type Result struct {
	MatchID       string         `yaml:"match_id"`
	Home          fixture.TeamID `yaml:"home"`
	Away          fixture.TeamID `yaml:"away"`
	Winner        fixture.TeamID `yaml:"winner"`
	NoResult      bool           `yaml:"no_result"`
	HomeRuns      int            `yaml:"home_runs"`
	AwayRuns      int            `yaml:"away_runs"`
	HomeOvers     Overs          `yaml:"home_overs"`
	AwayOvers     Overs          `yaml:"away_overs"`
	HomeAllOut    bool           `yaml:"home_all_out"`
	AwayAllOut    bool           `yaml:"away_all_out"`
	Quota         Overs          `yaml:"quota"`
	MarginRuns    int            `yaml:"margin_runs"`
	MarginWickets int            `yaml:"margin_wickets"`
}

// Validate checks the result is internally consistent.
func (r Result) Validate() error {
	if r.Home == "" || r.Away == "" || r.Home == r.Away {
		return &fixture.ValidationError{Field: "result", Reason: fmt.Sprintf("invalid teams %q and %q", r.Home, r.Away)}
	}
	if r.Winner != "" && r.Winner != r.Home && r.Winner != r.Away {
		return &fixture.ValidationError{Field: "result", Reason: fmt.Sprintf("winner %s did not play in %s vs %s", r.Winner, r.Home, r.Away)}
	}
	if r.NoResult && r.Winner != "" {
		return &fixture.ValidationError{Field: "result", Reason: "a no result cannot have a winner"}
	}
	if r.HomeRuns < 0 || r.AwayRuns < 0 || r.HomeOvers < 0 || r.AwayOvers < 0 {
		return &fixture.ValidationError{Field: "result", Reason: "runs and overs must not be negative"}
	}
	return nil
}

// Standing is one team's cumulative record.
type Standing struct {
	Team         fixture.TeamID
	Group        string
	Played       int
	Won          int
	Lost         int
	Drawn        int
	NoResult     int
	Points       int
	BonusPoints  int
	RunsScored   int
	RunsConceded int
	OversFaced   Overs
	OversBowled  Overs
	NRR          float64
}

// Update applies one result to s, which must belong to a team in the match.
func Update(s *Standing, r Result, rules PointsRules) error {
	if err := rules.Validate(); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}

	var runsFor, runsAgainst int
	var faced, bowled Overs
	switch s.Team {
	case r.Home:
		runsFor, runsAgainst = r.HomeRuns, r.AwayRuns
		faced, bowled = chargedOvers(r.HomeOvers, r.HomeAllOut, r.Quota), chargedOvers(r.AwayOvers, r.AwayAllOut, r.Quota)
	case r.Away:
		runsFor, runsAgainst = r.AwayRuns, r.HomeRuns
		faced, bowled = chargedOvers(r.AwayOvers, r.AwayAllOut, r.Quota), chargedOvers(r.HomeOvers, r.HomeAllOut, r.Quota)
	default:
		return &fixture.ValidationError{Field: "result", Reason: fmt.Sprintf("%s did not play in %s vs %s", s.Team, r.Home, r.Away)}
	}

	s.Played++
	switch {
	case r.NoResult:
		s.NoResult++
		s.Points += rules.NoResult
		// Abandoned matches do not count towards run rate.
		return nil
	case r.Winner == "":
		s.Drawn++
		s.Points += rules.Tie
	case r.Winner == s.Team:
		s.Won++
		s.Points += rules.Win
		if earnsBonus(r, rules) {
			s.BonusPoints++
			s.Points++
		}
	default:
		s.Lost++
		s.Points += rules.Loss
	}

	s.RunsScored += runsFor
	s.RunsConceded += runsAgainst
	s.OversFaced += faced
	s.OversBowled += bowled
	s.NRR = NetRunRate(s.RunsScored, s.OversFaced, s.RunsConceded, s.OversBowled)
	return nil
}

func earnsBonus(r Result, rules PointsRules) bool {
	if rules.BonusRunMargin > 0 && r.MarginRuns > rules.BonusRunMargin {
		return true
	}
	return rules.BonusWicketMargin > 0 && r.MarginWickets > rules.BonusWicketMargin
}

// chargedOvers returns the overs counted for a side: its full quota when it
// was bowled out.
func chargedOvers(faced Overs, allOut bool, quota Overs) Overs {
	if allOut && quota > 0 {
		return quota
	}
	return faced
}

// NetRunRate returns runs per over scored minus runs per over conceded,
// rounded to three decimals. It is zero until both overs totals are
// non-zero.
func NetRunRate(scored int, faced Overs, conceded int, bowled Overs) float64 {
	if faced == 0 || bowled == 0 {
		return 0
	}
	nrr := float64(scored)/faced.Decimal() - float64(conceded)/bowled.Decimal()
	return round3(nrr)
}

func round3(v float64) float64 {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		return 0 // normalize -0
	}
	return r
}
