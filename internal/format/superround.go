package format

import (
	"fmt"
	"strconv"

	"github.com/derekprior/fixtures/internal/fixture"
	"github.com/derekprior/fixtures/internal/pairing"
	"github.com/derekprior/fixtures/internal/playoff"
	"github.com/derekprior/fixtures/internal/standings"
)

// Qualifiers lists the top q teams of each group, all group winners first,
// then all runners-up, and so on. Seeds follow that order.
func Qualifiers(groups []string, tables playoff.Tables, q int) ([]fixture.TeamID, pairing.Seeds, error) {
	var teams []fixture.TeamID
	seeds := make(pairing.Seeds)
	for pos := 1; pos <= q; pos++ {
		for _, g := range groups {
			table, ok := tables[g]
			if !ok {
				return nil, nil, &fixture.ValidationError{Field: "standings", Reason: fmt.Sprintf("no standings for group %q", g)}
			}
			if len(table) < pos {
				return nil, nil, &fixture.ValidationError{
					Field:  "standings",
					Reason: fmt.Sprintf("group %q ranks %d teams, %d qualify", g, len(table), q),
				}
			}
			team := table[pos-1].Team
			teams = append(teams, team)
			seeds[team] = len(teams)
		}
	}
	return teams, seeds, nil
}

// KnockoutFromGroups seeds the group qualifiers into a knockout bracket.
func KnockoutFromGroups(groups []string, tables playoff.Tables, q int) (*pairing.Bracket, error) {
	teams, seeds, err := Qualifiers(groups, tables, q)
	if err != nil {
		return nil, err
	}
	return pairing.KnockoutSeeded(teams, seeds)
}

// SuperStage is the super-round of a groups_super_round plan.
type SuperStage struct {
	Groups []pairing.Group
	Rounds []fixture.Round
	Tables map[string]*standings.Table
	// Carried lists group-stage results counted in the super-round tables.
	Carried []standings.Result
}

// SuperRound regroups the group qualifiers serpentine into the plan's
// super-groups and builds their round-robin. With CarryForwardPoints set, a
// pair of qualifiers who already met in the group stage does not meet
// again: their group-stage results seed the super-round tables instead.
// Otherwise every pair plays and the tables start at zero.
func (p *Plan) SuperRound(tables playoff.Tables, played []standings.Result, points standings.PointsRules) (*SuperStage, error) {
	if p.Format != GroupsSuperRound {
		return nil, &fixture.ConfigurationError{Format: p.Format, Reason: "has no super-round"}
	}
	teams, seeds, err := Qualifiers(p.GroupNames(), tables, p.QualifiersPerGroup)
	if err != nil {
		return nil, err
	}
	groups, err := pairing.SplitGroupsSeeded(teams, p.SuperGroups, seeds)
	if err != nil {
		return nil, err
	}

	met := make(map[[2]fixture.TeamID][]standings.Result)
	if p.CarryForwardPoints {
		for _, r := range played {
			k := pairOf(r.Home, r.Away)
			met[k] = append(met[k], r)
		}
	}

	stage := &SuperStage{Tables: make(map[string]*standings.Table)}
	for i := range groups {
		groups[i].Name = superGroupName(i)
		g := groups[i]

		table, err := standings.NewTable(g.Name, g.Teams, points)
		if err != nil {
			return nil, err
		}
		stage.Tables[g.Name] = table

		for _, r := range pairing.RoundRobinGroup(g.Teams, g.Name, p.DoubleRoundRobin()) {
			round := superRound(r)
			for _, m := range r.Matches {
				if prior := met[pairOf(m.Home, m.Away)]; len(prior) > 0 {
					continue
				}
				round.Matches = append(round.Matches, superMatch(round, m))
			}
			if len(round.Matches) > 0 {
				stage.Rounds = append(stage.Rounds, round)
			}
		}

		for _, a := range g.Teams {
			for _, b := range g.Teams {
				if a >= b {
					continue
				}
				for _, r := range met[pairOf(a, b)] {
					if err := table.Apply(r); err != nil {
						return nil, fmt.Errorf("carrying %s v %s into %s: %w", r.Home, r.Away, g.Name, err)
					}
					stage.Carried = append(stage.Carried, r)
				}
			}
		}
	}
	stage.Groups = groups
	return stage, nil
}

// DoubleRoundRobin reports whether the plan's group stage was played twice,
// which the super-round follows.
func (p *Plan) DoubleRoundRobin() bool {
	for _, r := range p.Rounds {
		for _, m := range r.Matches {
			if m.Leg == 2 {
				return true
			}
		}
	}
	return false
}

func pairOf(a, b fixture.TeamID) [2]fixture.TeamID {
	if a > b {
		a, b = b, a
	}
	return [2]fixture.TeamID{a, b}
}

func superGroupName(i int) string {
	return "Super " + pairing.GroupName(i)
}

func superRound(r fixture.Round) fixture.Round {
	return fixture.Round{
		Number: r.Number,
		Label:  fmt.Sprintf("Super Round %d", r.Number),
		Stage:  fixture.StageSuperRound,
		Group:  r.Group,
	}
}

func superMatch(r fixture.Round, m fixture.Match) fixture.Match {
	m.ID = fixture.NewMatchID(string(r.Stage), r.Group, strconv.Itoa(r.Number), string(m.Home), string(m.Away))
	m.Label = r.Label
	m.Stage = r.Stage
	return m
}
