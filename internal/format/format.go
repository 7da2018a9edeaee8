// Package format turns a team list into the rounds of a tournament format.
package format

import (
	"fmt"

	"github.com/derekprior/fixtures/internal/fixture"
	"github.com/derekprior/fixtures/internal/pairing"
	"github.com/derekprior/fixtures/internal/playoff"
)

// Format names accepted by Get.
const (
	League           = "league"
	Knockout         = "knockout"
	GroupsKnockout   = "groups_knockout"
	SuperLeague      = "super_league"
	GroupsSuperRound = "groups_super_round"
)

// Options are the format settings from configuration.
type Options struct {
	DoubleRoundRobin   bool
	Groups             int // defaults to 2 for group formats
	QualifiersPerGroup int // defaults to 2
	SuperGroups        int // defaults to 2
	CarryForwardPoints bool
	Seeds              pairing.Seeds
}

// Plan is a built format: the opening stage's rounds plus what later stages
// need once standings or results are known.
type Plan struct {
	Format             string
	Rounds             []fixture.Round
	Groups             []pairing.Group
	Bracket            *pairing.Bracket
	QualifiersPerGroup int
	SuperGroups        int
	CarryForwardPoints bool
	Playoffs           playoff.Template
}

// Builder builds a Plan for a list of teams.
type Builder interface {
	Build(teams []fixture.TeamID, opts Options) (*Plan, error)
}

// Get returns a Builder by name.
func Get(name string) (Builder, error) {
	switch name {
	case League:
		return &LeagueFormat{}, nil
	case Knockout:
		return &KnockoutFormat{}, nil
	case GroupsKnockout:
		return &GroupsKnockoutFormat{}, nil
	case SuperLeague:
		return &SuperLeagueFormat{}, nil
	case GroupsSuperRound:
		return &GroupsSuperRoundFormat{}, nil
	default:
		return nil, &fixture.ConfigurationError{Format: name, Reason: "unknown format"}
	}
}

// LeagueFormat is a single round-robin, or a double one when requested.
type LeagueFormat struct{}

func (f *LeagueFormat) Build(teams []fixture.TeamID, opts Options) (*Plan, error) {
	if err := validateTeams(teams, 2); err != nil {
		return nil, err
	}
	return &Plan{
		Format: League,
		Rounds: pairing.RoundRobin(teams, opts.DoubleRoundRobin),
	}, nil
}

// KnockoutFormat is a seeded single-elimination bracket. Only the opening
// round is built; each later round comes from Bracket.Advance once the
// previous round's winners are known.
type KnockoutFormat struct{}

func (f *KnockoutFormat) Build(teams []fixture.TeamID, opts Options) (*Plan, error) {
	if err := validateTeams(teams, 2); err != nil {
		return nil, err
	}
	b, err := pairing.KnockoutSeeded(teams, opts.Seeds)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Format:  Knockout,
		Rounds:  []fixture.Round{b.Round},
		Bracket: b,
	}, nil
}

// GroupsKnockoutFormat splits teams into seeded groups that each play a
// round-robin. The top QualifiersPerGroup of each group go into a knockout
// built by KnockoutFromGroups.
type GroupsKnockoutFormat struct{}

func (f *GroupsKnockoutFormat) Build(teams []fixture.TeamID, opts Options) (*Plan, error) {
	plan, err := buildGroups(GroupsKnockout, teams, opts)
	if err != nil {
		return nil, err
	}
	if plan.QualifiersPerGroup*len(plan.Groups) < 2 {
		return nil, &fixture.ConfigurationError{Format: GroupsKnockout, Reason: "the knockout needs at least 2 qualifiers"}
	}
	return plan, nil
}

// SuperLeagueFormat is a double round-robin followed by a four-team
// playoff: Qualifier 1, Eliminator, Qualifier 2 and the Final.
type SuperLeagueFormat struct{}

func (f *SuperLeagueFormat) Build(teams []fixture.TeamID, opts Options) (*Plan, error) {
	if err := validateTeams(teams, 2); err != nil {
		return nil, err
	}
	if len(teams) < 4 {
		return nil, &fixture.ConfigurationError{
			Format: SuperLeague,
			Reason: fmt.Sprintf("needs at least 4 teams, got %d", len(teams)),
		}
	}
	return &Plan{
		Format:   SuperLeague,
		Rounds:   pairing.RoundRobin(teams, true),
		Playoffs: playoff.SuperLeague(),
	}, nil
}

// GroupsSuperRoundFormat plays a group stage, regroups the qualifiers into
// super-groups for a second round-robin (see SuperRound), then semi-finals
// and a final.
type GroupsSuperRoundFormat struct{}

func (f *GroupsSuperRoundFormat) Build(teams []fixture.TeamID, opts Options) (*Plan, error) {
	plan, err := buildGroups(GroupsSuperRound, teams, opts)
	if err != nil {
		return nil, err
	}
	plan.SuperGroups = opts.SuperGroups
	if plan.SuperGroups == 0 {
		plan.SuperGroups = 2
	}
	plan.CarryForwardPoints = opts.CarryForwardPoints

	qualifiers := plan.QualifiersPerGroup * len(plan.Groups)
	switch {
	case plan.SuperGroups != 1 && plan.SuperGroups != 2:
		return nil, &fixture.ConfigurationError{
			Format: GroupsSuperRound,
			Reason: fmt.Sprintf("super_groups must be 1 or 2, got %d", plan.SuperGroups),
		}
	case plan.SuperGroups == 1 && qualifiers < 4:
		return nil, &fixture.ConfigurationError{
			Format: GroupsSuperRound,
			Reason: fmt.Sprintf("one super-group needs at least 4 qualifiers, got %d", qualifiers),
		}
	case qualifiers < 2*plan.SuperGroups:
		return nil, &fixture.ConfigurationError{
			Format: GroupsSuperRound,
			Reason: fmt.Sprintf("%d qualifiers cannot fill %d super-groups", qualifiers, plan.SuperGroups),
		}
	}

	names := make([]string, plan.SuperGroups)
	for i := range names {
		names[i] = superGroupName(i)
	}
	if plan.Playoffs, err = playoff.SemiFinals(names); err != nil {
		return nil, err
	}
	return plan, nil
}

func buildGroups(name string, teams []fixture.TeamID, opts Options) (*Plan, error) {
	if err := validateTeams(teams, 2); err != nil {
		return nil, err
	}
	count := opts.Groups
	if count == 0 {
		count = 2
	}
	q := opts.QualifiersPerGroup
	if q == 0 {
		q = 2
	}
	if count < 1 {
		return nil, &fixture.ConfigurationError{Format: name, Reason: fmt.Sprintf("groups must be at least 1, got %d", count)}
	}
	if len(teams) < 2*count {
		return nil, &fixture.ConfigurationError{
			Format: name,
			Reason: fmt.Sprintf("%d teams cannot give %d groups at least 2 teams each", len(teams), count),
		}
	}

	groups, err := pairing.SplitGroupsSeeded(teams, count, opts.Seeds)
	if err != nil {
		return nil, err
	}
	smallest := len(groups[len(groups)-1].Teams)
	for _, g := range groups {
		smallest = min(smallest, len(g.Teams))
	}
	if q < 1 || q > smallest {
		return nil, &fixture.ConfigurationError{
			Format: name,
			Reason: fmt.Sprintf("qualifiers_per_group must be between 1 and %d, got %d", smallest, q),
		}
	}

	plan := &Plan{Format: name, Groups: groups, QualifiersPerGroup: q}
	for _, g := range groups {
		plan.Rounds = append(plan.Rounds, pairing.RoundRobinGroup(g.Teams, g.Name, opts.DoubleRoundRobin)...)
	}
	return plan, nil
}

// validateTeams rejects an empty, short or duplicated team list.
func validateTeams(teams []fixture.TeamID, minimum int) error {
	if len(teams) < minimum {
		return &fixture.ValidationError{
			Field:  "teams",
			Reason: fmt.Sprintf("at least %d teams are required, got %d", minimum, len(teams)),
		}
	}
	seen := make(map[fixture.TeamID]bool)
	for _, t := range teams {
		if t == "" {
			return &fixture.ValidationError{Field: "teams", Reason: "team name is required"}
		}
		if seen[t] {
			return &fixture.ValidationError{Field: "teams", Reason: fmt.Sprintf("duplicate team %s", t)}
		}
		seen[t] = true
	}
	return nil
}

// GroupNames returns the plan's group names in order.
func (p *Plan) GroupNames() []string {
	names := make([]string, len(p.Groups))
	for i, g := range p.Groups {
		names[i] = g.Name
	}
	return names
}
