// Package results applies a file of finished matches to a tournament plan:
// it ranks the group tables and works out which stage comes next.
package results

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/derekprior/fixtures/internal/fixture"
	"github.com/derekprior/fixtures/internal/format"
	"github.com/derekprior/fixtures/internal/pairing"
	"github.com/derekprior/fixtures/internal/playoff"
	"github.com/derekprior/fixtures/internal/standings"
)

// File is the results file read by the standings command.
type File struct {
	Results  []standings.Result `yaml:"results"`
	Playoffs []PlayoffResult    `yaml:"playoffs"`
}

// PlayoffResult names the winner of one playoff slot.
type PlayoffResult struct {
	Slot   string         `yaml:"slot"`
	Winner fixture.TeamID `yaml:"winner"`
}

// Parse reads a results file and validates each result.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing results: %w", err)
	}
	for i, r := range f.Results {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("result %d: %w", i+1, err)
		}
	}
	for i, p := range f.Playoffs {
		if p.Slot == "" || p.Winner == "" {
			return nil, fmt.Errorf("playoff result %d: slot and winner are required", i+1)
		}
	}
	return &f, nil
}

// Load reads a results file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}
	return Parse(data)
}

// Stage names where a tournament stands after its results are applied.
type Stage string

const (
	StageGroup      Stage = "group"
	StageSuperRound Stage = "super_round"
	StageKnockout   Stage = "knockout"
	StagePlayoffs   Stage = "playoffs"
	StageComplete   Stage = "complete"
)

// Options controls how results are scored and ranked. Zero Points and empty
// Rules fall back to the standings defaults.
type Options struct {
	Points standings.PointsRules
	Rules  []standings.Rule
	Logger logrus.FieldLogger
}

// Outcome is the state of a tournament after its results are applied.
type Outcome struct {
	Stage Stage
	// Tables holds ranked standings by group, super-groups included. A
	// single league table uses the empty group name.
	Tables   playoff.Tables
	Super    *format.SuperStage
	Knockout *pairing.Bracket
	Playoffs *playoff.Bracket
	Champion fixture.TeamID
	// Next lists the matches that can be scheduled now.
	Next []fixture.Round
	// Unmatched holds results that belong to no known match.
	Unmatched []standings.Result
}

// Apply scores every result against plan. Results are matched to fixtures
// by match ID, or by the pair of teams when the ID is blank. A later stage
// is only built once every match of the stage before it has a result.
func Apply(plan *format.Plan, teams []fixture.TeamID, f *File, opts Options) (*Outcome, error) {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	if opts.Points == (standings.PointsRules{}) {
		opts.Points = standings.DefaultPoints()
	}
	if len(opts.Rules) == 0 {
		opts.Rules = standings.DefaultRules
	}
	out := &Outcome{Tables: make(playoff.Tables)}

	if plan.Format == format.Knockout {
		err := advanceKnockout(out, plan.Bracket, f.Results)
		log.WithField("stage", out.Stage).Info("results applied")
		return out, err
	}

	groups := plan.Groups
	if len(groups) == 0 {
		groups = []pairing.Group{{Teams: teams}}
	}
	tables := make(map[string]*standings.Table, len(groups))
	for _, g := range groups {
		t, err := standings.NewTable(g.Name, g.Teams, opts.Points)
		if err != nil {
			return nil, err
		}
		tables[g.Name] = t
	}

	opening := newMatcher(plan.Rounds)
	played, rest, err := applyStage(opening, tables, f.Results)
	if err != nil {
		return nil, err
	}
	for name, t := range tables {
		out.Tables[name] = t.Ranked(opts.Rules)
	}
	log.WithFields(logrus.Fields{
		"played":  len(played),
		"matches": len(opening.byID),
	}).Debug("opening stage scored")

	if !opening.complete() {
		out.Stage = StageGroup
		out.Unmatched = rest
		return out, nil
	}

	switch plan.Format {
	case format.League:
		out.Stage = StageComplete
		out.Champion = out.Tables[""][0].Team
		out.Unmatched = rest

	case format.SuperLeague:
		out.Unmatched = rest
		err = resolvePlayoffs(out, plan.Playoffs, f.Playoffs)

	case format.GroupsKnockout:
		var b *pairing.Bracket
		b, err = format.KnockoutFromGroups(plan.GroupNames(), out.Tables, plan.QualifiersPerGroup)
		if err == nil {
			err = advanceKnockout(out, b, rest)
		}

	case format.GroupsSuperRound:
		err = superRound(out, plan, played, rest, f.Playoffs, opts)

	default:
		err = &fixture.ConfigurationError{Format: plan.Format, Reason: "unknown format"}
	}
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{"stage": out.Stage, "next": fixture.CountMatches(out.Next)}
	if out.Champion != "" {
		fields["champion"] = out.Champion
	}
	if len(out.Unmatched) > 0 {
		fields["unmatched"] = len(out.Unmatched)
	}
	log.WithFields(fields).Info("results applied")
	return out, nil
}

// applyStage scores the results that belong to m's matches. It returns the
// results it applied and the ones left over.
func applyStage(m *matcher, tables map[string]*standings.Table, results []standings.Result) (played, rest []standings.Result, err error) {
	for _, r := range results {
		match, ok, err := m.claim(r)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			rest = append(rest, r)
			continue
		}
		r.MatchID = match.ID
		t, ok := tables[match.Group]
		if !ok {
			return nil, nil, fmt.Errorf("no table for group %q", match.Group)
		}
		if err := t.Apply(r); err != nil {
			return nil, nil, fmt.Errorf("applying %s: %w", match, err)
		}
		played = append(played, r)
	}
	return played, rest, nil
}

func superRound(out *Outcome, plan *format.Plan, played, rest []standings.Result, recorded []PlayoffResult, opts Options) error {
	stage, err := plan.SuperRound(out.Tables, played, opts.Points)
	if err != nil {
		return err
	}
	out.Super = stage

	m := newMatcher(stage.Rounds)
	_, rest, err = applyStage(m, stage.Tables, rest)
	if err != nil {
		return err
	}
	out.Unmatched = rest
	for name, t := range stage.Tables {
		out.Tables[name] = t.Ranked(opts.Rules)
	}

	if !m.complete() {
		out.Stage = StageSuperRound
		out.Next = m.pending(stage.Rounds)
		return nil
	}
	return resolvePlayoffs(out, plan.Playoffs, recorded)
}

func resolvePlayoffs(out *Outcome, t playoff.Template, recorded []PlayoffResult) error {
	b, err := playoff.Build(out.Tables, t)
	if err != nil {
		return err
	}
	for _, p := range recorded {
		if _, err := b.Record(p.Slot, p.Winner); err != nil {
			return err
		}
	}
	out.Playoffs = b
	if champion, ok := b.Champion(); ok {
		out.Stage = StageComplete
		out.Champion = champion
		return nil
	}
	out.Stage = StagePlayoffs
	out.Next = b.Ready()
	return nil
}

// advanceKnockout plays b forward round by round while every match of the
// current round has a winner.
func advanceKnockout(out *Outcome, b *pairing.Bracket, results []standings.Result) error {
	winners := make(map[string]fixture.TeamID)
	rest := results
	for {
		out.Knockout = b
		m := newMatcher([]fixture.Round{b.Round})
		var left []standings.Result
		for _, r := range rest {
			match, ok, err := m.claim(r)
			if err != nil {
				return err
			}
			if !ok {
				left = append(left, r)
				continue
			}
			if r.Winner == "" {
				return &fixture.ValidationError{Field: "results", Reason: fmt.Sprintf("knockout match %s needs a winner", match)}
			}
			winners[match.ID] = r.Winner
		}
		rest = left

		if !m.complete() {
			out.Stage = StageKnockout
			out.Next = m.pending([]fixture.Round{b.Round})
			break
		}
		if len(b.Slots) == 1 {
			out.Stage = StageComplete
			out.Champion = winners[b.Round.Matches[0].ID]
			break
		}
		next, err := b.Advance(winners)
		if err != nil {
			return err
		}
		b = next
	}
	out.Unmatched = rest
	return nil
}
