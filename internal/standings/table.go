package standings

import (
	"fmt"

	"github.com/derekprior/fixtures/internal/fixture"
)

type pairKey struct {
	a, b fixture.TeamID
}

func normalizePair(a, b fixture.TeamID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Table holds the standings of one group and the results applied to it.
// Results must be applied one at a time in completion order.
type Table struct {
	Group string

	rules    PointsRules
	order    []fixture.TeamID
	rows     map[fixture.TeamID]*Standing
	applied  map[string]bool
	meetings map[pairKey]map[fixture.TeamID]int // pair -> team -> wins
}

// NewTable starts every team at zero.
func NewTable(group string, teams []fixture.TeamID, rules PointsRules) (*Table, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	t := &Table{
		Group:    group,
		rules:    rules,
		rows:     make(map[fixture.TeamID]*Standing),
		applied:  make(map[string]bool),
		meetings: make(map[pairKey]map[fixture.TeamID]int),
	}
	for _, team := range teams {
		if _, ok := t.rows[team]; ok {
			return nil, &fixture.ValidationError{Field: "teams", Reason: fmt.Sprintf("duplicate team %s", team)}
		}
		t.order = append(t.order, team)
		t.rows[team] = &Standing{Team: team, Group: group}
	}
	return t, nil
}

// Apply updates both teams' standings from one result. A result whose match
// ID was already applied is rejected so each match counts exactly once.
// Either both standings change or neither does.
func (t *Table) Apply(r Result) error {
	if r.MatchID != "" && t.applied[r.MatchID] {
		return &fixture.ValidationError{Field: "result", Reason: fmt.Sprintf("match %s already applied", r.MatchID)}
	}
	home, ok := t.rows[r.Home]
	if !ok {
		return &fixture.ValidationError{Field: "result", Reason: fmt.Sprintf("%s is not in group %q", r.Home, t.Group)}
	}
	away, ok := t.rows[r.Away]
	if !ok {
		return &fixture.ValidationError{Field: "result", Reason: fmt.Sprintf("%s is not in group %q", r.Away, t.Group)}
	}

	h, a := *home, *away
	if err := Update(&h, r, t.rules); err != nil {
		return err
	}
	if err := Update(&a, r, t.rules); err != nil {
		return err
	}
	*home, *away = h, a

	if r.MatchID != "" {
		t.applied[r.MatchID] = true
	}
	if r.Winner != "" {
		k := normalizePair(r.Home, r.Away)
		if t.meetings[k] == nil {
			t.meetings[k] = make(map[fixture.TeamID]int)
		}
		t.meetings[k][r.Winner]++
	}
	return nil
}

// Winner reports which of a and b has won more of their meetings.
func (t *Table) Winner(a, b fixture.TeamID) (fixture.TeamID, bool) {
	wins := t.meetings[normalizePair(a, b)]
	switch {
	case wins[a] > wins[b]:
		return a, true
	case wins[b] > wins[a]:
		return b, true
	default:
		return "", false
	}
}

// Standing returns a copy of one team's record.
func (t *Table) Standing(team fixture.TeamID) (Standing, bool) {
	s, ok := t.rows[team]
	if !ok {
		return Standing{}, false
	}
	return *s, true
}

// Standings returns copies of every record in the order teams were added.
func (t *Table) Standings() []Standing {
	out := make([]Standing, 0, len(t.order))
	for _, team := range t.order {
		out = append(out, *t.rows[team])
	}
	return out
}

// Ranked returns the standings sorted by rules, using this table's
// meetings for head-to-head.
func (t *Table) Ranked(rules []Rule) []Standing {
	return Sort(t.Standings(), rules, t)
}
