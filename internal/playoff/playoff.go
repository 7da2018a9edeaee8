package playoff

import (
	"fmt"

	"github.com/derekprior/fixtures/internal/fixture"
	"github.com/derekprior/fixtures/internal/standings"
)

// Tables holds ranked standings by group. A single league table uses the
// empty group name.
type Tables map[string][]standings.Standing

// Fixture is a playoff slot with whatever sides are known so far.
type Fixture struct {
	Slot   Slot
	Home   fixture.TeamID
	Away   fixture.TeamID
	Winner fixture.TeamID
	Loser  fixture.TeamID
}

// Resolved reports whether both teams are known.
func (f Fixture) Resolved() bool {
	return f.Home != "" && f.Away != ""
}

// Played reports whether a result has been recorded.
func (f Fixture) Played() bool {
	return f.Winner != ""
}

// Pending returns the dependencies still waiting on a result.
func (f Fixture) Pending() []Ref {
	var refs []Ref
	if f.Home == "" {
		refs = append(refs, f.Slot.Home)
	}
	if f.Away == "" {
		refs = append(refs, f.Slot.Away)
	}
	return refs
}

// Match converts a resolved fixture into a candidate match for scheduling.
func (f Fixture) Match(round int) fixture.Match {
	return fixture.Match{
		ID:    fixture.NewMatchID("playoff", f.Slot.Name, string(f.Home), string(f.Away)),
		Home:  f.Home,
		Away:  f.Away,
		Round: round,
		Label: f.Slot.Name,
		Stage: f.Slot.Stage,
		Leg:   1,
	}
}

// Bracket is the event-time state of a playoff template.
type Bracket struct {
	fixtures []Fixture
	index    map[string]int
}

// Build resolves every standings reference in t against tables. Sides that
// depend on earlier slots stay empty until Record supplies the result.
func Build(tables Tables, t Template) (*Bracket, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	b := &Bracket{index: make(map[string]int)}
	for i, s := range t {
		f := Fixture{Slot: s}
		var err error
		if f.Home, err = resolve(tables, s.Home); err != nil {
			return nil, fmt.Errorf("slot %q: %w", s.Name, err)
		}
		if f.Away, err = resolve(tables, s.Away); err != nil {
			return nil, fmt.Errorf("slot %q: %w", s.Name, err)
		}
		if f.Home != "" && f.Home == f.Away {
			return nil, &fixture.ValidationError{Field: "playoffs", Reason: fmt.Sprintf("slot %q pairs %s with itself", s.Name, f.Home)}
		}
		b.fixtures = append(b.fixtures, f)
		b.index[s.Name] = i
	}
	return b, nil
}

func resolve(tables Tables, ref Ref) (fixture.TeamID, error) {
	if ref.IsDependency() {
		return "", nil
	}
	table, ok := tables[ref.Group]
	if !ok {
		return "", &fixture.ValidationError{Field: "standings", Reason: fmt.Sprintf("no standings for group %q", ref.Group)}
	}
	if ref.Position > len(table) {
		return "", &fixture.ValidationError{
			Field:  "standings",
			Reason: fmt.Sprintf("position %s requested but only %d teams are ranked", ref, len(table)),
		}
	}
	return table[ref.Position-1].Team, nil
}

// Record stores the winner of slot and fills every side that depends on it.
// It returns the fixtures that became fully resolved as a result.
func (b *Bracket) Record(slot string, winner fixture.TeamID) ([]Fixture, error) {
	i, ok := b.index[slot]
	if !ok {
		return nil, &fixture.ValidationError{Field: "playoffs", Reason: fmt.Sprintf("unknown slot %q", slot)}
	}
	f := &b.fixtures[i]
	if !f.Resolved() {
		return nil, &fixture.ValidationError{Field: "playoffs", Reason: fmt.Sprintf("slot %q is still waiting on %v", slot, f.Pending())}
	}
	if f.Played() {
		return nil, &fixture.ValidationError{Field: "playoffs", Reason: fmt.Sprintf("slot %q already has a result", slot)}
	}
	switch winner {
	case f.Home:
		f.Winner, f.Loser = f.Home, f.Away
	case f.Away:
		f.Winner, f.Loser = f.Away, f.Home
	default:
		return nil, &fixture.ValidationError{Field: "playoffs", Reason: fmt.Sprintf("%s did not play in %q", winner, slot)}
	}

	var resolved []Fixture
	for j := range b.fixtures {
		dep := &b.fixtures[j]
		before := dep.Resolved()
		if dep.Home == "" && dep.Slot.Home.Slot == slot {
			dep.Home = outcomeTeam(f, dep.Slot.Home.Outcome)
		}
		if dep.Away == "" && dep.Slot.Away.Slot == slot {
			dep.Away = outcomeTeam(f, dep.Slot.Away.Outcome)
		}
		if !before && dep.Resolved() {
			resolved = append(resolved, *dep)
		}
	}
	return resolved, nil
}

func outcomeTeam(f *Fixture, o Outcome) fixture.TeamID {
	if o == Loser {
		return f.Loser
	}
	return f.Winner
}

// Fixtures returns a copy of every slot's current state in template order.
func (b *Bracket) Fixtures() []Fixture {
	out := make([]Fixture, len(b.fixtures))
	copy(out, b.fixtures)
	return out
}

// Fixture returns the current state of one slot.
func (b *Bracket) Fixture(slot string) (Fixture, bool) {
	i, ok := b.index[slot]
	if !ok {
		return Fixture{}, false
	}
	return b.fixtures[i], true
}

// Ready returns the resolved slots that have not been played, one round
// each, ready to hand to the scheduler.
func (b *Bracket) Ready() []fixture.Round {
	var rounds []fixture.Round
	for i, f := range b.fixtures {
		if !f.Resolved() || f.Played() {
			continue
		}
		m := f.Match(i + 1)
		rounds = append(rounds, fixture.Round{
			Number:  m.Round,
			Label:   m.Label,
			Stage:   m.Stage,
			Matches: []fixture.Match{m},
		})
	}
	return rounds
}

// Champion returns the winner of the last slot once it has been played.
func (b *Bracket) Champion() (fixture.TeamID, bool) {
	if len(b.fixtures) == 0 {
		return "", false
	}
	last := b.fixtures[len(b.fixtures)-1]
	return last.Winner, last.Played()
}
