// Package playoff turns ranked standings and a playoff template into
// matches. Resolution happens in two phases: Build fills every side that
// refers to a standings position, and Record fills the sides that depend on
// the winner or loser of an earlier slot as those results arrive.
package playoff

import (
	"fmt"

	"github.com/derekprior/fixtures/internal/fixture"
)

// Outcome selects which team of a completed slot a reference follows.
type Outcome int

const (
	Winner Outcome = iota + 1
	Loser
)

func (o Outcome) String() string {
	if o == Loser {
		return "loser"
	}
	return "winner"
}

// Ref identifies one side of a playoff slot: either a 1-based position in
// a group's ranked standings, or the winner or loser of an earlier slot.
type Ref struct {
	Group    string
	Position int
	Slot     string
	Outcome  Outcome
}

// Position refers to the team ranked pos in the single league table.
func Position(pos int) Ref { return Ref{Position: pos} }

// GroupPosition refers to the team ranked pos in group.
func GroupPosition(group string, pos int) Ref { return Ref{Group: group, Position: pos} }

// WinnerOf refers to the winner of slot.
func WinnerOf(slot string) Ref { return Ref{Slot: slot, Outcome: Winner} }

// LoserOf refers to the loser of slot.
func LoserOf(slot string) Ref { return Ref{Slot: slot, Outcome: Loser} }

// IsDependency reports whether the ref waits on another slot's result.
func (r Ref) IsDependency() bool { return r.Slot != "" }

func (r Ref) String() string {
	if r.IsDependency() {
		return fmt.Sprintf("%s of %s", r.Outcome, r.Slot)
	}
	if r.Group != "" {
		return fmt.Sprintf("%s%d", r.Group, r.Position)
	}
	return fmt.Sprintf("#%d", r.Position)
}

// Slot is one playoff fixture definition.
type Slot struct {
	Name  string
	Stage fixture.Stage
	Home  Ref
	Away  Ref
}

// Template is an ordered set of slots. A slot may only depend on slots
// listed before it, which keeps the graph acyclic.
type Template []Slot

// Validate checks names are unique and every dependency points backwards.
func (t Template) Validate() error {
	seen := make(map[string]bool)
	for _, s := range t {
		if s.Name == "" {
			return &fixture.ConfigurationError{Format: "playoffs", Reason: "slot name is required"}
		}
		if seen[s.Name] {
			return &fixture.ConfigurationError{Format: "playoffs", Reason: fmt.Sprintf("duplicate slot %q", s.Name)}
		}
		for _, ref := range []Ref{s.Home, s.Away} {
			switch {
			case ref.IsDependency():
				if !seen[ref.Slot] {
					return &fixture.ConfigurationError{
						Format: "playoffs",
						Reason: fmt.Sprintf("slot %q depends on %q, which is not an earlier slot", s.Name, ref.Slot),
					}
				}
				if ref.Outcome != Winner && ref.Outcome != Loser {
					return &fixture.ConfigurationError{Format: "playoffs", Reason: fmt.Sprintf("slot %q has a dependency without an outcome", s.Name)}
				}
			case ref.Position < 1:
				return &fixture.ConfigurationError{Format: "playoffs", Reason: fmt.Sprintf("slot %q has position %d", s.Name, ref.Position)}
			}
		}
		if s.Home == s.Away {
			return &fixture.ConfigurationError{Format: "playoffs", Reason: fmt.Sprintf("slot %q refers to the same side twice", s.Name)}
		}
		seen[s.Name] = true
	}
	return nil
}

// Slot names used by the fixed templates.
const (
	SlotQualifier1 = "Qualifier 1"
	SlotEliminator = "Eliminator"
	SlotQualifier2 = "Qualifier 2"
	SlotFinal      = "Final"
	SlotSemiFinal1 = "Semi-Final 1"
	SlotSemiFinal2 = "Semi-Final 2"
)

// SuperLeague is the four-team playoff: the top two meet in Qualifier 1
// with the winner going to the Final and the loser getting a second chance
// in Qualifier 2 against the winner of the Eliminator between third and
// fourth.
func SuperLeague() Template {
	return Template{
		{Name: SlotQualifier1, Stage: fixture.StageQualifier1, Home: Position(1), Away: Position(2)},
		{Name: SlotEliminator, Stage: fixture.StageEliminator, Home: Position(3), Away: Position(4)},
		{Name: SlotQualifier2, Stage: fixture.StageQualifier2, Home: LoserOf(SlotQualifier1), Away: WinnerOf(SlotEliminator)},
		{Name: SlotFinal, Stage: fixture.StageFinal, Home: WinnerOf(SlotQualifier1), Away: WinnerOf(SlotQualifier2)},
	}
}

// SemiFinals builds semi-finals and a final from one or two ranked groups.
// With one group it is 1v4 and 2v3; with two, each group winner meets the
// other group's runner-up.
func SemiFinals(groups []string) (Template, error) {
	var t Template
	switch len(groups) {
	case 1:
		g := groups[0]
		t = Template{
			{Name: SlotSemiFinal1, Stage: fixture.StageSemiFinal, Home: GroupPosition(g, 1), Away: GroupPosition(g, 4)},
			{Name: SlotSemiFinal2, Stage: fixture.StageSemiFinal, Home: GroupPosition(g, 2), Away: GroupPosition(g, 3)},
		}
	case 2:
		a, b := groups[0], groups[1]
		t = Template{
			{Name: SlotSemiFinal1, Stage: fixture.StageSemiFinal, Home: GroupPosition(a, 1), Away: GroupPosition(b, 2)},
			{Name: SlotSemiFinal2, Stage: fixture.StageSemiFinal, Home: GroupPosition(b, 1), Away: GroupPosition(a, 2)},
		}
	default:
		return nil, &fixture.ConfigurationError{
			Format: "playoffs",
			Reason: fmt.Sprintf("semi-finals need one or two groups, got %d", len(groups)),
		}
	}
	t = append(t, Slot{Name: SlotFinal, Stage: fixture.StageFinal, Home: WinnerOf(SlotSemiFinal1), Away: WinnerOf(SlotSemiFinal2)})
	return t, nil
}
