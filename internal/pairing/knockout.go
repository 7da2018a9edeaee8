package pairing

import (
	"fmt"
	"strconv"

	"github.com/derekprior/fixtures/internal/fixture"
)

// BracketSlot is one pairing in a knockout round. It holds either a match
// or, when one side is a bye, the team that advances without playing.
type BracketSlot struct {
	Match    *fixture.Match
	Advances fixture.TeamID
	Seed     int
}

// IsBye reports whether the slot is an automatic advancement.
func (s BracketSlot) IsBye() bool {
	return s.Match == nil
}

// Bracket is one knockout round in bracket order.
type Bracket struct {
	Size  int // entries including byes; a power of two
	Round fixture.Round
	Slots []BracketSlot
}

// KnockoutSeeded builds the opening round of a seeded knockout bracket.
// Teams are padded with byes to the next power of two and rank i meets rank
// N-1-i, emitted in bracket order so that seeds 1 and 2 can only meet in
// the final: 1v8, 4v5, 2v7, 3v6 for eight entries. The round is labelled by
// the matches actually played, so six teams open with a Semi-Final.
func KnockoutSeeded(teams []fixture.TeamID, seeds Seeds) (*Bracket, error) {
	if len(teams) < 2 {
		return nil, &fixture.ValidationError{
			Field:  "teams",
			Reason: fmt.Sprintf("a knockout needs at least 2 teams, got %d", len(teams)),
		}
	}

	ordered := OrderBySeed(teams, seeds)
	size := nextPowerOfTwo(len(ordered))
	entries := make([]fixture.TeamID, size)
	copy(entries, ordered)

	positions := bracketOrder(size)
	type entry struct {
		team fixture.TeamID
		seed int
	}
	seeded := make([]entry, size)
	for i, seed := range positions {
		seeded[i] = entry{team: entries[seed-1], seed: seed}
	}

	// Each bye removes one match from the opening round.
	played := len(ordered) - size/2
	b := &Bracket{Size: size, Round: knockoutRound(1, played, size)}
	for i := 0; i < size; i += 2 {
		hi, lo := seeded[i], seeded[i+1]
		switch {
		case lo.team == bye:
			b.Slots = append(b.Slots, BracketSlot{Advances: hi.team, Seed: hi.seed})
		case hi.team == bye:
			b.Slots = append(b.Slots, BracketSlot{Advances: lo.team, Seed: lo.seed})
		default:
			m := newKnockoutMatch(b.Round, hi.team, lo.team, hi.seed, lo.seed)
			b.Round.Matches = append(b.Round.Matches, m)
			b.Slots = append(b.Slots, BracketSlot{Match: &m, Seed: hi.seed})
		}
	}
	b.relink()
	return b, nil
}

// Advance builds the next knockout round from this round's results. winners
// maps a match ID to the team that won it; byes advance on their own.
func (b *Bracket) Advance(winners map[string]fixture.TeamID) (*Bracket, error) {
	if len(b.Slots) < 2 {
		return nil, &fixture.ValidationError{Field: "bracket", Reason: "the final has no next round"}
	}

	type entry struct {
		team fixture.TeamID
		seed int
	}
	var through []entry
	for _, s := range b.Slots {
		if s.IsBye() {
			through = append(through, entry{s.Advances, s.Seed})
			continue
		}
		w, ok := winners[s.Match.ID]
		if !ok {
			return nil, &fixture.ValidationError{
				Field:  "results",
				Reason: fmt.Sprintf("no winner recorded for %s", s.Match),
			}
		}
		switch w {
		case s.Match.Home:
			through = append(through, entry{w, s.Match.HomeSeed})
		case s.Match.Away:
			through = append(through, entry{w, s.Match.AwaySeed})
		default:
			return nil, &fixture.ValidationError{
				Field:  "results",
				Reason: fmt.Sprintf("%s did not play in %s", w, s.Match),
			}
		}
	}

	next := &Bracket{Size: len(through), Round: knockoutRound(b.Round.Number+1, len(through)/2, len(through))}
	for i := 0; i < len(through); i += 2 {
		hi, lo := through[i], through[i+1]
		m := newKnockoutMatch(next.Round, hi.team, lo.team, hi.seed, lo.seed)
		next.Round.Matches = append(next.Round.Matches, m)
		next.Slots = append(next.Slots, BracketSlot{Match: &m, Seed: hi.seed})
	}
	next.relink()
	return next, nil
}

// relink points each slot at its match inside Round.Matches so the two never
// drift apart.
func (b *Bracket) relink() {
	i := 0
	for s := range b.Slots {
		if b.Slots[s].Match != nil {
			b.Slots[s].Match = &b.Round.Matches[i]
			i++
		}
	}
}

// Byes returns the teams that advance from this round without playing.
func (b *Bracket) Byes() []fixture.TeamID {
	var teams []fixture.TeamID
	for _, s := range b.Slots {
		if s.IsBye() {
			teams = append(teams, s.Advances)
		}
	}
	return teams
}

// RoundLabel names a knockout round by how many matches it contains.
func RoundLabel(matches int) string {
	switch matches {
	case 1:
		return "Final"
	case 2:
		return "Semi-Final"
	case 4:
		return "Quarter-Final"
	case 8:
		return "Round of 16"
	default:
		return fmt.Sprintf("Round of %d", 2*matches)
	}
}

// knockoutRound tags a round of matches played out of entries bracket
// positions. Only a two-entry round is the final stage.
func knockoutRound(number, matches, entries int) fixture.Round {
	stage := fixture.StageKnockout
	if entries == 2 {
		stage = fixture.StageFinal
	}
	return fixture.Round{Number: number, Label: RoundLabel(matches), Stage: stage}
}

func newKnockoutMatch(r fixture.Round, home, away fixture.TeamID, homeSeed, awaySeed int) fixture.Match {
	return fixture.Match{
		ID:       fixture.NewMatchID(string(fixture.StageKnockout), strconv.Itoa(r.Number), string(home), string(away)),
		Home:     home,
		Away:     away,
		Round:    r.Number,
		Label:    r.Label,
		Stage:    r.Stage,
		HomeSeed: homeSeed,
		AwaySeed: awaySeed,
		Leg:      1,
	}
}

// bracketOrder lists 1-based seeds in bracket position order for a bracket
// of size entries, e.g. [1 8 4 5 2 7 3 6] for eight.
func bracketOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		n := len(order) * 2
		next := make([]int, 0, n)
		for _, s := range order {
			next = append(next, s, n+1-s)
		}
		order = next
	}
	return order
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
