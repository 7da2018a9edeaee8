package results

import (
	"fmt"

	"github.com/derekprior/fixtures/internal/fixture"
	"github.com/derekprior/fixtures/internal/standings"
)

type pairKey [2]fixture.TeamID

func pairOf(a, b fixture.TeamID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// matcher assigns results to the matches of one stage, each match at most
// once.
type matcher struct {
	byID   map[string]fixture.Match
	byPair map[pairKey][]string // match IDs in round order
	used   map[string]bool
}

func newMatcher(rounds []fixture.Round) *matcher {
	m := &matcher{
		byID:   make(map[string]fixture.Match),
		byPair: make(map[pairKey][]string),
		used:   make(map[string]bool),
	}
	for _, r := range rounds {
		for _, match := range r.Matches {
			m.byID[match.ID] = match
			k := pairOf(match.Home, match.Away)
			m.byPair[k] = append(m.byPair[k], match.ID)
		}
	}
	return m
}

// claim finds the match r was played in. ok is false when r belongs to
// another stage. A second result for the same match ID is an error.
func (m *matcher) claim(r standings.Result) (match fixture.Match, ok bool, err error) {
	if r.MatchID != "" {
		match, ok = m.byID[r.MatchID]
		if !ok {
			return fixture.Match{}, false, nil
		}
		if m.used[r.MatchID] {
			return fixture.Match{}, false, &fixture.ValidationError{
				Field:  "results",
				Reason: fmt.Sprintf("match %s has more than one result", r.MatchID),
			}
		}
		if pairOf(r.Home, r.Away) != pairOf(match.Home, match.Away) {
			return fixture.Match{}, false, &fixture.ValidationError{
				Field:  "results",
				Reason: fmt.Sprintf("match %s is %s, not %s v %s", r.MatchID, match, r.Home, r.Away),
			}
		}
		m.used[r.MatchID] = true
		return match, true, nil
	}
	for _, id := range m.byPair[pairOf(r.Home, r.Away)] {
		if !m.used[id] {
			m.used[id] = true
			return m.byID[id], true, nil
		}
	}
	return fixture.Match{}, false, nil
}

func (m *matcher) complete() bool {
	return len(m.used) == len(m.byID)
}

// pending returns rounds trimmed to the matches that have no result yet.
func (m *matcher) pending(rounds []fixture.Round) []fixture.Round {
	var out []fixture.Round
	for _, r := range rounds {
		left := r
		left.Matches = nil
		for _, match := range r.Matches {
			if !m.used[match.ID] {
				left.Matches = append(left.Matches, match)
			}
		}
		if len(left.Matches) > 0 {
			out = append(out, left)
		}
	}
	return out
}
