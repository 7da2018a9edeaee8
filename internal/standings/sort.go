package standings

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/derekprior/fixtures/internal/fixture"
)

// Rule is one criterion in the tie-break order.
type Rule string

const (
	RulePoints     Rule = "points"
	RuleNetRunRate Rule = "nrr"
	RuleHeadToHead Rule = "head_to_head"
	RuleWins       Rule = "wins"
	RuleLot        Rule = "lot"
)

// DefaultRules ranks by points, then net run rate, then head-to-head, then
// wins, then lot.
var DefaultRules = []Rule{RulePoints, RuleNetRunRate, RuleHeadToHead, RuleWins, RuleLot}

// ParseRules validates rule names from configuration. An empty list yields
// DefaultRules.
func ParseRules(names []string) ([]Rule, error) {
	if len(names) == 0 {
		return DefaultRules, nil
	}
	rules := make([]Rule, 0, len(names))
	seen := make(map[Rule]bool)
	for _, n := range names {
		r := Rule(n)
		switch r {
		case RulePoints, RuleNetRunRate, RuleHeadToHead, RuleWins, RuleLot:
		default:
			return nil, &fixture.ConfigurationError{Format: "tie_breakers", Reason: fmt.Sprintf("unknown rule %q", n)}
		}
		if seen[r] {
			return nil, &fixture.ConfigurationError{Format: "tie_breakers", Reason: fmt.Sprintf("rule %q listed twice", n)}
		}
		seen[r] = true
		rules = append(rules, r)
	}
	return rules, nil
}

// HeadToHead reports the winner of the meetings between two teams.
type HeadToHead interface {
	Winner(a, b fixture.TeamID) (fixture.TeamID, bool)
}

// Sort returns standings ordered by rules. The sort is stable, so teams
// level on every rule keep their input order. Head-to-head is applied after
// the other rules: for adjacent teams level on every rule listed before it,
// the team that won their meeting is placed first.
func Sort(rows []Standing, rules []Rule, h2h HeadToHead) []Standing {
	out := make([]Standing, len(rows))
	copy(out, rows)

	sort.SliceStable(out, func(i, j int) bool {
		return compare(out[i], out[j], rules) < 0
	})

	idx := -1
	for i, r := range rules {
		if r == RuleHeadToHead {
			idx = i
			break
		}
	}
	if idx < 0 || h2h == nil {
		return out
	}

	before := rules[:idx]
	for i := 0; i+1 < len(out); i++ {
		if compare(out[i], out[i+1], before) != 0 {
			continue
		}
		if w, ok := h2h.Winner(out[i].Team, out[i+1].Team); ok && w == out[i+1].Team {
			out[i], out[i+1] = out[i+1], out[i]
			i++
		}
	}
	return out
}

// compare returns a negative number when a ranks above b.
func compare(a, b Standing, rules []Rule) int {
	for _, r := range rules {
		var c int
		switch r {
		case RulePoints:
			c = b.Points - a.Points
		case RuleNetRunRate:
			switch {
			case a.NRR > b.NRR:
				c = -1
			case a.NRR < b.NRR:
				c = 1
			}
		case RuleWins:
			c = b.Won - a.Won
		case RuleLot:
			c = compareLot(a.Team, b.Team)
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// compareLot is a fixed draw: teams are ordered by a hash of their ID so
// the result does not favour alphabetical order but never changes between
// runs.
func compareLot(a, b fixture.TeamID) int {
	ha, hb := lot(a), lot(b)
	switch {
	case ha < hb:
		return -1
	case ha > hb:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func lot(team fixture.TeamID) uint32 {
	h := fnv.New32a()
	h.Write([]byte(team))
	return h.Sum32()
}
