package schedule

import (
	"sort"

	"github.com/derekprior/fixtures/internal/fixture"
)

// GroupCursor takes matches from per-group queues in turn so that no group
// runs far ahead of the others. It owns its position; pass the same cursor
// to successive calls to carry on where the last one stopped.
type GroupCursor struct {
	next int
}

// NewGroupCursor returns a cursor starting at the first group.
func NewGroupCursor() *GroupCursor {
	return &GroupCursor{}
}

// Next removes and returns the head of the next non-empty queue, advancing
// the cursor past it. It reports false once every queue is empty.
func (c *GroupCursor) Next(queues [][]fixture.Match) (fixture.Match, bool) {
	for range queues {
		i := c.next % len(queues)
		c.next = (i + 1) % len(queues)
		if len(queues[i]) == 0 {
			continue
		}
		m := queues[i][0]
		queues[i] = queues[i][1:]
		return m, true
	}
	return fixture.Match{}, false
}

// Interleave drains queues through the cursor.
func (c *GroupCursor) Interleave(queues [][]fixture.Match) []fixture.Match {
	var out []fixture.Match
	for {
		m, ok := c.Next(queues)
		if !ok {
			return out
		}
		out = append(out, m)
	}
}

// queue orders the matches of rounds for placement. Rounds are taken in
// round-number order; when they span more than one group the groups are
// interleaved by cursor, otherwise the round order stands.
func queue(rounds []fixture.Round, cursor *GroupCursor) []fixture.Match {
	ordered := make([]fixture.Round, len(rounds))
	copy(ordered, rounds)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Number < ordered[j].Number
	})

	var groups []string
	byGroup := make(map[string][]fixture.Match)
	for _, r := range ordered {
		for _, m := range r.Matches {
			if _, ok := byGroup[m.Group]; !ok {
				groups = append(groups, m.Group)
			}
			byGroup[m.Group] = append(byGroup[m.Group], m)
		}
	}

	if len(groups) <= 1 {
		var out []fixture.Match
		for _, r := range ordered {
			out = append(out, r.Matches...)
		}
		return out
	}

	queues := make([][]fixture.Match, len(groups))
	for i, g := range groups {
		queues[i] = byGroup[g]
	}
	if cursor == nil {
		cursor = NewGroupCursor()
	}
	return cursor.Interleave(queues)
}
