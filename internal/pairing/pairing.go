// Package pairing produces team pairings: circle-method round-robins,
// serpentine group splits and seeded knockout brackets.
package pairing

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/derekprior/fixtures/internal/fixture"
)

// bye marks the synthetic entry added to an odd-sized round-robin or the
// padding positions of a knockout bracket.
const bye fixture.TeamID = ""

// Seeds ranks teams; 1 is the strongest. Teams without a seed rank after
// every seeded team.
type Seeds map[fixture.TeamID]int

// Group is a named subset of teams.
type Group struct {
	Name  string
	Teams []fixture.TeamID
}

// RoundRobin pairs every team with every other team once, or twice with
// home and away swapped when double is set.
func RoundRobin(teams []fixture.TeamID, double bool) []fixture.Round {
	return RoundRobinGroup(teams, "", double)
}

// RoundRobinGroup is RoundRobin with every round and match tagged with group.
func RoundRobinGroup(teams []fixture.TeamID, group string, double bool) []fixture.Round {
	if len(teams) < 2 {
		return nil
	}

	circle := make([]fixture.TeamID, len(teams))
	copy(circle, teams)
	if len(circle)%2 == 1 {
		circle = append(circle, bye)
	}
	n := len(circle)

	homeCount := make(map[fixture.TeamID]int)
	var rounds []fixture.Round

	for r := 0; r < n-1; r++ {
		round := newRound(r+1, group)
		for i := 0; i < n/2; i++ {
			a, b := circle[i], circle[n-1-i]
			if a == bye || b == bye {
				continue
			}
			home, away := a, b
			switch {
			case homeCount[a] < homeCount[b]:
			case homeCount[b] < homeCount[a]:
				home, away = b, a
			case (r+i)%2 == 1:
				home, away = b, a
			}
			homeCount[home]++
			round.Matches = append(round.Matches, newGroupMatch(round, home, away, 1))
		}
		rounds = append(rounds, round)

		// Rotate clockwise keeping position 0 fixed.
		last := circle[n-1]
		copy(circle[2:], circle[1:n-1])
		circle[1] = last
	}

	if double {
		passes := len(rounds)
		for _, first := range rounds[:passes] {
			round := newRound(first.Number+passes, group)
			for _, m := range first.Matches {
				round.Matches = append(round.Matches, newGroupMatch(round, m.Away, m.Home, 2))
			}
			rounds = append(rounds, round)
		}
	}

	return rounds
}

func newRound(number int, group string) fixture.Round {
	return fixture.Round{
		Number: number,
		Label:  fmt.Sprintf("Round %d", number),
		Stage:  fixture.StageGroup,
		Group:  group,
	}
}

func newGroupMatch(r fixture.Round, home, away fixture.TeamID, leg int) fixture.Match {
	return fixture.Match{
		ID:    fixture.NewMatchID(string(r.Stage), r.Group, strconv.Itoa(r.Number), string(home), string(away)),
		Home:  home,
		Away:  away,
		Round: r.Number,
		Label: r.Label,
		Stage: r.Stage,
		Group: r.Group,
		Leg:   leg,
	}
}

// OrderBySeed returns teams strongest first. Unseeded teams keep their
// input order behind the seeded ones.
func OrderBySeed(teams []fixture.TeamID, seeds Seeds) []fixture.TeamID {
	ordered := make([]fixture.TeamID, len(teams))
	copy(ordered, teams)
	sort.SliceStable(ordered, func(i, j int) bool {
		si, iok := seeds[ordered[i]]
		sj, jok := seeds[ordered[j]]
		switch {
		case iok && jok:
			return si < sj
		case iok:
			return true
		default:
			return false
		}
	})
	return ordered
}

// SplitGroupsSeeded distributes teams across groupCount groups in
// serpentine order (A B C C B A A B C ...) so each group gets a similar
// spread of seeds.
func SplitGroupsSeeded(teams []fixture.TeamID, groupCount int, seeds Seeds) ([]Group, error) {
	if groupCount < 1 {
		return nil, &fixture.ValidationError{Field: "groups", Reason: "group count must be at least 1"}
	}
	if len(teams) < groupCount {
		return nil, &fixture.ValidationError{
			Field:  "teams",
			Reason: fmt.Sprintf("%d teams cannot fill %d groups", len(teams), groupCount),
		}
	}

	groups := make([]Group, groupCount)
	for i := range groups {
		groups[i].Name = GroupName(i)
	}
	for i, team := range OrderBySeed(teams, seeds) {
		pos := i % groupCount
		if (i/groupCount)%2 == 1 {
			pos = groupCount - 1 - pos
		}
		groups[pos].Teams = append(groups[pos].Teams, team)
	}
	return groups, nil
}

// GroupName returns the letter name of the i-th group: A, B, ..., Z, AA, AB.
func GroupName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}
