package views

import (
	"sort"

	"github.com/AdamBeresnev/op-tourney-bot/internal/bracket"
)

type BracketData struct {
	Rounds    map[int][]*bracket.Match
	RoundNums []int
	// Approved teams ordered by seed
	Teams []*bracket.Team
}

func PrepareBracketData(t *bracket.Tournament) BracketData {
	rounds := make(map[int][]*bracket.Match)
	var roundNums []int

	for _, m := range t.Matches {
		if _, exists := rounds[m.RoundNumber]; !exists {
			roundNums = append(roundNums, m.RoundNumber)
		}
		rounds[m.RoundNumber] = append(rounds[m.RoundNumber], m)
	}

	sort.Ints(roundNums)
	for _, r := range roundNums {
		sort.Slice(rounds[r], func(i, j int) bool {
			return rounds[r][i].MatchNumber < rounds[r][j].MatchNumber
		})
	}

	teams := t.ApprovedTeams()
	sort.SliceStable(teams, func(i, j int) bool {
		return seedOrder(teams[i]) < seedOrder(teams[j])
	})

	return BracketData{
		Rounds:    rounds,
		RoundNums: roundNums,
		Teams:     teams,
	}
}

// Unseeded teams sort last
func seedOrder(team *bracket.Team) int {
	if team.Seeding == 0 {
		return 999
	}
	return team.Seeding
}
