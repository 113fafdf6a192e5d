package bracket

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func newTestTournament(t *testing.T, teamSize int) *Tournament {
	t.Helper()

	tour, err := NewTournament(Settings{
		Name:          "Spring Cup",
		Format:        FormatChoose,
		CreatorID:     "creator",
		TeamSize:      teamSize,
		HostChannelID: "host-channel",
	}, testNow)
	require.NoError(t, err)
	return tour
}

// addApprovedTeams registers n approved teams whose strength decreases with registration order,
// so team i ends up with seed i+1.
func addApprovedTeams(t *testing.T, tour *Tournament, n int) []*Team {
	t.Helper()

	teams := make([]*Team, 0, n)
	for i := 0; i < n; i++ {
		mmr := 3000 - i*100
		captain := Player{
			UserID:      fmt.Sprintf("u%d-0", i+1),
			DisplayName: fmt.Sprintf("captain %d", i+1),
			CurrentMMR:  mmr,
			PeakMMR:     mmr,
		}
		team := NewTeam(fmt.Sprintf("Team %d", i+1), captain, nil, testNow.Add(time.Duration(i)*time.Second))
		for k := 1; k < tour.TeamSize; k++ {
			team.AddPlayer(Player{
				UserID:     fmt.Sprintf("u%d-%d", i+1, k),
				CurrentMMR: mmr,
				PeakMMR:    mmr,
			})
		}
		tour.AddTeam(team)
		require.True(t, tour.ApproveTeam(team.ID))
		teams = append(teams, team)
	}
	return teams
}

func teamIDPtr(id TeamID) *TeamID { return &id }
