package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamAddRemovePlayer(t *testing.T) {
	team := NewTeam("Falcons", Player{UserID: "a"}, nil, testNow)

	assert.True(t, team.AddPlayer(Player{UserID: "b"}))
	assert.False(t, team.AddPlayer(Player{UserID: "b"}), "duplicate user should be rejected")
	require.Len(t, team.Players, 2)

	assert.True(t, team.RemovePlayer("a"))
	assert.False(t, team.RemovePlayer("a"))
	require.Len(t, team.Players, 1)
	assert.Equal(t, "b", team.Players[0].UserID)
}

func TestTeamAddPlayerIgnoresCapacity(t *testing.T) {
	team := NewTeam("Solo", Player{UserID: "a"}, nil, testNow)

	assert.True(t, team.IsFull(1))
	assert.True(t, team.AddPlayer(Player{UserID: "b"}), "capacity is enforced by callers")
	assert.Len(t, team.Players, 2)
}

func TestTeamAverageMMR(t *testing.T) {
	team := NewTeam("Falcons", Player{UserID: "a", CurrentMMR: 2000, PeakMMR: 2200}, nil, testNow)
	team.AddPlayer(Player{UserID: "b", CurrentMMR: 1800, PeakMMR: 2000})

	assert.InDelta(t, 1960.0, team.AverageMMR(), 1e-9)

	empty := &Team{}
	assert.Equal(t, 0.0, empty.AverageMMR())
}

func TestPlayerValidate(t *testing.T) {
	testCases := []struct {
		name    string
		player  Player
		wantErr bool
	}{
		{name: "valid", player: Player{UserID: "a", CurrentMMR: 100, PeakMMR: 150}},
		{name: "equal peak", player: Player{UserID: "a", CurrentMMR: 100, PeakMMR: 100}},
		{name: "missing user", player: Player{CurrentMMR: 1, PeakMMR: 1}, wantErr: true},
		{name: "negative mmr", player: Player{UserID: "a", CurrentMMR: -1, PeakMMR: 10}, wantErr: true},
		{name: "peak below current", player: Player{UserID: "a", CurrentMMR: 200, PeakMMR: 100}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.player.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTeamCheckPassword(t *testing.T) {
	open := NewTeam("Open", Player{UserID: "a"}, nil, testNow)
	assert.True(t, open.CheckPassword("anything"))

	secret := "hunter2"
	locked := NewTeam("Locked", Player{UserID: "a"}, &secret, testNow)
	assert.True(t, locked.CheckPassword("hunter2"))
	assert.False(t, locked.CheckPassword("hunter3"))
}
