package bracket

import (
	"fmt"
	"time"
)

type MatchID string

type MatchStatus string

const (
	MatchPending    MatchStatus = "pending"
	MatchInProgress MatchStatus = "playing"
	MatchCompleted  MatchStatus = "completed"
	MatchForfeit    MatchStatus = "forfeit"
)

// CheckInTimeout is how long a ready match may wait for both teams to check in.
const CheckInTimeout = 10 * time.Minute

type Match struct {
	ID           MatchID     `json:"id"`
	TournamentID string      `json:"tournament_id"`
	Team1ID      *TeamID     `json:"team1_id"`
	Team2ID      *TeamID     `json:"team2_id"`
	RoundNumber  int         `json:"round_number"`
	MatchNumber  int         `json:"match_number"`
	Status       MatchStatus `json:"status"`
	WinnerID     *TeamID     `json:"winner_id"`
	LoserID      *TeamID     `json:"loser_id"`

	// Voter user id -> team id they reported as winner
	Votes map[string]TeamID `json:"votes"`
	// Voters who voted with admin authority rather than as players
	AdminVoters map[string]bool `json:"admin_voters,omitempty"`
	CheckedIn   map[TeamID]bool `json:"checked_in"`

	LobbyName     string  `json:"lobby_name,omitempty"`
	LobbyPassword string  `json:"lobby_password,omitempty"`
	ChannelID     *string `json:"channel_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func matchID(tournamentID string, round, number int) MatchID {
	return MatchID(fmt.Sprintf("%s-R%d-M%d", tournamentID, round, number))
}

func newMatch(tournamentID string, round, number int, now time.Time) *Match {
	return &Match{
		ID:           matchID(tournamentID, round, number),
		TournamentID: tournamentID,
		RoundNumber:  round,
		MatchNumber:  number,
		Status:       MatchPending,
		Votes:        make(map[string]TeamID),
		CheckedIn:    make(map[TeamID]bool),
		CreatedAt:    now,
	}
}

// IsBye reports whether the match was a first round walkover without an opponent.
func (m *Match) IsBye() bool {
	return m.RoundNumber == 1 && m.Team1ID != nil && m.Team2ID == nil && m.Status == MatchCompleted
}

// IsReady reports whether both slots are known.
func (m *Match) IsReady() bool {
	return m.Team1ID != nil && m.Team2ID != nil
}

func (m *Match) IsDecided() bool {
	return m.Status == MatchCompleted || m.Status == MatchForfeit
}

func (m *Match) HasTeam(id TeamID) bool {
	return (m.Team1ID != nil && *m.Team1ID == id) || (m.Team2ID != nil && *m.Team2ID == id)
}

// Opponent returns the other team of the match, if any.
func (m *Match) Opponent(id TeamID) *TeamID {
	switch {
	case m.Team1ID != nil && *m.Team1ID == id:
		return m.Team2ID
	case m.Team2ID != nil && *m.Team2ID == id:
		return m.Team1ID
	}
	return nil
}

// makeReady resets the check-in map to the two competing teams and restarts the check-in clock.
func (m *Match) makeReady(now time.Time) {
	m.CheckedIn = map[TeamID]bool{
		*m.Team1ID: false,
		*m.Team2ID: false,
	}
	m.CreatedAt = now
}

func (m *Match) finish(winner TeamID) {
	w := winner
	m.Status = MatchCompleted
	m.WinnerID = &w
	m.LoserID = nil
	if loser := m.Opponent(winner); loser != nil {
		l := *loser
		m.LoserID = &l
	}
}
