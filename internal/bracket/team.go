package bracket

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TeamID string

type TeamStatus string

const (
	TeamPending  TeamStatus = "pending"
	TeamApproved TeamStatus = "approved"
	TeamDenied   TeamStatus = "denied"
)

type Player struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"username"`
	GameHandle  string `json:"game_handle"`
	CurrentMMR  int    `json:"current_mmr"`
	PeakMMR     int    `json:"peak_mmr"`
}

// Validate checks the intake rules. The Player itself does not enforce them.
func (p Player) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("%w: player user id is required", ErrValidation)
	}
	if p.CurrentMMR < 0 || p.PeakMMR < 0 {
		return fmt.Errorf("%w: mmr cannot be negative", ErrValidation)
	}
	if p.PeakMMR < p.CurrentMMR {
		return fmt.Errorf("%w: peak mmr cannot be lower than current mmr", ErrValidation)
	}
	return nil
}

type Team struct {
	ID           TeamID     `json:"id"`
	Name         string     `json:"name"`
	CaptainID    string     `json:"captain_id"`
	Password     *string    `json:"password,omitempty"`
	Players      []Player   `json:"players"`
	Status       TeamStatus `json:"status"`
	Seeding      int        `json:"seeding"`
	DenialReason *string    `json:"denial_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func NewTeam(name string, captain Player, password *string, now time.Time) *Team {
	return &Team{
		ID:        TeamID(uuid.NewString()),
		Name:      name,
		CaptainID: captain.UserID,
		Password:  password,
		Players:   []Player{captain},
		Status:    TeamPending,
		CreatedAt: now,
	}
}

// AddPlayer appends p unless the user is already on the roster.
// Capacity is the caller's job, see IsFull.
func (t *Team) AddPlayer(p Player) bool {
	if t.HasPlayer(p.UserID) {
		return false
	}
	t.Players = append(t.Players, p)
	return true
}

func (t *Team) RemovePlayer(userID string) bool {
	for i, p := range t.Players {
		if p.UserID == userID {
			t.Players = append(t.Players[:i], t.Players[i+1:]...)
			return true
		}
	}
	return false
}

func (t *Team) HasPlayer(userID string) bool {
	for _, p := range t.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

func (t *Team) IsFull(teamSize int) bool {
	return len(t.Players) >= teamSize
}

// AverageMMR blends current and peak rating 70/30. Only used for seeding.
func (t *Team) AverageMMR() float64 {
	if len(t.Players) == 0 {
		return 0
	}

	var current, peak float64
	for _, p := range t.Players {
		current += float64(p.CurrentMMR)
		peak += float64(p.PeakMMR)
	}
	n := float64(len(t.Players))
	return 0.7*(current/n) + 0.3*(peak/n)
}

func (t *Team) UserIDs() []string {
	ids := make([]string, 0, len(t.Players))
	for _, p := range t.Players {
		ids = append(ids, p.UserID)
	}
	return ids
}

func (t *Team) CheckPassword(password string) bool {
	return t.Password == nil || *t.Password == password
}
