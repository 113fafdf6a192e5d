package bracket

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Format string

const (
	FormatChoose  Format = "choose"
	FormatBalance Format = "balance"
	FormatRandom  Format = "random"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatChoose, FormatBalance, FormatRandom:
		return f, nil
	case "":
		return FormatChoose, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", ErrValidation, s)
}

// SoloTeams reports whether each signup becomes its own one player team.
func (f Format) SoloTeams() bool {
	return f == FormatBalance || f == FormatRandom
}

const (
	MaxTeamSize             = 4
	MaxTournamentNameLength = 100
	DefaultDeadlineDays     = 7
)

type Reminder struct {
	FireTime time.Time `json:"fire_time"`
	Message  string    `json:"message"`
}

type Tournament struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Format               Format     `json:"format"`
	CreatorID            string     `json:"creator_id"`
	TeamSize             int        `json:"team_size"`
	MaxTeams             *int       `json:"max_teams"`
	RegistrationDeadline time.Time  `json:"registration_deadline"`
	PrizeInfo            *string    `json:"prize_info"`
	HostChannelID        string     `json:"host_channel_id"`
	TotalRounds          int        `json:"total_rounds"`
	CreatedAt            time.Time  `json:"created_at"`
	StartedAt            *time.Time `json:"started_at"`
	EndedAt              *time.Time `json:"ended_at"`
	IsActive             bool       `json:"is_active"`
	WinnerID             *TeamID    `json:"winner_id"`

	Teams     map[TeamID]*Team   `json:"teams"`
	Matches   map[MatchID]*Match `json:"matches"`
	Reminders []Reminder         `json:"reminders"`

	// Channel and category handles managed by the chat adapter, keyed by purpose
	Channels map[string]string `json:"channels"`
}

type Settings struct {
	Name          string
	Format        Format
	CreatorID     string
	TeamSize      int
	MaxTeams      *int
	DeadlineDays  int
	PrizeInfo     *string
	HostChannelID string
}

func (s Settings) Validate() error {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return fmt.Errorf("%w: tournament name is required", ErrValidation)
	}
	if len(name) > MaxTournamentNameLength {
		return fmt.Errorf("%w: tournament name exceeds %d characters", ErrValidation, MaxTournamentNameLength)
	}
	if s.TeamSize <= 0 || s.TeamSize > MaxTeamSize {
		return fmt.Errorf("%w: team size must be between 1 and %d", ErrValidation, MaxTeamSize)
	}
	if s.MaxTeams != nil && *s.MaxTeams <= 0 {
		return fmt.Errorf("%w: max teams must be a positive number", ErrValidation)
	}
	if s.DeadlineDays < 0 {
		return fmt.Errorf("%w: registration deadline must be a positive number of days", ErrValidation)
	}
	return nil
}

func NewTournament(s Settings, now time.Time) (*Tournament, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	days := s.DeadlineDays
	if days == 0 {
		days = DefaultDeadlineDays
	}
	format := s.Format
	if format == "" {
		format = FormatChoose
	}

	return &Tournament{
		ID:                   uuid.NewString(),
		Name:                 strings.TrimSpace(s.Name),
		Format:               format,
		CreatorID:            s.CreatorID,
		TeamSize:             s.TeamSize,
		MaxTeams:             s.MaxTeams,
		RegistrationDeadline: now.AddDate(0, 0, days),
		PrizeInfo:            s.PrizeInfo,
		HostChannelID:        s.HostChannelID,
		CreatedAt:            now,
		IsActive:             true,
		Teams:                make(map[TeamID]*Team),
		Matches:              make(map[MatchID]*Match),
		Reminders:            []Reminder{},
		Channels:             make(map[string]string),
	}, nil
}

func (t *Tournament) IsStarted() bool { return t.StartedAt != nil }
func (t *Tournament) IsEnded() bool   { return t.EndedAt != nil }

func (t *Tournament) AddTeam(team *Team) TeamID {
	t.Teams[team.ID] = team
	return team.ID
}

func (t *Tournament) Team(id TeamID) (*Team, bool) {
	team, ok := t.Teams[id]
	return team, ok
}

// TeamByName matches case-insensitively and ignores denied teams.
func (t *Tournament) TeamByName(name string) (*Team, bool) {
	for _, team := range t.sortedTeams() {
		if team.Status != TeamDenied && strings.EqualFold(team.Name, name) {
			return team, true
		}
	}
	return nil, false
}

func (t *Tournament) PlayerTeam(userID string) (*Team, bool) {
	for _, team := range t.sortedTeams() {
		if team.Status != TeamDenied && team.HasPlayer(userID) {
			return team, true
		}
	}
	return nil, false
}

func (t *Tournament) IsPlayerRegistered(userID string) bool {
	_, ok := t.PlayerTeam(userID)
	return ok
}

// PurgeDeniedTeams drops denied teams registered under name so the name can be reused.
func (t *Tournament) PurgeDeniedTeams(name string) int {
	purged := 0
	for id, team := range t.Teams {
		if team.Status == TeamDenied && strings.EqualFold(team.Name, name) {
			delete(t.Teams, id)
			purged++
		}
	}
	return purged
}

func (t *Tournament) RemoveTeam(id TeamID) bool {
	if _, ok := t.Teams[id]; !ok {
		return false
	}
	delete(t.Teams, id)
	return true
}

func (t *Tournament) ApproveTeam(id TeamID) bool {
	team, ok := t.Teams[id]
	if !ok {
		return false
	}
	team.Status = TeamApproved
	team.DenialReason = nil
	return true
}

func (t *Tournament) DenyTeam(id TeamID, reason string) bool {
	team, ok := t.Teams[id]
	if !ok {
		return false
	}
	team.Status = TeamDenied
	r := reason
	team.DenialReason = &r
	return true
}

// ActiveTeamCount counts teams that are not denied.
func (t *Tournament) ActiveTeamCount() int {
	n := 0
	for _, team := range t.Teams {
		if team.Status != TeamDenied {
			n++
		}
	}
	return n
}

func (t *Tournament) TeamsWithStatus(status TeamStatus) []*Team {
	var teams []*Team
	for _, team := range t.sortedTeams() {
		if team.Status == status {
			teams = append(teams, team)
		}
	}
	return teams
}

func (t *Tournament) ApprovedTeams() []*Team {
	return t.TeamsWithStatus(TeamApproved)
}

// CalculateSeedings ranks approved teams by descending average MMR, seed 1 being the strongest.
// Ties keep registration order.
func (t *Tournament) CalculateSeedings() {
	teams := t.ApprovedTeams()
	sort.SliceStable(teams, func(i, j int) bool {
		return teams[i].AverageMMR() > teams[j].AverageMMR()
	})
	for i, team := range teams {
		team.Seeding = i + 1
	}
}

func (t *Tournament) Match(id MatchID) (*Match, bool) {
	m, ok := t.Matches[id]
	return m, ok
}

// MatchAt looks a match up by its bracket position.
func (t *Tournament) MatchAt(round, number int) (*Match, bool) {
	m, ok := t.Matches[matchID(t.ID, round, number)]
	return m, ok
}

// MatchForTeam returns the undecided match the team is currently placed in.
func (t *Tournament) MatchForTeam(id TeamID) (*Match, bool) {
	for _, m := range t.SortedMatches() {
		if !m.IsDecided() && m.HasTeam(id) {
			return m, true
		}
	}
	return nil, false
}

// SortedMatches orders matches by round then match number.
func (t *Tournament) SortedMatches() []*Match {
	matches := make([]*Match, 0, len(t.Matches))
	for _, m := range t.Matches {
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].RoundNumber != matches[j].RoundNumber {
			return matches[i].RoundNumber < matches[j].RoundNumber
		}
		return matches[i].MatchNumber < matches[j].MatchNumber
	})
	return matches
}

// Participants returns the user ids of every player on an approved team.
func (t *Tournament) Participants() []string {
	var ids []string
	for _, team := range t.ApprovedTeams() {
		ids = append(ids, team.UserIDs()...)
	}
	return ids
}

func (t *Tournament) AddReminder(fireTime time.Time, message string) {
	t.Reminders = append(t.Reminders, Reminder{FireTime: fireTime, Message: message})
}

// RemoveReminder drops the first queued reminder equal to r.
func (t *Tournament) RemoveReminder(r Reminder) bool {
	for i, queued := range t.Reminders {
		if queued.FireTime.Equal(r.FireTime) && queued.Message == r.Message {
			t.Reminders = append(t.Reminders[:i], t.Reminders[i+1:]...)
			return true
		}
	}
	return false
}

// DueReminders returns the indexes of reminders whose fire time has passed.
func (t *Tournament) DueReminders(now time.Time) []int {
	var due []int
	for i, r := range t.Reminders {
		if !r.FireTime.After(now) {
			due = append(due, i)
		}
	}
	return due
}

// sortedTeams gives a deterministic iteration order: registration time, then id.
func (t *Tournament) sortedTeams() []*Team {
	teams := make([]*Team, 0, len(t.Teams))
	for _, team := range t.Teams {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool {
		if !teams[i].CreatedAt.Equal(teams[j].CreatedAt) {
			return teams[i].CreatedAt.Before(teams[j].CreatedAt)
		}
		return teams[i].ID < teams[j].ID
	})
	return teams
}
