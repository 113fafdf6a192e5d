package bracket

import (
	"time"
)

// CheckIn marks the user's team as present. Once both teams are in, the match goes live.
func (t *Tournament) CheckIn(id MatchID, userID string) (*Match, TeamID, error) {
	m, ok := t.Matches[id]
	if !ok {
		return nil, "", ErrMatchNotFound
	}
	if m.IsDecided() {
		return nil, "", ErrMatchClosed
	}
	if !m.IsReady() {
		return nil, "", ErrMatchNotReady
	}

	teamID, ok := t.rosterTeam(m, userID)
	if !ok {
		return nil, "", ErrNotParticipant
	}
	if m.CheckedIn[teamID] {
		return nil, "", ErrAlreadyCheckedIn
	}

	m.CheckedIn[teamID] = true
	if m.CheckedIn[*m.Team1ID] && m.CheckedIn[*m.Team2ID] {
		m.Status = MatchInProgress
	}
	return m, teamID, nil
}

// RecordVote stores the caller's report of who won, overwriting any earlier vote.
// Players on either roster and tournament admins may vote.
func (t *Tournament) RecordVote(id MatchID, userID string, teamID TeamID, isAdmin bool) (*Match, error) {
	m, ok := t.Matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	if m.IsDecided() {
		return nil, ErrMatchClosed
	}
	if m.Status != MatchInProgress {
		return nil, ErrMatchNotLive
	}
	if !m.HasTeam(teamID) {
		return nil, ErrTeamNotInMatch
	}

	if _, onRoster := t.rosterTeam(m, userID); !onRoster && !isAdmin {
		return nil, ErrNotParticipant
	}

	if m.Votes == nil {
		m.Votes = make(map[string]TeamID)
	}
	m.Votes[userID] = teamID

	if isAdmin {
		if m.AdminVoters == nil {
			m.AdminVoters = make(map[string]bool)
		}
		m.AdminVoters[userID] = true
	} else {
		delete(m.AdminVoters, userID)
	}
	return m, nil
}

// VoteTally counts the votes for each side. Only current roster members and admins count.
func (t *Tournament) VoteTally(m *Match) (team1, team2 int) {
	for userID, teamID := range m.Votes {
		if _, onRoster := t.rosterTeam(m, userID); !onRoster && !m.AdminVoters[userID] {
			continue
		}
		switch {
		case m.Team1ID != nil && teamID == *m.Team1ID:
			team1++
		case m.Team2ID != nil && teamID == *m.Team2ID:
			team2++
		}
	}
	return team1, team2
}

// Majority is floor(total participants / 2) + 1 over the current rosters.
func (t *Tournament) Majority(m *Match) int {
	total := 0
	for _, id := range []*TeamID{m.Team1ID, m.Team2ID} {
		if id == nil {
			continue
		}
		if team, ok := t.Teams[*id]; ok {
			total += len(team.Players)
		}
	}
	return total/2 + 1
}

// DetermineResult returns the team whose votes reached the majority, if any.
func (t *Tournament) DetermineResult(id MatchID) (TeamID, bool) {
	m, ok := t.Matches[id]
	if !ok || !m.IsReady() {
		return "", false
	}

	majority := t.Majority(m)
	votes1, votes2 := t.VoteTally(m)
	switch {
	case votes1 >= majority:
		return *m.Team1ID, true
	case votes2 >= majority:
		return *m.Team2ID, true
	}
	return "", false
}

type ForfeitKind int

const (
	NoForfeit ForfeitKind = iota
	// DoubleForfeit: neither team checked in, both are eliminated
	DoubleForfeit
	// Walkover: one team checked in and advances
	Walkover
)

type ForfeitDecision struct {
	Kind     ForfeitKind
	MatchID  MatchID
	Advancer *TeamID
	Absent   []TeamID
}

// ForfeitFor decides whether a pending ready match has run out its check-in window.
func (t *Tournament) ForfeitFor(m *Match, now time.Time) ForfeitDecision {
	d := ForfeitDecision{Kind: NoForfeit, MatchID: m.ID}
	if m.Status != MatchPending || !m.IsReady() {
		return d
	}
	if now.Sub(m.CreatedAt) < CheckInTimeout {
		return d
	}

	in1, in2 := m.CheckedIn[*m.Team1ID], m.CheckedIn[*m.Team2ID]
	switch {
	case !in1 && !in2:
		d.Kind = DoubleForfeit
		d.Absent = []TeamID{*m.Team1ID, *m.Team2ID}
	case in1 && !in2:
		d.Kind = Walkover
		d.Advancer = m.Team1ID
		d.Absent = []TeamID{*m.Team2ID}
	case !in1 && in2:
		d.Kind = Walkover
		d.Advancer = m.Team2ID
		d.Absent = []TeamID{*m.Team1ID}
	}
	return d
}

// OverdueMatches lists forfeit decisions for every timed out match of a running tournament.
func (t *Tournament) OverdueMatches(now time.Time) []ForfeitDecision {
	if !t.IsStarted() || t.IsEnded() {
		return nil
	}

	var decisions []ForfeitDecision
	for _, m := range t.SortedMatches() {
		if d := t.ForfeitFor(m, now); d.Kind != NoForfeit {
			decisions = append(decisions, d)
		}
	}
	return decisions
}

// ApplyForfeit re-evaluates the timeout and applies it. The decision actually applied is
// returned; NoForfeit means the match resolved itself in the meantime.
func (t *Tournament) ApplyForfeit(id MatchID, now time.Time) (ForfeitDecision, *Match, error) {
	m, ok := t.Matches[id]
	if !ok {
		return ForfeitDecision{}, nil, ErrMatchNotFound
	}

	d := t.ForfeitFor(m, now)
	switch d.Kind {
	case DoubleForfeit:
		m.Status = MatchForfeit
		return d, nil, nil
	case Walkover:
		next, err := t.AdvanceMatch(id, *d.Advancer, now)
		return d, next, err
	}
	return d, nil, nil
}

// ForceAdvance lets an admin award a match outright, including a match still waiting
// for an opponent that will never arrive.
func (t *Tournament) ForceAdvance(id MatchID, winnerID TeamID, now time.Time) (*Match, error) {
	if !t.IsStarted() {
		return nil, ErrNotStarted
	}
	m, ok := t.Matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	if m.IsDecided() {
		return nil, ErrMatchClosed
	}
	return t.AdvanceMatch(id, winnerID, now)
}

// ResolveVotes advances the quorum winner, if there is one.
func (t *Tournament) ResolveVotes(id MatchID, now time.Time) (winner TeamID, next *Match, decided bool, err error) {
	winner, decided = t.DetermineResult(id)
	if !decided {
		return "", nil, false, nil
	}
	next, err = t.AdvanceMatch(id, winner, now)
	return winner, next, true, err
}

func (t *Tournament) rosterTeam(m *Match, userID string) (TeamID, bool) {
	for _, id := range []*TeamID{m.Team1ID, m.Team2ID} {
		if id == nil {
			continue
		}
		if team, ok := t.Teams[*id]; ok && team.HasPlayer(userID) {
			return *id, true
		}
	}
	return "", false
}
