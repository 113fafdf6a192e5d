package bracket

import (
	"fmt"
	"math/bits"
	"sort"
	"time"

	"github.com/AdamBeresnev/op-tourney-bot/internal/utils"
)

// calcBracketSize rounds count up to the next power of two, so 5 gives 8 and so on
func calcBracketSize(count int) int {
	if count <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(count-1))
}

func calcTotalRounds(count int) int {
	rounds := bits.TrailingZeros(uint(calcBracketSize(count)))
	if rounds < 1 {
		return 1
	}
	return rounds
}

// CreateMatches reseeds the approved teams and lays out the first round.
//
// Teams are walked strongest seed first. While byes remain, the team at the
// cursor gets a pre-completed bye match, so byes go to the best seeds. The
// remaining teams are paired in seed order.
func (t *Tournament) CreateMatches(now time.Time) []*Match {
	t.CalculateSeedings()

	teams := t.ApprovedTeams()
	sort.SliceStable(teams, func(i, j int) bool {
		return teams[i].Seeding < teams[j].Seeding
	})

	byes := calcBracketSize(len(teams)) - len(teams)
	t.TotalRounds = calcTotalRounds(len(teams))

	var created []*Match
	number := 1
	for i := 0; i < len(teams); {
		m := newMatch(t.ID, 1, number, now)
		m.Team1ID = utils.Ptr(teams[i].ID)

		if i == len(teams)-1 || byes > 0 {
			m.finish(teams[i].ID)
			byes--
			i++
		} else {
			m.Team2ID = utils.Ptr(teams[i+1].ID)
			m.makeReady(now)
			t.assignLobby(m)
			i += 2
		}

		t.Matches[m.ID] = m
		created = append(created, m)
		number++
	}

	return created
}

// Start stamps the start time, generates round one and pushes every bye winner forward.
func (t *Tournament) Start(now time.Time) ([]*Match, error) {
	if t.IsStarted() {
		return nil, ErrAlreadyStarted
	}
	if len(t.ApprovedTeams()) < 2 {
		return nil, ErrNotEnoughTeams
	}

	started := now
	t.StartedAt = &started

	firstRound := t.CreateMatches(now)
	for _, m := range firstRound {
		if m.IsBye() {
			if _, err := t.AdvanceMatch(m.ID, *m.WinnerID, now); err != nil {
				return nil, fmt.Errorf("advancing bye %s: %w", m.ID, err)
			}
		}
	}

	return t.SortedMatches(), nil
}

// AdvanceMatch records winnerID as the winner of the match and slots it into the
// next round. Matches 2k-1 and 2k of round R feed slots 1 and 2 of match k in R+1.
//
// The downstream match is created on demand with only the known slot filled. It is
// returned so callers can tell whether both slots are now known. It is nil when
// the match was the final, in which case the tournament is ended.
func (t *Tournament) AdvanceMatch(id MatchID, winnerID TeamID, now time.Time) (*Match, error) {
	m, ok := t.Matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	if !m.HasTeam(winnerID) {
		return nil, ErrTeamNotInMatch
	}
	if m.Status == MatchForfeit {
		return nil, ErrMatchClosed
	}

	m.finish(winnerID)

	if m.RoundNumber >= t.TotalRounds {
		t.checkCompletion(now)
		return nil, nil
	}

	nextRound := m.RoundNumber + 1
	nextNumber := (m.MatchNumber + 1) / 2

	next, ok := t.MatchAt(nextRound, nextNumber)
	if !ok {
		next = newMatch(t.ID, nextRound, nextNumber, now)
		t.Matches[next.ID] = next
	}

	if m.MatchNumber%2 != 0 {
		next.Team1ID = utils.Ptr(winnerID)
	} else {
		next.Team2ID = utils.Ptr(winnerID)
	}

	if next.IsReady() && next.Status == MatchPending && len(next.Votes) == 0 {
		next.makeReady(now)
		t.assignLobby(next)
	}

	return next, nil
}

// FinalRound returns the highest round number that has matches.
func (t *Tournament) FinalRound() int {
	max := 0
	for _, m := range t.Matches {
		if m.RoundNumber > max {
			max = m.RoundNumber
		}
	}
	return max
}

// checkCompletion ends the tournament when the last round holds exactly one completed match.
// Completion also retires the tournament from the active set.
func (t *Tournament) checkCompletion(now time.Time) bool {
	if t.IsEnded() {
		return true
	}

	final := t.FinalRound()
	if final < t.TotalRounds {
		return false
	}

	var last []*Match
	for _, m := range t.Matches {
		if m.RoundNumber == final {
			last = append(last, m)
		}
	}
	if len(last) != 1 || last[0].Status != MatchCompleted {
		return false
	}

	ended := now
	t.EndedAt = &ended
	t.WinnerID = utils.Ptr(*last[0].WinnerID)
	t.IsActive = false
	return true
}
