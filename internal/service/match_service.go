package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/op-tourney-bot/internal/bracket"
	users "github.com/AdamBeresnev/op-tourney-bot/internal/user"
	"github.com/AdamBeresnev/op-tourney-bot/views"
)

type VoteOutcome struct {
	Match    *bracket.Match
	Votes1   int
	Votes2   int
	Majority int
	// Set once the vote reached the majority and the winner advanced
	Winner *bracket.TeamID
}

func (s *TournamentService) CheckIn(ctx context.Context, actor users.Actor, matchID bracket.MatchID) (*bracket.Match, error) {
	t, err := s.store.FindByMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	m, teamID, err := t.CheckIn(matchID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}

	recipients := matchUserIDs(t, m)
	s.notifyUsers(ctx, recipients, views.CheckedIn(t, teamID))
	if m.Status == bracket.MatchInProgress {
		slog.Info("match live", "tournament_id", t.ID, "match_id", m.ID)
		s.notifyUsers(ctx, recipients, views.MatchLive(t, m))
	}
	return m, nil
}

// RecordVote stores the actor's report and advances the winner as soon as one side reaches the majority.
func (s *TournamentService) RecordVote(ctx context.Context, actor users.Actor, matchID bracket.MatchID, teamID bracket.TeamID) (*VoteOutcome, error) {
	t, err := s.store.FindByMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	m, err := t.RecordVote(matchID, actor.UserID, teamID, actor.IsAdmin)
	if err != nil {
		return nil, err
	}

	outcome := &VoteOutcome{Match: m, Majority: t.Majority(m)}
	outcome.Votes1, outcome.Votes2 = t.VoteTally(m)

	winner, next, decided, err := t.ResolveVotes(matchID, s.now())
	if err != nil {
		return nil, err
	}
	if decided {
		outcome.Winner = &winner
	}

	if err := s.save(ctx, t); err != nil {
		return nil, err
	}

	if decided {
		slog.Info("match decided by vote", "tournament_id", t.ID, "match_id", m.ID, "winner", winner)
		s.afterAdvance(ctx, t, m, next)
	} else {
		s.notifyUsers(ctx, matchUserIDs(t, m), views.VoteRecorded(t, m))
	}
	return outcome, nil
}

// ForceAdvance awards a match to one of its teams. Admin only.
func (s *TournamentService) ForceAdvance(ctx context.Context, actor users.Actor, matchID bracket.MatchID, winnerID bracket.TeamID) (*bracket.Match, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	t, err := s.store.FindByMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	next, err := t.ForceAdvance(matchID, winnerID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}

	m, _ := t.Match(matchID)
	slog.Info("match force advanced", "tournament_id", t.ID, "match_id", matchID, "winner", winnerID, "by", actor.UserID)
	s.afterAdvance(ctx, t, m, next)
	return m, nil
}

// HandleTimeout applies the check-in timeout to one match. The decision is re-evaluated
// against the freshly loaded tournament, so a match that went live in the meantime is left alone.
func (s *TournamentService) HandleTimeout(ctx context.Context, id string, matchID bracket.MatchID, now time.Time) (bracket.ForfeitDecision, error) {
	t, err := s.store.Load(ctx, id)
	if err != nil {
		return bracket.ForfeitDecision{}, err
	}

	decision, next, err := t.ApplyForfeit(matchID, now)
	if err != nil {
		return decision, err
	}
	if decision.Kind == bracket.NoForfeit {
		return decision, nil
	}
	if err := s.save(ctx, t); err != nil {
		return decision, err
	}

	m, _ := t.Match(matchID)
	slog.Info("match forfeited", "tournament_id", t.ID, "match_id", matchID, "absent", decision.Absent)

	msg := views.Forfeit(t, decision)
	s.notifyUsers(ctx, matchUserIDs(t, m), msg)
	s.notifyChannel(ctx, t.HostChannelID, msg)
	if decision.Kind == bracket.Walkover {
		s.afterAdvance(ctx, t, m, next)
	}
	return decision, nil
}

// afterAdvance announces a decided match and whatever it unlocked downstream.
func (s *TournamentService) afterAdvance(ctx context.Context, t *bracket.Tournament, m, next *bracket.Match) {
	s.notifyUsers(ctx, matchUserIDs(t, m), views.MatchResult(t, m))

	if t.IsEnded() {
		s.announceCompletion(ctx, t)
		return
	}
	if next != nil && next.IsReady() && next.Status == bracket.MatchPending {
		s.notifyUsers(ctx, matchUserIDs(t, next), views.MatchReady(t, next))
	}
}
