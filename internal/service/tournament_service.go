package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AdamBeresnev/op-tourney-bot/internal/bracket"
	"github.com/AdamBeresnev/op-tourney-bot/internal/notify"
	users "github.com/AdamBeresnev/op-tourney-bot/internal/user"
	"github.com/AdamBeresnev/op-tourney-bot/views"
)

// Repository is the persistence contract the service needs. Both store backends satisfy it.
type Repository interface {
	Save(ctx context.Context, t *bracket.Tournament) error
	Load(ctx context.Context, id string) (*bracket.Tournament, error)
	Delete(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]*bracket.Tournament, error)
	FindByHostChannel(ctx context.Context, channelID string) (*bracket.Tournament, error)
	FindByMatch(ctx context.Context, matchID bracket.MatchID) (*bracket.Tournament, error)
}

// TournamentService holds the entry points the chat adapter calls. Every call loads the
// tournament, mutates it, saves it back and then notifies. There is no locking: two
// concurrent calls on the same tournament are last writer wins.
type TournamentService struct {
	store    Repository
	notifier notify.Notifier
	now      func() time.Time
}

func NewTournamentService(store Repository, notifier notify.Notifier) *TournamentService {
	return &TournamentService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *TournamentService) CreateTournament(ctx context.Context, actor users.Actor, settings bracket.Settings) (*bracket.Tournament, error) {
	settings.CreatorID = actor.UserID

	t, err := bracket.NewTournament(settings, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}

	slog.Info("tournament created", "tournament_id", t.ID, "name", t.Name, "creator", actor.UserID)
	s.notifyChannel(ctx, t.HostChannelID, views.TournamentCreated(t))
	return t, nil
}

func (s *TournamentService) GetTournament(ctx context.Context, id string) (*bracket.Tournament, error) {
	return s.store.Load(ctx, id)
}

func (s *TournamentService) FindByHostChannel(ctx context.Context, channelID string) (*bracket.Tournament, error) {
	return s.store.FindByHostChannel(ctx, channelID)
}

func (s *TournamentService) ListActive(ctx context.Context) ([]*bracket.Tournament, error) {
	return s.store.ListActive(ctx)
}

func (s *TournamentService) StartTournament(ctx context.Context, actor users.Actor, id string) (*bracket.Tournament, error) {
	t, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireManager(t, actor); err != nil {
		return nil, err
	}

	if _, err := t.Start(s.now()); err != nil {
		return nil, err
	}
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}

	slog.Info("tournament started", "tournament_id", t.ID, "teams", len(t.ApprovedTeams()), "rounds", t.TotalRounds)

	s.notifyUsers(ctx, t.Participants(), views.TournamentStarted(t))
	s.notifyChannel(ctx, t.HostChannelID, views.TournamentStarted(t))
	for _, m := range t.SortedMatches() {
		if m.IsReady() && m.Status == bracket.MatchPending {
			s.notifyUsers(ctx, matchUserIDs(t, m), views.MatchReady(t, m))
		}
	}
	return t, nil
}

func (s *TournamentService) AddReminder(ctx context.Context, actor users.Actor, id string, fireTime time.Time, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("%w: reminder message is required", bracket.ErrValidation)
	}
	if !fireTime.After(s.now()) {
		return fmt.Errorf("%w: reminder time must be in the future", bracket.ErrValidation)
	}

	t, err := s.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := requireManager(t, actor); err != nil {
		return err
	}

	t.AddReminder(fireTime.UTC(), message)
	return s.save(ctx, t)
}

// FireReminder sends a queued reminder to every approved player and drops it from the
// queue. A reminder that is no longer queued is ignored.
func (s *TournamentService) FireReminder(ctx context.Context, id string, r bracket.Reminder) error {
	t, err := s.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if !t.RemoveReminder(r) {
		slog.Debug("reminder already handled", "tournament_id", id, "fire_time", r.FireTime)
		return nil
	}

	s.notifyUsers(ctx, t.Participants(), views.Reminder(t, r))
	return s.save(ctx, t)
}

func (s *TournamentService) DeleteTournament(ctx context.Context, actor users.Actor, id string) error {
	t, err := s.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := requireManager(t, actor); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete tournament %s: %w", id, err)
	}
	slog.Info("tournament deleted", "tournament_id", id, "by", actor.UserID)
	return nil
}

// requireManager allows the creator and admins.
func requireManager(t *bracket.Tournament, actor users.Actor) error {
	if actor.IsAdmin || actor.UserID == t.CreatorID {
		return nil
	}
	return fmt.Errorf("%w: only the tournament creator or an admin can do this", bracket.ErrForbidden)
}

func requireAdmin(actor users.Actor) error {
	if actor.IsAdmin {
		return nil
	}
	return fmt.Errorf("%w: admin only", bracket.ErrForbidden)
}

func (s *TournamentService) save(ctx context.Context, t *bracket.Tournament) error {
	if err := s.store.Save(ctx, t); err != nil {
		slog.Error("failed to save tournament", "tournament_id", t.ID, "error", err)
		return fmt.Errorf("failed to save tournament %s: %w", t.ID, err)
	}
	return nil
}

// Notification failures are logged and never fail the surrounding call.
func (s *TournamentService) notifyUsers(ctx context.Context, userIDs []string, msg notify.Message) {
	if len(userIDs) == 0 {
		return
	}
	if err := s.notifier.NotifyUsers(ctx, userIDs, msg); err != nil {
		slog.Warn("failed to notify users", "users", userIDs, "title", msg.Title, "error", err)
	}
}

func (s *TournamentService) notifyChannel(ctx context.Context, channelID string, msg notify.Message) {
	if channelID == "" {
		return
	}
	if err := s.notifier.NotifyChannel(ctx, channelID, msg); err != nil {
		slog.Warn("failed to notify channel", "channel_id", channelID, "title", msg.Title, "error", err)
	}
}

func (s *TournamentService) announceCompletion(ctx context.Context, t *bracket.Tournament) {
	slog.Info("tournament completed", "tournament_id", t.ID, "winner", t.WinnerID)
	msg := views.TournamentCompleted(t)
	s.notifyUsers(ctx, t.Participants(), msg)
	s.notifyChannel(ctx, t.HostChannelID, msg)
}

func matchUserIDs(t *bracket.Tournament, m *bracket.Match) []string {
	var ids []string
	for _, id := range []*bracket.TeamID{m.Team1ID, m.Team2ID} {
		if id == nil {
			continue
		}
		if team, ok := t.Team(*id); ok {
			ids = append(ids, team.UserIDs()...)
		}
	}
	return ids
}
