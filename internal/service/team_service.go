package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AdamBeresnev/op-tourney-bot/internal/bracket"
	users "github.com/AdamBeresnev/op-tourney-bot/internal/user"
	"github.com/AdamBeresnev/op-tourney-bot/views"
)

type SignUpInput struct {
	// Ignored for solo formats, where the team is named after the player
	TeamName   string
	Password   *string
	GameHandle string
	CurrentMMR int
	PeakMMR    int
}

// SignUp registers the actor as captain of a new pending team.
func (s *TournamentService) SignUp(ctx context.Context, actor users.Actor, id string, in SignUpInput) (*bracket.Team, error) {
	player := playerFor(actor, in.GameHandle, in.CurrentMMR, in.PeakMMR)
	if err := player.Validate(); err != nil {
		return nil, err
	}

	t, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkRegistrationOpen(t); err != nil {
		return nil, err
	}
	if t.MaxTeams != nil && t.ActiveTeamCount() >= *t.MaxTeams {
		return nil, bracket.ErrTournamentFull
	}
	if t.IsPlayerRegistered(player.UserID) {
		return nil, bracket.ErrAlreadyRegistered
	}

	name := strings.TrimSpace(in.TeamName)
	password := in.Password
	if t.Format.SoloTeams() {
		name = player.DisplayName
		password = nil
	}
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", bracket.ErrValidation)
	}

	if purged := t.PurgeDeniedTeams(name); purged > 0 {
		slog.Info("purged denied teams", "tournament_id", t.ID, "name", name, "count", purged)
	}
	if _, taken := t.TeamByName(name); taken {
		return nil, bracket.ErrTeamNameTaken
	}

	team := bracket.NewTeam(name, player, password, s.now())
	t.AddTeam(team)
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}

	slog.Info("team registered", "tournament_id", t.ID, "team_id", team.ID, "name", team.Name)
	s.notifyChannel(ctx, t.HostChannelID, views.TeamRegistered(t, team))
	return team, nil
}

// JoinTeam adds the actor to an existing team of a tournament where players pick their teams.
func (s *TournamentService) JoinTeam(ctx context.Context, actor users.Actor, id, teamName, password string, in SignUpInput) (*bracket.Team, error) {
	player := playerFor(actor, in.GameHandle, in.CurrentMMR, in.PeakMMR)
	if err := player.Validate(); err != nil {
		return nil, err
	}

	t, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Format.SoloTeams() {
		return nil, fmt.Errorf("%w: teams are formed automatically in %s tournaments", bracket.ErrValidation, t.Format)
	}
	if err := s.checkRegistrationOpen(t); err != nil {
		return nil, err
	}
	if t.IsPlayerRegistered(player.UserID) {
		return nil, bracket.ErrAlreadyRegistered
	}

	team, ok := t.TeamByName(teamName)
	if !ok {
		return nil, bracket.ErrTeamNotFound
	}
	if !team.CheckPassword(password) {
		return nil, bracket.ErrWrongPassword
	}
	if team.IsFull(t.TeamSize) {
		return nil, bracket.ErrTeamFull
	}

	team.AddPlayer(player)
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}

	s.notifyUsers(ctx, team.UserIDs(), views.TeamJoined(team, player))
	return team, nil
}

// LeaveTeam removes the actor from their team. The next player becomes captain and an
// emptied team is dropped.
func (s *TournamentService) LeaveTeam(ctx context.Context, actor users.Actor, id string) error {
	t, err := s.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if t.IsStarted() {
		return bracket.ErrAlreadyStarted
	}

	team, ok := t.PlayerTeam(actor.UserID)
	if !ok {
		return fmt.Errorf("%w: you are not on a team", bracket.ErrNotFound)
	}

	var leaving bracket.Player
	for _, p := range team.Players {
		if p.UserID == actor.UserID {
			leaving = p
		}
	}
	team.RemovePlayer(actor.UserID)

	if len(team.Players) == 0 {
		t.RemoveTeam(team.ID)
	} else if team.CaptainID == actor.UserID {
		team.CaptainID = team.Players[0].UserID
	}

	if err := s.save(ctx, t); err != nil {
		return err
	}

	s.notifyUsers(ctx, team.UserIDs(), views.TeamLeft(team, leaving))
	return nil
}

func (s *TournamentService) ApproveTeam(ctx context.Context, actor users.Actor, id string, teamID bracket.TeamID) (*bracket.Team, error) {
	t, team, err := s.loadForReview(ctx, actor, id, teamID)
	if err != nil {
		return nil, err
	}

	t.ApproveTeam(teamID)
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}

	s.notifyUsers(ctx, team.UserIDs(), views.TeamApproved(t, team))
	return team, nil
}

func (s *TournamentService) DenyTeam(ctx context.Context, actor users.Actor, id string, teamID bracket.TeamID, reason string) (*bracket.Team, error) {
	t, team, err := s.loadForReview(ctx, actor, id, teamID)
	if err != nil {
		return nil, err
	}

	t.DenyTeam(teamID, strings.TrimSpace(reason))
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}

	s.notifyUsers(ctx, team.UserIDs(), views.TeamDenied(t, team))
	return team, nil
}

func (s *TournamentService) loadForReview(ctx context.Context, actor users.Actor, id string, teamID bracket.TeamID) (*bracket.Tournament, *bracket.Team, error) {
	t, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := requireManager(t, actor); err != nil {
		return nil, nil, err
	}
	if t.IsStarted() {
		return nil, nil, bracket.ErrAlreadyStarted
	}

	team, ok := t.Team(teamID)
	if !ok {
		return nil, nil, bracket.ErrTeamNotFound
	}
	return t, team, nil
}

func (s *TournamentService) checkRegistrationOpen(t *bracket.Tournament) error {
	if t.IsStarted() {
		return bracket.ErrAlreadyStarted
	}
	if s.now().After(t.RegistrationDeadline) {
		return bracket.ErrRegistrationClosed
	}
	return nil
}

func playerFor(actor users.Actor, gameHandle string, currentMMR, peakMMR int) bracket.Player {
	name := actor.DisplayName
	if name == "" {
		name = actor.UserID
	}
	return bracket.Player{
		UserID:      actor.UserID,
		DisplayName: name,
		GameHandle:  strings.TrimSpace(gameHandle),
		CurrentMMR:  currentMMR,
		PeakMMR:     peakMMR,
	}
}
