package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/op-tourney-bot/internal/bracket"
	"github.com/AdamBeresnev/op-tourney-bot/internal/db"
	"github.com/AdamBeresnev/op-tourney-bot/internal/notify"
	"github.com/AdamBeresnev/op-tourney-bot/internal/store"
	users "github.com/AdamBeresnev/op-tourney-bot/internal/user"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC)

var (
	creator = users.Actor{UserID: "creator", DisplayName: "Creator"}
	admin   = users.Actor{UserID: "admin", DisplayName: "Admin", IsAdmin: true}
)

type sent struct {
	UserIDs   []string
	ChannelID string
	Message   notify.Message
}

// fakeNotifier records every notification. It fails on demand to check errors are swallowed.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sent
	fail bool
}

func (f *fakeNotifier) NotifyUsers(_ context.Context, userIDs []string, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("direct messages disabled")
	}
	f.sent = append(f.sent, sent{UserIDs: userIDs, Message: msg})
	return nil
}

func (f *fakeNotifier) NotifyChannel(_ context.Context, channelID string, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("channel gone")
	}
	f.sent = append(f.sent, sent{ChannelID: channelID, Message: msg})
	return nil
}

func (f *fakeNotifier) titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	titles := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		titles = append(titles, s.Message.Title)
	}
	return titles
}

func (f *fakeNotifier) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(database), "Failed to apply migrations")
	t.Cleanup(func() { database.Close() })

	return database
}

type testEnv struct {
	svc      *TournamentService
	store    *store.TournamentStore
	notifier *fakeNotifier
	clock    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:    store.NewTournamentStore(setupTestDB(t)),
		notifier: &fakeNotifier{},
		clock:    testNow,
	}
	env.svc = NewTournamentService(env.store, env.notifier)
	env.svc.now = func() time.Time { return env.clock }
	return env
}

func (e *testEnv) advance(d time.Duration) { e.clock = e.clock.Add(d) }

func (e *testEnv) createTournament(t *testing.T, teamSize int, format bracket.Format) *bracket.Tournament {
	t.Helper()

	tour, err := e.svc.CreateTournament(context.Background(), creator, bracket.Settings{
		Name:          "Summer Brawl",
		Format:        format,
		TeamSize:      teamSize,
		HostChannelID: "host",
	})
	require.NoError(t, err)
	return tour
}

func (e *testEnv) load(t *testing.T, id string) *bracket.Tournament {
	t.Helper()

	tour, err := e.store.Load(context.Background(), id)
	require.NoError(t, err)
	return tour
}

func player(id string) users.Actor {
	return users.Actor{UserID: id, DisplayName: id}
}

func signUpInput(team string, mmr int) SignUpInput {
	return SignUpInput{TeamName: team, GameHandle: team + "#1", CurrentMMR: mmr, PeakMMR: mmr}
}

// registerApproved signs up one solo team per captain, strongest first, and approves them.
func (e *testEnv) registerApproved(t *testing.T, tournamentID string, captains ...string) []*bracket.Team {
	t.Helper()

	ctx := context.Background()
	teams := make([]*bracket.Team, 0, len(captains))
	for i, c := range captains {
		// Distinct registration times keep equal ratings in signup order
		e.advance(time.Second)
		team, err := e.svc.SignUp(ctx, player(c), tournamentID, signUpInput("Team "+c, 3000-i*100))
		require.NoError(t, err)
		_, err = e.svc.ApproveTeam(ctx, creator, tournamentID, team.ID)
		require.NoError(t, err)
		teams = append(teams, team)
	}
	return teams
}
