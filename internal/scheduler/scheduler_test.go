package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/op-tourney-bot/internal/bracket"
	"github.com/AdamBeresnev/op-tourney-bot/internal/db"
	"github.com/AdamBeresnev/op-tourney-bot/internal/notify"
	"github.com/AdamBeresnev/op-tourney-bot/internal/service"
	"github.com/AdamBeresnev/op-tourney-bot/internal/store"
	users "github.com/AdamBeresnev/op-tourney-bot/internal/user"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC)

type fakeService struct {
	mu          sync.Mutex
	tournaments []*bracket.Tournament
	listErr     error
	reminders   []string
	timeouts    []bracket.MatchID
	// Jobs wait here until it is closed or their context is cancelled
	block     chan struct{}
	panicking bool
	delay     time.Duration
	running   int
	peak      int
}

func (f *fakeService) ListActive(context.Context) ([]*bracket.Tournament, error) {
	return f.tournaments, f.listErr
}

func (f *fakeService) FireReminder(ctx context.Context, id string, r bracket.Reminder) error {
	f.mu.Lock()
	f.reminders = append(f.reminders, r.Message)
	f.mu.Unlock()
	defer f.enter()()
	return f.wait(ctx)
}

func (f *fakeService) HandleTimeout(ctx context.Context, id string, matchID bracket.MatchID, now time.Time) (bracket.ForfeitDecision, error) {
	f.mu.Lock()
	f.timeouts = append(f.timeouts, matchID)
	f.mu.Unlock()
	defer f.enter()()
	if f.panicking {
		panic("boom")
	}
	return bracket.ForfeitDecision{Kind: bracket.DoubleForfeit, MatchID: matchID}, f.wait(ctx)
}

// enter tracks how many jobs run at once and holds each one for the configured delay.
func (f *fakeService) enter() (leave func()) {
	f.mu.Lock()
	f.running++
	f.peak = max(f.peak, f.running)
	f.mu.Unlock()
	time.Sleep(f.delay)
	return func() {
		f.mu.Lock()
		f.running--
		f.mu.Unlock()
	}
}

func (f *fakeService) wait(ctx context.Context) error {
	if f.block == nil {
		return nil
	}
	select {
	case <-f.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeService) calls() (reminders []string, timeouts []bracket.MatchID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reminders...), append([]bracket.MatchID(nil), f.timeouts...)
}

// startedTournament has one ready first-round match and a reminder due at testNow.
func startedTournament(t *testing.T) *bracket.Tournament {
	t.Helper()

	tour, err := bracket.NewTournament(bracket.Settings{
		Name:          "Sweep Cup",
		CreatorID:     "creator",
		TeamSize:      1,
		HostChannelID: "host",
	}, testNow)
	require.NoError(t, err)

	for i := 1; i <= 2; i++ {
		team := bracket.NewTeam(fmt.Sprintf("Team %d", i), bracket.Player{UserID: fmt.Sprintf("u%d", i)}, nil, testNow)
		tour.AddTeam(team)
		tour.ApproveTeam(team.ID)
	}
	_, err = tour.Start(testNow)
	require.NoError(t, err)

	tour.AddReminder(testNow, "first game soon")
	tour.AddReminder(testNow.Add(time.Hour), "later")
	return tour
}

func newTestScheduler(t *testing.T, svc Service) *Scheduler {
	t.Helper()

	s, err := New(svc)
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestJobKey(t *testing.T) {
	reminder := Job{Kind: JobReminder, TournamentID: "t1", ReminderIndex: 2}
	timeout := Job{Kind: JobTimeout, TournamentID: "t1", MatchID: "t1-R1-M1"}

	assert.Equal(t, "reminder:t1:2", reminder.Key())
	assert.Equal(t, "timeout:t1:t1-R1-M1", timeout.Key())
}

func TestSweep(t *testing.T) {
	tour := startedTournament(t)

	tests := []struct {
		name          string
		now           time.Time
		wantReminders []string
		wantTimeouts  int
	}{
		{
			name:          "only the due reminder",
			now:           testNow.Add(time.Minute),
			wantReminders: []string{"first game soon"},
		},
		{
			name:          "reminder and overdue match",
			now:           testNow.Add(bracket.CheckInTimeout),
			wantReminders: []string{"first game soon"},
			wantTimeouts:  1,
		},
		{
			name:          "everything due",
			now:           testNow.Add(2 * time.Hour),
			wantReminders: []string{"first game soon", "later"},
			wantTimeouts:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{tournaments: []*bracket.Tournament{tour}}
			s := newTestScheduler(t, svc)

			n := s.Sweep(context.Background(), tt.now)
			s.Wait()

			reminders, timeouts := svc.calls()
			assert.Equal(t, len(tt.wantReminders)+tt.wantTimeouts, n)
			assert.ElementsMatch(t, tt.wantReminders, reminders)
			assert.Len(t, timeouts, tt.wantTimeouts)
			assert.Zero(t, s.InFlight())
		})
	}
}

func TestSweepSkipsInFlightJobs(t *testing.T) {
	svc := &fakeService{
		tournaments: []*bracket.Tournament{startedTournament(t)},
		block:       make(chan struct{}),
	}
	s := newTestScheduler(t, svc)
	ctx := context.Background()
	now := testNow.Add(bracket.CheckInTimeout)

	assert.Equal(t, 2, s.Sweep(ctx, now))
	assert.Equal(t, 2, s.InFlight())

	assert.Zero(t, s.Sweep(ctx, now))

	close(svc.block)
	s.Wait()
	assert.Zero(t, s.InFlight())

	// Completed jobs free their key, a condition that is still due is picked up again
	assert.Equal(t, 2, s.Sweep(ctx, now))
	s.Wait()
}

func TestJobsOfOneTournamentRunInTurn(t *testing.T) {
	svc := &fakeService{
		tournaments: []*bracket.Tournament{startedTournament(t)},
		delay:       10 * time.Millisecond,
	}
	s := newTestScheduler(t, svc)

	require.Equal(t, 3, s.Sweep(context.Background(), testNow.Add(2*time.Hour)))
	s.Wait()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Equal(t, 1, svc.peak)
	assert.Len(t, svc.reminders, 2)
	assert.Len(t, svc.timeouts, 1)
}

func TestStopCancelsInFlightJobs(t *testing.T) {
	svc := &fakeService{
		tournaments: []*bracket.Tournament{startedTournament(t)},
		block:       make(chan struct{}),
	}
	s, err := New(svc)
	require.NoError(t, err)
	s.Start()

	require.Equal(t, 2, s.Sweep(context.Background(), testNow.Add(bracket.CheckInTimeout)))

	_ = s.Stop()
	assert.Zero(t, s.InFlight())

	assert.Zero(t, s.Sweep(context.Background(), testNow.Add(bracket.CheckInTimeout)))
}

func TestSweepSurvivesFailures(t *testing.T) {
	t.Run("list error", func(t *testing.T) {
		s := newTestScheduler(t, &fakeService{listErr: errors.New("db down")})
		assert.Zero(t, s.Sweep(context.Background(), testNow))
	})

	t.Run("panicking job", func(t *testing.T) {
		svc := &fakeService{tournaments: []*bracket.Tournament{startedTournament(t)}, panicking: true}
		s := newTestScheduler(t, svc)

		s.Sweep(context.Background(), testNow.Add(bracket.CheckInTimeout))
		s.Wait()
		assert.Zero(t, s.InFlight())
	})
}

// recordingNotifier is slow on purpose so jobs of one sweep overlap.
type recordingNotifier struct {
	mu    sync.Mutex
	delay time.Duration
	texts []string
}

func (r *recordingNotifier) NotifyUsers(_ context.Context, _ []string, msg notify.Message) error {
	time.Sleep(r.delay)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, msg.Text)
	return nil
}

func (r *recordingNotifier) NotifyChannel(context.Context, string, notify.Message) error {
	return nil
}

func (r *recordingNotifier) count(text string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.texts {
		if t == text {
			n++
		}
	}
	return n
}

func (r *recordingNotifier) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = nil
}

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	require.NoError(t, db.RunMigrations(database))
	t.Cleanup(func() { database.Close() })
	return database
}

// startLiveTournament runs a real service over sqlite and starts a tournament whose
// reminders are all due one minute from now.
func startLiveTournament(t *testing.T, notifier notify.Notifier, captains []string, reminders ...string) (*service.TournamentService, *store.TournamentStore, *bracket.Tournament) {
	t.Helper()

	ctx := context.Background()
	tournaments := store.NewTournamentStore(setupTestDB(t))
	svc := service.NewTournamentService(tournaments, notifier)
	creator := users.Actor{UserID: "creator"}

	tour, err := svc.CreateTournament(ctx, creator, bracket.Settings{Name: "Live Cup", TeamSize: 1, HostChannelID: "host"})
	require.NoError(t, err)
	for _, id := range captains {
		team, err := svc.SignUp(ctx, users.Actor{UserID: id}, tour.ID, service.SignUpInput{TeamName: "Team " + id})
		require.NoError(t, err)
		_, err = svc.ApproveTeam(ctx, creator, tour.ID, team.ID)
		require.NoError(t, err)
	}

	fireTime := time.Now().Add(time.Minute)
	for _, msg := range reminders {
		require.NoError(t, svc.AddReminder(ctx, creator, tour.ID, fireTime, msg))
	}
	_, err = svc.StartTournament(ctx, creator, tour.ID)
	require.NoError(t, err)
	return svc, tournaments, tour
}

func TestSweepAgainstService(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	svc, tournaments, tour := startLiveTournament(t, notifier, []string{"a", "b"}, "warm up")

	s := newTestScheduler(t, svc)
	later := time.Now().Add(bracket.CheckInTimeout + time.Minute)
	assert.Equal(t, 2, s.Sweep(ctx, later))
	s.Wait()

	stored, err := tournaments.Load(ctx, tour.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Reminders)

	m, ok := stored.MatchAt(1, 1)
	require.True(t, ok)
	assert.Equal(t, bracket.MatchForfeit, m.Status)
	assert.Equal(t, 1, notifier.count("warm up"))

	// Nothing left to do
	assert.Zero(t, s.Sweep(ctx, later))
}

func TestSweepSerialisesJobsOfOneTournament(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{delay: 30 * time.Millisecond}
	svc, tournaments, tour := startLiveTournament(t, notifier, []string{"a", "b", "c", "d"}, "one", "two")
	notifier.reset()

	s := newTestScheduler(t, svc)
	later := time.Now().Add(bracket.CheckInTimeout + time.Minute)

	// Two reminders and two overdue matches in a single sweep
	require.Equal(t, 4, s.Sweep(ctx, later))
	s.Wait()

	stored, err := tournaments.Load(ctx, tour.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Reminders)
	for _, number := range []int{1, 2} {
		m, ok := stored.MatchAt(1, number)
		require.True(t, ok)
		assert.Equal(t, bracket.MatchForfeit, m.Status, "match %d", number)
	}

	assert.Zero(t, s.Sweep(ctx, later))
	s.Wait()

	assert.Equal(t, 1, notifier.count("one"))
	assert.Equal(t, 1, notifier.count("two"))
}
