package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AdamBeresnev/op-tourney-bot/internal/bracket"
	"github.com/go-co-op/gocron/v2"
)

// SweepInterval is fixed. Check-in timeouts are therefore detected up to a minute late.
const SweepInterval = 60 * time.Second

// Service is what the sweep needs from the tournament service.
type Service interface {
	ListActive(ctx context.Context) ([]*bracket.Tournament, error)
	FireReminder(ctx context.Context, id string, r bracket.Reminder) error
	HandleTimeout(ctx context.Context, id string, matchID bracket.MatchID, now time.Time) (bracket.ForfeitDecision, error)
}

type JobKind string

const (
	JobReminder JobKind = "reminder"
	JobTimeout  JobKind = "timeout"
)

// Job is one unit of background work found by a sweep.
type Job struct {
	Kind          JobKind
	TournamentID  string
	MatchID       bracket.MatchID
	ReminderIndex int
	Reminder      bracket.Reminder
}

// Key identifies the job for deduplication across sweeps.
func (j Job) Key() string {
	if j.Kind == JobReminder {
		return fmt.Sprintf("%s:%s:%d", j.Kind, j.TournamentID, j.ReminderIndex)
	}
	return fmt.Sprintf("%s:%s:%s", j.Kind, j.TournamentID, j.MatchID)
}

// Scheduler polls active tournaments and dispatches reminder and timeout jobs.
// A job whose key is still in flight is not dispatched again. Jobs of one tournament
// run one at a time, since each of them loads and saves the whole snapshot.
type Scheduler struct {
	svc  Service
	cron gocron.Scheduler
	now  func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	inFlight map[string]context.CancelFunc
	locks    map[string]*tournamentLock
	wg       sync.WaitGroup
}

type tournamentLock struct {
	sync.Mutex
	// Jobs holding or waiting for the lock
	refs int
}

func New(svc Service) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		svc:      svc,
		cron:     cron,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		inFlight: make(map[string]context.CancelFunc),
		locks:    make(map[string]*tournamentLock),
	}

	_, err = cron.NewJob(
		gocron.DurationJob(SweepInterval),
		gocron.NewTask(func() {
			s.Sweep(s.ctx, s.now())
		}),
		gocron.WithName("tournament-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to register sweep job: %w", err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	slog.Info("scheduler started", "interval", SweepInterval)
	s.cron.Start()
}

// Stop halts the sweep loop, cancels every in-flight job and clears the registry.
// Jobs that already sent notifications are not rolled back.
func (s *Scheduler) Stop() error {
	err := s.cron.Shutdown()
	s.cancel()

	s.mu.Lock()
	for key, cancel := range s.inFlight {
		cancel()
		delete(s.inFlight, key)
	}
	s.mu.Unlock()

	s.wg.Wait()
	slog.Info("scheduler stopped")
	return err
}

// Wait blocks until every dispatched job has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

// Sweep scans every active tournament once and returns how many jobs it dispatched.
// Errors are logged; a failing tournament never stops the sweep.
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) int {
	tournaments, err := s.svc.ListActive(ctx)
	if err != nil {
		slog.Error("scheduler: failed to list active tournaments", "error", err)
		return 0
	}

	dispatched := 0
	for _, t := range tournaments {
		for _, i := range t.DueReminders(now) {
			job := Job{Kind: JobReminder, TournamentID: t.ID, ReminderIndex: i, Reminder: t.Reminders[i]}
			if s.dispatch(ctx, job, now) {
				dispatched++
			}
		}

		for _, d := range t.OverdueMatches(now) {
			job := Job{Kind: JobTimeout, TournamentID: t.ID, MatchID: d.MatchID}
			if s.dispatch(ctx, job, now) {
				dispatched++
			}
		}
	}

	if dispatched > 0 {
		slog.Debug("scheduler sweep", "tournaments", len(tournaments), "dispatched", dispatched)
	}
	return dispatched
}

func (s *Scheduler) dispatch(ctx context.Context, job Job, now time.Time) bool {
	key := job.Key()

	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	if _, busy := s.inFlight[key]; busy {
		s.mu.Unlock()
		return false
	}
	jobCtx, cancel := context.WithCancel(ctx)
	s.inFlight[key] = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.release(key, cancel)
		defer func() {
			if r := recover(); r != nil {
				slog.Error("scheduler: job panicked", "job", key, "panic", r)
			}
		}()

		unlock := s.lockTournament(job.TournamentID)
		defer unlock()
		if jobCtx.Err() != nil {
			return
		}

		if err := s.run(jobCtx, job, now); err != nil {
			slog.Error("scheduler: job failed", "job", key, "error", err)
		}
	}()
	return true
}

// lockTournament blocks until no other job of the tournament is running.
func (s *Scheduler) lockTournament(id string) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &tournamentLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func (s *Scheduler) run(ctx context.Context, job Job, now time.Time) error {
	switch job.Kind {
	case JobReminder:
		return s.svc.FireReminder(ctx, job.TournamentID, job.Reminder)
	case JobTimeout:
		d, err := s.svc.HandleTimeout(ctx, job.TournamentID, job.MatchID, now)
		if err == nil && d.Kind == bracket.NoForfeit {
			slog.Debug("scheduler: match resolved before timeout", "match_id", job.MatchID)
		}
		return err
	}
	return fmt.Errorf("unknown job kind %q", job.Kind)
}

func (s *Scheduler) release(key string, cancel context.CancelFunc) {
	cancel()
	s.mu.Lock()
	delete(s.inFlight, key)
	s.mu.Unlock()
}
