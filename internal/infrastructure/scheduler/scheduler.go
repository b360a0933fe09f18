// Package scheduler fires the daily notifier jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-portal/internal/api/metrics"
	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
	"github.com/carelink/healthcare-portal/internal/core/service"
)

const runTimeout = 10 * time.Minute

// Lock lets one replica claim a job for a calendar day.
type Lock interface {
	Acquire(ctx context.Context, job string, day time.Time) (bool, error)
}

// Config holds the cron specs, evaluated in Location.
type Config struct {
	ReminderSpec string
	DigestSpec   string
	Location     *time.Location
}

type Scheduler struct {
	cron   *cron.Cron
	runner ports.JobRunner
	lock   Lock
	loc    *time.Location
	log    zerolog.Logger
	now    func() time.Time
}

// New registers both jobs. A nil lock falls back to an in-process lock.
func New(cfg Config, runner ports.JobRunner, lock Lock, log zerolog.Logger) (*Scheduler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	if lock == nil {
		lock = NewMemoryLock()
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		runner: runner,
		lock:   lock,
		loc:    loc,
		log:    log.With().Str("component", "scheduler").Logger(),
		now:    time.Now,
	}

	jobs := []struct {
		name string
		spec string
		run  func(context.Context, time.Time) (*ports.JobReport, error)
	}{
		{service.JobReminders, cfg.ReminderSpec, runner.RunReminders},
		{service.JobDigest, cfg.DigestSpec, runner.RunDigest},
	}
	for _, j := range jobs {
		j := j
		if _, err := s.cron.AddFunc(j.spec, func() { s.Fire(context.Background(), j.name, j.run) }); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", j.name, j.spec, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Str("location", s.loc.String()).Msg("scheduler started")
}

// Stop halts the timers and waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out with jobs still running")
	}
}

// Fire runs one job unless another replica already ran it today.
func (s *Scheduler) Fire(ctx context.Context, job string, run func(context.Context, time.Time) (*ports.JobReport, error)) {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	now := s.now()
	day := domain.DayOf(now, s.loc)
	log := s.log.With().Str("job", job).Str("day", day.Format("2006-01-02")).Logger()

	ok, err := s.lock.Acquire(ctx, job, day)
	if err != nil {
		log.Error().Err(err).Msg("job lock unavailable, skipping run")
		metrics.JobRunsTotal.WithLabelValues(job, "error").Inc()
		return
	}
	if !ok {
		log.Info().Msg("job already claimed for today")
		metrics.JobRunsTotal.WithLabelValues(job, "locked").Inc()
		return
	}

	report, err := run(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("job failed")
		return
	}
	log.Info().
		Int("scanned", report.Scanned).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("job finished")
}

// MemoryLock is a single-process Lock.
type MemoryLock struct {
	mu    sync.Mutex
	taken map[string]struct{}
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{taken: make(map[string]struct{})}
}

func (l *MemoryLock) Acquire(_ context.Context, job string, day time.Time) (bool, error) {
	key := job + ":" + day.Format("2006-01-02")
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.taken[key]; ok {
		return false, nil
	}
	l.taken[key] = struct{}{}
	return true, nil
}
