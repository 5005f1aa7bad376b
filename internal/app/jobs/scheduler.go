// Package jobs runs the periodic maintenance passes: event college
// reconciliation and reservation expiry.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/yigit/campushub/internal/app/services"
	"github.com/yigit/campushub/internal/pkg/lock"
	"github.com/yigit/campushub/internal/pkg/metrics"
)

// Job names, also used as lock names and metric labels
const (
	JobReconcile = "reconcile_event_colleges"
	JobExpire    = "expire_reservations"
)

// ErrJobRunning is returned when another process holds the job lock
var ErrJobRunning = errors.New("maintenance job is already running")

// Config controls the maintenance schedule
type Config struct {
	ReconcileSchedule string
	ExpireSchedule    string
	LockTTL           time.Duration
	RunTimeout        time.Duration
}

// Scheduler runs maintenance jobs on a cron schedule. Each run holds a named
// lock so only one replica works at a time.
type Scheduler struct {
	cron         *cron.Cron
	cfg          Config
	events       services.EventService
	reservations services.ReservationService
	locker       lock.Locker
	metrics      *metrics.Metrics
	now          func() time.Time
	logger       zerolog.Logger
}

// NewScheduler creates a Scheduler and registers both jobs. An empty schedule
// disables that job; the Run methods stay usable.
func NewScheduler(
	cfg Config,
	events services.EventService,
	reservations services.ReservationService,
	locker lock.Locker,
	m *metrics.Metrics,
	logger zerolog.Logger,
) (*Scheduler, error) {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 4 * time.Minute
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}

	s := &Scheduler{
		cfg:          cfg,
		events:       events,
		reservations: reservations,
		locker:       locker,
		metrics:      m,
		now:          time.Now,
		logger:       logger,
	}
	cronLogger := cronLogAdapter{logger: logger}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	if cfg.ReconcileSchedule != "" {
		if _, err := s.cron.AddFunc(cfg.ReconcileSchedule, func() {
			s.scheduled(JobReconcile, func(ctx context.Context) error {
				_, err := s.RunReconcile(ctx)
				return err
			})
		}); err != nil {
			return nil, fmt.Errorf("invalid reconcile schedule %q: %w", cfg.ReconcileSchedule, err)
		}
	}
	if cfg.ExpireSchedule != "" {
		if _, err := s.cron.AddFunc(cfg.ExpireSchedule, func() {
			s.scheduled(JobExpire, func(ctx context.Context) error {
				_, err := s.RunExpire(ctx)
				return err
			})
		}); err != nil {
			return nil, fmt.Errorf("invalid expire schedule %q: %w", cfg.ExpireSchedule, err)
		}
	}
	return s, nil
}

// Start begins running scheduled jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().
		Str("reconcile", s.cfg.ReconcileSchedule).
		Str("expire", s.cfg.ExpireSchedule).
		Int("jobs", len(s.cron.Entries())).
		Msg("Maintenance scheduler started")
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info().Msg("Maintenance scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunReconcile runs one event college reconciliation pass under the job lock
func (s *Scheduler) RunReconcile(ctx context.Context) (*services.ReconcileReport, error) {
	var report *services.ReconcileReport
	err := s.withLock(ctx, JobReconcile, func(ctx context.Context) error {
		var err error
		report, err = s.events.ReconcileEventColleges(ctx)
		return err
	})
	return report, err
}

// RunExpire completes reservations dated before the current UTC day
func (s *Scheduler) RunExpire(ctx context.Context) (*services.ExpiryReport, error) {
	var report *services.ExpiryReport
	err := s.withLock(ctx, JobExpire, func(ctx context.Context) error {
		var err error
		report, err = s.reservations.ExpireStale(ctx, s.now())
		return err
	})
	return report, err
}

func (s *Scheduler) withLock(ctx context.Context, job string, fn func(ctx context.Context) error) error {
	lease, err := s.locker.TryAcquire(ctx, job, s.cfg.LockTTL)
	if err != nil {
		s.metrics.MaintenanceRun(job, "error")
		return err
	}
	if lease == nil {
		s.metrics.MaintenanceRun(job, "skipped")
		return fmt.Errorf("%s: %w", job, ErrJobRunning)
	}
	defer func() {
		// a fresh context so release still happens when ctx was cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lease.Release(releaseCtx); err != nil {
			s.logger.Warn().Err(err).Str("job", job).Msg("Failed to release job lock")
		}
	}()

	start := s.now()
	if err := fn(ctx); err != nil {
		s.metrics.MaintenanceRun(job, "error")
		return err
	}
	s.metrics.MaintenanceRun(job, "ok")
	s.logger.Debug().Str("job", job).Dur("took", s.now().Sub(start)).Msg("Maintenance job finished")
	return nil
}

func (s *Scheduler) scheduled(job string, run func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, ErrJobRunning) {
			s.logger.Info().Str("job", job).Msg("Maintenance job skipped, lock held elsewhere")
			return
		}
		s.logger.Error().Err(err).Str("job", job).Msg("Maintenance job failed")
	}
}

// cronLogAdapter routes cron's internal logging to zerolog
type cronLogAdapter struct {
	logger zerolog.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
