package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ruokalista/internal/config"
	"ruokalista/internal/logging"
	"ruokalista/internal/services"
)

// Runner executes one daily cycle.
type Runner interface {
	RunDaily(ctx context.Context) error
}

// Scheduler triggers the daily refresh-and-render cycle on a cron schedule
// evaluated in the configured time zone.
type Scheduler struct {
	runner Runner
	spec   string
	loc    *time.Location
	logger *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	baseCtx context.Context
}

// New builds a scheduler from the scheduler section of cfg.
func New(cfg *config.Config, runner Runner, logger *slog.Logger) (*Scheduler, error) {
	if cfg == nil {
		return nil, errors.New("scheduler: config is nil")
	}
	if runner == nil {
		return nil, errors.New("scheduler: runner is nil")
	}
	if _, err := cron.ParseStandard(cfg.Scheduler.Cron); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scheduler", "parse", "invalid cron expression", err)
	}
	return &Scheduler{
		runner: runner,
		spec:   cfg.Scheduler.Cron,
		loc:    cfg.Location(),
		logger: logging.NewComponentLogger(logger, "scheduler"),
	}, nil
}

// Start registers the daily job and starts the cron loop. Jobs run with a
// context derived from ctx and are skipped while a previous run is active.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("scheduler already started")
	}

	cl := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s.baseCtx = ctx
	id, err := c.AddFunc(s.spec, s.runScheduled)
	if err != nil {
		return fmt.Errorf("register daily job: %w", err)
	}
	s.cron = c
	s.entry = id
	c.Start()

	s.logger.Info("scheduler started",
		logging.String("cron", s.spec),
		logging.String("timezone", s.loc.String()),
		logging.Time("next_run", c.Entry(id).Next),
		logging.String(logging.FieldEventType, "scheduler_start"),
	)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish or for
// timeout to elapse.
func (s *Scheduler) Stop(timeout time.Duration) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	done := c.Stop()
	select {
	case <-done.Done():
	case <-time.After(timeout):
		s.logger.Warn("scheduled run still active at shutdown")
	}
	s.logger.Info("scheduler stopped", logging.String(logging.FieldEventType, "scheduler_stop"))
}

// Next reports the next scheduled run, or the zero time when stopped.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// RunNow executes the daily cycle immediately on the caller's goroutine.
func (s *Scheduler) RunNow(ctx context.Context) error {
	return s.runner.RunDaily(services.WithTrigger(ctx, services.TriggerCLI))
}

func (s *Scheduler) runScheduled() {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithTrigger(ctx, services.TriggerSchedule)
	if err := s.runner.RunDaily(ctx); err != nil {
		// RunDaily logs and notifies; the error only matters for the next tick.
		s.logger.Debug("scheduled run returned error", logging.Error(err))
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{logging.Error(err)}, keysAndValues...)
	l.logger.Error("cron: "+msg, args...)
}
