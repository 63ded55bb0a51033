package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/thejerf/suture/v4"

	"ruokalista/internal/api"
	"ruokalista/internal/config"
	"ruokalista/internal/logging"
	"ruokalista/internal/scheduler"
	"ruokalista/internal/services"
	"ruokalista/internal/workflow"
)

// Daemon coordinates the HTTP server and the scheduler under one supervisor
// and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	rt      *api.Runtime
	logger  *slog.Logger
	manager *workflow.Manager

	lockPath string
	lock     *flock.Flock

	api       *apiServer
	scheduler *scheduler.Scheduler

	mu        sync.Mutex
	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc
	done      <-chan error
	warm      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running   bool
	StartedAt time.Time
	Addr      string
	LockPath  string
	Breaker   string
	NextRun   time.Time
	Storage   string
	Workflow  workflow.StatusSummary
}

// New constructs a daemon around an opened runtime.
func New(cfg *config.Config, rt *api.Runtime, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || rt == nil || rt.Manager == nil {
		return nil, errors.New("daemon requires config and runtime")
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	d := &Daemon{
		cfg:      cfg,
		rt:       rt,
		logger:   logger,
		manager:  rt.Manager,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(cfg, rt.Manager, logger)
		if err != nil {
			return nil, err
		}
		d.scheduler = sched
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the instance lock, binds the listener and launches the
// supervisor tree in the background. Lock and listen failures are returned;
// later service failures are restarted by the supervisor.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another ruokalista instance is already running")
	}

	if err := d.api.listen(); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	tree := newSupervisor(d.logger, defaultTreeConfig())
	tree.Add(d.api)
	if d.scheduler != nil {
		tree.Add(scheduler.NewService(d.scheduler, d.cfg.RenderTimeout()))
	}
	d.cancel = cancel
	d.done = tree.ServeBackground(runCtx)
	d.startedAt = time.Now()
	d.running.Store(true)

	d.logger.Info("ruokalista daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.addr()),
		logging.Bool("scheduler", d.scheduler != nil),
		logging.String("storage", d.cfg.Storage.Backend),
		logging.String(logging.FieldEventType, "daemon_start"),
	)

	if d.cfg.Render.WarmOnStart {
		d.warm.Add(1)
		go d.warmUp(runCtx)
	}
	return nil
}

// warmUp renders today's artifact once so the first /video request is served
// from cache.
func (d *Daemon) warmUp(ctx context.Context) {
	defer d.warm.Done()
	ctx = services.WithTrigger(ctx, services.TriggerStartup)
	video, err := d.manager.RenderNow(ctx, false)
	switch {
	case err == nil:
		d.logger.Info("startup render ready",
			logging.DayKey(video.Artifact.Key),
			logging.Bool("reused", video.Reused),
		)
	case errors.Is(err, services.ErrRenderBusy), errors.Is(err, context.Canceled):
	default:
		logging.WarnWithContext(d.logger, "startup render failed", "startup_render_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check render.command and the engine project"),
			logging.String(logging.FieldImpact, "the first /video request will render on demand"),
		)
	}
}

// Done reports supervisor termination. It is nil before Start.
func (d *Daemon) Done() <-chan error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// Stop cancels the supervisor, waits for it to finish and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running.Load() {
		d.mu.Unlock()
		return
	}
	cancel, done := d.cancel, d.done
	d.cancel = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(defaultTreeConfig().ShutdownTimeout + d.cfg.RenderTimeout()):
			d.logger.Warn("supervisor did not stop in time")
		}
	}
	d.warm.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("ruokalista daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close stops the daemon and releases the runtime.
func (d *Daemon) Close() error {
	d.Stop()
	return d.rt.Close()
}

// Addr returns the bound listener address, empty before Start.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Handler exposes the HTTP routes without a listener.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:  d.running.Load(),
		Addr:     d.api.addr(),
		LockPath: d.lockPath,
		Breaker:  d.rt.BreakerState(),
		Storage:  d.cfg.Storage.Backend,
		Workflow: d.manager.Status(ctx),
	}
	d.mu.Lock()
	status.StartedAt = d.startedAt
	d.mu.Unlock()
	if d.scheduler != nil {
		status.NextRun = d.scheduler.Next()
	}
	return status
}

var _ suture.Service = (*apiServer)(nil)
