package workflow

import (
	"context"
	"log/slog"
	"time"

	"ruokalista/internal/logging"
	"ruokalista/internal/menu"
	"ruokalista/internal/metrics"
	"ruokalista/internal/render"
	"ruokalista/internal/services"
)

// RunDaily is the scheduled cycle: an unconditional refresh, then a render
// (forced when the refreshed record changed) if the guard is free, then
// artifact cleanup. The returned error is also recorded in LastRun.
func (m *Manager) RunDaily(ctx context.Context) error {
	start := time.Now()
	summary := RunSummary{StartedAt: start, Key: menu.Today(m.clock)}
	logger := logging.WithContext(ctx, m.logger).With(logging.DayKey(summary.Key))

	err := m.runDaily(ctx, &summary, logger)
	summary.Duration = time.Since(start)
	summary.Err = err

	m.mu.Lock()
	m.lastRun = summary
	m.mu.Unlock()

	metrics.RecordScheduledRun(err)
	if err != nil {
		logging.ErrorWithContext(logger, "daily cycle failed", "daily_cycle_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the next scheduled run or request will retry"),
		)
		if notifyErr := m.notifier.NotifyError(ctx, err, "daily cycle"); notifyErr != nil {
			logger.Warn("error notification failed", logging.Error(notifyErr))
		}
		return err
	}

	logger.Info("daily cycle complete",
		logging.Bool("changed", summary.Changed),
		logging.Bool("rendered", summary.Rendered),
		logging.Bool("skipped", summary.Skipped),
		logging.Duration("duration", summary.Duration),
		logging.String(logging.FieldEventType, "daily_cycle_complete"),
	)
	return nil
}

func (m *Manager) runDaily(ctx context.Context, summary *RunSummary, logger *slog.Logger) error {
	snap, changed, err := m.data.Refresh(ctx)
	if err != nil {
		return err
	}
	summary.Changed = changed

	if !m.guard.TryEnter() {
		summary.Skipped = true
		metrics.RecordRender("busy", 0)
		logger.Info("render in progress, scheduled render skipped",
			logging.String(logging.FieldEventType, "render_skipped"),
		)
		return nil
	}
	defer m.guard.Exit()

	force := changed || m.needsFreshRender(snap)
	var opts []render.Option
	if force {
		opts = append(opts, render.Force())
	}
	_, existed, _ := m.artifacts.Current()
	start := time.Now()
	art, err := m.renderer.Render(ctx, snap.Record, opts...)
	if err != nil {
		return err
	}
	summary.Rendered = force || !existed
	m.noteRender(snap, art.Key, summary.Rendered)

	if _, err := m.artifacts.PruneStale(art.Key); err != nil {
		logger.Warn("stale artifact cleanup incomplete", logging.Error(err))
	}
	if summary.Rendered {
		if notifyErr := m.notifier.NotifyRenderComplete(ctx, art.Key.String(), art.Path, art.Size, time.Since(start)); notifyErr != nil {
			logger.Warn("render notification failed", logging.Error(notifyErr))
		}
	}
	return nil
}

// RenderNow renders today's artifact outside the schedule, for the CLI and
// startup warm-up. It returns services.ErrRenderBusy when the guard is held.
func (m *Manager) RenderNow(ctx context.Context, force bool) (Video, error) {
	if !m.guard.TryEnter() {
		return Video{}, services.Wrap(services.ErrRenderBusy, "workflow", "render", "render already in progress", nil)
	}
	defer m.guard.Exit()

	snap, err := m.data.GetToday(ctx)
	if err != nil {
		return Video{}, err
	}
	force = force || m.needsFreshRender(snap)
	var opts []render.Option
	if force {
		opts = append(opts, render.Force())
	}
	_, existed, _ := m.artifacts.Current()
	art, err := m.renderer.Render(ctx, snap.Record, opts...)
	if err != nil {
		return Video{}, err
	}
	m.noteRender(snap, art.Key, force || !existed)
	return Video{Artifact: art, Reused: existed && !force}, nil
}

// LastRun returns the summary of the most recent daily cycle.
func (m *Manager) LastRun() RunSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRun
}
