package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ruokalista/internal/artifacts"
	"ruokalista/internal/datacache"
	"ruokalista/internal/logging"
	"ruokalista/internal/menu"
	"ruokalista/internal/notifications"
	"ruokalista/internal/render"
)

// Manager owns the data cache, artifact cache, render guard and renderer,
// and is the only entry point HTTP handlers, the scheduler and the CLI use.
type Manager struct {
	data      *datacache.Cache
	artifacts *artifacts.Cache
	renderer  *render.Renderer
	guard     *render.Guard
	clock     menu.Clock
	notifier  notifications.Service
	logger    *slog.Logger

	mu      sync.RWMutex
	lastRun RunSummary
	// staleArtifact is the day key whose artifact was rendered from a stale
	// record. The next render with fresh data for that day is forced.
	staleArtifact menu.DayKey
}

// Deps groups the collaborators of a Manager.
type Deps struct {
	Data      *datacache.Cache
	Artifacts *artifacts.Cache
	Renderer  *render.Renderer
	Guard     *render.Guard
	Clock     menu.Clock
	Notifier  notifications.Service
}

// NewManager constructs a workflow manager.
func NewManager(deps Deps, logger *slog.Logger) *Manager {
	guard := deps.Guard
	if guard == nil {
		guard = &render.Guard{}
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.Noop()
	}
	return &Manager{
		data:      deps.Data,
		artifacts: deps.Artifacts,
		renderer:  deps.Renderer,
		guard:     guard,
		clock:     deps.Clock,
		notifier:  notifier,
		logger:    logging.NewComponentLogger(logger, "workflow"),
	}
}

// Guard exposes the render guard for status reporting.
func (m *Manager) Guard() *render.Guard { return m.guard }

// Clock returns the clock used for every day key decision.
func (m *Manager) Clock() menu.Clock { return m.clock }

// Menu returns today's record, populating the cache on first access, and
// starts a non-blocking stale-entry sweep.
func (m *Manager) Menu(ctx context.Context) (datacache.Snapshot, error) {
	snap, err := m.data.GetToday(ctx)
	if err != nil {
		return datacache.Snapshot{}, err
	}
	m.data.SweepStale(ctx)
	return snap, nil
}

// Wait blocks until background work started by Menu has finished.
func (m *Manager) Wait() {
	m.data.Wait()
}

// needsFreshRender reports whether snap is fresh data for a day whose
// artifact was rendered from a stale record.
func (m *Manager) needsFreshRender(snap datacache.Snapshot) bool {
	if snap.Stale {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.staleArtifact != "" && m.staleArtifact == menu.Today(m.clock)
}

// noteRender records where a freshly rendered artifact's data came from.
// Reused artifacts leave the record untouched.
func (m *Manager) noteRender(snap datacache.Snapshot, key menu.DayKey, rendered bool) {
	if !rendered {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case snap.Stale:
		m.staleArtifact = key
		m.logger.Warn("artifact rendered from a stale menu",
			logging.DayKey(key),
			logging.String("data_key", snap.Key.String()),
			logging.String(logging.FieldEventType, "stale_render"),
		)
	case m.staleArtifact == key:
		m.staleArtifact = ""
	}
}

// RunSummary describes the last daily cycle.
type RunSummary struct {
	StartedAt time.Time
	Duration  time.Duration
	Key       menu.DayKey
	Changed   bool
	Rendered  bool
	Skipped   bool
	Err       error
}
