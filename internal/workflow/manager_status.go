package workflow

import (
	"context"

	"ruokalista/internal/artifacts"
	"ruokalista/internal/logging"
	"ruokalista/internal/menu"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Today         menu.DayKey
	Slot          int
	Rendering     bool
	DataCached    bool
	DataKey       menu.DayKey
	DataStale     bool
	Days          int
	PersistedKeys []menu.DayKey
	Artifacts     []artifacts.Artifact
	LastRun       RunSummary
}

// Status returns the latest cache and render information without fetching.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	now := m.clock.Now()
	summary := StatusSummary{
		Today:     menu.KeyAt(now),
		Slot:      menu.TodaySlot(now),
		Rendering: m.guard.Busy(),
		LastRun:   m.LastRun(),
	}
	if snap, ok := m.data.Peek(); ok {
		summary.DataCached = true
		summary.DataKey = snap.Key
		summary.DataStale = snap.Stale
		summary.Days = snap.Record.Len()
	}
	keys, err := m.data.Keys(ctx)
	if err != nil {
		m.logger.Warn("failed to list persisted keys", logging.Error(err))
	}
	summary.PersistedKeys = keys

	list, err := m.artifacts.List()
	if err != nil {
		m.logger.Warn("failed to list artifacts", logging.Error(err))
	}
	summary.Artifacts = list
	return summary
}
