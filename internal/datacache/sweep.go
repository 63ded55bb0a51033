package datacache

import (
	"context"
	"errors"

	"ruokalista/internal/logging"
	"ruokalista/internal/menu"
	"ruokalista/internal/metrics"
	"ruokalista/internal/services"
)

// SweepStale checks the store for entries keyed to other days and, when any
// exist, starts a background refresh that supersedes and deletes them. It
// runs at most once per day key and never blocks on the refresh. The return
// value reports whether a sweep was started. A refresh that fails to reach
// the source does not re-arm the sweep for the same day.
func (c *Cache) SweepStale(ctx context.Context) bool {
	today := c.Today()

	c.mu.Lock()
	if c.swept == today {
		c.mu.Unlock()
		return false
	}
	c.swept = today
	c.mu.Unlock()

	keys, err := c.store.Keys(ctx)
	if err != nil {
		c.logger.Warn("stale sweep: list keys failed", logging.Error(err))
		c.resetSweep(today)
		return false
	}
	stale := make([]menu.DayKey, 0, len(keys))
	for _, key := range keys {
		if key != today {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return false
	}

	metrics.StaleSweeps.Inc()
	c.logger.Info("stale menu entries found",
		logging.DayKey(today),
		logging.Int("stale_entries", len(stale)),
		logging.String(logging.FieldEventType, "stale_sweep"),
	)

	bg := context.WithoutCancel(ctx)
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		if _, _, err := c.Refresh(bg); err != nil {
			logging.WarnWithContext(c.logger, "stale sweep refresh failed", "stale_sweep_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "stale entries kept until the next successful fetch"),
			)
			// An unreachable source stays unreachable for the next request too;
			// the next successful fetch deletes the stale entries anyway.
			if !errors.Is(err, services.ErrFetch) {
				c.resetSweep(today)
			}
		}
	}()
	return true
}

// resetSweep allows another sweep for key after a failure.
func (c *Cache) resetSweep(key menu.DayKey) {
	c.mu.Lock()
	if c.swept == key {
		c.swept = ""
	}
	c.mu.Unlock()
}
