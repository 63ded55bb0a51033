package datacache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"ruokalista/internal/logging"
	"ruokalista/internal/menu"
	"ruokalista/internal/menustore"
	"ruokalista/internal/metrics"
	"ruokalista/internal/services"
)

// Fetcher produces a fresh menu record.
type Fetcher interface {
	Fetch(ctx context.Context) (menu.Record, error)
}

// Snapshot is a record together with the day key it is stored under.
type Snapshot struct {
	Key    menu.DayKey
	Record menu.Record
	// Stale is set when the record was served from an older day because the
	// fetch for today failed.
	Stale bool
}

// Cache keeps the most recent successful fetch for today, persisted in a
// keyed store. At most one entry is kept after a successful fetch.
type Cache struct {
	store   menustore.Store
	fetcher Fetcher
	clock   menu.Clock
	logger  *slog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	current *Snapshot
	// swept remembers the day key the last stale sweep ran for.
	swept menu.DayKey
	// background tracks detached refresh goroutines for Wait.
	background sync.WaitGroup
}

// New constructs a data cache.
func New(store menustore.Store, fetcher Fetcher, clock menu.Clock, logger *slog.Logger) *Cache {
	return &Cache{
		store:   store,
		fetcher: fetcher,
		clock:   clock,
		logger:  logging.NewComponentLogger(logger, "datacache"),
	}
}

// Today returns the live day key.
func (c *Cache) Today() menu.DayKey {
	return menu.Today(c.clock)
}

// GetToday returns today's record, fetching it when neither memory nor the
// store holds an entry for today. Concurrent misses for the same key share
// one fetch. When the fetch fails the newest persisted entry is served with
// Stale set; with nothing persisted the error wraps services.ErrNoData.
func (c *Cache) GetToday(ctx context.Context) (Snapshot, error) {
	key := c.Today()

	if snap, ok := c.memory(key); ok {
		metrics.DataCacheLookups.WithLabelValues("memory").Inc()
		return snap, nil
	}

	rec, err := c.store.Load(ctx, key)
	switch {
	case err == nil:
		snap := Snapshot{Key: key, Record: rec}
		c.remember(snap)
		metrics.DataCacheLookups.WithLabelValues("store").Inc()
		return snap, nil
	case !errors.Is(err, menustore.ErrNotFound):
		logging.WarnWithContext(c.logger, "menu store read failed", "store_read_failed",
			logging.DayKey(key),
			logging.Error(err),
			logging.String(logging.FieldImpact, "fetching fresh menu instead"),
		)
	}

	snap, err := c.fetchAndStore(ctx, key)
	if err == nil {
		metrics.DataCacheLookups.WithLabelValues("fetched").Inc()
		return snap, nil
	}
	return c.fallback(ctx, key, err)
}

// Refresh fetches unconditionally and persists the result under today's key.
// It reports whether the record differs from the previously cached one.
func (c *Cache) Refresh(ctx context.Context) (Snapshot, bool, error) {
	key := c.Today()
	previous, hadPrevious := c.previous(ctx, key)

	snap, err := c.fetchAndStore(ctx, key)
	if err != nil {
		return Snapshot{}, false, err
	}
	changed := !hadPrevious || !previous.Equal(snap.Record)
	return snap, changed, nil
}

// Peek returns the in-memory snapshot without touching the store or the network.
func (c *Cache) Peek() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return Snapshot{}, false
	}
	return *c.current, true
}

// Keys lists the persisted day keys.
func (c *Cache) Keys(ctx context.Context) ([]menu.DayKey, error) {
	return c.store.Keys(ctx)
}

// Wait blocks until background sweeps have finished.
func (c *Cache) Wait() {
	c.background.Wait()
}

func (c *Cache) memory(key menu.DayKey) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil || c.current.Key != key || c.current.Stale {
		return Snapshot{}, false
	}
	return *c.current, true
}

func (c *Cache) remember(snap Snapshot) {
	c.mu.Lock()
	c.current = &snap
	c.mu.Unlock()
}

func (c *Cache) previous(ctx context.Context, key menu.DayKey) (menu.Record, bool) {
	if snap, ok := c.memory(key); ok {
		return snap.Record, true
	}
	rec, err := c.store.Load(ctx, key)
	if err != nil {
		return menu.Record{}, false
	}
	return rec, true
}

// fetchAndStore coalesces concurrent fetches for key, persists the result and
// deletes entries for every other key.
func (c *Cache) fetchAndStore(ctx context.Context, key menu.DayKey) (Snapshot, error) {
	ch := c.group.DoChan(key.String(), func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		rec, err := c.fetcher.Fetch(fetchCtx)
		if err != nil {
			return Snapshot{}, err
		}
		if err := c.store.Save(fetchCtx, key, rec); err != nil {
			logging.WarnWithContext(c.logger, "menu store write failed", "store_write_failed",
				logging.DayKey(key),
				logging.Error(err),
				logging.String(logging.FieldImpact, "menu will be refetched after restart"),
			)
		} else {
			c.deleteOthers(fetchCtx, key)
		}
		snap := Snapshot{Key: key, Record: rec}
		c.remember(snap)
		c.logger.Info("menu cached",
			logging.DayKey(key),
			logging.Int("days", rec.Len()),
			logging.String(logging.FieldEventType, "menu_cached"),
		)
		return snap, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot), nil
	case <-ctx.Done():
		return Snapshot{}, services.Wrap(services.ErrFetch, "datacache", "fetch", "caller gave up", ctx.Err())
	}
}

func (c *Cache) deleteOthers(ctx context.Context, keep menu.DayKey) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		c.logger.Warn("list persisted keys failed", logging.Error(err))
		return
	}
	for _, key := range keys {
		if key == keep {
			continue
		}
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Warn("delete superseded entry failed",
				logging.DayKey(key),
				logging.Error(err),
			)
			continue
		}
		c.logger.Debug("deleted superseded entry", logging.DayKey(key))
	}
}

func (c *Cache) fallback(ctx context.Context, key menu.DayKey, fetchErr error) (Snapshot, error) {
	keys, err := c.store.Keys(ctx)
	if err == nil {
		for i := len(keys) - 1; i >= 0; i-- {
			rec, loadErr := c.store.Load(ctx, keys[i])
			if loadErr != nil {
				continue
			}
			metrics.DataCacheLookups.WithLabelValues("stale").Inc()
			logging.WarnWithContext(c.logger, "serving stale menu", "stale_served",
				logging.DayKey(key),
				logging.String("stale_key", keys[i].String()),
				logging.Error(fetchErr),
				logging.String(logging.FieldImpact, "menu may be out of date"),
			)
			return Snapshot{Key: keys[i], Record: rec, Stale: true}, nil
		}
	}

	metrics.DataCacheLookups.WithLabelValues("unavailable").Inc()
	return Snapshot{}, services.Wrap(services.ErrNoData, "datacache", "get today",
		fmt.Sprintf("no cached menu for %s", key), fetchErr)
}
