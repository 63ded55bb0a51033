package menustore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"ruokalista/internal/config"
	"ruokalista/internal/menu"
)

// ErrNotFound reports that no entry exists for a day key.
var ErrNotFound = errors.New("menu entry not found")

// Store persists menu records keyed by day. Implementations must be safe for
// concurrent use.
type Store interface {
	Load(ctx context.Context, key menu.DayKey) (menu.Record, error)
	Save(ctx context.Context, key menu.DayKey, rec menu.Record) error
	Delete(ctx context.Context, key menu.DayKey) error
	// Keys returns every persisted key in ascending date order.
	Keys(ctx context.Context) ([]menu.DayKey, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Open constructs the configured backend rooted at cfg.DataDir().
func Open(cfg *config.Config) (Store, error) {
	dir := cfg.DataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}
	switch cfg.Storage.Backend {
	case BackendFile, "":
		return OpenFile(dir)
	case BackendSQLite:
		return OpenSQLite(dir)
	case BackendBadger:
		return OpenBadger(dir)
	default:
		return nil, fmt.Errorf("storage backend %q: %w", cfg.Storage.Backend, errors.ErrUnsupported)
	}
}

// storedEntry is the persisted JSON shape. Food uses the same column layout
// as the HTTP API.
type storedEntry struct {
	Key       string       `json:"key"`
	FetchedAt time.Time    `json:"fetched_at"`
	Source    string       `json:"source,omitempty"`
	Food      menu.Columns `json:"food"`
}

func encodeEntry(key menu.DayKey, rec menu.Record) ([]byte, error) {
	data, err := json.Marshal(storedEntry{
		Key:       key.String(),
		FetchedAt: rec.FetchedAt,
		Source:    rec.Source,
		Food:      rec.Columns(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode entry %s: %w", key, err)
	}
	return data, nil
}

func decodeEntry(key menu.DayKey, data []byte) (menu.Record, error) {
	var entry storedEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return menu.Record{}, fmt.Errorf("decode entry %s: %w", key, err)
	}
	rec := menu.FromColumns(entry.Food)
	rec.FetchedAt = entry.FetchedAt
	rec.Source = entry.Source
	return rec, nil
}

func sortKeys(keys []menu.DayKey) []menu.DayKey {
	slices.Sort(keys)
	return keys
}
