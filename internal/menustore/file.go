package menustore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ruokalista/internal/fileutil"
	"ruokalista/internal/menu"
)

const (
	filePrefix = "menu-"
	fileSuffix = ".json"
)

// FileStore keeps one JSON file per day key in a directory.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// OpenFile returns a file-backed store rooted at dir.
func OpenFile(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key menu.DayKey) string {
	return filepath.Join(s.dir, filePrefix+key.String()+fileSuffix)
}

func (s *FileStore) Load(_ context.Context, key menu.DayKey) (menu.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return menu.Record{}, ErrNotFound
	}
	if err != nil {
		return menu.Record{}, fmt.Errorf("read entry %s: %w", key, err)
	}
	return decodeEntry(key, data)
}

func (s *FileStore) Save(_ context.Context, key menu.DayKey, rec menu.Record) error {
	data, err := encodeEntry(key, rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fileutil.WriteFileAtomic(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("write entry %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key menu.DayKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete entry %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Keys(_ context.Context) ([]menu.DayKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list store directory: %w", err)
	}
	keys := make([]menu.DayKey, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		key, err := menu.ParseDayKey(strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return sortKeys(keys), nil
}

func (s *FileStore) Close() error { return nil }
