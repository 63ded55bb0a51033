package menustore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"ruokalista/internal/menu"
)

const badgerKeyPrefix = "menu:"

// BadgerStore persists entries in an embedded Badger key-value store.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger database under dir/badger.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(filepath.Join(dir, "badger")).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStore wraps an already opened database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func badgerKey(key menu.DayKey) []byte {
	return []byte(badgerKeyPrefix + key.String())
}

func (s *BadgerStore) Load(_ context.Context, key menu.DayKey) (menu.Record, error) {
	var rec menu.Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get entry %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			decoded, err := decodeEntry(key, val)
			if err != nil {
				return err
			}
			rec = decoded
			return nil
		})
	})
	return rec, err
}

func (s *BadgerStore) Save(_ context.Context, key menu.DayKey, rec menu.Record) error {
	data, err := encodeEntry(key, rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(badgerKey(key), data); err != nil {
			return fmt.Errorf("set entry %s: %w", key, err)
		}
		return nil
	})
}

func (s *BadgerStore) Delete(_ context.Context, key menu.DayKey) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(badgerKey(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete entry %s: %w", key, err)
		}
		return nil
	})
}

func (s *BadgerStore) Keys(_ context.Context) ([]menu.DayKey, error) {
	var keys []menu.DayKey
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(badgerKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw := strings.TrimPrefix(string(it.Item().Key()), badgerKeyPrefix)
			keys = append(keys, menu.DayKey(raw))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return sortKeys(keys), nil
}

func (s *BadgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
