package cache

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a cache entry doesn't exist or has expired.
var ErrNotFound = errors.New("cache entry not found")

// Store wraps Badger for cache operations.
type Store struct {
	db *badger.DB
}

// OpenStore opens or creates a cache store at the given path.
func OpenStore(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// OpenInMemory opens a store that lives only in memory.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves a cached app by ID.
func (s *Store) Get(appID string) (*CachedApp, error) {
	var entry CachedApp

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(MakeKey(appID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(entry.Decode)
	})

	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Put stores an app. A positive ttl expires the entry.
func (s *Store) Put(entry *CachedApp, ttl time.Duration) error {
	value, err := entry.Encode()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(MakeKey(entry.AppID), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// Delete removes a cached app.
func (s *Store) Delete(appID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(MakeKey(appID))
	})
}

// DeleteAll removes every cached app and returns how many were removed.
func (s *Store) DeleteAll() (int, error) {
	prefix := KeyPrefix()
	n := 0

	err := s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := txn.Delete(it.Item().KeyCopy(nil)); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// Count returns the number of live entries.
func (s *Store) Count() (int, error) {
	prefix := KeyPrefix()
	n := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Size returns the on-disk size of the LSM tree and value log.
func (s *Store) Size() (lsm, vlog int64) {
	return s.db.Size()
}
