// Package bolt persists the dashboard's local state in a single bbolt file:
// the event log snapshot and the user's endpoint preference. It is the
// default store for single-machine deployments, where no external service
// should be required.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/clad-sovereign/clad-dashboard/internal/eventsync"
)

var (
	eventLogBucket    = []byte("event_log")
	preferencesBucket = []byte("preferences")

	snapshotKey = []byte("snapshot")
	endpointKey = []byte("endpoint")
)

// Store is a bbolt-backed local store.
type Store struct {
	db *bbolt.DB
}

var _ eventsync.LogStorage = (*Store)(nil)

// Open opens (creating if needed) the store file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{eventLogBucket, preferencesBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing local store: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the store file.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) LoadSnapshot(ctx context.Context) (eventsync.Snapshot, error) {
	var raw []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(eventLogBucket).Get(snapshotKey); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return eventsync.Snapshot{}, err
	}
	if raw == nil {
		return eventsync.Snapshot{}, eventsync.ErrNoSnapshot
	}

	var snapshot eventsync.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return eventsync.Snapshot{}, fmt.Errorf("decoding persisted event log: %w", err)
	}
	return snapshot, nil
}

func (s *Store) SaveSnapshot(ctx context.Context, snapshot eventsync.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding event log: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(eventLogBucket).Put(snapshotKey, raw)
	})
}

func (s *Store) ClearSnapshot(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(eventLogBucket).Delete(snapshotKey)
	})
}

// SaveEndpoint records the node endpoint to offer on the next start.
func (s *Store) SaveEndpoint(ctx context.Context, endpoint string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(preferencesBucket).Put(endpointKey, []byte(endpoint))
	})
}

// LoadEndpoint returns the recorded endpoint preference, or "" when none has
// been saved.
func (s *Store) LoadEndpoint(ctx context.Context) (string, error) {
	var endpoint string
	err := s.db.View(func(tx *bbolt.Tx) error {
		endpoint = string(tx.Bucket(preferencesBucket).Get(endpointKey))
		return nil
	})
	return endpoint, err
}
