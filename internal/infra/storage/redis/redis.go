// Package redis persists the dashboard's local state in Redis, for
// deployments where several dashboard instances share one synchronized event
// log. It implements the same ports as the bbolt store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/clad-sovereign/clad-dashboard/internal/eventsync"
)

const (
	snapshotKey = "claddash:event_log:snapshot"
	endpointKey = "claddash:preferences:endpoint"
)

// Store is a Redis-backed local store.
type Store struct {
	client *goredis.Client
}

var _ eventsync.LogStorage = (*Store)(nil)

// New builds a store over an established Redis client.
func New(client *goredis.Client) *Store {
	return &Store{client: client}
}

// Connect dials Redis and verifies the connection with a ping.
func Connect(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return New(client), nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) LoadSnapshot(ctx context.Context) (eventsync.Snapshot, error) {
	raw, err := s.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return eventsync.Snapshot{}, eventsync.ErrNoSnapshot
	}
	if err != nil {
		return eventsync.Snapshot{}, err
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
	return s.client.Set(ctx, snapshotKey, raw, 0).Err()
}

func (s *Store) ClearSnapshot(ctx context.Context) error {
	return s.client.Del(ctx, snapshotKey).Err()
}

// SaveEndpoint records the node endpoint to offer on the next start.
func (s *Store) SaveEndpoint(ctx context.Context, endpoint string) error {
	return s.client.Set(ctx, endpointKey, endpoint, 0).Err()
}

// LoadEndpoint returns the recorded endpoint preference, or "" when none has
// been saved.
func (s *Store) LoadEndpoint(ctx context.Context) (string, error) {
	endpoint, err := s.client.Get(ctx, endpointKey).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	return endpoint, err
}
