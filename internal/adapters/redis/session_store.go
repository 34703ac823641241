package redis

// Package redis provides Redis-backed stores for the admin gateway.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/contentdesk/admin-gateway/internal/ports"
	"github.com/redis/go-redis/v9"
)

// SessionSnapshotStore persists READY session snapshots so sessions survive
// gateway restarts. TTL follows the session's provider-issued expiry.
type SessionSnapshotStore struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionSnapshotStore creates a snapshot store with the default prefix.
func NewSessionSnapshotStore(client redis.UniversalClient) *SessionSnapshotStore {
	return &SessionSnapshotStore{client: client, prefix: "session:"}
}

// NewSessionSnapshotStoreWithPrefix creates a snapshot store with a custom key prefix.
func NewSessionSnapshotStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionSnapshotStore {
	return &SessionSnapshotStore{client: client, prefix: prefix}
}

func (s *SessionSnapshotStore) Save(ctx context.Context, snap ports.SessionSnapshot) error {
	if snap.ID == "" {
		return errors.New("snapshot ID cannot be empty")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	ttl := time.Until(snap.ExpiresAt)
	if ttl <= 0 {
		return errors.New("snapshot is expired")
	}

	return s.client.Set(ctx, s.prefix+snap.ID, data, ttl).Err()
}

func (s *SessionSnapshotStore) Get(ctx context.Context, id string) (ports.SessionSnapshot, error) {
	if id == "" {
		return ports.SessionSnapshot{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.SessionSnapshot{}, ErrNotFound
		}
		return ports.SessionSnapshot{}, fmt.Errorf("redis get: %w", err)
	}

	var snap ports.SessionSnapshot
	if unmarshalErr := json.Unmarshal([]byte(data), &snap); unmarshalErr != nil {
		return ports.SessionSnapshot{}, fmt.Errorf("unmarshal snapshot: %w", unmarshalErr)
	}

	// Redis TTL should have expired this already, but be defensive.
	if time.Now().After(snap.ExpiresAt) {
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return ports.SessionSnapshot{}, fmt.Errorf("cleanup expired snapshot: %w", deleteErr)
		}
		return ports.SessionSnapshot{}, ErrNotFound
	}

	return snap, nil
}

func (s *SessionSnapshotStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+id).Err()
}

// ErrNotFound is returned when a key is not found.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}

var _ ports.SessionSnapshotStore = (*SessionSnapshotStore)(nil)
