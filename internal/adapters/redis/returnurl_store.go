package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/contentdesk/admin-gateway/internal/ports"
	"github.com/redis/go-redis/v9"
)

// returnURLTTL bounds how long a pending login may take before its intended
// destination is forgotten.
const returnURLTTL = 10 * time.Minute

// ReturnURLStore persists the pending post-login destination, keyed by the
// OAuth state of the login attempt. The "return_url:" prefix keeps the key
// space distinct from session snapshots and anything else in Redis.
type ReturnURLStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewReturnURLStore creates a return URL store with the default prefix and TTL.
func NewReturnURLStore(client redis.UniversalClient) *ReturnURLStore {
	return &ReturnURLStore{client: client, prefix: "return_url:", ttl: returnURLTTL}
}

func (s *ReturnURLStore) Save(ctx context.Context, state, returnURL string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	return s.client.Set(ctx, s.prefix+state, returnURL, s.ttl).Err()
}

// Take reads and deletes the entry in one step, so a return URL is consumed
// at most once.
func (s *ReturnURLStore) Take(ctx context.Context, state string) (string, error) {
	if state == "" {
		return "", ErrNotFound
	}
	val, err := s.client.GetDel(ctx, s.prefix+state).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("redis getdel: %w", err)
	}
	return val, nil
}

func (s *ReturnURLStore) Delete(ctx context.Context, state string) error {
	if state == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+state).Err()
}

var _ ports.ReturnURLStore = (*ReturnURLStore)(nil)
