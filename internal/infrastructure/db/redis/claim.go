package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultClaimTTL = time.Minute

// ClaimStore makes sure a request id is handled by a single replica when
// several instances subscribe to the same channels.
// Key format: rpc:claim:<request_id>
type ClaimStore struct {
	client *redis.Client
	owner  string
	ttl    time.Duration
}

// NewClaimStore creates a ClaimStore. owner identifies this replica in the
// stored value; ttl <= 0 selects defaultClaimTTL.
func NewClaimStore(client *redis.Client, owner string, ttl time.Duration) *ClaimStore {
	if ttl <= 0 {
		ttl = defaultClaimTTL
	}
	return &ClaimStore{client: client, owner: owner, ttl: ttl}
}

// Claim reports whether this replica won the request.
func (s *ClaimStore) Claim(ctx context.Context, requestID string) (bool, error) {
	won, err := s.client.SetNX(ctx, s.key(requestID), s.owner, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim request: %w", err)
	}
	return won, nil
}

func (s *ClaimStore) key(requestID string) string {
	return "rpc:claim:" + requestID
}
