package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/site-mirror/internal/repository"
)

const (
	keyPrefix = "mirror:"

	// Keys outlive a crashed run by at most this long.
	defaultStateExpiry = 24 * time.Hour
)

// RunStateStoreImpl keeps each run's visited set and frontier in Redis.
type RunStateStoreImpl struct {
	client *redis.Client
	expiry time.Duration
}

// NewRunStateStore creates a Redis-backed run state store.
func NewRunStateStore(client *redis.Client) *RunStateStoreImpl {
	return &RunStateStoreImpl{client: client, expiry: defaultStateExpiry}
}

func visitedKey(runID string) string  { return fmt.Sprintf("%s%s:visited", keyPrefix, runID) }
func frontierKey(runID string) string { return fmt.Sprintf("%s%s:frontier", keyPrefix, runID) }

// Open clears any leftovers for runID and returns fresh state.
func (s *RunStateStoreImpl) Open(ctx context.Context, runID string) (repository.VisitedRepository, repository.FrontierRepository, error) {
	if err := s.Discard(ctx, runID); err != nil {
		return nil, nil, fmt.Errorf("reset run state %s: %w", runID, err)
	}
	return NewVisitedRepo(s.client, visitedKey(runID), s.expiry),
		NewFrontierRepo(s.client, frontierKey(runID), s.expiry),
		nil
}

// Discard deletes both keys of runID.
func (s *RunStateStoreImpl) Discard(ctx context.Context, runID string) error {
	return s.client.Del(ctx, visitedKey(runID), frontierKey(runID)).Err()
}
