package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// FrontierRepoImpl implements the FrontierRepository interface using a Redis list as a stack.
type FrontierRepoImpl struct {
	client *redis.Client
	key    string
	expiry time.Duration
}

// NewFrontierRepo creates a frontier stored under key.
func NewFrontierRepo(client *redis.Client, key string, expiry time.Duration) *FrontierRepoImpl {
	return &FrontierRepoImpl{client: client, key: key, expiry: expiry}
}

// Push adds a URL to the left side of the list.
func (r *FrontierRepoImpl) Push(ctx context.Context, url string) error {
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key, url)
	if r.expiry > 0 {
		pipe.Expire(ctx, r.key, r.expiry)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Pop removes and returns a URL from the same (left) side, giving LIFO order.
func (r *FrontierRepoImpl) Pop(ctx context.Context) (string, bool, error) {
	url, err := r.client.LPop(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return url, true, nil
}

// Size returns the current number of items in the list.
func (r *FrontierRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, r.key).Result()
}
