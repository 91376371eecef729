package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/site-mirror/pkg/utils"
)

// VisitedRepoImpl implements the VisitedRepository interface with one Redis set per run.
type VisitedRepoImpl struct {
	client *redis.Client
	key    string
	expiry time.Duration
}

// NewVisitedRepo creates a visited set stored under key.
func NewVisitedRepo(client *redis.Client, key string, expiry time.Duration) *VisitedRepoImpl {
	return &VisitedRepoImpl{client: client, key: key, expiry: expiry}
}

// TryClaim adds the URL hash to the set. SADD reports 1 only for the first
// insert, which makes the claim atomic across clients.
func (r *VisitedRepoImpl) TryClaim(ctx context.Context, url string) (bool, error) {
	pipe := r.client.TxPipeline()
	added := pipe.SAdd(ctx, r.key, utils.HashURL(url))
	if r.expiry > 0 {
		pipe.Expire(ctx, r.key, r.expiry)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return added.Val() == 1, nil
}
