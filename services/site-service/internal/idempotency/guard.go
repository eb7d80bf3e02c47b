// Package idempotency remembers which external events were already handled.
package idempotency

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 24 * time.Hour

// Guard claims event ids with SET NX. A nil client disables deduplication.
type Guard struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewGuard(rdb *redis.Client, prefix string, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	prefix = strings.TrimSuffix(prefix, ":")
	return &Guard{rdb: rdb, prefix: prefix, ttl: ttl}
}

// FirstSeen reports whether id is being claimed for the first time.
// Without Redis every id counts as new.
func (g *Guard) FirstSeen(ctx context.Context, id string) (bool, error) {
	if g == nil || g.rdb == nil {
		return true, nil
	}
	return g.rdb.SetNX(ctx, g.key(id), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
}

// Forget releases a claim so a failed event can be retried by the sender.
func (g *Guard) Forget(ctx context.Context, id string) error {
	if g == nil || g.rdb == nil {
		return nil
	}
	return g.rdb.Del(ctx, g.key(id)).Err()
}

func (g *Guard) key(id string) string {
	return g.prefix + ":" + id
}
