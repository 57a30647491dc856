package directory

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Client is the subset of the redis client the directory uses.
// *redis.Client satisfies it.
type Client interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
}
