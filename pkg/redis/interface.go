package redis

import (
	"context"
	"time"

	v9 "github.com/redis/go-redis/v9"
)

// Client defines the interface for a Redis client.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=redis_mock
type Client interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error
	Reconnect(ctx context.Context) bool

	// Get returns the value stored at key; found is false when the key does not exist.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error

	ZAdd(ctx context.Context, key string, members ...v9.Z) (int64, error)
	ZPopMin(ctx context.Context, key string, count int64) ([]v9.Z, error)
	ZPopMax(ctx context.Context, key string, count int64) ([]v9.Z, error)
	ZRangeByScoreWithScores(ctx context.Context, key string, min, max float64) ([]v9.Z, error)
	ZRem(ctx context.Context, key string, members ...any) (int64, error)
	ZCard(ctx context.Context, key string) (int64, error)
}
