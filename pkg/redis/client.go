package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/muhammadchandra19/bet-exchange/pkg/errors"
	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type client struct {
	logger  logger.Interface
	config  *Config
	cmdable redis.UniversalClient
}

// NewClient creates a new Redis client with the provided logger and configuration.
// The client is unusable until Connect succeeds.
func NewClient(logger logger.Interface, config *Config) Client {
	return &client{
		logger: logger,
		config: config,
	}
}

func (c *client) validate() error {
	switch {
	case c.config == nil:
		return errors.NewErrorDetails("Redis config is nil", string(errors.RedisConfigError), "connect")
	case len(c.config.Addrs) == 0:
		return errors.NewErrorDetails("Redis addresses are empty", string(errors.RedisConfigError), "addrs")
	case c.config.Mode != Standalone && c.config.Mode != Cluster:
		return errors.NewErrorDetails("Invalid Redis mode", string(errors.RedisConfigError), "mode")
	case c.config.ConnectTimeout <= 0:
		return errors.NewErrorDetails("Invalid Redis connect timeout", string(errors.RedisConfigError), "connect_timeout")
	case c.config.PoolSize <= 0:
		return errors.NewErrorDetails("Invalid Redis pool size", string(errors.RedisConfigError), "pool_size")
	case c.config.MaxIdleConns < 0:
		return errors.NewErrorDetails("Invalid Redis max idle connections", string(errors.RedisConfigError), "max_idle_conns")
	case c.config.ConnMaxLifetime <= 0:
		return errors.NewErrorDetails("Invalid Redis connection max lifetime", string(errors.RedisConfigError), "conn_max_lifetime")
	case c.config.ConnMaxIdleTime <= 0:
		return errors.NewErrorDetails("Invalid Redis connection max idle time", string(errors.RedisConfigError), "conn_max_idle_time")
	case c.config.PoolTimeout <= 0:
		return errors.NewErrorDetails("Invalid Redis pool timeout", string(errors.RedisConfigError), "pool_timeout")
	case c.config.MaxRetries < 0:
		return errors.NewErrorDetails("Invalid Redis max retries", string(errors.RedisConfigError), "max_retries")
	case c.config.MinRetryBackoff < 0:
		return errors.NewErrorDetails("Invalid Redis minimum retry backoff", string(errors.RedisConfigError), "min_retry_backoff")
	case c.config.MaxRetryBackoff < 0:
		return errors.NewErrorDetails("Invalid Redis maximum retry backoff", string(errors.RedisConfigError), "max_retry_backoff")
	}
	return nil
}

func (c *client) Connect(ctx context.Context) error {
	if err := c.validate(); err != nil {
		return err
	}

	var cmdable redis.UniversalClient
	switch c.config.Mode {
	case Standalone:
		cmdable = redis.NewClient(&redis.Options{
			Addr:            c.config.Addrs[0],
			Username:        c.config.Username,
			Password:        c.config.Password,
			DB:              c.config.DB,
			MaxRetries:      c.config.MaxRetries,
			MinRetryBackoff: c.config.MinRetryBackoff,
			MaxRetryBackoff: c.config.MaxRetryBackoff,
			DialTimeout:     c.config.ConnectTimeout,
			ReadTimeout:     c.config.ConnectTimeout,
			WriteTimeout:    c.config.ConnectTimeout,
			PoolSize:        c.config.PoolSize,
			MinIdleConns:    c.config.MinIdleConns,
			MaxIdleConns:    c.config.MaxIdleConns,
			ConnMaxLifetime: c.config.ConnMaxLifetime,
			ConnMaxIdleTime: c.config.ConnMaxIdleTime,
			PoolTimeout:     c.config.PoolTimeout,
		})
	case Cluster:
		cmdable = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:           c.config.Addrs,
			Username:        c.config.Username,
			Password:        c.config.Password,
			MaxRetries:      c.config.MaxRetries,
			MinRetryBackoff: c.config.MinRetryBackoff,
			MaxRetryBackoff: c.config.MaxRetryBackoff,
			DialTimeout:     c.config.ConnectTimeout,
			ReadTimeout:     c.config.ConnectTimeout,
			WriteTimeout:    c.config.ConnectTimeout,
			PoolSize:        c.config.PoolSize,
			MinIdleConns:    c.config.MinIdleConns,
			MaxIdleConns:    c.config.MaxIdleConns,
			ConnMaxLifetime: c.config.ConnMaxLifetime,
			ConnMaxIdleTime: c.config.ConnMaxIdleTime,
			PoolTimeout:     c.config.PoolTimeout,
		})
	}

	if err := cmdable.Ping(ctx).Err(); err != nil {
		_ = cmdable.Close()
		return errors.NewErrorDetailsWithCause("Failed to connect to Redis", errors.RedisConnectionError, "connect", err)
	}

	if c.cmdable != nil {
		_ = c.cmdable.Close()
	}
	c.cmdable = cmdable

	return nil
}

// Reconnect retries Connect with exponential backoff until it succeeds, the
// configured attempts run out, or ctx is done.
func (c *client) Reconnect(ctx context.Context) bool {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.MinRetryBackoff
	policy.MaxInterval = c.config.MaxRetryBackoff
	policy.MaxElapsedTime = 0

	attempt := 0
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.config.ReconnectMaxRetries)), ctx)

	err := backoff.RetryNotify(func() error {
		attempt++
		connectCtx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
		return c.Connect(connectCtx)
	}, retry, func(err error, delay time.Duration) {
		c.logger.Warn("Reconnecting to Redis",
			logger.Field{Key: "attempt", Value: attempt},
			logger.Field{Key: "delay", Value: delay},
			logger.Field{Key: "error", Value: err.Error()},
		)
	})
	if err != nil {
		c.logger.Error(errors.TracerFromError(err), logger.Field{Key: "attempts", Value: attempt})
		return false
	}

	c.logger.Info("Reconnected to Redis successfully", logger.Field{Key: "attempt", Value: attempt})
	return true
}

func (c *client) Disconnect(ctx context.Context) error {
	if c.cmdable == nil {
		return nil
	}
	if err := c.cmdable.Close(); err != nil {
		return errors.NewErrorDetailsWithCause("Failed to close Redis client", errors.RedisDisconnectionError, "disconnect", err)
	}
	return nil
}

func (c *client) Ping(ctx context.Context) error {
	if err := c.cmdable.Ping(ctx).Err(); err != nil {
		return errors.NewErrorDetailsWithCause("Failed to ping Redis", errors.RedisPingError, "ping", err)
	}
	return nil
}

func (c *client) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.cmdable.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewErrorDetailsWithCause("Failed to get value from Redis", errors.RedisGetError, key, err)
	}
	return val, true, nil
}

func (c *client) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if err := c.cmdable.Set(ctx, key, value, expiration).Err(); err != nil {
		return errors.NewErrorDetailsWithCause("Failed to set value in Redis", errors.RedisSetError, key, err)
	}
	return nil
}

func (c *client) ZAdd(ctx context.Context, key string, members ...redis.Z) (int64, error) {
	added, err := c.cmdable.ZAdd(ctx, key, members...).Result()
	if err != nil {
		return 0, errors.NewErrorDetailsWithCause("Failed to add members to sorted set in Redis", errors.RedisZAddError, key, err)
	}
	return added, nil
}

func (c *client) ZPopMin(ctx context.Context, key string, count int64) ([]redis.Z, error) {
	members, err := c.cmdable.ZPopMin(ctx, key, count).Result()
	if err != nil && err != redis.Nil {
		return nil, errors.NewErrorDetailsWithCause("Failed to pop min from sorted set in Redis", errors.RedisZPopError, key, err)
	}
	return members, nil
}

func (c *client) ZPopMax(ctx context.Context, key string, count int64) ([]redis.Z, error) {
	members, err := c.cmdable.ZPopMax(ctx, key, count).Result()
	if err != nil && err != redis.Nil {
		return nil, errors.NewErrorDetailsWithCause("Failed to pop max from sorted set in Redis", errors.RedisZPopError, key, err)
	}
	return members, nil
}

func (c *client) ZRangeByScoreWithScores(ctx context.Context, key string, min, max float64) ([]redis.Z, error) {
	members, err := c.cmdable.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min: formatScore(min),
		Max: formatScore(max),
	}).Result()
	if err != nil && err != redis.Nil {
		return nil, errors.NewErrorDetailsWithCause("Failed to range sorted set in Redis", errors.RedisZRangeError, key, err)
	}
	return members, nil
}

func (c *client) ZRem(ctx context.Context, key string, members ...any) (int64, error) {
	removed, err := c.cmdable.ZRem(ctx, key, members...).Result()
	if err != nil {
		return 0, errors.NewErrorDetailsWithCause("Failed to remove members from sorted set in Redis", errors.RedisZRemError, key, err)
	}
	return removed, nil
}

func (c *client) ZCard(ctx context.Context, key string) (int64, error) {
	n, err := c.cmdable.ZCard(ctx, key).Result()
	if err != nil {
		return 0, errors.NewErrorDetailsWithCause("Failed to count sorted set in Redis", errors.RedisZRangeError, key, err)
	}
	return n, nil
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
