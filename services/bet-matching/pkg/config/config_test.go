package config

import (
	"testing"
	"time"

	"github.com/muhammadchandra19/bet-exchange/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bet-matching", cfg.App.Name)
	assert.Equal(t, []string{"localhost:9092"}, cfg.ActionKafka.Brokers)
	assert.Equal(t, "bet-actions", cfg.ActionKafka.Topic)
	assert.Equal(t, 0, cfg.ActionKafka.Partition)
	assert.Equal(t, "bet-executions", cfg.ExecutionKafka.Topic)
	assert.Equal(t, "bet-actions-dead-letter", cfg.DeadLetterKafka.Topic)
	assert.Equal(t, redis.Standalone, cfg.Redis.Mode)
	assert.Equal(t, []string{"localhost:6379"}, cfg.Redis.Addrs)
	assert.Equal(t, int64(1), cfg.Engine.CheckpointOffsetDelta)
	assert.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("ACTION_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("ACTION_KAFKA_PARTITION", "3")
	t.Setenv("EXECUTION_KAFKA_TOPIC", "executions")
	t.Setenv("REDIS_MODE", "cluster")
	t.Setenv("REDIS_ADDRS", "redis-1:6379,redis-2:6379")
	t.Setenv("ENGINE_RETRY_MAX_INTERVAL", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.ActionKafka.Brokers)
	assert.Equal(t, 3, cfg.ActionKafka.Partition)
	assert.Equal(t, "executions", cfg.ExecutionKafka.Topic)
	assert.Equal(t, redis.Cluster, cfg.Redis.Mode)
	assert.Equal(t, []string{"redis-1:6379", "redis-2:6379"}, cfg.Redis.Addrs)
	assert.Equal(t, time.Minute, cfg.Engine.RetryMaxInterval)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("ACTION_KAFKA_PARTITION", "first")

	_, err := Load()
	assert.Error(t, err)
}
