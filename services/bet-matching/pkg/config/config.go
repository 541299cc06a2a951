package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/muhammadchandra19/bet-exchange/pkg/redis"
)

// Config represents the bet-matching service configuration.
type Config struct {
	App             AppConfig             `envPrefix:"APP_"`
	ActionKafka     ActionKafkaConfig     `envPrefix:"ACTION_KAFKA_"`
	ExecutionKafka  ExecutionKafkaConfig  `envPrefix:"EXECUTION_KAFKA_"`
	DeadLetterKafka DeadLetterKafkaConfig `envPrefix:"DEAD_LETTER_KAFKA_"`
	Redis           redis.Config          `envPrefix:"REDIS_"`
	Engine          EngineConfig          `envPrefix:"ENGINE_"`
}

// AppConfig represents the process configuration.
type AppConfig struct {
	Name            string        `env:"NAME" envDefault:"bet-matching"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	MetricsPort     int           `env:"METRICS_PORT" envDefault:"9090"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// ActionKafkaConfig represents the inbound action topic. One instance
// consumes exactly one partition.
type ActionKafkaConfig struct {
	Brokers   []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic     string   `env:"TOPIC" envDefault:"bet-actions"`
	Partition int      `env:"PARTITION" envDefault:"0"`
	MinBytes  int      `env:"MIN_BYTES" envDefault:"1"`
	MaxBytes  int      `env:"MAX_BYTES" envDefault:"10000000"`
}

// ExecutionKafkaConfig represents the outbound execution topic.
type ExecutionKafkaConfig struct {
	Brokers      []string      `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic        string        `env:"TOPIC" envDefault:"bet-executions"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
}

// DeadLetterKafkaConfig represents the topic undecodable actions are parked on.
type DeadLetterKafkaConfig struct {
	Brokers      []string      `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic        string        `env:"TOPIC" envDefault:"bet-actions-dead-letter"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
}

// EngineConfig represents the consumption loop tuning.
type EngineConfig struct {
	CheckpointInterval    time.Duration `env:"CHECKPOINT_INTERVAL" envDefault:"5s"`
	CheckpointOffsetDelta int64         `env:"CHECKPOINT_OFFSET_DELTA" envDefault:"1"`
	RetryInitialInterval  time.Duration `env:"RETRY_INITIAL_INTERVAL" envDefault:"100ms"`
	RetryMaxInterval      time.Duration `env:"RETRY_MAX_INTERVAL" envDefault:"10s"`
}

// Load loads the configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}
