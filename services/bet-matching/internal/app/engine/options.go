package engine

import (
	"time"

	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/pkg/config"
)

// Options holds configuration options for the engine.
type Options struct {
	// CheckpointInterval is how often the checkpoint manager flushes progress.
	CheckpointInterval time.Duration
	// CheckpointOffsetDelta is how many records may be handled before the
	// processor stores a checkpoint itself.
	CheckpointOffsetDelta int64
	// RetryInitialInterval and RetryMaxInterval bound the backoff between
	// attempts of a failing action.
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	// Clock stamps checkpoints and dead-letter entries.
	Clock func() time.Time
}

// DefaultEngineOptions returns default engine options.
func DefaultEngineOptions() *Options {
	return &Options{
		CheckpointInterval:    5 * time.Second,
		CheckpointOffsetDelta: 1,
		RetryInitialInterval:  100 * time.Millisecond,
		RetryMaxInterval:      10 * time.Second,
		Clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// OptionsFromConfig returns the default options overridden by cfg.
func OptionsFromConfig(cfg config.EngineConfig) *Options {
	opts := DefaultEngineOptions()
	if cfg.CheckpointInterval > 0 {
		opts.CheckpointInterval = cfg.CheckpointInterval
	}
	if cfg.CheckpointOffsetDelta > 0 {
		opts.CheckpointOffsetDelta = cfg.CheckpointOffsetDelta
	}
	if cfg.RetryInitialInterval > 0 {
		opts.RetryInitialInterval = cfg.RetryInitialInterval
	}
	if cfg.RetryMaxInterval > 0 {
		opts.RetryMaxInterval = cfg.RetryMaxInterval
	}
	return opts
}
