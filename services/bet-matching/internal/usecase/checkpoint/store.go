package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/muhammadchandra19/bet-exchange/pkg/errors"
	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	"github.com/muhammadchandra19/bet-exchange/pkg/redis"
	checkpointv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/checkpoint/v1"
)

// Store keeps the consumer checkpoint of one topic partition in Redis.
type Store struct {
	key         string
	logger      logger.Interface
	redisclient redis.Client
}

var _ checkpointv1.Store = (*Store)(nil)

// Key is the Redis key of the checkpoint of topic's partition.
func Key(topic string, partition int) string {
	return fmt.Sprintf("checkpoint:%s:%d", topic, partition)
}

// NewCheckpointStore creates a new Store for topic's partition.
func NewCheckpointStore(redisclient redis.Client, topic string, partition int, logger logger.Interface) *Store {
	return &Store{
		key:         Key(topic, partition),
		redisclient: redisclient,
		logger:      logger,
	}
}

// Store stores the checkpoint in Redis.
func (s *Store) Store(ctx context.Context, checkpoint *checkpointv1.Checkpoint) error {
	buf, err := json.Marshal(checkpoint)
	if err != nil {
		return errors.NewTracer("checkpoint_marshal_error").Wrap(err)
	}

	if err := s.redisclient.Set(ctx, s.key, buf, 0); err != nil {
		s.logger.ErrorContext(ctx, err,
			logger.Field{Key: "key", Value: s.key},
			logger.Field{Key: "offset", Value: checkpoint.Offset},
		)
		return errors.NewErrorDetailsWithCause("failed to store checkpoint", errors.CheckpointError, s.key, err)
	}

	s.logger.DebugContext(ctx, "Checkpoint stored",
		logger.Field{Key: "key", Value: s.key},
		logger.Field{Key: "offset", Value: checkpoint.Offset},
	)
	return nil
}

// LoadStore loads the checkpoint from Redis.
func (s *Store) LoadStore(ctx context.Context) (*checkpointv1.Checkpoint, error) {
	data, found, err := s.redisclient.Get(ctx, s.key)
	if err != nil {
		s.logger.ErrorContext(ctx, err,
			logger.Field{Key: "key", Value: s.key},
			logger.Field{Key: "action", Value: "load checkpoint"},
		)
		return nil, errors.NewErrorDetailsWithCause("failed to load checkpoint", errors.CheckpointError, s.key, err)
	}
	if !found {
		s.logger.Info("No checkpoint found", logger.Field{Key: "key", Value: s.key})
		return nil, nil
	}

	var checkpoint checkpointv1.Checkpoint
	if err := json.Unmarshal([]byte(data), &checkpoint); err != nil {
		return nil, errors.NewErrorDetailsWithCause("checkpoint is not decodable", errors.CheckpointError, s.key, err)
	}

	s.logger.Info("Checkpoint loaded",
		logger.Field{Key: "key", Value: s.key},
		logger.Field{Key: "offset", Value: checkpoint.Offset},
	)
	return &checkpoint, nil
}
