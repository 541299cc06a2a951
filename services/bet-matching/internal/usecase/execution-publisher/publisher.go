package executionpublisher

import (
	"context"
	"encoding/json"

	"github.com/muhammadchandra19/bet-exchange/pkg/errors"
	"github.com/muhammadchandra19/bet-exchange/pkg/kafkalib"
	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	betv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/bet/v1"
	executionpublisherv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/execution-publisher/v1"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/pkg/config"
	"github.com/segmentio/kafka-go"
)

// Publisher publishes execution batches to the execution topic, one message
// per batch, keyed by event id so that an event's batches stay ordered.
type Publisher struct {
	kafkaWriter kafkalib.Writer
	logger      logger.Interface
}

var _ executionpublisherv1.Publisher = (*Publisher)(nil)

// NewPublisher creates a new Kafka publisher for execution batches.
func NewPublisher(config config.ExecutionKafkaConfig, logger logger.Interface) *Publisher {
	return NewPublisherWithWriter(kafkalib.NewWriter(config.Brokers, config.Topic, config.WriteTimeout), logger)
}

// NewPublisherWithWriter creates a Publisher over an existing writer.
func NewPublisherWithWriter(writer kafkalib.Writer, logger logger.Interface) *Publisher {
	return &Publisher{
		kafkaWriter: writer,
		logger:      logger,
	}
}

// Emit publishes batch under partitionKey.
func (p *Publisher) Emit(ctx context.Context, partitionKey string, batch betv1.ExecutionBatch) error {
	buf, err := json.Marshal(batch)
	if err != nil {
		return errors.Trace("execution_marshal_error", err)
	}

	msg := kafka.Message{
		Key:   []byte(partitionKey),
		Value: buf,
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, err,
			logger.Field{Key: "action", Value: "publish_execution"},
			logger.Field{Key: "partition_key", Value: partitionKey},
		)
		return errors.NewErrorDetailsWithCause("failed to publish execution batch", errors.ExecutionPublishError, partitionKey, err)
	}

	p.logger.DebugContext(ctx, "Execution batch published",
		logger.Field{Key: "partition_key", Value: partitionKey},
		logger.Field{Key: "records", Value: len(batch.Bets)},
	)
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}
