package deadletter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/muhammadchandra19/bet-exchange/pkg/errors"
	"github.com/muhammadchandra19/bet-exchange/pkg/kafkalib"
	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	deadletterv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/dead-letter/v1"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/pkg/config"
	"github.com/oklog/ulid/v2"
	"github.com/segmentio/kafka-go"
)

// Publisher writes dead-letter entries to the dead-letter topic.
type Publisher struct {
	kafkaWriter kafkalib.Writer
	logger      logger.Interface
}

var _ deadletterv1.Publisher = (*Publisher)(nil)

// NewPublisher creates a new Kafka publisher for dead-letter entries.
func NewPublisher(config config.DeadLetterKafkaConfig, logger logger.Interface) *Publisher {
	return NewPublisherWithWriter(kafkalib.NewWriter(config.Brokers, config.Topic, config.WriteTimeout), logger)
}

// NewPublisherWithWriter creates a Publisher over an existing writer.
func NewPublisherWithWriter(writer kafkalib.Writer, logger logger.Interface) *Publisher {
	return &Publisher{
		kafkaWriter: writer,
		logger:      logger,
	}
}

// NewEntry describes why msg could not be handled.
func NewEntry(msg kafka.Message, cause error, at time.Time) *deadletterv1.Entry {
	entry := &deadletterv1.Entry{
		ID:        ulid.Make().String(),
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       string(msg.Key),
		Code:      string(errors.GeneralInternalServerError),
		Error:     cause.Error(),
		Payload:   string(msg.Value),
		FailedAt:  at,
	}

	if details, ok := errors.DetailsOf(cause); ok {
		entry.Code = details.Code
		entry.Field = details.Field
	}
	return entry
}

// Publish writes entry keyed by its record key.
func (p *Publisher) Publish(ctx context.Context, entry *deadletterv1.Entry) error {
	buf, err := json.Marshal(entry)
	if err != nil {
		return errors.Trace("dead_letter_marshal_error", err)
	}

	msg := kafka.Message{
		Key:   []byte(entry.Key),
		Value: buf,
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, err,
			logger.Field{Key: "action", Value: "publish_dead_letter"},
			logger.Field{Key: "offset", Value: entry.Offset},
		)
		return errors.NewErrorDetailsWithCause("failed to publish dead-letter entry", errors.DeadLetterPublishError, entry.ID, err)
	}

	p.logger.WarnContext(ctx, "Action parked on dead-letter topic",
		logger.Field{Key: "id", Value: entry.ID},
		logger.Field{Key: "offset", Value: entry.Offset},
		logger.Field{Key: "code", Value: entry.Code},
		logger.Field{Key: "field", Value: entry.Field},
	)
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}
