package actionreader

import (
	"context"

	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	actionreaderv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/action-reader/v1"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/pkg/config"
	"github.com/segmentio/kafka-go"
)

// Reader consumes one partition of the action topic without a consumer
// group. Progress is tracked by the checkpoint store, not by Kafka.
type Reader struct {
	kafkaReader *kafka.Reader
	logger      logger.Interface
}

var _ actionreaderv1.ActionReader = (*Reader)(nil)

// NewReader creates a new Kafka reader for the configured action partition.
func NewReader(config config.ActionKafkaConfig, log logger.Interface) *Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     config.Brokers,
		Topic:       config.Topic,
		Partition:   config.Partition,
		MinBytes:    config.MinBytes,
		MaxBytes:    config.MaxBytes,
		StartOffset: kafka.FirstOffset,
	})

	return &Reader{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

func (r *Reader) logError(err error, operation string) {
	r.logger.Error(err,
		logger.Field{Key: "operation", Value: operation},
		logger.Field{Key: "topic", Value: r.kafkaReader.Config().Topic},
		logger.Field{Key: "partition", Value: r.kafkaReader.Config().Partition},
	)
}

// SetOffset sets the offset of the next record to read.
func (r *Reader) SetOffset(offset int64) error {
	if err := r.kafkaReader.SetOffset(offset); err != nil {
		r.logError(err, "SetOffset")
		return err
	}
	return nil
}

// ReadMessage reads the next raw record. Decoding is left to the caller so
// that undecodable records can be parked instead of lost.
func (r *Reader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	msg, err := r.kafkaReader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logError(err, "ReadMessage")
		}
		return kafka.Message{}, err
	}

	r.logger.Debug("ReadMessage",
		logger.Field{Key: "offset", Value: msg.Offset},
		logger.Field{Key: "key", Value: string(msg.Key)},
	)

	return msg, nil
}

// Close properly closes the Kafka reader.
func (r *Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logError(err, "Close")
		return err
	}
	return nil
}
