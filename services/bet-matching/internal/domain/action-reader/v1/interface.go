package actionreaderv1

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// ActionReader reads raw action records from one partition of the action topic.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=actionreaderv1_mock
type ActionReader interface {
	// ReadMessage blocks until the next record is available or ctx is done.
	ReadMessage(ctx context.Context) (kafka.Message, error)
	// SetOffset positions the reader; the next record read is the one at offset.
	SetOffset(offset int64) error
	// Close closes the reader.
	Close() error
}
