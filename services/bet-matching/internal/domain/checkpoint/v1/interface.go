package checkpointv1

import (
	"context"
	"time"
)

// Checkpoint is the offset of the last action record fully handled on one
// topic partition.
type Checkpoint struct {
	Topic     string    `json:"topic"`
	Partition int       `json:"partition"`
	Offset    int64     `json:"offset"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists the consumer checkpoint.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=checkpointv1_mock
type Store interface {
	Store(ctx context.Context, checkpoint *Checkpoint) error
	// LoadStore returns nil when no checkpoint was stored yet.
	LoadStore(ctx context.Context) (*Checkpoint, error)
}
