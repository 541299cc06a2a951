package deadletterv1

import (
	"context"
	"time"
)

// Entry is an action record that could not be decoded, together with why.
type Entry struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Partition int       `json:"partition"`
	Offset    int64     `json:"offset"`
	Key       string    `json:"key"`
	Code      string    `json:"code"`
	Field     string    `json:"field,omitempty"`
	Error     string    `json:"error"`
	Payload   string    `json:"payload"`
	FailedAt  time.Time `json:"failed_at"`
}

// Publisher parks undecodable records so that consumption can move on.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=deadletterv1_mock
type Publisher interface {
	Publish(ctx context.Context, entry *Entry) error
}
