package executionpublisherv1

import (
	"context"

	betv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/bet/v1"
)

// Publisher delivers execution batches downstream. Batches sharing a
// partition key are delivered in the order they are published.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=executionpublisherv1_mock
type Publisher interface {
	Emit(ctx context.Context, partitionKey string, batch betv1.ExecutionBatch) error
}
