package exchangev1

import (
	"context"

	betv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/bet/v1"
)

// Member is one entry of a sorted set: the stored value and its score.
type Member struct {
	Value string
	Score float64
}

// Store is the minimal keyed sorted-set and key/value contract the order
// book is built on. Members sharing a score are ordered by the store.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=exchangev1_mock
type Store interface {
	Put(ctx context.Context, key string, score float64, member string) error
	PopMin(ctx context.Context, key string) (Member, bool, error)
	PopMax(ctx context.Context, key string) (Member, bool, error)
	RangeByScore(ctx context.Context, key string, min, max float64) ([]Member, error)
	Remove(ctx context.Context, key string, members ...string) error
	// Count returns how many members key holds, zero when it does not exist.
	Count(ctx context.Context, key string) (int64, error)
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Exchange holds one book per (event, team). Callers must be the only
// writer for an event: the take, match and reinsert sequence is not atomic.
type Exchange interface {
	SubmitOrder(ctx context.Context, order betv1.Order) error
	TakeBestOpposing(ctx context.Context, eventID, team string, teamIsHome bool) (betv1.Order, bool, error)
	GetStatus(ctx context.Context, eventID string) (betv1.EventStatus, bool, error)
	CancelOrder(ctx context.Context, order betv1.Order) (betv1.Order, bool, error)
	SetStatus(ctx context.Context, status betv1.EventStatus) error
}
