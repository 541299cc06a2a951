package exchange

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/muhammadchandra19/bet-exchange/pkg/errors"
	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	betv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/bet/v1"
	exchangev1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/exchange/v1"
)

// Exchange keeps one price-ordered book per (event, team) and the status of
// each event on top of a Store.
type Exchange struct {
	store  exchangev1.Store
	logger logger.Interface
}

var _ exchangev1.Exchange = (*Exchange)(nil)

// NewExchange creates a new Exchange over store.
func NewExchange(store exchangev1.Store, logger logger.Interface) *Exchange {
	return &Exchange{
		store:  store,
		logger: logger,
	}
}

// BookKey is the store key of the book holding orders on team for eventID.
func BookKey(eventID, team string) string {
	return fmt.Sprintf("pq:%s:%s", eventID, team)
}

// StatusKey is the store key of an event's status.
func StatusKey(eventID string) string {
	return fmt.Sprintf("event:%s", eventID)
}

// SubmitOrder rests order on its team's book, scored by its price.
func (e *Exchange) SubmitOrder(ctx context.Context, order betv1.Order) error {
	if order.Depleted() {
		return errors.NewErrorDetails(
			fmt.Sprintf("order %d has no remaining amount", order.BetID),
			string(errors.InvalidOrderAmount), "amount")
	}

	member, err := order.Marshal()
	if err != nil {
		return errors.Trace("order_marshal_error", err)
	}

	if err := e.store.Put(ctx, BookKey(order.EventID, order.Side), float64(order.Price), member); err != nil {
		return errors.Trace("order_submit_error", err)
	}
	return nil
}

// TakeBestOpposing removes and returns the best priced order on team's book.
// The home book is taken from its lowest price, the away book from its
// highest. Entries that no longer decode are discarded and logged.
func (e *Exchange) TakeBestOpposing(ctx context.Context, eventID, team string, teamIsHome bool) (betv1.Order, bool, error) {
	key := BookKey(eventID, team)
	pop := e.store.PopMax
	if teamIsHome {
		pop = e.store.PopMin
	}

	for {
		member, found, err := pop(ctx, key)
		if err != nil {
			return betv1.Order{}, false, errors.Trace("order_take_error", err)
		}
		if !found {
			return betv1.Order{}, false, nil
		}

		order, err := betv1.UnmarshalOrder(member.Value)
		if err != nil {
			e.logCorrupt(ctx, key, member, err)
			continue
		}
		return order, true, nil
	}
}

// GetStatus reads the status of eventID. found is false when none was ever written.
func (e *Exchange) GetStatus(ctx context.Context, eventID string) (betv1.EventStatus, bool, error) {
	value, found, err := e.store.Get(ctx, StatusKey(eventID))
	if err != nil {
		return betv1.EventStatus{}, false, errors.Trace("event_status_get_error", err)
	}
	if !found {
		return betv1.EventStatus{}, false, nil
	}

	var status betv1.EventStatus
	if err := json.Unmarshal([]byte(value), &status); err != nil {
		return betv1.EventStatus{}, false, errors.NewErrorDetailsWithCause(
			fmt.Sprintf("event status of %s is not decodable", eventID),
			errors.CorruptBookEntry, StatusKey(eventID), err)
	}
	status.EventID = eventID
	return status, true, nil
}

// SetStatus writes the status of an event.
func (e *Exchange) SetStatus(ctx context.Context, status betv1.EventStatus) error {
	buf, err := json.Marshal(betv1.EventStatus{
		Status:         status.Status,
		HomeTeamAbbrev: status.HomeTeamAbbrev,
		AwayTeamAbbrev: status.AwayTeamAbbrev,
	})
	if err != nil {
		return errors.Trace("event_status_marshal_error", err)
	}

	if err := e.store.Set(ctx, StatusKey(status.EventID), string(buf)); err != nil {
		return errors.Trace("event_status_set_error", err)
	}
	return nil
}

// CancelOrder removes the resting order matching order's bet id from the book
// of order's team, looking only at entries priced exactly at order's price.
// The removed order is returned as it was stored.
func (e *Exchange) CancelOrder(ctx context.Context, order betv1.Order) (betv1.Order, bool, error) {
	key := BookKey(order.EventID, order.Side)
	price := float64(order.Price)

	members, err := e.store.RangeByScore(ctx, key, price, price)
	if err != nil {
		return betv1.Order{}, false, errors.Trace("order_lookup_error", err)
	}

	for _, member := range members {
		resting, err := betv1.UnmarshalOrder(member.Value)
		if err != nil {
			e.logCorrupt(ctx, key, member, err)
			continue
		}
		if resting.BetID != order.BetID {
			continue
		}

		if err := e.store.Remove(ctx, key, member.Value); err != nil {
			return betv1.Order{}, false, errors.Trace("order_cancel_error", err)
		}
		return resting, true, nil
	}

	return betv1.Order{}, false, nil
}

// BookDepth returns how many orders rest on team's book for eventID.
func (e *Exchange) BookDepth(ctx context.Context, eventID, team string) (int64, error) {
	n, err := e.store.Count(ctx, BookKey(eventID, team))
	if err != nil {
		return 0, errors.Trace("book_depth_error", err)
	}
	return n, nil
}

func (e *Exchange) logCorrupt(ctx context.Context, key string, member exchangev1.Member, err error) {
	e.logger.ErrorContext(ctx,
		errors.NewErrorDetailsWithCause("undecodable book entry", errors.CorruptBookEntry, key, err),
		logger.NewField("book", key),
		logger.NewField("member", member.Value),
	)
}
