// Package matcher applies inbound actions to the per-event books.
//
// A Matcher holds no state of its own, but the books it works on are shared:
// every action of one event must be handled by a single caller, one action at
// a time. Partitioning the inbound stream by event id provides that.
package matcher

import (
	"context"
	"time"

	"github.com/muhammadchandra19/bet-exchange/pkg/errors"
	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	"github.com/muhammadchandra19/bet-exchange/pkg/util"
	betv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/bet/v1"
	exchangev1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/exchange/v1"
	executionpublisherv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/execution-publisher/v1"
)

// Matcher dispatches actions to their handlers.
type Matcher struct {
	exchange  exchangev1.Exchange
	publisher executionpublisherv1.Publisher
	logger    logger.Interface
	now       func() time.Time
}

// NewMatcher creates a new Matcher.
func NewMatcher(
	exchange exchangev1.Exchange,
	publisher executionpublisherv1.Publisher,
	logger logger.Interface,
	opts ...Option,
) *Matcher {
	m := &Matcher{
		exchange:  exchange,
		publisher: publisher,
		logger:    logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle applies one action. A failure that leaves the books as they were is
// returned as is and the action may be handled again. A failure after the books
// changed is returned as an *IncompleteError, which says how to finish the
// action; handling the action again would apply it twice.
func (m *Matcher) Handle(ctx context.Context, action betv1.Action) (Result, error) {
	ctx = util.WithEventID(ctx, action.Event())

	switch a := action.(type) {
	case *betv1.LimitBet:
		return m.handleLimitBet(ctx, a)
	case *betv1.MarketBet:
		return m.handleMarketBet(ctx, a)
	case *betv1.InactiveEvent:
		return m.handleInactiveEvent(ctx, a)
	case *betv1.CancelBet:
		return m.handleCancelBet(ctx, a)
	default:
		m.logger.WarnContext(ctx, "No valid matching action", logger.NewField("action", action.Kind()))
		return Result{Action: action.Kind(), Outcome: OutcomeDropped}, nil
	}
}

// resolveSides returns the side roles of order within its event. ok is false
// when the order must not be matched: the event is unknown, inactive, or does
// not involve order's team.
func (m *Matcher) resolveSides(ctx context.Context, order betv1.Order) (isHome bool, opposing string, ok bool, err error) {
	status, found, err := m.exchange.GetStatus(ctx, order.EventID)
	if err != nil {
		return false, "", false, err
	}

	if !found {
		m.logger.DebugContext(ctx, "Status details do not exist")
		return false, "", false, nil
	}
	if !status.IsActive() {
		m.logger.DebugContext(ctx, "Event is not active", logger.NewField("status", status.Status))
		return false, "", false, nil
	}

	isHome, opposing, ok = status.Sides(order.Side)
	if !ok {
		m.logger.WarnContext(ctx, "Order is on a team outside the event",
			logger.NewField("on_team_abbrev", order.Side),
			logger.NewField("home_team_abbrev", status.HomeTeamAbbrev),
			logger.NewField("away_team_abbrev", status.AwayTeamAbbrev),
		)
	}
	return isHome, opposing, ok, nil
}

// reject reports order as cancelled without touching any book.
func (m *Matcher) reject(ctx context.Context, kind betv1.ActionKind, order betv1.Order) (Result, error) {
	batch := betv1.NewSingleBatch(m.now(), order, betv1.StatusCancelled)
	if _, err := m.emit(ctx, batch); err != nil {
		return Result{}, err
	}
	return Result{Action: kind, Outcome: OutcomeCancelled, Batches: []betv1.ExecutionBatch{batch}}, nil
}

// emit publishes batches in order and returns how many were published.
func (m *Matcher) emit(ctx context.Context, batches ...betv1.ExecutionBatch) (int, error) {
	for i, batch := range batches {
		if err := m.publisher.Emit(ctx, batch.EventID, batch); err != nil {
			return i, errors.Trace("execution_emit_error", err)
		}
	}
	return len(batches), nil
}

// publish emits the batches of an action that has already changed the books.
func (m *Matcher) publish(ctx context.Context, kind betv1.ActionKind, batches []betv1.ExecutionBatch) error {
	n, err := m.emit(ctx, batches...)
	if err != nil {
		return &IncompleteError{Action: kind, Emitted: batches[:n], Pending: batches[n:], Cause: err}
	}
	return nil
}

// interrupted reports a failure part way through an action. When nothing was
// emitted, queued or lost the books are unchanged and cause is returned as is.
func interrupted(kind betv1.ActionKind, pending []betv1.ExecutionBatch, resume betv1.Action, lost []betv1.Order, cause error) error {
	if len(pending) == 0 && len(lost) == 0 {
		return cause
	}
	return &IncompleteError{Action: kind, Pending: pending, Resume: resume, Lost: lost, Cause: cause}
}
