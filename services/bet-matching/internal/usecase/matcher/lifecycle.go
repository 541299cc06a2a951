package matcher

import (
	"context"

	"github.com/muhammadchandra19/bet-exchange/pkg/errors"
	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	betv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/bet/v1"
)

// handleInactiveEvent purges the home book and then the away book, reporting
// every resting order as cancelled, and finishes with the event-closed batch.
// A failed purge may be retried by handling the event again: orders already
// purged are gone and their cancellations are out.
func (m *Matcher) handleInactiveEvent(ctx context.Context, event *betv1.InactiveEvent) (Result, error) {
	_, found, err := m.exchange.GetStatus(ctx, event.EventID)
	switch {
	case errors.HasCode(err, errors.CorruptBookEntry):
		m.logger.WarnContext(ctx, "Purging event with undecodable status", logger.NewField("error", err.Error()))
	case err != nil:
		return Result{}, errors.Trace("inactive_event_status_error", err)
	case !found:
		m.logger.WarnContext(ctx, "No event details for handling inactive event")
	default:
		m.logger.InfoContext(ctx, "Handling inactive event")
	}

	var batches []betv1.ExecutionBatch
	books := []struct {
		team   string
		isHome bool
	}{
		{team: event.HomeTeamAbbrev, isHome: true},
		{team: event.AwayTeamAbbrev, isHome: false},
	}

	for _, book := range books {
		for {
			order, found, err := m.exchange.TakeBestOpposing(ctx, event.EventID, book.team, book.isHome)
			if err != nil {
				return Result{}, errors.Trace("inactive_event_purge_error", err)
			}
			if !found {
				break
			}

			batch := betv1.NewSingleBatch(m.now(), order, betv1.StatusCancelled)
			batch.Sport = event.Sport
			if _, err := m.emit(ctx, batch); err != nil {
				// The order is off its book. Once its cancellation is out,
				// handling the event again purges the rest.
				return Result{}, &IncompleteError{
					Action:  event.Kind(),
					Emitted: batches,
					Pending: []betv1.ExecutionBatch{batch},
					Resume:  event,
					Cause:   err,
				}
			}
			batches = append(batches, batch)
		}
	}

	closed := betv1.NewEventClosedBatch(m.now(), event.EventID, event.Sport, event.WinningTeamAbbrev)
	if _, err := m.emit(ctx, closed); err != nil {
		return Result{}, &IncompleteError{
			Action:  event.Kind(),
			Emitted: batches,
			Pending: []betv1.ExecutionBatch{closed},
			Cause:   err,
		}
	}
	batches = append(batches, closed)

	m.logger.InfoContext(ctx, "Event closed", logger.NewField("cancelled", len(batches)-1))
	return Result{Action: event.Kind(), Outcome: OutcomeExpired, Batches: batches}, nil
}

// handleCancelBet removes the bet from its book. A bet that is not resting,
// because it never existed, was filled or was already cancelled, is a no-op.
func (m *Matcher) handleCancelBet(ctx context.Context, bet *betv1.CancelBet) (Result, error) {
	removed, found, err := m.exchange.CancelOrder(ctx, bet.Order())
	if err != nil {
		return Result{}, errors.Trace("cancel_bet_error", err)
	}
	if !found {
		m.logger.DebugContext(ctx, "Bet to cancel is not resting", logger.NewField("bet_id", *bet.BetID))
		return Result{Action: bet.Kind(), Outcome: OutcomeNoop}, nil
	}

	batch := betv1.NewSingleBatch(m.now(), removed, betv1.StatusCancelled)
	batch.Sport = bet.Sport
	if err := m.publish(ctx, bet.Kind(), []betv1.ExecutionBatch{batch}); err != nil {
		return Result{}, err
	}
	return Result{Action: bet.Kind(), Outcome: OutcomeCancelled, Batches: []betv1.ExecutionBatch{batch}}, nil
}
