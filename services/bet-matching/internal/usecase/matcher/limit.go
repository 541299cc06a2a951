package matcher

import (
	"context"

	"github.com/muhammadchandra19/bet-exchange/pkg/errors"
	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	betv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/bet/v1"
)

// handleLimitBet matches the bet against the opposing book for as long as the
// best opposing order is acceptable, then rests whatever is left.
func (m *Matcher) handleLimitBet(ctx context.Context, bet *betv1.LimitBet) (Result, error) {
	order := bet.Order()

	isHome, opposing, ok, err := m.resolveSides(ctx, order)
	if err != nil {
		return Result{}, errors.Trace("limit_bet_status_error", err)
	}
	if !ok {
		return m.reject(ctx, bet.Kind(), order)
	}

	working := order
	var batches []betv1.ExecutionBatch

	for !working.Depleted() {
		candidate, found, err := m.exchange.TakeBestOpposing(ctx, order.EventID, opposing, !isHome)
		if err != nil {
			return Result{}, interrupted(bet.Kind(), batches, remainder(working), nil, errors.Trace("limit_bet_take_error", err))
		}
		if !found {
			break
		}

		if !working.Accepts(candidate) {
			if err := m.exchange.SubmitOrder(ctx, candidate); err != nil {
				lost := []betv1.Order{candidate}
				return Result{}, interrupted(bet.Kind(), batches, remainder(working), lost, errors.Trace("limit_bet_reinsert_error", err))
			}
			break
		}

		workingTransfer, candidateTransfer := betv1.DetermineAmounts(working, candidate, !isHome)
		working = working.Less(workingTransfer)
		candidate = candidate.Less(candidateTransfer)

		batches = append(batches, betv1.NewMatchBatch(m.now(), working, workingTransfer, candidate, candidateTransfer, !isHome))

		m.logger.DebugContext(ctx, "Matched limit bet",
			logger.NewField("bet_id", working.BetID),
			logger.NewField("resting_bet_id", candidate.BetID),
			logger.NewField("odds", candidate.Price),
			logger.NewField("amount", workingTransfer),
			logger.NewField("resting_amount", candidateTransfer),
		)

		if !candidate.Depleted() {
			if err := m.exchange.SubmitOrder(ctx, candidate); err != nil {
				lost := []betv1.Order{candidate}
				return Result{}, interrupted(bet.Kind(), batches, remainder(working), lost, errors.Trace("limit_bet_reinsert_error", err))
			}
		}
	}

	if !working.Depleted() {
		if err := m.exchange.SubmitOrder(ctx, working); err != nil {
			return Result{}, interrupted(bet.Kind(), batches, remainder(working), nil, errors.Trace("limit_bet_rest_error", err))
		}
	}

	if err := m.publish(ctx, bet.Kind(), batches); err != nil {
		return Result{}, err
	}

	outcome := OutcomeMatched
	if len(batches) == 0 {
		outcome = OutcomeRested
	}
	return Result{Action: bet.Kind(), Outcome: outcome, Batches: batches}, nil
}

// remainder is the limit bet left to handle once working has been matched as
// far as it got, or nil when nothing is left.
func remainder(working betv1.Order) betv1.Action {
	if working.Depleted() {
		return nil
	}
	return betv1.NewLimitBet(working)
}
