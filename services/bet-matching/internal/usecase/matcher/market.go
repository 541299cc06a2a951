package matcher

import (
	"context"

	"github.com/muhammadchandra19/bet-exchange/pkg/errors"
	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	betv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/bet/v1"
)

// handleMarketBet fills the bet from the opposing book at any price, or not at
// all. When the book runs dry first, every order taken is put back unchanged
// and the bet is reported as INSUFFICIENT_LIQUIDITY.
func (m *Matcher) handleMarketBet(ctx context.Context, bet *betv1.MarketBet) (Result, error) {
	order := bet.Order()

	isHome, opposing, ok, err := m.resolveSides(ctx, order)
	if err != nil {
		return Result{}, errors.Trace("market_bet_status_error", err)
	}
	if !ok {
		return m.reject(ctx, bet.Kind(), order)
	}

	working := order
	var (
		taken    []betv1.Order
		batches  []betv1.ExecutionBatch
		leftover betv1.Order
	)

	for !working.Depleted() {
		candidate, found, err := m.exchange.TakeBestOpposing(ctx, order.EventID, opposing, !isHome)
		if err != nil {
			// Nothing was executed yet, so once the taken orders are back the
			// bet can be handled from the start.
			lost, _ := m.restore(ctx, taken)
			return Result{}, interrupted(bet.Kind(), nil, bet, lost, errors.Trace("market_bet_take_error", err))
		}
		if !found {
			break
		}
		taken = append(taken, candidate)

		workingTransfer, candidateTransfer := betv1.DetermineAmounts(working, candidate, !isHome)
		working = working.Less(workingTransfer)
		leftover = candidate.Less(candidateTransfer)

		batches = append(batches, betv1.NewMatchBatch(m.now(), working, workingTransfer, leftover, candidateTransfer, !isHome))
	}

	if !working.Depleted() {
		m.logger.InfoContext(ctx, "Insufficient liquidity for market bet",
			logger.NewField("bet_id", order.BetID),
			logger.NewField("amount", order.Amount),
			logger.NewField("unfilled", working.Amount),
			logger.NewField("taken", len(taken)),
		)

		batch := betv1.NewSingleBatch(m.now(), order, betv1.StatusInsufficientLiquidity)
		if lost, err := m.restore(ctx, taken); err != nil {
			pending := []betv1.ExecutionBatch{batch}
			return Result{}, interrupted(bet.Kind(), pending, nil, lost, errors.Trace("market_bet_rollback_error", err))
		}

		// Every taken order is back, so a failed emit leaves the books as they were.
		if _, err := m.emit(ctx, batch); err != nil {
			return Result{}, err
		}
		return Result{Action: bet.Kind(), Outcome: OutcomeInsufficientLiquidity, Batches: []betv1.ExecutionBatch{batch}}, nil
	}

	if !leftover.Depleted() {
		if err := m.exchange.SubmitOrder(ctx, leftover); err != nil {
			lost := []betv1.Order{leftover}
			return Result{}, interrupted(bet.Kind(), batches, nil, lost, errors.Trace("market_bet_reinsert_error", err))
		}
	}

	if err := m.publish(ctx, bet.Kind(), batches); err != nil {
		return Result{}, err
	}
	return Result{Action: bet.Kind(), Outcome: OutcomeMatched, Batches: batches}, nil
}

// restore puts taken orders back unchanged. It tries every order and returns
// those it could not put back along with the first failure.
func (m *Matcher) restore(ctx context.Context, taken []betv1.Order) ([]betv1.Order, error) {
	var (
		lost  []betv1.Order
		first error
	)
	for _, o := range taken {
		if err := m.exchange.SubmitOrder(ctx, o); err != nil {
			m.logger.ErrorContext(ctx, errors.Trace("market_bet_restore_error", err), logger.NewField("bet_id", o.BetID))
			lost = append(lost, o)
			if first == nil {
				first = err
			}
		}
	}
	return lost, first
}
