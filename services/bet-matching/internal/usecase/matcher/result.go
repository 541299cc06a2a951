package matcher

import (
	"fmt"
	"strings"

	betv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/bet/v1"
)

// Outcome summarizes what handling an action did.
type Outcome string

const (
	// OutcomeMatched means at least one pairing was executed.
	OutcomeMatched Outcome = "MATCHED"
	// OutcomeRested means a limit order found nothing to match and now rests on its book.
	OutcomeRested Outcome = "RESTED"
	// OutcomeCancelled means an order was cancelled, either on request or because its event is closed.
	OutcomeCancelled Outcome = "CANCELLED"
	// OutcomeInsufficientLiquidity means a market order could not be filled and the books were restored.
	OutcomeInsufficientLiquidity Outcome = "INSUFFICIENT_LIQUIDITY"
	// OutcomeExpired means an event was closed and its books purged.
	OutcomeExpired Outcome = "EXPIRED"
	// OutcomeNoop means there was nothing to do, such as cancelling an unknown bet.
	OutcomeNoop Outcome = "NOOP"
	// OutcomeDropped means the action kind is not handled.
	OutcomeDropped Outcome = "DROPPED"
)

// Result is returned for every handled action. Batches holds what was
// emitted, in emission order.
type Result struct {
	Action  betv1.ActionKind
	Outcome Outcome
	Batches []betv1.ExecutionBatch
}

// IncompleteError is returned when an action failed after it changed the
// books. Handling the same action again would match against the changed books,
// so callers must finish it from the error instead:
//
//   - Pending holds the batches describing changes already made that were not
//     emitted, in emission order. They must be emitted first.
//   - Resume, when set, is the rest of the action. Handling it after Pending
//     is emitted completes the action.
//   - Lost holds orders taken off a book that could not be put back. They need
//     reconciliation outside the matcher.
//
// Any error returned by Handle that is not an IncompleteError left the books
// as they were, and the action may be handled again.
type IncompleteError struct {
	Action  betv1.ActionKind
	Emitted []betv1.ExecutionBatch
	Pending []betv1.ExecutionBatch
	Resume  betv1.Action
	Lost    []betv1.Order
	Cause   error
}

func (e *IncompleteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s interrupted with %d pending batches", e.Action, len(e.Pending))
	for _, o := range e.Lost {
		fmt.Fprintf(&b, ", lost bet %d (%.2f at %d on %s)", o.BetID, o.Amount, o.Price, o.Side)
	}
	fmt.Fprintf(&b, ": %v", e.Cause)
	return b.String()
}

func (e *IncompleteError) Unwrap() error {
	return e.Cause
}
