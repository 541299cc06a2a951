package betv1

import "time"

// ExecutionStatus is the outcome reported for one order.
type ExecutionStatus string

const (
	// StatusFilled means the order has no remaining amount.
	StatusFilled ExecutionStatus = "FILLED"
	// StatusPartiallyFilled means the order was matched and still has remaining amount.
	StatusPartiallyFilled ExecutionStatus = "PARTIALLY_FILLED"
	// StatusCancelled means the order was removed without being matched.
	StatusCancelled ExecutionStatus = "CANCELLED"
	// StatusInsufficientLiquidity means a market order could not be filled in full.
	StatusInsufficientLiquidity ExecutionStatus = "INSUFFICIENT_LIQUIDITY"
	// StatusEventExpired marks the event-closed sentinel.
	StatusEventExpired ExecutionStatus = "EVENT_EXPIRED"
)

// ExecutionRecord is one outcome for one order. Every order-identifying field
// is nil on the event-closed sentinel.
type ExecutionRecord struct {
	BetID       *int64          `json:"bet_id"`
	BrokerageID *int64          `json:"brokerage_id"`
	UserID      *int64          `json:"user_id"`
	Amount      *float64        `json:"amount"`
	Status      ExecutionStatus `json:"status"`
}

// NewExecutionRecord reports amount of order with the given status.
func NewExecutionRecord(order Order, amount float64, status ExecutionStatus) ExecutionRecord {
	return ExecutionRecord{
		BetID:       &order.BetID,
		BrokerageID: &order.BrokerageID,
		UserID:      &order.UserID,
		Amount:      &amount,
		Status:      status,
	}
}

// ExecutionBatch groups the records produced by one matching step, one
// rejection or one purge step.
type ExecutionBatch struct {
	EventID           string            `json:"event_id"`
	Sport             string            `json:"sport"`
	Odds              *int              `json:"odds"`
	ExecutionTime     time.Time         `json:"execution_time"`
	Bets              []ExecutionRecord `json:"bets"`
	WinningTeamAbbrev *string           `json:"winning_team_abbrev"`
}

// FillStatus is FILLED for a depleted order and PARTIALLY_FILLED otherwise.
func FillStatus(remaining Order) ExecutionStatus {
	if remaining.Depleted() {
		return StatusFilled
	}
	return StatusPartiallyFilled
}

// NewMatchBatch pairs a working and a resting order. The amounts reported are
// the transferred amounts; statuses follow the remaining amounts. The home
// side's record comes first and the batch price is the resting order's price.
func NewMatchBatch(
	at time.Time,
	working Order, workingTransfer float64,
	resting Order, restingTransfer float64,
	restingIsHome bool,
) ExecutionBatch {
	workingRecord := NewExecutionRecord(working, workingTransfer, FillStatus(working))
	restingRecord := NewExecutionRecord(resting, restingTransfer, FillStatus(resting))

	bets := []ExecutionRecord{workingRecord, restingRecord}
	if restingIsHome {
		bets = []ExecutionRecord{restingRecord, workingRecord}
	}

	price := resting.Price
	return ExecutionBatch{
		EventID:       working.EventID,
		Sport:         working.Sport,
		Odds:          &price,
		ExecutionTime: at,
		Bets:          bets,
	}
}

// NewSingleBatch reports the full remaining amount of one order with status.
func NewSingleBatch(at time.Time, order Order, status ExecutionStatus) ExecutionBatch {
	return ExecutionBatch{
		EventID:       order.EventID,
		Sport:         order.Sport,
		ExecutionTime: at,
		Bets:          []ExecutionRecord{NewExecutionRecord(order, order.Amount, status)},
	}
}

// NewEventClosedBatch builds the sentinel telling consumers that no further
// records will follow for the event.
func NewEventClosedBatch(at time.Time, eventID, sport string, winningTeam *string) ExecutionBatch {
	return ExecutionBatch{
		EventID:           eventID,
		Sport:             sport,
		ExecutionTime:     at,
		Bets:              []ExecutionRecord{{Status: StatusEventExpired}},
		WinningTeamAbbrev: winningTeam,
	}
}

// IsEventClosed reports whether the batch is the event-closed sentinel.
func (b ExecutionBatch) IsEventClosed() bool {
	return len(b.Bets) == 1 && b.Bets[0].Status == StatusEventExpired && b.Bets[0].BetID == nil
}
