package betv1

import (
	"encoding/json"
)

// Order is a normalized bet on one side of an event. It is a value type:
// matching produces new Orders instead of mutating shared ones.
type Order struct {
	EventID     string  `json:"event_id"`
	Sport       string  `json:"sport"`
	BetID       int64   `json:"bet_id"`
	BrokerageID int64   `json:"brokerage_id"`
	UserID      int64   `json:"user_id"`
	Amount      float64 `json:"amount"`
	Price       int     `json:"odds"`
	Side        string  `json:"on_team_abbrev"`
}

// WithAmount returns a copy of the order holding amount.
func (o Order) WithAmount(amount float64) Order {
	o.Amount = amount
	return o
}

// Less returns a copy of the order with amount subtracted from its remaining amount.
func (o Order) Less(amount float64) Order {
	o.Amount -= amount
	return o
}

// Depleted reports whether nothing remains to be matched. Rounding can leave
// a taker marginally below zero, which counts as depleted.
func (o Order) Depleted() bool {
	return o.Amount <= 0
}

// Accepts reports whether candidate, resting on the opposite side, is priced
// well enough to be matched against o as a limit order.
func (o Order) Accepts(candidate Order) bool {
	return o.Price <= candidate.Price
}

// Marshal serializes the order into its stored book member form.
func (o Order) Marshal() (string, error) {
	buf, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// UnmarshalOrder decodes a stored book member.
func UnmarshalOrder(member string) (Order, error) {
	var o Order
	err := json.Unmarshal([]byte(member), &o)
	return o, err
}
