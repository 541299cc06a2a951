package betv1

import (
	"math"
	"strconv"
)

// RoundCents rounds v to two decimals. Ties are decided on the exact binary
// value of v and resolved half-to-even, so 2.675 rounds to 2.67.
func RoundCents(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// DetermineAmounts computes how much of working and of opposing are consumed
// when the two are paired at the opposing order's price.
//
// The price is read from the perspective of the working order: a home-side
// opposing price is negated. A positive price multiplies the working stake by
// price/100 to obtain the counterparty stake, a negative one divides it by
// |price|/100. Whichever side would be over-consumed is the limiting side and
// is taken in full; the other side's amount is derived from it.
func DetermineAmounts(working, opposing Order, opposingIsHome bool) (workingAmount, opposingAmount float64) {
	price := float64(opposing.Price)
	if opposingIsHome {
		price = -price
	}

	var impliedOpposing float64
	if price > 0 {
		impliedOpposing = RoundCents(working.Amount * (price / 100))
	} else {
		impliedOpposing = RoundCents(working.Amount / (math.Abs(price) / 100))
	}

	if impliedOpposing < opposing.Amount {
		return working.Amount, impliedOpposing
	}

	var impliedWorking float64
	if price < 0 {
		impliedWorking = RoundCents(opposing.Amount * (math.Abs(price) / 100))
	} else {
		impliedWorking = RoundCents(opposing.Amount / (price / 100))
	}

	return impliedWorking, opposing.Amount
}
