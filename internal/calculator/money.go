package calculator

import (
	"github.com/shopspring/decimal"
)

// Rounding describes the currency's minor unit as a number of decimal places.
// Places=2 means cents; Places=0 suits zero-decimal currencies.
type Rounding struct {
	Places int32
}

// DefaultRounding rounds to cents.
var DefaultRounding = Rounding{Places: 2}

var (
	// splitTolerance is the absolute slack allowed when EXACT amounts or
	// PERCENT values are reconciled against their expected totals.
	splitTolerance = decimal.RequireFromString("0.01")

	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// Unit returns one minor unit (0.01 for cents).
func (r Rounding) Unit() decimal.Decimal {
	return decimal.New(1, -r.Places)
}

// Epsilon is half a minor unit. Balances within epsilon of zero are settled.
func (r Rounding) Epsilon() decimal.Decimal {
	return r.Unit().Div(two)
}

// Round rounds half-to-even to the minor unit.
func (r Rounding) Round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(r.Places)
}

// roundsToZero reports whether d disappears at minor-unit precision.
func (r Rounding) roundsToZero(d decimal.Decimal) bool {
	return r.Round(d).IsZero()
}

// apportion divides total across members in proportion to weights. Every part
// is floored to the minor unit and the leftover units are handed out one at a
// time, in member order, to members with a positive weight. Any sub-unit
// residue of an over-precise total lands on the last such member, so the parts
// always sum exactly to total.
func (r Rounding) apportion(total decimal.Decimal, members []string, weights []decimal.Decimal) map[string]decimal.Decimal {
	shares := make(map[string]decimal.Decimal, len(members))
	for _, m := range members {
		shares[m] = decimal.Zero
	}

	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}
	if !sum.IsPositive() {
		return shares
	}

	allocated := decimal.Zero
	var eligible []string
	for i, m := range members {
		part := total.Mul(weights[i]).Div(sum).RoundFloor(r.Places)
		shares[m] = part
		allocated = allocated.Add(part)
		if weights[i].IsPositive() {
			eligible = append(eligible, m)
		}
	}

	unit := r.Unit()
	leftover := total.Sub(allocated)
	for k := 0; leftover.GreaterThanOrEqual(unit); k++ {
		m := eligible[k%len(eligible)]
		shares[m] = shares[m].Add(unit)
		leftover = leftover.Sub(unit)
	}
	if !leftover.IsZero() {
		last := eligible[len(eligible)-1]
		shares[last] = shares[last].Add(leftover)
	}
	return shares
}
