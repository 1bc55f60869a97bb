package calculator

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Settlement is a proposed transfer from a debtor to a creditor.
type Settlement struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// SettlementPlan is the ordered list of transfers that clears a ledger.
type SettlementPlan struct {
	Settlements []Settlement
	Warnings    []Warning
}

type party struct {
	member    string
	remaining decimal.Decimal
}

// Settle matches the largest debtor with the largest creditor until one side
// runs out. Output is deterministic: both sides are ordered by amount
// descending, then by member name.
//
// This keeps the number of transfers low but is not guaranteed to be the
// global minimum. Any debtor or creditor left with more than epsilon
// outstanding (balances that do not sum to zero) is reported in a
// LEDGER_IMBALANCE warning, however small the residue.
func Settle(positions Positions, r Rounding) *SettlementPlan {
	eps := r.Epsilon()

	var debtors, creditors []party
	for member, pos := range positions {
		switch {
		case pos.Balance.LessThan(eps.Neg()):
			debtors = append(debtors, party{member: member, remaining: pos.Balance.Neg()})
		case pos.Balance.GreaterThan(eps):
			creditors = append(creditors, party{member: member, remaining: pos.Balance})
		}
	}
	slices.SortFunc(debtors, byRemaining)
	slices.SortFunc(creditors, byRemaining)

	plan := &SettlementPlan{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		t := decimal.Min(d.remaining, c.remaining)
		if amount := r.Round(t); amount.IsPositive() {
			plan.Settlements = append(plan.Settlements, Settlement{
				From:   d.member,
				To:     c.member,
				Amount: amount,
			})
		}

		d.remaining = d.remaining.Sub(t)
		c.remaining = c.remaining.Sub(t)

		if r.roundsToZero(d.remaining) {
			i++
		}
		if r.roundsToZero(c.remaining) {
			j++
		}
	}

	residue := decimal.Zero
	var unsettled []string
	for _, rest := range [][]party{debtors[i:], creditors[j:]} {
		for _, p := range rest {
			if r.roundsToZero(p.remaining) {
				continue
			}
			residue = residue.Add(p.remaining)
			unsettled = append(unsettled, p.member)
		}
	}
	if len(unsettled) > 0 {
		plan.Warnings = append(plan.Warnings, Warning{
			Kind:     WarningLedgerImbalance,
			Expected: decimal.Zero,
			Actual:   r.Round(residue),
			Message:  fmt.Sprintf("%s left unsettled for %s", r.Round(residue), strings.Join(unsettled, ", ")),
		})
	}

	return plan
}

func byRemaining(a, b party) int {
	if c := b.remaining.Cmp(a.remaining); c != 0 {
		return c
	}
	return cmp.Compare(a.member, b.member)
}
