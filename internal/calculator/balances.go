package calculator

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Group is the membership snapshot a ledger is folded against.
type Group struct {
	ID      string
	Members []string
}

// Payment is money that already moved from Payer to Payee.
type Payment struct {
	ID     string
	Payer  string
	Payee  string
	Amount decimal.Decimal
}

// MemberPosition is one member's net position in a group.
type MemberPosition struct {
	Member string

	// Paid is the total this member fronted as an expense payer.
	Paid decimal.Decimal

	// Share is the sum of this member's allocated portions.
	Share decimal.Decimal

	// NetTransfers is payments received minus payments sent.
	NetTransfers decimal.Decimal

	// Balance is Paid - Share - NetTransfers at minor-unit precision.
	// Positive = owed money, negative = owes money. Money sent settles debt
	// and money received settles credit, hence the subtraction.
	Balance decimal.Decimal
}

// Positions maps a member to their position.
type Positions map[string]*MemberPosition

// Members returns member names in ascending order.
func (p Positions) Members() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Sum returns the total of all balances. It is zero for a consistent ledger.
func (p Positions) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, pos := range p {
		sum = sum.Add(pos.Balance)
	}
	return sum
}

// Aggregation is the folded state of a group's expenses and payments.
type Aggregation struct {
	Positions  Positions
	TotalSpent decimal.Decimal
	Warnings   []Warning
}

// Aggregate folds every expense (through Allocate) and every payment into a
// position per member.
//
// Positions are seeded for the current group members and for anyone who
// appears in the history, so a member removed after incurring expenses keeps
// their paid/share figures. Balances are rounded half-to-even to the minor
// unit; if they fail to sum to zero within one unit a LEDGER_IMBALANCE
// warning is attached.
func Aggregate(group Group, expenses []Expense, payments []Payment, r Rounding) (*Aggregation, error) {
	positions := make(Positions)
	seed := func(member string) *MemberPosition {
		pos, ok := positions[member]
		if !ok {
			pos = &MemberPosition{Member: member}
			positions[member] = pos
		}
		return pos
	}

	for _, m := range group.Members {
		seed(m)
	}

	var warnings []Warning
	spent := decimal.Zero

	for _, e := range expenses {
		alloc, err := Allocate(e, r)
		if err != nil {
			return nil, fmt.Errorf("expense %s: %w", e.ID, err)
		}
		warnings = append(warnings, alloc.Warnings...)

		payer := seed(e.Payer)
		payer.Paid = payer.Paid.Add(e.Amount)
		spent = spent.Add(e.Amount)

		for _, p := range e.Participants {
			pos := seed(p)
			pos.Share = pos.Share.Add(alloc.Shares[p])
		}
	}

	for _, p := range payments {
		payer := seed(p.Payer)
		payee := seed(p.Payee)
		payer.NetTransfers = payer.NetTransfers.Sub(p.Amount)
		payee.NetTransfers = payee.NetTransfers.Add(p.Amount)
	}

	for _, pos := range positions {
		pos.Balance = r.Round(pos.Paid.Sub(pos.Share).Sub(pos.NetTransfers))
	}

	if sum := positions.Sum(); sum.Abs().GreaterThan(r.Unit()) {
		warnings = append(warnings, Warning{
			Kind:     WarningLedgerImbalance,
			Expected: decimal.Zero,
			Actual:   sum,
			Message:  fmt.Sprintf("balances of group %s sum to %s instead of zero", group.ID, sum),
		})
	}

	return &Aggregation{
		Positions:  positions,
		TotalSpent: spent,
		Warnings:   warnings,
	}, nil
}
