package models

import "github.com/shopspring/decimal"

// Expense is money one member paid on behalf of some participants.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	Description string

	// Amount is the total paid. Always positive.
	Amount decimal.Decimal

	// Payer is the member who fronted the money.
	Payer string

	// Participants share the expense. Order matters: leftover minor units
	// from an uneven split go to the first participants.
	Participants []string

	// SplitKind is one of EQUAL, EXACT, PERCENT, WEIGHTED_SHARES or
	// REIMBURSEMENT.
	SplitKind string

	// SplitParams holds per-participant amounts, percentages or weights.
	// Empty for EQUAL and REIMBURSEMENT.
	SplitParams map[string]decimal.Decimal

	// CreatedBy is the member who recorded the expense.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}
