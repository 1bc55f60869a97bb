package calculator

import "github.com/shopspring/decimal"

// WarningKind classifies a non-fatal inconsistency found while computing.
type WarningKind string

const (
	// WarningSplitMismatch means EXACT or PERCENT parameters do not
	// reconcile with the expense total.
	WarningSplitMismatch WarningKind = "SPLIT_MISMATCH"

	// WarningLedgerImbalance means balances do not sum to zero, which
	// points at corrupted expense or payment data upstream.
	WarningLedgerImbalance WarningKind = "LEDGER_IMBALANCE"
)

// Warning is reported next to a result. It never stops a computation.
type Warning struct {
	Kind WarningKind

	// ExpenseID is set for split mismatches.
	ExpenseID string

	Expected decimal.Decimal
	Actual   decimal.Decimal
	Message  string
}
