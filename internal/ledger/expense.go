package ledger

import (
	"context"
	"fmt"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

// PreviewExpense allocates an expense against its group without saving it.
// Payer and participants must be current members.
func (l *Ledger) PreviewExpense(ctx context.Context, e *models.Expense) (*calculator.Allocation, error) {
	group, err := l.store.GetGroup(ctx, e.GroupID)
	if err != nil {
		return nil, err
	}

	if !group.HasMember(e.Payer) {
		return nil, fmt.Errorf("%w: payer %q: %w", ErrInvalidExpense, e.Payer, ErrNotMember)
	}
	for _, p := range e.Participants {
		if !group.HasMember(p) {
			return nil, fmt.Errorf("%w: participant %q: %w", ErrInvalidExpense, p, ErrNotMember)
		}
	}

	split, err := calculator.ParseSplit(e.SplitKind, e.SplitParams)
	if err != nil {
		return nil, err
	}
	return calculator.Allocate(calculator.Expense{
		ID:           e.ID,
		Amount:       e.Amount,
		Payer:        e.Payer,
		Participants: e.Participants,
		Split:        split,
	}, l.rounding)
}

// ValidateExpense is the check run before an expense is persisted. It returns
// split mismatch warnings, which do not block the save.
func (l *Ledger) ValidateExpense(ctx context.Context, e *models.Expense) ([]calculator.Warning, error) {
	alloc, err := l.PreviewExpense(ctx, e)
	if err != nil {
		return nil, err
	}
	return alloc.Warnings, nil
}
