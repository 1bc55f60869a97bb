package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// PaymentInput is a payment as submitted by a client.
type PaymentInput struct {
	GroupID   string
	Payer     string
	Payee     string
	Amount    decimal.Decimal
	Method    string
	Reference string
	Note      string

	// RecordedBy defaults to Payer.
	RecordedBy string
}

// RecordPayment validates a payment against the group's current members and
// hands it to the store. Balances change only because the next computation
// sees the new record.
func (l *Ledger) RecordPayment(ctx context.Context, in PaymentInput) (*models.Payment, error) {
	group, err := l.store.GetGroup(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}

	payment, err := l.validatePayment(group, in)
	if err != nil {
		l.metrics.PaymentRejected()
		l.logger.Info("payment rejected", "group_id", in.GroupID, "error", err)
		return nil, err
	}

	if err := l.store.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	l.metrics.PaymentRecorded(string(payment.Method))
	l.logger.Info("payment recorded",
		"group_id", payment.GroupID,
		"payment_id", payment.ID,
		"payer", payment.Payer,
		"payee", payment.Payee,
		"amount", payment.Amount.String(),
	)
	return payment, nil
}

func (l *Ledger) validatePayment(group *models.Group, in PaymentInput) (*models.Payment, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidPayment, in.Amount)
	}
	if in.Payer == in.Payee {
		return nil, fmt.Errorf("%w: payer and payee are both %q", ErrInvalidPayment, in.Payer)
	}
	for _, name := range []string{in.Payer, in.Payee} {
		if !group.HasMember(name) {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPayment, name, ErrNotMember)
		}
	}
	method, err := models.ParsePaymentMethod(in.Method)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayment, err)
	}

	recordedBy := in.RecordedBy
	if recordedBy == "" {
		recordedBy = in.Payer
	}

	return &models.Payment{
		GroupID:    group.ID,
		Payer:      in.Payer,
		Payee:      in.Payee,
		Amount:     in.Amount,
		Method:     method,
		Reference:  in.Reference,
		Note:       in.Note,
		RecordedBy: recordedBy,
		CreatedAt:  l.now().Unix(),
	}, nil
}
