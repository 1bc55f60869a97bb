package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PaymentMethod records how money moved between two members.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentUPI          PaymentMethod = "UPI"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentOther        PaymentMethod = "OTHER"
)

// Valid reports whether m is a known method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentUPI, PaymentBankTransfer, PaymentOther:
		return true
	}
	return false
}

// ParsePaymentMethod normalizes a method name. An empty string means CASH.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return PaymentCash, nil
	}
	m := PaymentMethod(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown payment method %q", s)
	}
	return m, nil
}

// Payment is a peer transfer recorded against a group's ledger, usually to
// settle a debt.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// GroupID is the group this payment belongs to.
	GroupID string

	// Payer sent the money; Payee received it.
	Payer string
	Payee string

	// Amount is always positive.
	Amount decimal.Decimal

	Method PaymentMethod

	// Reference is an optional external transaction id (e.g. a UPI ref).
	Reference string

	Note string

	// RecordedBy is the member who recorded the payment.
	RecordedBy string

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64
}
