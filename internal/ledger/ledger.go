// Package ledger answers "who owes whom" for a group. It loads a fresh
// snapshot of the group's expenses and payments from the store on every
// call, runs them through the calculator and returns the result. Nothing
// computed here is stored or cached.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrInvalidPayment is returned when a payment fails validation. Nothing
	// is written.
	ErrInvalidPayment = errors.New("invalid payment")

	// ErrInvalidExpense is returned when an expense names a payer or
	// participant outside the group.
	ErrInvalidExpense = errors.New("invalid expense")

	// ErrNotMember is wrapped by the errors above when a name is not a
	// current member of the group.
	ErrNotMember = errors.New("not a group member")
)

// Reader is the read model the ledger computes from.
type Reader interface {
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)
	ListPaymentsByGroup(ctx context.Context, groupID string) ([]*models.Payment, error)
}

// Store adds the one write the ledger performs.
type Store interface {
	Reader
	CreatePayment(ctx context.Context, payment *models.Payment) error
}

// Ledger computes balances and settlements. It holds only configuration and
// the store, so it is safe for concurrent use.
type Ledger struct {
	store    Store
	rounding calculator.Rounding
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithRounding sets the currency's minor unit. The default is cents.
func WithRounding(r calculator.Rounding) Option {
	return func(l *Ledger) { l.rounding = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithClock overrides the time source used to stamp payments.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New returns a Ledger reading from and writing payments to store.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		rounding: calculator.DefaultRounding,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Balances is every member's position in a group.
type Balances struct {
	GroupID string

	// Members lists every member with a position, sorted by name. Removed
	// members with history are included.
	Members []string

	Positions  calculator.Positions
	TotalSpent decimal.Decimal
	Warnings   []calculator.Warning
}

// Plan is the list of transfers that settles a group.
type Plan struct {
	GroupID     string
	Settlements []calculator.Settlement
	Warnings    []calculator.Warning
}

// MemberPlan is the part of a Plan where one member pays.
type MemberPlan struct {
	GroupID     string
	Member      string
	Settlements []calculator.Settlement

	// Total is what the member owes across all their lines.
	Total decimal.Decimal
}

// ComputeBalances folds the group's history into a position per member.
func (l *Ledger) ComputeBalances(ctx context.Context, groupID string) (*Balances, error) {
	start := time.Now()
	defer func() { l.metrics.ObserveComputation("balances", time.Since(start)) }()

	agg, err := l.aggregate(ctx, groupID)
	if err != nil {
		return nil, err
	}
	l.report(groupID, agg.Warnings)

	return &Balances{
		GroupID:    groupID,
		Members:    agg.Positions.Members(),
		Positions:  agg.Positions,
		TotalSpent: agg.TotalSpent,
		Warnings:   agg.Warnings,
	}, nil
}

// ComputeSettlements returns the transfers that bring every balance to zero.
// Warnings from both the aggregation and the solver are included.
func (l *Ledger) ComputeSettlements(ctx context.Context, groupID string) (*Plan, error) {
	start := time.Now()
	defer func() { l.metrics.ObserveComputation("settlements", time.Since(start)) }()

	agg, err := l.aggregate(ctx, groupID)
	if err != nil {
		return nil, err
	}
	settled := calculator.Settle(agg.Positions, l.rounding)

	warnings := append(agg.Warnings, settled.Warnings...)
	l.report(groupID, warnings)

	return &Plan{
		GroupID:     groupID,
		Settlements: settled.Settlements,
		Warnings:    warnings,
	}, nil
}

// SettlementsFor returns the lines of the group's plan where member pays.
func (l *Ledger) SettlementsFor(ctx context.Context, groupID, member string) (*MemberPlan, error) {
	plan, err := l.ComputeSettlements(ctx, groupID)
	if err != nil {
		return nil, err
	}

	mp := &MemberPlan{GroupID: groupID, Member: member, Total: decimal.Zero}
	for _, s := range plan.Settlements {
		if s.From == member {
			mp.Settlements = append(mp.Settlements, s)
			mp.Total = mp.Total.Add(s.Amount)
		}
	}
	return mp, nil
}

func (l *Ledger) aggregate(ctx context.Context, groupID string) (*calculator.Aggregation, error) {
	group, err := l.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	expenses, err := l.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	payments, err := l.store.ListPaymentsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	in := make([]calculator.Expense, 0, len(expenses))
	for _, e := range expenses {
		ce, err := toCalculatorExpense(e)
		if err != nil {
			return nil, err
		}
		in = append(in, ce)
	}

	pays := make([]calculator.Payment, 0, len(payments))
	for _, p := range payments {
		pays = append(pays, calculator.Payment{
			ID:     p.ID,
			Payer:  p.Payer,
			Payee:  p.Payee,
			Amount: p.Amount,
		})
	}

	return calculator.Aggregate(
		calculator.Group{ID: group.ID, Members: group.Members},
		in, pays, l.rounding,
	)
}

// report logs and counts warnings. They never fail a request.
func (l *Ledger) report(groupID string, warnings []calculator.Warning) {
	for _, w := range warnings {
		l.metrics.Warning(string(w.Kind))
		l.logger.Warn("ledger warning",
			"group_id", groupID,
			"kind", w.Kind,
			"expense_id", w.ExpenseID,
			"expected", w.Expected.String(),
			"actual", w.Actual.String(),
			"message", w.Message,
		)
	}
}

func toCalculatorExpense(e *models.Expense) (calculator.Expense, error) {
	split, err := calculator.ParseSplit(e.SplitKind, e.SplitParams)
	if err != nil {
		return calculator.Expense{}, fmt.Errorf("expense %s: %w", e.ID, err)
	}
	return calculator.Expense{
		ID:           e.ID,
		Amount:       e.Amount,
		Payer:        e.Payer,
		Participants: e.Participants,
		Split:        split,
	}, nil
}
