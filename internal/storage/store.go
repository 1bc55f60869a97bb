// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

// ErrNotFound is returned when a group, expense or payment does not exist.
var ErrNotFound = errors.New("not found")

// GroupStore persists groups and their member lists.
type GroupStore interface {
	// CreateGroup persists a new group. ID and CreatedAt are populated by
	// the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its members in join order.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups returns groups ordered by creation. When member is not
	// empty only the groups that member belongs to are returned.
	ListGroups(ctx context.Context, member string) ([]*models.Group, error)

	// UpdateGroup replaces the name and member list of an existing group.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup removes a group together with its expenses and payments.
	DeleteGroup(ctx context.Context, groupID string) error
}

// ExpenseStore persists expenses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// ListExpensesByGroup returns a group's expenses in the order they were
	// recorded.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	DeleteExpense(ctx context.Context, expenseID string) error
}

// PaymentStore persists peer payments. Payments are append-only apart from
// deletion.
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)

	// ListPaymentsByGroup returns a group's payments in the order they were
	// recorded.
	ListPaymentsByGroup(ctx context.Context, groupID string) ([]*models.Payment, error)

	DeletePayment(ctx context.Context, paymentID string) error
}

// Store defines every storage operation the service needs.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// memory) without changing the service layer.
type Store interface {
	GroupStore
	ExpenseStore
	PaymentStore

	// Close releases any resources held by the store.
	Close() error
}
