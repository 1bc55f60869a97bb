// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface on a pgx connection pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store implements storage.Store using PostgreSQL.
//
// Amounts are NUMERIC and cross the wire as text so no precision is lost to
// float conversion. Member and participant lists are TEXT[] columns, which
// keeps their order without a join table. The seq column gives a stable
// recording order when created_at ties.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and runs migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS groups (
			id TEXT PRIMARY KEY,
			seq BIGSERIAL,
			name TEXT NOT NULL,
			created_by TEXT NOT NULL,
			members TEXT[] NOT NULL DEFAULT '{}',
			created_at BIGINT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			seq BIGSERIAL,
			group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			description TEXT NOT NULL DEFAULT '',
			amount NUMERIC NOT NULL,
			payer TEXT NOT NULL,
			participants TEXT[] NOT NULL,
			split_kind TEXT NOT NULL,
			split_params JSONB NOT NULL DEFAULT '{}',
			created_by TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_expenses_group_id ON expenses(group_id);

		CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			seq BIGSERIAL,
			group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			payer TEXT NOT NULL,
			payee TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			method TEXT NOT NULL,
			reference TEXT NOT NULL DEFAULT '',
			note TEXT NOT NULL DEFAULT '',
			recorded_by TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_payments_group_id ON payments(group_id);
	`)
	return err
}

func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO groups (id, name, created_by, members, created_at) VALUES ($1, $2, $3, $4, $5)`,
		group.ID, group.Name, group.CreatedBy, members(group.Members), group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_by, members, created_at FROM groups WHERE id = $1`,
		groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedBy, &group.Members, &group.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

func (s *Store) ListGroups(ctx context.Context, member string) ([]*models.Group, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_by, members, created_at FROM groups
		 WHERE $1 = '' OR $1 = ANY(members)
		 ORDER BY created_at, seq`,
		member,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedBy, &group.Members, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (s *Store) UpdateGroup(ctx context.Context, group *models.Group) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE groups SET name = $2, members = $3 WHERE id = $1`,
		group.ID, group.Name, members(group.Members),
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteGroup(ctx context.Context, groupID string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

const expenseColumns = `id, group_id, description, amount::text, payer, participants, split_kind, split_params::text, created_by, created_at`

func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	params, err := encodeParams(expense.SplitParams)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO expenses (id, group_id, description, amount, payer, participants, split_kind, split_params, created_by, created_at)
		 VALUES ($1, $2, $3, $4::text::numeric, $5, $6, $7, $8::text::jsonb, $9, $10)`,
		expense.ID, expense.GroupID, expense.Description, expense.Amount.String(), expense.Payer,
		members(expense.Participants), expense.SplitKind, params, expense.CreatedBy, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(s.pool.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1`,
		expenseID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return expense, err
}

func (s *Store) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	params, err := encodeParams(expense.SplitParams)
	if err != nil {
		return err
	}

	ct, err := s.pool.Exec(ctx,
		`UPDATE expenses
		 SET description = $2, amount = $3::text::numeric, payer = $4, participants = $5,
		     split_kind = $6, split_params = $7::text::jsonb
		 WHERE id = $1`,
		expense.ID, expense.Description, expense.Amount.String(), expense.Payer,
		members(expense.Participants), expense.SplitKind, params,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE group_id = $1 ORDER BY created_at, seq`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

func (s *Store) DeleteExpense(ctx context.Context, expenseID string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

const paymentColumns = `id, group_id, payer, payee, amount::text, method, reference, note, recorded_by, created_at`

func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.CreatedAt == 0 {
		payment.CreatedAt = time.Now().Unix()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO payments (id, group_id, payer, payee, amount, method, reference, note, recorded_by, created_at)
		 VALUES ($1, $2, $3, $4, $5::text::numeric, $6, $7, $8, $9, $10)`,
		payment.ID, payment.GroupID, payment.Payer, payment.Payee, payment.Amount.String(),
		string(payment.Method), payment.Reference, payment.Note, payment.RecordedBy, payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := scanPayment(s.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`,
		paymentID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	return payment, err
}

func (s *Store) ListPaymentsByGroup(ctx context.Context, groupID string) ([]*models.Payment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE group_id = $1 ORDER BY created_at, seq`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments by group: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func (s *Store) DeletePayment(ctx context.Context, paymentID string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM payments WHERE id = $1`, paymentID)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	return nil
}

func scanExpense(row pgx.Row) (*models.Expense, error) {
	expense := &models.Expense{}
	var amount, params string
	err := row.Scan(&expense.ID, &expense.GroupID, &expense.Description, &amount, &expense.Payer,
		&expense.Participants, &expense.SplitKind, &params, &expense.CreatedBy, &expense.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}

	if expense.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse expense amount: %w", err)
	}
	if err := json.Unmarshal([]byte(params), &expense.SplitParams); err != nil {
		return nil, fmt.Errorf("failed to decode split params: %w", err)
	}
	if len(expense.SplitParams) == 0 {
		expense.SplitParams = nil
	}
	return expense, nil
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	payment := &models.Payment{}
	var amount, method string
	err := row.Scan(&payment.ID, &payment.GroupID, &payment.Payer, &payment.Payee, &amount,
		&method, &payment.Reference, &payment.Note, &payment.RecordedBy, &payment.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	if payment.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse payment amount: %w", err)
	}
	payment.Method = models.PaymentMethod(method)
	return payment, nil
}

func encodeParams(params map[string]decimal.Decimal) (string, error) {
	if len(params) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode split params: %w", err)
	}
	return string(b), nil
}

// members never sends NULL for an empty list; the columns are NOT NULL.
func members(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
