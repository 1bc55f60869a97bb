// Package memory provides an in-process storage.Store for tests and demos.
// Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps records in maps guarded by a single RWMutex. Ordered slices of
// IDs preserve recording order. Records are copied on the way in and out so
// callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	groups     map[string]*models.Group
	groupOrder []string

	expenses     map[string]*models.Expense
	expenseOrder []string

	payments     map[string]*models.Payment
	paymentOrder []string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		groups:   make(map[string]*models.Group),
		expenses: make(map[string]*models.Expense),
		payments: make(map[string]*models.Payment),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateGroup(_ context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[group.ID]; ok {
		return fmt.Errorf("group %s already exists", group.ID)
	}
	s.groups[group.ID] = cloneGroup(group)
	s.groupOrder = append(s.groupOrder, group.ID)
	return nil
}

func (s *Store) GetGroup(_ context.Context, groupID string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return cloneGroup(g), nil
}

func (s *Store) ListGroups(_ context.Context, member string) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Group
	for _, id := range s.groupOrder {
		g := s.groups[id]
		if member != "" && !g.HasMember(member) {
			continue
		}
		out = append(out, cloneGroup(g))
	}
	return out, nil
}

func (s *Store) UpdateGroup(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[group.ID]
	if !ok {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrNotFound)
	}
	g.Name = group.Name
	g.Members = slices.Clone(group.Members)
	return nil
}

func (s *Store) DeleteGroup(_ context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[groupID]; !ok {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	delete(s.groups, groupID)
	s.groupOrder = remove(s.groupOrder, groupID)

	for _, id := range slices.Clone(s.expenseOrder) {
		if s.expenses[id].GroupID == groupID {
			delete(s.expenses, id)
			s.expenseOrder = remove(s.expenseOrder, id)
		}
	}
	for _, id := range slices.Clone(s.paymentOrder) {
		if s.payments[id].GroupID == groupID {
			delete(s.payments, id)
			s.paymentOrder = remove(s.paymentOrder, id)
		}
	}
	return nil
}

func (s *Store) CreateExpense(_ context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[expense.GroupID]; !ok {
		return fmt.Errorf("group %s: %w", expense.GroupID, storage.ErrNotFound)
	}
	s.expenses[expense.ID] = cloneExpense(expense)
	s.expenseOrder = append(s.expenseOrder, expense.ID)
	return nil
}

func (s *Store) GetExpense(_ context.Context, expenseID string) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[expenseID]
	if !ok {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return cloneExpense(e), nil
}

func (s *Store) UpdateExpense(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[expense.ID]
	if !ok {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}
	updated := cloneExpense(expense)
	updated.GroupID = e.GroupID
	updated.CreatedBy = e.CreatedBy
	updated.CreatedAt = e.CreatedAt
	s.expenses[expense.ID] = updated
	return nil
}

func (s *Store) ListExpensesByGroup(_ context.Context, groupID string) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Expense
	for _, id := range s.expenseOrder {
		if e := s.expenses[id]; e.GroupID == groupID {
			out = append(out, cloneExpense(e))
		}
	}
	return out, nil
}

func (s *Store) DeleteExpense(_ context.Context, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[expenseID]; !ok {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	delete(s.expenses, expenseID)
	s.expenseOrder = remove(s.expenseOrder, expenseID)
	return nil
}

func (s *Store) CreatePayment(_ context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.CreatedAt == 0 {
		payment.CreatedAt = time.Now().Unix()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[payment.GroupID]; !ok {
		return fmt.Errorf("group %s: %w", payment.GroupID, storage.ErrNotFound)
	}
	p := *payment
	s.payments[payment.ID] = &p
	s.paymentOrder = append(s.paymentOrder, payment.ID)
	return nil
}

func (s *Store) GetPayment(_ context.Context, paymentID string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListPaymentsByGroup(_ context.Context, groupID string) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Payment
	for _, id := range s.paymentOrder {
		if p := s.payments[id]; p.GroupID == groupID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) DeletePayment(_ context.Context, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[paymentID]; !ok {
		return fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	delete(s.payments, paymentID)
	s.paymentOrder = remove(s.paymentOrder, paymentID)
	return nil
}

func cloneGroup(g *models.Group) *models.Group {
	cp := *g
	cp.Members = slices.Clone(g.Members)
	return &cp
}

func cloneExpense(e *models.Expense) *models.Expense {
	cp := *e
	cp.Participants = slices.Clone(e.Participants)
	cp.SplitParams = maps.Clone(e.SplitParams)
	return &cp
}

func remove(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(s string) bool { return s == id })
}
