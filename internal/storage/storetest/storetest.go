// Package storetest holds the behaviour every storage.Store backend must
// share. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Run exercises store against the storage.Store contract. The store should
// be empty.
func Run(t *testing.T, store storage.Store) {
	ctx := context.Background()

	newGroup := func(t *testing.T, members ...string) *models.Group {
		t.Helper()
		group := &models.Group{Name: "Trip", CreatedBy: members[0], Members: members}
		require.NoError(t, store.CreateGroup(ctx, group))
		return group
	}

	t.Run("CreateGroup generates ID and keeps member order", func(t *testing.T) {
		group := newGroup(t, "Zoe", "Adam", "Mia")
		assert.NotEmpty(t, group.ID)
		assert.NotZero(t, group.CreatedAt)

		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, "Trip", got.Name)
		assert.Equal(t, "Zoe", got.CreatedBy)
		assert.Equal(t, []string{"Zoe", "Adam", "Mia"}, got.Members)
	})

	t.Run("GetGroup returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent-id")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("UpdateGroup replaces name and members", func(t *testing.T) {
		group := newGroup(t, "Alice", "Bob")
		group.Name = "Flat"
		group.Members = []string{"Alice", "Charlie"}
		require.NoError(t, store.UpdateGroup(ctx, group))

		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, "Flat", got.Name)
		assert.Equal(t, []string{"Alice", "Charlie"}, got.Members)

		err = store.UpdateGroup(ctx, &models.Group{ID: "nonexistent-id", Name: "x"})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListGroups filters by member", func(t *testing.T) {
		a := newGroup(t, "Quinn", "Rae")
		b := newGroup(t, "Rae", "Sam")

		groups, err := store.ListGroups(ctx, "Quinn")
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, a.ID, groups[0].ID)

		groups, err = store.ListGroups(ctx, "Rae")
		require.NoError(t, err)
		ids := []string{}
		for _, g := range groups {
			ids = append(ids, g.ID)
		}
		assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

		all, err := store.ListGroups(ctx, "")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 2)
	})

	t.Run("expenses round-trip with participants and params in order", func(t *testing.T) {
		group := newGroup(t, "Alice", "Bob", "Charlie")
		expense := &models.Expense{
			GroupID:      group.ID,
			Description:  "Dinner",
			Amount:       decimal.RequireFromString("123.45"),
			Payer:        "Bob",
			Participants: []string{"Charlie", "Alice", "Bob"},
			SplitKind:    "EXACT",
			SplitParams: map[string]decimal.Decimal{
				"Charlie": decimal.RequireFromString("100"),
				"Alice":   decimal.RequireFromString("23.45"),
			},
			CreatedBy: "Bob",
		}
		require.NoError(t, store.CreateExpense(ctx, expense))
		assert.NotEmpty(t, expense.ID)

		got, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, group.ID, got.GroupID)
		assert.Equal(t, "Dinner", got.Description)
		assert.True(t, got.Amount.Equal(expense.Amount), "amount = %s", got.Amount)
		assert.Equal(t, []string{"Charlie", "Alice", "Bob"}, got.Participants)
		assert.Equal(t, "EXACT", got.SplitKind)
		require.Len(t, got.SplitParams, 2)
		assert.True(t, got.SplitParams["Alice"].Equal(decimal.RequireFromString("23.45")))
		assert.Equal(t, "Bob", got.CreatedBy)
	})

	t.Run("expenses list in recording order and update in place", func(t *testing.T) {
		group := newGroup(t, "Alice", "Bob")
		var ids []string
		for _, amount := range []string{"10", "20", "30"} {
			e := &models.Expense{
				GroupID:      group.ID,
				Amount:       decimal.RequireFromString(amount),
				Payer:        "Alice",
				Participants: []string{"Alice", "Bob"},
				SplitKind:    "EQUAL",
				CreatedAt:    1700000000,
			}
			require.NoError(t, store.CreateExpense(ctx, e))
			ids = append(ids, e.ID)
		}

		first, err := store.GetExpense(ctx, ids[0])
		require.NoError(t, err)
		first.Amount = decimal.RequireFromString("15")
		first.Participants = []string{"Bob"}
		first.SplitKind = "WEIGHTED_SHARES"
		first.SplitParams = map[string]decimal.Decimal{"Bob": decimal.NewFromInt(2)}
		require.NoError(t, store.UpdateExpense(ctx, first))

		list, err := store.ListExpensesByGroup(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for i, e := range list {
			assert.Equal(t, ids[i], e.ID)
		}
		assert.True(t, list[0].Amount.Equal(decimal.RequireFromString("15")))
		assert.Equal(t, []string{"Bob"}, list[0].Participants)
		assert.True(t, list[0].SplitParams["Bob"].Equal(decimal.NewFromInt(2)))
		assert.Empty(t, list[1].SplitParams)

		require.NoError(t, store.DeleteExpense(ctx, ids[1]))
		_, err = store.GetExpense(ctx, ids[1])
		require.ErrorIs(t, err, storage.ErrNotFound)
		require.ErrorIs(t, store.DeleteExpense(ctx, ids[1]), storage.ErrNotFound)
		require.ErrorIs(t, store.UpdateExpense(ctx, &models.Expense{ID: ids[1], Amount: decimal.NewFromInt(1)}), storage.ErrNotFound)
	})

	t.Run("payments round-trip and list in recording order", func(t *testing.T) {
		group := newGroup(t, "Alice", "Bob")
		first := &models.Payment{
			GroupID:    group.ID,
			Payer:      "Bob",
			Payee:      "Alice",
			Amount:     decimal.RequireFromString("12.50"),
			Method:     models.PaymentUPI,
			Reference:  "UPI-4471",
			RecordedBy: "Bob",
			CreatedAt:  1700000000,
		}
		second := &models.Payment{
			GroupID:   group.ID,
			Payer:     "Alice",
			Payee:     "Bob",
			Amount:    decimal.RequireFromString("1"),
			Method:    models.PaymentCash,
			Note:      "change",
			CreatedAt: 1700000000,
		}
		require.NoError(t, store.CreatePayment(ctx, first))
		require.NoError(t, store.CreatePayment(ctx, second))

		got, err := store.GetPayment(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bob", got.Payer)
		assert.Equal(t, "Alice", got.Payee)
		assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.5")))
		assert.Equal(t, models.PaymentUPI, got.Method)
		assert.Equal(t, "UPI-4471", got.Reference)
		assert.Empty(t, got.Note)

		list, err := store.ListPaymentsByGroup(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, first.ID, list[0].ID)
		assert.Equal(t, second.ID, list[1].ID)
		assert.Equal(t, "change", list[1].Note)

		require.NoError(t, store.DeletePayment(ctx, first.ID))
		_, err = store.GetPayment(ctx, first.ID)
		require.ErrorIs(t, err, storage.ErrNotFound)
		require.ErrorIs(t, store.DeletePayment(ctx, first.ID), storage.ErrNotFound)
	})

	t.Run("DeleteGroup removes its expenses and payments", func(t *testing.T) {
		group := newGroup(t, "Alice", "Bob")
		expense := &models.Expense{
			GroupID:      group.ID,
			Amount:       decimal.NewFromInt(10),
			Payer:        "Alice",
			Participants: []string{"Alice", "Bob"},
			SplitKind:    "EQUAL",
		}
		require.NoError(t, store.CreateExpense(ctx, expense))
		payment := &models.Payment{
			GroupID: group.ID,
			Payer:   "Bob",
			Payee:   "Alice",
			Amount:  decimal.NewFromInt(5),
			Method:  models.PaymentCash,
		}
		require.NoError(t, store.CreatePayment(ctx, payment))

		require.NoError(t, store.DeleteGroup(ctx, group.ID))

		_, err := store.GetGroup(ctx, group.ID)
		require.ErrorIs(t, err, storage.ErrNotFound)
		_, err = store.GetExpense(ctx, expense.ID)
		require.ErrorIs(t, err, storage.ErrNotFound)
		_, err = store.GetPayment(ctx, payment.ID)
		require.ErrorIs(t, err, storage.ErrNotFound)
		require.ErrorIs(t, store.DeleteGroup(ctx, group.ID), storage.ErrNotFound)
	})
}
