package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/ledgerrpc"
)

// ExpenseService implements the Connect ExpenseService. Every write is
// checked by the ledger before it reaches the store, so an invalid split is
// never persisted.
type ExpenseService struct {
	store  storage.Store
	ledger *ledger.Ledger
}

var _ ledgerrpc.ExpenseServiceHandler = (*ExpenseService)(nil)

func NewExpenseService(store storage.Store, l *ledger.Ledger) *ExpenseService {
	return &ExpenseService{store: store, ledger: l}
}

type expenseFields struct {
	description  string
	amount       decimal.Decimal
	payer        string
	participants []string
	splitKind    string
	splitParams  map[string]decimal.Decimal
}

// fill applies the request fields to e. The payer defaults to the caller and
// participants default to every current member.
func fill(ctx context.Context, e *models.Expense, group *models.Group, f expenseFields) error {
	kind, err := calculator.ParseKind(f.splitKind)
	if err != nil {
		return err
	}

	e.Description = f.description
	e.Amount = f.amount
	e.Payer = actor(ctx, "")
	if f.payer != "" {
		e.Payer = f.payer
	}
	if e.Payer == "" {
		return invalidArgument("payer required")
	}
	e.Participants = cleanNames(f.participants)
	if len(e.Participants) == 0 {
		e.Participants = append([]string(nil), group.Members...)
	}
	e.SplitKind = string(kind)
	e.SplitParams = f.splitParams
	return nil
}

// CreateExpense validates and stores an expense. Split mismatches are saved
// and returned as warnings.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[ledgerrpc.CreateExpenseRequest]) (*connect.Response[ledgerrpc.CreateExpenseResponse], error) {
	slog.Info("CreateExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount.String(),
		"split_kind", req.Msg.SplitKind,
		"participants_count", len(req.Msg.Participants),
	)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("CreateExpense", err)
	}

	expense := &models.Expense{GroupID: group.ID}
	if err := fill(ctx, expense, group, expenseFields{
		description:  req.Msg.Description,
		amount:       req.Msg.Amount,
		payer:        req.Msg.Payer,
		participants: req.Msg.Participants,
		splitKind:    req.Msg.SplitKind,
		splitParams:  req.Msg.SplitParams,
	}); err != nil {
		return nil, toConnectError("CreateExpense", err)
	}
	expense.CreatedBy = actor(ctx, req.Msg.CreatedBy)
	if expense.CreatedBy == "" {
		expense.CreatedBy = expense.Payer
	}

	warnings, err := s.ledger.ValidateExpense(ctx, expense)
	if err != nil {
		return nil, toConnectError("CreateExpense", err)
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, toConnectError("CreateExpense", err)
	}

	slog.Info("Expense created",
		"group_id", group.ID,
		"expense_id", expense.ID,
		"warnings_count", len(warnings),
	)

	return connect.NewResponse(&ledgerrpc.CreateExpenseResponse{
		Expense:  toRPCExpense(expense),
		Warnings: toRPCWarnings(warnings),
	}), nil
}

// UpdateExpense replaces every editable field of an expense.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[ledgerrpc.UpdateExpenseRequest]) (*connect.Response[ledgerrpc.UpdateExpenseResponse], error) {
	slog.Info("UpdateExpense request received", "expense_id", req.Msg.ExpenseID)

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError("UpdateExpense", err)
	}
	group, err := loadGroup(ctx, s.store, expense.GroupID)
	if err != nil {
		return nil, toConnectError("UpdateExpense", err)
	}

	if err := fill(ctx, expense, group, expenseFields{
		description:  req.Msg.Description,
		amount:       req.Msg.Amount,
		payer:        req.Msg.Payer,
		participants: req.Msg.Participants,
		splitKind:    req.Msg.SplitKind,
		splitParams:  req.Msg.SplitParams,
	}); err != nil {
		return nil, toConnectError("UpdateExpense", err)
	}

	warnings, err := s.ledger.ValidateExpense(ctx, expense)
	if err != nil {
		return nil, toConnectError("UpdateExpense", err)
	}

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return nil, toConnectError("UpdateExpense", err)
	}

	slog.Info("Expense updated", "expense_id", expense.ID, "warnings_count", len(warnings))

	return connect.NewResponse(&ledgerrpc.UpdateExpenseResponse{
		Expense:  toRPCExpense(expense),
		Warnings: toRPCWarnings(warnings),
	}), nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[ledgerrpc.GetExpenseRequest]) (*connect.Response[ledgerrpc.GetExpenseResponse], error) {
	slog.Info("GetExpense request received", "expense_id", req.Msg.ExpenseID)

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError("GetExpense", err)
	}
	if _, err := loadGroup(ctx, s.store, expense.GroupID); err != nil {
		return nil, toConnectError("GetExpense", err)
	}

	return connect.NewResponse(&ledgerrpc.GetExpenseResponse{Expense: toRPCExpense(expense)}), nil
}

// ListExpenses returns a group's expenses in the order they were recorded.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[ledgerrpc.ListExpensesRequest]) (*connect.Response[ledgerrpc.ListExpensesResponse], error) {
	slog.Info("ListExpenses request received", "group_id", req.Msg.GroupID)

	if _, err := loadGroup(ctx, s.store, req.Msg.GroupID); err != nil {
		return nil, toConnectError("ListExpenses", err)
	}
	expenses, err := s.store.ListExpensesByGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("ListExpenses", err)
	}

	out := make([]*ledgerrpc.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toRPCExpense(e)
	}

	slog.Info("ListExpenses successful", "group_id", req.Msg.GroupID, "count", len(out))

	return connect.NewResponse(&ledgerrpc.ListExpensesResponse{Expenses: out}), nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[ledgerrpc.DeleteExpenseRequest]) (*connect.Response[ledgerrpc.DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseID)

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError("DeleteExpense", err)
	}
	_, err = loadGroup(ctx, s.store, expense.GroupID)
	if err != nil {
		return nil, toConnectError("DeleteExpense", err)
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		return nil, toConnectError("DeleteExpense", err)
	}

	slog.Info("Expense deleted", "expense_id", expense.ID)

	return connect.NewResponse(&ledgerrpc.DeleteExpenseResponse{}), nil
}

// PreviewSplit runs the allocator without saving anything.
func (s *ExpenseService) PreviewSplit(ctx context.Context, req *connect.Request[ledgerrpc.PreviewSplitRequest]) (*connect.Response[ledgerrpc.PreviewSplitResponse], error) {
	slog.Info("PreviewSplit request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount.String(),
		"split_kind", req.Msg.SplitKind,
	)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("PreviewSplit", err)
	}

	expense := &models.Expense{GroupID: group.ID}
	if err := fill(ctx, expense, group, expenseFields{
		amount:       req.Msg.Amount,
		payer:        req.Msg.Payer,
		participants: req.Msg.Participants,
		splitKind:    req.Msg.SplitKind,
		splitParams:  req.Msg.SplitParams,
	}); err != nil {
		return nil, toConnectError("PreviewSplit", err)
	}

	alloc, err := s.ledger.PreviewExpense(ctx, expense)
	if err != nil {
		return nil, toConnectError("PreviewSplit", err)
	}

	shares := make([]ledgerrpc.Share, 0, len(expense.Participants))
	for _, p := range expense.Participants {
		shares = append(shares, ledgerrpc.Share{Member: p, Amount: alloc.Shares[p]})
	}

	return connect.NewResponse(&ledgerrpc.PreviewSplitResponse{
		Shares:   shares,
		Warnings: toRPCWarnings(alloc.Warnings),
	}), nil
}
