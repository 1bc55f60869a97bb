package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/ledgerrpc"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type recordingNotifier struct {
	mu        sync.Mutex
	reminders []notify.Reminder
}

func (n *recordingNotifier) NotifyReminder(_ context.Context, r notify.Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reminders = append(n.reminders, r)
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) sent() []notify.Reminder {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Reminder(nil), n.reminders...)
}

func lines(ss []ledgerrpc.Settlement) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.From+"->"+s.To+":"+s.Amount.String())
	}
	return out
}

type clients struct {
	groups   *ledgerrpc.GroupServiceClient
	expenses *ledgerrpc.ExpenseServiceClient
	ledger   *ledgerrpc.LedgerServiceClient
	notifier *recordingNotifier
}

// setupTestServer serves all three services over a temp SQLite database.
// With jwt set, every call needs a bearer token.
func setupTestServer(t *testing.T, jwt *auth.JWTManager) *clients {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	l := ledger.New(store)
	n := &recordingNotifier{}

	interceptors := []connect.Interceptor{middleware.LoggingInterceptor()}
	if jwt != nil {
		interceptors = append(interceptors, middleware.RequireAuth(jwt))
	}
	opts := connect.WithInterceptors(interceptors...)

	mux := http.NewServeMux()
	mux.Handle(ledgerrpc.NewGroupServiceHandler(NewGroupService(store), opts))
	mux.Handle(ledgerrpc.NewExpenseServiceHandler(NewExpenseService(store, l), opts))
	mux.Handle(ledgerrpc.NewLedgerServiceHandler(NewLedgerService(store, l, n, metrics.New(prometheus.NewRegistry())), opts))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &clients{
		groups:   ledgerrpc.NewGroupServiceClient(http.DefaultClient, server.URL),
		expenses: ledgerrpc.NewExpenseServiceClient(http.DefaultClient, server.URL),
		ledger:   ledgerrpc.NewLedgerServiceClient(http.DefaultClient, server.URL),
		notifier: n,
	}
}

func createGroup(t *testing.T, c *clients, creator string, members ...string) *ledgerrpc.Group {
	t.Helper()
	resp, err := c.groups.CreateGroup(context.Background(), connect.NewRequest(&ledgerrpc.CreateGroupRequest{
		Name:      "Trip",
		CreatedBy: creator,
		Members:   members,
	}))
	require.NoError(t, err)
	return resp.Msg.Group
}

func addExpense(t *testing.T, c *clients, req *ledgerrpc.CreateExpenseRequest) *ledgerrpc.CreateExpenseResponse {
	t.Helper()
	resp, err := c.expenses.CreateExpense(context.Background(), connect.NewRequest(req))
	require.NoError(t, err)
	return resp.Msg
}

// assertZeroSum fetches the group's balances and checks they net to zero.
func assertZeroSum(t *testing.T, c *clients, groupID string) {
	t.Helper()
	resp, err := c.ledger.GetBalances(context.Background(), connect.NewRequest(&ledgerrpc.GetBalancesRequest{GroupID: groupID}))
	require.NoError(t, err)
	sum := decimal.Zero
	for _, m := range resp.Msg.Members {
		sum = sum.Add(m.Balance)
	}
	assert.True(t, sum.IsZero(), "balances of %s sum to %s", groupID, sum)
}

func requireCode(t *testing.T, want connect.Code, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, connect.CodeOf(err), "error: %v", err)
}

func TestCreateGroup(t *testing.T) {
	c := setupTestServer(t, nil)

	group := createGroup(t, c, "Alice", "Bob", "Charlie", "Bob", "")
	assert.NotEmpty(t, group.ID)
	assert.Equal(t, "Trip", group.Name)
	assert.Equal(t, "Alice", group.CreatedBy)
	assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, group.Members)
	assert.NotZero(t, group.CreatedAt)

	_, err := c.groups.CreateGroup(context.Background(), connect.NewRequest(&ledgerrpc.CreateGroupRequest{Members: []string{"A"}}))
	requireCode(t, connect.CodeInvalidArgument, err)
}

func TestGroupMembership(t *testing.T) {
	ctx := context.Background()
	c := setupTestServer(t, nil)
	group := createGroup(t, c, "Alice", "Bob")

	added, err := c.groups.AddMembers(ctx, connect.NewRequest(&ledgerrpc.AddMembersRequest{
		GroupID: group.ID,
		Members: []string{"Bob", "Dana"},
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob", "Dana"}, added.Msg.Group.Members)

	addExpense(t, c, &ledgerrpc.CreateExpenseRequest{GroupID: group.ID, Amount: dec("100"), Payer: "Bob", SplitKind: "EQUAL"})
	assertZeroSum(t, c, group.ID)

	removed, err := c.groups.RemoveMember(ctx, connect.NewRequest(&ledgerrpc.RemoveMemberRequest{GroupID: group.ID, Member: "Bob"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Dana"}, removed.Msg.Group.Members)
	assertZeroSum(t, c, group.ID)

	_, err = c.groups.RemoveMember(ctx, connect.NewRequest(&ledgerrpc.RemoveMemberRequest{GroupID: group.ID, Member: "Alice"}))
	requireCode(t, connect.CodeInvalidArgument, err)

	_, err = c.groups.RemoveMember(ctx, connect.NewRequest(&ledgerrpc.RemoveMemberRequest{GroupID: group.ID, Member: "Zoe"}))
	requireCode(t, connect.CodeNotFound, err)

	renamed, err := c.groups.RenameGroup(ctx, connect.NewRequest(&ledgerrpc.RenameGroupRequest{GroupID: group.ID, Name: "Flat"}))
	require.NoError(t, err)
	assert.Equal(t, "Flat", renamed.Msg.Group.Name)

	listed, err := c.groups.ListGroups(ctx, connect.NewRequest(&ledgerrpc.ListGroupsRequest{Member: "Dana"}))
	require.NoError(t, err)
	require.Len(t, listed.Msg.Groups, 1)

	listed, err = c.groups.ListGroups(ctx, connect.NewRequest(&ledgerrpc.ListGroupsRequest{Member: "Bob"}))
	require.NoError(t, err)
	assert.Empty(t, listed.Msg.Groups)

	_, err = c.groups.DeleteGroup(ctx, connect.NewRequest(&ledgerrpc.DeleteGroupRequest{GroupID: group.ID}))
	require.NoError(t, err)

	_, err = c.groups.GetGroup(ctx, connect.NewRequest(&ledgerrpc.GetGroupRequest{GroupID: group.ID}))
	requireCode(t, connect.CodeNotFound, err)
}

func TestExpenseLifecycle(t *testing.T) {
	ctx := context.Background()
	c := setupTestServer(t, nil)
	group := createGroup(t, c, "A", "B", "C")

	created := addExpense(t, c, &ledgerrpc.CreateExpenseRequest{
		GroupID:      group.ID,
		Description:  "dinner",
		Amount:       dec("300"),
		Payer:        "C",
		Participants: []string{"A", "B"},
		SplitKind:    "exact",
		SplitParams:  map[string]decimal.Decimal{"A": dec("100"), "B": dec("200")},
	})
	assert.Equal(t, "EXACT", created.Expense.SplitKind)
	assert.Equal(t, "C", created.Expense.CreatedBy)
	assert.Empty(t, created.Warnings)
	assertZeroSum(t, c, group.ID)

	got, err := c.expenses.GetExpense(ctx, connect.NewRequest(&ledgerrpc.GetExpenseRequest{ExpenseID: created.Expense.ID}))
	require.NoError(t, err)
	assert.True(t, got.Msg.Expense.Amount.Equal(dec("300")))
	assert.True(t, got.Msg.Expense.SplitParams["B"].Equal(dec("200")))

	updated, err := c.expenses.UpdateExpense(ctx, connect.NewRequest(&ledgerrpc.UpdateExpenseRequest{
		ExpenseID:    created.Expense.ID,
		Description:  "dinner",
		Amount:       dec("300"),
		Payer:        "C",
		Participants: []string{"A", "B"},
		SplitKind:    "EXACT",
		SplitParams:  map[string]decimal.Decimal{"A": dec("100"), "B": dec("150")},
	}))
	require.NoError(t, err)
	require.Len(t, updated.Msg.Warnings, 1)
	assert.Equal(t, "SPLIT_MISMATCH", updated.Msg.Warnings[0].Kind)

	updated, err = c.expenses.UpdateExpense(ctx, connect.NewRequest(&ledgerrpc.UpdateExpenseRequest{
		ExpenseID:    created.Expense.ID,
		Description:  "dinner",
		Amount:       dec("310"),
		Payer:        "A",
		Participants: []string{"A", "B", "C"},
		SplitKind:    "EQUAL",
	}))
	require.NoError(t, err)
	assert.Empty(t, updated.Msg.Warnings)
	assertZeroSum(t, c, group.ID)

	listed, err := c.expenses.ListExpenses(ctx, connect.NewRequest(&ledgerrpc.ListExpensesRequest{GroupID: group.ID}))
	require.NoError(t, err)
	require.Len(t, listed.Msg.Expenses, 1)

	_, err = c.expenses.DeleteExpense(ctx, connect.NewRequest(&ledgerrpc.DeleteExpenseRequest{ExpenseID: created.Expense.ID}))
	require.NoError(t, err)
	assertZeroSum(t, c, group.ID)

	_, err = c.expenses.GetExpense(ctx, connect.NewRequest(&ledgerrpc.GetExpenseRequest{ExpenseID: created.Expense.ID}))
	requireCode(t, connect.CodeNotFound, err)
}

func TestCreateExpense_Rejections(t *testing.T) {
	c := setupTestServer(t, nil)
	group := createGroup(t, c, "A", "B")

	tests := []struct {
		name string
		req  *ledgerrpc.CreateExpenseRequest
		want connect.Code
	}{
		{
			name: "unknown group",
			req:  &ledgerrpc.CreateExpenseRequest{GroupID: "missing", Amount: dec("10"), Payer: "A"},
			want: connect.CodeNotFound,
		},
		{
			name: "payer outside the group",
			req:  &ledgerrpc.CreateExpenseRequest{GroupID: group.ID, Amount: dec("10"), Payer: "Mallory"},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "weights summing to zero",
			req: &ledgerrpc.CreateExpenseRequest{
				GroupID: group.ID, Amount: dec("10"), Payer: "A",
				SplitKind:   "WEIGHTED_SHARES",
				SplitParams: map[string]decimal.Decimal{"A": dec("0"), "B": dec("0")},
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unknown split kind",
			req:  &ledgerrpc.CreateExpenseRequest{GroupID: group.ID, Amount: dec("10"), Payer: "A", SplitKind: "lottery"},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "no payer without auth",
			req:  &ledgerrpc.CreateExpenseRequest{GroupID: group.ID, Amount: dec("10")},
			want: connect.CodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.expenses.CreateExpense(context.Background(), connect.NewRequest(tt.req))
			requireCode(t, tt.want, err)
		})
	}

	listed, err := c.expenses.ListExpenses(context.Background(), connect.NewRequest(&ledgerrpc.ListExpensesRequest{GroupID: group.ID}))
	require.NoError(t, err)
	assert.Empty(t, listed.Msg.Expenses, "rejected expenses must not be stored")
}

func TestPreviewSplit(t *testing.T) {
	c := setupTestServer(t, nil)
	group := createGroup(t, c, "Alice", "Bob", "Charlie")

	resp, err := c.expenses.PreviewSplit(context.Background(), connect.NewRequest(&ledgerrpc.PreviewSplitRequest{
		GroupID: group.ID,
		Amount:  dec("100"),
		Payer:   "Alice",
	}))
	require.NoError(t, err)

	var got []string
	for _, s := range resp.Msg.Shares {
		got = append(got, s.Member+"="+s.Amount.String())
	}
	assert.Equal(t, []string{"Alice=33.34", "Bob=33.33", "Charlie=33.33"}, got)
	assert.Empty(t, resp.Msg.Warnings)
}

func TestBalancesAndSettlements(t *testing.T) {
	ctx := context.Background()
	c := setupTestServer(t, nil)
	group := createGroup(t, c, "A", "B", "C")

	addExpense(t, c, &ledgerrpc.CreateExpenseRequest{
		GroupID:      group.ID,
		Amount:       dec("80"),
		Payer:        "C",
		Participants: []string{"A", "B"},
		SplitKind:    "EXACT",
		SplitParams:  map[string]decimal.Decimal{"A": dec("50"), "B": dec("30")},
	})

	balances, err := c.ledger.GetBalances(ctx, connect.NewRequest(&ledgerrpc.GetBalancesRequest{GroupID: group.ID}))
	require.NoError(t, err)
	assert.True(t, balances.Msg.TotalSpent.Equal(dec("80")))
	got := map[string]string{}
	for _, m := range balances.Msg.Members {
		got[m.Member] = m.Balance.String()
	}
	assert.Equal(t, map[string]string{"A": "-50", "B": "-30", "C": "80"}, got)

	plan, err := c.ledger.GetSettlements(ctx, connect.NewRequest(&ledgerrpc.GetSettlementsRequest{GroupID: group.ID}))
	require.NoError(t, err)
	assert.Equal(t, []string{"A->C:50", "B->C:30"}, lines(plan.Msg.Settlements))
	assert.Empty(t, plan.Msg.Warnings)

	mine, err := c.ledger.GetMemberSettlements(ctx, connect.NewRequest(&ledgerrpc.GetMemberSettlementsRequest{GroupID: group.ID, Member: "B"}))
	require.NoError(t, err)
	assert.Len(t, mine.Msg.Settlements, 1)
	assert.True(t, mine.Msg.Total.Equal(dec("30")))

	for _, s := range plan.Msg.Settlements {
		_, err := c.ledger.RecordPayment(ctx, connect.NewRequest(&ledgerrpc.RecordPaymentRequest{
			GroupID: group.ID,
			Payer:   s.From,
			Payee:   s.To,
			Amount:  s.Amount,
			Method:  "CASH",
		}))
		require.NoError(t, err)
		assertZeroSum(t, c, group.ID)
	}

	after, err := c.ledger.GetSettlements(ctx, connect.NewRequest(&ledgerrpc.GetSettlementsRequest{GroupID: group.ID}))
	require.NoError(t, err)
	assert.Empty(t, after.Msg.Settlements)

	payments, err := c.ledger.ListPayments(ctx, connect.NewRequest(&ledgerrpc.ListPaymentsRequest{GroupID: group.ID}))
	require.NoError(t, err)
	require.Len(t, payments.Msg.Payments, 2)

	_, err = c.ledger.DeletePayment(ctx, connect.NewRequest(&ledgerrpc.DeletePaymentRequest{PaymentID: payments.Msg.Payments[1].ID}))
	require.NoError(t, err)
	assertZeroSum(t, c, group.ID)

	after, err = c.ledger.GetSettlements(ctx, connect.NewRequest(&ledgerrpc.GetSettlementsRequest{GroupID: group.ID}))
	require.NoError(t, err)
	assert.Equal(t, []string{"B->C:30"}, lines(after.Msg.Settlements))
}

func TestRecordPayment_Rejections(t *testing.T) {
	c := setupTestServer(t, nil)
	group := createGroup(t, c, "A", "B")

	tests := []struct {
		name string
		req  *ledgerrpc.RecordPaymentRequest
		want connect.Code
	}{
		{"self payment", &ledgerrpc.RecordPaymentRequest{GroupID: group.ID, Payer: "A", Payee: "A", Amount: dec("10"), Method: "CASH"}, connect.CodeInvalidArgument},
		{"negative amount", &ledgerrpc.RecordPaymentRequest{GroupID: group.ID, Payer: "A", Payee: "B", Amount: dec("-5"), Method: "CASH"}, connect.CodeInvalidArgument},
		{"stranger", &ledgerrpc.RecordPaymentRequest{GroupID: group.ID, Payer: "A", Payee: "Z", Amount: dec("5")}, connect.CodeInvalidArgument},
		{"unknown group", &ledgerrpc.RecordPaymentRequest{GroupID: "missing", Payer: "A", Payee: "B", Amount: dec("5")}, connect.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ledger.RecordPayment(context.Background(), connect.NewRequest(tt.req))
			requireCode(t, tt.want, err)
		})
	}
}

func TestSendReminder(t *testing.T) {
	ctx := context.Background()
	c := setupTestServer(t, nil)
	group := createGroup(t, c, "A", "B")

	addExpense(t, c, &ledgerrpc.CreateExpenseRequest{GroupID: group.ID, Amount: dec("40"), Payer: "B"})

	resp, err := c.ledger.SendReminder(ctx, connect.NewRequest(&ledgerrpc.SendReminderRequest{GroupID: group.ID, From: "A", To: "B"}))
	require.NoError(t, err)
	assert.True(t, resp.Msg.Amount.Equal(dec("20")))

	sent := c.notifier.sent()
	require.Len(t, sent, 1)
	r := sent[0]
	assert.Equal(t, "Trip", r.GroupName)
	assert.Equal(t, "A", r.From)
	assert.Equal(t, "B", r.To)

	_, err = c.ledger.SendReminder(ctx, connect.NewRequest(&ledgerrpc.SendReminderRequest{GroupID: group.ID, From: "B", To: "A"}))
	requireCode(t, connect.CodeNotFound, err)
}

func TestAuth(t *testing.T) {
	ctx := context.Background()
	jwt := auth.NewJWTManager("a-long-enough-test-secret", time.Hour)
	c := setupTestServer(t, jwt)

	withToken := func(t *testing.T, member string, req connect.AnyRequest) {
		t.Helper()
		token, err := jwt.Generate(member)
		require.NoError(t, err)
		req.Header().Set("Authorization", "Bearer "+token)
	}

	_, err := c.groups.ListGroups(ctx, connect.NewRequest(&ledgerrpc.ListGroupsRequest{}))
	requireCode(t, connect.CodeUnauthenticated, err)

	create := connect.NewRequest(&ledgerrpc.CreateGroupRequest{Name: "Trip", CreatedBy: "Mallory", Members: []string{"Bob"}})
	withToken(t, "Alice", create)
	created, err := c.groups.CreateGroup(ctx, create)
	require.NoError(t, err)
	group := created.Msg.Group
	assert.Equal(t, "Alice", group.CreatedBy, "token wins over the request field")
	assert.Equal(t, []string{"Alice", "Bob"}, group.Members)

	expense := connect.NewRequest(&ledgerrpc.CreateExpenseRequest{GroupID: group.ID, Amount: dec("10")})
	withToken(t, "Bob", expense)
	exp, err := c.expenses.CreateExpense(ctx, expense)
	require.NoError(t, err)
	assert.Equal(t, "Bob", exp.Msg.Expense.Payer)

	pay := connect.NewRequest(&ledgerrpc.RecordPaymentRequest{GroupID: group.ID, Payee: "Bob", Amount: dec("5")})
	withToken(t, "Alice", pay)
	paid, err := c.ledger.RecordPayment(ctx, pay)
	require.NoError(t, err)
	assert.Equal(t, "Alice", paid.Msg.Payment.Payer)
	assert.Equal(t, "Alice", paid.Msg.Payment.RecordedBy)

	rename := connect.NewRequest(&ledgerrpc.RenameGroupRequest{GroupID: group.ID, Name: "Mine now"})
	withToken(t, "Mallory", rename)
	_, err = c.groups.RenameGroup(ctx, rename)
	requireCode(t, connect.CodePermissionDenied, err)

	mine := connect.NewRequest(&ledgerrpc.GetMemberSettlementsRequest{GroupID: group.ID})
	withToken(t, "Bob", mine)
	settle, err := c.ledger.GetMemberSettlements(ctx, mine)
	require.NoError(t, err)
	assert.Equal(t, "Bob", settle.Msg.Member)

	// Outsiders cannot read the group either.
	balances := connect.NewRequest(&ledgerrpc.GetBalancesRequest{GroupID: group.ID})
	withToken(t, "Mallory", balances)
	_, err = c.ledger.GetBalances(ctx, balances)
	requireCode(t, connect.CodePermissionDenied, err)

	plan := connect.NewRequest(&ledgerrpc.GetSettlementsRequest{GroupID: group.ID})
	withToken(t, "Mallory", plan)
	_, err = c.ledger.GetSettlements(ctx, plan)
	requireCode(t, connect.CodePermissionDenied, err)

	expenses := connect.NewRequest(&ledgerrpc.ListExpensesRequest{GroupID: group.ID})
	withToken(t, "Mallory", expenses)
	_, err = c.expenses.ListExpenses(ctx, expenses)
	requireCode(t, connect.CodePermissionDenied, err)

	get := connect.NewRequest(&ledgerrpc.GetGroupRequest{GroupID: group.ID})
	withToken(t, "Mallory", get)
	_, err = c.groups.GetGroup(ctx, get)
	requireCode(t, connect.CodePermissionDenied, err)

	get = connect.NewRequest(&ledgerrpc.GetGroupRequest{GroupID: group.ID})
	withToken(t, "Bob", get)
	_, err = c.groups.GetGroup(ctx, get)
	require.NoError(t, err)
}
