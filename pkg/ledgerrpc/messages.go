// Package ledgerrpc defines the splitledger.v1 Connect services: message
// types, procedure names, handler constructors and typed clients. Messages
// are plain Go structs carried as JSON.
package ledgerrpc

import "github.com/shopspring/decimal"

// Group is a group of people sharing expenses.
type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	CreatedBy string   `json:"created_by"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

type Expense struct {
	ID           string                     `json:"id"`
	GroupID      string                     `json:"group_id"`
	Description  string                     `json:"description,omitempty"`
	Amount       decimal.Decimal            `json:"amount"`
	Payer        string                     `json:"payer"`
	Participants []string                   `json:"participants"`
	SplitKind    string                     `json:"split_kind"`
	SplitParams  map[string]decimal.Decimal `json:"split_params,omitempty"`
	CreatedBy    string                     `json:"created_by,omitempty"`
	CreatedAt    int64                      `json:"created_at"`
}

type Payment struct {
	ID         string          `json:"id"`
	GroupID    string          `json:"group_id"`
	Payer      string          `json:"payer"`
	Payee      string          `json:"payee"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Reference  string          `json:"reference,omitempty"`
	Note       string          `json:"note,omitempty"`
	RecordedBy string          `json:"recorded_by,omitempty"`
	CreatedAt  int64           `json:"created_at"`
}

// Warning reports a split mismatch or a ledger imbalance next to a result.
type Warning struct {
	Kind      string          `json:"kind"`
	ExpenseID string          `json:"expense_id,omitempty"`
	Expected  decimal.Decimal `json:"expected"`
	Actual    decimal.Decimal `json:"actual"`
	Message   string          `json:"message"`
}

// MemberBalance is one member's position. Positive balance means the
// member is owed money.
type MemberBalance struct {
	Member       string          `json:"member"`
	Paid         decimal.Decimal `json:"paid"`
	Share        decimal.Decimal `json:"share"`
	NetTransfers decimal.Decimal `json:"net_transfers"`
	Balance      decimal.Decimal `json:"balance"`
}

type Settlement struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// Share is one participant's part of an expense.
type Share struct {
	Member string          `json:"member"`
	Amount decimal.Decimal `json:"amount"`
}

// GroupService

type CreateGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
	// CreatedBy names the creator when the server runs without auth. With
	// auth on, the token's member is used.
	CreatedBy string `json:"created_by,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct {
	// Member filters to the groups this member belongs to.
	Member string `json:"member,omitempty"`
}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type RenameGroupRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

type RenameGroupResponse struct {
	Group *Group `json:"group"`
}

type AddMembersRequest struct {
	GroupID string   `json:"group_id"`
	Members []string `json:"members"`
}

type AddMembersResponse struct {
	Group *Group `json:"group"`
}

type RemoveMemberRequest struct {
	GroupID string `json:"group_id"`
	Member  string `json:"member"`
}

type RemoveMemberResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type DeleteGroupResponse struct{}

// ExpenseService

type CreateExpenseRequest struct {
	GroupID      string                     `json:"group_id"`
	Description  string                     `json:"description,omitempty"`
	Amount       decimal.Decimal            `json:"amount"`
	Payer        string                     `json:"payer"`
	Participants []string                   `json:"participants"`
	SplitKind    string                     `json:"split_kind,omitempty"`
	SplitParams  map[string]decimal.Decimal `json:"split_params,omitempty"`
	CreatedBy    string                     `json:"created_by,omitempty"`
}

type CreateExpenseResponse struct {
	Expense  *Expense  `json:"expense"`
	Warnings []Warning `json:"warnings"`
}

type UpdateExpenseRequest struct {
	ExpenseID    string                     `json:"expense_id"`
	Description  string                     `json:"description,omitempty"`
	Amount       decimal.Decimal            `json:"amount"`
	Payer        string                     `json:"payer"`
	Participants []string                   `json:"participants"`
	SplitKind    string                     `json:"split_kind,omitempty"`
	SplitParams  map[string]decimal.Decimal `json:"split_params,omitempty"`
}

type UpdateExpenseResponse struct {
	Expense  *Expense  `json:"expense"`
	Warnings []Warning `json:"warnings"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupID string `json:"group_id"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type PreviewSplitRequest struct {
	GroupID      string                     `json:"group_id"`
	Amount       decimal.Decimal            `json:"amount"`
	Payer        string                     `json:"payer"`
	Participants []string                   `json:"participants"`
	SplitKind    string                     `json:"split_kind,omitempty"`
	SplitParams  map[string]decimal.Decimal `json:"split_params,omitempty"`
}

type PreviewSplitResponse struct {
	// Shares are in participant order.
	Shares   []Share   `json:"shares"`
	Warnings []Warning `json:"warnings"`
}

// LedgerService

type GetBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type GetBalancesResponse struct {
	GroupID    string          `json:"group_id"`
	TotalSpent decimal.Decimal `json:"total_spent"`
	Members    []MemberBalance `json:"members"`
	Warnings   []Warning       `json:"warnings"`
}

type GetSettlementsRequest struct {
	GroupID string `json:"group_id"`
}

type GetSettlementsResponse struct {
	GroupID     string       `json:"group_id"`
	Settlements []Settlement `json:"settlements"`
	Warnings    []Warning    `json:"warnings"`
}

type GetMemberSettlementsRequest struct {
	GroupID string `json:"group_id"`
	// Member defaults to the caller.
	Member string `json:"member,omitempty"`
}

type GetMemberSettlementsResponse struct {
	GroupID     string          `json:"group_id"`
	Member      string          `json:"member"`
	Settlements []Settlement    `json:"settlements"`
	Total       decimal.Decimal `json:"total"`
}

type RecordPaymentRequest struct {
	GroupID   string          `json:"group_id"`
	Payer     string          `json:"payer"`
	Payee     string          `json:"payee"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method,omitempty"`
	Reference string          `json:"reference,omitempty"`
	Note      string          `json:"note,omitempty"`
}

type RecordPaymentResponse struct {
	Payment *Payment `json:"payment"`
}

type ListPaymentsRequest struct {
	GroupID string `json:"group_id"`
}

type ListPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

type DeletePaymentRequest struct {
	PaymentID string `json:"payment_id"`
}

type DeletePaymentResponse struct{}

type SendReminderRequest struct {
	GroupID string `json:"group_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type SendReminderResponse struct {
	Amount decimal.Decimal `json:"amount"`
}
