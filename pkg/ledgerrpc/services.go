package ledgerrpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	GroupServiceName   = "splitledger.v1.GroupService"
	ExpenseServiceName = "splitledger.v1.ExpenseService"
	LedgerServiceName  = "splitledger.v1.LedgerService"
)

const (
	GroupServiceCreateGroupProcedure  = "/splitledger.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure     = "/splitledger.v1.GroupService/GetGroup"
	GroupServiceListGroupsProcedure   = "/splitledger.v1.GroupService/ListGroups"
	GroupServiceRenameGroupProcedure  = "/splitledger.v1.GroupService/RenameGroup"
	GroupServiceAddMembersProcedure   = "/splitledger.v1.GroupService/AddMembers"
	GroupServiceRemoveMemberProcedure = "/splitledger.v1.GroupService/RemoveMember"
	GroupServiceDeleteGroupProcedure  = "/splitledger.v1.GroupService/DeleteGroup"

	ExpenseServiceCreateExpenseProcedure = "/splitledger.v1.ExpenseService/CreateExpense"
	ExpenseServiceUpdateExpenseProcedure = "/splitledger.v1.ExpenseService/UpdateExpense"
	ExpenseServiceGetExpenseProcedure    = "/splitledger.v1.ExpenseService/GetExpense"
	ExpenseServiceListExpensesProcedure  = "/splitledger.v1.ExpenseService/ListExpenses"
	ExpenseServiceDeleteExpenseProcedure = "/splitledger.v1.ExpenseService/DeleteExpense"
	ExpenseServicePreviewSplitProcedure  = "/splitledger.v1.ExpenseService/PreviewSplit"

	LedgerServiceGetBalancesProcedure          = "/splitledger.v1.LedgerService/GetBalances"
	LedgerServiceGetSettlementsProcedure       = "/splitledger.v1.LedgerService/GetSettlements"
	LedgerServiceGetMemberSettlementsProcedure = "/splitledger.v1.LedgerService/GetMemberSettlements"
	LedgerServiceRecordPaymentProcedure        = "/splitledger.v1.LedgerService/RecordPayment"
	LedgerServiceListPaymentsProcedure         = "/splitledger.v1.LedgerService/ListPayments"
	LedgerServiceDeletePaymentProcedure        = "/splitledger.v1.LedgerService/DeletePayment"
	LedgerServiceSendReminderProcedure         = "/splitledger.v1.LedgerService/SendReminder"
)

// GroupServiceHandler is implemented by the server.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error)
	RenameGroup(context.Context, *connect.Request[RenameGroupRequest]) (*connect.Response[RenameGroupResponse], error)
	AddMembers(context.Context, *connect.Request[AddMembersRequest]) (*connect.Response[AddMembersResponse], error)
	RemoveMember(context.Context, *connect.Request[RemoveMemberRequest]) (*connect.Response[RemoveMemberResponse], error)
	DeleteGroup(context.Context, *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error)
}

// ExpenseServiceHandler is implemented by the server.
type ExpenseServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[GetExpenseRequest]) (*connect.Response[GetExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error)
	DeleteExpense(context.Context, *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error)
	PreviewSplit(context.Context, *connect.Request[PreviewSplitRequest]) (*connect.Response[PreviewSplitResponse], error)
}

// LedgerServiceHandler is implemented by the server.
type LedgerServiceHandler interface {
	GetBalances(context.Context, *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error)
	GetSettlements(context.Context, *connect.Request[GetSettlementsRequest]) (*connect.Response[GetSettlementsResponse], error)
	GetMemberSettlements(context.Context, *connect.Request[GetMemberSettlementsRequest]) (*connect.Response[GetMemberSettlementsResponse], error)
	RecordPayment(context.Context, *connect.Request[RecordPaymentRequest]) (*connect.Response[RecordPaymentResponse], error)
	ListPayments(context.Context, *connect.Request[ListPaymentsRequest]) (*connect.Response[ListPaymentsResponse], error)
	DeletePayment(context.Context, *connect.Request[DeletePaymentRequest]) (*connect.Response[DeletePaymentResponse], error)
	SendReminder(context.Context, *connect.Request[SendReminderRequest]) (*connect.Response[SendReminderResponse], error)
}

// route registers one unary procedure on mux.
func route[Req, Res any](
	mux *http.ServeMux,
	procedure string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts []connect.HandlerOption,
) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{handlerCodecs()}, opts...)
}

// NewGroupServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	o := handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, GroupServiceCreateGroupProcedure, svc.CreateGroup, o)
	route(mux, GroupServiceGetGroupProcedure, svc.GetGroup, o)
	route(mux, GroupServiceListGroupsProcedure, svc.ListGroups, o)
	route(mux, GroupServiceRenameGroupProcedure, svc.RenameGroup, o)
	route(mux, GroupServiceAddMembersProcedure, svc.AddMembers, o)
	route(mux, GroupServiceRemoveMemberProcedure, svc.RemoveMember, o)
	route(mux, GroupServiceDeleteGroupProcedure, svc.DeleteGroup, o)
	return "/" + GroupServiceName + "/", mux
}

// NewExpenseServiceHandler builds an HTTP handler from the service implementation.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	o := handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, o)
	route(mux, ExpenseServiceUpdateExpenseProcedure, svc.UpdateExpense, o)
	route(mux, ExpenseServiceGetExpenseProcedure, svc.GetExpense, o)
	route(mux, ExpenseServiceListExpensesProcedure, svc.ListExpenses, o)
	route(mux, ExpenseServiceDeleteExpenseProcedure, svc.DeleteExpense, o)
	route(mux, ExpenseServicePreviewSplitProcedure, svc.PreviewSplit, o)
	return "/" + ExpenseServiceName + "/", mux
}

// NewLedgerServiceHandler builds an HTTP handler from the service implementation.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	o := handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, LedgerServiceGetBalancesProcedure, svc.GetBalances, o)
	route(mux, LedgerServiceGetSettlementsProcedure, svc.GetSettlements, o)
	route(mux, LedgerServiceGetMemberSettlementsProcedure, svc.GetMemberSettlements, o)
	route(mux, LedgerServiceRecordPaymentProcedure, svc.RecordPayment, o)
	route(mux, LedgerServiceListPaymentsProcedure, svc.ListPayments, o)
	route(mux, LedgerServiceDeletePaymentProcedure, svc.DeletePayment, o)
	route(mux, LedgerServiceSendReminderProcedure, svc.SendReminder, o)
	return "/" + LedgerServiceName + "/", mux
}

func client[Req, Res any](httpClient connect.HTTPClient, baseURL, procedure string, opts []connect.ClientOption) *connect.Client[Req, Res] {
	return connect.NewClient[Req, Res](httpClient, strings.TrimRight(baseURL, "/")+procedure, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{WithJSON()}, opts...)
}

// GroupServiceClient calls GroupService.
type GroupServiceClient struct {
	createGroup  *connect.Client[CreateGroupRequest, CreateGroupResponse]
	getGroup     *connect.Client[GetGroupRequest, GetGroupResponse]
	listGroups   *connect.Client[ListGroupsRequest, ListGroupsResponse]
	renameGroup  *connect.Client[RenameGroupRequest, RenameGroupResponse]
	addMembers   *connect.Client[AddMembersRequest, AddMembersResponse]
	removeMember *connect.Client[RemoveMemberRequest, RemoveMemberResponse]
	deleteGroup  *connect.Client[DeleteGroupRequest, DeleteGroupResponse]
}

// NewGroupServiceClient constructs a client for GroupService. baseURL is
// the server root, e.g. http://localhost:8080.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	o := clientOptions(opts)
	return &GroupServiceClient{
		createGroup:  client[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL, GroupServiceCreateGroupProcedure, o),
		getGroup:     client[GetGroupRequest, GetGroupResponse](httpClient, baseURL, GroupServiceGetGroupProcedure, o),
		listGroups:   client[ListGroupsRequest, ListGroupsResponse](httpClient, baseURL, GroupServiceListGroupsProcedure, o),
		renameGroup:  client[RenameGroupRequest, RenameGroupResponse](httpClient, baseURL, GroupServiceRenameGroupProcedure, o),
		addMembers:   client[AddMembersRequest, AddMembersResponse](httpClient, baseURL, GroupServiceAddMembersProcedure, o),
		removeMember: client[RemoveMemberRequest, RemoveMemberResponse](httpClient, baseURL, GroupServiceRemoveMemberProcedure, o),
		deleteGroup:  client[DeleteGroupRequest, DeleteGroupResponse](httpClient, baseURL, GroupServiceDeleteGroupProcedure, o),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *GroupServiceClient) RenameGroup(ctx context.Context, req *connect.Request[RenameGroupRequest]) (*connect.Response[RenameGroupResponse], error) {
	return c.renameGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) AddMembers(ctx context.Context, req *connect.Request[AddMembersRequest]) (*connect.Response[AddMembersResponse], error) {
	return c.addMembers.CallUnary(ctx, req)
}

func (c *GroupServiceClient) RemoveMember(ctx context.Context, req *connect.Request[RemoveMemberRequest]) (*connect.Response[RemoveMemberResponse], error) {
	return c.removeMember.CallUnary(ctx, req)
}

func (c *GroupServiceClient) DeleteGroup(ctx context.Context, req *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

// ExpenseServiceClient calls ExpenseService.
type ExpenseServiceClient struct {
	createExpense *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	updateExpense *connect.Client[UpdateExpenseRequest, UpdateExpenseResponse]
	getExpense    *connect.Client[GetExpenseRequest, GetExpenseResponse]
	listExpenses  *connect.Client[ListExpensesRequest, ListExpensesResponse]
	deleteExpense *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	previewSplit  *connect.Client[PreviewSplitRequest, PreviewSplitResponse]
}

func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ExpenseServiceClient {
	o := clientOptions(opts)
	return &ExpenseServiceClient{
		createExpense: client[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL, ExpenseServiceCreateExpenseProcedure, o),
		updateExpense: client[UpdateExpenseRequest, UpdateExpenseResponse](httpClient, baseURL, ExpenseServiceUpdateExpenseProcedure, o),
		getExpense:    client[GetExpenseRequest, GetExpenseResponse](httpClient, baseURL, ExpenseServiceGetExpenseProcedure, o),
		listExpenses:  client[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL, ExpenseServiceListExpensesProcedure, o),
		deleteExpense: client[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL, ExpenseServiceDeleteExpenseProcedure, o),
		previewSplit:  client[PreviewSplitRequest, PreviewSplitResponse](httpClient, baseURL, ExpenseServicePreviewSplitProcedure, o),
	}
}

func (c *ExpenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetExpense(ctx context.Context, req *connect.Request[GetExpenseRequest]) (*connect.Response[GetExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) PreviewSplit(ctx context.Context, req *connect.Request[PreviewSplitRequest]) (*connect.Response[PreviewSplitResponse], error) {
	return c.previewSplit.CallUnary(ctx, req)
}

// LedgerServiceClient calls LedgerService.
type LedgerServiceClient struct {
	getBalances          *connect.Client[GetBalancesRequest, GetBalancesResponse]
	getSettlements       *connect.Client[GetSettlementsRequest, GetSettlementsResponse]
	getMemberSettlements *connect.Client[GetMemberSettlementsRequest, GetMemberSettlementsResponse]
	recordPayment        *connect.Client[RecordPaymentRequest, RecordPaymentResponse]
	listPayments         *connect.Client[ListPaymentsRequest, ListPaymentsResponse]
	deletePayment        *connect.Client[DeletePaymentRequest, DeletePaymentResponse]
	sendReminder         *connect.Client[SendReminderRequest, SendReminderResponse]
}

func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerServiceClient {
	o := clientOptions(opts)
	return &LedgerServiceClient{
		getBalances:          client[GetBalancesRequest, GetBalancesResponse](httpClient, baseURL, LedgerServiceGetBalancesProcedure, o),
		getSettlements:       client[GetSettlementsRequest, GetSettlementsResponse](httpClient, baseURL, LedgerServiceGetSettlementsProcedure, o),
		getMemberSettlements: client[GetMemberSettlementsRequest, GetMemberSettlementsResponse](httpClient, baseURL, LedgerServiceGetMemberSettlementsProcedure, o),
		recordPayment:        client[RecordPaymentRequest, RecordPaymentResponse](httpClient, baseURL, LedgerServiceRecordPaymentProcedure, o),
		listPayments:         client[ListPaymentsRequest, ListPaymentsResponse](httpClient, baseURL, LedgerServiceListPaymentsProcedure, o),
		deletePayment:        client[DeletePaymentRequest, DeletePaymentResponse](httpClient, baseURL, LedgerServiceDeletePaymentProcedure, o),
		sendReminder:         client[SendReminderRequest, SendReminderResponse](httpClient, baseURL, LedgerServiceSendReminderProcedure, o),
	}
}

func (c *LedgerServiceClient) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetSettlements(ctx context.Context, req *connect.Request[GetSettlementsRequest]) (*connect.Response[GetSettlementsResponse], error) {
	return c.getSettlements.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetMemberSettlements(ctx context.Context, req *connect.Request[GetMemberSettlementsRequest]) (*connect.Response[GetMemberSettlementsResponse], error) {
	return c.getMemberSettlements.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) RecordPayment(ctx context.Context, req *connect.Request[RecordPaymentRequest]) (*connect.Response[RecordPaymentResponse], error) {
	return c.recordPayment.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ListPayments(ctx context.Context, req *connect.Request[ListPaymentsRequest]) (*connect.Response[ListPaymentsResponse], error) {
	return c.listPayments.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) DeletePayment(ctx context.Context, req *connect.Request[DeletePaymentRequest]) (*connect.Response[DeletePaymentResponse], error) {
	return c.deletePayment.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) SendReminder(ctx context.Context, req *connect.Request[SendReminderRequest]) (*connect.Response[SendReminderResponse], error) {
	return c.sendReminder.CallUnary(ctx, req)
}
