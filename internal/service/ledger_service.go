package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/ledgerrpc"
)

// LedgerService implements the Connect LedgerService: balances,
// settlements, payments and reminders.
type LedgerService struct {
	store    storage.Store
	ledger   *ledger.Ledger
	notifier notify.Notifier
	metrics  *metrics.Metrics
}

var _ ledgerrpc.LedgerServiceHandler = (*LedgerService)(nil)

// NewLedgerService wires the service. m may be nil.
func NewLedgerService(store storage.Store, l *ledger.Ledger, n notify.Notifier, m *metrics.Metrics) *LedgerService {
	if n == nil {
		n = notify.NewLogNotifier(slog.Default())
	}
	return &LedgerService{store: store, ledger: l, notifier: n, metrics: m}
}

// GetBalances returns every member's position, sorted by member.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[ledgerrpc.GetBalancesRequest]) (*connect.Response[ledgerrpc.GetBalancesResponse], error) {
	slog.Info("GetBalances request received", "group_id", req.Msg.GroupID)

	if _, err := loadGroup(ctx, s.store, req.Msg.GroupID); err != nil {
		return nil, toConnectError("GetBalances", err)
	}

	b, err := s.ledger.ComputeBalances(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("GetBalances", err)
	}

	slog.Info("GetBalances successful",
		"group_id", b.GroupID,
		"members_count", len(b.Members),
		"warnings_count", len(b.Warnings),
	)

	return connect.NewResponse(BalancesMessage(b)), nil
}

// GetSettlements returns the transfers that settle the group.
func (s *LedgerService) GetSettlements(ctx context.Context, req *connect.Request[ledgerrpc.GetSettlementsRequest]) (*connect.Response[ledgerrpc.GetSettlementsResponse], error) {
	slog.Info("GetSettlements request received", "group_id", req.Msg.GroupID)

	if _, err := loadGroup(ctx, s.store, req.Msg.GroupID); err != nil {
		return nil, toConnectError("GetSettlements", err)
	}

	plan, err := s.ledger.ComputeSettlements(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("GetSettlements", err)
	}

	slog.Info("GetSettlements successful",
		"group_id", plan.GroupID,
		"settlements_count", len(plan.Settlements),
	)

	return connect.NewResponse(PlanMessage(plan)), nil
}

// GetMemberSettlements returns what one member has to pay, defaulting to
// the caller.
func (s *LedgerService) GetMemberSettlements(ctx context.Context, req *connect.Request[ledgerrpc.GetMemberSettlementsRequest]) (*connect.Response[ledgerrpc.GetMemberSettlementsResponse], error) {
	member := req.Msg.Member
	if member == "" {
		member = actor(ctx, "")
	}
	slog.Info("GetMemberSettlements request received", "group_id", req.Msg.GroupID, "member", member)

	if member == "" {
		return nil, toConnectError("GetMemberSettlements", invalidArgument("member required"))
	}
	if _, err := loadGroup(ctx, s.store, req.Msg.GroupID); err != nil {
		return nil, toConnectError("GetMemberSettlements", err)
	}

	mp, err := s.ledger.SettlementsFor(ctx, req.Msg.GroupID, member)
	if err != nil {
		return nil, toConnectError("GetMemberSettlements", err)
	}

	return connect.NewResponse(MemberPlanMessage(mp)), nil
}

// RecordPayment validates a payment and stores it. The payer defaults to
// the caller.
func (s *LedgerService) RecordPayment(ctx context.Context, req *connect.Request[ledgerrpc.RecordPaymentRequest]) (*connect.Response[ledgerrpc.RecordPaymentResponse], error) {
	payer := req.Msg.Payer
	if payer == "" {
		payer = actor(ctx, "")
	}
	slog.Info("RecordPayment request received",
		"group_id", req.Msg.GroupID,
		"payer", payer,
		"payee", req.Msg.Payee,
		"amount", req.Msg.Amount.String(),
		"method", req.Msg.Method,
	)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("RecordPayment", err)
	}

	payment, err := s.ledger.RecordPayment(ctx, ledger.PaymentInput{
		GroupID:    group.ID,
		Payer:      payer,
		Payee:      req.Msg.Payee,
		Amount:     req.Msg.Amount,
		Method:     req.Msg.Method,
		Reference:  req.Msg.Reference,
		Note:       req.Msg.Note,
		RecordedBy: actor(ctx, ""),
	})
	if err != nil {
		return nil, toConnectError("RecordPayment", err)
	}

	return connect.NewResponse(&ledgerrpc.RecordPaymentResponse{Payment: toRPCPayment(payment)}), nil
}

func (s *LedgerService) ListPayments(ctx context.Context, req *connect.Request[ledgerrpc.ListPaymentsRequest]) (*connect.Response[ledgerrpc.ListPaymentsResponse], error) {
	slog.Info("ListPayments request received", "group_id", req.Msg.GroupID)

	if _, err := loadGroup(ctx, s.store, req.Msg.GroupID); err != nil {
		return nil, toConnectError("ListPayments", err)
	}
	payments, err := s.store.ListPaymentsByGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("ListPayments", err)
	}

	out := make([]*ledgerrpc.Payment, len(payments))
	for i, p := range payments {
		out[i] = toRPCPayment(p)
	}

	return connect.NewResponse(&ledgerrpc.ListPaymentsResponse{Payments: out}), nil
}

// DeletePayment removes a payment recorded by mistake.
func (s *LedgerService) DeletePayment(ctx context.Context, req *connect.Request[ledgerrpc.DeletePaymentRequest]) (*connect.Response[ledgerrpc.DeletePaymentResponse], error) {
	slog.Info("DeletePayment request received", "payment_id", req.Msg.PaymentID)

	payment, err := s.store.GetPayment(ctx, req.Msg.PaymentID)
	if err != nil {
		return nil, toConnectError("DeletePayment", err)
	}
	group, err := loadGroup(ctx, s.store, payment.GroupID)
	if err != nil {
		return nil, toConnectError("DeletePayment", err)
	}

	if err := s.store.DeletePayment(ctx, payment.ID); err != nil {
		return nil, toConnectError("DeletePayment", err)
	}

	slog.Info("Payment deleted", "payment_id", payment.ID, "group_id", group.ID)

	return connect.NewResponse(&ledgerrpc.DeletePaymentResponse{}), nil
}

// SendReminder nudges From about the From -> To line of the current plan.
// It fails with NotFound when the plan has no such line.
func (s *LedgerService) SendReminder(ctx context.Context, req *connect.Request[ledgerrpc.SendReminderRequest]) (*connect.Response[ledgerrpc.SendReminderResponse], error) {
	to := req.Msg.To
	if to == "" {
		to = actor(ctx, "")
	}
	slog.Info("SendReminder request received", "group_id", req.Msg.GroupID, "from", req.Msg.From, "to", to)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("SendReminder", err)
	}

	mp, err := s.ledger.SettlementsFor(ctx, group.ID, req.Msg.From)
	if err != nil {
		return nil, toConnectError("SendReminder", err)
	}

	for _, line := range mp.Settlements {
		if line.To != to {
			continue
		}
		err := s.notifier.NotifyReminder(ctx, notify.Reminder{
			GroupID:     group.ID,
			GroupName:   group.Name,
			From:        line.From,
			To:          line.To,
			Amount:      line.Amount,
			RequestedBy: actor(ctx, to),
			Timestamp:   time.Now(),
		})
		if err != nil {
			return nil, toConnectError("SendReminder", err)
		}
		s.metrics.ReminderSent()

		slog.Info("Reminder sent", "group_id", group.ID, "from", line.From, "to", line.To)

		return connect.NewResponse(&ledgerrpc.SendReminderResponse{Amount: line.Amount}), nil
	}

	return nil, toConnectError("SendReminder",
		fmt.Errorf("%s owes %s nothing in group %s: %w", req.Msg.From, to, group.ID, storage.ErrNotFound))
}
