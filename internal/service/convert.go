package service

import (
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/ledgerrpc"
)

// BalancesMessage is the wire form of b, shared by the RPC and REST APIs.
func BalancesMessage(b *ledger.Balances) *ledgerrpc.GetBalancesResponse {
	return &ledgerrpc.GetBalancesResponse{
		GroupID:    b.GroupID,
		TotalSpent: b.TotalSpent,
		Members:    toRPCBalances(b.Members, b.Positions),
		Warnings:   toRPCWarnings(b.Warnings),
	}
}

// PlanMessage is the wire form of a settlement plan.
func PlanMessage(p *ledger.Plan) *ledgerrpc.GetSettlementsResponse {
	return &ledgerrpc.GetSettlementsResponse{
		GroupID:     p.GroupID,
		Settlements: toRPCSettlements(p.Settlements),
		Warnings:    toRPCWarnings(p.Warnings),
	}
}

// MemberPlanMessage is the wire form of one member's share of a plan.
func MemberPlanMessage(mp *ledger.MemberPlan) *ledgerrpc.GetMemberSettlementsResponse {
	return &ledgerrpc.GetMemberSettlementsResponse{
		GroupID:     mp.GroupID,
		Member:      mp.Member,
		Settlements: toRPCSettlements(mp.Settlements),
		Total:       mp.Total,
	}
}

// PaymentMessage is the wire form of a stored payment.
func PaymentMessage(p *models.Payment) *ledgerrpc.Payment {
	return toRPCPayment(p)
}

func toRPCGroup(g *models.Group) *ledgerrpc.Group {
	return &ledgerrpc.Group{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		Members:   g.Members,
		CreatedAt: g.CreatedAt,
	}
}

func toRPCExpense(e *models.Expense) *ledgerrpc.Expense {
	return &ledgerrpc.Expense{
		ID:           e.ID,
		GroupID:      e.GroupID,
		Description:  e.Description,
		Amount:       e.Amount,
		Payer:        e.Payer,
		Participants: e.Participants,
		SplitKind:    e.SplitKind,
		SplitParams:  e.SplitParams,
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt,
	}
}

func toRPCPayment(p *models.Payment) *ledgerrpc.Payment {
	return &ledgerrpc.Payment{
		ID:         p.ID,
		GroupID:    p.GroupID,
		Payer:      p.Payer,
		Payee:      p.Payee,
		Amount:     p.Amount,
		Method:     string(p.Method),
		Reference:  p.Reference,
		Note:       p.Note,
		RecordedBy: p.RecordedBy,
		CreatedAt:  p.CreatedAt,
	}
}

// toRPCWarnings never returns nil so clients always see a list.
func toRPCWarnings(ws []calculator.Warning) []ledgerrpc.Warning {
	out := make([]ledgerrpc.Warning, 0, len(ws))
	for _, w := range ws {
		out = append(out, ledgerrpc.Warning{
			Kind:      string(w.Kind),
			ExpenseID: w.ExpenseID,
			Expected:  w.Expected,
			Actual:    w.Actual,
			Message:   w.Message,
		})
	}
	return out
}

func toRPCSettlements(ss []calculator.Settlement) []ledgerrpc.Settlement {
	out := make([]ledgerrpc.Settlement, 0, len(ss))
	for _, s := range ss {
		out = append(out, ledgerrpc.Settlement{From: s.From, To: s.To, Amount: s.Amount})
	}
	return out
}

func toRPCBalances(members []string, positions calculator.Positions) []ledgerrpc.MemberBalance {
	out := make([]ledgerrpc.MemberBalance, 0, len(members))
	for _, m := range members {
		pos := positions[m]
		out = append(out, ledgerrpc.MemberBalance{
			Member:       pos.Member,
			Paid:         pos.Paid,
			Share:        pos.Share,
			NetTransfers: pos.NetTransfers,
			Balance:      pos.Balance,
		})
	}
	return out
}
