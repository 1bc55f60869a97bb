package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage"
)

type errorBody struct {
	Error string `json:"error"`
}

var errForbidden = errors.New("caller is not a member of the group")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidPayment),
		errors.Is(err, ledger.ErrInvalidExpense),
		errors.Is(err, calculator.ErrInvalidSplit):
		status = http.StatusBadRequest
	case errors.Is(err, errForbidden):
		status = http.StatusForbidden
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// authorize lets anonymous requests through (RequireAuthHTTP already decided
// they may proceed) and rejects authenticated callers outside the group.
func (a *API) authorize(r *http.Request, groupID string) error {
	caller := middleware.GetMember(r.Context())
	if caller == "" {
		return nil
	}
	group, err := a.groups.GetGroup(r.Context(), groupID)
	if err != nil {
		return err
	}
	if !group.HasMember(caller) {
		return fmt.Errorf("%w: %q", errForbidden, caller)
	}
	return nil
}

func (a *API) handleBalances(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["group_id"]
	if err := a.authorize(r, groupID); err != nil {
		writeError(w, err)
		return
	}

	b, err := a.ledger.ComputeBalances(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, service.BalancesMessage(b))
}

func (a *API) handleSettlements(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["group_id"]
	if err := a.authorize(r, groupID); err != nil {
		writeError(w, err)
		return
	}

	plan, err := a.ledger.ComputeSettlements(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, service.PlanMessage(plan))
}

func (a *API) handleMemberSettlements(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := a.authorize(r, vars["group_id"]); err != nil {
		writeError(w, err)
		return
	}

	mp, err := a.ledger.SettlementsFor(r.Context(), vars["group_id"], vars["member"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, service.MemberPlanMessage(mp))
}

type paymentRequest struct {
	Payer     string          `json:"payer"`
	Payee     string          `json:"payee"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	Note      string          `json:"note"`
}

// handleRecordPayment answers 201 with the stored payment. The payer
// defaults to the authenticated member.
func (a *API) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID := mux.Vars(r)["group_id"]

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return
	}

	if err := a.authorize(r, groupID); err != nil {
		writeError(w, err)
		return
	}
	caller := middleware.GetMember(ctx)
	if req.Payer == "" {
		req.Payer = caller
	}

	payment, err := a.ledger.RecordPayment(ctx, ledger.PaymentInput{
		GroupID:    groupID,
		Payer:      req.Payer,
		Payee:      req.Payee,
		Amount:     req.Amount,
		Method:     req.Method,
		Reference:  req.Reference,
		Note:       req.Note,
		RecordedBy: caller,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, service.PaymentMessage(payment))
}
