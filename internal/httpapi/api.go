// Package httpapi serves the plain JSON REST view of the ledger: balances,
// settlements and payment recording for a group.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/storage"
)

type API struct {
	router *mux.Router
	ledger *ledger.Ledger
	groups storage.GroupStore
}

// New builds the router. Authentication is applied by the caller around
// Handler.
func New(l *ledger.Ledger, groups storage.GroupStore) *API {
	api := &API{
		router: mux.NewRouter(),
		ledger: l,
		groups: groups,
	}
	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	a.router.HandleFunc("/groups/{group_id}/balances", a.handleBalances).Methods(http.MethodGet)
	a.router.HandleFunc("/groups/{group_id}/settlements", a.handleSettlements).Methods(http.MethodGet)
	a.router.HandleFunc("/groups/{group_id}/settlements/{member}", a.handleMemberSettlements).Methods(http.MethodGet)
	a.router.HandleFunc("/groups/{group_id}/payments", a.handleRecordPayment).Methods(http.MethodPost)

	a.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no route for " + r.Method + " " + r.URL.Path})
	})
}

// Handler returns the router.
func (a *API) Handler() http.Handler {
	return a.router
}
