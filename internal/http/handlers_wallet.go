package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/amortization"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
	applog "github.com/hrcamilo11/Presupuesto-sub001/internal/log"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/services"
)

func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	var in services.WalletInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	wallet, err := s.wallets.CreateWallet(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Wallet created",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldWalletID, wallet.ID)
	writeJSON(w, http.StatusCreated, wallet)
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, r, &core.ValidationError{Violations: []string{"user_id es obligatorio"}})
		return
	}

	wallets, err := s.wallets.ListWallets(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wallets == nil {
		wallets = []core.Wallet{}
	}
	writeJSON(w, http.StatusOK, wallets)
}

func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.wallets.GetWallet(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (s *Server) handleCreditCardSchedule(w http.ResponseWriter, r *http.Request) {
	payment, err := queryAmount(r, "payment")
	if err != nil {
		writeError(w, r, err)
		return
	}

	projection, err := s.wallets.CreditCardProjection(r.Context(), mux.Vars(r)["id"], payment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projection)
}

// AmortizationResponse is a read-only projection of a hypothetical loan.
type AmortizationResponse struct {
	MonthlyPayment float64              `json:"monthly_payment"`
	Summary        amortization.Summary `json:"summary"`
	Schedule       []amortization.Row   `json:"schedule"`
}

func (s *Server) handleAmortization(w http.ResponseWriter, r *http.Request) {
	q, err := parseAmortizationQuery(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows := amortization.Schedule(q.Principal, q.Rate, q.TermMonths, q.Start)
	writeJSON(w, http.StatusOK, AmortizationResponse{
		MonthlyPayment: core.FromFloat(amortization.MonthlyPayment(q.Principal, q.Rate, q.TermMonths)).InexactFloat64(),
		Summary:        amortization.Summarize(rows),
		Schedule:       rows,
	})
}
