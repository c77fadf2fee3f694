package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
	applog "github.com/hrcamilo11/Presupuesto-sub001/internal/log"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/services"
)

// IdempotencyKeyHeader lets clients retry a payment safely; it is used as
// the payment's intent id.
const IdempotencyKeyHeader = "Idempotency-Key"

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var in services.LoanInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	loan, err := s.loans.CreateLoan(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Loan created",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldLoanID, loan.ID)
	writeJSON(w, http.StatusCreated, loan)
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, r, &core.ValidationError{Violations: []string{"user_id es obligatorio"}})
		return
	}

	loans, err := s.loans.ListLoans(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if loans == nil {
		loans = []core.Loan{}
	}
	writeJSON(w, http.StatusOK, loans)
}

func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	detail, err := s.loans.LoanDetail(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUpdateLoan(w http.ResponseWriter, r *http.Request) {
	var u services.LoanUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, r, err)
		return
	}

	loan, err := s.loans.UpdateLoan(r.Context(), mux.Vars(r)["id"], u)
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Loan updated",
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldLoanID, loan.ID)
	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.loans.DeleteLoan(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Loan deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldLoanID, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoanSchedule(w http.ResponseWriter, r *http.Request) {
	rows, err := s.loans.Schedule(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.loans.ListPayments(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if payments == nil {
		payments = []core.LoanPayment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

// handleRecordPayment applies one real-world payment. A replayed intent
// answers 200 with the original receipt; a new payment answers 201.
func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var in core.PaymentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader)); key != "" {
		if in.IntentID != "" && in.IntentID != key {
			writeError(w, r, &core.ValidationError{Violations: []string{"intent_id no coincide con el encabezado Idempotency-Key"}})
			return
		}
		in.IntentID = key
	}

	loanID := mux.Vars(r)["id"]
	receipt, err := s.ledger.RecordLoanPayment(r.Context(), loanID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if receipt.Replayed {
		status = http.StatusOK
	} else {
		p := receipt.Payment
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogPaymentRecorded(r.Context(), loanID, p.ID, p.PaymentNumber, p.Amount.StringFixed(2), p.BalanceAfter.StringFixed(2))
	}
	writeJSON(w, status, receipt)
}
