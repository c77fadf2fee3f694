// Package http provides the JSON API over the loan ledger services.
//
// This file builds the JSON responses, including the mapping of typed
// domain errors to status codes.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
	applog "github.com/hrcamilo11/Presupuesto-sub001/internal/log"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error                string            `json:"error"`
	Violations           []string          `json:"violations,omitempty"`
	ReconciliationNeeded bool              `json:"reconciliation_needed,omitempty"`
	Applied              map[string]string `json:"applied,omitempty"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", applog.FieldError, err)
	}
}

// writeError renders err with the status its type maps to.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, r.Method+" "+r.URL.Path, nil)
	}
	writeJSON(w, status, body)
}

func errorResponse(err error) (int, ErrorResponse) {
	var (
		validation *core.ValidationError
		notFound   *core.NotFoundError
		conflict   *core.ConflictError
		partial    *core.PartialApplicationError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: validation.Error(), Violations: validation.Violations}
	case errors.As(err, &notFound):
		return http.StatusNotFound, ErrorResponse{Error: notFound.Error()}
	case errors.As(err, &conflict):
		return http.StatusConflict, ErrorResponse{Error: conflict.Error()}
	case errors.As(err, &partial):
		return http.StatusInternalServerError, ErrorResponse{
			Error:                "El pago quedó aplicado parcialmente y requiere conciliación",
			ReconciliationNeeded: true,
			Applied:              partial.Applied,
		}
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "Error interno"}
	}
}
