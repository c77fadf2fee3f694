package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
	"github.com/shopspring/decimal"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// decodeJSON reads the request body into dst, rejecting unknown fields and
// trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("el cuerpo de la petición está vacío")
		}
		return badRequest("JSON inválido: %v", err)
	}
	if dec.More() {
		return badRequest("el cuerpo debe contener un solo objeto JSON")
	}
	return nil
}

// queryAmount parses a money amount from the query string.
func queryAmount(r *http.Request, key string) (decimal.Decimal, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	d, err := core.ParseAmount(v)
	if err != nil {
		return decimal.Zero, &core.ValidationError{Violations: []string{fmt.Sprintf("%s: monto inválido", key)}}
	}
	return d, nil
}

// AmortizationQuery holds the parameters of a read-only schedule projection.
type AmortizationQuery struct {
	Principal  float64
	Rate       float64
	TermMonths int
	Start      time.Time
}

// parseAmortizationQuery reads principal, rate, term and start, reporting
// every invalid parameter at once. start defaults to today.
func parseAmortizationQuery(r *http.Request, now time.Time) (AmortizationQuery, error) {
	q := r.URL.Query()
	var v core.ValidationError
	var out AmortizationQuery

	if p, err := core.ParseAmount(q.Get("principal")); err != nil {
		v.Add("principal: debe ser un monto mayor a 0")
	} else {
		out.Principal = p.InexactFloat64()
	}

	rate, err := strconv.ParseFloat(strings.TrimSpace(q.Get("rate")), 64)
	if err != nil || !core.ValidRate(rate) {
		v.Add(fmt.Sprintf("rate: debe estar entre 0 y %g", core.MaxAnnualInterestRate))
	}
	out.Rate = rate

	term, err := strconv.Atoi(strings.TrimSpace(q.Get("term")))
	if err != nil || term < 1 || term > core.MaxTermMonths {
		v.Add(fmt.Sprintf("term: debe estar entre 1 y %d meses", core.MaxTermMonths))
	}
	out.TermMonths = term

	out.Start = core.DateOf(now).Time
	if s := strings.TrimSpace(q.Get("start")); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			v.Add("start: fecha inválida (AAAA-MM-DD)")
		} else {
			out.Start = d.Time
		}
	}

	return out, v.OrNil()
}
