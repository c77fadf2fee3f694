package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
)

const paymentColumns = `id, loan_id, intent_id, payment_number, paid_at, amount_cents,
	principal_cents, interest_cents, balance_after_cents, wallet_id, created_at`

func scanPayment(s rowScanner) (*core.LoanPayment, error) {
	var (
		p                                  core.LoanPayment
		intentID                           sql.NullString
		amount, principal, interest, after int64
		paidAt, createdAt                  string
	)
	if err := s.Scan(&p.ID, &p.LoanID, &intentID, &p.PaymentNumber, &paidAt, &amount,
		&principal, &interest, &after, &p.WalletID, &createdAt); err != nil {
		return nil, err
	}
	if intentID.Valid {
		p.IntentID = &intentID.String
	}
	d, err := core.ParseDate(paidAt)
	if err != nil {
		return nil, fmt.Errorf("parse paid_at %q: %w", paidAt, err)
	}
	p.PaidAt = d
	p.Amount = core.FromCents(amount)
	p.PrincipalPortion = core.FromCents(principal)
	p.InterestPortion = core.FromCents(interest)
	p.BalanceAfter = core.FromCents(after)
	p.CreatedAt = parseTimestamp(createdAt)
	return &p, nil
}

func (r *Repository) queryPayment(ctx context.Context, q querier, query string, args ...any) (*core.LoanPayment, error) {
	p, err := scanPayment(q.QueryRowContext(ctx, r.rebind(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get loan payment: %w", err)
	}
	return p, nil
}

func (r *Repository) lastPayment(ctx context.Context, q querier, loanID string) (*core.LoanPayment, error) {
	return r.queryPayment(ctx, q, "SELECT "+paymentColumns+
		" FROM loan_payments WHERE loan_id = ? ORDER BY payment_number DESC LIMIT 1", loanID)
}

// ListPayments returns a loan's payments in payment-number order.
func (r *Repository) ListPayments(ctx context.Context, loanID string) ([]core.LoanPayment, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind("SELECT "+paymentColumns+
		" FROM loan_payments WHERE loan_id = ? ORDER BY payment_number"), loanID)
	if err != nil {
		return nil, fmt.Errorf("list loan payments: %w", err)
	}
	defer rows.Close()

	var payments []core.LoanPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loan payments: %w", err)
	}
	return payments, nil
}

// LastPayment returns the highest-numbered payment of a loan, or nil.
func (r *Repository) LastPayment(ctx context.Context, loanID string) (*core.LoanPayment, error) {
	return r.lastPayment(ctx, r.db, loanID)
}

// CountPayments returns how many payments a loan has.
func (r *Repository) CountPayments(ctx context.Context, loanID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, r.rebind("SELECT COUNT(*) FROM loan_payments WHERE loan_id = ?"), loanID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count loan payments: %w", err)
	}
	return n, nil
}
