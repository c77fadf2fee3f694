package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
)

const loanColumns = `id, user_id, shared_account_id, name, description, currency,
	principal_cents, annual_interest_rate, term_months, start_date, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(s rowScanner) (*core.Loan, error) {
	var (
		l                    core.Loan
		sharedID             sql.NullString
		principal            int64
		startDate, createdAt string
	)
	if err := s.Scan(&l.ID, &l.UserID, &sharedID, &l.Name, &l.Description, &l.Currency,
		&principal, &l.AnnualInterestRate, &l.TermMonths, &startDate, &createdAt); err != nil {
		return nil, err
	}
	if sharedID.Valid {
		l.SharedAccountID = &sharedID.String
	}
	l.Principal = core.FromCents(principal)
	start, err := core.ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("parse start_date %q: %w", startDate, err)
	}
	l.StartDate = start
	l.CreatedAt = parseTimestamp(createdAt)
	return &l, nil
}

func (r *Repository) getLoan(ctx context.Context, q querier, id string, forUpdate bool) (*core.Loan, error) {
	query := "SELECT " + loanColumns + " FROM loans WHERE id = ?"
	if forUpdate && r.driver == DriverPostgres {
		query += " FOR UPDATE"
	}
	l, err := scanLoan(q.QueryRowContext(ctx, r.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entity: core.EntityLoan, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return l, nil
}

// CreateLoan stores a new loan.
func (r *Repository) CreateLoan(ctx context.Context, l core.Loan) error {
	_, err := r.db.ExecContext(ctx, r.rebind(`INSERT INTO loans (`+loanColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		l.ID, l.UserID, nullString(l.SharedAccountID), l.Name, l.Description, l.Currency,
		core.ToCents(l.Principal), l.AnnualInterestRate, l.TermMonths, l.StartDate.String(),
		l.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}

	slog.InfoContext(ctx, "Loan saved",
		"id", l.ID,
		"user_id", l.UserID,
		"principal_cents", core.ToCents(l.Principal),
		"term_months", l.TermMonths)
	return nil
}

// GetLoan returns the loan or a NotFoundError.
func (r *Repository) GetLoan(ctx context.Context, id string) (*core.Loan, error) {
	return r.getLoan(ctx, r.db, id, false)
}

// ListLoans returns a user's loans, oldest first.
func (r *Repository) ListLoans(ctx context.Context, userID string) ([]core.Loan, error) {
	return r.queryLoans(ctx, "SELECT "+loanColumns+" FROM loans WHERE user_id = ? ORDER BY created_at, id", userID)
}

// ListAllLoans returns every loan. It feeds the overdue notifier.
func (r *Repository) ListAllLoans(ctx context.Context) ([]core.Loan, error) {
	return r.queryLoans(ctx, "SELECT "+loanColumns+" FROM loans ORDER BY created_at, id")
}

func (r *Repository) queryLoans(ctx context.Context, query string, args ...any) ([]core.Loan, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var loans []core.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loans: %w", err)
	}
	return loans, nil
}

// UpdateLoan overwrites the editable fields of a loan.
func (r *Repository) UpdateLoan(ctx context.Context, l core.Loan) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`UPDATE loans SET
		shared_account_id = ?, name = ?, description = ?, currency = ?,
		principal_cents = ?, annual_interest_rate = ?, term_months = ?, start_date = ?
		WHERE id = ?`),
		nullString(l.SharedAccountID), l.Name, l.Description, l.Currency,
		core.ToCents(l.Principal), l.AnnualInterestRate, l.TermMonths, l.StartDate.String(), l.ID)
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Entity: core.EntityLoan, ID: l.ID}
	}

	slog.InfoContext(ctx, "Loan updated", "id", l.ID)
	return nil
}

// DeleteLoan removes a loan. Loans with payments are protected by the
// foreign key on loan_payments.
func (r *Repository) DeleteLoan(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.rebind("DELETE FROM loans WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Entity: core.EntityLoan, ID: id}
	}

	slog.InfoContext(ctx, "Loan deleted", "id", id)
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
