package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
)

const expenseColumns = `id, user_id, wallet_id, loan_payment_id, amount_cents, currency,
	priority, description, date, sync_status, version, created_at`

// PendingSyncExpense is the minimal data needed to enqueue a sheet sync.
type PendingSyncExpense struct {
	ID        string
	Version   int64
	CreatedAt time.Time
}

func scanExpense(s rowScanner) (*core.Expense, error) {
	var (
		e                core.Expense
		paymentID        sql.NullString
		amount           int64
		priority, status string
		date, createdAt  string
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.WalletID, &paymentID, &amount, &e.Currency,
		&priority, &e.Description, &date, &status, &e.Version, &createdAt); err != nil {
		return nil, err
	}
	if paymentID.Valid {
		e.LoanPaymentID = &paymentID.String
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("parse expense date %q: %w", date, err)
	}
	e.Date = d
	e.Amount = core.FromCents(amount)
	e.Priority = core.ExpensePriority(priority)
	e.SyncStatus = core.SyncStatus(status)
	e.CreatedAt = parseTimestamp(createdAt)
	return &e, nil
}

func (r *Repository) insertExpense(ctx context.Context, q querier, e core.Expense) error {
	version := e.Version
	if version == 0 {
		version = 1
	}
	status := e.SyncStatus
	if status == "" {
		status = core.SyncPending
	}
	_, err := q.ExecContext(ctx, r.rebind(`INSERT INTO expenses (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.UserID, e.WalletID, nullString(e.LoanPaymentID), core.ToCents(e.Amount), e.Currency,
		string(e.Priority), e.Description, e.Date.String(), string(status), version,
		e.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (r *Repository) queryExpense(ctx context.Context, q querier, query string, args ...any) (*core.Expense, error) {
	e, err := scanExpense(q.QueryRowContext(ctx, r.rebind(query), args...))
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetExpense retrieves a single expense by ID.
func (r *Repository) GetExpense(ctx context.Context, id string) (*core.Expense, error) {
	e, err := r.queryExpense(ctx, r.db, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entity: core.EntityExpense, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get expense by id: %w", err)
	}
	return e, nil
}

func (r *Repository) expenseByPayment(ctx context.Context, q querier, paymentID string) (*core.Expense, error) {
	e, err := r.queryExpense(ctx, q, "SELECT "+expenseColumns+" FROM expenses WHERE loan_payment_id = ?", paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entity: core.EntityExpense, ID: paymentID}
	}
	if err != nil {
		return nil, fmt.Errorf("get expense by loan payment: %w", err)
	}
	return e, nil
}

// ExpenseByPayment returns the expense mirrored from a loan payment.
func (r *Repository) ExpenseByPayment(ctx context.Context, paymentID string) (*core.Expense, error) {
	return r.expenseByPayment(ctx, r.db, paymentID)
}

// GetPendingSyncExpenses returns expenses that still need to reach the sheet,
// including those whose previous attempt failed.
func (r *Repository) GetPendingSyncExpenses(ctx context.Context, limit int) ([]PendingSyncExpense, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`SELECT id, version, created_at FROM expenses
		WHERE sync_status IN ('pending', 'error') ORDER BY created_at, id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	defer rows.Close()

	var expenses []PendingSyncExpense
	for rows.Next() {
		var (
			p         PendingSyncExpense
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Version, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending sync expense: %w", err)
		}
		p.CreatedAt = parseTimestamp(createdAt)
		expenses = append(expenses, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending sync expenses: %w", err)
	}
	return expenses, nil
}

// MarkSynced marks an expense as successfully synced.
func (r *Repository) MarkSynced(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		"UPDATE expenses SET sync_status = 'synced', synced_at = ? WHERE id = ?"), now(), id)
	if err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}

	slog.InfoContext(ctx, "Expense marked as synced", "id", id)
	return nil
}

// MarkSyncError marks an expense as having sync errors.
func (r *Repository) MarkSyncError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		"UPDATE expenses SET sync_status = 'error' WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}

	slog.WarnContext(ctx, "Expense marked with sync error", "id", id)
	return nil
}
