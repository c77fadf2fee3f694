package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
)

// LedgerTx is the set of reads and writes a payment needs, all bound to one
// database transaction.
type LedgerTx interface {
	// PaymentByIntent returns the payment recorded under intentID, or nil.
	PaymentByIntent(ctx context.Context, intentID string) (*core.LoanPayment, error)
	// LockLoan returns the loan and holds a row lock on it until the
	// transaction ends. SQLite gets the same effect from its single writer.
	LockLoan(ctx context.Context, id string) (*core.Loan, error)
	LastPayment(ctx context.Context, loanID string) (*core.LoanPayment, error)
	NextPaymentNumber(ctx context.Context, loanID string) (int, error)
	GetWallet(ctx context.Context, id string) (*core.Wallet, error)
	InsertLoanPayment(ctx context.Context, p core.LoanPayment) error
	InsertExpense(ctx context.Context, e core.Expense) error
	ExpenseByPayment(ctx context.Context, paymentID string) (*core.Expense, error)
	// AdjustWalletBalance adds delta to the stored balance in one statement.
	AdjustWalletBalance(ctx context.Context, walletID string, deltaCents int64) error
	InsertNotification(ctx context.Context, n core.Notification) (bool, error)
}

type ledgerTx struct {
	repo *Repository
	tx   *sql.Tx
}

func (t *ledgerTx) PaymentByIntent(ctx context.Context, intentID string) (*core.LoanPayment, error) {
	return t.repo.queryPayment(ctx, t.tx, "SELECT "+paymentColumns+" FROM loan_payments WHERE intent_id = ?", intentID)
}

func (t *ledgerTx) LockLoan(ctx context.Context, id string) (*core.Loan, error) {
	return t.repo.getLoan(ctx, t.tx, id, true)
}

func (t *ledgerTx) LastPayment(ctx context.Context, loanID string) (*core.LoanPayment, error) {
	return t.repo.lastPayment(ctx, t.tx, loanID)
}

func (t *ledgerTx) NextPaymentNumber(ctx context.Context, loanID string) (int, error) {
	var last int
	err := t.tx.QueryRowContext(ctx, t.repo.rebind(
		"SELECT COALESCE(MAX(payment_number), 0) FROM loan_payments WHERE loan_id = ?"), loanID).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("next payment number: %w", err)
	}
	return last + 1, nil
}

func (t *ledgerTx) GetWallet(ctx context.Context, id string) (*core.Wallet, error) {
	return t.repo.getWallet(ctx, t.tx, id)
}

func (t *ledgerTx) InsertLoanPayment(ctx context.Context, p core.LoanPayment) error {
	_, err := t.tx.ExecContext(ctx, t.repo.rebind(`INSERT INTO loan_payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.LoanID, nullString(p.IntentID), p.PaymentNumber, p.PaidAt.String(),
		core.ToCents(p.Amount), core.ToCents(p.PrincipalPortion), core.ToCents(p.InterestPortion),
		core.ToCents(p.BalanceAfter), p.WalletID, p.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("insert loan payment: %w", err)
	}
	return nil
}

func (t *ledgerTx) InsertExpense(ctx context.Context, e core.Expense) error {
	return t.repo.insertExpense(ctx, t.tx, e)
}

func (t *ledgerTx) ExpenseByPayment(ctx context.Context, paymentID string) (*core.Expense, error) {
	return t.repo.expenseByPayment(ctx, t.tx, paymentID)
}

func (t *ledgerTx) AdjustWalletBalance(ctx context.Context, walletID string, deltaCents int64) error {
	return t.repo.adjustWalletBalance(ctx, t.tx, walletID, deltaCents)
}

func (t *ledgerTx) InsertNotification(ctx context.Context, n core.Notification) (bool, error) {
	return t.repo.insertNotification(ctx, t.tx, n)
}
