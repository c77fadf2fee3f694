package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/amortization"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/storage"
	"github.com/shopspring/decimal"
)

const maxLedgerAttempts = 3

// Ledger steps, in the order they run inside the transaction.
const (
	stepReplay       = "replay"
	stepLoan         = "loan"
	stepWallet       = "wallet"
	stepPayment      = "loan_payment"
	stepExpense      = "expense"
	stepBalance      = "wallet_balance"
	stepNotification = "notification"
)

// PaymentReceipt describes the outcome of recording a loan payment.
type PaymentReceipt struct {
	Payment   core.LoanPayment `json:"payment"`
	ExpenseID string           `json:"expense_id"`
	PaidOff   bool             `json:"paid_off"`
	Replayed  bool             `json:"replayed"`

	notification *core.Notification
}

// LedgerService applies real-world loan payments: the payment row, its
// mirrored expense, the wallet debit and the payoff notification are
// written in one transaction.
type LedgerService struct {
	storage   *storage.Repository
	publisher Publisher
	now       func() time.Time
}

func NewLedgerService(storage *storage.Repository, publisher Publisher) *LedgerService {
	return &LedgerService{
		storage:   storage,
		publisher: publisher,
		now:       time.Now,
	}
}

type ledgerProgress struct {
	step    string
	applied map[string]string
}

func (p *ledgerProgress) done(step, id string) {
	p.applied[step] = id
}

// RecordLoanPayment validates in and applies it to the loan. Replaying a
// request with the same intent ID returns the original receipt without
// writing anything.
func (s *LedgerService) RecordLoanPayment(ctx context.Context, loanID string, in core.PaymentInput) (*PaymentReceipt, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var (
		receipt  *PaymentReceipt
		progress *ledgerProgress
		err      error
	)
	for attempt := 1; attempt <= maxLedgerAttempts; attempt++ {
		receipt, progress, err = s.recordOnce(ctx, loanID, in)
		if err == nil || !storage.IsUniqueViolation(err) {
			break
		}
		slog.WarnContext(ctx, "Concurrent loan payment detected, retrying",
			"loan_id", loanID,
			"attempt", attempt,
			"error", err)
	}

	if err != nil {
		var rbErr *storage.RollbackError
		if errors.As(err, &rbErr) {
			slog.ErrorContext(ctx, "Loan payment needs reconciliation",
				"loan_id", loanID,
				"step", progress.step,
				"applied", progress.applied,
				"error", err)
			return nil, &core.PartialApplicationError{Step: progress.step, Applied: progress.applied, Err: err}
		}
		if storage.IsUniqueViolation(err) {
			return nil, &core.ConflictError{Reason: "El pago no pudo registrarse por un pago simultáneo, intenta de nuevo"}
		}
		return nil, err
	}

	if receipt.Replayed {
		slog.InfoContext(ctx, "Loan payment replayed",
			"loan_id", loanID,
			"payment_id", receipt.Payment.ID,
			"intent_id", in.IntentID)
		return receipt, nil
	}

	slog.InfoContext(ctx, "Loan payment recorded",
		"loan_id", loanID,
		"payment_id", receipt.Payment.ID,
		"payment_number", receipt.Payment.PaymentNumber,
		"amount", receipt.Payment.Amount.StringFixed(2),
		"balance_after", receipt.Payment.BalanceAfter.StringFixed(2),
		"paid_off", receipt.PaidOff)

	s.publish(ctx, receipt)
	return receipt, nil
}

func (s *LedgerService) recordOnce(ctx context.Context, loanID string, in core.PaymentInput) (*PaymentReceipt, *ledgerProgress, error) {
	progress := &ledgerProgress{applied: map[string]string{}}
	var receipt *PaymentReceipt

	err := s.storage.WithinTx(ctx, func(tx storage.LedgerTx) error {
		if in.IntentID != "" {
			progress.step = stepReplay
			r, err := s.replay(ctx, tx, loanID, in.IntentID)
			if err != nil {
				return err
			}
			if r != nil {
				receipt = r
				return nil
			}
		}

		progress.step = stepLoan
		loan, err := tx.LockLoan(ctx, loanID)
		if err != nil {
			return err
		}

		progress.step = stepWallet
		if _, err := tx.GetWallet(ctx, in.WalletID); err != nil {
			return err
		}

		last, err := tx.LastPayment(ctx, loanID)
		if err != nil {
			return err
		}
		if core.StatusOf(last) == core.LoanPaidOff {
			return &core.ConflictError{Reason: "El préstamo ya está pagado"}
		}

		number, err := tx.NextPaymentNumber(ctx, loanID)
		if err != nil {
			return err
		}

		payment, err := s.buildPayment(*loan, last, number, in)
		if err != nil {
			return err
		}

		progress.step = stepPayment
		if err := tx.InsertLoanPayment(ctx, payment); err != nil {
			return err
		}
		progress.done(stepPayment, payment.ID)

		progress.step = stepExpense
		expense := mirroredExpense(*loan, payment, s.now())
		if err := tx.InsertExpense(ctx, expense); err != nil {
			return err
		}
		progress.done(stepExpense, expense.ID)

		progress.step = stepBalance
		if err := tx.AdjustWalletBalance(ctx, payment.WalletID, -core.ToCents(payment.Amount)); err != nil {
			return err
		}
		progress.done(stepBalance, payment.WalletID)

		receipt = &PaymentReceipt{Payment: payment, ExpenseID: expense.ID}

		if core.StatusOf(&payment) == core.LoanPaidOff {
			receipt.PaidOff = true
			progress.step = stepNotification
			n := payoffNotification(*loan, s.now())
			created, err := tx.InsertNotification(ctx, n)
			if err != nil {
				return err
			}
			if created {
				progress.done(stepNotification, n.ID)
				receipt.notification = &n
			}
		}
		return nil
	})
	if err != nil {
		return nil, progress, err
	}
	return receipt, progress, nil
}

func (s *LedgerService) replay(ctx context.Context, tx storage.LedgerTx, loanID, intentID string) (*PaymentReceipt, error) {
	existing, err := tx.PaymentByIntent(ctx, intentID)
	if err != nil || existing == nil {
		return nil, err
	}
	if existing.LoanID != loanID {
		return nil, &core.ConflictError{Reason: "La clave de idempotencia ya se usó para otro préstamo"}
	}
	expense, err := tx.ExpenseByPayment(ctx, existing.ID)
	if err != nil {
		return nil, err
	}
	return &PaymentReceipt{
		Payment:   *existing,
		ExpenseID: expense.ID,
		PaidOff:   core.StatusOf(existing) == core.LoanPaidOff,
		Replayed:  true,
	}, nil
}

// buildPayment resolves the principal/interest split and the resulting
// balance against the loan's previous balance.
func (s *LedgerService) buildPayment(loan core.Loan, last *core.LoanPayment, number int, in core.PaymentInput) (core.LoanPayment, error) {
	previous := core.RemainingBalance(loan, last)
	amount := core.RoundCents(in.Amount)
	principal := core.RoundCents(in.PrincipalPortion)
	interest := core.RoundCents(in.InterestPortion)

	derived := !in.HasSplit()
	if derived {
		split := amortization.SplitPayment(previous.InexactFloat64(), loan.AnnualInterestRate, amount.InexactFloat64())
		interest = core.FromFloat(split.Interest)
		principal = amount.Sub(interest)
	}

	balanceAfter := previous.Sub(principal)
	if balanceAfter.IsNegative() {
		balanceAfter = decimal.Zero
	}
	balanceAfter = core.RoundCents(balanceAfter)

	if !derived && !core.WithinTolerance(in.BalanceAfter, balanceAfter) {
		return core.LoanPayment{}, &core.ValidationError{Violations: []string{
			fmt.Sprintf("El saldo restante debe ser %s (saldo anterior %s menos capital %s)",
				balanceAfter.StringFixed(2), previous.StringFixed(2), principal.StringFixed(2)),
		}}
	}

	paidAt, err := core.ParseDate(in.PaidAt)
	if err != nil {
		return core.LoanPayment{}, &core.ValidationError{Violations: []string{"La fecha de pago no es válida (AAAA-MM-DD)"}}
	}

	p := core.LoanPayment{
		ID:               core.NewID(),
		LoanID:           loan.ID,
		PaymentNumber:    number,
		PaidAt:           paidAt,
		Amount:           amount,
		PrincipalPortion: principal,
		InterestPortion:  interest,
		BalanceAfter:     balanceAfter,
		WalletID:         in.WalletID,
		CreatedAt:        s.now().UTC(),
	}
	if in.IntentID != "" {
		intent := in.IntentID
		p.IntentID = &intent
	}
	return p, nil
}

func mirroredExpense(loan core.Loan, p core.LoanPayment, now time.Time) core.Expense {
	paymentID := p.ID
	return core.Expense{
		ID:            core.NewID(),
		UserID:        loan.UserID,
		WalletID:      p.WalletID,
		LoanPaymentID: &paymentID,
		Amount:        p.Amount,
		Currency:      loan.Currency,
		Priority:      core.PriorityObligatory,
		Description:   fmt.Sprintf("Pago préstamo %s #%d", loan.Name, p.PaymentNumber),
		Date:          p.PaidAt,
		SyncStatus:    core.SyncPending,
		Version:       1,
		CreatedAt:     now.UTC(),
	}
}

func payoffNotification(loan core.Loan, now time.Time) core.Notification {
	return core.Notification{
		ID:        core.NewID(),
		UserID:    loan.UserID,
		Title:     "Préstamo pagado",
		Body:      fmt.Sprintf("Terminaste de pagar el préstamo %s", loan.Name),
		Type:      core.NotificationLoanPaidOff,
		Link:      "/loans/" + loan.ID,
		DedupeKey: "paid_off:" + loan.ID,
		CreatedAt: now.UTC(),
	}
}

// publish hands committed effects to the asynchronous consumers. Failures
// are logged only; the data is already durable.
func (s *LedgerService) publish(ctx context.Context, r *PaymentReceipt) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping ledger messages", "payment_id", r.Payment.ID)
		return
	}

	if err := s.publisher.PublishExpenseSync(ctx, r.ExpenseID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"expense_id", r.ExpenseID, "error", err)
	}

	if n := r.notification; n != nil {
		if err := s.publisher.PublishNotification(ctx, n.ID, n.UserID, n.Type); err != nil {
			slog.ErrorContext(ctx, "Failed to publish notification message",
				"notification_id", n.ID, "error", err)
		}
	}
}
