package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedLoan(t *testing.T, repo *Repository) core.Loan {
	t.Helper()
	l := core.Loan{
		ID:                 core.NewID(),
		UserID:             "user-1",
		Name:               "Carro",
		Currency:           "COP",
		Principal:          decimal.NewFromInt(12000),
		AnnualInterestRate: 12,
		TermMonths:         12,
		StartDate:          core.NewDate(2024, 1, 15),
		CreatedAt:          time.Now(),
	}
	if err := repo.CreateLoan(context.Background(), l); err != nil {
		t.Fatalf("CreateLoan() error = %v", err)
	}
	return l
}

func seedWallet(t *testing.T, repo *Repository, balance int64) core.Wallet {
	t.Helper()
	w := core.Wallet{
		ID:        core.NewID(),
		UserID:    "user-1",
		Name:      "Cuenta",
		Type:      core.WalletBank,
		Currency:  "COP",
		Balance:   decimal.NewFromInt(balance),
		CreatedAt: time.Now(),
	}
	if err := repo.CreateWallet(context.Background(), w); err != nil {
		t.Fatalf("CreateWallet() error = %v", err)
	}
	return w
}

func TestLoanRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	l := seedLoan(t, repo)

	got, err := repo.GetLoan(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetLoan() error = %v", err)
	}
	if got.Name != l.Name || !got.Principal.Equal(l.Principal) || got.TermMonths != 12 {
		t.Errorf("GetLoan() = %+v, want %+v", got, l)
	}
	if got.StartDate.String() != "2024-01-15" {
		t.Errorf("StartDate = %s, want 2024-01-15", got.StartDate)
	}

	got.Name = "Moto"
	if err := repo.UpdateLoan(ctx, *got); err != nil {
		t.Fatalf("UpdateLoan() error = %v", err)
	}
	loans, err := repo.ListLoans(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListLoans() error = %v", err)
	}
	if len(loans) != 1 || loans[0].Name != "Moto" {
		t.Errorf("ListLoans() = %+v", loans)
	}

	if err := repo.DeleteLoan(ctx, l.ID); err != nil {
		t.Fatalf("DeleteLoan() error = %v", err)
	}
	var nf *core.NotFoundError
	if _, err := repo.GetLoan(ctx, l.ID); !errors.As(err, &nf) {
		t.Errorf("GetLoan() after delete error = %v, want NotFoundError", err)
	}
}

func TestWalletCreditCardTerms(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	due := 5
	w := core.Wallet{
		ID:       core.NewID(),
		UserID:   "user-1",
		Name:     "Visa",
		Type:     core.WalletCreditCard,
		Currency: "COP",
		Balance:  decimal.NewFromInt(-1500),
		CreditCard: &core.CreditCardTerms{
			CutOffDay:          25,
			PaymentDueDay:      &due,
			AnnualInterestRate: 28.5,
			CreditLimit:        decimal.NewFromInt(5000),
		},
		CreatedAt: time.Now(),
	}
	if err := repo.CreateWallet(ctx, w); err != nil {
		t.Fatalf("CreateWallet() error = %v", err)
	}

	got, err := repo.GetWallet(ctx, w.ID)
	if err != nil {
		t.Fatalf("GetWallet() error = %v", err)
	}
	if got.CreditCard == nil {
		t.Fatal("CreditCard terms not loaded")
	}
	if got.CreditCard.CutOffDay != 25 || got.CreditCard.PaymentDueDay == nil || *got.CreditCard.PaymentDueDay != 5 {
		t.Errorf("CreditCard = %+v", got.CreditCard)
	}
	if !got.Debt().Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Debt() = %s, want 1500", got.Debt())
	}
}

func TestWithinTxCommitsAndRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	l := seedLoan(t, repo)
	w := seedWallet(t, repo, 1000)

	payment := core.LoanPayment{
		ID:               core.NewID(),
		LoanID:           l.ID,
		PaymentNumber:    1,
		PaidAt:           core.NewDate(2024, 2, 15),
		Amount:           decimal.NewFromInt(100),
		PrincipalPortion: decimal.NewFromInt(100),
		BalanceAfter:     decimal.NewFromInt(11900),
		WalletID:         w.ID,
		CreatedAt:        time.Now(),
	}

	boom := errors.New("boom")
	err := repo.WithinTx(ctx, func(tx LedgerTx) error {
		if err := tx.InsertLoanPayment(ctx, payment); err != nil {
			return err
		}
		if err := tx.AdjustWalletBalance(ctx, w.ID, -10000); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx() error = %v, want boom", err)
	}
	if n, _ := repo.CountPayments(ctx, l.ID); n != 0 {
		t.Errorf("CountPayments() after rollback = %d, want 0", n)
	}
	got, _ := repo.GetWallet(ctx, w.ID)
	if !got.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("wallet balance after rollback = %s, want 1000", got.Balance)
	}

	err = repo.WithinTx(ctx, func(tx LedgerTx) error {
		n, err := tx.NextPaymentNumber(ctx, l.ID)
		if err != nil {
			return err
		}
		if n != 1 {
			t.Errorf("NextPaymentNumber() = %d, want 1", n)
		}
		if err := tx.InsertLoanPayment(ctx, payment); err != nil {
			return err
		}
		return tx.AdjustWalletBalance(ctx, w.ID, -10000)
	})
	if err != nil {
		t.Fatalf("WithinTx() error = %v", err)
	}
	last, err := repo.LastPayment(ctx, l.ID)
	if err != nil || last == nil {
		t.Fatalf("LastPayment() = %v, %v", last, err)
	}
	if !last.BalanceAfter.Equal(decimal.NewFromInt(11900)) {
		t.Errorf("BalanceAfter = %s, want 11900", last.BalanceAfter)
	}
	got, _ = repo.GetWallet(ctx, w.ID)
	if !got.Balance.Equal(decimal.NewFromInt(900)) {
		t.Errorf("wallet balance = %s, want 900", got.Balance)
	}
}

func TestDuplicatePaymentNumberIsUniqueViolation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	l := seedLoan(t, repo)
	w := seedWallet(t, repo, 0)

	insert := func() error {
		return repo.WithinTx(ctx, func(tx LedgerTx) error {
			return tx.InsertLoanPayment(ctx, core.LoanPayment{
				ID:               core.NewID(),
				LoanID:           l.ID,
				PaymentNumber:    1,
				PaidAt:           core.NewDate(2024, 2, 15),
				Amount:           decimal.NewFromInt(10),
				PrincipalPortion: decimal.NewFromInt(10),
				BalanceAfter:     decimal.NewFromInt(11990),
				WalletID:         w.ID,
				CreatedAt:        time.Now(),
			})
		})
	}
	if err := insert(); err != nil {
		t.Fatalf("first insert error = %v", err)
	}
	err := insert()
	if !IsUniqueViolation(err) {
		t.Errorf("second insert error = %v, want unique violation", err)
	}
}

func TestAdjustMissingWallet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.WithinTx(ctx, func(tx LedgerTx) error {
		return tx.AdjustWalletBalance(ctx, core.NewID(), -100)
	})
	var nf *core.NotFoundError
	if !errors.As(err, &nf) || nf.Entity != core.EntityWallet {
		t.Errorf("AdjustWalletBalance() error = %v, want wallet NotFoundError", err)
	}
}

func TestNotificationDedupe(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n := core.Notification{
		UserID:    "user-1",
		Title:     "Pago próximo",
		Body:      "Tu cuota vence pronto",
		Type:      core.NotificationPaymentUpcoming,
		DedupeKey: "upcoming:loan:3",
		CreatedAt: time.Now(),
	}
	n.ID = core.NewID()
	created, err := repo.CreateNotification(ctx, n)
	if err != nil || !created {
		t.Fatalf("CreateNotification() = %v, %v; want true, nil", created, err)
	}
	n.ID = core.NewID()
	created, err = repo.CreateNotification(ctx, n)
	if err != nil || created {
		t.Fatalf("duplicate CreateNotification() = %v, %v; want false, nil", created, err)
	}

	list, err := repo.ListNotifications(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListNotifications() len = %d, want 1", len(list))
	}
}

func TestExpenseSyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	w := seedWallet(t, repo, 0)

	e := core.Expense{
		ID:          core.NewID(),
		UserID:      "user-1",
		WalletID:    w.ID,
		Amount:      decimal.RequireFromString("1066.19"),
		Currency:    "COP",
		Priority:    core.PriorityObligatory,
		Description: "Pago préstamo Carro #1",
		Date:        core.NewDate(2024, 2, 15),
		CreatedAt:   time.Now(),
	}
	if err := repo.insertExpense(ctx, repo.db, e); err != nil {
		t.Fatalf("insertExpense() error = %v", err)
	}

	pending, err := repo.GetPendingSyncExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncExpenses() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != e.ID || pending[0].Version != 1 {
		t.Fatalf("GetPendingSyncExpenses() = %+v", pending)
	}

	if err := repo.MarkSyncError(ctx, e.ID); err != nil {
		t.Fatalf("MarkSyncError() error = %v", err)
	}
	if pending, _ = repo.GetPendingSyncExpenses(ctx, 10); len(pending) != 1 {
		t.Errorf("errored expense should stay pending, got %d", len(pending))
	}

	if err := repo.MarkSynced(ctx, e.ID); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}
	if pending, _ = repo.GetPendingSyncExpenses(ctx, 10); len(pending) != 0 {
		t.Errorf("synced expense still pending: %+v", pending)
	}

	got, err := repo.GetExpense(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetExpense() error = %v", err)
	}
	if got.SyncStatus != core.SyncSynced || !got.Amount.Equal(e.Amount) {
		t.Errorf("GetExpense() = %+v", got)
	}
}

func TestRebind(t *testing.T) {
	pg := &Repository{driver: DriverPostgres}
	if got := pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"); got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Errorf("rebind() = %q", got)
	}
	lite := &Repository{driver: DriverSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("rebind() sqlite = %q", got)
	}
}
