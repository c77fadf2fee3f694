package services

import (
	"context"
	"testing"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/storage"
)

// assertNothingApplied checks that a failed payment left no payment, no
// mirrored expense and an untouched wallet.
func assertNothingApplied(t *testing.T, repo *storage.Repository, loanID, walletID, wantBalance string) {
	t.Helper()
	ctx := context.Background()

	n, err := repo.CountPayments(ctx, loanID)
	if err != nil {
		t.Fatalf("CountPayments() error = %v", err)
	}
	if n != 0 {
		t.Errorf("loan payments = %d, want 0", n)
	}

	pending, err := repo.GetPendingSyncExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncExpenses() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expenses = %d, want 0", len(pending))
	}

	w, err := repo.GetWallet(ctx, walletID)
	if err != nil {
		t.Fatalf("GetWallet() error = %v", err)
	}
	if !w.Balance.Equal(dec(wantBalance)) {
		t.Errorf("wallet balance = %s, want %s", w.Balance, wantBalance)
	}
}

func TestRecordLoanPayment_FailureAfterPaymentInsertRollsBack(t *testing.T) {
	tests := []struct {
		name    string
		trigger string
		drop    string
	}{
		{
			name: "expense insert fails",
			trigger: `CREATE TRIGGER fail_expense BEFORE INSERT ON expenses
				BEGIN SELECT RAISE(ABORT, 'expense insert refused'); END`,
			drop: `DROP TRIGGER fail_expense`,
		},
		{
			name: "wallet debit fails",
			trigger: `CREATE TRIGGER fail_wallet BEFORE UPDATE ON wallets
				BEGIN SELECT RAISE(ABORT, 'wallet update refused'); END`,
			drop: `DROP TRIGGER fail_wallet`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, path := newTestRepoAt(t)
			ctx := context.Background()
			loan := createLoan(t, repo, 12000, 12, 12)
			wallet := createWallet(t, repo, 5000)
			pub := &fakePublisher{}
			svc := NewLedgerService(repo, pub)

			execSQL(t, path, tt.trigger)

			in := core.PaymentInput{
				PaidAt:   "2024-02-01",
				Amount:   dec("1066.19"),
				WalletID: wallet.ID,
				IntentID: core.NewID(),
			}
			if _, err := svc.RecordLoanPayment(ctx, loan.ID, in); err == nil {
				t.Fatal("RecordLoanPayment() should fail")
			}

			assertNothingApplied(t, repo, loan.ID, wallet.ID, "5000")
			if got := pub.count("expense_sync"); got != 0 {
				t.Errorf("published %d sync messages for a rolled back payment", got)
			}

			// The same intent succeeds once the failure is gone, numbered 1.
			execSQL(t, path, tt.drop)
			receipt, err := svc.RecordLoanPayment(ctx, loan.ID, in)
			if err != nil {
				t.Fatalf("retry: RecordLoanPayment() error = %v", err)
			}
			if receipt.Replayed || receipt.Payment.PaymentNumber != 1 {
				t.Errorf("retry receipt = %+v, want fresh payment #1", receipt)
			}
		})
	}
}
