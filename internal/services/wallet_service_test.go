package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
	"github.com/shopspring/decimal"
)

func TestWalletService_CreateWallet(t *testing.T) {
	tests := []struct {
		name    string
		input   WalletInput
		wantErr bool
	}{
		{
			name:  "bank account",
			input: WalletInput{UserID: "user-1", Name: "Ahorros", Type: core.WalletBank, Currency: "cop", Balance: dec("150.50")},
		},
		{
			name: "credit card",
			input: WalletInput{
				UserID: "user-1", Name: "Visa", Type: core.WalletCreditCard, Currency: "COP",
				CreditCard: &core.CreditCardTerms{CutOffDay: 25, AnnualInterestRate: 28, CreditLimit: dec("5000000")},
			},
		},
		{
			name:    "credit card without terms",
			input:   WalletInput{UserID: "user-1", Name: "Visa", Type: core.WalletCreditCard, Currency: "COP"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			input:   WalletInput{UserID: "user-1", Name: "Otra", Type: "crypto", Currency: "COP"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewWalletService(newTestRepo(t))
			ctx := context.Background()

			w, err := svc.CreateWallet(ctx, tt.input)
			if tt.wantErr {
				var ve *core.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("CreateWallet() error = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateWallet() error = %v", err)
			}

			got, err := svc.GetWallet(ctx, w.ID)
			if err != nil {
				t.Fatalf("GetWallet() error = %v", err)
			}
			if got.Currency != "COP" || !got.Balance.Equal(w.Balance) {
				t.Errorf("GetWallet() = %+v, want %+v", got, w)
			}
			if (got.CreditCard != nil) != (tt.input.CreditCard != nil) {
				t.Errorf("CreditCard = %+v, want %+v", got.CreditCard, tt.input.CreditCard)
			}
		})
	}
}

func TestWalletService_CreditCardProjection(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	svc := NewWalletService(repo)
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) }

	card, err := svc.CreateWallet(ctx, WalletInput{
		UserID:     "user-1",
		Name:       "Visa",
		Type:       core.WalletCreditCard,
		Currency:   "COP",
		Balance:    dec("-1000"),
		CreditCard: &core.CreditCardTerms{CutOffDay: 25, AnnualInterestRate: 24},
	})
	if err != nil {
		t.Fatalf("CreateWallet() error = %v", err)
	}

	p, err := svc.CreditCardProjection(ctx, card.ID, dec("200"))
	if err != nil {
		t.Fatalf("CreditCardProjection() error = %v", err)
	}
	if !p.Debt.Equal(dec("1000")) {
		t.Errorf("Debt = %s, want 1000", p.Debt)
	}
	if p.NextCutDate.String() != "2024-03-25" {
		t.Errorf("NextCutDate = %s, want 2024-03-25", p.NextCutDate)
	}
	if p.NextDueDate.String() != "2024-03-31" {
		t.Errorf("NextDueDate = %s, want 2024-03-31", p.NextDueDate)
	}
	if !p.Converges || len(p.Schedule) == 0 {
		t.Fatalf("projection should converge: %+v", p)
	}
	if last := p.Schedule[len(p.Schedule)-1]; last.BalanceAfter > 0.01 {
		t.Errorf("final balance = %f, want paid off", last.BalanceAfter)
	}

	p, err = svc.CreditCardProjection(ctx, card.ID, dec("10"))
	if err != nil {
		t.Fatalf("CreditCardProjection() error = %v", err)
	}
	if p.Converges {
		t.Error("payment below monthly interest should not converge")
	}
}

func TestWalletService_CreditCardProjectionRejects(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	svc := NewWalletService(repo)
	bank := createWallet(t, repo, 100)

	var ve *core.ValidationError
	if _, err := svc.CreditCardProjection(ctx, bank.ID, dec("100")); !errors.As(err, &ve) {
		t.Errorf("projection on bank wallet: error = %v, want ValidationError", err)
	}

	var nf *core.NotFoundError
	if _, err := svc.CreditCardProjection(ctx, core.NewID(), dec("100")); !errors.As(err, &nf) {
		t.Errorf("projection on missing wallet: error = %v, want NotFoundError", err)
	}

	card, err := svc.CreateWallet(ctx, WalletInput{
		UserID: "user-1", Name: "Visa", Type: core.WalletCreditCard, Currency: "COP",
		CreditCard: &core.CreditCardTerms{CutOffDay: 5},
	})
	if err != nil {
		t.Fatalf("CreateWallet() error = %v", err)
	}
	if _, err := svc.CreditCardProjection(ctx, card.ID, decimal.Zero); !errors.As(err, &ve) {
		t.Errorf("zero payment: error = %v, want ValidationError", err)
	}
}
