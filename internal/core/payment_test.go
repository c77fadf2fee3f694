package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPaymentInputValidate(t *testing.T) {
	wallet := NewID()

	good := PaymentInput{
		PaidAt:           "2024-02-01",
		Amount:           decimal.NewFromInt(1000),
		PrincipalPortion: decimal.NewFromInt(900),
		InterestPortion:  decimal.NewFromInt(100),
		BalanceAfter:     decimal.NewFromInt(11100),
		WalletID:         wallet,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	noSplit := PaymentInput{PaidAt: "2024-02-01", Amount: decimal.NewFromInt(10), WalletID: wallet}
	if err := noSplit.Validate(); err != nil {
		t.Fatalf("split is optional, got %v", err)
	}
	if noSplit.HasSplit() {
		t.Fatalf("expected no split")
	}

	rounded := PaymentInput{
		PaidAt:           "2024-02-01",
		Amount:           decimal.RequireFromString("10.004"),
		PrincipalPortion: decimal.RequireFromString("9.996"),
		InterestPortion:  decimal.RequireFromString("0.004"),
		WalletID:         wallet,
	}
	if err := rounded.Validate(); err != nil {
		t.Fatalf("split is compared in cents, got %v", err)
	}

	tests := []struct {
		name       string
		in         PaymentInput
		violations int
	}{
		{
			name:       "empty record lists every required field",
			in:         PaymentInput{},
			violations: 3,
		},
		{
			name: "negative portions and bad ids",
			in: PaymentInput{
				PaidAt:           "2024-13-01",
				Amount:           decimal.NewFromInt(-5),
				PrincipalPortion: decimal.NewFromInt(-1),
				InterestPortion:  decimal.NewFromInt(-1),
				BalanceAfter:     decimal.NewFromInt(-1),
				WalletID:         "not-a-uuid",
				IntentID:         "nope",
			},
			violations: 7,
		},
		{
			name:       "amount rounding to zero cents",
			in:         PaymentInput{PaidAt: "2024-02-01", Amount: decimal.RequireFromString("0.004"), WalletID: wallet},
			violations: 1,
		},
		{
			name: "split does not add up",
			in: PaymentInput{
				PaidAt:           "2024-02-01",
				Amount:           decimal.NewFromInt(1000),
				PrincipalPortion: decimal.NewFromInt(800),
				InterestPortion:  decimal.NewFromInt(100),
				WalletID:         wallet,
			},
			violations: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Violations) != tt.violations {
				t.Fatalf("expected %d violations, got %d: %v", tt.violations, len(verr.Violations), verr.Violations)
			}
		})
	}
}
