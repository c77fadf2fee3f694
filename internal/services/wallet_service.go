package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/amortization"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/storage"
	"github.com/shopspring/decimal"
)

// WalletInput carries the fields of a new wallet.
type WalletInput struct {
	UserID     string                `json:"user_id"`
	Name       string                `json:"name"`
	Type       core.WalletType       `json:"type"`
	Currency   string                `json:"currency"`
	Balance    decimal.Decimal       `json:"balance"`
	CreditCard *core.CreditCardTerms `json:"credit_card,omitempty"`
}

// CreditCardProjection is the payoff plan of a card's outstanding debt.
type CreditCardProjection struct {
	WalletID       string                       `json:"wallet_id"`
	Debt           decimal.Decimal              `json:"debt"`
	MonthlyPayment decimal.Decimal              `json:"monthly_payment"`
	NextCutDate    core.Date                    `json:"next_cut_date"`
	NextDueDate    core.Date                    `json:"next_due_date"`
	Schedule       []amortization.CreditCardRow `json:"schedule"`
	// Converges is false when the payment does not cover the monthly
	// interest, so the debt never shrinks.
	Converges bool `json:"converges"`
}

type WalletService struct {
	storage *storage.Repository
	now     func() time.Time
}

func NewWalletService(storage *storage.Repository) *WalletService {
	return &WalletService{storage: storage, now: time.Now}
}

func (s *WalletService) CreateWallet(ctx context.Context, in WalletInput) (*core.Wallet, error) {
	w := core.Wallet{
		ID:         core.NewID(),
		UserID:     strings.TrimSpace(in.UserID),
		Name:       strings.TrimSpace(in.Name),
		Type:       in.Type,
		Currency:   strings.ToUpper(strings.TrimSpace(in.Currency)),
		Balance:    core.RoundCents(in.Balance),
		CreditCard: in.CreditCard,
		CreatedAt:  s.now().UTC(),
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if err := s.storage.CreateWallet(ctx, w); err != nil {
		return nil, fmt.Errorf("save wallet: %w", err)
	}
	return &w, nil
}

func (s *WalletService) GetWallet(ctx context.Context, id string) (*core.Wallet, error) {
	return s.storage.GetWallet(ctx, id)
}

func (s *WalletService) ListWallets(ctx context.Context, userID string) ([]core.Wallet, error) {
	return s.storage.ListWallets(ctx, userID)
}

// CreditCardProjection projects how a credit-card wallet's debt is paid off
// with a fixed monthly payment, starting from the next due date.
func (s *WalletService) CreditCardProjection(ctx context.Context, walletID string, monthlyPayment decimal.Decimal) (*CreditCardProjection, error) {
	w, err := s.storage.GetWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if w.Type != core.WalletCreditCard || w.CreditCard == nil {
		return nil, &core.ValidationError{Violations: []string{"La billetera no es una tarjeta de crédito"}}
	}
	if !monthlyPayment.IsPositive() {
		return nil, &core.ValidationError{Violations: []string{"El pago mensual debe ser mayor a 0"}}
	}

	today := s.now()
	cut := amortization.NextCutDate(w.CreditCard.CutOffDay, today)
	due := amortization.NextPaymentDueDate(w.CreditCard.CutOffDay, w.CreditCard.PaymentDueDay, today)
	debt := w.Debt()

	rows := amortization.CreditCardSchedule(debt.InexactFloat64(), w.CreditCard.AnnualInterestRate, monthlyPayment.InexactFloat64(), due)
	if rows == nil {
		rows = []amortization.CreditCardRow{}
	}

	return &CreditCardProjection{
		WalletID:       w.ID,
		Debt:           debt,
		MonthlyPayment: monthlyPayment,
		NextCutDate:    core.DateOf(cut),
		NextDueDate:    core.DateOf(due),
		Schedule:       rows,
		Converges:      len(rows) > 0 || !debt.IsPositive(),
	}, nil
}
