package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PaymentInput is the caller-supplied record of one real-world loan payment.
// PrincipalPortion and InterestPortion may both be left at zero, in which
// case the ledger derives the split from the loan's terms.
type PaymentInput struct {
	PaidAt           string          `json:"paid_at"`
	Amount           decimal.Decimal `json:"amount"`
	PrincipalPortion decimal.Decimal `json:"principal_portion"`
	InterestPortion  decimal.Decimal `json:"interest_portion"`
	BalanceAfter     decimal.Decimal `json:"balance_after"`
	WalletID         string          `json:"wallet_id"`
	IntentID         string          `json:"intent_id,omitempty"`
}

// HasSplit reports whether the caller supplied a principal/interest split.
func (p PaymentInput) HasSplit() bool {
	return !p.PrincipalPortion.IsZero() || !p.InterestPortion.IsZero()
}

// Validate checks every field and reports all violations at once. Amounts
// are checked as they will be stored, rounded to cents.
func (p PaymentInput) Validate() error {
	var v ValidationError

	amount := RoundCents(p.Amount)
	principal := RoundCents(p.PrincipalPortion)
	interest := RoundCents(p.InterestPortion)

	if strings.TrimSpace(p.PaidAt) == "" {
		v.Add("La fecha de pago es obligatoria")
	} else if d, err := ParseDate(p.PaidAt); err != nil || d.Validate() != nil {
		v.Add("La fecha de pago no es válida (AAAA-MM-DD)")
	}
	if !amount.IsPositive() {
		v.Add("El monto debe ser mayor a 0")
	}
	if principal.IsNegative() {
		v.Add("El capital no puede ser negativo")
	}
	if interest.IsNegative() {
		v.Add("El interés no puede ser negativo")
	}
	if RoundCents(p.BalanceAfter).IsNegative() {
		v.Add("El saldo restante no puede ser negativo")
	}
	if !ValidID(p.WalletID) {
		v.Add("La billetera no es válida")
	}
	if p.IntentID != "" && !ValidID(p.IntentID) {
		v.Add("La clave de idempotencia no es válida")
	}
	if p.HasSplit() && amount.IsPositive() &&
		!WithinTolerance(amount, principal.Add(interest)) {
		v.Add("El monto debe ser igual a capital + interés")
	}

	return v.OrNil()
}
