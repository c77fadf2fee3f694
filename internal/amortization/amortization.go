// Package amortization computes theoretical payment schedules for fixed-term
// loans and revolving credit.
//
// Every function here is pure: no I/O, no shared state. Results are produced
// fresh on each call and are never persisted.
package amortization

import (
	"encoding/json"
	"math"
	"time"
)

// MaxCreditCardMonths caps a revolving schedule at 30 years.
const MaxCreditCardMonths = 360

// creditCardPayoffThreshold is the residual balance treated as paid off.
const creditCardPayoffThreshold = 0.01

const dateLayout = "2006-01-02"

// Row is one theoretical installment of a fixed-term loan.
type Row struct {
	PaymentNumber    int
	DueDate          time.Time
	Payment          float64
	PrincipalPortion float64
	InterestPortion  float64
	BalanceAfter     float64
}

// CreditCardRow is one month of a revolving-credit payoff projection.
type CreditCardRow struct {
	Month            int
	DueDate          time.Time
	Payment          float64
	PrincipalPortion float64
	InterestPortion  float64
	BalanceAfter     float64
}

type rowJSON struct {
	PaymentNumber    int     `json:"payment_number"`
	DueDate          string  `json:"due_date"`
	Payment          float64 `json:"payment"`
	PrincipalPortion float64 `json:"principal_portion"`
	InterestPortion  float64 `json:"interest_portion"`
	BalanceAfter     float64 `json:"balance_after"`
}

// MarshalJSON renders the due date as YYYY-MM-DD.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(rowJSON{
		PaymentNumber:    r.PaymentNumber,
		DueDate:          r.DueDate.Format(dateLayout),
		Payment:          r.Payment,
		PrincipalPortion: r.PrincipalPortion,
		InterestPortion:  r.InterestPortion,
		BalanceAfter:     r.BalanceAfter,
	})
}

// MarshalJSON renders the due date as YYYY-MM-DD.
func (r CreditCardRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Month            int     `json:"month"`
		DueDate          string  `json:"due_date"`
		Payment          float64 `json:"payment"`
		PrincipalPortion float64 `json:"principal_portion"`
		InterestPortion  float64 `json:"interest_portion"`
		BalanceAfter     float64 `json:"balance_after"`
	}{
		Month:            r.Month,
		DueDate:          r.DueDate.Format(dateLayout),
		Payment:          r.Payment,
		PrincipalPortion: r.PrincipalPortion,
		InterestPortion:  r.InterestPortion,
		BalanceAfter:     r.BalanceAfter,
	})
}

// MonthlyRate converts an annual percentage rate into a monthly decimal rate.
func MonthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / 12 / 100
}

// MonthlyPayment returns the fixed installment that repays principal over
// termMonths under compound monthly interest (French method).
// A non-positive term yields 0.
func MonthlyPayment(principal, annualRatePercent float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}
	r := MonthlyRate(annualRatePercent)
	if r == 0 {
		return principal / float64(termMonths)
	}
	factor := math.Pow(1+r, float64(termMonths))
	return principal * r * factor / (factor - 1)
}

// Schedule returns exactly termMonths rows for a fixed-payment loan, or nil
// when termMonths <= 0. The first installment falls one month after start.
func Schedule(principal, annualRatePercent float64, termMonths int, start time.Time) []Row {
	if termMonths <= 0 {
		return nil
	}

	r := MonthlyRate(annualRatePercent)
	payment := MonthlyPayment(principal, annualRatePercent, termMonths)
	balance := principal

	rows := make([]Row, 0, termMonths)
	for n := 1; n <= termMonths; n++ {
		interest := balance * r
		principalPart := math.Min(payment-interest, balance)
		balance = math.Max(0, balance-principalPart)

		rows = append(rows, Row{
			PaymentNumber:    n,
			DueDate:          AddMonths(start, n),
			Payment:          principalPart + interest,
			PrincipalPortion: principalPart,
			InterestPortion:  interest,
			BalanceAfter:     balance,
		})
	}
	return rows
}

// CreditCardSchedule projects how a revolving balance is paid off with a
// fixed monthly payment. The term is derived: rows stop once the balance
// drops to 0.01 or after MaxCreditCardMonths.
//
// An empty result means there is nothing to schedule: either the inputs are
// non-positive or the payment does not cover the first month's interest, in
// which case the balance would never decrease.
func CreditCardSchedule(currentBalance, annualRatePercent, monthlyPayment float64, start time.Time) []CreditCardRow {
	if monthlyPayment <= 0 || currentBalance <= 0 {
		return nil
	}

	r := MonthlyRate(annualRatePercent)
	if monthlyPayment <= currentBalance*r {
		return nil
	}

	monthStart := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	balance := currentBalance

	var rows []CreditCardRow
	for month := 1; month <= MaxCreditCardMonths && balance > creditCardPayoffThreshold; month++ {
		interest := balance * r
		principalPart := math.Min(monthlyPayment-interest, balance)
		balance -= principalPart
		if balance < 0 {
			balance = 0
		}

		rows = append(rows, CreditCardRow{
			Month:            month,
			DueDate:          monthStart.AddDate(0, month, 0),
			Payment:          principalPart + interest,
			PrincipalPortion: principalPart,
			InterestPortion:  interest,
			BalanceAfter:     balance,
		})
	}
	return rows
}

// Split is the interest/principal decomposition of one actual payment.
type Split struct {
	Principal    float64
	Interest     float64
	BalanceAfter float64
}

// SplitPayment decomposes amount paid against balance using the same
// per-period math as Schedule. Interest is charged first; the remainder
// reduces principal. BalanceAfter is clamped at zero.
func SplitPayment(balance, annualRatePercent, amount float64) Split {
	if amount <= 0 {
		return Split{BalanceAfter: math.Max(0, balance)}
	}
	interest := math.Max(0, balance*MonthlyRate(annualRatePercent))
	if interest > amount {
		interest = amount
	}
	principalPart := amount - interest
	return Split{
		Principal:    principalPart,
		Interest:     interest,
		BalanceAfter: math.Max(0, balance-principalPart),
	}
}

// Summary aggregates a schedule.
type Summary struct {
	Installments   int     `json:"installments"`
	TotalPaid      float64 `json:"total_paid"`
	TotalPrincipal float64 `json:"total_principal"`
	TotalInterest  float64 `json:"total_interest"`
}

// Summarize totals the rows of a schedule.
func Summarize(rows []Row) Summary {
	s := Summary{Installments: len(rows)}
	for _, r := range rows {
		s.TotalPaid += r.Payment
		s.TotalPrincipal += r.PrincipalPortion
		s.TotalInterest += r.InterestPortion
	}
	return s
}
