package core

import "github.com/shopspring/decimal"

// LoanStatus is derived from the recorded payments, never stored.
type LoanStatus string

const (
	LoanActive  LoanStatus = "active"
	LoanPaidOff LoanStatus = "paid_off"
)

// StatusOf returns PaidOff once the last recorded payment leaves no balance.
// A loan can be paid off before its term when payments exceed the schedule.
func StatusOf(last *LoanPayment) LoanStatus {
	if last != nil && last.BalanceAfter.LessThanOrEqual(decimal.Zero) {
		return LoanPaidOff
	}
	return LoanActive
}

// RemainingBalance is the balance after the last payment, or the principal
// when nothing has been paid yet.
func RemainingBalance(l Loan, last *LoanPayment) decimal.Decimal {
	if last == nil {
		return l.Principal
	}
	return last.BalanceAfter
}
