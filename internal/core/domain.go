package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PriorityObligatory ExpensePriority = "obligatory"
	PriorityNecessary  ExpensePriority = "necessary"
	PriorityOptional   ExpensePriority = "optional"
)

const (
	WalletCash       WalletType = "cash"
	WalletBank       WalletType = "bank"
	WalletCreditCard WalletType = "credit_card"
)

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncError   SyncStatus = "error"
)

const (
	NotificationLoanPaidOff     = "loan_paid_off"
	NotificationPaymentUpcoming = "loan_payment_upcoming"
	NotificationPaymentOverdue  = "loan_payment_overdue"
)

const DateLayout = "2006-01-02"

// Bounds on loan and card terms accepted from callers.
const (
	MaxAnnualInterestRate = 1000.0
	MaxTermMonths         = 600
)

// ValidRate reports whether r is a finite annual rate in
// [0, MaxAnnualInterestRate].
func ValidRate(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0) && r >= 0 && r <= MaxAnnualInterestRate
}

type (
	ExpensePriority string
	WalletType      string
	SyncStatus      string

	Date struct {
		time.Time
	}

	Loan struct {
		ID                 string          `json:"id"`
		UserID             string          `json:"user_id"`
		SharedAccountID    *string         `json:"shared_account_id,omitempty"`
		Name               string          `json:"name"`
		Description        string          `json:"description"`
		Currency           string          `json:"currency"`
		Principal          decimal.Decimal `json:"principal"`
		AnnualInterestRate float64         `json:"annual_interest_rate"`
		TermMonths         int             `json:"term_months"`
		StartDate          Date            `json:"start_date"`
		CreatedAt          time.Time       `json:"created_at"`
	}

	LoanPayment struct {
		ID               string          `json:"id"`
		LoanID           string          `json:"loan_id"`
		IntentID         *string         `json:"intent_id,omitempty"`
		PaymentNumber    int             `json:"payment_number"`
		PaidAt           Date            `json:"paid_at"`
		Amount           decimal.Decimal `json:"amount"`
		PrincipalPortion decimal.Decimal `json:"principal_portion"`
		InterestPortion  decimal.Decimal `json:"interest_portion"`
		BalanceAfter     decimal.Decimal `json:"balance_after"`
		WalletID         string          `json:"wallet_id"`
		CreatedAt        time.Time       `json:"created_at"`
	}

	CreditCardTerms struct {
		CutOffDay          int             `json:"cut_off_day"`
		PaymentDueDay      *int            `json:"payment_due_day,omitempty"`
		AnnualInterestRate float64         `json:"annual_interest_rate"`
		CreditLimit        decimal.Decimal `json:"credit_limit"`
	}

	Wallet struct {
		ID         string           `json:"id"`
		UserID     string           `json:"user_id"`
		Name       string           `json:"name"`
		Type       WalletType       `json:"type"`
		Currency   string           `json:"currency"`
		Balance    decimal.Decimal  `json:"balance"`
		CreditCard *CreditCardTerms `json:"credit_card,omitempty"`
		CreatedAt  time.Time        `json:"created_at"`
	}

	Expense struct {
		ID            string          `json:"id"`
		UserID        string          `json:"user_id"`
		WalletID      string          `json:"wallet_id"`
		LoanPaymentID *string         `json:"loan_payment_id,omitempty"`
		Amount        decimal.Decimal `json:"amount"`
		Currency      string          `json:"currency"`
		Priority      ExpensePriority `json:"priority"`
		Description   string          `json:"description"`
		Date          Date            `json:"date"`
		SyncStatus    SyncStatus      `json:"sync_status"`
		Version       int64           `json:"version"`
		CreatedAt     time.Time       `json:"created_at"`
	}

	Notification struct {
		ID        string    `json:"id"`
		UserID    string    `json:"user_id"`
		Title     string    `json:"title"`
		Body      string    `json:"body"`
		Type      string    `json:"type"`
		Link      string    `json:"link"`
		DedupeKey string    `json:"-"`
		CreatedAt time.Time `json:"created_at"`
	}
)

var (
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidID     = errors.New("invalid id")
)

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether s is a well-formed identifier.
func ValidID(s string) bool {
	_, err := uuid.Parse(strings.TrimSpace(s))
	return err == nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// Validate checks a loan's parameters before it is stored.
func (l Loan) Validate() error {
	var v ValidationError
	if strings.TrimSpace(l.UserID) == "" {
		v.Add("El usuario es obligatorio")
	}
	if strings.TrimSpace(l.Name) == "" {
		v.Add("El nombre es obligatorio")
	}
	if len(l.Name) > 200 {
		v.Add("El nombre es demasiado largo (máximo 200 caracteres)")
	}
	if !l.Principal.IsPositive() {
		v.Add("El monto del préstamo debe ser mayor a 0")
	}
	if !ValidRate(l.AnnualInterestRate) {
		v.Add(fmt.Sprintf("La tasa de interés debe estar entre 0 y %g", MaxAnnualInterestRate))
	}
	if l.TermMonths < 1 || l.TermMonths > MaxTermMonths {
		v.Add(fmt.Sprintf("El plazo debe estar entre 1 y %d meses", MaxTermMonths))
	}
	if err := l.StartDate.Validate(); err != nil {
		v.Add("La fecha de inicio no es válida")
	}
	if !validCurrency(l.Currency) {
		v.Add("La moneda debe ser un código de 3 letras")
	}
	return v.OrNil()
}

// Validate checks a wallet before it is stored.
func (w Wallet) Validate() error {
	var v ValidationError
	if strings.TrimSpace(w.UserID) == "" {
		v.Add("El usuario es obligatorio")
	}
	if strings.TrimSpace(w.Name) == "" {
		v.Add("El nombre es obligatorio")
	}
	switch w.Type {
	case WalletCash, WalletBank:
		if w.CreditCard != nil {
			v.Add("Solo las tarjetas de crédito tienen condiciones de crédito")
		}
	case WalletCreditCard:
		if w.CreditCard == nil {
			v.Add("La tarjeta de crédito requiere día de corte")
			break
		}
		if w.CreditCard.CutOffDay < 1 || w.CreditCard.CutOffDay > 31 {
			v.Add("El día de corte debe estar entre 1 y 31")
		}
		if due := w.CreditCard.PaymentDueDay; due != nil && (*due < 1 || *due > 31) {
			v.Add("El día de pago debe estar entre 1 y 31")
		}
		if !ValidRate(w.CreditCard.AnnualInterestRate) {
			v.Add(fmt.Sprintf("La tasa de interés debe estar entre 0 y %g", MaxAnnualInterestRate))
		}
		if w.CreditCard.CreditLimit.IsNegative() {
			v.Add("El cupo no puede ser negativo")
		}
	default:
		v.Add("Tipo de billetera no válido")
	}
	if !validCurrency(w.Currency) {
		v.Add("La moneda debe ser un código de 3 letras")
	}
	return v.OrNil()
}

// Validate checks the fields a mirrored expense must carry before it is
// written anywhere outside the database.
func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Description) == "" {
		return errors.New("description cannot be empty")
	}
	if strings.TrimSpace(e.ID) == "" {
		return ErrInvalidID
	}
	return nil
}

// Debt returns the outstanding debt of a credit-card wallet, where a
// negative balance means money owed.
func (w Wallet) Debt() decimal.Decimal {
	if w.Balance.IsNegative() {
		return w.Balance.Neg()
	}
	return decimal.Zero
}

func validCurrency(c string) bool {
	c = strings.TrimSpace(c)
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
