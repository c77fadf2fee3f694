package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/amortization"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/cache"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/storage"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// LoanInput carries the caller-editable fields of a loan.
type LoanInput struct {
	UserID             string          `json:"user_id"`
	SharedAccountID    *string         `json:"shared_account_id,omitempty"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Currency           string          `json:"currency"`
	Principal          decimal.Decimal `json:"principal"`
	AnnualInterestRate float64         `json:"annual_interest_rate"`
	TermMonths         int             `json:"term_months"`
	StartDate          core.Date       `json:"start_date"`
}

// LoanUpdate is a partial edit; nil fields are left unchanged.
type LoanUpdate struct {
	Name               *string          `json:"name,omitempty"`
	Description        *string          `json:"description,omitempty"`
	Currency           *string          `json:"currency,omitempty"`
	Principal          *decimal.Decimal `json:"principal,omitempty"`
	AnnualInterestRate *float64         `json:"annual_interest_rate,omitempty"`
	TermMonths         *int             `json:"term_months,omitempty"`
	StartDate          *core.Date       `json:"start_date,omitempty"`
}

func (u LoanUpdate) changesTerms() bool {
	return u.Principal != nil || u.AnnualInterestRate != nil || u.TermMonths != nil || u.StartDate != nil
}

// LoanDetail is a loan with its recorded payments and theoretical schedule.
type LoanDetail struct {
	Loan             core.Loan            `json:"loan"`
	Status           core.LoanStatus      `json:"status"`
	MonthlyPayment   decimal.Decimal      `json:"monthly_payment"`
	RemainingBalance decimal.Decimal      `json:"remaining_balance"`
	NextDueDate      *core.Date           `json:"next_due_date,omitempty"`
	Payments         []core.LoanPayment   `json:"payments"`
	Schedule         []amortization.Row   `json:"schedule"`
	Summary          amortization.Summary `json:"summary"`
}

// LoanService manages loans and their read projections.
type LoanService struct {
	storage   *storage.Repository
	schedules *cache.LRUCache[[]amortization.Row]
	now       func() time.Time
}

func NewLoanService(storage *storage.Repository, schedules *cache.LRUCache[[]amortization.Row]) *LoanService {
	if schedules == nil {
		schedules = cache.NewLRUCache[[]amortization.Row](128, time.Hour)
	}
	return &LoanService{storage: storage, schedules: schedules, now: time.Now}
}

func (s *LoanService) CreateLoan(ctx context.Context, in LoanInput) (*core.Loan, error) {
	loan := core.Loan{
		ID:                 core.NewID(),
		UserID:             strings.TrimSpace(in.UserID),
		SharedAccountID:    in.SharedAccountID,
		Name:               strings.TrimSpace(in.Name),
		Description:        strings.TrimSpace(in.Description),
		Currency:           strings.ToUpper(strings.TrimSpace(in.Currency)),
		Principal:          core.RoundCents(in.Principal),
		AnnualInterestRate: in.AnnualInterestRate,
		TermMonths:         in.TermMonths,
		StartDate:          in.StartDate,
		CreatedAt:          s.now().UTC(),
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}
	if err := s.storage.CreateLoan(ctx, loan); err != nil {
		return nil, fmt.Errorf("save loan: %w", err)
	}
	return &loan, nil
}

func (s *LoanService) GetLoan(ctx context.Context, id string) (*core.Loan, error) {
	return s.storage.GetLoan(ctx, id)
}

func (s *LoanService) ListLoans(ctx context.Context, userID string) ([]core.Loan, error) {
	return s.storage.ListLoans(ctx, userID)
}

// UpdateLoan applies u. Terms (principal, rate, term, start date) can only
// change while the loan has no payments, since recorded payments were
// computed against them.
func (s *LoanService) UpdateLoan(ctx context.Context, id string, u LoanUpdate) (*core.Loan, error) {
	loan, err := s.storage.GetLoan(ctx, id)
	if err != nil {
		return nil, err
	}

	if u.changesTerms() {
		n, err := s.storage.CountPayments(ctx, id)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, &core.ConflictError{Reason: "No se pueden cambiar las condiciones de un préstamo con pagos registrados"}
		}
	}

	if u.Name != nil {
		loan.Name = strings.TrimSpace(*u.Name)
	}
	if u.Description != nil {
		loan.Description = strings.TrimSpace(*u.Description)
	}
	if u.Currency != nil {
		loan.Currency = strings.ToUpper(strings.TrimSpace(*u.Currency))
	}
	if u.Principal != nil {
		loan.Principal = core.RoundCents(*u.Principal)
	}
	if u.AnnualInterestRate != nil {
		loan.AnnualInterestRate = *u.AnnualInterestRate
	}
	if u.TermMonths != nil {
		loan.TermMonths = *u.TermMonths
	}
	if u.StartDate != nil {
		loan.StartDate = *u.StartDate
	}

	if err := loan.Validate(); err != nil {
		return nil, err
	}
	if err := s.storage.UpdateLoan(ctx, *loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// DeleteLoan removes a loan that has no payments.
func (s *LoanService) DeleteLoan(ctx context.Context, id string) error {
	if _, err := s.storage.GetLoan(ctx, id); err != nil {
		return err
	}
	n, err := s.storage.CountPayments(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return &core.ConflictError{Reason: "No se puede eliminar un préstamo con pagos registrados"}
	}
	return s.storage.DeleteLoan(ctx, id)
}

func (s *LoanService) ListPayments(ctx context.Context, loanID string) ([]core.LoanPayment, error) {
	if _, err := s.storage.GetLoan(ctx, loanID); err != nil {
		return nil, err
	}
	return s.storage.ListPayments(ctx, loanID)
}

// Schedule returns the theoretical amortization schedule of a loan.
func (s *LoanService) Schedule(ctx context.Context, loanID string) ([]amortization.Row, error) {
	loan, err := s.storage.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return s.scheduleFor(*loan), nil
}

func (s *LoanService) scheduleFor(l core.Loan) []amortization.Row {
	key := fmt.Sprintf("%s|%g|%d|%s", l.Principal.StringFixed(2), l.AnnualInterestRate, l.TermMonths, l.StartDate)
	return s.schedules.GetOrLoad(key, func() []amortization.Row {
		return amortization.Schedule(l.Principal.InexactFloat64(), l.AnnualInterestRate, l.TermMonths, l.StartDate.Time)
	})
}

// LoanDetail loads the payments and builds the schedule concurrently.
func (s *LoanService) LoanDetail(ctx context.Context, id string) (*LoanDetail, error) {
	loan, err := s.storage.GetLoan(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		payments []core.LoanPayment
		schedule []amortization.Row
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payments, err = s.storage.ListPayments(gctx, id)
		return err
	})
	g.Go(func() error {
		schedule = s.scheduleFor(*loan)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var last *core.LoanPayment
	if len(payments) > 0 {
		last = &payments[len(payments)-1]
	}

	detail := &LoanDetail{
		Loan:             *loan,
		Status:           core.StatusOf(last),
		MonthlyPayment:   core.FromFloat(amortization.MonthlyPayment(loan.Principal.InexactFloat64(), loan.AnnualInterestRate, loan.TermMonths)),
		RemainingBalance: core.RemainingBalance(*loan, last),
		Payments:         payments,
		Schedule:         schedule,
		Summary:          amortization.Summarize(schedule),
	}
	if detail.Payments == nil {
		detail.Payments = []core.LoanPayment{}
	}
	if detail.Status == core.LoanActive {
		due := nextDueDate(*loan, len(payments))
		detail.NextDueDate = &due
	}

	slog.DebugContext(ctx, "Loan detail built",
		"loan_id", id,
		"payments", len(payments),
		"status", detail.Status)
	return detail, nil
}

// nextDueDate is the due date of the installment after paidCount payments.
func nextDueDate(l core.Loan, paidCount int) core.Date {
	return core.DateOf(amortization.AddMonths(l.StartDate.Time, paidCount+1))
}
