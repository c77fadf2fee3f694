package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/storage"
)

// DefaultReminderDays is how many days before a due date the upcoming
// reminder starts.
const DefaultReminderDays = 3

// OverdueProcessor compares each active loan's next expected due date with
// today and stores upcoming or overdue reminders. Each installment gets at
// most one reminder of each kind.
type OverdueProcessor struct {
	storage      *storage.Repository
	publisher    Publisher
	reminderDays int
}

func NewOverdueProcessor(storage *storage.Repository, publisher Publisher, reminderDays int) *OverdueProcessor {
	if reminderDays < 0 {
		reminderDays = DefaultReminderDays
	}
	return &OverdueProcessor{
		storage:      storage,
		publisher:    publisher,
		reminderDays: reminderDays,
	}
}

// ProcessDueLoans checks every loan against now and returns how many new
// reminders were stored.
func (p *OverdueProcessor) ProcessDueLoans(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	loans, err := p.storage.ListAllLoans(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list loans: %w", err)
	}

	today := core.DateOf(now)
	slog.InfoContext(ctx, "Checking loan installments",
		"total_loans", len(loans),
		"processing_date", today.String(),
		"reminder_days", p.reminderDays)

	created := 0
	for _, loan := range loans {
		ok, err := p.processLoan(ctx, loan, today, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to process loan reminder",
				"loan_id", loan.ID,
				"error", err)
			continue
		}
		if ok {
			created++
		}
	}

	slog.InfoContext(ctx, "Loan reminder processing complete",
		"created", created,
		"total_checked", len(loans))

	return created, nil
}

func (p *OverdueProcessor) processLoan(ctx context.Context, loan core.Loan, today core.Date, now time.Time) (bool, error) {
	last, err := p.storage.LastPayment(ctx, loan.ID)
	if err != nil {
		return false, err
	}
	if core.StatusOf(last) == core.LoanPaidOff {
		return false, nil
	}

	paid := 0
	if last != nil {
		paid = last.PaymentNumber
	}
	installment := paid + 1
	due := nextDueDate(loan, paid)

	kind, checker, ok := dueReminder(due, today, p.reminderDays)
	if !ok {
		return false, nil
	}

	n := reminderNotification(loan, kind, checker.NotificationType(), installment, due, now)
	stored, err := p.storage.CreateNotification(ctx, n)
	if err != nil {
		return false, err
	}
	if !stored {
		return false, nil
	}

	slog.InfoContext(ctx, "Loan reminder created",
		"loan_id", loan.ID,
		"kind", kind,
		"installment", installment,
		"due_date", due.String())

	if p.publisher != nil {
		if err := p.publisher.PublishNotification(ctx, n.ID, n.UserID, n.Type); err != nil {
			slog.ErrorContext(ctx, "Failed to publish notification message",
				"notification_id", n.ID, "error", err)
		}
	}
	return true, nil
}

func reminderNotification(loan core.Loan, kind ReminderKind, notificationType string, installment int, due core.Date, now time.Time) core.Notification {
	n := core.Notification{
		ID:        core.NewID(),
		UserID:    loan.UserID,
		Type:      notificationType,
		Link:      "/loans/" + loan.ID,
		DedupeKey: fmt.Sprintf("%s:%s:%d", kind, loan.ID, installment),
		CreatedAt: now.UTC(),
	}
	switch kind {
	case ReminderOverdue:
		n.Title = "Cuota vencida"
		n.Body = fmt.Sprintf("La cuota #%d del préstamo %s venció el %s", installment, loan.Name, due)
	default:
		n.Title = "Cuota próxima"
		n.Body = fmt.Sprintf("La cuota #%d del préstamo %s vence el %s", installment, loan.Name, due)
	}
	return n
}
