// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for installment reminders. Each
// reminder kind (upcoming, overdue) has its own strategy deciding whether an
// installment due date warrants a notification today.

package services

import (
	"fmt"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
)

// ReminderKind names a reminder strategy.
type ReminderKind string

const (
	ReminderUpcoming ReminderKind = "upcoming"
	ReminderOverdue  ReminderKind = "overdue"
)

// DuenessChecker is the strategy interface for installment reminders.
type DuenessChecker interface {
	// IsDue reports whether an installment due on dueDate should be
	// reminded about on today. Both are calendar days.
	IsDue(dueDate, today core.Date, reminderDays int) bool
	// NotificationType is the notification type the reminder produces.
	NotificationType() string
}

// UpcomingChecker fires from reminderDays before the due date up to the due
// date itself.
type UpcomingChecker struct{}

func (UpcomingChecker) IsDue(dueDate, today core.Date, reminderDays int) bool {
	if today.After(dueDate.Time) {
		return false
	}
	return daysBetween(today, dueDate) <= reminderDays
}

func (UpcomingChecker) NotificationType() string { return core.NotificationPaymentUpcoming }

// OverdueChecker fires once the due date has passed.
type OverdueChecker struct{}

func (OverdueChecker) IsDue(dueDate, today core.Date, _ int) bool {
	return today.After(dueDate.Time)
}

func (OverdueChecker) NotificationType() string { return core.NotificationPaymentOverdue }

func daysBetween(from, to core.Date) int {
	return int(to.Sub(from.Time).Hours() / 24)
}

// duenessStrategies maps reminder kinds to their checkers.
var duenessStrategies = map[ReminderKind]DuenessChecker{
	ReminderUpcoming: UpcomingChecker{},
	ReminderOverdue:  OverdueChecker{},
}

// reminderOrder is the evaluation order; the first matching kind wins.
var reminderOrder = []ReminderKind{ReminderOverdue, ReminderUpcoming}

// GetDuenessChecker returns the checker registered for kind.
func GetDuenessChecker(kind ReminderKind) (DuenessChecker, error) {
	checker, ok := duenessStrategies[kind]
	if !ok {
		return nil, fmt.Errorf("unknown reminder kind: %s", kind)
	}
	return checker, nil
}

// RegisterDuenessChecker replaces or adds the checker for kind. New kinds
// are evaluated after the built-in ones.
func RegisterDuenessChecker(kind ReminderKind, checker DuenessChecker) {
	if _, exists := duenessStrategies[kind]; !exists {
		reminderOrder = append(reminderOrder, kind)
	}
	duenessStrategies[kind] = checker
}

// dueReminder returns the first reminder kind that applies, if any.
func dueReminder(dueDate, today core.Date, reminderDays int) (ReminderKind, DuenessChecker, bool) {
	for _, kind := range reminderOrder {
		checker := duenessStrategies[kind]
		if checker.IsDue(dueDate, today, reminderDays) {
			return kind, checker, true
		}
	}
	return "", nil, false
}

// Compile-time interface checks
var (
	_ DuenessChecker = UpcomingChecker{}
	_ DuenessChecker = OverdueChecker{}
)
