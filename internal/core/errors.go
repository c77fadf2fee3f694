package core

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError lists every rule a caller-supplied record violates.
// It is always raised before any write.
type ValidationError struct {
	Violations []string
}

// Add records one violated rule.
func (e *ValidationError) Add(msg string) {
	e.Violations = append(e.Violations, msg)
}

// OrNil returns e as an error when it holds violations, nil otherwise.
func (e *ValidationError) OrNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, "; ")
}

// NotFoundError reports a reference to a loan or wallet that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

const (
	EntityLoan        = "loan"
	EntityWallet      = "wallet"
	EntityLoanPayment = "loan_payment"
	EntityExpense     = "expense"
)

func (e *NotFoundError) Error() string {
	switch e.Entity {
	case EntityLoan:
		return "Préstamo no encontrado"
	case EntityWallet:
		return "Billetera no encontrada"
	case EntityLoanPayment:
		return "Pago no encontrado"
	case EntityExpense:
		return "Gasto no encontrado"
	default:
		return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
	}
}

// ConflictError reports an operation refused because of existing state,
// such as editing the terms of a loan that already has payments.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// PartialApplicationError means a multi-step write failed and could not be
// rolled back, so some of its effects may be persisted. Applied maps each
// completed step to the id it produced. The record needs reconciliation.
type PartialApplicationError struct {
	Step    string
	Applied map[string]string
	Err     error
}

func (e *PartialApplicationError) Error() string {
	steps := make([]string, 0, len(e.Applied))
	for step, id := range e.Applied {
		steps = append(steps, step+"="+id)
	}
	sort.Strings(steps)
	return fmt.Sprintf("partial application at step %s (applied: %s): %v", e.Step, strings.Join(steps, ", "), e.Err)
}

func (e *PartialApplicationError) Unwrap() error {
	return e.Err
}
