package sheets

import (
	"context"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
)

// ExpenseWriter mirrors a stored expense into an external spreadsheet.
// Append must be safe to call again for an expense it already wrote.
type ExpenseWriter interface {
	Append(ctx context.Context, e core.Expense) (rowRef string, err error)
}
