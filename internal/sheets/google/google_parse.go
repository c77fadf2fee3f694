package google

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
)

// Column layout: Date, Description, Amount, Currency, Priority, ExpenseID, LoanPaymentID.
const idColumn = "F"

func expenseRow(e core.Expense) []any {
	paymentID := ""
	if e.LoanPaymentID != nil {
		paymentID = *e.LoanPaymentID
	}
	return []any{
		e.Date.String(),
		e.Description,
		e.Amount.StringFixed(2),
		e.Currency,
		string(e.Priority),
		e.ID,
		paymentID,
	}
}

// rowOfID returns the 1-based row whose first cell equals id, or 0.
func rowOfID(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

// quoteSheet quotes a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
