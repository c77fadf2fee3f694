package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/sheets"
)

var _ sheets.ExpenseWriter = (*Store)(nil)

// Store is an in-process sheet used by tests and local runs without Google
// credentials.
type Store struct {
	mu    sync.Mutex
	items []core.Expense
	rows  map[string]int
}

func New() *Store {
	return &Store{rows: map[string]int{}}
}

// Append stores the expense and returns a synthetic row reference. An
// expense appended twice keeps its first row.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[e.ID]; ok {
		return fmt.Sprintf("mem:%d", row), nil
	}
	s.items = append(s.items, e)
	s.rows[e.ID] = len(s.items)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Items returns a copy of every stored expense in append order.
func (s *Store) Items() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...)
}
