package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/storage"
	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *storage.Repository {
	t.Helper()
	repo, _ := newTestRepoAt(t)
	return repo
}

// newTestRepoAt also returns the database path, for tests that need to
// alter the schema from a second connection.
func newTestRepoAt(t *testing.T) (*storage.Repository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

// execSQL runs statements on the database file through its own connection.
func execSQL(t *testing.T, path string, stmts ...string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer db.Close()
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}

func createLoan(t *testing.T, repo *storage.Repository, principal int64, rate float64, term int) core.Loan {
	t.Helper()
	l := core.Loan{
		ID:                 core.NewID(),
		UserID:             "user-1",
		Name:               "Carro",
		Currency:           "COP",
		Principal:          decimal.NewFromInt(principal),
		AnnualInterestRate: rate,
		TermMonths:         term,
		StartDate:          core.NewDate(2024, 1, 1),
		CreatedAt:          time.Now(),
	}
	if err := repo.CreateLoan(context.Background(), l); err != nil {
		t.Fatalf("CreateLoan() error = %v", err)
	}
	return l
}

func createWallet(t *testing.T, repo *storage.Repository, balance int64) core.Wallet {
	t.Helper()
	w := core.Wallet{
		ID:        core.NewID(),
		UserID:    "user-1",
		Name:      "Cuenta de ahorros",
		Type:      core.WalletBank,
		Currency:  "COP",
		Balance:   decimal.NewFromInt(balance),
		CreatedAt: time.Now(),
	}
	if err := repo.CreateWallet(context.Background(), w); err != nil {
		t.Fatalf("CreateWallet() error = %v", err)
	}
	return w
}

type published struct {
	kind string
	id   string
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) PublishExpenseSync(_ context.Context, id string, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, published{kind: "expense_sync", id: id})
	return f.err
}

func (f *fakePublisher) PublishNotification(_ context.Context, id, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, published{kind: "notification", id: id})
	return f.err
}

func (f *fakePublisher) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.msgs {
		if m.kind == kind {
			n++
		}
	}
	return n
}
