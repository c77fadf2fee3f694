package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
	"github.com/shopspring/decimal"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "")
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewSheetsService_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := newSheetsService(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Gastos", 2024, "2024 Gastos"},
		{"  Gastos  ", 2025, "2025 Gastos"},
		{"2023 Gastos", 2024, "2023 Gastos"},
		{"", 2024, ""},
		{"12345", 2024, "2024 12345"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestExpenseRow(t *testing.T) {
	pid := "pay-1"
	row := expenseRow(core.Expense{
		ID:            "exp-1",
		LoanPaymentID: &pid,
		Amount:        decimal.RequireFromString("1066.1"),
		Currency:      "COP",
		Priority:      core.PriorityObligatory,
		Description:   "Pago préstamo Carro #1",
		Date:          core.NewDate(2024, 2, 15),
	})
	want := []any{"2024-02-15", "Pago préstamo Carro #1", "1066.10", "COP", "obligatory", "exp-1", "pay-1"}
	if len(row) != len(want) {
		t.Fatalf("row len = %d, want %d", len(row), len(want))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestRowOfID(t *testing.T) {
	values := [][]any{{"ExpenseID"}, {}, {"a"}, {" b "}}
	if got := rowOfID(values, "b"); got != 4 {
		t.Errorf("rowOfID(b) = %d, want 4", got)
	}
	if got := rowOfID(values, "z"); got != 0 {
		t.Errorf("rowOfID(z) = %d, want 0", got)
	}
}

func TestClient_AppendValidates(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	_, err := c.Append(context.Background(), core.Expense{ID: "x", Description: "d", Amount: decimal.NewFromInt(1)})
	if err == nil {
		t.Fatal("expected validation error for zero date")
	}

	_, err = c.Append(context.Background(), core.Expense{
		ID: "x", Description: "d", Date: core.NewDate(2024, 1, 1),
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

type fakeSheet struct {
	mu       sync.Mutex
	ids      []string
	appended int
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil || len(vr.Values) != 1 {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		f.appended++
		f.ids = append(f.ids, vr.Values[0][5].(string))
		json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId": "sheet-1",
			"updates":       map[string]any{"updatedRange": "'2024 Gastos'!A1:G1"},
		})
	case r.Method == http.MethodGet:
		values := make([][]any, 0, len(f.ids))
		for _, id := range f.ids {
			values = append(values, []any{id})
		}
		json.NewEncoder(w).Encode(map[string]any{"values": values})
	default:
		http.NotFound(w, r)
	}
}

func TestClient_AppendSkipsMirroredRows(t *testing.T) {
	fake := &fakeSheet{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	c := NewWithService(svc, "sheet-1", "")

	e := core.Expense{
		ID:          "exp-1",
		Amount:      decimal.NewFromInt(100),
		Currency:    "COP",
		Priority:    core.PriorityObligatory,
		Description: "Pago préstamo Carro #1",
		Date:        core.NewDate(2024, 2, 15),
	}

	ref, err := c.Append(context.Background(), e)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if ref != "'2024 Gastos'!A1:G1" {
		t.Errorf("Append() ref = %q", ref)
	}

	ref, err = c.Append(context.Background(), e)
	if err != nil {
		t.Fatalf("second Append() error = %v", err)
	}
	if fake.appended != 1 {
		t.Errorf("appended %d rows, want 1", fake.appended)
	}
	if ref != "'2024 Gastos'!A1:G1" {
		t.Errorf("second Append() ref = %q", ref)
	}
}
