package backend

import (
	"context"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/amqp"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/sheets"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Backend bundles the infrastructure a binary runs on. AMQP and Sheets are
// nil when they are disabled or were not requested.
type Backend struct {
	Storage *storage.Repository
	AMQP    *amqp.Client
	Sheets  sheets.ExpenseWriter
}

// BackendResult contains the backend instance and its cleanup function
type BackendResult struct {
	Backend *Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	DBDriver     string
	SQLiteDBPath string
	DatabaseURL  string

	// AMQP is optional; an empty URL disables publishing and consuming.
	AMQPURL               string
	AMQPExchange          string
	AMQPSyncQueue         string
	AMQPNotificationQueue string
	// RequireAMQP makes a broker connection failure fatal instead of
	// degrading to database-only mode.
	RequireAMQP bool

	// WithSheets asks for a sheet writer; only the worker needs one.
	WithSheets          bool
	Sheets              SheetsType
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// SheetsType selects the expense mirror implementation
type SheetsType string

const (
	MemorySheets SheetsType = "memory"
	GoogleSheets SheetsType = "google"
)

// String implements fmt.Stringer
func (st SheetsType) String() string {
	return string(st)
}

// IsValid returns true if the sheets type is known
func (st SheetsType) IsValid() bool {
	switch st {
	case MemorySheets, GoogleSheets:
		return true
	default:
		return false
	}
}
