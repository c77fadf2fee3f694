package backend

import (
	"fmt"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/config"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/storage"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	sheetsType := SheetsType(appConfig.SheetsBackend)
	if !sheetsType.IsValid() {
		return Config{}, fmt.Errorf("invalid sheets backend in config: %s", appConfig.SheetsBackend)
	}

	return Config{
		DBDriver:     appConfig.DBDriver,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,

		AMQPURL:               appConfig.AMQPURL,
		AMQPExchange:          appConfig.AMQPExchange,
		AMQPSyncQueue:         appConfig.AMQPSyncQueue,
		AMQPNotificationQueue: appConfig.AMQPNotificationQueue,

		Sheets:              sheetsType,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetName:     appConfig.GoogleSheetName,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	switch c.DBDriver {
	case storage.DriverSQLite:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite driver")
		}
	case storage.DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.DBDriver)
	}

	if c.RequireAMQP && c.AMQPURL == "" {
		return fmt.Errorf("AMQP URL is required")
	}

	if c.WithSheets {
		if !c.Sheets.IsValid() {
			return fmt.Errorf("invalid sheets backend: %s", c.Sheets)
		}
		if c.Sheets == GoogleSheets && c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for google sheets backend")
		}
	}
	return nil
}

// DSN returns the data source for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == storage.DriverPostgres {
		return c.DatabaseURL
	}
	return c.SQLiteDBPath
}
