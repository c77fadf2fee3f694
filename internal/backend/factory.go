package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/amqp"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/sheets"
	gsheet "github.com/hrcamilo11/Presupuesto-sub001/internal/sheets/google"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/sheets/memory"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the database, then the optional broker and sheet
// writer. On failure everything opened so far is closed again.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := storage.Open(config.DBDriver, config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s repository: %w", config.DBDriver, err)
	}
	f.logger.Info("Initialized repository", "driver", config.DBDriver)

	b := &Backend{Storage: repo}

	b.AMQP, err = f.createAMQP(config)
	if err != nil {
		repo.Close()
		return nil, err
	}

	if config.WithSheets {
		b.Sheets, err = f.createSheets(ctx, config)
		if err != nil {
			closeAll(b)
			return nil, err
		}
	}

	return &BackendResult{
		Backend: b,
		Cleanup: func() error { return closeAll(b) },
	}, nil
}

func (f *DefaultFactory) createAMQP(config Config) (*amqp.Client, error) {
	if config.AMQPURL == "" {
		f.logger.Info("AMQP disabled, ledger messages will rely on the pending scan")
		return nil, nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPSyncQueue, config.AMQPNotificationQueue)
	if err != nil {
		if config.RequireAMQP {
			return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		f.logger.Warn("Failed to initialize AMQP client, continuing without messaging", "error", err)
		return nil, nil
	}

	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"sync_queue", config.AMQPSyncQueue,
		"notification_queue", config.AMQPNotificationQueue)
	return client, nil
}

func (f *DefaultFactory) createSheets(ctx context.Context, config Config) (sheets.ExpenseWriter, error) {
	switch config.Sheets {
	case GoogleSheets:
		cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets mirror", "spreadsheet_id", config.GoogleSpreadsheetID)
		return cli, nil
	default:
		f.logger.Info("Initialized in-memory sheets mirror")
		return memory.New(), nil
	}
}

func closeAll(b *Backend) error {
	var errs []error
	if b.AMQP != nil {
		if err := b.AMQP.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close amqp: %w", err))
		}
	}
	if b.Storage != nil {
		if err := b.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
