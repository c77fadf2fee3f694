package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/amqp"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/sheets"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/storage"
)

// SyncWorker mirrors expenses written by the ledger into the spreadsheet
type SyncWorker struct {
	storage   *storage.Repository
	sheets    sheets.ExpenseWriter
	batchSize int
}

func NewSyncWorker(storage *storage.Repository, sheets sheets.ExpenseWriter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		storage:   storage,
		sheets:    sheets,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single expense sync message from AMQP
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	expense, err := w.storage.GetExpense(ctx, msg.ID)
	var nf *core.NotFoundError
	if errors.As(err, &nf) {
		slog.WarnContext(ctx, "Expense no longer exists, dropping sync message", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	if expense.SyncStatus == core.SyncSynced && expense.Version >= msg.Version {
		slog.InfoContext(ctx, "Expense already synced, skipping",
			"id", msg.ID,
			"version", expense.Version)
		return nil
	}

	if err := w.syncExpense(ctx, *expense); err != nil {
		return fmt.Errorf("sync expense to sheets: %w", err)
	}
	return nil
}

// ProcessPendingExpenses processes any expenses that haven't been synced yet.
// It is the backup for messages that were never published or got lost.
func (w *SyncWorker) ProcessPendingExpenses(ctx context.Context) error {
	_, _, err := w.processPending(ctx, w.batchSize)
	return err
}

// StartupSyncCheck drains a larger batch of pending expenses at worker
// startup to recover from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	if synced+failed == 0 {
		slog.InfoContext(ctx, "No pending expenses found on startup")
		return nil
	}
	slog.InfoContext(ctx, "Startup sync completed",
		"total", synced+failed,
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.storage.GetPendingSyncExpenses(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	slog.InfoContext(ctx, "Processing pending expenses", "count", len(pending))

	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}

		expense, err := w.storage.GetExpense(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get expense", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			failed++
			continue
		}

		if err := w.syncExpense(ctx, *expense); err != nil {
			slog.ErrorContext(ctx, "Failed to sync expense", "id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

func (w *SyncWorker) syncExpense(ctx context.Context, expense core.Expense) error {
	ref, err := w.sheets.Append(ctx, expense)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, expense.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", expense.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	// The row is already written; a failed status update only means the
	// next scan appends again, which the writer deduplicates by id.
	if err := w.storage.MarkSynced(ctx, expense.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", expense.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced expense",
		"id", expense.ID,
		"sheets_ref", ref,
		"description", expense.Description,
		"amount", expense.Amount.StringFixed(2))
	return nil
}
