package worker

import (
	"context"
	"fmt"
	"log/slog"

	"strata/internal/amqp"
	"strata/internal/core"
	"strata/internal/metrics"
	"strata/internal/sheets"
)

// ExpenseStore is the slice of storage the ledger worker needs.
type ExpenseStore interface {
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	ListPendingSyncExpenses(ctx context.Context, limit int) ([]core.Expense, error)
	MarkExpenseSynced(ctx context.Context, id int64) error
	MarkExpenseSyncError(ctx context.Context, id int64) error
	ResetExpenseSyncErrors(ctx context.Context) (int64, error)
}

// LedgerWorker exports expenses from SQLite to the shared ledger spreadsheet.
type LedgerWorker struct {
	store     ExpenseStore
	ledger    sheets.LedgerWriter
	batchSize int
}

func NewLedgerWorker(store ExpenseStore, ledger sheets.LedgerWriter, batchSize int) *LedgerWorker {
	return &LedgerWorker{
		store:     store,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single expense export message from AMQP.
func (w *LedgerWorker) HandleSyncMessage(ctx context.Context, msg *amqp.LedgerSyncMessage) error {
	slog.InfoContext(ctx, "Processing ledger sync message", "expense_id", msg.ExpenseID)

	expense, err := w.store.GetExpense(ctx, msg.ExpenseID)
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	if err := w.exportExpense(ctx, expense); err != nil {
		return fmt.Errorf("export expense: %w", err)
	}

	return nil
}

// ProcessPendingExpenses exports any expenses that haven't been synced yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *LedgerWorker) ProcessPendingExpenses(ctx context.Context) error {
	pending, err := w.store.ListPendingSyncExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending expenses", "count", len(pending))

	for _, expense := range pending {
		if err := w.exportExpense(ctx, expense); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense", "id", expense.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck recovers from missed AMQP messages or worker downtime:
// errored rows are reset to pending and a larger batch is exported.
func (w *LedgerWorker) StartupSyncCheck(ctx context.Context) error {
	reset, err := w.store.ResetExpenseSyncErrors(ctx)
	if err != nil {
		return fmt.Errorf("reset sync errors: %w", err)
	}
	if reset > 0 {
		slog.InfoContext(ctx, "Reset errored expenses for retry", "count", reset)
	}

	pending, err := w.store.ListPendingSyncExpenses(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending expenses for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending expenses found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending expenses on startup, processing...", "count", len(pending))

	successCount := 0
	errorCount := 0

	for _, expense := range pending {
		if err := w.exportExpense(ctx, expense); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense during startup", "id", expense.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *LedgerWorker) exportExpense(ctx context.Context, expense core.Expense) error {
	ref, err := w.ledger.Append(ctx, expense)
	if err != nil {
		metrics.LedgerExports.WithLabelValues("error").Inc()
		if markErr := w.store.MarkExpenseSyncError(ctx, expense.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", expense.ID, "error", markErr)
		}
		return fmt.Errorf("append to ledger: %w", err)
	}

	metrics.LedgerExports.WithLabelValues("success").Inc()

	if err := w.store.MarkExpenseSynced(ctx, expense.ID); err != nil {
		// The export itself worked, so don't fail the message.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", expense.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported expense to ledger",
		"id", expense.ID,
		"ledger_ref", ref,
		"amount_cents", expense.Amount.Cents)

	return nil
}
