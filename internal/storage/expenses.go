package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"strata/internal/core"
)

// Expense sync statuses for the ledger-export pipeline.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

// CreateExpense saves an expense in pending sync state and returns its ID.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	const q = `INSERT INTO expenses (strata_id, expense_date, description, amount_cents, category, sync_status)
		VALUES (?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, q,
		e.StrataID, e.Date.String(), e.Description, e.Amount.Cents, e.Category, SyncPending)
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"strata_id", e.StrataID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)

	return id, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	const q = `SELECT id, strata_id, expense_date, description, amount_cents, category
		FROM expenses WHERE id = ?`

	e, err := scanExpense(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns a strata's expenses for one month.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, strataID int64, year, month int) ([]core.Expense, error) {
	const q = `SELECT id, strata_id, expense_date, description, amount_cents, category
		FROM expenses
		WHERE strata_id = ? AND expense_date >= ? AND expense_date < ?
		ORDER BY expense_date, id`

	from := core.NewDate(year, month, 1)
	to := core.NewDate(year, month+1, 1)

	rows, err := r.db.QueryContext(ctx, q, strataID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListPendingSyncExpenses returns expenses not yet exported to the ledger
// spreadsheet, oldest first.
func (r *SQLiteRepository) ListPendingSyncExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	const q = `SELECT id, strata_id, expense_date, description, amount_cents, category
		FROM expenses WHERE sync_status = ? ORDER BY id LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkExpenseSynced marks an expense as successfully exported.
func (r *SQLiteRepository) MarkExpenseSynced(ctx context.Context, id int64) error {
	return r.setExpenseSyncStatus(ctx, id, SyncDone)
}

// MarkExpenseSyncError marks an expense as having failed export; the
// periodic retry pass picks it up again once it is reset to pending.
func (r *SQLiteRepository) MarkExpenseSyncError(ctx context.Context, id int64) error {
	slog.WarnContext(ctx, "Expense marked with sync error", "id", id)
	return r.setExpenseSyncStatus(ctx, id, SyncError)
}

// ResetExpenseSyncErrors moves errored expenses back to pending so the
// retry ticker re-attempts them.
func (r *SQLiteRepository) ResetExpenseSyncErrors(ctx context.Context) (int64, error) {
	const q = `UPDATE expenses SET sync_status = ? WHERE sync_status = ?`

	res, err := r.db.ExecContext(ctx, q, SyncPending, SyncError)
	if err != nil {
		return 0, fmt.Errorf("reset expense sync errors: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) setExpenseSyncStatus(ctx context.Context, id int64, status string) error {
	const q = `UPDATE expenses SET sync_status = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return fmt.Errorf("set expense sync status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set expense sync status rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e       core.Expense
		dateStr string
	)
	if err := row.Scan(&e.ID, &e.StrataID, &dateStr, &e.Description, &e.Amount.Cents, &e.Category); err != nil {
		return core.Expense{}, err
	}
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Expense{}, err
	}
	e.Date = date
	return e, nil
}
