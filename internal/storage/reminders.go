package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"strata/internal/core"
)

const reminderColumns = `id, strata_id, title,
	pattern, recur_interval, monthly_type, monthly_date, week_position, weekday, weekly_days, yearly_month, end_date,
	next_date, last_sent, sent_count, status, version`

// CreateReminder inserts a reminder series with its initial occurrence
// state and returns the new ID.
func (r *SQLiteRepository) CreateReminder(ctx context.Context, rem core.Reminder) (int64, error) {
	const q = `
		INSERT INTO reminders (
			strata_id, title,
			pattern, recur_interval, monthly_type, monthly_date, week_position, weekday, weekly_days, yearly_month, end_date,
			next_date, last_sent, sent_count, status, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`

	cols := encodeRule(rem.Rule)
	res, err := r.db.ExecContext(ctx, q,
		rem.StrataID, rem.Title,
		cols.Pattern, cols.Interval, cols.MonthlyType, cols.MonthlyDate,
		cols.WeekPosition, cols.Weekday, cols.WeeklyDays, cols.YearlyMonth, cols.EndDate,
		nullDate(rem.NextDate), nullDate(rem.LastSent), rem.SentCount, string(rem.Status),
	)
	if err != nil {
		return 0, fmt.Errorf("create reminder: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reminder insert id: %w", err)
	}

	slog.InfoContext(ctx, "Reminder saved",
		"id", id,
		"strata_id", rem.StrataID,
		"pattern", cols.Pattern,
		"next_date", rem.NextDate.String())

	return id, nil
}

func (r *SQLiteRepository) GetReminder(ctx context.Context, id int64) (core.Reminder, error) {
	q := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = ?`

	rem, err := scanReminder(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Reminder{}, ErrNotFound
	}
	if err != nil {
		return core.Reminder{}, fmt.Errorf("get reminder: %w", err)
	}
	return rem, nil
}

func (r *SQLiteRepository) ListReminders(ctx context.Context, strataID int64) ([]core.Reminder, error) {
	q := `SELECT ` + reminderColumns + ` FROM reminders WHERE strata_id = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, q, strataID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var out []core.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

// ListDueReminders returns active reminders whose next occurrence falls on
// or before asOf, across all stratas. The dispatch worker drives this.
func (r *SQLiteRepository) ListDueReminders(ctx context.Context, asOf core.Date) ([]core.Reminder, error) {
	q := `SELECT ` + reminderColumns + ` FROM reminders
		WHERE status = ? AND next_date IS NOT NULL AND next_date <= ?
		ORDER BY next_date, id`

	rows, err := r.db.QueryContext(ctx, q, string(core.ReminderActive), asOf.String())
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	defer rows.Close()

	var out []core.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due reminder: %w", err)
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

// AdvanceReminder persists the occurrence state computed after a send.
// The version predicate makes the update optimistic: if another worker
// advanced the same reminder first, no row matches and ErrVersionConflict
// is returned, so concurrent sends can never double-advance the schedule
// or double-count a send.
func (r *SQLiteRepository) AdvanceReminder(ctx context.Context, id, version int64, next, lastSent core.Date, status core.ReminderStatus) error {
	const q = `
		UPDATE reminders
		SET next_date = ?, last_sent = ?, sent_count = sent_count + 1,
		    status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	res, err := r.db.ExecContext(ctx, q, nullDate(next), nullDate(lastSent), string(status), id, version)
	if err != nil {
		return fmt.Errorf("advance reminder: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance reminder rows: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}

	slog.InfoContext(ctx, "Reminder advanced",
		"id", id,
		"next_date", next.String(),
		"status", string(status))

	return nil
}

// RescheduleReminder replaces the rule and recomputed next date after an
// edit, also under the version predicate.
func (r *SQLiteRepository) RescheduleReminder(ctx context.Context, id, version int64, rule core.RecurrenceRule, next core.Date, status core.ReminderStatus) error {
	const q = `
		UPDATE reminders
		SET pattern = ?, recur_interval = ?, monthly_type = ?, monthly_date = ?,
		    week_position = ?, weekday = ?, weekly_days = ?, yearly_month = ?, end_date = ?,
		    next_date = ?, status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	cols := encodeRule(rule)
	res, err := r.db.ExecContext(ctx, q,
		cols.Pattern, cols.Interval, cols.MonthlyType, cols.MonthlyDate,
		cols.WeekPosition, cols.Weekday, cols.WeeklyDays, cols.YearlyMonth, cols.EndDate,
		nullDate(next), string(status), id, version,
	)
	if err != nil {
		return fmt.Errorf("reschedule reminder: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reschedule reminder rows: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *SQLiteRepository) UpdateReminderStatus(ctx context.Context, id int64, status core.ReminderStatus) error {
	const q = `UPDATE reminders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	res, err := r.db.ExecContext(ctx, q, string(status), id)
	if err != nil {
		return fmt.Errorf("update reminder status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update reminder status rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteReminder(ctx context.Context, id int64) error {
	const q = `DELETE FROM reminders WHERE id = ?`

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete reminder rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (core.Reminder, error) {
	var (
		rem      core.Reminder
		cols     ruleColumns
		next     sql.NullString
		lastSent sql.NullString
		status   string
	)

	err := row.Scan(
		&rem.ID, &rem.StrataID, &rem.Title,
		&cols.Pattern, &cols.Interval, &cols.MonthlyType, &cols.MonthlyDate,
		&cols.WeekPosition, &cols.Weekday, &cols.WeeklyDays, &cols.YearlyMonth, &cols.EndDate,
		&next, &lastSent, &rem.SentCount, &status, &rem.Version,
	)
	if err != nil {
		return core.Reminder{}, err
	}

	rule, err := decodeRule(cols)
	if err != nil {
		return core.Reminder{}, err
	}
	rem.Rule = rule
	rem.Status = core.ReminderStatus(status)

	if rem.NextDate, err = scanDate(next); err != nil {
		return core.Reminder{}, err
	}
	if rem.LastSent, err = scanDate(lastSent); err != nil {
		return core.Reminder{}, err
	}
	return rem, nil
}
