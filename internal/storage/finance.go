package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"strata/internal/core"
)

// CreateFeeTier inserts a tier; the ID is caller-chosen and unique within
// the strata.
func (r *SQLiteRepository) CreateFeeTier(ctx context.Context, tier core.FeeTier) error {
	const q = `INSERT INTO fee_tiers (id, strata_id, name, amount_cents) VALUES (?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, q, tier.ID, tier.StrataID, tier.Name, tier.Amount.Cents); err != nil {
		return fmt.Errorf("create fee tier: %w", err)
	}

	slog.InfoContext(ctx, "Fee tier saved",
		"tier_id", tier.ID,
		"strata_id", tier.StrataID,
		"amount_cents", tier.Amount.Cents)

	return nil
}

func (r *SQLiteRepository) ListFeeTiers(ctx context.Context, strataID int64) ([]core.FeeTier, error) {
	const q = `SELECT id, strata_id, name, amount_cents FROM fee_tiers WHERE strata_id = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, q, strataID)
	if err != nil {
		return nil, fmt.Errorf("list fee tiers: %w", err)
	}
	defer rows.Close()

	var out []core.FeeTier
	for rows.Next() {
		var t core.FeeTier
		if err := rows.Scan(&t.ID, &t.StrataID, &t.Name, &t.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan fee tier: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteFeeTier removes a tier and unassigns any units that referenced it,
// so revenue aggregation never sees dangling references from our own data.
func (r *SQLiteRepository) DeleteFeeTier(ctx context.Context, strataID int64, tierID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete fee tier: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE units SET fee_tier_id = NULL WHERE strata_id = ? AND fee_tier_id = ?`,
		strataID, tierID); err != nil {
		return fmt.Errorf("unassign units: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM fee_tiers WHERE strata_id = ? AND id = ?`, strataID, tierID)
	if err != nil {
		return fmt.Errorf("delete fee tier: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete fee tier rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (r *SQLiteRepository) CreateUnit(ctx context.Context, unit core.UnitFeeAssignment) (int64, error) {
	const q = `INSERT INTO units (strata_id, unit_number, fee_tier_id) VALUES (?, ?, ?)`

	tierID := sql.NullString{}
	if unit.FeeTierID != "" {
		tierID = sql.NullString{String: unit.FeeTierID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, q, unit.StrataID, unit.UnitNumber, tierID)
	if err != nil {
		return 0, fmt.Errorf("create unit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("unit insert id: %w", err)
	}
	return id, nil
}

// ListUnitAssignments returns every unit of a strata with its tier
// reference; unassigned units come back with an empty FeeTierID.
func (r *SQLiteRepository) ListUnitAssignments(ctx context.Context, strataID int64) ([]core.UnitFeeAssignment, error) {
	const q = `SELECT id, strata_id, unit_number, fee_tier_id FROM units WHERE strata_id = ? ORDER BY unit_number`

	rows, err := r.db.QueryContext(ctx, q, strataID)
	if err != nil {
		return nil, fmt.Errorf("list unit assignments: %w", err)
	}
	defer rows.Close()

	var out []core.UnitFeeAssignment
	for rows.Next() {
		var (
			u      core.UnitFeeAssignment
			tierID sql.NullString
		)
		if err := rows.Scan(&u.UnitID, &u.StrataID, &u.UnitNumber, &tierID); err != nil {
			return nil, fmt.Errorf("scan unit assignment: %w", err)
		}
		if tierID.Valid {
			u.FeeTierID = tierID.String
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// AssignUnitTier sets or clears (empty tierID) a unit's fee tier.
func (r *SQLiteRepository) AssignUnitTier(ctx context.Context, unitID int64, tierID string) error {
	const q = `UPDATE units SET fee_tier_id = ? WHERE id = ?`

	value := sql.NullString{}
	if tierID != "" {
		value = sql.NullString{String: tierID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, q, value, unitID)
	if err != nil {
		return fmt.Errorf("assign unit tier: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign unit tier rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Unit tier assignment updated",
		"unit_id", unitID,
		"tier_id", tierID)

	return nil
}

func (r *SQLiteRepository) CreateFund(ctx context.Context, fund core.FundSnapshot) (int64, error) {
	const q = `INSERT INTO funds (strata_id, name, balance_cents, target_cents, interest_rate, compounding)
		VALUES (?, ?, ?, ?, ?, ?)`

	target := sql.NullInt64{}
	if fund.Target != nil {
		target = sql.NullInt64{Int64: fund.Target.Cents, Valid: true}
	}
	rate := sql.NullFloat64{}
	if fund.InterestRate != nil {
		rate = sql.NullFloat64{Float64: *fund.InterestRate, Valid: true}
	}
	compounding := fund.Compounding
	if compounding == "" {
		compounding = core.CompoundMonthly
	}

	res, err := r.db.ExecContext(ctx, q, fund.StrataID, fund.Name, fund.Balance.Cents, target, rate, string(compounding))
	if err != nil {
		return 0, fmt.Errorf("create fund: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("fund insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetFund(ctx context.Context, id int64) (core.FundSnapshot, error) {
	const q = `SELECT id, strata_id, name, balance_cents, target_cents, interest_rate, compounding
		FROM funds WHERE id = ?`

	fund, err := scanFund(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.FundSnapshot{}, ErrNotFound
	}
	if err != nil {
		return core.FundSnapshot{}, fmt.Errorf("get fund: %w", err)
	}
	return fund, nil
}

func (r *SQLiteRepository) ListFunds(ctx context.Context, strataID int64) ([]core.FundSnapshot, error) {
	const q = `SELECT id, strata_id, name, balance_cents, target_cents, interest_rate, compounding
		FROM funds WHERE strata_id = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, q, strataID)
	if err != nil {
		return nil, fmt.Errorf("list funds: %w", err)
	}
	defer rows.Close()

	var out []core.FundSnapshot
	for rows.Next() {
		fund, err := scanFund(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fund: %w", err)
		}
		out = append(out, fund)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateFundBalance(ctx context.Context, id int64, balance core.Money) error {
	const q = `UPDATE funds SET balance_cents = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	res, err := r.db.ExecContext(ctx, q, balance.Cents, id)
	if err != nil {
		return fmt.Errorf("update fund balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update fund balance rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFund(row rowScanner) (core.FundSnapshot, error) {
	var (
		fund        core.FundSnapshot
		target      sql.NullInt64
		rate        sql.NullFloat64
		compounding string
	)

	err := row.Scan(&fund.ID, &fund.StrataID, &fund.Name, &fund.Balance.Cents, &target, &rate, &compounding)
	if err != nil {
		return core.FundSnapshot{}, err
	}

	if target.Valid {
		fund.Target = &core.Money{Cents: target.Int64}
	}
	if rate.Valid {
		v := rate.Float64
		fund.InterestRate = &v
	}
	fund.Compounding = core.CompoundingFrequency(compounding)
	return fund, nil
}
