// Package storage persists the strata domain in SQLite and is the only
// package that touches the database. The pure computation packages
// (schedule, finance) never see it; services read through here and feed
// them plain values.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"strata/internal/core"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict is returned when an optimistic update matched no row:
// someone else advanced the record first.
var ErrVersionConflict = errors.New("version conflict")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateStrata registers a new tenant organization.
func (r *SQLiteRepository) CreateStrata(ctx context.Context, name string) (core.Strata, error) {
	const q = `INSERT INTO stratas (name) VALUES (?)`

	res, err := r.db.ExecContext(ctx, q, name)
	if err != nil {
		return core.Strata{}, fmt.Errorf("create strata: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Strata{}, fmt.Errorf("strata insert id: %w", err)
	}
	return core.Strata{ID: id, Name: name}, nil
}

func (r *SQLiteRepository) GetStrata(ctx context.Context, id int64) (core.Strata, error) {
	const q = `SELECT id, name FROM stratas WHERE id = ?`

	var s core.Strata
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Strata{}, ErrNotFound
	}
	if err != nil {
		return core.Strata{}, fmt.Errorf("get strata: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) ListStratas(ctx context.Context) ([]core.Strata, error) {
	const q = `SELECT id, name FROM stratas ORDER BY id`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list stratas: %w", err)
	}
	defer rows.Close()

	var out []core.Strata
	for rows.Next() {
		var s core.Strata
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan strata: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// nullDate maps between core.Date and a nullable YYYY-MM-DD column.
func nullDate(d core.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func scanDate(ns sql.NullString) (core.Date, error) {
	if !ns.Valid || ns.String == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(ns.String)
}
