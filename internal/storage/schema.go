package storage

import (
	"context"
	"database/sql"
	"fmt"
)

type Table struct {
	Name string
	DDL  string // CREATE TABLE IF NOT EXISTS ...
}

// Seed is the default row written once into an empty primary table.
// Insert must be an insert-if-absent statement: when another process
// seeded first it affects zero rows instead of failing.
type Seed struct {
	Count  string
	Insert string
	Args   []any
}

type Schema struct {
	Name   string
	Tables []Table
	Seed   *Seed
}

// Initialize creates missing tables and seeds an empty primary table.
// It never drops or rewrites existing data and can run any number of times.
// The returned flag reports whether this call inserted the seed row.
func Initialize(ctx context.Context, db *sql.DB, schema Schema) (bool, error) {
	if err := checkPragmas(ctx, db); err != nil {
		return false, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("init schema %s: begin: %w", schema.Name, err)
	}
	for _, t := range schema.Tables {
		if _, err := tx.ExecContext(ctx, t.DDL); err != nil {
			_ = tx.Rollback()
			return false, fmt.Errorf("init schema %s: create %s: %w", schema.Name, t.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("init schema %s: commit: %w", schema.Name, err)
	}

	if schema.Seed == nil {
		return false, nil
	}
	return seed(ctx, db, schema.Name, schema.Seed)
}

func seed(ctx context.Context, db *sql.DB, name string, s *Seed) (bool, error) {
	var count int64
	if err := db.QueryRowContext(ctx, s.Count).Scan(&count); err != nil {
		return false, fmt.Errorf("seed %s: count: %w", name, err)
	}
	if count > 0 {
		return false, nil
	}

	res, err := db.ExecContext(ctx, s.Insert, s.Args...)
	if err != nil {
		return false, fmt.Errorf("seed %s: insert: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("seed %s: %w", name, err)
	}
	return n > 0, nil
}

// checkPragmas confirms the connection settings from the DSN took effect.
// Foreign keys in particular are off unless asked for.
func checkPragmas(ctx context.Context, db *sql.DB) error {
	var fk int
	if err := db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk); err != nil {
		return fmt.Errorf("read pragma foreign_keys: %w", err)
	}
	if fk != 1 {
		return fmt.Errorf("foreign key enforcement is off")
	}

	var journal string
	if err := db.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&journal); err != nil {
		return fmt.Errorf("read pragma journal_mode: %w", err)
	}
	if journal != "wal" {
		return fmt.Errorf("journal mode is %q, want wal", journal)
	}
	return nil
}
