// Package schema keeps destination tables in step with the columns observed
// in incoming files.
//
// Evolution is strictly additive: columns are added as they appear and never
// dropped or narrowed, so a later file with fewer columns leaves earlier
// columns in place. Every column is a maximal-width text column; the source
// data is too heterogeneous for type inference to be reliable.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/Ingest/internal/database"
)

// Result reports what Sync did to the table.
type Result int

const (
	// Created means the table did not exist and was created.
	Created Result = iota
	// Updated means the table existed; it was truncated for the
	// full-replace load and any new columns were added.
	Updated
)

// String returns the result name for logging.
func (r Result) String() string {
	if r == Created {
		return "created"
	}
	return "updated"
}

// Sync ensures table exists and contains at least the given columns, in
// file order. Existing tables are truncated first: the loader performs a
// full-replace load, not an append. Runs entirely on the caller's
// transaction so a failed load rolls the schema change back too.
func Sync(ctx context.Context, tx database.Tx, table string, columns []string) (Result, error) {
	exists, err := tableExists(ctx, tx, table)
	if err != nil {
		return 0, fmt.Errorf("check table %s: %w", table, err)
	}

	if !exists {
		if err := createTable(ctx, tx, table, columns); err != nil {
			return 0, err
		}
		return Created, nil
	}

	if err := tx.Exec(ctx, "TRUNCATE "+quoteIdent(table)); err != nil {
		return 0, fmt.Errorf("truncate table %s: %w", table, err)
	}

	existing, err := tableColumns(ctx, tx, table)
	if err != nil {
		return 0, fmt.Errorf("list columns of %s: %w", table, err)
	}

	for _, col := range columns {
		if existing[col] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s text", quoteIdent(table), quoteIdent(col))
		if err := tx.Exec(ctx, stmt); err != nil {
			return 0, fmt.Errorf("add column %s.%s: %w", table, col, err)
		}
	}

	return Updated, nil
}

func createTable(ctx context.Context, tx database.Tx, table string, columns []string) error {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = quoteIdent(col) + " text"
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
	if err := tx.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

func tableExists(ctx context.Context, tx database.Tx, table string) (bool, error) {
	rows, err := tx.Query(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)`, table)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	var exists bool
	if rows.Next() {
		if err := rows.Scan(&exists); err != nil {
			return false, err
		}
	}
	return exists, rows.Err()
}

func tableColumns(ctx context.Context, tx database.Tx, table string) (map[string]bool, error) {
	rows, err := tx.Query(ctx,
		`SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// quoteIdent quotes a table or column name. Headers are the partner's
// contract and arrive with arbitrary casing and punctuation, so every
// identifier is quoted rather than folded.
func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
