package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Schema is the DDL of the climate dataset. The service never runs it against
// the real store; it exists so fixtures match what CheckSchema expects.
//
//go:embed sql/schema.sql
var Schema string

// ErrSchemaMismatch is returned when the store lacks a declared table or column.
var ErrSchemaMismatch = errors.New("schema mismatch")

// Columns each table must expose. Extra columns in the store are fine.
var declaredColumns = map[string][]string{
	"station":     {"station", "name", "latitude", "longitude", "elevation"},
	"measurement": {"station", "date", "prcp", "tobs"},
}

// CheckSchema verifies the store carries every declared table and column.
func CheckSchema(ctx context.Context, db *sql.DB) error {
	tables := make([]string, 0, len(declaredColumns))
	for table := range declaredColumns {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	for _, table := range tables {
		have, err := tableColumns(ctx, db, table)
		if err != nil {
			return err
		}
		if len(have) == 0 {
			return fmt.Errorf("%w: table %q not found", ErrSchemaMismatch, table)
		}
		var missing []string
		for _, col := range declaredColumns[table] {
			if !have[col] {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: table %q missing columns %s", ErrSchemaMismatch, table, strings.Join(missing, ", "))
		}
	}
	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	// PRAGMA does not take bound parameters; table names come from declaredColumns only.
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close table_info rows", "table", table, "error", err)
		}
	}()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info %s: %w", table, err)
		}
		cols[strings.ToLower(name)] = true
	}
	return cols, rows.Err()
}
