package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"climate-server/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

// storeParams open the climate store strictly read-only and wait out a
// writer holding the file during a dataset refresh.
var storeParams = []string{
	"mode=ro",
	"_query_only=true",
	"_busy_timeout=5000",
}

// Open connects to the climate store and verifies it answers before any
// request is served. With SQLiteLogQueries set every statement goes through
// the logging connector.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := openPool(cfg, dsn)
	if err != nil {
		return nil, err
	}
	configurePool(pool, cfg)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("db ping %s: %w", cfg.SQLitePath, err)
	}
	return pool, nil
}

func openPool(cfg config.Config, dsn string) (*sql.DB, error) {
	if !cfg.SQLiteLogQueries {
		pool, err := sql.Open(cfg.SQLiteDriver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		return pool, nil
	}
	connector, err := NewLoggingConnector(dsn, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("db connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// configurePool applies the pool limits. Each repository call borrows one
// connection and returns it before the call completes.
func configurePool(pool *sql.DB, cfg config.Config) {
	if cfg.SQLiteMaxOpenConns > 0 {
		pool.SetMaxOpenConns(cfg.SQLiteMaxOpenConns)
	}
	if cfg.SQLiteMaxIdleConns >= 0 {
		pool.SetMaxIdleConns(cfg.SQLiteMaxIdleConns)
	}
	if cfg.SQLiteConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(cfg.SQLiteConnMaxLifetime)
	}
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// buildDSN returns DB_DSN verbatim, or turns SQLITE_PATH (plain path or
// file: URI) into a read-only URI. The file must already exist; sqlite would
// otherwise create an empty store in its place.
func buildDSN(cfg config.Config) (string, error) {
	if cfg.SQLiteDSN != "" {
		return cfg.SQLiteDSN, nil
	}

	uri := cfg.SQLitePath
	if !strings.HasPrefix(uri, "file:") {
		uri = "file:" + uri
	}
	file, query, hasQuery := strings.Cut(strings.TrimPrefix(uri, "file:"), "?")
	if _, err := os.Stat(file); err != nil {
		return "", fmt.Errorf("sqlite file %s: %w", file, err)
	}

	extra := strings.Join(storeParams, "&")
	if hasQuery && query != "" {
		return uri + "&" + extra, nil
	}
	return "file:" + file + "?" + extra, nil
}
