package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envKeys = []string{
	"APP_ENV",
	"LOG_LEVEL",
	"HTTP_ADDR",
	"HTTP_REQUEST_TIMEOUT",
	"DB_DRIVER",
	"DB_DSN",
	"SQLITE_PATH",
	"DB_MAX_OPEN_CONNS",
	"DB_MAX_IDLE_CONNS",
	"DB_CONN_MAX_LIFETIME",
	"DB_LOG_SQL",
	"BREAKER_MAX_FAILURES",
	"BREAKER_OPEN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}

	if got.AppEnv != "dev" {
		t.Errorf("AppEnv = %q, want %q", got.AppEnv, "dev")
	}
	if got.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", got.LogLevel, slog.LevelInfo)
	}
	if got.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, ":8080")
	}
	if got.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want %v", got.RequestTimeout, 10*time.Second)
	}
	if got.SQLiteDriver != "sqlite3" {
		t.Errorf("SQLiteDriver = %q, want sqlite3", got.SQLiteDriver)
	}
	if got.SQLitePath != "data/hawaii.sqlite" {
		t.Errorf("SQLitePath = %q, want data/hawaii.sqlite", got.SQLitePath)
	}
	if got.SQLiteMaxOpenConns != 4 || got.SQLiteMaxIdleConns != 2 {
		t.Errorf("pool = %d/%d, want 4/2", got.SQLiteMaxOpenConns, got.SQLiteMaxIdleConns)
	}
	if got.SQLiteLogQueries {
		t.Error("SQLiteLogQueries = true, want false")
	}
	if got.BreakerMaxFailures != 5 {
		t.Errorf("BreakerMaxFailures = %d, want 5", got.BreakerMaxFailures)
	}
	if got.BreakerOpenTimeout != 30*time.Second {
		t.Errorf("BreakerOpenTimeout = %v, want 30s", got.BreakerOpenTimeout)
	}
}

func TestLoadFromEnv_AppEnv_Valid(t *testing.T) {
	tests := []struct {
		name   string
		appEnv string
		want   string
	}{
		{name: "dev", appEnv: "dev", want: "dev"},
		{name: "prod", appEnv: "prod", want: "prod"},
		{name: "dev with whitespace", appEnv: "  dev  ", want: "dev"},
		{name: "prod with whitespace", appEnv: "\nprod\t", want: "prod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_ENV", tt.appEnv)

			got, err := LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv() error = %v, want nil", err)
			}
			if got.AppEnv != tt.want {
				t.Errorf("AppEnv = %q, want %q", got.AppEnv, tt.want)
			}
		})
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown app env", key: "APP_ENV", value: "staging"},
		{name: "uppercase app env", key: "APP_ENV", value: "DEV"},
		{name: "log level", key: "LOG_LEVEL", value: "loud"},
		{name: "request timeout garbage", key: "HTTP_REQUEST_TIMEOUT", value: "soon"},
		{name: "request timeout zero", key: "HTTP_REQUEST_TIMEOUT", value: "0s"},
		{name: "max open conns", key: "DB_MAX_OPEN_CONNS", value: "many"},
		{name: "max idle conns", key: "DB_MAX_IDLE_CONNS", value: "1.5"},
		{name: "conn lifetime", key: "DB_CONN_MAX_LIFETIME", value: "forever"},
		{name: "log sql", key: "DB_LOG_SQL", value: "sometimes"},
		{name: "breaker failures zero", key: "BREAKER_MAX_FAILURES", value: "0"},
		{name: "breaker failures negative", key: "BREAKER_MAX_FAILURES", value: "-1"},
		{name: "breaker failures wraps uint32", key: "BREAKER_MAX_FAILURES", value: "4294967296"},
		{name: "breaker timeout", key: "BREAKER_OPEN_TIMEOUT", value: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("LoadFromEnv() with %s=%q error = nil, want non-nil", tt.key, tt.value)
			}
		})
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", "  127.0.0.1:9090 ")
	t.Setenv("HTTP_REQUEST_TIMEOUT", "2s")
	t.Setenv("SQLITE_PATH", "/srv/hawaii.sqlite")
	t.Setenv("DB_DSN", "file::memory:")
	t.Setenv("DB_MAX_OPEN_CONNS", "1")
	t.Setenv("DB_LOG_SQL", "true")
	t.Setenv("BREAKER_MAX_FAILURES", "3")
	t.Setenv("BREAKER_OPEN_TIMEOUT", "1m")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}
	if got.HTTPAddr != "127.0.0.1:9090" {
		t.Errorf("HTTPAddr = %q", got.HTTPAddr)
	}
	if got.RequestTimeout != 2*time.Second {
		t.Errorf("RequestTimeout = %v", got.RequestTimeout)
	}
	if got.SQLitePath != "/srv/hawaii.sqlite" || got.SQLiteDSN != "file::memory:" {
		t.Errorf("path/dsn = %q/%q", got.SQLitePath, got.SQLiteDSN)
	}
	if got.SQLiteMaxOpenConns != 1 {
		t.Errorf("SQLiteMaxOpenConns = %d", got.SQLiteMaxOpenConns)
	}
	if !got.SQLiteLogQueries {
		t.Error("SQLiteLogQueries = false, want true")
	}
	if got.BreakerMaxFailures != 3 || got.BreakerOpenTimeout != time.Minute {
		t.Errorf("breaker = %d/%v", got.BreakerMaxFailures, got.BreakerOpenTimeout)
	}
}

func TestLoadFromEnv_BreakerMaxFailuresUpperBound(t *testing.T) {
	clearEnv(t)
	t.Setenv("BREAKER_MAX_FAILURES", "4294967295")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}
	if got.BreakerMaxFailures != 4294967295 {
		t.Errorf("BreakerMaxFailures = %d, want 4294967295", got.BreakerMaxFailures)
	}
}

func TestParseLogLevel_Valid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want slog.Level
	}{
		{name: "debug", in: "debug", want: slog.LevelDebug},
		{name: "info", in: "info", want: slog.LevelInfo},
		{name: "warn", in: "warn", want: slog.LevelWarn},
		{name: "warning", in: "warning", want: slog.LevelWarn},
		{name: "error", in: "error", want: slog.LevelError},
		{name: "case insensitive", in: "DeBuG", want: slog.LevelDebug},
		{name: "trims whitespace", in: "  warn \n", want: slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if err != nil {
				t.Fatalf("parseLogLevel(%q) error = %v, want nil", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLogLevel_Invalid(t *testing.T) {
	for _, in := range []string{"", "nope", "warns", "1"} {
		got, err := parseLogLevel(in)
		if err == nil {
			t.Fatalf("parseLogLevel(%q) error = nil, want non-nil", in)
		}
		if got != slog.LevelInfo {
			t.Errorf("parseLogLevel(%q) = %v, want %v on error", in, got, slog.LevelInfo)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
			t.Fatalf("LoadDotEnv() error = %v, want nil", err)
		}
	})

	t.Run("file values fill unset variables only", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LOG_LEVEL", "warn")

		f := filepath.Join(t.TempDir(), "test.env")
		content := "HTTP_ADDR=:7070\nLOG_LEVEL=debug\n"
		if err := os.WriteFile(f, []byte(content), 0o600); err != nil {
			t.Fatalf("write env file: %v", err)
		}
		// t.Setenv("", ...) leaves HTTP_ADDR set to empty, which godotenv treats as present.
		if err := os.Unsetenv("HTTP_ADDR"); err != nil {
			t.Fatalf("unsetenv: %v", err)
		}

		if err := LoadDotEnv(f); err != nil {
			t.Fatalf("LoadDotEnv() error = %v, want nil", err)
		}
		got, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv() error = %v, want nil", err)
		}
		if got.HTTPAddr != ":7070" {
			t.Errorf("HTTPAddr = %q, want :7070", got.HTTPAddr)
		}
		if got.LogLevel != slog.LevelWarn {
			t.Errorf("LogLevel = %v, want warn (env wins over file)", got.LogLevel)
		}
	})
}
