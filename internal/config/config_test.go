package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Fatalf("driver %q", cfg.Database.Driver)
	}
	if cfg.Query.DefaultLimit != 10 || cfg.Query.MaxLimit != 100 || cfg.Query.CountScope != "global" {
		t.Fatalf("query defaults: %+v", cfg.Query)
	}
	if cfg.Client.Debounce != time.Second {
		t.Fatalf("debounce %v", cfg.Client.Debounce)
	}
	if cfg.Address() != "0.0.0.0:3000" {
		t.Fatalf("address %q", cfg.Address())
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_PASSWORD", "p")
	t.Setenv("DB_NAME", "tasks_test")
	t.Setenv("COUNT_SCOPE", "filtered")
	t.Setenv("CACHE_TTL", "45")
	t.Setenv("SEARCH_DEBOUNCE", "250ms")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.URL != "postgres://u:p@localhost:5432/tasks_test?sslmode=disable" {
		t.Fatalf("url %q", cfg.Database.URL)
	}
	if cfg.Query.CountScope != "filtered" {
		t.Fatalf("scope %q", cfg.Query.CountScope)
	}
	if cfg.Redis.TTL != 45*time.Second || cfg.Client.Debounce != 250*time.Millisecond {
		t.Fatalf("durations: ttl %v debounce %v", cfg.Redis.TTL, cfg.Client.Debounce)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DB_DRIVER", "mongo"},
		{"COUNT_SCOPE", "partial"},
		{"QUERY_DEFAULT_LIMIT", "200"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFile(""); err == nil {
				t.Fatalf("%s=%s must be rejected", tt.key, tt.value)
			}
		})
	}
}
