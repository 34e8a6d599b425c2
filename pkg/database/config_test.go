package database_test

import (
	"testing"

	"github.com/srimichael20/AutoClose-AI/pkg/database"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := &database.Config{Name: "autoclose", User: "postgres"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if cfg.Host != "localhost" {
		t.Errorf("host = %q, want localhost", cfg.Host)
	}
	if cfg.Port != 5432 {
		t.Errorf("port = %d, want 5432", cfg.Port)
	}
	if cfg.SSLMode != "disable" {
		t.Errorf("ssl_mode = %q, want disable", cfg.SSLMode)
	}
}

func TestFinalizeEnvOverride(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")
	t.Setenv("TEST_DB_PORT", "5433")

	cfg := &database.Config{Name: "autoclose", User: "postgres"}
	err := cfg.Finalize(&database.Env{Host: "TEST_DB_HOST", Port: "TEST_DB_PORT"})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if cfg.Host != "db.internal" {
		t.Errorf("host = %q, want db.internal", cfg.Host)
	}
	if cfg.Port != 5433 {
		t.Errorf("port = %d, want 5433", cfg.Port)
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  database.Config
	}{
		{"missing name", database.Config{User: "postgres"}},
		{"missing user", database.Config{Name: "autoclose"}},
		{"bad lifetime", database.Config{Name: "autoclose", User: "postgres", ConnMaxLifetime: "forever"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := &database.Config{Host: "localhost", Port: 5432, Name: "autoclose", User: "postgres"}
	base.Merge(&database.Config{Host: "db.prod", Password: "secret"})

	if base.Host != "db.prod" {
		t.Errorf("host = %q, want db.prod", base.Host)
	}
	if base.Password != "secret" {
		t.Errorf("password = %q, want secret", base.Password)
	}
	if base.Port != 5432 {
		t.Errorf("port = %d, want 5432 preserved", base.Port)
	}
}

func TestDsn(t *testing.T) {
	cfg := &database.Config{Name: "autoclose", User: "postgres", Password: "pw"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	want := "host=localhost port=5432 dbname=autoclose user=postgres password=pw sslmode=disable"
	if got := cfg.Dsn(); got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}
}
