package database

import (
	"strings"
	"testing"
)

func TestBuildPostgresDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "readzone",
		Password: "secret",
		Name:     "readzone",
		Host:     "db.internal",
		Port:     5433,
	})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}

	for _, want := range []string{"host=db.internal", "port=5433", "user=readzone", "dbname=readzone", "password=secret", "sslmode=disable"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q missing %q", dsn, want)
		}
	}
}

func TestBuildPostgresDSNRequiresUserAndName(t *testing.T) {
	if _, err := buildPostgresDSN(Config{User: "readzone"}); err == nil {
		t.Fatal("expected missing database name error")
	}
}

func TestBuildPostgresDSNHonoursOverride(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{DSN: "postgres://override"})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}
	if dsn != "postgres://override" {
		t.Fatalf("expected override to win, got %q", dsn)
	}
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "readzone",
		Password: "secret",
		Name:     "readzone",
	})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}

	if !strings.HasPrefix(dsn, "readzone:secret@tcp(127.0.0.1:3306)/readzone?") {
		t.Fatalf("unexpected dsn prefix: %q", dsn)
	}
	for _, want := range []string{"charset=utf8mb4", "parseTime=True", "loc=Local"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q missing %q", dsn, want)
		}
	}
}

func TestBuildMySQLDSNOptionOverride(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:    "readzone",
		Name:    "readzone",
		Options: map[string]string{"loc": "UTC"},
	})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}
	if !strings.Contains(dsn, "loc=UTC") {
		t.Fatalf("expected option override in %q", dsn)
	}
}
