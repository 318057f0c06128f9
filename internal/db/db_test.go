package db

import (
	"testing"

	"github.com/diewo77/factures-api/internal/models"
)

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantDriver string
		wantDSN    string
	}{
		{"empty defaults to sqlite", "", DriverSQLite, "factures.db"},
		{"postgres url", "postgres://u:p@h:5432/d", DriverPostgres, "postgres://u:p@h:5432/d"},
		{"postgresql url quoted", ` "postgresql://u@h/d" `, DriverPostgres, "postgresql://u@h/d"},
		{"sqlite scheme", "sqlite://data/app.db", DriverSQLite, "data/app.db"},
		{"file uri", "file::memory:?cache=shared", DriverSQLite, "file::memory:?cache=shared"},
		{"bare db file", "local.db", DriverSQLite, "local.db"},
		{"kv adds sslmode", "host=db  user=u dbname=d", DriverPostgres, "host=db user=u dbname=d sslmode=disable"},
		{"kv keeps sslmode", "host=db user=u dbname=d sslmode=require", DriverPostgres, "host=db user=u dbname=d sslmode=require"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn := NormalizeDSN(tt.in)
			if driver != tt.wantDriver || dsn != tt.wantDSN {
				t.Errorf("NormalizeDSN(%q) = (%q, %q), want (%q, %q)", tt.in, driver, dsn, tt.wantDriver, tt.wantDSN)
			}
		})
	}
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	conn, err := Open("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Idempotent
	if err := Migrate(conn); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if err := Ping(conn); err != nil {
		t.Fatalf("ping: %v", err)
	}
	for _, m := range []any{&models.User{}, &models.Invoice{}, &models.LineItem{}} {
		if !conn.Migrator().HasTable(m) {
			t.Errorf("missing table for %T", m)
		}
	}
}
