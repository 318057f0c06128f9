// Package db opens the relational store and applies schema migrations.
package db

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var kvPairRegex = regexp.MustCompile(`(?i)\b(host|user|password|dbname|port|sslmode)=`)

// Driver names returned by NormalizeDSN.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// NormalizeDSN picks a driver for DATABASE_URL and cleans the DSN.
// Accepted forms: postgres:// or postgresql:// URLs, lib/pq key=value lists,
// sqlite://path, file: URIs and bare *.db paths. An empty value means sqlite "factures.db".
func NormalizeDSN(raw string) (driver, dsn string) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'")
	lower := strings.ToLower(s)

	switch {
	case s == "":
		return DriverSQLite, "factures.db"
	case strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://"):
		return DriverPostgres, s
	case strings.HasPrefix(lower, "sqlite://"):
		return DriverSQLite, s[len("sqlite://"):]
	case strings.HasPrefix(lower, "file:") || strings.HasSuffix(lower, ".db") || s == ":memory:":
		return DriverSQLite, s
	case kvPairRegex.MatchString(s):
		cleaned := strings.Join(strings.Fields(s), " ")
		// Ensure sslmode present (default disable if missing)
		if !strings.Contains(strings.ToLower(cleaned), "sslmode=") {
			cleaned += " sslmode=disable"
		}
		return DriverPostgres, cleaned
	default:
		// Assume postgres; the driver reports malformed values.
		return DriverPostgres, s
	}
}

// Open connects to the database designated by rawURL.
func Open(rawURL string) (*gorm.DB, error) {
	driver, dsn := NormalizeDSN(rawURL)

	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	slog.Info("database connected", "driver", driver)
	return conn, nil
}

// Ping checks that the underlying connection is alive.
func Ping(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
