// Package sqlstore provides a database/sql implementation of the storage.Store
// interface for SQLite (default) and PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"   // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/sdfghub/property-sub001/internal/storage"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Ensure SQLStore implements storage.Store
var _ storage.Store = (*SQLStore)(nil)

// Options configures how the store connects.
type Options struct {
	// Driver is DriverSQLite or DriverPostgres.
	Driver string

	// DSN is the SQLite file path or the PostgreSQL connection string.
	DSN string

	// MaxConns limits open connections when positive.
	MaxConns int
}

// SQLStore implements storage.Store on top of database/sql.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// New opens the database described by opts and runs migrations.
// For SQLite it creates the parent directories of the database file.
func New(opts Options) (*SQLStore, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	dsn := opts.DSN
	if driver == DriverSQLite {
		dir := filepath.Dir(opts.DSN)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if opts.MaxConns > 0 {
		db.SetMaxOpenConns(opts.MaxConns)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStore{db: db, driver: driver}, nil
}

// sqliteDSN enables foreign keys and a busy timeout on every pooled
// connection unless the caller already set pragmas.
func sqliteDSN(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// NewSQLite opens (or creates) the SQLite database at dbPath.
func NewSQLite(dbPath string) (*SQLStore, error) {
	return New(Options{Driver: DriverSQLite, DSN: dbPath})
}

// NewWithDB wraps an already opened database. Migrations are not run.
func NewWithDB(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// q adapts a query written with ? placeholders to the store's driver.
func (s *SQLStore) q(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	return rebind(query)
}

// rebind replaces ? placeholders with $1, $2, ... for PostgreSQL.
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// nullInt64 converts an optional sequence number for storage.
func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// nullString stores empty strings as NULL.
func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
