package sqlstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

// Dialect is the SQL flavour spoken by the backing database
type Dialect int

const (
	SQLite Dialect = iota
	MySQL
	Postgres
)

// String method for Dialect enum
func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case MySQL:
		return "mysql"
	case Postgres:
		return "postgres"
	default:
		return "unknown"
	}
}

// ParseDialect maps a configured driver name to a Dialect
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return SQLite, fmt.Errorf("unknown storage driver: %q", s)
	}
}

func (d Dialect) driverName() string {
	switch d {
	case MySQL:
		return "mysql"
	case Postgres:
		return "pgx"
	default:
		return "sqlite"
	}
}

// connString normalizes a configured DSN for the dialect's driver
func (d Dialect) connString(dsn string) (string, error) {
	switch d {
	case SQLite:
		if strings.HasPrefix(dsn, "file:") {
			return dsn, nil
		}
		// Immediate transactions take the write lock up front so concurrent
		// reservations queue instead of failing with SQLITE_BUSY
		return fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dsn), nil
	case MySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("parsing mysql dsn: %w", err)
		}
		// Compare-and-set updates rely on matched rather than changed rows
		cfg.ClientFoundRows = true
		return cfg.FormatDSN(), nil
	default:
		return dsn, nil
	}
}

// rebind rewrites ? placeholders into the dialect's bind syntax
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// forUpdate returns the row-locking suffix for SELECTs inside a transaction.
// SQLite locks the whole database for an immediate transaction instead.
func (d Dialect) forUpdate() string {
	if d == SQLite {
		return ""
	}
	return " FOR UPDATE"
}

// isUndefinedTable reports whether err means a table has not been created
func (d Dialect) isUndefinedTable(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1146
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	return strings.Contains(err.Error(), "no such table")
}

// isTransactionConflict reports whether err aborted the transaction because
// it lost a lock race: a deadlock, a lock wait timeout or a serialization
// failure. The same work succeeds when retried in a fresh transaction.
func (d Dialect) isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1213 || myErr.Number == 1205
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40P01" || pgErr.Code == "40001"
	}
	return strings.Contains(err.Error(), "database is locked")
}

// isDuplicateKey reports whether err is a primary or unique key violation
func (d Dialect) isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
