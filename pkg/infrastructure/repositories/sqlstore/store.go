// Package sqlstore implements the storage contracts on database/sql. One
// schema serves SQLite, MySQL and PostgreSQL; quantities and money are stored
// as decimal text so no precision is lost to floating point columns.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/repositories"
	"github.com/6thd/wardah-process-costing-sub007/pkg/infrastructure/config"
)

// timeLayout is fixed width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements every repository interface over one database handle
type Store struct {
	db      *sql.DB
	dialect Dialect
	log     zerolog.Logger
	now     func() time.Time
}

var (
	_ repositories.ItemRepository      = (*Store)(nil)
	_ repositories.BOMRepository       = (*Store)(nil)
	_ repositories.InventoryRepository = (*Store)(nil)
	_ repositories.OrderRepository     = (*Store)(nil)
	_ repositories.StageCostRepository = (*Store)(nil)
	_ repositories.RoutingRepository   = (*Store)(nil)
)

// Open connects to the configured database. It does not run migrations.
func Open(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (*Store, error) {
	dialect, err := ParseDialect(string(cfg.Driver))
	if err != nil {
		return nil, err
	}

	if dialect == SQLite && !strings.HasPrefix(cfg.DSN, "file:") {
		if dir := filepath.Dir(cfg.DSN); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	}

	dsn, err := dialect.connString(cfg.DSN)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", dialect, err)
	}

	if dialect == SQLite {
		// SQLite only supports one writer
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", dialect, err)
	}

	log.Info().Str("driver", dialect.String()).Msg("Database connection established")
	return New(db, dialect, log), nil
}

// New wraps an open database handle
func New(db *sql.DB, dialect Dialect, log zerolog.Logger) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		log:     log.With().Str("component", "sqlstore").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Dialect returns the SQL flavour of the store
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) exec(ctx context.Context, q querier, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, q querier, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, q querier, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

// withTx runs fn inside a transaction, rolling back on any error
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.wrap("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return s.wrap("commit", err)
	}
	return nil
}

// wrap annotates a driver error, translating a missing table into
// ErrSchemaNotReady so callers can tell it apart from an empty result, and a
// lost lock race into ErrConflict so callers retry it
func (s *Store) wrap(op string, err error) error {
	if s.dialect.isUndefinedTable(err) {
		return fmt.Errorf("%s: %w: %v", op, repositories.ErrSchemaNotReady, err)
	}
	if s.dialect.isTransactionConflict(err) {
		return fmt.Errorf("%s: %w: %w", op, repositories.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", s, err)
	}
	return t, nil
}

func parseTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
