package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one numbered schema change
type Migration struct {
	Version     int
	Description string
	UpSQL       string
	DownSQL     string
}

// MigrationResult reports what MigrateUp did
type MigrationResult struct {
	Applied        []Migration
	CurrentVersion int
	TargetVersion  int
}

var migrationName = regexp.MustCompile(`^(\d{3})_(.+)\.sql$`)

// loadMigrations reads the embedded migrations ordered by version
func loadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		matches := migrationName.FindStringSubmatch(entry.Name())
		if entry.IsDir() || matches == nil {
			continue
		}
		version, _ := strconv.Atoi(matches[1])
		content, err := fs.ReadFile(migrationsFS, path.Join("migrations", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}
		up, down := parseMigration(string(content))
		migrations = append(migrations, Migration{
			Version:     version,
			Description: strings.ReplaceAll(matches[2], "_", " "),
			UpSQL:       up,
			DownSQL:     down,
		})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// parseMigration splits content on the "-- +migrate Up" and
// "-- +migrate Down" markers. Content without markers is all Up.
func parseMigration(content string) (up, down string) {
	const upMarker, downMarker = "-- +migrate Up", "-- +migrate Down"

	upIdx := strings.Index(content, upMarker)
	downIdx := strings.Index(content, downMarker)
	switch {
	case upIdx == -1:
		return strings.TrimSpace(content), ""
	case downIdx == -1:
		return strings.TrimSpace(content[upIdx+len(upMarker):]), ""
	case upIdx < downIdx:
		return strings.TrimSpace(content[upIdx+len(upMarker) : downIdx]),
			strings.TrimSpace(content[downIdx+len(downMarker):])
	default:
		return strings.TrimSpace(content[upIdx+len(upMarker):]),
			strings.TrimSpace(content[downIdx+len(downMarker) : upIdx])
	}
}

// splitStatements splits a script on semicolons, dropping comment-only chunks
func splitStatements(script string) []string {
	var statements []string
	for _, chunk := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "--") {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			statements = append(statements, strings.TrimSpace(strings.Join(lines, "\n")))
		}
	}
	return statements
}

func (s *Store) ensureMigrationsTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER NOT NULL PRIMARY KEY,
			description VARCHAR(255) NOT NULL,
			applied_at VARCHAR(40) NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}
	return nil
}

// SchemaVersion returns the highest applied migration, 0 for a fresh database
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	if err := s.ensureMigrationsTable(ctx); err != nil {
		return 0, err
	}
	var version int
	if err := s.queryRow(ctx, s.db, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		return 0, fmt.Errorf("querying schema version: %w", err)
	}
	return version, nil
}

// MigrateUp applies every pending migration, each in its own transaction
func (s *Store) MigrateUp(ctx context.Context) (*MigrationResult, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return nil, err
	}
	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}

	result := &MigrationResult{CurrentVersion: current, TargetVersion: current}
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		s.log.Info().Int("version", m.Version).Str("description", m.Description).Msg("Applying migration")

		err := s.withTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range splitStatements(m.UpSQL) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("executing statement: %w\nSQL: %s", err, stmt)
				}
			}
			_, err := s.exec(ctx, tx,
				"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
				m.Version, m.Description, formatTime(s.now()))
			return err
		})
		if err != nil {
			return result, fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
		result.Applied = append(result.Applied, m)
		result.TargetVersion = m.Version
	}

	if len(result.Applied) == 0 {
		s.log.Debug().Int("version", current).Msg("Database schema is up to date")
	}
	return result, nil
}

// MigrateDown rolls back the most recent migration
func (s *Store) MigrateDown(ctx context.Context) (*MigrationResult, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return nil, err
	}
	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	result := &MigrationResult{CurrentVersion: current, TargetVersion: current}
	if current == 0 {
		return result, fmt.Errorf("no migrations to roll back")
	}

	var target *Migration
	for i := range migrations {
		if migrations[i].Version == current {
			target = &migrations[i]
		}
	}
	if target == nil || target.DownSQL == "" {
		return result, fmt.Errorf("migration %d has no rollback SQL", current)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range splitStatements(target.DownSQL) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("executing statement: %w\nSQL: %s", err, stmt)
			}
		}
		_, err := s.exec(ctx, tx, "DELETE FROM schema_migrations WHERE version = ?", target.Version)
		return err
	})
	if err != nil {
		return result, fmt.Errorf("rollback %d failed: %w", target.Version, err)
	}

	result.Applied = []Migration{*target}
	result.TargetVersion = 0
	for _, m := range migrations {
		if m.Version < current {
			result.TargetVersion = m.Version
		}
	}
	return result, nil
}
