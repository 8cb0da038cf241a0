// Package migrate applies the SQL schema used by the postgres credential backend.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one embedded schema file.
type Migration struct {
	Version string `json:"version"`
	Applied bool   `json:"applied"`
}

// Migrator applies embedded migrations and records them in schema_migrations.
type Migrator struct {
	db     *sql.DB
	files  fs.FS
	logger *slog.Logger
}

// New returns a Migrator over the embedded migrations. A nil logger uses slog.Default.
func New(db *sql.DB, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{db: db, files: migrationsFS, logger: logger.With("component", "migrations")}
}

// Run applies all SQL migrations embedded in this package. It is safe to call multiple times.
func Run(ctx context.Context, db *sql.DB) error {
	_, err := New(db, nil).Up(ctx)
	return err
}

// Up applies every pending migration in version order and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, mig := range status {
		if mig.Applied {
			continue
		}
		if err := m.apply(ctx, mig.Version); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// Status lists the embedded migrations and whether each has been applied.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	// TEXT versions so file names can carry a descriptive suffix.
	if _, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return nil, fmt.Errorf("create schema_migrations table: %w", err)
	}

	versions, err := m.versions()
	if err != nil {
		return nil, err
	}

	done, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Migration, 0, len(versions))
	for _, v := range versions {
		out = append(out, Migration{Version: v, Applied: done[v]})
	}
	return out, nil
}

func (m *Migrator) versions() ([]string, error) {
	entries, err := fs.ReadDir(m.files, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var versions []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			versions = append(versions, strings.TrimSuffix(e.Name(), ".sql"))
		}
	}
	sort.Strings(versions)
	return versions, nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	done := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		done[v] = true
	}
	return done, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, version string) (err error) {
	body, err := fs.ReadFile(m.files, "migrations/"+version+".sql")
	if err != nil {
		return fmt.Errorf("read migration %s: %w", version, err)
	}

	m.logger.InfoContext(ctx, "applying migration", "version", version)

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback migration %s: %w", version, rerr))
		}
	}()

	if _, err = tx.ExecContext(ctx, string(body)); err != nil {
		return fmt.Errorf("exec migration %s: %w", version, err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}
