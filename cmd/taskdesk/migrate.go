package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/target/taskdesk/internal/bootstrap"
	"github.com/target/taskdesk/internal/migrate"
	"github.com/target/taskdesk/internal/render"
)

const defaultMigrationTimeout = 2 * time.Minute

type migrateOptions struct {
	Timeout time.Duration
	Status  bool
	Output  *outputOptions
}

func parseMigrateFlags(cc *commandContext, args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(cc.Err)

	opts := migrateOptions{Timeout: defaultMigrationTimeout}
	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultMigrationTimeout,
		"Maximum duration to wait for migrations to complete",
	)
	fs.BoolVar(&opts.Status, "status", false, "List migrations and whether they are applied")
	opts.Output = addOutputFlags(fs)

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, flagError(err)
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, usagef("--timeout must be greater than zero")
	}
	return opts, nil
}

// runMigrate applies the credential schema to the configured Postgres database.
func runMigrate(cc *commandContext, args []string) error {
	opts, err := parseMigrateFlags(cc, args)
	if err != nil {
		return err
	}
	r, err := cc.renderer(opts.Output)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cc.Ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, cc.Config.Postgres, cc.Logger)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cc.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	m := migrate.New(db, cc.Logger)
	if opts.Status {
		migrations, statusErr := m.Status(ctx)
		if statusErr != nil {
			return fmt.Errorf("migration status: %w", statusErr)
		}
		return r.Render(migrations, func() render.Table { return migrationTable(migrations) })
	}

	cc.Logger.Info("running database migrations")
	applied, err := m.Up(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("run migrations: timed out after %s", opts.Timeout)
		}
		return fmt.Errorf("run migrations: %w", err)
	}
	cc.Logger.Info("migrations completed successfully", "applied", applied)
	return r.Message("Applied %d migration(s).", applied)
}

func migrationTable(migrations []migrate.Migration) render.Table {
	t := render.Table{Header: []string{"VERSION", "APPLIED"}}
	for _, mg := range migrations {
		applied := "no"
		if mg.Applied {
			applied = "yes"
		}
		t.Rows = append(t.Rows, []string{mg.Version, applied})
	}
	return t
}
