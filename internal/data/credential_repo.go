package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	apperrors "github.com/target/taskdesk/internal/errors"
	"github.com/target/taskdesk/internal/ports"
)

const credentialsTable = "credentials"

// DefaultProfile is used when no profile is configured.
const DefaultProfile = "default"

var (
	_ ports.CredentialStore       = (*CredentialRepo)(nil)
	_ ports.CredentialBatchWriter = (*CredentialRepo)(nil)
)

// CredentialRepo stores credentials in Postgres, one row per (profile, key).
type CredentialRepo struct {
	DB      *sql.DB
	Profile string
	psql    squirrel.StatementBuilderType
}

// NewCredentialRepo creates a CredentialRepo scoped to profile.
func NewCredentialRepo(db *sql.DB, profile string) *CredentialRepo {
	if profile == "" {
		profile = DefaultProfile
	}
	return &CredentialRepo{
		DB:      db,
		Profile: profile,
		psql:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *CredentialRepo) getQuery(key string) (string, []any, error) {
	return r.psql.Select("value").
		From(credentialsTable).
		Where(squirrel.Eq{"profile": r.Profile, "key": key}).
		ToSql()
}

func (r *CredentialRepo) setQuery(key, value string) (string, []any, error) {
	return r.psql.Insert(credentialsTable).
		Columns("profile", "key", "value").
		Values(r.Profile, key, value).
		Suffix("ON CONFLICT (profile, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()").
		ToSql()
}

func (r *CredentialRepo) deleteQuery(key string) (string, []any, error) {
	return r.psql.Delete(credentialsTable).
		Where(squirrel.Eq{"profile": r.Profile, "key": key}).
		ToSql()
}

// Get returns the stored value or ports.ErrCredentialNotFound.
func (r *CredentialRepo) Get(ctx context.Context, key string) (string, error) {
	query, args, err := r.getQuery(key)
	if err != nil {
		return "", fmt.Errorf("build credential select: %w", err)
	}

	var value string
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ports.ErrCredentialNotFound
		}
		return "", fmt.Errorf("get credential %q: %w", key, apperrors.MapDBError(err))
	}
	return value, nil
}

// Set upserts a value.
func (r *CredentialRepo) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return apperrors.ValidationField("key", "credential key cannot be empty")
	}
	query, args, err := r.setQuery(key, value)
	if err != nil {
		return fmt.Errorf("build credential upsert: %w", err)
	}
	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set credential %q: %w", key, apperrors.MapDBError(err))
	}
	return nil
}

// Delete removes a value. Missing keys are not an error.
func (r *CredentialRepo) Delete(ctx context.Context, key string) error {
	query, args, err := r.deleteQuery(key)
	if err != nil {
		return fmt.Errorf("build credential delete: %w", err)
	}
	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete credential %q: %w", key, apperrors.MapDBError(err))
	}
	return nil
}

// SetMany upserts every value in one transaction.
func (r *CredentialRepo) SetMany(ctx context.Context, values map[string]string) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", apperrors.MapDBError(err))
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
	}()

	for key, value := range values {
		if key == "" {
			return apperrors.ValidationField("key", "credential key cannot be empty")
		}
		query, args, qerr := r.setQuery(key, value)
		if qerr != nil {
			return fmt.Errorf("build credential upsert: %w", qerr)
		}
		if _, xerr := tx.ExecContext(ctx, query, args...); xerr != nil {
			return fmt.Errorf("set credential %q: %w", key, apperrors.MapDBError(xerr))
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
