package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/taskdesk/config"
	"github.com/target/taskdesk/internal/adapters/file"
	"github.com/target/taskdesk/internal/adapters/memory"
	redisstore "github.com/target/taskdesk/internal/adapters/redis"
	"github.com/target/taskdesk/internal/data"
	"github.com/target/taskdesk/internal/ports"
)

// CredentialBackend is an opened credential store plus the connections it owns.
type CredentialBackend struct {
	Store ports.CredentialStore
	// Location describes where credentials live, for whoami-style output.
	Location string
	closers  []func() error
}

// Close releases any connections the backend opened.
func (b *CredentialBackend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// OpenCredentialStore builds the store selected by cfg.Credentials.Backend,
// connecting to Redis or Postgres when needed.
func OpenCredentialStore(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*CredentialBackend, error) {
	creds := cfg.Credentials
	switch creds.Backend {
	case config.CredentialBackendMemory:
		return &CredentialBackend{Store: memory.NewCredentialStore(nil), Location: "memory"}, nil

	case config.CredentialBackendRedis:
		client, err := ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		store := redisstore.NewCredentialStore(client, redisstore.CredentialStoreOptions{
			Prefix: creds.KeyPrefix,
			TTL:    creds.TTL,
		})
		return &CredentialBackend{
			Store:    store,
			Location: "redis:" + creds.KeyPrefix,
			closers:  []func() error{client.Close},
		}, nil

	case config.CredentialBackendPostgres:
		db, err := ConnectDB(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.RunMigrationsOnStart {
			if _, err := RunMigrations(ctx, db, logger); err != nil {
				return nil, errors.Join(err, db.Close())
			}
		}
		return &CredentialBackend{
			Store:    data.NewCredentialRepo(db, creds.Profile),
			Location: fmt.Sprintf("postgres:%s/%s", cfg.Postgres.Name, creds.Profile),
			closers:  []func() error{db.Close},
		}, nil

	case config.CredentialBackendFile, "":
		path := creds.FilePath
		if path == "" {
			var err error
			if path, err = file.DefaultPath(); err != nil {
				return nil, err
			}
		}
		store, err := file.NewCredentialStore(path)
		if err != nil {
			return nil, err
		}
		return &CredentialBackend{Store: store, Location: path}, nil

	default:
		return nil, fmt.Errorf("unsupported credential backend %q", creds.Backend)
	}
}
