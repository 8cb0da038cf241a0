package ports

// Package ports defines interfaces (hexagonal ports) for session and API behavior.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/target/taskdesk/internal/domain/auth"
)

// Keys under which the session is persisted in a CredentialStore.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// ErrCredentialNotFound is returned by CredentialStore.Get when the key is absent.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialStore persists the session token and cached user profile as opaque strings.
type CredentialStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// CredentialBatchWriter is implemented by stores that can write several keys atomically.
// The session manager prefers it over consecutive Set calls.
type CredentialBatchWriter interface {
	SetMany(ctx context.Context, values map[string]string) error
}

// Authenticator exchanges credentials for a bearer token and user profile.
type Authenticator interface {
	Login(ctx context.Context, creds domainauth.Credentials) (domainauth.AuthResult, error)
}

// Navigator moves the front end to its login entry point.
type Navigator interface {
	ToLogin(ctx context.Context)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context)

// ToLogin calls f(ctx).
func (f NavigatorFunc) ToLogin(ctx context.Context) { f(ctx) }
