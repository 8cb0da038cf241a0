// Package file provides a CredentialStore backed by a JSON file in the user's config directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/target/taskdesk/internal/ports"
)

var (
	_ ports.CredentialStore       = (*CredentialStore)(nil)
	_ ports.CredentialBatchWriter = (*CredentialStore)(nil)
)

// ErrCorruptFile is wrapped by Get when the file cannot be decoded. Writes
// replace such a file instead of failing, so a damaged file never locks the
// user out of signing in or out.
var ErrCorruptFile = errors.New("corrupt credential file")

// CredentialStore persists key/value credentials in a single 0600 JSON file.
// Writes go through a temp file and rename so a crash never leaves a torn file.
type CredentialStore struct {
	path string
	mu   sync.Mutex
}

// NewCredentialStore returns a store rooted at path. The file is created lazily on first Set.
func NewCredentialStore(path string) (*CredentialStore, error) {
	if path == "" {
		return nil, errors.New("credential file path is required")
	}
	return &CredentialStore{path: path}, nil
}

// DefaultPath returns <user config dir>/taskdesk/credentials.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "taskdesk", "credentials.json"), nil
}

// Path returns the backing file path.
func (s *CredentialStore) Path() string { return s.path }

func (s *CredentialStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ports.ErrCredentialNotFound
	}
	return v, nil
}

func (s *CredentialStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.loadForWrite()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

// SetMany writes all values with a single file replacement.
func (s *CredentialStore) SetMany(ctx context.Context, updates map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.loadForWrite()
	if err != nil {
		return err
	}
	for k, v := range updates {
		values[k] = v
	}
	return s.save(values)
}

func (s *CredentialStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if errors.Is(err, ErrCorruptFile) {
		return s.remove()
	}
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	if len(values) == 0 {
		return s.remove()
	}
	return s.save(values)
}

func (s *CredentialStore) remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}

// loadForWrite is load with a corrupt file treated as empty.
func (s *CredentialStore) loadForWrite() (map[string]string, error) {
	values, err := s.load()
	if errors.Is(err, ErrCorruptFile) {
		return map[string]string{}, nil
	}
	return values, err
}

func (s *CredentialStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credential file: %w", err)
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrCorruptFile, s.path, err)
	}
	return values, nil
}

func (s *CredentialStore) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*.json")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp credential file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp credential file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace credential file: %w", err)
	}
	return nil
}
