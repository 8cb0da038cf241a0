package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"

	domainauth "github.com/target/taskdesk/internal/domain/auth"
	"github.com/target/taskdesk/internal/domain/model"
	apperrors "github.com/target/taskdesk/internal/errors"
	"github.com/target/taskdesk/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Authenticator   = (*StubAuthenticator)(nil)
	_ ports.Navigator       = (*RecordingNavigator)(nil)
	_ ports.FormPrompter    = (*ScriptedPrompter)(nil)
	_ ports.CredentialStore = (*FailingStore)(nil)
)

// StubAuthenticator accepts a fixed set of email/password pairs.
type StubAuthenticator struct {
	LoginFunc func(ctx context.Context, creds domainauth.Credentials) (domainauth.AuthResult, error)

	// Accounts maps email to the password and result returned on success.
	Accounts map[string]StubAccount

	mu    sync.Mutex
	calls int
}

// StubAccount is one login the StubAuthenticator accepts.
type StubAccount struct {
	Password string
	Token    string
	User     model.User
}

// NewStubAuthenticator creates an authenticator that knows the given accounts.
func NewStubAuthenticator(accounts map[string]StubAccount) *StubAuthenticator {
	return &StubAuthenticator{Accounts: accounts}
}

func (s *StubAuthenticator) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.AuthResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.LoginFunc != nil {
		return s.LoginFunc(ctx, creds)
	}
	acct, ok := s.Accounts[creds.Email]
	if !ok || acct.Password != creds.Password {
		return domainauth.AuthResult{}, apperrors.AuthenticationFailed("Invalid email or password.")
	}
	return domainauth.AuthResult{AccessToken: acct.Token, User: acct.User}, nil
}

// Calls reports how many times Login was invoked.
func (s *StubAuthenticator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// RecordingNavigator counts ToLogin calls.
type RecordingNavigator struct {
	mu    sync.Mutex
	count int
}

func (n *RecordingNavigator) ToLogin(context.Context) {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
}

// Count returns how many times ToLogin was called.
func (n *RecordingNavigator) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

// ScriptedPrompter answers forms from a queue of canned results.
// An entry with Cancel set yields ports.ErrFormCancelled.
type ScriptedPrompter struct {
	mu      sync.Mutex
	answers []ScriptedAnswer
	Seen    []ports.FormSpec
}

// ScriptedAnswer is one canned form response.
type ScriptedAnswer struct {
	Values ports.FormResult
	Cancel bool
}

// NewScriptedPrompter queues answers in order.
func NewScriptedPrompter(answers ...ScriptedAnswer) *ScriptedPrompter {
	return &ScriptedPrompter{answers: answers}
}

// Open records spec and returns the next answer. Unanswered fields fall back to their defaults.
func (p *ScriptedPrompter) Open(_ context.Context, spec ports.FormSpec) (ports.FormResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Seen = append(p.Seen, spec)
	if len(p.answers) == 0 {
		return nil, ports.ErrFormCancelled
	}
	next := p.answers[0]
	p.answers = p.answers[1:]
	if next.Cancel {
		return nil, ports.ErrFormCancelled
	}

	out := ports.FormResult{}
	for _, f := range spec.Fields {
		out[f.Name] = f.Default
		if v, ok := next.Values[f.Name]; ok && !f.Disabled {
			out[f.Name] = v
		}
	}
	return out, nil
}

// FailingStore is a CredentialStore whose operations fail with Err for the listed keys.
// Other keys behave like an in-memory map.
type FailingStore struct {
	Err     error
	FailGet map[string]bool
	FailSet map[string]bool
	FailDel map[string]bool

	mu     sync.Mutex
	values map[string]string
}

// NewFailingStore returns a FailingStore seeded with values.
func NewFailingStore(err error, seed map[string]string) *FailingStore {
	values := make(map[string]string, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &FailingStore{
		Err:     err,
		FailGet: map[string]bool{},
		FailSet: map[string]bool{},
		FailDel: map[string]bool{},
		values:  values,
	}
}

func (s *FailingStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailGet[key] {
		return "", s.Err
	}
	v, ok := s.values[key]
	if !ok {
		return "", ports.ErrCredentialNotFound
	}
	return v, nil
}

func (s *FailingStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSet[key] {
		return s.Err
	}
	s.values[key] = value
	return nil
}

func (s *FailingStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDel[key] {
		return s.Err
	}
	delete(s.values, key)
	return nil
}

// Value returns the raw stored value for assertions.
func (s *FailingStore) Value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}
