package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/target/taskdesk/internal/domain/auth"
	"github.com/target/taskdesk/internal/domain/model"
	apperrors "github.com/target/taskdesk/internal/errors"
	"github.com/target/taskdesk/internal/ports"
)

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Store         ports.CredentialStore // Required: persisted token and user
	Authenticator ports.Authenticator   // Required: login endpoint
	Navigator     ports.Navigator       // Optional: invoked after logout
	Logger        *slog.Logger          // Optional: structured logger
}

// SessionManager owns the single authentication Session.
//
// State changes (Restore, Login, Logout, ExpireSession) are serialized; the persisted
// credentials are written before the snapshot is swapped, so readers only ever see a
// fully applied session. Subscribers are notified while the change is still serialized
// and must not call back into state-changing methods.
type SessionManager struct {
	store  ports.CredentialStore
	auth   ports.Authenticator
	nav    ports.Navigator
	logger *slog.Logger
	now    func() time.Time

	opMu sync.Mutex

	stateMu sync.RWMutex
	session domainauth.Session

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func(domainauth.Session)
}

// NewSessionManager constructs a SessionManager in the signed-out state. Call Restore to load persisted state.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	if opts.Store == nil {
		panic("CredentialStore is required")
	}
	if opts.Authenticator == nil {
		panic("Authenticator is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		store:  opts.Store,
		auth:   opts.Authenticator,
		nav:    opts.Navigator,
		logger: logger.With("component", "session"),
		now:    time.Now,
		subs:   make(map[int]func(domainauth.Session)),
	}
}

// Restore loads the persisted session. Unreadable, partial or expired state is treated as
// signed out and cleared; Restore never fails.
func (m *SessionManager) Restore(ctx context.Context) domainauth.Session {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	sess, ok := m.readPersisted(ctx)
	if !ok {
		m.apply(domainauth.Session{})
		return domainauth.Session{}
	}
	m.apply(sess)
	m.logger.DebugContext(ctx, "session restored", "user_id", sess.UserID(), "role", sess.User.Role)
	return sess.Clone()
}

func (m *SessionManager) readPersisted(ctx context.Context) (domainauth.Session, bool) {
	token, tokenErr := m.store.Get(ctx, ports.TokenKey)
	rawUser, userErr := m.store.Get(ctx, ports.UserKey)

	for _, err := range []error{tokenErr, userErr} {
		if err != nil && !errors.Is(err, ports.ErrCredentialNotFound) {
			m.logger.WarnContext(ctx, "credential store read failed; starting signed out",
				"error", err, "error_class", apperrors.Classify(err))
			return domainauth.Session{}, false
		}
	}

	if tokenErr != nil && userErr != nil {
		return domainauth.Session{}, false
	}
	if tokenErr != nil || userErr != nil || token == "" {
		m.logger.InfoContext(ctx, "discarding partial persisted session")
		m.clearPersisted(ctx)
		return domainauth.Session{}, false
	}

	var user model.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil || user.ID == 0 || !user.Role.Valid() {
		m.logger.InfoContext(ctx, "discarding unreadable persisted user")
		m.clearPersisted(ctx)
		return domainauth.Session{}, false
	}

	if tokenExpired(token, m.now()) {
		m.logger.InfoContext(ctx, "discarding expired persisted token", "user_id", user.ID)
		m.clearPersisted(ctx)
		return domainauth.Session{}, false
	}

	return domainauth.Session{Token: token, User: &user}, true
}

// tokenExpired reports whether token is a JWT whose exp claim is in the past.
// Opaque (non-JWT) tokens never expire locally; the API decides.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

// Login authenticates and replaces the session. On failure the existing session is untouched.
func (m *SessionManager) Login(ctx context.Context, email, password string) (domainauth.Session, error) {
	creds := domainauth.Credentials{Email: email, Password: password}
	if err := creds.Validate(); err != nil {
		return domainauth.Session{}, apperrors.Validation(err.Error())
	}

	res, err := m.auth.Login(ctx, creds)
	if err != nil {
		m.logger.InfoContext(ctx, "login failed", "error_class", apperrors.Classify(err))
		return domainauth.Session{}, apperrors.Ensure(err, "Sign in failed.")
	}
	sess := res.Session()
	if !sess.Active() {
		return domainauth.Session{}, apperrors.AuthenticationFailed("The server returned an incomplete session.")
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	prev := m.Snapshot()
	if err := m.persist(ctx, sess); err != nil {
		if restoreErr := m.persist(ctx, prev); restoreErr != nil {
			m.logger.ErrorContext(ctx, "restore previous credentials failed", "error", restoreErr)
		}
		return domainauth.Session{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not save the session.")
	}
	m.apply(sess)
	m.logger.InfoContext(ctx, "signed in", "user_id", sess.UserID(), "role", sess.User.Role)
	return sess.Clone(), nil
}

func (m *SessionManager) persist(ctx context.Context, sess domainauth.Session) error {
	if !sess.Active() {
		return m.clearPersistedErr(ctx)
	}
	rawUser, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if batch, ok := m.store.(ports.CredentialBatchWriter); ok {
		return batch.SetMany(ctx, map[string]string{
			ports.TokenKey: sess.Token,
			ports.UserKey:  string(rawUser),
		})
	}
	if err := m.store.Set(ctx, ports.TokenKey, sess.Token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := m.store.Set(ctx, ports.UserKey, string(rawUser)); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

// Logout clears the session and navigates to login.
func (m *SessionManager) Logout(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.signOut(ctx, "signed out")
}

// ExpireSession is the forced logout for a request whose bearer token was rejected.
// It is a no-op when nobody is signed in, or when token no longer is the session's
// token (a late answer for a session that has since been replaced). An empty
// token expires whatever session is active.
func (m *SessionManager) ExpireSession(ctx context.Context, token string) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	current := m.Snapshot()
	if !current.Active() {
		return
	}
	if token != "" && token != current.Token {
		m.logger.DebugContext(ctx, "ignoring rejection of a replaced token", "user_id", current.UserID())
		return
	}
	m.signOut(ctx, "session expired")
}

func (m *SessionManager) signOut(ctx context.Context, reason string) {
	userID := m.Snapshot().UserID()
	m.clearPersisted(ctx)
	m.apply(domainauth.Session{})
	m.logger.InfoContext(ctx, reason, "user_id", userID)
	if m.nav != nil {
		m.nav.ToLogin(ctx)
	}
}

func (m *SessionManager) clearPersisted(ctx context.Context) {
	if err := m.clearPersistedErr(ctx); err != nil {
		m.logger.WarnContext(ctx, "clear persisted credentials failed",
			"error", err, "error_class", apperrors.Classify(err))
	}
}

func (m *SessionManager) clearPersistedErr(ctx context.Context) error {
	return errors.Join(
		m.store.Delete(ctx, ports.TokenKey),
		m.store.Delete(ctx, ports.UserKey),
	)
}

// apply swaps the snapshot and notifies subscribers. Callers hold opMu.
func (m *SessionManager) apply(sess domainauth.Session) {
	m.stateMu.Lock()
	m.session = sess.Clone()
	m.stateMu.Unlock()

	m.subMu.Lock()
	callbacks := make([]func(domainauth.Session), 0, len(m.subs))
	for _, fn := range m.subs {
		callbacks = append(callbacks, fn)
	}
	m.subMu.Unlock()

	for _, fn := range callbacks {
		fn(sess.Clone())
	}
}

// Snapshot returns a copy of the current session.
func (m *SessionManager) Snapshot() domainauth.Session {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.session.Clone()
}

// CurrentUser returns the signed-in user, if any.
func (m *SessionManager) CurrentUser() (model.User, bool) {
	s := m.Snapshot()
	if !s.Active() {
		return model.User{}, false
	}
	return *s.User, true
}

// HasRole reports whether a session exists and its user holds role.
func (m *SessionManager) HasRole(role domainauth.Role) bool {
	return m.Snapshot().HasRole(role)
}

// Token returns the bearer token for the active session.
func (m *SessionManager) Token() (string, bool) {
	s := m.Snapshot()
	return s.Token, s.Active()
}

// Subscribe registers fn for session changes and returns an idempotent unsubscribe func.
func (m *SessionManager) Subscribe(fn func(domainauth.Session)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
		})
	}
}
