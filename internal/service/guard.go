package service

import (
	"context"
	"log/slog"

	domainauth "github.com/target/taskdesk/internal/domain/auth"
	apperrors "github.com/target/taskdesk/internal/errors"
	"github.com/target/taskdesk/internal/ports"
)

// Decision is the outcome of an access check.
type Decision int

const (
	// Allowed lets the caller proceed.
	Allowed Decision = iota
	// RedirectToLogin means there is no active session.
	RedirectToLogin
	// Forbidden means a session exists but lacks the required role. It also redirects to login.
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case RedirectToLogin:
		return "redirect_to_login"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Requirement describes what a protected view needs. The zero value needs only a session.
type Requirement struct {
	Role domainauth.Role
}

// RequireSession needs any active session.
func RequireSession() Requirement { return Requirement{} }

// RequireRole needs an active session whose user holds role.
func RequireRole(role domainauth.Role) Requirement { return Requirement{Role: role} }

// SessionReader exposes the current session snapshot.
type SessionReader interface {
	Snapshot() domainauth.Session
}

// AccessGuardOptions groups dependencies for AccessGuard.
type AccessGuardOptions struct {
	Sessions  SessionReader   // Required
	Navigator ports.Navigator // Optional: invoked for every non-allowed decision
	Logger    *slog.Logger    // Optional
}

// AccessGuard gates protected views. Every call re-reads the session; nothing is cached.
type AccessGuard struct {
	sessions SessionReader
	nav      ports.Navigator
	logger   *slog.Logger
}

// NewAccessGuard constructs an AccessGuard.
func NewAccessGuard(opts AccessGuardOptions) *AccessGuard {
	if opts.Sessions == nil {
		panic("SessionReader is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AccessGuard{
		sessions: opts.Sessions,
		nav:      opts.Navigator,
		logger:   logger.With("component", "guard"),
	}
}

// Evaluate returns the decision for req without side effects.
func (g *AccessGuard) Evaluate(req Requirement) Decision {
	sess := g.sessions.Snapshot()
	switch {
	case !sess.Active():
		return RedirectToLogin
	case req.Role != "" && !sess.HasRole(req.Role):
		return Forbidden
	default:
		return Allowed
	}
}

// Check evaluates req and navigates to login when access is not allowed.
func (g *AccessGuard) Check(ctx context.Context, req Requirement) Decision {
	d := g.Evaluate(req)
	if d == Allowed {
		return d
	}
	g.logger.DebugContext(ctx, "access denied", "decision", d.String(), "required_role", req.Role)
	if g.nav != nil {
		g.nav.ToLogin(ctx)
	}
	return d
}

// Enforce is Check expressed as an error: nil when allowed, otherwise an AppError
// (authorization_expired for no session, forbidden for the wrong role).
func (g *AccessGuard) Enforce(ctx context.Context, req Requirement) error {
	switch g.Check(ctx, req) {
	case Allowed:
		return nil
	case Forbidden:
		return apperrors.Forbidden("This action requires the " + string(req.Role) + " role.")
	default:
		return &apperrors.AppError{
			Code:    apperrors.ErrCodeAuthorizationExpired,
			Message: "You are not signed in.",
		}
	}
}
