package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/target/taskdesk/internal/domain/model"
)

// Role is re-exported from the model package so auth callers do not need to
// import both packages for role checks.
type Role = model.Role

const (
	RoleAdmin = model.RoleAdmin
	RoleUser  = model.RoleUser
)

// Session is the locally cached authentication state.
// A zero Session means "signed out".
type Session struct {
	Token string      `json:"token,omitempty"`
	User  *model.User `json:"user,omitempty"`
}

// Active reports whether the session carries both a token and a user.
func (s Session) Active() bool {
	return s.Token != "" && s.User != nil
}

// HasRole reports whether the session is active and its user holds role.
func (s Session) HasRole(role Role) bool {
	return s.Active() && s.User.Role == role
}

// UserID returns the session user's id, or 0 when signed out.
func (s Session) UserID() int {
	if s.User == nil {
		return 0
	}
	return s.User.ID
}

// Clone returns a copy that does not share the User pointer.
func (s Session) Clone() Session {
	if s.User == nil {
		return Session{Token: s.Token}
	}
	u := *s.User
	return Session{Token: s.Token, User: &u}
}

// Credentials carries a login attempt.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate performs the minimal checks the login form applies before submit.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return errors.New("email is required")
	}
	if !model.LooksLikeEmail(c.Email) {
		return fmt.Errorf("email %q is not valid", c.Email)
	}
	if c.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// AuthResult is what the authentication endpoint returns on success.
type AuthResult struct {
	AccessToken string     `json:"accessToken"`
	User        model.User `json:"user"`
}

// Session converts the result into a fresh Session value.
func (r AuthResult) Session() Session {
	u := r.User
	return Session{Token: r.AccessToken, User: &u}
}
