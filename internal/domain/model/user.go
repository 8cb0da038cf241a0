package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minUserNameLen = 2
	minPasswordLen = 6
)

// emailPattern mirrors the loose check browser form validators apply.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// LooksLikeEmail reports whether v is shaped like an email address.
func LooksLikeEmail(v string) bool {
	return emailPattern.MatchString(strings.TrimSpace(v))
}

// Role represents an application's authorization role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether the role is supported.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// ParseRole normalizes a role string and reports whether it is supported.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if role.Valid() {
		return role, true
	}
	return "", false
}

// User is an account known to the task API.
type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role"`
}

// Label returns the display name for the user: name, else email, else #id.
func (u User) Label() string {
	if n := strings.TrimSpace(u.Name); n != "" {
		return n
	}
	if u.Email != "" {
		return u.Email
	}
	return fmt.Sprintf("#%d", u.ID)
}

// CreateUserRequest represents parameters to register a new User.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// Validate validates CreateUserRequest and defaults the role to user.
func (r *CreateUserRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if utf8.RuneCountInString(r.Name) < minUserNameLen {
		return fmt.Errorf("name must be at least %d characters", minUserNameLen)
	}
	if !LooksLikeEmail(r.Email) {
		return errors.New("email is not valid")
	}
	if utf8.RuneCountInString(r.Password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if r.Role == "" {
		r.Role = RoleUser
	}
	if !r.Role.Valid() {
		return fmt.Errorf("invalid role %q", r.Role)
	}
	return nil
}

// UpdateUserRequest represents a partial update of a User.
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  *Role   `json:"role,omitempty"`
}

// HasUpdates reports whether any field is set in UpdateUserRequest.
func (r *UpdateUserRequest) HasUpdates() bool {
	return r.Name != nil || r.Email != nil || r.Role != nil
}

// Validate ensures at least one field is set and values are sane.
func (r *UpdateUserRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		if utf8.RuneCountInString(n) < minUserNameLen {
			return fmt.Errorf("name must be at least %d characters", minUserNameLen)
		}
		r.Name = &n
	}
	if r.Email != nil {
		e := strings.TrimSpace(*r.Email)
		if !LooksLikeEmail(e) {
			return errors.New("email is not valid")
		}
		r.Email = &e
	}
	if r.Role != nil && !r.Role.Valid() {
		return fmt.Errorf("invalid role %q", *r.Role)
	}
	return nil
}

// WithoutRole returns a copy of the request with the role field dropped.
func (r UpdateUserRequest) WithoutRole() UpdateUserRequest {
	r.Role = nil
	return r
}
