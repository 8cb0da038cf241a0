package auth

import (
	"testing"

	"github.com/target/taskdesk/internal/domain/model"
)

func TestSession_Active(t *testing.T) {
	if (Session{}).Active() {
		t.Fatalf("zero session must not be active")
	}
	if (Session{Token: "t"}).Active() {
		t.Fatalf("session without user must not be active")
	}
	s := Session{Token: "t", User: &model.User{ID: 1, Role: RoleUser}}
	if !s.Active() {
		t.Fatalf("expected active session")
	}
}

func TestSession_HasRole(t *testing.T) {
	admin := Session{Token: "t", User: &model.User{ID: 1, Role: RoleAdmin}}
	if !admin.HasRole(RoleAdmin) || admin.HasRole(RoleUser) {
		t.Fatalf("unexpected role checks for %+v", admin.User)
	}
	if (Session{User: &model.User{Role: RoleAdmin}}).HasRole(RoleAdmin) {
		t.Fatalf("tokenless session must not hold any role")
	}
}

func TestSession_CloneDoesNotShareUser(t *testing.T) {
	orig := Session{Token: "t", User: &model.User{ID: 1, Email: "a@example.com"}}
	cp := orig.Clone()
	cp.User.Email = "b@example.com"
	if orig.User.Email != "a@example.com" {
		t.Fatalf("clone mutated original: %+v", orig.User)
	}
	if (Session{}).Clone().User != nil {
		t.Fatalf("clone of empty session should have nil user")
	}
}

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{"valid", Credentials{Email: "admin@example.com", Password: "secret"}, false},
		{"missing email", Credentials{Password: "secret"}, true},
		{"bad email", Credentials{Email: "admin", Password: "secret"}, true},
		{"missing password", Credentials{Email: "admin@example.com"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthResult_Session(t *testing.T) {
	res := AuthResult{AccessToken: "abc", User: model.User{ID: 7, Role: RoleUser}}
	s := res.Session()
	if s.Token != "abc" || s.UserID() != 7 {
		t.Fatalf("unexpected session %+v", s)
	}
}
