package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" ADMIN ")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)

	_, ok = ParseRole("root")
	assert.False(t, ok)
}

func TestUser_Label(t *testing.T) {
	assert.Equal(t, "Ann", User{ID: 1, Name: "Ann", Email: "ann@example.com"}.Label())
	assert.Equal(t, "ann@example.com", User{ID: 1, Name: "  ", Email: "ann@example.com"}.Label())
	assert.Equal(t, "#7", User{ID: 7}.Label())
}

func TestLooksLikeEmail(t *testing.T) {
	for _, v := range []string{"a@b", "first.last+tag@example.co.uk", " padded@example.com "} {
		assert.True(t, LooksLikeEmail(v), v)
	}
	for _, v := range []string{"", "plain", "a@", "@b.com", "a b@c.com"} {
		assert.False(t, LooksLikeEmail(v), v)
	}
}

func TestCreateUserRequest_Validate(t *testing.T) {
	req := CreateUserRequest{Name: " Cleo ", Email: "cleo@example.com", Password: "secret1"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Cleo", req.Name)
	assert.Equal(t, RoleUser, req.Role)

	tests := []CreateUserRequest{
		{Name: "C", Email: "cleo@example.com", Password: "secret1"},
		{Name: "Cleo", Email: "nope", Password: "secret1"},
		{Name: "Cleo", Email: "cleo@example.com", Password: "12345"},
		{Name: "Cleo", Email: "cleo@example.com", Password: "secret1", Role: "owner"},
	}
	for _, tt := range tests {
		assert.Error(t, tt.Validate(), "%+v", tt)
	}
}

func TestUpdateUserRequest(t *testing.T) {
	var empty UpdateUserRequest
	assert.Error(t, empty.Validate())

	role := RoleAdmin
	name := "Bo"
	req := UpdateUserRequest{Name: &name, Role: &role}
	stripped := req.WithoutRole()
	assert.Nil(t, stripped.Role)
	assert.NotNil(t, req.Role, "WithoutRole must not modify the receiver")

	onlyRole := UpdateUserRequest{Role: &role}.WithoutRole()
	assert.Error(t, onlyRole.Validate())

	badEmail := "bo"
	assert.Error(t, (&UpdateUserRequest{Email: &badEmail}).Validate())
}
