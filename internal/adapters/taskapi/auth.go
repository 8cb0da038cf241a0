package taskapi

import (
	"context"
	"net/http"

	domainauth "github.com/target/taskdesk/internal/domain/auth"
	apperrors "github.com/target/taskdesk/internal/errors"
	"github.com/target/taskdesk/internal/ports"
)

var _ ports.Authenticator = (*AuthClient)(nil)

// AuthClient calls the authentication endpoints.
type AuthClient struct {
	c *Client
}

// Login posts credentials to /login. Rejected credentials yield AuthenticationFailed.
func (a *AuthClient) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.AuthResult, error) {
	var out domainauth.AuthResult
	err := a.c.do(WithoutAuth(ctx), call{
		method: http.MethodPost,
		path:   []string{"login"},
		in:     creds,
		out:    &out,
	})
	if err != nil {
		return domainauth.AuthResult{}, asAuthFailure(err)
	}
	if out.AccessToken == "" {
		return domainauth.AuthResult{}, apperrors.AuthenticationFailed("The server did not return an access token.")
	}
	return out, nil
}

// asAuthFailure reclassifies 400/401 answers from anonymous endpoints.
func asAuthFailure(err error) error {
	switch StatusCode(err) {
	case http.StatusUnauthorized, http.StatusBadRequest:
		return apperrors.Wrap(err, apperrors.ErrCodeAuthenticationFailed, "Invalid email or password.")
	default:
		return err
	}
}
