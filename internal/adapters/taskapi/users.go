package taskapi

import (
	"context"
	"net/http"
	"strconv"

	domainauth "github.com/target/taskdesk/internal/domain/auth"
	"github.com/target/taskdesk/internal/domain/model"
	"github.com/target/taskdesk/internal/ports"
)

var _ ports.UserAPI = (*UserClient)(nil)

// UserClient maps user operations onto /users and /register.
type UserClient struct {
	c *Client
}

func (u *UserClient) List(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := u.c.do(ctx, call{method: http.MethodGet, path: []string{"users"}, out: &out}); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.User{}
	}
	return out, nil
}

func (u *UserClient) Get(ctx context.Context, id int) (model.User, error) {
	var out model.User
	err := u.c.do(ctx, call{method: http.MethodGet, path: []string{"users", strconv.Itoa(id)}, out: &out})
	return out, err
}

// Create registers a user through /register. The returned token is discarded by callers;
// the acting session is never replaced.
func (u *UserClient) Create(ctx context.Context, req model.CreateUserRequest) (domainauth.AuthResult, error) {
	var out domainauth.AuthResult
	err := u.c.do(WithoutForcedLogout(ctx), call{method: http.MethodPost, path: []string{"register"}, in: req, out: &out})
	return out, err
}

func (u *UserClient) Update(ctx context.Context, id int, req model.UpdateUserRequest) (model.User, error) {
	var out model.User
	err := u.c.do(ctx, call{
		method: http.MethodPatch,
		path:   []string{"users", strconv.Itoa(id)},
		in:     req,
		out:    &out,
	})
	return out, err
}

func (u *UserClient) Delete(ctx context.Context, id int) error {
	return u.c.do(ctx, call{method: http.MethodDelete, path: []string{"users", strconv.Itoa(id)}})
}
