package service

import (
	"context"
	"log/slog"

	domainauth "github.com/target/taskdesk/internal/domain/auth"
	"github.com/target/taskdesk/internal/domain/model"
	apperrors "github.com/target/taskdesk/internal/errors"
	"github.com/target/taskdesk/internal/ports"
)

// UserServiceOptions groups dependencies for UserService.
type UserServiceOptions struct {
	Users    ports.UserAPI // Required
	Tasks    ports.TaskAPI // Required for Delete
	Sessions SessionReader // Required
	Logger   *slog.Logger  // Optional
}

// UserService manages accounts on behalf of the signed-in user.
type UserService struct {
	users    ports.UserAPI
	sessions SessionReader
	deletion *UserDeletionService
	logger   *slog.Logger
}

// NewUserService constructs a UserService.
func NewUserService(opts UserServiceOptions) *UserService {
	if opts.Users == nil {
		panic("UserAPI is required")
	}
	if opts.Tasks == nil {
		panic("TaskAPI is required")
	}
	if opts.Sessions == nil {
		panic("SessionReader is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		users:    opts.Users,
		sessions: opts.Sessions,
		deletion: NewUserDeletionService(UserDeletionServiceOptions{
			Tasks:  opts.Tasks,
			Users:  opts.Users,
			Logger: logger,
		}),
		logger: logger.With("component", "user_service"),
	}
}

func (s *UserService) actor() (model.User, error) {
	sess := s.sessions.Snapshot()
	if !sess.Active() {
		return model.User{}, &apperrors.AppError{Code: apperrors.ErrCodeAuthorizationExpired, Message: "You are not signed in."}
	}
	return *sess.User, nil
}

// List returns every user filtered by c.
func (s *UserService) List(ctx context.Context, c model.UserFilter) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.Ensure(err, "Could not load users.")
	}
	return FilterUsers(users, c), nil
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id int) (model.User, error) {
	if id < 1 {
		return model.User{}, apperrors.ValidationField("id", "user id must be positive")
	}
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return model.User{}, apperrors.Ensure(err, "Could not load the user.")
	}
	return u, nil
}

// Create registers a new account. The token issued for the new account is
// discarded; the current session is left as it was.
func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest) (model.User, error) {
	if err := req.Validate(); err != nil {
		return model.User{}, apperrors.Validation(err.Error())
	}
	res, err := s.users.Create(ctx, req)
	if err != nil {
		return model.User{}, apperrors.Ensure(err, "Could not create the user.")
	}
	s.logger.InfoContext(ctx, "user created", "user_id", res.User.ID, "role", res.User.Role)
	return res.User, nil
}

// Update applies a partial update. Users cannot change their own role, and only
// admins may edit someone else.
func (s *UserService) Update(ctx context.Context, id int, req model.UpdateUserRequest) (model.User, error) {
	actor, err := s.actor()
	if err != nil {
		return model.User{}, err
	}
	if id < 1 {
		return model.User{}, apperrors.ValidationField("id", "user id must be positive")
	}
	if id == actor.ID {
		req = req.WithoutRole()
	} else if actor.Role != domainauth.RoleAdmin {
		return model.User{}, apperrors.Forbidden("Only admins can edit other users.")
	}
	if err := req.Validate(); err != nil {
		return model.User{}, apperrors.Validation(err.Error())
	}
	u, err := s.users.Update(ctx, id, req)
	if err != nil {
		return model.User{}, apperrors.Ensure(err, "Could not update the user.")
	}
	return u, nil
}

// Delete removes a user and the tasks they own on behalf of the signed-in user.
// reload, when set, runs after every request has settled.
func (s *UserService) Delete(ctx context.Context, id int, reload func(context.Context) error) (CascadeResult, error) {
	actor, err := s.actor()
	if err != nil {
		return CascadeResult{}, err
	}
	return s.deletion.DeleteUser(ctx, DeleteUserInput{ActorID: actor.ID, TargetID: id, Reload: reload})
}
