package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	domainauth "github.com/target/taskdesk/internal/domain/auth"
	"github.com/target/taskdesk/internal/domain/model"
	apperrors "github.com/target/taskdesk/internal/errors"
	"github.com/target/taskdesk/internal/ports"
)

// TaskServiceOptions groups dependencies for TaskService.
type TaskServiceOptions struct {
	Tasks    ports.TaskAPI // Required
	Users    ports.UserAPI // Required
	Sessions SessionReader // Required
	Logger   *slog.Logger  // Optional
}

// TaskService applies role rules on top of the task client.
type TaskService struct {
	tasks    ports.TaskAPI
	users    ports.UserAPI
	sessions SessionReader
	logger   *slog.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(opts TaskServiceOptions) *TaskService {
	if opts.Tasks == nil {
		panic("TaskAPI is required")
	}
	if opts.Users == nil {
		panic("UserAPI is required")
	}
	if opts.Sessions == nil {
		panic("SessionReader is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		tasks:    opts.Tasks,
		users:    opts.Users,
		sessions: opts.Sessions,
		logger:   logger.With("component", "task_service"),
	}
}

// TaskBoard is the task collection together with the users that can own tasks.
type TaskBoard struct {
	Tasks   []model.Task
	Users   []model.User
	IsAdmin bool
}

// OwnerLabel returns the display label for the owner id, falling back to #id
// when the owner is not among the loaded users.
func (b TaskBoard) OwnerLabel(ownerID int) string {
	for _, u := range b.Users {
		if u.ID == ownerID {
			return u.Label()
		}
	}
	return model.User{ID: ownerID}.Label()
}

// Filtered applies c to the board's tasks.
func (b TaskBoard) Filtered(c model.TaskFilter) []model.Task {
	return FilterTasks(b.Tasks, c, b.IsAdmin)
}

func (s *TaskService) session() (domainauth.Session, error) {
	sess := s.sessions.Snapshot()
	if !sess.Active() {
		return sess, &apperrors.AppError{Code: apperrors.ErrCodeAuthorizationExpired, Message: "You are not signed in."}
	}
	return sess, nil
}

// Board loads the tasks visible to the current user. Admins get every task and
// every user, fetched concurrently; everyone else gets their own tasks and
// only themselves as the user list.
func (s *TaskService) Board(ctx context.Context) (TaskBoard, error) {
	sess, err := s.session()
	if err != nil {
		return TaskBoard{}, err
	}

	if !sess.HasRole(domainauth.RoleAdmin) {
		self := sess.User.ID
		tasks, err := s.tasks.List(ctx, model.TaskListOptions{UserID: &self})
		if err != nil {
			return TaskBoard{}, apperrors.Ensure(err, "Could not load tasks.")
		}
		return TaskBoard{Tasks: tasks, Users: []model.User{*sess.User}}, nil
	}

	var board TaskBoard
	board.IsAdmin = true
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := s.tasks.List(gctx, model.TaskListOptions{})
		board.Tasks = tasks
		return err
	})
	g.Go(func() error {
		users, err := s.users.List(gctx)
		board.Users = users
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "loading task board failed", "error", err, "error_class", apperrors.Classify(err))
		return TaskBoard{}, apperrors.Ensure(err, "Could not load tasks.")
	}
	return board, nil
}

// List returns the board's tasks filtered by c.
func (s *TaskService) List(ctx context.Context, c model.TaskFilter) ([]model.Task, error) {
	board, err := s.Board(ctx)
	if err != nil {
		return nil, err
	}
	return board.Filtered(c), nil
}

// Create creates a pending task. Non-admins always create tasks for themselves.
func (s *TaskService) Create(ctx context.Context, req model.CreateTaskRequest) (model.Task, error) {
	sess, err := s.session()
	if err != nil {
		return model.Task{}, err
	}
	if !sess.HasRole(domainauth.RoleAdmin) || req.OwnerID == 0 {
		req.OwnerID = sess.User.ID
	}
	if err := req.Validate(); err != nil {
		return model.Task{}, apperrors.Validation(err.Error())
	}
	task, err := s.tasks.Create(ctx, req)
	if err != nil {
		return model.Task{}, apperrors.Ensure(err, "Could not create the task.")
	}
	s.logger.InfoContext(ctx, "task created", "task_id", task.ID, "owner_id", task.OwnerID)
	return task, nil
}

// Update applies a partial update. Owner changes are dropped for non-admins.
func (s *TaskService) Update(ctx context.Context, id int, req model.UpdateTaskRequest) (model.Task, error) {
	sess, err := s.session()
	if err != nil {
		return model.Task{}, err
	}
	if id < 1 {
		return model.Task{}, apperrors.ValidationField("id", "task id must be positive")
	}
	if !sess.HasRole(domainauth.RoleAdmin) {
		req.OwnerID = nil
	}
	if err := req.Validate(); err != nil {
		return model.Task{}, apperrors.Validation(err.Error())
	}
	task, err := s.tasks.Update(ctx, id, req)
	if err != nil {
		return model.Task{}, apperrors.Ensure(err, "Could not update the task.")
	}
	return task, nil
}

// SetStatus changes only the status of a task.
func (s *TaskService) SetStatus(ctx context.Context, id int, status model.TaskStatus) (model.Task, error) {
	return s.Update(ctx, id, model.UpdateTaskRequest{Status: &status})
}

// Delete deletes a task.
func (s *TaskService) Delete(ctx context.Context, id int) error {
	if _, err := s.session(); err != nil {
		return err
	}
	if id < 1 {
		return apperrors.ValidationField("id", "task id must be positive")
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return apperrors.Ensure(err, "Could not delete the task.")
	}
	s.logger.InfoContext(ctx, "task deleted", "task_id", id)
	return nil
}
