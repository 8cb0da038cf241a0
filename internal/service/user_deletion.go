package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/target/taskdesk/internal/domain/model"
	apperrors "github.com/target/taskdesk/internal/errors"
	"github.com/target/taskdesk/internal/ports"
)

// UserDeletionServiceOptions groups dependencies for UserDeletionService.
type UserDeletionServiceOptions struct {
	Tasks  ports.TaskAPI // Required
	Users  ports.UserAPI // Required
	Logger *slog.Logger  // Optional
}

// UserDeletionService deletes a user together with the tasks they own.
//
// The API has no cascade and no transactions, so this is best effort: task deletions
// that fail are logged and skipped, and the user delete is attempted regardless.
// Full atomicity is not provided.
type UserDeletionService struct {
	tasks  ports.TaskAPI
	users  ports.UserAPI
	logger *slog.Logger
}

// NewUserDeletionService constructs a UserDeletionService.
func NewUserDeletionService(opts UserDeletionServiceOptions) *UserDeletionService {
	if opts.Tasks == nil {
		panic("TaskAPI is required")
	}
	if opts.Users == nil {
		panic("UserAPI is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UserDeletionService{
		tasks:  opts.Tasks,
		users:  opts.Users,
		logger: logger.With("component", "user_deletion"),
	}
}

// DeleteUserInput identifies the acting and target users.
type DeleteUserInput struct {
	ActorID  int
	TargetID int
	// Reload refreshes the caller's displayed collection. It runs once every
	// network step has settled, whatever the outcome.
	Reload func(ctx context.Context) error
}

// CascadeResult reports what the cascade did. Task-level failures are informational only.
type CascadeResult struct {
	TasksFound    int
	TasksDeleted  int
	FailedTaskIDs []int
	ListFailed    bool
}

// Partial reports whether any dependent task could not be listed or deleted.
func (r CascadeResult) Partial() bool {
	return r.ListFailed || len(r.FailedTaskIDs) > 0
}

// DeleteUser removes the target's tasks concurrently, waits for all of them to settle,
// then removes the target. Only a failed user delete is returned (cascade_failed).
// Deleting one's own account is refused before any request is made.
func (s *UserDeletionService) DeleteUser(ctx context.Context, in DeleteUserInput) (CascadeResult, error) {
	if in.TargetID == in.ActorID {
		return CascadeResult{}, apperrors.SelfDeletionForbidden("You cannot delete your own account.")
	}
	if in.TargetID < 1 {
		return CascadeResult{}, apperrors.ValidationField("id", "user id must be positive")
	}

	// Settled work must not be undone by the caller going away.
	detached := context.WithoutCancel(ctx)
	defer s.reload(detached, in)

	logger := s.logger.With("user_id", in.TargetID, "actor_id", in.ActorID)

	result := s.deleteOwnedTasks(ctx, detached, in.TargetID, logger)
	if result.Partial() {
		logger.WarnContext(ctx, "partial cascade failure",
			"code", apperrors.ErrCodePartialCascadeFailure,
			"failed_tasks", len(result.FailedTaskIDs),
			"list_failed", result.ListFailed)
	}

	if err := s.users.Delete(ctx, in.TargetID); err != nil {
		logger.ErrorContext(ctx, "user deletion failed", "error", err, "error_class", apperrors.Classify(err))
		return result, apperrors.Wrap(err, apperrors.ErrCodeCascadeFailed, "Could not delete the user.")
	}
	logger.InfoContext(ctx, "user deleted", "tasks_deleted", result.TasksDeleted)
	return result, nil
}

func (s *UserDeletionService) deleteOwnedTasks(
	ctx, detached context.Context,
	ownerID int,
	logger *slog.Logger,
) CascadeResult {
	owner := ownerID
	tasks, err := s.tasks.List(ctx, model.TaskListOptions{UserID: &owner})
	if err != nil {
		logger.WarnContext(ctx, "listing owned tasks failed", "error", err, "error_class", apperrors.Classify(err))
		return CascadeResult{ListFailed: true}
	}

	result := CascadeResult{TasksFound: len(tasks)}
	if len(tasks) == 0 {
		return result
	}

	var (
		mu     sync.Mutex
		failed []int
		g      errgroup.Group
	)
	for _, task := range tasks {
		id := task.ID
		g.Go(func() error {
			if delErr := s.tasks.Delete(detached, id); delErr != nil {
				logger.WarnContext(detached, "cascade task deletion failed",
					"task_id", id, "error", delErr, "error_class", apperrors.Classify(delErr))
				mu.Lock()
				failed = append(failed, id)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Ints(failed)
	result.FailedTaskIDs = failed
	result.TasksDeleted = len(tasks) - len(failed)
	return result
}

func (s *UserDeletionService) reload(ctx context.Context, in DeleteUserInput) {
	if in.Reload == nil {
		return
	}
	if err := in.Reload(ctx); err != nil {
		s.logger.WarnContext(ctx, "reload after user deletion failed",
			"error", err, "error_class", apperrors.Classify(err))
	}
}
