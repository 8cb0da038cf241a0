package ports

import (
	"context"

	domainauth "github.com/target/taskdesk/internal/domain/auth"
	"github.com/target/taskdesk/internal/domain/model"
)

// TaskAPI is the REST surface for tasks.
type TaskAPI interface {
	List(ctx context.Context, opts model.TaskListOptions) ([]model.Task, error)
	Create(ctx context.Context, req model.CreateTaskRequest) (model.Task, error)
	Update(ctx context.Context, id int, req model.UpdateTaskRequest) (model.Task, error)
	Delete(ctx context.Context, id int) error
}

// UserAPI is the REST surface for users. Create goes through the registration endpoint.
type UserAPI interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id int) (model.User, error)
	Create(ctx context.Context, req model.CreateUserRequest) (domainauth.AuthResult, error)
	Update(ctx context.Context, id int, req model.UpdateUserRequest) (model.User, error)
	Delete(ctx context.Context, id int) error
}
