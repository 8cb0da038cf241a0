package taskapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/target/taskdesk/internal/domain/model"
	"github.com/target/taskdesk/internal/ports"
)

var _ ports.TaskAPI = (*TaskClient)(nil)

// TaskClient maps task operations onto /tasks.
type TaskClient struct {
	c *Client
}

func (t *TaskClient) List(ctx context.Context, opts model.TaskListOptions) ([]model.Task, error) {
	var query url.Values
	if opts.UserID != nil {
		query = url.Values{"userId": {strconv.Itoa(*opts.UserID)}}
	}
	var out []model.Task
	if err := t.c.do(ctx, call{method: http.MethodGet, path: []string{"tasks"}, query: query, out: &out}); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Task{}
	}
	return out, nil
}

func (t *TaskClient) Create(ctx context.Context, req model.CreateTaskRequest) (model.Task, error) {
	req.Status = model.TaskStatusPending
	var out model.Task
	err := t.c.do(ctx, call{method: http.MethodPost, path: []string{"tasks"}, in: req, out: &out})
	return out, err
}

func (t *TaskClient) Update(ctx context.Context, id int, req model.UpdateTaskRequest) (model.Task, error) {
	var out model.Task
	err := t.c.do(ctx, call{
		method: http.MethodPatch,
		path:   []string{"tasks", strconv.Itoa(id)},
		in:     req,
		out:    &out,
	})
	return out, err
}

func (t *TaskClient) Delete(ctx context.Context, id int) error {
	return t.c.do(ctx, call{method: http.MethodDelete, path: []string{"tasks", strconv.Itoa(id)}})
}
