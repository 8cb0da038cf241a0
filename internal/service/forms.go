package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/target/taskdesk/internal/domain/model"
	apperrors "github.com/target/taskdesk/internal/errors"
	"github.com/target/taskdesk/internal/ports"
)

// Form field names.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldOwner       = "owner"
	FieldName        = "name"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldRole        = "role"
)

var statusOptions = []ports.FormOption{
	{Value: string(model.TaskStatusPending), Label: "Pending"},
	{Value: string(model.TaskStatusInProgress), Label: "In progress"},
	{Value: string(model.TaskStatusDone), Label: "Done"},
}

var roleOptions = []ports.FormOption{
	{Value: string(model.RoleUser), Label: "User"},
	{Value: string(model.RoleAdmin), Label: "Admin"},
}

// TaskForm builds the task dialog. A nil existing task means create: the status
// is then fixed to pending. The owner can only be picked by admins.
func TaskForm(existing *model.Task, board TaskBoard, selfID int) ports.FormSpec {
	title := "New task"
	task := model.Task{Status: model.TaskStatusPending, OwnerID: selfID}
	if existing != nil {
		title = "Edit task #" + strconv.Itoa(existing.ID)
		task = *existing
	}

	owners := make([]ports.FormOption, 0, len(board.Users))
	for _, u := range board.Users {
		owners = append(owners, ports.FormOption{Value: strconv.Itoa(u.ID), Label: u.Label()})
	}

	return ports.FormSpec{
		Title: title,
		Fields: []ports.FormField{
			{Name: FieldTitle, Label: "Title", Kind: ports.FieldText, Default: task.Title, Required: true},
			{Name: FieldDescription, Label: "Description", Kind: ports.FieldText, Default: task.Description},
			{
				Name: FieldStatus, Label: "Status", Kind: ports.FieldSelect,
				Default: string(task.Status), Options: statusOptions, Disabled: existing == nil,
			},
			{
				Name: FieldOwner, Label: "Owner", Kind: ports.FieldSelect,
				Default: strconv.Itoa(task.OwnerID), Options: owners, Disabled: !board.IsAdmin,
			},
		},
	}
}

// ParseTaskCreate reads a submitted TaskForm into a create request.
func ParseTaskCreate(res ports.FormResult) (model.CreateTaskRequest, error) {
	owner, err := parseID(res[FieldOwner], FieldOwner)
	if err != nil {
		return model.CreateTaskRequest{}, err
	}
	return model.CreateTaskRequest{
		Title:       res[FieldTitle],
		Description: strings.TrimSpace(res[FieldDescription]),
		Status:      model.TaskStatusPending,
		OwnerID:     owner,
	}, nil
}

// ParseTaskUpdate reads a submitted TaskForm and keeps only fields that differ from orig.
func ParseTaskUpdate(res ports.FormResult, orig model.Task) (model.UpdateTaskRequest, error) {
	var req model.UpdateTaskRequest
	if v := strings.TrimSpace(res[FieldTitle]); v != orig.Title {
		req.Title = &v
	}
	if v := strings.TrimSpace(res[FieldDescription]); v != orig.Description {
		req.Description = &v
	}
	if v, ok := res[FieldStatus]; ok && v != string(orig.Status) {
		status, valid := model.ParseTaskStatus(v)
		if !valid {
			return req, apperrors.ValidationField(FieldStatus, "invalid status "+strconv.Quote(v))
		}
		req.Status = &status
	}
	if v, ok := res[FieldOwner]; ok {
		owner, err := parseID(v, FieldOwner)
		if err != nil {
			return req, err
		}
		if owner != orig.OwnerID {
			req.OwnerID = &owner
		}
	}
	return req, nil
}

// UserForm builds the user dialog. The password is only asked on create, and
// nobody can change their own role.
func UserForm(existing *model.User, selfID int) ports.FormSpec {
	if existing == nil {
		return ports.FormSpec{
			Title: "New user",
			Fields: []ports.FormField{
				{Name: FieldName, Label: "Name", Kind: ports.FieldText, Required: true},
				{Name: FieldEmail, Label: "Email", Kind: ports.FieldText, Required: true},
				{Name: FieldPassword, Label: "Password", Kind: ports.FieldPassword, Required: true},
				{Name: FieldRole, Label: "Role", Kind: ports.FieldSelect, Default: string(model.RoleUser), Options: roleOptions},
			},
		}
	}
	return ports.FormSpec{
		Title: "Edit " + existing.Label(),
		Fields: []ports.FormField{
			{Name: FieldName, Label: "Name", Kind: ports.FieldText, Default: existing.Name, Required: true},
			{Name: FieldEmail, Label: "Email", Kind: ports.FieldText, Default: existing.Email, Required: true},
			{
				Name: FieldRole, Label: "Role", Kind: ports.FieldSelect,
				Default: string(existing.Role), Options: roleOptions, Disabled: existing.ID == selfID,
			},
		},
	}
}

// ParseUserCreate reads a submitted UserForm into a registration request.
func ParseUserCreate(res ports.FormResult) (model.CreateUserRequest, error) {
	role, ok := model.ParseRole(res[FieldRole])
	if !ok {
		return model.CreateUserRequest{}, apperrors.ValidationField(FieldRole, "invalid role "+strconv.Quote(res[FieldRole]))
	}
	return model.CreateUserRequest{
		Name:     res[FieldName],
		Email:    res[FieldEmail],
		Password: res[FieldPassword],
		Role:     role,
	}, nil
}

// ParseUserUpdate reads a submitted UserForm and keeps only fields that differ from orig.
func ParseUserUpdate(res ports.FormResult, orig model.User) (model.UpdateUserRequest, error) {
	var req model.UpdateUserRequest
	if v := strings.TrimSpace(res[FieldName]); v != orig.Name {
		req.Name = &v
	}
	if v := strings.TrimSpace(res[FieldEmail]); v != orig.Email {
		req.Email = &v
	}
	if v, ok := res[FieldRole]; ok && v != string(orig.Role) {
		role, valid := model.ParseRole(v)
		if !valid {
			return req, apperrors.ValidationField(FieldRole, "invalid role "+strconv.Quote(v))
		}
		req.Role = &role
	}
	return req, nil
}

func parseID(v, field string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || id < 1 {
		return 0, apperrors.ValidationField(field, field+" must be a positive id")
	}
	return id, nil
}

// IsFormCancelled reports whether err means the user dismissed a form.
func IsFormCancelled(err error) bool {
	return errors.Is(err, ports.ErrFormCancelled)
}

// CreateWithForm opens the task dialog and creates the submitted task.
// Cancelling makes no request and returns ports.ErrFormCancelled.
func (s *TaskService) CreateWithForm(ctx context.Context, forms ports.FormPrompter) (model.Task, error) {
	sess, err := s.session()
	if err != nil {
		return model.Task{}, err
	}
	board, err := s.Board(ctx)
	if err != nil {
		return model.Task{}, err
	}
	res, err := forms.Open(ctx, TaskForm(nil, board, sess.User.ID))
	if err != nil {
		return model.Task{}, err
	}
	req, err := ParseTaskCreate(res)
	if err != nil {
		return model.Task{}, err
	}
	return s.Create(ctx, req)
}

// EditWithForm opens the task dialog for task id and applies what changed.
func (s *TaskService) EditWithForm(ctx context.Context, forms ports.FormPrompter, id int) (model.Task, error) {
	sess, err := s.session()
	if err != nil {
		return model.Task{}, err
	}
	board, err := s.Board(ctx)
	if err != nil {
		return model.Task{}, err
	}
	var orig *model.Task
	for i := range board.Tasks {
		if board.Tasks[i].ID == id {
			orig = &board.Tasks[i]
			break
		}
	}
	if orig == nil {
		return model.Task{}, apperrors.NotFoundf("task #%d not found", id)
	}
	res, err := forms.Open(ctx, TaskForm(orig, board, sess.User.ID))
	if err != nil {
		return model.Task{}, err
	}
	req, err := ParseTaskUpdate(res, *orig)
	if err != nil {
		return model.Task{}, err
	}
	return s.Update(ctx, id, req)
}

// CreateWithForm opens the user dialog and registers the submitted account.
func (s *UserService) CreateWithForm(ctx context.Context, forms ports.FormPrompter) (model.User, error) {
	res, err := forms.Open(ctx, UserForm(nil, 0))
	if err != nil {
		return model.User{}, err
	}
	req, err := ParseUserCreate(res)
	if err != nil {
		return model.User{}, err
	}
	return s.Create(ctx, req)
}

// EditWithForm opens the user dialog for user id and applies what changed.
func (s *UserService) EditWithForm(ctx context.Context, forms ports.FormPrompter, id int) (model.User, error) {
	actor, err := s.actor()
	if err != nil {
		return model.User{}, err
	}
	orig, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	res, err := forms.Open(ctx, UserForm(&orig, actor.ID))
	if err != nil {
		return model.User{}, err
	}
	req, err := ParseUserUpdate(res, orig)
	if err != nil {
		return model.User{}, err
	}
	return s.Update(ctx, id, req)
}
