// Package testutil provides testing utilities and helpers for taskdesk.
package testutil

import (
	"github.com/target/taskdesk/internal/domain/model"
)

// TaskBuilder provides a fluent interface for building Task fixtures.
type TaskBuilder struct {
	task model.Task
}

// NewTask creates a TaskBuilder with sensible defaults.
func NewTask(id int) *TaskBuilder {
	return &TaskBuilder{
		task: model.Task{
			ID:      id,
			Title:   "Task",
			Status:  model.TaskStatusPending,
			OwnerID: 1,
		},
	}
}

// WithTitle sets the title.
func (b *TaskBuilder) WithTitle(title string) *TaskBuilder {
	b.task.Title = title
	return b
}

// WithDescription sets the description.
func (b *TaskBuilder) WithDescription(desc string) *TaskBuilder {
	b.task.Description = desc
	return b
}

// WithStatus sets the status.
func (b *TaskBuilder) WithStatus(status model.TaskStatus) *TaskBuilder {
	b.task.Status = status
	return b
}

// OwnedBy sets the owner.
func (b *TaskBuilder) OwnedBy(ownerID int) *TaskBuilder {
	b.task.OwnerID = ownerID
	return b
}

// Build returns the constructed Task.
func (b *TaskBuilder) Build() model.Task {
	return b.task
}

// UserBuilder provides a fluent interface for building User fixtures.
type UserBuilder struct {
	user model.User
}

// NewUser creates a UserBuilder for a regular user.
func NewUser(id int) *UserBuilder {
	return &UserBuilder{
		user: model.User{
			ID:    id,
			Email: "user@example.com",
			Role:  model.RoleUser,
		},
	}
}

// WithName sets the display name.
func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.user.Name = name
	return b
}

// WithEmail sets the email.
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

// Admin marks the user as an administrator.
func (b *UserBuilder) Admin() *UserBuilder {
	b.user.Role = model.RoleAdmin
	return b
}

// Build returns the constructed User.
func (b *UserBuilder) Build() model.User {
	return b.user
}

// Common fixtures

// AdminUser returns the admin fixture (id 1).
func AdminUser() model.User {
	return NewUser(1).WithName("Ann Admin").WithEmail("admin@example.com").Admin().Build()
}

// RegularUser returns the regular-user fixture (id 2).
func RegularUser() model.User {
	return NewUser(2).WithName("Bob").WithEmail("bob@example.com").Build()
}

// ReportTasks returns the three-task fixture used by filter tests.
func ReportTasks() []model.Task {
	return []model.Task{
		NewTask(1).WithTitle("Report A").OwnedBy(1).Build(),
		NewTask(2).WithTitle("Report B").WithStatus(model.TaskStatusDone).OwnedBy(2).Build(),
		NewTask(3).WithTitle("Other").OwnedBy(1).Build(),
	}
}
