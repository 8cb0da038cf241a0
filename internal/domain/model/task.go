package model

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const minTaskTitleLen = 3

// TaskStatus is the workflow state of a Task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether the status is supported.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// ParseTaskStatus normalizes a status string and reports whether it is supported.
// "in-progress" is accepted as an alias of in_progress.
func ParseTaskStatus(value string) (TaskStatus, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.ReplaceAll(v, "-", "_")
	s := TaskStatus(v)
	if s.Valid() {
		return s, true
	}
	return "", false
}

// Task is a unit of work owned by a User.
// The API names the owner field userId.
type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	OwnerID     int        `json:"userId"`
}

// TaskListOptions narrows GET /tasks.
type TaskListOptions struct {
	UserID *int
}

// CreateTaskRequest represents parameters to create a Task.
// Status is always sent as pending.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	OwnerID     int        `json:"userId"`
}

// Validate validates CreateTaskRequest and pins the status to pending.
func (r *CreateTaskRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if utf8.RuneCountInString(r.Title) < minTaskTitleLen {
		return fmt.Errorf("title must be at least %d characters", minTaskTitleLen)
	}
	if r.OwnerID < 1 {
		return errors.New("owner is required")
	}
	r.Status = TaskStatusPending
	return nil
}

// UpdateTaskRequest represents a partial update of a Task.
type UpdateTaskRequest struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	OwnerID     *int        `json:"userId,omitempty"`
}

// HasUpdates reports whether any field is set in UpdateTaskRequest.
func (r *UpdateTaskRequest) HasUpdates() bool {
	return r.Title != nil || r.Description != nil || r.Status != nil || r.OwnerID != nil
}

// Validate ensures at least one field is set and values are sane.
func (r *UpdateTaskRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		if utf8.RuneCountInString(t) < minTaskTitleLen {
			return fmt.Errorf("title must be at least %d characters", minTaskTitleLen)
		}
		r.Title = &t
	}
	if r.Status != nil && !r.Status.Valid() {
		return fmt.Errorf("invalid status %q", *r.Status)
	}
	if r.OwnerID != nil && *r.OwnerID < 1 {
		return errors.New("owner must be a positive id")
	}
	return nil
}
