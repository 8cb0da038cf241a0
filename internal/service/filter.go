package service

import (
	"strings"

	"github.com/target/taskdesk/internal/domain/model"
)

// Filter returns the items for which keep reports true, in input order.
// The input slice is never modified and the result never aliases it.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep == nil || keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// TaskPredicate builds the match function for c. Owner criteria only apply to admins:
// non-admins already receive just their own tasks, and the filter never widens that.
func TaskPredicate(c model.TaskFilter, isAdmin bool) func(model.Task) bool {
	return func(t model.Task) bool {
		if c.Text != "" && !containsFold(t.Title, c.Text) {
			return false
		}
		if !c.MatchesAnyStatus() && t.Status != c.Status {
			return false
		}
		if isAdmin && c.OwnerID != nil && t.OwnerID != *c.OwnerID {
			return false
		}
		return true
	}
}

// UserPredicate builds the match function for c. Text matches name or email.
func UserPredicate(c model.UserFilter) func(model.User) bool {
	return func(u model.User) bool {
		if c.Text != "" && !containsFold(u.Name, c.Text) && !containsFold(u.Email, c.Text) {
			return false
		}
		if !c.MatchesAnyRole() && u.Role != c.Role {
			return false
		}
		return true
	}
}

// FilterTasks applies c to tasks.
func FilterTasks(tasks []model.Task, c model.TaskFilter, isAdmin bool) []model.Task {
	return Filter(tasks, TaskPredicate(c, isAdmin))
}

// FilterUsers applies c to users.
func FilterUsers(users []model.User, c model.UserFilter) []model.User {
	return Filter(users, UserPredicate(c))
}
