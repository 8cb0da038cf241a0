package service

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/taskdesk/internal/domain/model"
	"github.com/target/taskdesk/internal/testutil"
)

func TestFilterTasks_ExampleScenario(t *testing.T) {
	got := FilterTasks(testutil.ReportTasks(), model.TaskFilter{
		Text:   "rep",
		Status: model.TaskStatusPending,
	}, true)

	require.Len(t, got, 1)
	assert.Equal(t, "Report A", got[0].Title)
}

func TestFilterTasks_Criteria(t *testing.T) {
	tasks := testutil.ReportTasks()
	owner2 := 2

	tests := []struct {
		name    string
		filter  model.TaskFilter
		isAdmin bool
		want    []int
	}{
		{"case insensitive text", model.TaskFilter{Text: "REPORT"}, true, []int{1, 2}},
		{"explicit all status", model.TaskFilter{Status: model.AnyStatus}, true, []int{1, 2, 3}},
		{"status done", model.TaskFilter{Status: model.TaskStatusDone}, true, []int{2}},
		{"admin owner filter", model.TaskFilter{OwnerID: &owner2}, true, []int{2}},
		{"non-admin owner filter ignored", model.TaskFilter{OwnerID: &owner2}, false, []int{1, 2, 3}},
		{"no match", model.TaskFilter{Text: "zzz"}, true, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTasks(tasks, tt.filter, tt.isAdmin)
			ids := make([]int, 0, len(got))
			for _, task := range got {
				ids = append(ids, task.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilterUsers_Criteria(t *testing.T) {
	users := []model.User{
		testutil.AdminUser(),
		testutil.RegularUser(),
		testutil.NewUser(3).WithEmail("carol@corp.example").Build(),
	}

	tests := []struct {
		name   string
		filter model.UserFilter
		want   []int
	}{
		{"empty", model.UserFilter{}, []int{1, 2, 3}},
		{"name match", model.UserFilter{Text: "ann"}, []int{1}},
		{"email match without name", model.UserFilter{Text: "CORP"}, []int{3}},
		{"role user", model.UserFilter{Role: model.RoleUser}, []int{2, 3}},
		{"role all", model.UserFilter{Role: model.AnyRole, Text: "example"}, []int{1, 2, 3}},
		{"text and role", model.UserFilter{Text: "bob", Role: model.RoleAdmin}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterUsers(users, tt.filter)
			ids := make([]int, 0, len(got))
			for _, u := range got {
				ids = append(ids, u.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

// randomTasks builds a deterministic pseudo-random collection.
func randomTasks(r *rand.Rand, n int) []model.Task {
	statuses := []model.TaskStatus{model.TaskStatusPending, model.TaskStatusInProgress, model.TaskStatusDone}
	words := []string{"Report", "report", "Deploy", "Review", "Other", "REP"}
	out := make([]model.Task, n)
	for i := range out {
		out[i] = model.Task{
			ID:      i + 1,
			Title:   fmt.Sprintf("%s %d", words[r.Intn(len(words))], r.Intn(100)),
			Status:  statuses[r.Intn(len(statuses))],
			OwnerID: r.Intn(4) + 1,
		}
	}
	return out
}

func randomCriteria(r *rand.Rand) model.TaskFilter {
	texts := []string{"", "rep", "DEP", "o", "9"}
	statuses := []model.TaskStatus{"", model.AnyStatus, model.TaskStatusPending, model.TaskStatusDone}
	c := model.TaskFilter{
		Text:   texts[r.Intn(len(texts))],
		Status: statuses[r.Intn(len(statuses))],
	}
	if r.Intn(2) == 0 {
		owner := r.Intn(4) + 1
		c.OwnerID = &owner
	}
	return c
}

func TestFilterTasks_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		items := randomTasks(r, r.Intn(30))
		original := slices.Clone(items)
		c := randomCriteria(r)
		isAdmin := r.Intn(2) == 0

		once := FilterTasks(items, c, isAdmin)

		// never mutates input
		require.Equal(t, original, items)
		// deterministic
		require.Equal(t, once, FilterTasks(items, c, isAdmin))
		// idempotent
		require.Equal(t, once, FilterTasks(once, c, isAdmin))
		// stable: output is a subsequence of the input
		pos := 0
		for _, got := range once {
			for pos < len(items) && items[pos].ID != got.ID {
				pos++
			}
			require.Less(t, pos, len(items), "output order differs from input order")
			pos++
		}
		// identity for empty criteria
		require.Equal(t, items, FilterTasks(items, model.TaskFilter{Status: model.AnyStatus}, isAdmin))
		// non-admins: owner criteria can neither widen nor narrow scope
		if !isAdmin {
			noOwner := c
			noOwner.OwnerID = nil
			require.Equal(t, FilterTasks(items, noOwner, false), once)
		}
	}
}

func TestFilterUsers_Properties(t *testing.T) {
	users := []model.User{
		testutil.AdminUser(),
		testutil.RegularUser(),
		testutil.NewUser(3).WithName("Ann Other").WithEmail("ann@example.com").Build(),
	}
	original := slices.Clone(users)
	assert.Equal(t, users, FilterUsers(users, model.UserFilter{Role: model.AnyRole}))

	c := model.UserFilter{Text: "ann"}
	once := FilterUsers(users, c)
	assert.Equal(t, once, FilterUsers(once, c))
	assert.Equal(t, original, users)
}

func TestFilter_ResultDoesNotAliasInput(t *testing.T) {
	items := []int{1, 2, 3}
	out := Filter(items, nil)
	out[0] = 99
	assert.Equal(t, []int{1, 2, 3}, items)
}
