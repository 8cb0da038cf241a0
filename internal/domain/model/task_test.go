package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskStatus(t *testing.T) {
	s, ok := ParseTaskStatus(" In-Progress ")
	assert.True(t, ok)
	assert.Equal(t, TaskStatusInProgress, s)

	s, ok = ParseTaskStatus("done")
	assert.True(t, ok)
	assert.Equal(t, TaskStatusDone, s)

	_, ok = ParseTaskStatus("archived")
	assert.False(t, ok)
}

func TestTask_OwnerWireName(t *testing.T) {
	b, err := json.Marshal(Task{ID: 1, Title: "Write", Status: TaskStatusPending, OwnerID: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"title":"Write","status":"pending","userId":2}`, string(b))
}

func TestCreateTaskRequest_Validate(t *testing.T) {
	req := CreateTaskRequest{Title: "  Write docs ", Status: TaskStatusDone, OwnerID: 3}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Write docs", req.Title)
	assert.Equal(t, TaskStatusPending, req.Status)

	short := CreateTaskRequest{Title: "ab", OwnerID: 3}
	assert.Error(t, short.Validate())

	noOwner := CreateTaskRequest{Title: "Write"}
	assert.Error(t, noOwner.Validate())
}

func TestUpdateTaskRequest_Validate(t *testing.T) {
	var empty UpdateTaskRequest
	assert.False(t, empty.HasUpdates())
	assert.Error(t, empty.Validate())

	bad := TaskStatus("archived")
	assert.Error(t, (&UpdateTaskRequest{Status: &bad}).Validate())

	zero := 0
	assert.Error(t, (&UpdateTaskRequest{OwnerID: &zero}).Validate())

	title := " Ship it "
	req := UpdateTaskRequest{Title: &title}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Ship it", *req.Title)
	assert.Equal(t, " Ship it ", title, "caller's string must not change")

	b, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Ship it"}`, string(b))
}
