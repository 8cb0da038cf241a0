package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/target/taskdesk/internal/domain/auth"
	"github.com/target/taskdesk/internal/domain/model"
	apperrors "github.com/target/taskdesk/internal/errors"
	"github.com/target/taskdesk/internal/mocks"
	"github.com/target/taskdesk/internal/testutil"
)

func signedInAs(u model.User) *staticSessions {
	return &staticSessions{sess: domainauth.Session{Token: "tok", User: &u}}
}

func newTaskService(t *testing.T, sessions SessionReader) (*TaskService, *mocks.MockTaskAPI, *mocks.MockUserAPI) {
	t.Helper()
	ctrl := gomock.NewController(t)
	tasks := mocks.NewMockTaskAPI(ctrl)
	users := mocks.NewMockUserAPI(ctrl)
	svc := NewTaskService(TaskServiceOptions{Tasks: tasks, Users: users, Sessions: sessions})
	return svc, tasks, users
}

func TestTaskService_BoardAdminLoadsEverything(t *testing.T) {
	svc, tasks, users := newTaskService(t, signedInAs(testutil.AdminUser()))

	all := testutil.ReportTasks()
	people := []model.User{testutil.AdminUser(), testutil.RegularUser()}
	tasks.EXPECT().List(gomock.Any(), model.TaskListOptions{}).Return(all, nil)
	users.EXPECT().List(gomock.Any()).Return(people, nil)

	board, err := svc.Board(context.Background())
	require.NoError(t, err)
	assert.True(t, board.IsAdmin)
	assert.Equal(t, all, board.Tasks)
	assert.Equal(t, people, board.Users)
	assert.Equal(t, "Bob", board.OwnerLabel(2))
	assert.Equal(t, "#99", board.OwnerLabel(99))
}

func TestTaskService_BoardRegularUserSeesOnlyOwnTasks(t *testing.T) {
	bob := testutil.RegularUser()
	svc, tasks, _ := newTaskService(t, signedInAs(bob))

	own := []model.Task{testutil.NewTask(4).OwnedBy(bob.ID).Build()}
	tasks.EXPECT().List(gomock.Any(), ownedBy(bob.ID)).Return(own, nil)

	board, err := svc.Board(context.Background())
	require.NoError(t, err)
	assert.False(t, board.IsAdmin)
	assert.Equal(t, own, board.Tasks)
	assert.Equal(t, []model.User{bob}, board.Users)
}

func TestTaskService_BoardFailureIsClassified(t *testing.T) {
	svc, tasks, users := newTaskService(t, signedInAs(testutil.AdminUser()))
	tasks.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))
	users.EXPECT().List(gomock.Any()).Return(nil, nil).AnyTimes()

	_, err := svc.Board(context.Background())
	assert.True(t, apperrors.IsTransientIO(err))
}

func TestTaskService_RequiresSession(t *testing.T) {
	svc, _, _ := newTaskService(t, &staticSessions{})

	_, err := svc.Board(context.Background())
	assert.True(t, apperrors.IsAuthorizationExpired(err))
	_, err = svc.Create(context.Background(), model.CreateTaskRequest{Title: "Write"})
	assert.True(t, apperrors.IsAuthorizationExpired(err))
	assert.True(t, apperrors.IsAuthorizationExpired(svc.Delete(context.Background(), 1)))
}

func TestTaskService_ListAppliesFilter(t *testing.T) {
	svc, tasks, users := newTaskService(t, signedInAs(testutil.AdminUser()))
	tasks.EXPECT().List(gomock.Any(), gomock.Any()).Return(testutil.ReportTasks(), nil)
	users.EXPECT().List(gomock.Any()).Return(nil, nil)

	got, err := svc.List(context.Background(), model.TaskFilter{Text: "report"})
	require.NoError(t, err)
	ids := make([]int, 0, len(got))
	for _, task := range got {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []int{1, 2}, ids)
}

func TestTaskService_CreateForcesOwnerForRegularUsers(t *testing.T) {
	bob := testutil.RegularUser()
	svc, tasks, _ := newTaskService(t, signedInAs(bob))

	tasks.EXPECT().Create(gomock.Any(), model.CreateTaskRequest{
		Title:   "Write docs",
		Status:  model.TaskStatusPending,
		OwnerID: bob.ID,
	}).Return(testutil.NewTask(10).WithTitle("Write docs").OwnedBy(bob.ID).Build(), nil)

	task, err := svc.Create(context.Background(), model.CreateTaskRequest{
		Title:   "  Write docs ",
		Status:  model.TaskStatusDone,
		OwnerID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, task.ID)
}

func TestTaskService_CreateAdminAssignsOwner(t *testing.T) {
	svc, tasks, _ := newTaskService(t, signedInAs(testutil.AdminUser()))
	tasks.EXPECT().Create(gomock.Any(), gomock.Cond(func(x any) bool {
		req, ok := x.(model.CreateTaskRequest)
		return ok && req.OwnerID == 2 && req.Status == model.TaskStatusPending
	})).Return(model.Task{ID: 11, OwnerID: 2}, nil)

	_, err := svc.Create(context.Background(), model.CreateTaskRequest{Title: "Review", OwnerID: 2})
	require.NoError(t, err)
}

func TestTaskService_CreateValidation(t *testing.T) {
	svc, _, _ := newTaskService(t, signedInAs(testutil.AdminUser()))
	_, err := svc.Create(context.Background(), model.CreateTaskRequest{Title: "ab"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestTaskService_UpdateDropsOwnerForRegularUsers(t *testing.T) {
	svc, tasks, _ := newTaskService(t, signedInAs(testutil.RegularUser()))
	title := "Renamed"
	owner := 1

	tasks.EXPECT().Update(gomock.Any(), 4, model.UpdateTaskRequest{Title: &title}).
		Return(model.Task{ID: 4, Title: title, OwnerID: 2}, nil)

	task, err := svc.Update(context.Background(), 4, model.UpdateTaskRequest{Title: &title, OwnerID: &owner})
	require.NoError(t, err)
	assert.Equal(t, 2, task.OwnerID)
}

func TestTaskService_UpdateOnlyOwnerByRegularUserIsEmpty(t *testing.T) {
	svc, _, _ := newTaskService(t, signedInAs(testutil.RegularUser()))
	owner := 1
	_, err := svc.Update(context.Background(), 4, model.UpdateTaskRequest{OwnerID: &owner})
	assert.True(t, apperrors.IsValidation(err))
}

func TestTaskService_SetStatus(t *testing.T) {
	svc, tasks, _ := newTaskService(t, signedInAs(testutil.AdminUser()))
	done := model.TaskStatusDone
	tasks.EXPECT().Update(gomock.Any(), 3, model.UpdateTaskRequest{Status: &done}).
		Return(model.Task{ID: 3, Status: done}, nil)

	task, err := svc.SetStatus(context.Background(), 3, done)
	require.NoError(t, err)
	assert.Equal(t, done, task.Status)

	_, err = svc.SetStatus(context.Background(), 3, "archived")
	assert.True(t, apperrors.IsValidation(err))
}

func TestTaskService_DeletePassesAppErrorsThrough(t *testing.T) {
	svc, tasks, _ := newTaskService(t, signedInAs(testutil.AdminUser()))
	notFound := apperrors.MapHTTPStatus(404, errors.New("gone"))
	tasks.EXPECT().Delete(gomock.Any(), 8).Return(notFound)

	err := svc.Delete(context.Background(), 8)
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsValidation(svc.Delete(context.Background(), 0)))
}
