package taskapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/taskdesk/internal/domain/auth"
	"github.com/target/taskdesk/internal/domain/model"
	apperrors "github.com/target/taskdesk/internal/errors"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	ReqID  string
	Body   map[string]any
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		ReqID:  r.Header.Get(RequestIDHeader),
	}
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &rec.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()
	f.handler(w, r)
}

func (f *fakeAPI) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type clientOpts struct {
	token          string
	onUnauthorized RejectionHandler
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts clientOpts) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{handler: handler}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL: srv.URL + "/",
		Timeout: 5 * time.Second,
		Token: func() (string, bool) {
			return opts.token, opts.token != ""
		},
		OnUnauthorized: opts.onUnauthorized,
	})
	require.NoError(t, err)
	return c, api
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	c, err := NewClient(Config{BaseURL: "https://api.example.com/v1"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1", c.BaseURL())
}

func TestTaskClient_ListWithOwnerFilter(t *testing.T) {
	c, api := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "title": "Report A", "status": "pending", "userId": 7},
		})
	}, clientOpts{token: "tok"})

	owner := 7
	tasks, err := c.Tasks().List(context.Background(), model.TaskListOptions{UserID: &owner})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 7, tasks[0].OwnerID)
	assert.Equal(t, model.TaskStatusPending, tasks[0].Status)

	req := api.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/tasks", req.Path)
	assert.Equal(t, "userId=7", req.Query)
	assert.Equal(t, "Bearer tok", req.Auth)
	_, parseErr := uuid.Parse(req.ReqID)
	assert.NoError(t, parseErr, "request id should be a uuid")
}

func TestTaskClient_ListEmptyBody(t *testing.T) {
	c, api := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, nil)
	}, clientOpts{token: "tok"})

	tasks, err := c.Tasks().List(context.Background(), model.TaskListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
	assert.Empty(t, api.last(t).Query)
}

func TestTaskClient_CreateForcesPending(t *testing.T) {
	c, api := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"id": 9, "title": "Write", "status": "pending", "userId": 3})
	}, clientOpts{token: "tok"})

	task, err := c.Tasks().Create(context.Background(), model.CreateTaskRequest{
		Title:   "Write",
		Status:  model.TaskStatusDone,
		OwnerID: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 9, task.ID)

	req := api.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/tasks", req.Path)
	assert.Equal(t, "pending", req.Body["status"])
	assert.EqualValues(t, 3, req.Body["userId"])
	assert.NotContains(t, req.Body, "description")
}

func TestTaskClient_UpdateSendsOnlySetFields(t *testing.T) {
	c, api := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 4, "title": "T", "status": "done", "userId": 1})
	}, clientOpts{token: "tok"})

	status := model.TaskStatusDone
	_, err := c.Tasks().Update(context.Background(), 4, model.UpdateTaskRequest{Status: &status})
	require.NoError(t, err)

	req := api.last(t)
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/tasks/4", req.Path)
	assert.Equal(t, map[string]any{"status": "done"}, req.Body)
}

func TestTaskClient_DeleteNoContent(t *testing.T) {
	c, api := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, clientOpts{token: "tok"})

	require.NoError(t, c.Tasks().Delete(context.Background(), 12))
	req := api.last(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/tasks/12", req.Path)
}

func TestUserClient_Endpoints(t *testing.T) {
	c, api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/users":
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "email": "a@example.com", "role": "admin"}})
		case r.Method == http.MethodGet && r.URL.Path == "/users/2":
			writeJSON(w, http.StatusOK, map[string]any{"id": 2, "email": "b@example.com", "role": "user"})
		case r.Method == http.MethodPatch && r.URL.Path == "/users/2":
			writeJSON(w, http.StatusOK, map[string]any{"id": 2, "email": "b@example.com", "name": "Bee", "role": "user"})
		case r.Method == http.MethodDelete && r.URL.Path == "/users/2":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPost && r.URL.Path == "/register":
			writeJSON(w, http.StatusCreated, map[string]any{
				"accessToken": "new-user-token",
				"user":        map[string]any{"id": 5, "email": "c@example.com", "role": "user"},
			})
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}, clientOpts{token: "tok"})
	ctx := context.Background()

	users, err := c.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, model.RoleAdmin, users[0].Role)

	u, err := c.Users().Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", u.Email)

	name := "Bee"
	u, err = c.Users().Update(ctx, 2, model.UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Bee", u.Name)
	assert.Equal(t, map[string]any{"name": "Bee"}, api.last(t).Body)

	res, err := c.Users().Create(ctx, model.CreateUserRequest{
		Name: "Cee", Email: "c@example.com", Password: "secret1", Role: model.RoleUser,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.User.ID)
	reg := api.last(t)
	assert.Equal(t, "/register", reg.Path)
	assert.Equal(t, "Bearer tok", reg.Auth, "register keeps the acting admin's token")
	assert.Equal(t, "user", reg.Body["role"])

	require.NoError(t, c.Users().Delete(ctx, 2))
}

func TestAuthClient_Login(t *testing.T) {
	c, api := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"accessToken": "fresh",
			"user":        map[string]any{"id": 1, "email": "admin@example.com", "role": "admin"},
		})
	}, clientOpts{token: "stale"})

	res, err := c.Auth().Login(context.Background(), domainauth.Credentials{Email: "admin@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "fresh", res.AccessToken)
	assert.Equal(t, model.RoleAdmin, res.User.Role)

	req := api.last(t)
	assert.Equal(t, "/login", req.Path)
	assert.Empty(t, req.Auth, "login must not carry a bearer token")
	assert.Equal(t, "admin@example.com", req.Body["email"])
}

func TestAuthClient_LoginRejected(t *testing.T) {
	var hookCalls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials"})
	}, clientOpts{onUnauthorized: func(context.Context, string) { hookCalls.Add(1) }})

	_, err := c.Auth().Login(context.Background(), domainauth.Credentials{Email: "a@example.com", Password: "bad"})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthenticationFailed(err))
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, hookCalls.Load(), "login rejection must not force a logout")
}

func TestAuthClient_LoginMissingToken(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": 1}})
	}, clientOpts{})

	_, err := c.Auth().Login(context.Background(), domainauth.Credentials{Email: "a@example.com", Password: "pw"})
	assert.True(t, apperrors.IsAuthenticationFailed(err))
}

func TestClient_SignedOutSendsNoAuthorization(t *testing.T) {
	c, api := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	}, clientOpts{})

	_, err := c.Users().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, api.last(t).Auth)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		check   func(error) bool
		message string
	}{
		{"not found", http.StatusNotFound, map[string]any{"message": "Task not found"}, apperrors.IsNotFound, "Task not found"},
		{"validation list", http.StatusBadRequest, map[string]any{"message": []string{"title too short", "bad status"}}, apperrors.IsValidation, "title too short; bad status"},
		{"forbidden", http.StatusForbidden, map[string]any{"error": "Forbidden"}, apperrors.IsForbidden, "Forbidden"},
		{"server", http.StatusInternalServerError, "boom", apperrors.IsTransientIO, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				if s, ok := tt.body.(string); ok {
					w.WriteHeader(tt.status)
					_, _ = io.WriteString(w, s)
					return
				}
				writeJSON(w, tt.status, tt.body)
			}, clientOpts{token: "tok"})

			err := c.Tasks().Delete(context.Background(), 1)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected classification for %v", err)
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: base})
	require.NoError(t, err)

	_, err = c.Users().List(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsTransientIO(err))
	assert.Zero(t, StatusCode(err))
}

func TestClient_UnauthorizedTriggersHook(t *testing.T) {
	var calls atomic.Int32
	var rejected atomic.Value
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "jwt expired"})
	}, clientOpts{token: "tok", onUnauthorized: func(_ context.Context, token string) {
		rejected.Store(token)
		calls.Add(1)
	}})

	_, err := c.Tasks().List(context.Background(), model.TaskListOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorizationExpired(err))

	require.NoError(t, c.Wait(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "tok", rejected.Load())
}

func TestClient_WaitBlocksUntilRejectionHandled(t *testing.T) {
	release := make(chan struct{})
	var handled atomic.Bool
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, nil)
	}, clientOpts{token: "tok", onUnauthorized: func(context.Context, string) {
		<-release
		handled.Store(true)
	}})

	_, err := c.Tasks().List(context.Background(), model.TaskListOptions{})
	require.Error(t, err)

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(short), context.DeadlineExceeded)
	assert.False(t, handled.Load())

	close(release)
	require.NoError(t, c.Wait(context.Background()))
	assert.True(t, handled.Load())
}

func TestClient_ConcurrentUnauthorizedLogsOutOnce(t *testing.T) {
	var signedIn atomic.Bool
	signedIn.Store(true)
	var hookCalls, logouts atomic.Int32

	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		writeJSON(w, http.StatusUnauthorized, nil)
	}, clientOpts{token: "tok", onUnauthorized: func(context.Context, string) {
		hookCalls.Add(1)
		// Mirrors SessionManager.ExpireSession: only the first call finds a session to clear.
		if signedIn.CompareAndSwap(true, false) {
			logouts.Add(1)
		}
	}})

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Tasks().List(context.Background(), model.TaskListOptions{})
			assert.True(t, apperrors.IsAuthorizationExpired(err))
		}()
	}
	close(release)
	wg.Wait()

	require.Eventually(t, func() bool { return hookCalls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), logouts.Load())
}
