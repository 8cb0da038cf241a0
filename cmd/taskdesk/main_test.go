package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/taskdesk/internal/domain/model"
	"github.com/target/taskdesk/internal/ports"
	"github.com/target/taskdesk/internal/testutil"
)

// fakeAPI serves an admin login plus the task and user collections.
type fakeAPI struct {
	mu      sync.Mutex
	deleted []string
	// revoked makes every authenticated endpoint answer 401.
	revoked atomic.Bool
}

func (f *fakeAPI) record(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, path)
}

func (f *fakeAPI) deletedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{}
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if f.revoked.Load() || r.Header.Get("Authorization") != "Bearer admin-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accessToken": "admin-token",
			"user":        testutil.AdminUser(),
		})
	})
	mux.HandleFunc("GET /tasks", authed(func(w http.ResponseWriter, r *http.Request) {
		tasks := testutil.ReportTasks()
		if owner := r.URL.Query().Get("userId"); owner == "2" {
			tasks = []model.Task{tasks[1]}
		}
		_ = json.NewEncoder(w).Encode(tasks)
	}))
	mux.HandleFunc("GET /users", authed(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]model.User{testutil.AdminUser(), testutil.RegularUser()})
	}))
	mux.HandleFunc("DELETE /tasks/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		f.record(r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("DELETE /users/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		f.record(r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

// cliEnv points the CLI at srv with a file credential store private to the test
// and returns the credential file path.
func cliEnv(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	t.Setenv("TASKDESK_API_BASE_URL", srv.URL)
	t.Setenv("TASKDESK_CREDENTIALS_BACKEND", "file")
	t.Setenv("TASKDESK_CREDENTIALS_FILE", path)
	t.Setenv("LOG_LEVEL", "error")
	return path
}

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func TestRun_Usage(t *testing.T) {
	res := runCLI(t, "")
	assert.Equal(t, exitUsage, res.code)
	assert.Contains(t, res.stderr, "Usage: taskdesk")

	res = runCLI(t, "", "help")
	assert.Equal(t, exitOK, res.code)
	for _, name := range []string{"login", "logout", "whoami", "tasks", "users", "migrate"} {
		assert.Contains(t, res.stdout, name)
	}

	res = runCLI(t, "", "frobnicate")
	assert.Equal(t, exitUsage, res.code)
	assert.Contains(t, res.stderr, `unknown command "frobnicate"`)
}

func TestRun_SubcommandUsageErrors(t *testing.T) {
	_, srv := newFakeAPI(t)
	cliEnv(t, srv)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing subcommand", []string{"tasks"}, "missing subcommand"},
		{"unknown subcommand", []string{"users", "purge"}, `unknown subcommand "purge"`},
		{"bad status filter", []string{"tasks", "list", "--status", "blocked"}, "invalid --status"},
		{"bad output", []string{"tasks", "list", "--output", "yaml"}, "yaml"},
		{"bad query", []string{"whoami", "--query", "[["}, "error:"},
		{"missing id", []string{"tasks", "delete"}, "usage: taskdesk tasks delete <id>"},
		{"bad id", []string{"users", "delete", "abc"}, `invalid id "abc"`},
		{"bad task status", []string{"tasks", "status", "1", "blocked"}, "invalid status"},
		{"unknown flag", []string{"login", "--nope"}, "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, "", tt.args...)
			assert.Equal(t, exitUsage, res.code, res.stderr)
			assert.Contains(t, res.stderr, tt.want)
		})
	}
}

func TestRun_ProtectedCommandWithoutSession(t *testing.T) {
	_, srv := newFakeAPI(t)
	cliEnv(t, srv)

	res := runCLI(t, "", "tasks", "list")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "You are not signed in.")
	assert.Contains(t, res.stderr, "taskdesk login")
}

func TestRun_LoginListAndLogout(t *testing.T) {
	_, srv := newFakeAPI(t)
	cliEnv(t, srv)

	res := runCLI(t, "", "login", "--email", "admin@example.com", "--password", "secret1")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, "Signed in as Ann Admin (admin).\n", res.stdout)

	res = runCLI(t, "", "whoami", "--output", "json", "--query", "email")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.JSONEq(t, `"admin@example.com"`, res.stdout)

	res = runCLI(t, "", "tasks", "list", "--text", "report", "--output", "json", "--query", "items[].title")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.JSONEq(t, `["Report A", "Report B"]`, res.stdout)

	res = runCLI(t, "", "tasks", "list", "--page-size", "2")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Ann Admin")
	assert.Contains(t, res.stdout, "Showing 1-2 of 3 (page 1/2)")

	res = runCLI(t, "", "logout")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Signed out.")

	res = runCLI(t, "", "tasks", "list")
	assert.Equal(t, exitFailure, res.code)
}

func TestRun_RejectedTokenIsClearedBeforeExit(t *testing.T) {
	api, srv := newFakeAPI(t)
	credFile := cliEnv(t, srv)
	require.Equal(t, exitOK, runCLI(t, "", "login", "--email", "admin@example.com", "--password", "secret1").code)
	_, err := os.Stat(credFile)
	require.NoError(t, err)

	api.revoked.Store(true)
	res := runCLI(t, "", "tasks", "list")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "taskdesk login")

	_, err = os.Stat(credFile)
	assert.True(t, os.IsNotExist(err), "expected the rejected session to be cleared, got %v", err)

	api.revoked.Store(false)
	res = runCLI(t, "", "whoami")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "You are not signed in.")
}

func TestRun_LoginOverCorruptCredentialFile(t *testing.T) {
	_, srv := newFakeAPI(t)
	credFile := cliEnv(t, srv)
	require.NoError(t, os.WriteFile(credFile, []byte("{not json"), 0o600))

	res := runCLI(t, "", "login", "--email", "admin@example.com", "--password", "secret1")
	require.Equal(t, exitOK, res.code, res.stderr)

	res = runCLI(t, "", "whoami", "--output", "json", "--query", "email")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.JSONEq(t, `"admin@example.com"`, res.stdout)

	require.NoError(t, os.WriteFile(credFile, []byte("{not json"), 0o600))
	require.Equal(t, exitOK, runCLI(t, "", "logout").code)
	_, err := os.Stat(credFile)
	assert.True(t, os.IsNotExist(err), "expected logout to remove the corrupt file, got %v", err)
}

func TestRun_LoginPromptsForMissingPassword(t *testing.T) {
	_, srv := newFakeAPI(t)
	cliEnv(t, srv)

	res := runCLI(t, "secret1\n", "login", "--email", "admin@example.com")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stderr, "Password")
	assert.Contains(t, res.stdout, "Signed in as Ann Admin")
}

func TestRun_UsersDeleteCascades(t *testing.T) {
	api, srv := newFakeAPI(t)
	cliEnv(t, srv)
	require.Equal(t, exitOK, runCLI(t, "", "login", "--email", "admin@example.com", "--password", "secret1").code)

	res := runCLI(t, "", "users", "delete", "2", "--yes")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Deleted user #2 (1 of 1 tasks removed).")
	assert.Contains(t, res.stdout, "2 users remain.")

	paths := api.deletedPaths()
	require.Len(t, paths, 2)
	assert.Equal(t, "/tasks/2", paths[0])
	assert.Equal(t, "/users/2", paths[1])
}

func TestRun_UsersDeleteSelfIsRefused(t *testing.T) {
	api, srv := newFakeAPI(t)
	cliEnv(t, srv)
	require.Equal(t, exitOK, runCLI(t, "", "login", "--email", "admin@example.com", "--password", "secret1").code)

	res := runCLI(t, "", "users", "delete", "1", "--yes")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "You cannot delete your own account.")
	assert.Empty(t, api.deletedPaths())
}

func TestRun_DeleteDeclined(t *testing.T) {
	api, srv := newFakeAPI(t)
	cliEnv(t, srv)
	require.Equal(t, exitOK, runCLI(t, "", "login", "--email", "admin@example.com", "--password", "secret1").code)

	res := runCLI(t, "n\n", "tasks", "delete", "3")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "cancelled")
	assert.Empty(t, api.deletedPaths())
}

func newPrompter(input string) (*linePrompter, *bytes.Buffer) {
	var out bytes.Buffer
	return &linePrompter{in: bufio.NewReader(strings.NewReader(input)), out: &out}, &out
}

func TestLinePrompter_Open(t *testing.T) {
	spec := ports.FormSpec{
		Title: "Edit task",
		Fields: []ports.FormField{
			{Name: "title", Label: "Title", Kind: ports.FieldText, Default: "Old", Required: true},
			{Name: "status", Label: "Status", Kind: ports.FieldSelect, Default: "pending", Options: []ports.FormOption{
				{Value: "pending", Label: "Pending"},
				{Value: "done", Label: "Done"},
			}},
			{Name: "owner", Label: "Owner", Kind: ports.FieldSelect, Default: "7", Disabled: true, Options: []ports.FormOption{
				{Value: "7", Label: "Bob"},
			}},
		},
	}

	p, out := newPrompter("\n2\n")
	res, err := p.Open(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, ports.FormResult{"title": "Old", "status": "done", "owner": "7"}, res)
	assert.Contains(t, out.String(), "Owner: Bob (fixed)")
	assert.Contains(t, out.String(), "Title [Old]: ")
}

func TestLinePrompter_RepromptsUntilValid(t *testing.T) {
	spec := ports.FormSpec{Fields: []ports.FormField{
		{Name: "name", Label: "Name", Kind: ports.FieldText, Required: true},
		{Name: "role", Label: "Role", Kind: ports.FieldSelect, Options: []ports.FormOption{
			{Value: "admin", Label: "Admin"},
			{Value: "user", Label: "User"},
		}},
	}}

	p, out := newPrompter("\nAda\nroot\nADMIN\n")
	res, err := p.Open(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, "Ada", res["name"])
	assert.Equal(t, "admin", res["role"])
	assert.Contains(t, out.String(), "Name is required")
	assert.Contains(t, out.String(), "choose one of the listed options")
}

func TestLinePrompter_EOFCancels(t *testing.T) {
	p, _ := newPrompter("")
	_, err := p.Open(context.Background(), ports.FormSpec{Fields: []ports.FormField{
		{Name: "title", Label: "Title", Kind: ports.FieldText},
	}})
	assert.ErrorIs(t, err, ports.ErrFormCancelled)
}

func TestLinePrompter_LastLineWithoutNewline(t *testing.T) {
	p, _ := newPrompter("secret")
	res, err := p.Open(context.Background(), ports.FormSpec{Fields: []ports.FormField{
		{Name: "password", Label: "Password", Kind: ports.FieldPassword, Required: true},
	}})
	require.NoError(t, err)
	assert.Equal(t, "secret", res["password"])
}

func TestResolveOption_PrefersValueOverIndex(t *testing.T) {
	f := ports.FormField{Options: []ports.FormOption{
		{Value: "2", Label: "Bob"},
		{Value: "1", Label: "Ann"},
	}}
	v, ok := resolveOption(f, "1")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	v, ok = resolveOption(f, "bob")
	require.True(t, ok)
	assert.Equal(t, "2", v)

	_, ok = resolveOption(f, "3")
	assert.False(t, ok)
}
