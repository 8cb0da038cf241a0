package bootstrap

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/target/taskdesk/config"
	"github.com/target/taskdesk/internal/adapters/taskapi"
	"github.com/target/taskdesk/internal/ports"
	"github.com/target/taskdesk/internal/service"
)

// AppOptions groups everything needed to assemble an App.
type AppOptions struct {
	API       config.APIConfig
	Store     ports.CredentialStore // Required
	Navigator ports.Navigator       // Optional
	Logger    *slog.Logger          // Optional
	// Transport replaces http.DefaultTransport as the innermost round tripper (tests).
	Transport http.RoundTripper
}

// App is the wired client: one SessionManager shared by the API pipeline and every service.
type App struct {
	API      *taskapi.Client
	Sessions *service.SessionManager
	Guard    *service.AccessGuard
	Tasks    *service.TaskService
	Users    *service.UserService
}

// NewApp wires the API client and the services around a single SessionManager.
// The API client reads the token from the session and reports 401s back to it.
func NewApp(opts AppOptions) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// The pipeline and the session manager refer to each other; the closures
	// below only run once both exist.
	var sessions *service.SessionManager
	api, err := taskapi.NewClient(taskapi.Config{
		BaseURL:   opts.API.BaseURL,
		Timeout:   opts.API.Timeout,
		UserAgent: opts.API.UserAgent,
		Transport: opts.Transport,
		Token: func() (string, bool) {
			return sessions.Token()
		},
		OnUnauthorized: func(ctx context.Context, token string) {
			sessions.ExpireSession(ctx, token)
		},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	sessions = service.NewSessionManager(service.SessionManagerOptions{
		Store:         opts.Store,
		Authenticator: api.Auth(),
		Navigator:     opts.Navigator,
		Logger:        logger,
	})

	tasks, users := api.Tasks(), api.Users()
	return &App{
		API:      api,
		Sessions: sessions,
		Guard: service.NewAccessGuard(service.AccessGuardOptions{
			Sessions:  sessions,
			Navigator: opts.Navigator,
			Logger:    logger,
		}),
		Tasks: service.NewTaskService(service.TaskServiceOptions{
			Tasks: tasks, Users: users, Sessions: sessions, Logger: logger,
		}),
		Users: service.NewUserService(service.UserServiceOptions{
			Users: users, Tasks: tasks, Sessions: sessions, Logger: logger,
		}),
	}, nil
}

// Settle waits for forced logouts triggered by rejected requests to finish,
// so the credential store is not closed under them.
func (a *App) Settle(ctx context.Context) error {
	return a.API.Wait(ctx)
}
