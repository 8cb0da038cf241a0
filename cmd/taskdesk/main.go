package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/target/taskdesk/config"
	"github.com/target/taskdesk/internal/bootstrap"
	apperrors "github.com/target/taskdesk/internal/errors"
	"github.com/target/taskdesk/internal/ports"
	"github.com/target/taskdesk/internal/service"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type commandFn func(cc *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

// commandContext carries what every command needs. The App is opened lazily
// so usage errors and the migrate command never touch the credential store.
type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	In     *bufio.Reader
	Out    io.Writer
	Err    io.Writer

	// newApp is overridden in tests.
	newApp  func(cc *commandContext) (*bootstrap.App, func() error, error)
	app     *bootstrap.App
	closeFn func() error
}

// usageError marks bad invocations; they exit with status 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code) //nolint:forbidigo // CLI must propagate its status to the shell
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		_ = printUsage(stderr)
		return exitUsage
	}

	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		_ = printUsage(stdout)
		return exitOK
	}
	cmd, ok := commands()[name]
	if !ok {
		_ = writef(stderr, "unknown command %q\n\n", name)
		_ = printUsage(stderr)
		return exitUsage
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		_ = writef(stderr, "error: %v\n", err)
		return exitFailure
	}
	logger := bootstrap.InitLogger(cfg.Log, stderr)

	cc := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		In:     bufio.NewReader(stdin),
		Out:    stdout,
		Err:    stderr,
		newApp: openApp,
	}
	defer cc.close()

	return exitCode(cc, name, cmd.run(cc, args[1:]))
}

func exitCode(cc *commandContext, name string, err error) int {
	var usage usageError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.As(err, &usage):
		_ = writef(cc.Err, "error: %s\n", usage.msg)
		return exitUsage
	case errors.Is(err, ports.ErrFormCancelled):
		_ = writeln(cc.Err, "cancelled")
		return exitFailure
	}

	cc.Logger.DebugContext(cc.Ctx, "command failed", "command", name, "error", err, "error_class", apperrors.Classify(err))
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		_ = writef(cc.Err, "error: %s\n", appErr.Message)
	} else {
		_ = writef(cc.Err, "error: %v\n", err)
	}
	return exitFailure
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Sign in and store the session",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Sign out and forget the stored session",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the signed-in user",
			run:         runWhoami,
		},
		"tasks": {
			name:        "tasks",
			description: "List, create, update, or delete tasks (list|create|update|status|delete)",
			run:         runTasks,
		},
		"users": {
			name:        "users",
			description: "Manage users, admins only (list|create|update|delete)",
			run:         runUsers,
		},
		"migrate": {
			name:        "migrate",
			description: "Create the credentials table for the postgres backend",
			run:         runMigrate,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: taskdesk <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-10s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

// openApp opens the configured credential store, wires the client and restores any saved session.
func openApp(cc *commandContext) (*bootstrap.App, func() error, error) {
	backend, err := bootstrap.OpenCredentialStore(cc.Ctx, cc.Config, cc.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open credential store: %w", err)
	}
	app, err := bootstrap.NewApp(bootstrap.AppOptions{
		API:       cc.Config.API,
		Store:     backend.Store,
		Navigator: loginHint{w: cc.Err},
		Logger:    cc.Logger,
	})
	if err != nil {
		return nil, nil, errors.Join(err, backend.Close())
	}
	return app, backend.Close, nil
}

func (cc *commandContext) App() (*bootstrap.App, error) {
	if cc.app != nil {
		return cc.app, nil
	}
	app, closeFn, err := cc.newApp(cc)
	if err != nil {
		return nil, err
	}
	app.Sessions.Restore(cc.Ctx)
	cc.app, cc.closeFn = app, closeFn
	return app, nil
}

// guarded opens the App and enforces req before a protected command runs.
func (cc *commandContext) guarded(req service.Requirement) (*bootstrap.App, error) {
	app, err := cc.App()
	if err != nil {
		return nil, err
	}
	if err := app.Guard.Enforce(cc.Ctx, req); err != nil {
		return nil, err
	}
	return app, nil
}

// settleTimeout bounds how long exit waits for a pending forced logout.
const settleTimeout = 5 * time.Second

func (cc *commandContext) close() {
	if cc.app != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(cc.Ctx), settleTimeout)
		if err := cc.app.Settle(ctx); err != nil {
			cc.Logger.Warn("pending logout did not finish before exit", "error", err)
		}
		cancel()
	}
	if cc.closeFn == nil {
		return
	}
	if err := cc.closeFn(); err != nil {
		cc.Logger.Warn("close credential store failed", "error", err)
	}
}

// loginHint is the CLI's navigator: it tells the user how to sign in again.
type loginHint struct{ w io.Writer }

func (h loginHint) ToLogin(context.Context) {
	_ = writeln(h.w, "Run `taskdesk login` to sign in.")
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}

// dispatch runs the named subcommand of a command group.
func dispatch(cc *commandContext, group string, subs map[string]commandFn, args []string) error {
	if len(args) == 0 {
		return usagef("%s: missing subcommand (%s)", group, subcommandNames(subs))
	}
	fn, ok := subs[args[0]]
	if !ok {
		return usagef("%s: unknown subcommand %q (%s)", group, args[0], subcommandNames(subs))
	}
	return fn(cc, args[1:])
}

func subcommandNames(subs map[string]commandFn) string {
	names := make([]string, 0, len(subs))
	for name := range subs {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}
