package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	domainauth "github.com/target/taskdesk/internal/domain/auth"
	"github.com/target/taskdesk/internal/domain/model"
	"github.com/target/taskdesk/internal/render"
	"github.com/target/taskdesk/internal/service"
)

func runUsers(cc *commandContext, args []string) error {
	return dispatch(cc, "users", map[string]commandFn{
		"list":   runUsersList,
		"create": runUsersCreate,
		"update": runUsersUpdate,
		"delete": runUsersDelete,
	}, args)
}

func runUsersList(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("users list", flag.ContinueOnError)
	fs.SetOutput(cc.Err)
	text := fs.String("text", "", "Case-insensitive name or email search")
	role := fs.String("role", "all", "Role filter: all, admin, user")
	page := fs.Int("page", 1, "Page number")
	pageSize := fs.Int("page-size", model.DefaultPageSize, "Users per page")
	out := addOutputFlags(fs)
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}

	criteria := model.UserFilter{Text: strings.TrimSpace(*text), Role: model.AnyRole}
	if r := strings.TrimSpace(*role); r != "" && r != string(model.AnyRole) {
		parsed, ok := model.ParseRole(r)
		if !ok {
			return usagef("invalid --role %q (valid options: all, admin, user)", r)
		}
		criteria.Role = parsed
	}
	r, err := cc.renderer(out)
	if err != nil {
		return err
	}

	app, err := cc.guarded(service.RequireRole(domainauth.RoleAdmin))
	if err != nil {
		return err
	}

	var users service.Collection[model.User]
	if _, err := users.Reload(cc.Ctx, func(ctx context.Context) ([]model.User, error) {
		return app.Users.List(ctx, model.UserFilter{})
	}); err != nil {
		return err
	}

	pager := service.NewPager(*pageSize)
	pager.SetCriteria(criteria.Text + "|" + string(criteria.Role))
	pager.SetPage(*page)
	view := users.View(service.UserPredicate(criteria), pager)

	return r.Render(newPagedResult(view), func() render.Table {
		t := userTable(view.Items)
		t.Footer = pageFooter(view)
		return t
	})
}

func runUsersCreate(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("users create", flag.ContinueOnError)
	fs.SetOutput(cc.Err)
	var req model.CreateUserRequest
	var role string
	fs.StringVar(&req.Name, "name", "", "Display name")
	fs.StringVar(&req.Email, "email", "", "Email address (opens a form when omitted)")
	fs.StringVar(&req.Password, "password", "", "Initial password")
	fs.StringVar(&role, "role", string(model.RoleUser), "Role: admin or user")
	out := addOutputFlags(fs)
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	req.Role = model.Role(strings.ToLower(strings.TrimSpace(role)))
	r, err := cc.renderer(out)
	if err != nil {
		return err
	}

	app, err := cc.guarded(service.RequireRole(domainauth.RoleAdmin))
	if err != nil {
		return err
	}

	var user model.User
	if req.Email == "" {
		user, err = app.Users.CreateWithForm(cc.Ctx, &linePrompter{in: cc.In, out: cc.Err})
	} else {
		user, err = app.Users.Create(cc.Ctx, req)
	}
	if err != nil {
		return err
	}
	return r.Render(user, func() render.Table { return userTable([]model.User{user}) })
}

func runUsersUpdate(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("users update", flag.ContinueOnError)
	fs.SetOutput(cc.Err)
	name := fs.String("name", "", "New display name")
	email := fs.String("email", "", "New email address")
	role := fs.String("role", "", "New role: admin or user")
	out := addOutputFlags(fs)
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	id, err := idArg(fs, "users update <id>")
	if err != nil {
		return err
	}

	var req model.UpdateUserRequest
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			req.Name = name
		case "email":
			req.Email = email
		case "role":
			r := model.Role(strings.ToLower(strings.TrimSpace(*role)))
			req.Role = &r
		}
	})
	r, err := cc.renderer(out)
	if err != nil {
		return err
	}

	app, err := cc.guarded(service.RequireRole(domainauth.RoleAdmin))
	if err != nil {
		return err
	}

	var user model.User
	if req.HasUpdates() {
		user, err = app.Users.Update(cc.Ctx, id, req)
	} else {
		user, err = app.Users.EditWithForm(cc.Ctx, &linePrompter{in: cc.In, out: cc.Err}, id)
	}
	if err != nil {
		return err
	}
	return r.Render(user, func() render.Table { return userTable([]model.User{user}) })
}

func runUsersDelete(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("users delete", flag.ContinueOnError)
	fs.SetOutput(cc.Err)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	id, err := idArg(fs, "users delete <id>")
	if err != nil {
		return err
	}

	app, err := cc.guarded(service.RequireRole(domainauth.RoleAdmin))
	if err != nil {
		return err
	}
	if err := cc.confirm(*yes, fmt.Sprintf("Delete user #%d and every task they own?", id)); err != nil {
		return err
	}

	remaining := -1
	res, err := app.Users.Delete(cc.Ctx, id, func(ctx context.Context) error {
		users, listErr := app.Users.List(ctx, model.UserFilter{})
		if listErr != nil {
			return listErr
		}
		remaining = len(users)
		return nil
	})
	if err != nil {
		return err
	}

	if res.ListFailed {
		_ = writeln(cc.Err, "warning: could not list the user's tasks; some may remain")
	}
	if len(res.FailedTaskIDs) > 0 {
		ids := make([]string, len(res.FailedTaskIDs))
		for i, tid := range res.FailedTaskIDs {
			ids[i] = "#" + strconv.Itoa(tid)
		}
		_ = writef(cc.Err, "warning: failed to delete tasks %s\n", strings.Join(ids, ", "))
	}
	if err := writef(cc.Out, "Deleted user #%d (%d of %d tasks removed).\n", id, res.TasksDeleted, res.TasksFound); err != nil {
		return err
	}
	if remaining >= 0 {
		return writef(cc.Out, "%d users remain.\n", remaining)
	}
	return nil
}
