package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/target/taskdesk/internal/domain/model"
	"github.com/target/taskdesk/internal/ports"
	"github.com/target/taskdesk/internal/render"
	"github.com/target/taskdesk/internal/service"
)

func runTasks(cc *commandContext, args []string) error {
	return dispatch(cc, "tasks", map[string]commandFn{
		"list":   runTasksList,
		"create": runTasksCreate,
		"update": runTasksUpdate,
		"status": runTasksStatus,
		"delete": runTasksDelete,
	}, args)
}

type taskListOptions struct {
	Text     string
	Status   string
	Owner    int
	Page     int
	PageSize int
}

func (o taskListOptions) criteria() (model.TaskFilter, error) {
	c := model.TaskFilter{Text: strings.TrimSpace(o.Text), Status: model.AnyStatus}
	if s := strings.TrimSpace(o.Status); s != "" && s != string(model.AnyStatus) {
		status, ok := model.ParseTaskStatus(s)
		if !ok {
			return c, usagef("invalid --status %q (valid options: all, pending, in_progress, done)", s)
		}
		c.Status = status
	}
	if o.Owner > 0 {
		owner := o.Owner
		c.OwnerID = &owner
	}
	return c, nil
}

func (o taskListOptions) criteriaKey() string {
	return fmt.Sprintf("%s|%s|%d", o.Text, o.Status, o.Owner)
}

func runTasksList(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("tasks list", flag.ContinueOnError)
	fs.SetOutput(cc.Err)
	var opts taskListOptions
	fs.StringVar(&opts.Text, "text", "", "Case-insensitive title search")
	fs.StringVar(&opts.Status, "status", "all", "Status filter: all, pending, in_progress, done")
	fs.IntVar(&opts.Owner, "owner", 0, "Owner user id (admins only)")
	fs.IntVar(&opts.Page, "page", 1, "Page number")
	fs.IntVar(&opts.PageSize, "page-size", model.DefaultPageSize, "Tasks per page")
	out := addOutputFlags(fs)
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	criteria, err := opts.criteria()
	if err != nil {
		return err
	}
	r, err := cc.renderer(out)
	if err != nil {
		return err
	}

	app, err := cc.guarded(service.RequireSession())
	if err != nil {
		return err
	}

	var board service.TaskBoard
	var tasks service.Collection[model.Task]
	if _, err := tasks.Reload(cc.Ctx, func(ctx context.Context) ([]model.Task, error) {
		var loadErr error
		board, loadErr = app.Tasks.Board(ctx)
		return board.Tasks, loadErr
	}); err != nil {
		return err
	}

	pager := service.NewPager(opts.PageSize)
	pager.SetCriteria(opts.criteriaKey())
	pager.SetPage(opts.Page)
	page := tasks.View(service.TaskPredicate(criteria, board.IsAdmin), pager)

	return r.Render(newPagedResult(page), func() render.Table {
		t := render.Table{Header: []string{"ID", "TITLE", "STATUS", "OWNER"}, Footer: pageFooter(page)}
		for _, task := range page.Items {
			t.Rows = append(t.Rows, []string{
				strconv.Itoa(task.ID), task.Title, string(task.Status), board.OwnerLabel(task.OwnerID),
			})
		}
		return t
	})
}

func taskTable(tasks ...model.Task) render.Table {
	t := render.Table{Header: []string{"ID", "TITLE", "STATUS", "OWNER ID"}}
	for _, task := range tasks {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(task.ID), task.Title, string(task.Status), strconv.Itoa(task.OwnerID),
		})
	}
	return t
}

func runTasksCreate(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("tasks create", flag.ContinueOnError)
	fs.SetOutput(cc.Err)
	var req model.CreateTaskRequest
	fs.StringVar(&req.Title, "title", "", "Task title (opens a form when omitted)")
	fs.StringVar(&req.Description, "description", "", "Task description")
	fs.IntVar(&req.OwnerID, "owner", 0, "Owner user id (admins only; defaults to yourself)")
	out := addOutputFlags(fs)
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	r, err := cc.renderer(out)
	if err != nil {
		return err
	}

	app, err := cc.guarded(service.RequireSession())
	if err != nil {
		return err
	}

	var task model.Task
	if req.Title == "" {
		task, err = app.Tasks.CreateWithForm(cc.Ctx, &linePrompter{in: cc.In, out: cc.Err})
	} else {
		task, err = app.Tasks.Create(cc.Ctx, req)
	}
	if err != nil {
		return err
	}
	return r.Render(task, func() render.Table { return taskTable(task) })
}

func runTasksUpdate(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("tasks update", flag.ContinueOnError)
	fs.SetOutput(cc.Err)
	title := fs.String("title", "", "New title")
	description := fs.String("description", "", "New description")
	status := fs.String("status", "", "New status: pending, in_progress, done")
	owner := fs.Int("owner", 0, "New owner user id (admins only)")
	out := addOutputFlags(fs)
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	id, err := idArg(fs, "tasks update <id>")
	if err != nil {
		return err
	}

	var req model.UpdateTaskRequest
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			req.Title = title
		case "description":
			req.Description = description
		case "status":
			// Unknown values are left for Validate to reject.
			s := model.TaskStatus(strings.TrimSpace(*status))
			if parsed, ok := model.ParseTaskStatus(*status); ok {
				s = parsed
			}
			req.Status = &s
		case "owner":
			req.OwnerID = owner
		}
	})
	r, err := cc.renderer(out)
	if err != nil {
		return err
	}

	app, err := cc.guarded(service.RequireSession())
	if err != nil {
		return err
	}

	var task model.Task
	if req.HasUpdates() {
		task, err = app.Tasks.Update(cc.Ctx, id, req)
	} else {
		task, err = app.Tasks.EditWithForm(cc.Ctx, &linePrompter{in: cc.In, out: cc.Err}, id)
	}
	if err != nil {
		return err
	}
	return r.Render(task, func() render.Table { return taskTable(task) })
}

func runTasksStatus(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("tasks status", flag.ContinueOnError)
	fs.SetOutput(cc.Err)
	out := addOutputFlags(fs)
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	if fs.NArg() != 2 {
		return usagef("usage: taskdesk tasks status <id> <pending|in_progress|done>")
	}
	id, err := strconv.Atoi(fs.Arg(0))
	if err != nil || id < 1 {
		return usagef("invalid task id %q", fs.Arg(0))
	}
	status, ok := model.ParseTaskStatus(fs.Arg(1))
	if !ok {
		return usagef("invalid status %q (valid options: pending, in_progress, done)", fs.Arg(1))
	}
	r, err := cc.renderer(out)
	if err != nil {
		return err
	}

	app, err := cc.guarded(service.RequireSession())
	if err != nil {
		return err
	}
	task, err := app.Tasks.SetStatus(cc.Ctx, id, status)
	if err != nil {
		return err
	}
	return r.Render(task, func() render.Table { return taskTable(task) })
}

func runTasksDelete(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("tasks delete", flag.ContinueOnError)
	fs.SetOutput(cc.Err)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	id, err := idArg(fs, "tasks delete <id>")
	if err != nil {
		return err
	}

	app, err := cc.guarded(service.RequireSession())
	if err != nil {
		return err
	}
	if err := cc.confirm(*yes, fmt.Sprintf("Delete task #%d?", id)); err != nil {
		return err
	}
	if err := app.Tasks.Delete(cc.Ctx, id); err != nil {
		return err
	}
	return writef(cc.Out, "Deleted task #%d.\n", id)
}

func idArg(fs *flag.FlagSet, usage string) (int, error) {
	if fs.NArg() != 1 {
		return 0, usagef("usage: taskdesk %s", usage)
	}
	id, err := strconv.Atoi(fs.Arg(0))
	if err != nil || id < 1 {
		return 0, usagef("invalid id %q", fs.Arg(0))
	}
	return id, nil
}

// confirm asks a yes/no question on stderr unless yes is already set.
func (cc *commandContext) confirm(yes bool, question string) error {
	if yes {
		return nil
	}
	if err := writef(cc.Err, "%s [y/N]: ", question); err != nil {
		return err
	}
	line, _ := cc.In.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return ports.ErrFormCancelled
	}
}
