package main

import (
	"errors"
	"flag"

	"github.com/target/taskdesk/internal/domain/model"
	"github.com/target/taskdesk/internal/ports"
	"github.com/target/taskdesk/internal/render"
	"github.com/target/taskdesk/internal/service"
)

type loginOptions struct {
	Email    string
	Password string
}

func parseLoginFlags(cc *commandContext, args []string) (loginOptions, error) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(cc.Err)

	var opts loginOptions
	fs.StringVar(&opts.Email, "email", "", "Account email")
	fs.StringVar(&opts.Password, "password", "", "Account password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return loginOptions{}, flagError(err)
	}
	return opts, nil
}

func runLogin(cc *commandContext, args []string) error {
	opts, err := parseLoginFlags(cc, args)
	if err != nil {
		return err
	}

	var missing []ports.FormField
	if opts.Email == "" {
		missing = append(missing, ports.FormField{Name: "email", Label: "Email", Kind: ports.FieldText, Required: true})
	}
	if opts.Password == "" {
		missing = append(missing, ports.FormField{Name: "password", Label: "Password", Kind: ports.FieldPassword, Required: true})
	}
	if len(missing) > 0 {
		forms := &linePrompter{in: cc.In, out: cc.Err}
		res, formErr := forms.Open(cc.Ctx, ports.FormSpec{Title: "Sign in", Fields: missing})
		if formErr != nil {
			return formErr
		}
		if v, ok := res["email"]; ok {
			opts.Email = v
		}
		if v, ok := res["password"]; ok {
			opts.Password = v
		}
	}

	app, err := cc.App()
	if err != nil {
		return err
	}
	sess, err := app.Sessions.Login(cc.Ctx, opts.Email, opts.Password)
	if err != nil {
		return err
	}
	return writef(cc.Out, "Signed in as %s (%s).\n", sess.User.Label(), sess.User.Role)
}

func runLogout(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	fs.SetOutput(cc.Err)
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}

	app, err := cc.App()
	if err != nil {
		return err
	}
	app.Sessions.Logout(cc.Ctx)
	return writeln(cc.Out, "Signed out.")
}

func runWhoami(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	fs.SetOutput(cc.Err)
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
	user, _ := app.Sessions.CurrentUser()
	return r.Render(user, func() render.Table { return userTable([]model.User{user}) })
}

// flagError turns flag parse failures into usage errors, leaving -h alone.
func flagError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return usageError{msg: err.Error()}
}
