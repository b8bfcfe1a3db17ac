package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"usermanager/internal/client"
	"usermanager/internal/client/store"
	"usermanager/internal/model"
)

const usage = `usage: userctl <command> [args]

commands:
  login                 authenticate and save the session token
  logout                revoke the saved token
  refresh               exchange the saved token for a fresh one
  signup                create an account
  me                    show the current user
  list                  list users
  show <id>             show one user
  edit <id> [-name N] [-email E] [-role USER|ADMIN]
  passwd <id>           change a password
  delete <id>           delete a user
`

var errUsage = errors.New("invalid usage")

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// App drives the API client and renders the store.
type App struct {
	api    *client.Client
	store  *store.Store
	tokens tokenFile
	in     *bufio.Reader
	out    io.Writer
}

func NewApp(api *client.Client, tokens tokenFile, in io.Reader, out io.Writer) *App {
	return &App{
		api:    api,
		store:  store.New(),
		tokens: tokens,
		in:     bufio.NewReader(in),
		out:    out,
	}
}

// Run executes one command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return errUsage
	}
	if token, err := a.tokens.Load(); err == nil {
		a.api.SetToken(token)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx)
	case "logout":
		return a.logout(ctx)
	case "refresh":
		return a.refresh(ctx)
	case "signup":
		return a.signup(ctx)
	case "me":
		return a.me(ctx)
	case "list":
		return a.list(ctx)
	case "show":
		return a.withID(rest, func(id uint, _ []string) error { return a.show(ctx, id) })
	case "edit":
		return a.withID(rest, func(id uint, flags []string) error { return a.edit(ctx, id, flags) })
	case "passwd":
		return a.withID(rest, func(id uint, _ []string) error { return a.passwd(ctx, id) })
	case "delete":
		return a.withID(rest, func(id uint, _ []string) error { return a.remove(ctx, id) })
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *App) withID(args []string, fn func(id uint, rest []string) error) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing user id", errUsage)
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("%w: invalid user id %q", errUsage, args[0])
	}
	return fn(uint(id), args[1:])
}

func (a *App) login(ctx context.Context) error {
	email, err := a.prompt("Email")
	if err != nil {
		return err
	}
	password, err := a.password("Password")
	if err != nil {
		return err
	}

	session, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := a.tokens.Save(session.Token); err != nil {
		return err
	}
	if session.User != nil {
		fmt.Fprintf(a.out, "logged in as %s (%s)\n", session.User.Email, session.User.Role)
	}
	return nil
}

func (a *App) logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		return err
	}
	if err := a.tokens.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *App) refresh(ctx context.Context) error {
	session, err := a.api.Refresh(ctx)
	if err != nil {
		return err
	}
	if err := a.tokens.Save(session.Token); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "session renewed")
	return nil
}

func (a *App) signup(ctx context.Context) error {
	name, err := a.prompt("Name")
	if err != nil {
		return err
	}
	email, err := a.prompt("Email")
	if err != nil {
		return err
	}
	password, err := a.password("Password")
	if err != nil {
		return err
	}

	u, err := a.api.CreateUser(ctx, client.CreateUser{Name: name, Email: email, Password: password})
	if err != nil {
		return err
	}
	a.store.Dispatch(store.Created{User: *u})
	fmt.Fprintf(a.out, "created user %d\n", u.ID)
	return nil
}

func (a *App) me(ctx context.Context) error {
	u, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	a.renderUser(*u)
	return nil
}

func (a *App) list(ctx context.Context) error {
	a.store.Dispatch(store.Loading{})
	users, err := a.api.ListUsers(ctx)
	if err != nil {
		a.store.Dispatch(store.Failed{Err: err})
		return err
	}
	a.render(a.store.Dispatch(store.Loaded{Users: users}))
	return nil
}

func (a *App) show(ctx context.Context, id uint) error {
	u, err := a.api.GetUser(ctx, id)
	if err != nil {
		return err
	}
	a.renderUser(*u)
	return nil
}

func (a *App) edit(ctx context.Context, id uint, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(a.out)
	name := fs.String("name", "", "new name")
	email := fs.String("email", "", "new email")
	role := fs.String("role", "", "new role (USER or ADMIN)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	var in client.UpdateUser
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			in.Name = name
		case "email":
			in.Email = email
		case "role":
			r := model.Role(strings.ToUpper(*role))
			in.Role = &r
		}
	})

	u, err := a.api.UpdateUser(ctx, id, in)
	if err != nil {
		a.store.Dispatch(store.Failed{Err: err})
		return err
	}
	a.store.Dispatch(store.Updated{User: *u})
	a.renderUser(*u)
	return nil
}

func (a *App) passwd(ctx context.Context, id uint) error {
	current, err := a.password("Current password")
	if err != nil {
		return err
	}
	next, err := a.password("New password")
	if err != nil {
		return err
	}
	if err := a.api.UpdatePassword(ctx, id, next, current); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "password changed")
	return nil
}

func (a *App) remove(ctx context.Context, id uint) error {
	if err := a.api.DeleteUser(ctx, id); err != nil {
		a.store.Dispatch(store.Failed{Err: err})
		return err
	}
	a.store.Dispatch(store.Removed{ID: id})
	fmt.Fprintf(a.out, "deleted user %d\n", id)
	return nil
}

func (a *App) prompt(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// password reads without echo when stdin is a terminal and falls back to a
// plain line otherwise, which keeps piped input working.
func (a *App) password(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return a.prompt(label)
	}
	fmt.Fprintf(a.out, "%s: ", label)
	pw, err := readPassword(fd)
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func (a *App) render(s store.State) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range s.Users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	_ = w.Flush()
	fmt.Fprintf(a.out, "%d user(s)\n", len(s.Users))
}

func (a *App) renderUser(u model.User) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%d\n", u.ID)
	fmt.Fprintf(w, "name\t%s\n", u.Name)
	fmt.Fprintf(w, "email\t%s\n", u.Email)
	fmt.Fprintf(w, "role\t%s\n", u.Role)
	_ = w.Flush()
}
