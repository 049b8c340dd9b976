package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/trezcool/preceptor/apps/client/views"
	"github.com/trezcool/preceptor/core/notification"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errQuit        = errors.New("bye")
	errNotLoggedIn = errors.New("please login first")
	errNoInbox     = errors.New("open your notifications first")
)

type commandLine struct {
	deps views.Deps
	out  io.Writer

	profile *views.ProfileView
	inbox   *views.NotificationsView
}

func newCommandLine(deps views.Deps, out io.Writer) *commandLine {
	return &commandLine{deps: deps, out: out}
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) printUsage() {
	cli.printf("Commands:\n")
	cli.printf("  login EMAIL                      - login, the password is prompted next\n")
	cli.printf("  signup USERNAME EMAIL ROLE       - create an account (role: student|preceptor|facilitator)\n")
	cli.printf("  search TERM                      - search preceptors by name or email\n")
	cli.printf("  request N                        - request the N-th preceptor of the last search for today\n")
	cli.printf("  tab today|schedule|all|unread    - switch tab on the current screen\n")
	cli.printf("  notifications                    - open your notifications\n")
	cli.printf("  filter [TYPE]                    - show one notification type (success|error|warning|info|request)\n")
	cli.printf("  list                             - show the current screen\n")
	cli.printf("  read ID | readall | clear        - manage notifications\n")
	cli.printf("  confirm ID | reject ID           - answer a preceptor request\n")
	cli.printf("  back | logout | quit\n")
}

// loop runs one command per input line until quit or EOF.
func (cli *commandLine) loop(ctx context.Context, in io.Reader) error {
	defer cli.closeViews()

	scanner := bufio.NewScanner(in)
	cli.printf("> ")
	for scanner.Scan() {
		args := strings.Fields(scanner.Text())
		if len(args) > 0 {
			err := cli.run(ctx, args)
			switch {
			case errors.Is(err, errQuit):
				return nil
			case err != nil && !errors.Is(err, errHelp):
				cli.printf("error: %v\n", err)
			}
		}
		cli.printf("> ")
	}
	return scanner.Err()
}

// run executes one command; args[0] is the command name.
func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}

	switch cmd, params := args[0], args[1:]; cmd {
	case "login":
		if len(params) != 1 {
			cli.printUsage()
			return errHelp
		}
		return cli.login(ctx, params[0])

	case "signup":
		if len(params) != 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.signup(ctx, params[0], params[1], params[2])

	case "search":
		if len(params) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.search(ctx, strings.Join(params, " "))

	case "request":
		if len(params) != 1 {
			cli.printUsage()
			return errHelp
		}
		return cli.request(ctx, params[0])

	case "tab":
		if len(params) != 1 {
			cli.printUsage()
			return errHelp
		}
		return cli.tab(params[0])

	case "notifications":
		return cli.openInbox(ctx)

	case "filter":
		inbox, err := cli.currentInbox()
		if err != nil {
			return err
		}
		var typ notification.Type
		if len(params) > 0 && params[0] != "all" {
			typ = notification.Type(params[0])
		}
		inbox.SetTypeFilter(typ)
		cli.printInbox()
		return nil

	case "list":
		cli.printScreen()
		return nil

	case "read", "confirm", "reject":
		if len(params) != 1 {
			cli.printUsage()
			return errHelp
		}
		return cli.answer(ctx, cmd, params[0])

	case "readall", "clear":
		inbox, err := cli.currentInbox()
		if err != nil {
			return err
		}
		if cmd == "readall" {
			inbox.MarkAllAsRead()
		} else {
			inbox.ClearAll()
		}
		cli.printInbox()
		return nil

	case "back":
		if cli.inbox != nil {
			cli.inbox.Back()
			cli.inbox = nil
		} else if !cli.deps.Router.Back() {
			return nil
		}
		cli.printScreen()
		return nil

	case "logout":
		if cli.profile == nil {
			return errNotLoggedIn
		}
		cli.closeInbox()
		err := cli.profile.Logout(ctx)
		cli.profile = nil
		cli.printf("Logged out.\n")
		return err

	case "quit", "exit":
		return errQuit

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	cli.printf("%s", prompt)
	pwd, err := readPasswordFunc(syscall.Stdin)
	cli.printf("\n")
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) login(ctx context.Context, email string) error {
	pwd, err := cli.readPassword("Enter password:")
	if err != nil {
		return err
	}

	v := views.NewLoginView(cli.deps)
	defer v.Close()
	v.SetEmail(email)
	v.SetPassword(pwd)
	err = v.Submit(ctx)
	cli.printAlerts()
	if err != nil {
		return err
	}
	return cli.openProfile(ctx)
}

func (cli *commandLine) signup(ctx context.Context, username, email, role string) error {
	pwd, err := cli.readPassword("Enter password:")
	if err != nil {
		return err
	}
	confirm, err := cli.readPassword("Confirm password:")
	if err != nil {
		return err
	}

	v := views.NewSignupView(cli.deps)
	defer v.Close()
	for _, fld := range []struct{ name, value string }{
		{views.FieldUsername, username},
		{views.FieldEmail, email},
		{views.FieldPassword, pwd},
		{views.FieldConfirmPassword, confirm},
		{views.FieldRole, role},
	} {
		if err := v.Set(fld.name, fld.value); err != nil {
			return err
		}
	}
	if _, text := v.Strength(); text != "" {
		cli.printf("Password strength: %s\n", text)
	}

	err = v.Submit(ctx)
	for _, fld := range []string{views.FieldUsername, views.FieldEmail, views.FieldPassword, views.FieldConfirmPassword, views.FieldRole} {
		if msg := v.Error(fld); msg != "" {
			cli.printf("  %s\n", msg)
		}
	}
	cli.printAlerts()
	if err != nil {
		return err
	}
	return cli.openProfile(ctx)
}

func (cli *commandLine) openProfile(ctx context.Context) error {
	cli.closeViews()
	v := views.NewProfileView(cli.deps)
	err := v.Load(ctx)
	if err != nil {
		v.Close()
		cli.printAlerts()
		return err
	}
	cli.profile = v
	cli.printProfile()
	return nil
}

func (cli *commandLine) openInbox(ctx context.Context) error {
	if cli.profile == nil {
		return errNotLoggedIn
	}
	cli.closeInbox()
	v := views.NewNotificationsView(cli.deps)
	cli.deps.Router.Push(views.RouteNotifications)
	if err := v.Load(ctx); err != nil {
		cli.printf("Could not load your notifications: %v\n", err)
	}
	cli.inbox = v
	cli.printInbox()
	return nil
}

func (cli *commandLine) currentInbox() (*views.NotificationsView, error) {
	if cli.inbox == nil {
		return nil, errNoInbox
	}
	return cli.inbox, nil
}

func (cli *commandLine) search(ctx context.Context, term string) error {
	if cli.profile == nil {
		return errNotLoggedIn
	}
	cli.profile.SetSearchTerm(term)
	cli.waitSearch(ctx)
	cli.printSearch()
	return nil
}

// waitSearch waits for the debounced search to land, or for the backend timeout.
func (cli *commandLine) waitSearch(ctx context.Context) {
	conf := cli.deps.Conf
	deadline := time.Now().Add(conf.Search.Debounce + conf.Backend.Timeout)
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for cli.profile.Searching() && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

func (cli *commandLine) request(ctx context.Context, param string) error {
	if cli.profile == nil {
		return errNotLoggedIn
	}
	n, err := strconv.Atoi(param)
	if err != nil {
		return views.ErrNoSuchPreceptor
	}
	preceptor, err := cli.profile.Request(ctx, n-1)
	if err != nil {
		if errors.Is(err, views.ErrNoSuchPreceptor) {
			return err
		}
		// failures are logged by the view
		return nil
	}
	cli.printf("Request sent to %s.\n", preceptor.Name)
	return nil
}

func (cli *commandLine) tab(name string) error {
	switch {
	case cli.inbox != nil && (name == string(views.TabAll) || name == string(views.TabUnread)):
		cli.inbox.SetReadTab(views.ReadTab(name))
		cli.printInbox()
	case cli.inbox == nil && cli.profile != nil && (name == string(views.TabToday) || name == string(views.TabSchedule)):
		cli.profile.SetTab(views.Tab(name))
		cli.printProfile()
	case cli.profile == nil:
		return errNotLoggedIn
	default:
		cli.printUsage()
		return errHelp
	}
	return nil
}

func (cli *commandLine) answer(ctx context.Context, cmd, id string) error {
	inbox, err := cli.currentInbox()
	if err != nil {
		return err
	}
	switch cmd {
	case "read":
		err = inbox.MarkAsRead(id)
	case "confirm":
		err = inbox.Confirm(ctx, id)
	case "reject":
		err = inbox.Reject(ctx, id)
	}
	if err != nil {
		return err
	}
	cli.printInbox()
	return nil
}

func (cli *commandLine) closeInbox() {
	if cli.inbox != nil {
		cli.inbox.Close()
		cli.inbox = nil
	}
}

func (cli *commandLine) closeViews() {
	cli.closeInbox()
	if cli.profile != nil {
		cli.profile.Close()
		cli.profile = nil
	}
}

// Output

func (cli *commandLine) printAlerts() {
	for _, a := range cli.deps.Router.Alerts() {
		cli.printf("[%s] %s\n", a.Title, a.Message)
	}
}

func (cli *commandLine) printScreen() {
	switch {
	case cli.inbox != nil:
		cli.printInbox()
	case cli.profile != nil:
		cli.printProfile()
	default:
		cli.printf("Not logged in. Use login or signup.\n")
	}
}

func (cli *commandLine) printProfile() {
	v := cli.profile
	p := v.Profile()
	if p == nil {
		return
	}
	cli.printf("%s (%s) <%s>\n", p.Name, p.Title, p.Email)
	cli.printf("  Department: %s | Phone: %s | Location: %s | Joined %s\n", p.Department, p.Phone, p.Location, p.JoinDate)

	switch v.Tab() {
	case views.TabSchedule:
		cli.printf("Weekly Preceptor Schedule\n")
		for _, row := range v.Schedule() {
			mark := " "
			if row.Today {
				mark = "*"
			}
			cli.printf(" %s %-12s %-20s %s\n", mark, row.Day, row.Name, row.Specialty)
		}
	default:
		cli.printf("Today (%s)\n", v.CurrentDay())
		if cur := v.CurrentPreceptor(); cur != nil {
			cli.printf("  Preceptor: %s <%s> - %s\n", cur.Name, cur.Email, cur.Specialty)
		} else {
			cli.printf("  %s\n", v.PreceptorStatus())
		}
		cli.printf("  Shift Hours: %s\n", views.ShiftHours)
		cli.printf("  Team Members: %s\n", views.TeamMembers)
	}
}

func (cli *commandLine) printSearch() {
	if status := cli.profile.SearchStatus(); status != "" {
		cli.printf("%s\n", status)
	}
	for i, p := range cli.profile.Results() {
		cli.printf("  %d. %s <%s> - %s, %s\n", i+1, p.Name, p.Email, p.Specialty, p.Day)
	}
}

func (cli *commandLine) printInbox() {
	v := cli.inbox
	now := time.Now()
	if cli.deps.Now != nil {
		now = cli.deps.Now()
	}
	cli.printf("Notifications (%d unread)\n", v.UnreadCount())
	for _, n := range v.Shown() {
		mark := " "
		if !n.Read {
			mark = "•"
		}
		cli.printf(" %s [%s] %s %s (%s)\n", mark, n.ID, strings.ToUpper(string(n.Type)), n.Message, notification.Age(n.Timestamp, now))
	}
	cli.printf("%s\n", v.Summary())
}
