package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/user"
	"github.com/trezcool/masomo-lms/services/lmsapi"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   core.PortalConfig
	client *lmsapi.Client
	store  sessionStore
	logger core.Logger
	in     io.Reader
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL                                   - log in; the password is prompted next")
	fmt.Fprintln(cli.out, "  logout                                               - forget the logged-in user")
	fmt.Fprintln(cli.out, "  courses [-search TEXT] [-category CAT]               - browse the course catalog")
	fmt.Fprintln(cli.out, "  enroll -course ID                                    - enroll in a course")
	fmt.Fprintln(cli.out, "  quizzes                                              - list the quizzes of your courses")
	fmt.Fprintln(cli.out, "  take -quiz ID                                        - take a quiz, or see your result")
	fmt.Fprintln(cli.out, "  submissions [-quiz ID]                               - list submissions")
	fmt.Fprintln(cli.out, "  review -submission ID [-score N] [-feedback TEXT]    - grade a submission")
	fmt.Fprintln(cli.out, "  notifications [-unread]                              - list your notifications")
	fmt.Fprintln(cli.out, "  read (-id ID | -all)                                 - mark notifications read")
	fmt.Fprintln(cli.out, "  contacts                                             - list the people you can message")
	fmt.Fprintln(cli.out, "  send -course ID -to USER_ID -body TEXT               - send a message")
	fmt.Fprintln(cli.out, "  watch [-course ID -contact USER_ID]                  - poll notifications (and a conversation)")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	cmd, cmdArgs := args[1], args[2:]
	switch cmd {
	case "login":
		return cli.login(ctx, cmdArgs)
	case "logout":
		return cli.logout()
	}

	commands := map[string]func(context.Context, []string) error{
		"courses":       cli.courses,
		"enroll":        cli.enroll,
		"quizzes":       cli.quizzes,
		"take":          cli.take,
		"submissions":   cli.submissions,
		"review":        cli.review,
		"notifications": cli.notifications,
		"read":          cli.read,
		"contacts":      cli.contacts,
		"send":          cli.send,
		"watch":         cli.watch,
	}
	command, ok := commands[cmd]
	if !ok {
		cli.printUsage()
		return errHelp
	}
	if err := cli.restoreSession(); err != nil {
		return err
	}
	return command(ctx, cmdArgs)
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) restoreSession() error {
	sess, err := cli.store.Load()
	if err != nil {
		return err
	}
	if sess == nil {
		return lmsapi.ErrNotLoggedIn
	}
	cli.client.SetSession(sess)
	return nil
}

// currentUser is the logged-in user; run guarantees there is one.
func (cli *commandLine) currentUser() user.User {
	sess, _ := cli.client.Session()
	return sess.User
}

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.flagSet("login")
	email := fs.String("email", "", "Your email. The password will be prompted next.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}
	pwd, err := cli.promptPassword()
	if err != nil {
		return err
	}

	sess, err := cli.client.Login(ctx, *email, pwd)
	if err != nil {
		return err
	}
	if err = cli.store.Save(sess); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Welcome %s! You are logged in as a %s.\n", sess.User.Name, sess.User.Type)
	return nil
}

func (cli *commandLine) logout() error {
	cli.client.Logout()
	if err := cli.store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Logged out.")
	return nil
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// requireRole returns core.ErrPermissionDenied unless the logged-in user has one of `types`.
func (cli *commandLine) requireRole(types ...string) error {
	usr := cli.currentUser()
	for _, typ := range types {
		if usr.Type == typ {
			return nil
		}
	}
	return core.ErrPermissionDenied
}
