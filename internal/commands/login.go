package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"taskman/internal/api"
	"taskman/internal/config"
	"taskman/internal/exitcode"
	"taskman/internal/service"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	password string
	stdin    io.Reader
}

// SetPassword sets the password (for testing).
func (c *LoginCmd) SetPassword(p string) { c.password = p }

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Authenticate and store the session token" }
func (c *LoginCmd) Usage() string     { return "taskman login [--password <password>] <username>" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.password, "p", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: username required")
		return exitcode.UserError
	}
	username := args[0]

	sess, err := newSession(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	// A stored token that still resolves a profile means we're done.
	if sess.IsLoading() {
		if err := sess.Resume(ctx); err == nil {
			if !cfg.Quiet {
				fmt.Fprintf(out, "already logged in as %s\n", sess.Profile().Username)
			}
			return exitcode.Success
		}
	}

	password := c.password
	if password == "" {
		stdin := c.stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		password, err = readPassword(stdin, "password: ", errOut)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}
	if password == "" {
		fmt.Fprintln(errOut, "error: password required")
		return exitcode.UserError
	}

	if err := sess.Login(ctx, username, password); err != nil {
		if api.IsAuth(err) {
			fmt.Fprintln(errOut, "error: invalid username or password")
			return exitcode.AuthError
		}
		return fail(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s\n", sess.Profile().Username)
	}
	return exitcode.Success
}
