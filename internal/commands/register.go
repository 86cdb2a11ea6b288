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
	Register(&RegisterCmd{})
}

// RegisterCmd implements the register command. The new account is not
// logged in automatically; run login afterwards.
type RegisterCmd struct {
	password string
	stdin    io.Reader
}

// SetPassword sets the password (for testing).
func (c *RegisterCmd) SetPassword(p string) { c.password = p }

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return nil }
func (c *RegisterCmd) Synopsis() string  { return "Create a new account" }
func (c *RegisterCmd) Usage() string {
	return "taskman register [--password <password>] <username> <email>"
}
func (c *RegisterCmd) NeedsAuth() bool { return false }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.password, "p", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(errOut, "error: username and email required")
		return exitcode.UserError
	}
	username, email := args[0], args[1]

	password := c.password
	if password == "" {
		stdin := c.stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		var err error
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

	client := api.New(cfg.APIURL, nil)
	profile, err := client.Register(ctx, username, email, password)
	if err != nil {
		return fail(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "registered %s (run: taskman login %s)\n", profile.Username, profile.Username)
	}
	return exitcode.Success
}
