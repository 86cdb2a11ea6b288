package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"taskman/internal/api"
	"taskman/internal/config"
	"taskman/internal/exitcode"
	"taskman/internal/service"
	"taskman/internal/session"
)

// fail prints an error message for err and returns the matching exit code.
func fail(errOut io.Writer, err error) int {
	switch {
	case api.IsAuth(err):
		fmt.Fprintf(errOut, "error: auth error: %v (run: taskman login)\n", err)
		return exitcode.AuthError
	case api.IsNotFound(err):
		fmt.Fprintf(errOut, "error: not found: %v\n", err)
		return exitcode.UserError
	case api.IsValidation(err):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case api.IsConflict(err):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// parseTaskID parses the single positional task id argument.
func parseTaskID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("task id required")
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("too many arguments")
	}
	id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid task id: %s", args[0])
	}
	return id, nil
}

// readPassword reads one line from in. Used when no --password flag is
// given; input is expected to be piped or typed at the prompt.
func readPassword(in io.Reader, prompt string, errOut io.Writer) (string, error) {
	fmt.Fprint(errOut, prompt)
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("no password given")
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// newSession builds a session backed by the config dir's token file and
// the configured API endpoint.
func newSession(cfg *config.Config) (*session.Session, error) {
	login := func(ctx context.Context, username, password string) (*oauth2.Token, error) {
		return api.Login(ctx, cfg.APIURL, username, password)
	}
	connect := func(token *oauth2.Token) service.Service {
		return api.New(cfg.APIURL, token)
	}
	return session.New(cfg, login, connect)
}
