package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskman/internal/config"
	"taskman/internal/exitcode"
	"taskman/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskman help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskman                                            List open tasks
  taskman list [common flags] [--all]                List tasks (--all includes completed)
  taskman show [common flags] <id>                   Show a task's details
  taskman add [common flags] [--desc <text>] <title...>
  taskman edit [common flags] [--title <text>] [--desc <text>] [--done|--undone] <id>
  taskman done [common flags] <id>
  taskman undone [common flags] <id>
  taskman rm [common flags] <id>
  taskman register [common flags] [--password <password>] <username> <email>
  taskman login [common flags] [--password <password>] <username>
  taskman logout [common flags]
  taskman whoami [common flags]
  taskman ui [common flags]                          Interactive mode
  taskman help
  taskman version

Common flags:
  --config <dir>   Override config directory
  --api <url>      Override API base URL (or set TASKMAN_API_URL)
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
