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
	Register(&EditCmd{})
}

// EditCmd applies a partial update to a task. Flags that are not given
// leave the corresponding field unchanged.
type EditCmd struct {
	title    string
	desc     string
	titleSet bool
	descSet  bool
	done     bool
	undone   bool
}

// SetTitle sets the title flag (for testing).
func (c *EditCmd) SetTitle(title string) {
	c.title = title
	c.titleSet = true
}

// SetDesc sets the description flag (for testing).
func (c *EditCmd) SetDesc(desc string) {
	c.desc = desc
	c.descSet = true
}

// SetDone sets the done flag (for testing).
func (c *EditCmd) SetDone(done bool) { c.done = done }

// SetUndone sets the undone flag (for testing).
func (c *EditCmd) SetUndone(undone bool) { c.undone = undone }

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "taskman edit [--title <text>] [--desc <text>] [--done|--undone] <id>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.Func("title", "", func(v string) error {
		c.title = v
		c.titleSet = true
		return nil
	})
	fs.Func("desc", "", func(v string) error {
		c.desc = v
		c.descSet = true
		return nil
	})
	fs.BoolVar(&c.done, "done", false, "")
	fs.BoolVar(&c.undone, "undone", false, "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := parseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if c.done && c.undone {
		fmt.Fprintln(errOut, "error: cannot use both --done and --undone")
		return exitcode.UserError
	}

	var patch service.TaskPatch
	if c.titleSet {
		patch.Title = &c.title
	}
	if c.descSet {
		patch.Description = &c.desc
	}
	if c.done || c.undone {
		completed := c.done
		patch.IsCompleted = &completed
	}

	if patch == (service.TaskPatch{}) {
		fmt.Fprintln(errOut, "error: nothing to change")
		return exitcode.UserError
	}

	if _, err := svc.UpdateTask(ctx, id, patch); err != nil {
		return fail(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
