package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskmirror/internal/config"
	"taskmirror/internal/exitcode"
	"taskmirror/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command.
type EditCmd struct{}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"rename"} }
func (c *EditCmd) Synopsis() string  { return "Change a task's title" }
func (c *EditCmd) Usage() string     { return "taskmirror edit <ref> <title...>" }
func (c *EditCmd) NeedsStore() bool  { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	if _, err := ParseTaskRef(args); err != nil {
		return failUser(errOut, err)
	}
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	r, err := loadReconciler(ctx, store)
	if err != nil {
		return fail(errOut, err)
	}
	task, err := resolveArgs(r, args)
	if err != nil {
		return failUser(errOut, err)
	}

	r.StartEdit(task.ID)
	if err := r.Submit(ctx, strings.Join(args[1:], " ")); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}
