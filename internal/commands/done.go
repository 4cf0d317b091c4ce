package commands

import (
	"context"
	"flag"
	"io"

	"taskmirror/internal/config"
	"taskmirror/internal/service"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. On a completed task (cN) it reopens
// the task.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle a task completed" }
func (c *DoneCmd) Usage() string     { return "taskmirror done <ref>" }
func (c *DoneCmd) NeedsStore() bool  { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	if _, err := ParseTaskRef(args); err != nil {
		return failUser(errOut, err)
	}

	r, err := loadReconciler(ctx, store)
	if err != nil {
		return fail(errOut, err)
	}
	task, err := resolveArgs(r, args)
	if err != nil {
		return failUser(errOut, err)
	}

	if err := r.ToggleComplete(ctx, task.ID); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}
