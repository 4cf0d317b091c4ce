package commands

import (
	"context"
	"flag"
	"io"

	"taskmirror/internal/config"
	"taskmirror/internal/service"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "taskmirror rm <ref>" }
func (c *RmCmd) NeedsStore() bool  { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
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

	if err := r.Remove(ctx, task.ID); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}
