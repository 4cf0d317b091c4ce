package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskmirror/internal/config"
	"taskmirror/internal/exitcode"
	"taskmirror/internal/output"
	"taskmirror/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `taskmirror` (no args) and `taskmirror list`.
type ListCmd struct {
	pendingOnly bool
}

// SetPendingOnly sets the --pending flag (for testing).
func (c *ListCmd) SetPendingOnly(v bool) {
	c.pendingOnly = v
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "taskmirror list [--pending]" }
func (c *ListCmd) NeedsStore() bool  { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.pendingOnly, "pending", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	r, err := loadReconciler(ctx, store)
	if err != nil {
		return fail(errOut, err)
	}

	shown := output.Views(out, r.PendingView(), r.CompletedView(), output.ViewOptions{
		PendingOnly: c.pendingOnly,
	})
	if !shown && !cfg.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}
