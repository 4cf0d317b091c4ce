package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskmirror/internal/config"
	"taskmirror/internal/exitcode"
	"taskmirror/internal/reconcile"
	"taskmirror/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct{}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string     { return "taskmirror add <title...>" }
func (c *AddCmd) NeedsStore() bool  { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	// A fresh reconciler has no editing target, so Submit creates.
	r := reconcile.FromContext(ctx, store)
	if err := r.Submit(ctx, strings.Join(args, " ")); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}
