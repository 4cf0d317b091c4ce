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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskmirror help [command]" }
func (c *HelpCmd) NeedsStore() bool  { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(out, helpText)
		return exitcode.Success
	}

	cmd, found := DefaultRegistry.Find(args[0])
	if !found {
		return failUser(errOut, fmt.Errorf("unknown command: %s", args[0]))
	}
	fmt.Fprintf(out, "%s - %s\n", cmd.Name(), cmd.Synopsis())
	fmt.Fprintf(out, "Usage: %s\n", cmd.Usage())
	if aliases := cmd.Aliases(); len(aliases) > 0 {
		fmt.Fprintf(out, "Aliases: %s\n", strings.Join(aliases, ", "))
	}
	return exitcode.Success
}

const helpText = `Usage:
  taskmirror                                  List tasks to complete and completed tasks
  taskmirror list [common flags] [--pending]  List tasks
  taskmirror add [common flags] <title...>
  taskmirror create [common flags] <title...>
  taskmirror edit [common flags] <ref> <title...>
  taskmirror done [common flags] <ref>
  taskmirror toggle [common flags] <ref>
  taskmirror rm [common flags] <ref>
  taskmirror shell [common flags]
  taskmirror migrate [common flags]
  taskmirror login [common flags]
  taskmirror logout [common flags]
  taskmirror help [command]
  taskmirror version

Task references:
  N    the Nth task to complete
  cN   the Nth completed task

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Settings are read from <config dir>/config.yaml and TASKMIRROR_* environment
variables (e.g. TASKMIRROR_BACKEND, TASKMIRROR_POSTGRES_URL).
`
