package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"taskmirror/internal/config"
	"taskmirror/internal/exitcode"
	"taskmirror/internal/output"
	"taskmirror/internal/reconcile"
	"taskmirror/internal/service"
)

const shellPrompt = "> "

func init() {
	Register(&ShellCmd{})
}

// ShellCmd implements an interactive session over a single reconciler.
// Unlike the one-shot commands, edit mode and the draft persist between
// lines, so a task can be opened, its draft changed, and saved later.
type ShellCmd struct {
	// In is the line source. Defaults to os.Stdin.
	In io.Reader
}

func (c *ShellCmd) Name() string      { return "shell" }
func (c *ShellCmd) Aliases() []string { return nil }
func (c *ShellCmd) Synopsis() string  { return "Start an interactive session" }
func (c *ShellCmd) Usage() string     { return "taskmirror shell" }
func (c *ShellCmd) NeedsStore() bool  { return true }

func (c *ShellCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShellCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	in := c.In
	if in == nil {
		in = os.Stdin
	}

	s := &session{
		r:      reconcile.FromContext(ctx, store),
		cfg:    cfg,
		out:    out,
		errOut: errOut,
	}

	// A failed initial load is not fatal; the user can reload.
	s.reload(ctx)

	scanner := bufio.NewScanner(in)
	for {
		if !cfg.Quiet {
			fmt.Fprint(out, shellPrompt)
		}
		if !scanner.Scan() {
			break
		}
		if done := s.exec(ctx, scanner.Text()); done {
			return exitcode.Success
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(errOut, "error: failed to read input: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out)
	}
	return exitcode.Success
}

type session struct {
	r      *reconcile.Reconciler
	cfg    *config.Config
	out    io.Writer
	errOut io.Writer
}

// exec runs one input line. It returns true when the session should end.
func (s *session) exec(ctx context.Context, line string) bool {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch verb {
	case "":
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprint(s.out, shellHelpText)
	case "list", "ls":
		s.list()
	case "reload":
		if s.reload(ctx) {
			s.list()
		}
	case "add":
		if rest == "" {
			s.errorf("title required")
			return false
		}
		s.create(ctx, rest)
	case "edit":
		s.startEdit(rest)
	case "draft":
		if _, editing := s.r.EditingTarget(); !editing {
			s.errorf("not editing a task (run: edit <ref>)")
			return false
		}
		s.r.SetDraft(rest)
	case "save":
		s.save(ctx, rest)
	case "cancel":
		s.cancel()
	case "done", "toggle":
		if task, ok := s.resolve(rest); ok {
			s.report(s.r.ToggleComplete(ctx, task.ID))
		}
	case "rm", "delete":
		if task, ok := s.resolve(rest); ok {
			s.report(s.r.Remove(ctx, task.ID))
		}
	default:
		s.errorf("unknown command: %s", verb)
	}
	return false
}

func (s *session) reload(ctx context.Context) bool {
	if err := s.r.Load(ctx); err != nil {
		s.errorf("%v", err)
		return false
	}
	return true
}

func (s *session) list() {
	snap := s.r.Snapshot()
	opts := output.ViewOptions{}
	if snap.Editing != nil {
		opts.EditingID = snap.Editing.ID
	}
	if !output.Views(s.out, snap.Pending, snap.Completed, opts) && !s.cfg.Quiet {
		fmt.Fprintln(s.out, "no tasks found")
	}
}

// create refuses while a task is under edit, where Submit would update it.
func (s *session) create(ctx context.Context, title string) {
	if _, editing := s.r.EditingTarget(); editing {
		s.errorf("finish editing first (run: save or cancel)")
		return
	}
	s.report(s.r.Submit(ctx, title))
}

func (s *session) startEdit(rest string) {
	task, ok := s.resolve(rest)
	if !ok {
		return
	}
	if !s.r.StartEdit(task.ID) {
		s.errorf("%v", reconcile.ErrNotFoundLocally)
		return
	}
	if !s.cfg.Quiet {
		fmt.Fprintf(s.out, "draft: %s\n", s.r.Draft())
	}
}

// save submits title, or the current draft when title is empty.
func (s *session) save(ctx context.Context, title string) {
	if title == "" {
		title = s.r.Draft()
	}
	s.report(s.r.Submit(ctx, title))
}

func (s *session) cancel() {
	s.r.CancelEdit()
}

func (s *session) resolve(rest string) (service.Task, bool) {
	task, err := resolveArgs(s.r, strings.Fields(rest))
	if err != nil {
		s.errorf("%v", err)
		return service.Task{}, false
	}
	return task, true
}

func (s *session) report(err error) {
	if err != nil {
		s.errorf("%v", err)
		return
	}
	if !s.cfg.Quiet {
		fmt.Fprintln(s.out, "ok")
	}
}

func (s *session) errorf(format string, args ...any) {
	fmt.Fprintf(s.errOut, "error: "+format+"\n", args...)
}

const shellHelpText = `Commands:
  list                List tasks
  reload              Reload tasks from the store and list them
  add <title...>      Create a task
  edit <ref>          Start editing a task; its title becomes the draft
  draft <text...>     Replace the draft of the task under edit
  save [title...]     Save the given title, or the draft, to the task under edit
  cancel              Stop editing without saving
  done <ref>          Toggle a task completed
  rm <ref>            Delete a task
  help                Print this help
  quit                End the session

Task references: N is the Nth task to complete, cN the Nth completed task.
`
