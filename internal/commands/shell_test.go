package commands_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"taskmirror/internal/commands"
	"taskmirror/internal/config"
	"taskmirror/internal/exitcode"
	"taskmirror/internal/logger"
	"taskmirror/internal/service"
	"taskmirror/internal/testutil"
)

func runShell(t *testing.T, store service.Store, input string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: t.TempDir(), Quiet: quiet, Settings: config.DefaultSettings()}
	ctx := logger.WithContext(context.Background(), logger.Discard())

	cmd := &commands.ShellCmd{In: strings.NewReader(input)}
	code = cmd.Run(ctx, cfg, store, nil, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestShell_EditDraftSaveSession(t *testing.T) {
	store := seededStore()

	input := strings.Join([]string{
		"list",
		"edit 2",
		"draft Buy oat milk",
		"list",
		"save",
		"done 1",
		"list",
		"quit",
	}, "\n")
	stdout, stderr, code := runShell(t, store, input, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	testutil.GoldenString(t, "shell_session", stdout)

	assertCalls(t, store, "list", "update_title:t1", "update_complete:t2:true")
}

func TestShell_ErrorsDoNotEndSession(t *testing.T) {
	store := seededStore()

	input := strings.Join([]string{
		"bogus",
		"done 9",
		"rm c",
		"draft nothing to edit",
		"add",
		"save",
		"add Water plants",
	}, "\n")
	stdout, stderr, code := runShell(t, store, input, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout in quiet mode, got %q", stdout)
	}

	expected := strings.Join([]string{
		"error: unknown command: bogus",
		"error: task number out of range: 9",
		"error: task reference required",
		"error: not editing a task (run: edit <ref>)",
		"error: title required",
		"error: title: task title cannot be empty",
		"",
	}, "\n")
	if stderr != expected {
		t.Errorf("expected stderr %q, got %q", expected, stderr)
	}

	tasks, _ := store.List(context.Background())
	if len(tasks) != 4 || tasks[0].Title != "Water plants" {
		t.Errorf("expected the session to go on and create the task, got %+v", tasks)
	}
}

func TestShell_AddWhileEditingIsRefused(t *testing.T) {
	store := seededStore()

	_, stderr, _ := runShell(t, store, "edit 1\nadd Another\ncancel\nadd Another\n", true)

	if stderr != "error: finish editing first (run: save or cancel)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	assertCalls(t, store, "list", "insert")
}

// vanishingStore deletes one task right before the second List, as another
// client would between the session's initial load and its reload.
type vanishingStore struct {
	*testutil.FakeStore
	vanish string
	lists  int
}

func (s *vanishingStore) List(ctx context.Context) ([]service.Task, error) {
	s.lists++
	if s.lists == 2 {
		_ = s.FakeStore.Delete(ctx, s.vanish)
	}
	return s.FakeStore.List(ctx)
}

func TestShell_ReloadDropsRemovedEditTarget(t *testing.T) {
	store := &vanishingStore{FakeStore: seededStore(), vanish: "t2"}

	// edit 1 targets t2 "Call mom".
	stdout, stderr, _ := runShell(t, store, "edit 1\ndraft Call dad\nreload\nsave\n", true)

	if strings.Contains(stdout, "[editing]") {
		t.Errorf("edit mode should end when the target is gone, got %q", stdout)
	}
	if stderr != "error: title: task title cannot be empty\n" {
		t.Errorf("expected the draft to be cleared, got stderr %q", stderr)
	}
	for _, call := range store.Calls() {
		if strings.HasPrefix(call, "update_title") || call == "insert" {
			t.Errorf("nothing should be saved, got %q", call)
		}
	}
}

func TestShell_ReloadKeepsSurvivingEditTarget(t *testing.T) {
	store := &vanishingStore{FakeStore: seededStore(), vanish: "t2"}

	// edit 2 targets t1 "Buy milk", which survives the reload.
	_, stderr, _ := runShell(t, store, "edit 2\ndraft Buy oat milk\nreload\nsave\n", true)

	if stderr != "" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if task, _ := store.Get("t1"); task.Title != "Buy oat milk" {
		t.Errorf("expected t1 to be saved with the kept draft, got %q", task.Title)
	}
}

func TestShell_EOFEndsSession(t *testing.T) {
	stdout, _, code := runShell(t, testutil.NewFakeStore(), "list\n", false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "> no tasks found\n> \n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestShell_InitialLoadFailureIsNotFatal(t *testing.T) {
	store := seededStore()
	store.ListErr = errors.New("connection refused")

	_, stderr, code := runShell(t, store, "quit\n", true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "error: load task: connection refused\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}
