package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskmirror/internal/cli"
	"taskmirror/internal/commands"
	"taskmirror/internal/config"
	"taskmirror/internal/exitcode"
	"taskmirror/internal/service"
	"taskmirror/internal/testutil"
)

const postgresSettings = "backend: postgres\npostgres:\n  url: postgres://localhost/taskmirror_test\n"

// testFactory creates a store factory that returns the given FakeStore.
func testFactory(store *testutil.FakeStore) cli.StoreFactory {
	return func(ctx context.Context, cfg *config.Config) (service.Store, error) {
		return store, nil
	}
}

// configDir writes settings to config.yaml in a fresh directory.
func configDir(t *testing.T, settings string) string {
	t.Helper()
	dir := t.TempDir()
	if settings != "" {
		if err := os.WriteFile(filepath.Join(dir, config.SettingsFile), []byte(settings), 0600); err != nil {
			t.Fatalf("failed to write settings: %v", err)
		}
	}
	return dir
}

func run(t *testing.T, factory cli.StoreFactory, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	var outBuf, errBuf bytes.Buffer
	code = dispatcher.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	_, stderr, code := run(t, testFactory(testutil.NewFakeStore()), "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	_, stderr, code := run(t, testFactory(testutil.NewFakeStore()), "--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	stdout, stderr, code := run(t, nil, "help", "--config", configDir(t, ""))

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	stdout, stderr, code := run(t, nil, "version", "--config", configDir(t, ""))

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "taskmirror 0.1.0\n" {
		t.Errorf("expected 'taskmirror 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	_, stderr, code := run(t, nil, "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	_, stderr, code := run(t, nil, "list", "--config")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -config\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NoArgsListsTasks(t *testing.T) {
	store := testutil.NewFakeStore()
	store.AddTask("t1", "Buy milk", false, testutil.BaseTime)
	t.Setenv("TASKMIRROR_POSTGRES_URL", "postgres://localhost/env")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	stdout, stderr, code := run(t, testFactory(store))

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if !strings.Contains(stdout, "   1  Buy milk\n") {
		t.Errorf("expected the pending task to be listed, got %q", stdout)
	}
}

func TestDispatcher_AddThenListThroughSettingsFile(t *testing.T) {
	store := testutil.NewFakeStore()
	dir := configDir(t, postgresSettings)

	_, stderr, code := run(t, testFactory(store), "add", "--config", dir, "--quiet", "Water", "plants")
	if code != exitcode.Success {
		t.Fatalf("add: exit code %d, stderr %q", code, stderr)
	}

	stdout, _, code := run(t, testFactory(store), "list", "--config", dir, "--pending")
	if code != exitcode.Success {
		t.Fatalf("list: exit code %d", code)
	}
	expected := "------------\nTasks to Complete\n------------\n   1  Water plants\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestDispatcher_InvalidSettingsIsConfigError(t *testing.T) {
	dir := configDir(t, "backend: sqlite\n")

	_, stderr, code := run(t, testFactory(testutil.NewFakeStore()), "list", "--config", dir)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.HasPrefix(stderr, "error: config error: invalid setting backend") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_PostgresWithoutURL(t *testing.T) {
	dir := configDir(t, "backend: postgres\n")
	called := false
	factory := func(ctx context.Context, cfg *config.Config) (service.Store, error) {
		called = true
		return testutil.NewFakeStore(), nil
	}

	_, stderr, code := run(t, factory, "list", "--config", dir)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.Contains(stderr, "postgres.url is required") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if called {
		t.Error("factory should not run when preflight fails")
	}
}

func TestDispatcher_GoogleTasksPreflight(t *testing.T) {
	dir := configDir(t, "backend: googletasks\n")

	_, stderr, code := run(t, testFactory(testutil.NewFakeStore()), "list", "--config", dir)
	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: oauth_client.json not found in "+dir+"\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}

	if err := os.WriteFile(filepath.Join(dir, config.OAuthClientFile), []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}
	_, stderr, code = run(t, testFactory(testutil.NewFakeStore()), "list", "--config", dir)
	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: not logged in (run: taskmirror login)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_FactoryErrors(t *testing.T) {
	dir := configDir(t, postgresSettings)

	tests := []struct {
		name     string
		err      error
		wantCode int
		prefix   string
	}{
		{"unauthorized", service.ErrUnauthorized, exitcode.AuthError, "error: auth error: "},
		{"connection", errors.New("failed to ping database"), exitcode.BackendError, "error: backend error: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := func(ctx context.Context, cfg *config.Config) (service.Store, error) {
				return nil, tt.err
			}

			_, stderr, code := run(t, factory, "list", "--config", dir)

			if code != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, code)
			}
			if !strings.HasPrefix(stderr, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, stderr)
			}
		})
	}
}

func TestDispatcher_FactorySeesSettings(t *testing.T) {
	dir := configDir(t, postgresSettings+"request_timeout: 2s\nlog_level: error\n")

	var got config.Settings
	factory := func(ctx context.Context, cfg *config.Config) (service.Store, error) {
		got = cfg.Settings
		return testutil.NewFakeStore(), nil
	}

	_, _, code := run(t, factory, "list", "--config", dir, "--quiet")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if got.RequestTimeout != 2*time.Second {
		t.Errorf("expected request_timeout 2s, got %s", got.RequestTimeout)
	}
	if got.Postgres.URL != "postgres://localhost/taskmirror_test" {
		t.Errorf("unexpected postgres url %q", got.Postgres.URL)
	}
}

func TestDispatcher_DebugLogsToStderr(t *testing.T) {
	dir := configDir(t, postgresSettings)

	_, stderr, code := run(t, testFactory(testutil.NewFakeStore()), "list", "--config", dir, "--debug", "--quiet")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(stderr, "dispatching command") || !strings.Contains(stderr, "tasks loaded") {
		t.Errorf("expected debug logs on stderr, got %q", stderr)
	}
}
