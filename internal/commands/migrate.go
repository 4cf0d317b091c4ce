package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskmirror/internal/backend/postgres"
	"taskmirror/internal/config"
	"taskmirror/internal/exitcode"
	"taskmirror/internal/logger"
	"taskmirror/internal/service"
)

func init() {
	Register(&MigrateCmd{})
}

// MigrateCmd applies the embedded schema migrations to the configured
// PostgreSQL database.
type MigrateCmd struct{}

func (c *MigrateCmd) Name() string      { return "migrate" }
func (c *MigrateCmd) Aliases() []string { return nil }
func (c *MigrateCmd) Synopsis() string  { return "Apply database migrations" }
func (c *MigrateCmd) Usage() string     { return "taskmirror migrate [common flags]" }
func (c *MigrateCmd) NeedsStore() bool  { return false }

func (c *MigrateCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *MigrateCmd) Run(ctx context.Context, cfg *config.Config, store service.Store, args []string, out, errOut io.Writer) int {
	if cfg.Settings.Backend != config.BackendPostgres {
		fmt.Fprintf(errOut, "error: migrate requires the %s backend (configured: %s)\n",
			config.BackendPostgres, cfg.Settings.Backend)
		return exitcode.AuthError
	}
	if err := cfg.Settings.CheckBackend(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	db, err := postgres.Open(ctx, cfg.Settings.Postgres.URL, cfg.Settings.Postgres.MaxOpenConns)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
	defer db.Close()

	log := logger.FromContext(ctx)
	if err := postgres.Migrate(ctx, db, log); err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	version, err := postgres.MigrationVersion(ctx, db, log)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "schema version %d\n", version)
	}
	return exitcode.Success
}
