// Package main is the entry point for the taskmirror CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskmirror/internal/backend/googletasks"
	"taskmirror/internal/backend/postgres"
	"taskmirror/internal/cli"
	"taskmirror/internal/commands"
	"taskmirror/internal/config"
	"taskmirror/internal/service"
)

func main() {
	// Context cancels on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, openStore)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// openStore builds the store selected by the backend setting.
func openStore(ctx context.Context, cfg *config.Config) (service.Store, error) {
	switch cfg.Settings.Backend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Settings.Postgres.URL, cfg.Settings.Postgres.MaxOpenConns)
		if err != nil {
			return nil, err
		}
		return postgres.New(db, cfg.Settings.RequestTimeout), nil
	case config.BackendGoogleTasks:
		client, err := googletasks.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Settings.Backend)
	}
}
