package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mtx/internal/shared"
	"github.com/desertthunder/mtx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}
	if err := r.requireBackend(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer := shared.NewFileLogger(r.config.Log.File)
	defer closer.Close()
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	session, err := r.currentSession(ctx)
	if err != nil {
		return err
	}

	deps := ui.Deps{
		Catalog: r.catalog,
		Backend: r.backend,
		Session: session,
		Logger:  fileLogger,
		Start:   cmd.String("start"),
	}
	if r.activity != nil {
		deps.Recorder = r.activity
	}

	if err := ui.Run(ctx, deps); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
