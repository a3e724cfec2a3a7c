package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/mtx/internal/services"
	"github.com/desertthunder/mtx/internal/shared"
	"github.com/urfave/cli/v3"
)

const envConfigPath = "MTX_CONFIG"

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	if p := os.Getenv(envConfigPath); p != "" {
		configPath = p
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	} else {
		config.ApplyEnv()
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	if err := config.Validate(); err != nil {
		logger.Warn("configuration is incomplete", "error", err)
	}

	opts := RunnerOpts{Config: config, ConfigPath: configPath, Logger: logger}

	if backend, err := services.NewBackendServiceFromConfig(config.Backend, shared.WithLogger(logger, "component", "backend")); err == nil {
		opts.Backend = backend
	} else {
		logger.Debug("backend client unavailable", "error", err)
	}

	if config.Catalog.APIKey != "" {
		if catalog, err := services.NewCatalogServiceFromConfig(config.Catalog, shared.WithLogger(logger, "component", "catalog")); err == nil {
			opts.Catalog = catalog
		} else {
			logger.Debug("catalog client unavailable", "error", err)
		}
	}

	runner := NewRunner(opts)
	defer runner.Close()

	app := &cli.Command{
		Name:     "mtx",
		Usage:    "Browse TMDB and keep your watchlist, favourites and watched lists in sync",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}
