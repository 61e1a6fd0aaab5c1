// Package appctx provides a shared bootstrap helper for CLI commands.
// It centralizes config loading and logger construction so commands receive
// both ready to use.
package appctx

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lherron/hofmerge/internal/config"
	"github.com/lherron/hofmerge/internal/logging"
)

// App holds the shared application context for commands.
type App struct {
	// Config is the loaded configuration with flag overrides applied
	Config *config.Config

	// Log writes structured diagnostics to stderr
	Log *zap.Logger
}

// Close flushes the logger.
// Safe to call multiple times.
func (a *App) Close() {
	if a.Log != nil {
		_ = a.Log.Sync()
		a.Log = nil
	}
}

// RunFunc is the signature for command run functions.
type RunFunc func(app *App, cmd *cobra.Command, args []string) error

// WithApp wraps a command's run function with shared bootstrap logic.
// The logger is flushed automatically when the wrapped function returns.
func WithApp(fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := Bootstrap(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(app, cmd, args)
	}
}

// Bootstrap loads configuration and builds the logger. The --log-level,
// --log-format and --verbose flags override the configuration when the
// command defines them; --verbose forces debug.
func Bootstrap(cmd *cobra.Command) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if v := flagString(cmd, "log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v := flagString(cmd, "log-format"); v != "" {
		cfg.LogFormat = v
	}
	if f := cmd.Flag("verbose"); f != nil && f.Value.String() == "true" {
		cfg.LogLevel = "debug"
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	return &App{Config: cfg, Log: log}, nil
}

func flagString(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}
