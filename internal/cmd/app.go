package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/slotsig/internal/config"
	"github.com/Iron-Ham/slotsig/internal/logging"
	"github.com/Iron-Ham/slotsig/internal/tui/styles"
)

// app bundles what the scenario commands share: the validated config,
// the debug logger and the styles for stdout.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	styles *styles.Styles
	out    io.Writer
	errOut io.Writer
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	st, err := stylesFor(cfg, out)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: newLogger(cfg, cmd.ErrOrStderr()),
		styles: st,
		out:    out,
		errOut: cmd.ErrOrStderr(),
	}, nil
}

func (a *app) Close() {
	_ = a.logger.Close()
}

// stylesFor returns the styles for writing to w under cfg's trace settings.
func stylesFor(cfg *config.Config, w io.Writer) (*styles.Styles, error) {
	return styles.ForOutput(w, cfg.Trace.Color, cfg.Trace.Theme, styles.ThemesDir(config.ConfigDir()))
}

// newLogger opens the rotating debug log when logging is enabled. A log
// that cannot be opened is reported and replaced by a no-op logger.
func newLogger(cfg *config.Config, errOut io.Writer) *logging.Logger {
	if !cfg.Logging.Enabled {
		return logging.NopLogger()
	}

	logger, err := logging.NewLoggerWithRotation(cfg.Logging.ResolveDir(), cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
		Warnings:   errOut,
	})
	if err != nil {
		fmt.Fprintf(errOut, "Warning: debug logging disabled: %v\n", err)
		return logging.NopLogger()
	}
	return logger
}
