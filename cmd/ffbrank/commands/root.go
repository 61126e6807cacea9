// Package commands implements the ffbrank command line.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ffbrank/ffbrank/internal/config"
	"github.com/ffbrank/ffbrank/pkg/logger"
)

var cfg *config.Config //nolint:gochecknoglobals // loaded once per invocation

var rootCmd = &cobra.Command{
	Use:           "ffbrank",
	Short:         "ffbrank collects expert fantasy football rankings into a local record.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setup(cmd.Context())
	},
}

// setup loads configuration (defaults -> optional file -> env) and
// initializes logging.
func setup(ctx context.Context) error {
	c, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(logger.WithFormat(logger.Format(c.LogFormat))); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(c.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", c.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	cfg = c
	return nil
}

// ExecuteContext runs the command line and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
