// Command enrich fills the model feature columns of the raw match tables.
//
// Usage:
//
//	enrich [--data-dir DIR]
//	enrich ensure-files [--data-dir DIR]
//	enrich version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/riskibarqy/match-features/internal/app"
	"github.com/riskibarqy/match-features/internal/config"
	"github.com/riskibarqy/match-features/internal/observability"
	"github.com/riskibarqy/match-features/internal/platform/logging"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:           "enrich",
		Short:         "Enrich raw match tables with model feature columns",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), dataDir, func(ctx context.Context, a *app.App, logger *logging.Logger) error {
				runner, err := a.NewRunner(ctx)
				if err != nil {
					return err
				}
				_, err = runner.Run(ctx)
				return err
			})
		},
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding match and reference tables (overrides DATA_DIR)")

	root.AddCommand(
		ensureFilesCmd(&dataDir),
		versionCmd(),
	)
	return root
}

func ensureFilesCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-files",
		Short: "Create header-only reference tables that are missing or unreadable",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *dataDir, func(ctx context.Context, a *app.App, logger *logging.Logger) error {
				result, err := a.EnsureFiles(ctx)
				if err != nil {
					return err
				}
				logger.Info("reference files ensured",
					"created", len(result.Created),
					"repaired", len(result.Repaired),
				)
				return nil
			})
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the service version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cfg.ServiceName, cfg.ServiceVersion)
			return err
		},
	}
}

func withApp(ctx context.Context, dataDir string, fn func(context.Context, *app.App, *logging.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return err
	}
	if dir := strings.TrimSpace(dataDir); dir != "" {
		cfg.DataDir = dir
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
			return err
		}
	}

	logger := logging.NewJSON(cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.AppEnv)
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		return err
	}
	defer func() {
		if err := stopProfiling(); err != nil {
			logger.Warn("pyroscope stop failed", "error", err)
		}
	}()

	a := app.New(cfg, logger)
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close app", "error", err)
		}
	}()

	if err := fn(ctx, a, logger); err != nil {
		logger.Error("command failed", "error", err)
		return err
	}
	return nil
}
