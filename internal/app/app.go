package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/match-features/internal/config"
	"github.com/riskibarqy/match-features/internal/infrastructure/refstore"
	"github.com/riskibarqy/match-features/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/match-features/internal/platform/logging"
	"github.com/riskibarqy/match-features/internal/usecase"
)

// App owns the process-wide dependencies of one command invocation.
type App struct {
	cfg    config.Config
	logger *logging.Logger
	db     *sqlx.DB
}

func New(cfg config.Config, logger *logging.Logger) *App {
	if logger == nil {
		logger = logging.Default()
	}
	return &App{cfg: cfg, logger: logger}
}

// NewRunner builds the enrichment runner. The feature store connection is
// opened only when it is enabled and is released by Close.
func (a *App) NewRunner(ctx context.Context) (*usecase.Runner, error) {
	defaults, err := usecase.LoadDefaults(a.cfg.DefaultsFile)
	if err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	var sink usecase.FeatureSink
	if a.cfg.FeatureStoreEnabled {
		db, err := a.openDB(ctx)
		if err != nil {
			return nil, err
		}
		sink = postgres.NewMatchFeatureRepository(db)
		a.logger.Info("feature store enabled", "db_name", dbNameFromURL(a.cfg.DBURL))
	}

	loader := refstore.NewLoader(a.cfg.DataDir, a.logger.Named("refstore"))
	runner := usecase.NewRunner(usecase.RunnerConfig{
		DataDir:    a.cfg.DataDir,
		MatchFiles: a.cfg.MatchFiles,
		MaxWorkers: a.cfg.MaxWorkers,
		ReportPath: a.cfg.ReportPath,
	}, loader, defaults, sink, a.logger.Named("enrich"))
	return runner, nil
}

func (a *App) EnsureFiles(ctx context.Context) (usecase.EnsureFilesResult, error) {
	return usecase.EnsureFiles(ctx, a.cfg.DataDir, a.logger.Named("ensure-files"))
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
