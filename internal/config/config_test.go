package config

import (
	"testing"
	"time"

	"github.com/riskibarqy/match-features/internal/platform/logging"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("ENRICH_MATCH_FILES", "")
	t.Setenv("ENRICH_MAX_WORKERS", "")
	t.Setenv("APP_LOG_LEVEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AppEnv != EnvDev {
		t.Fatalf("unexpected app env: %q", cfg.AppEnv)
	}
	if cfg.DataDir != "data" {
		t.Fatalf("unexpected data dir: %q", cfg.DataDir)
	}
	if len(cfg.MatchFiles) != 2 || cfg.MatchFiles[0] != "raw_football_data.csv" || cfg.MatchFiles[1] != "raw_theodds_fixtures.csv" {
		t.Fatalf("unexpected match files: %+v", cfg.MatchFiles)
	}
	if cfg.MaxWorkers != 1 {
		t.Fatalf("unexpected max workers: %d", cfg.MaxWorkers)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
	if cfg.ServiceName != "match-features-enricher" {
		t.Fatalf("unexpected service name: %q", cfg.ServiceName)
	}
	if cfg.FeatureStoreEnabled {
		t.Fatalf("expected feature store disabled by default")
	}
	if cfg.DBTimeout != 30*time.Second {
		t.Fatalf("unexpected db timeout: %s", cfg.DBTimeout)
	}
}

func TestLoad_MatchFilesParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("ENRICH_MATCH_FILES", " a.csv, ,b.csv ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.MatchFiles) != 2 || cfg.MatchFiles[0] != "a.csv" || cfg.MatchFiles[1] != "b.csv" {
		t.Fatalf("unexpected match files: %+v", cfg.MatchFiles)
	}
}

func TestLoad_MaxWorkersValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("not a number", func(t *testing.T) {
		t.Setenv("ENRICH_MAX_WORKERS", "many")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid ENRICH_MAX_WORKERS")
		}
	})

	t.Run("zero", func(t *testing.T) {
		t.Setenv("ENRICH_MAX_WORKERS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for ENRICH_MAX_WORKERS=0")
		}
	})
}

func TestLoad_FeatureStoreRequiresDBURLWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("FEATURE_STORE_ENABLED", "true")
	t.Setenv("DB_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when FEATURE_STORE_ENABLED=true without DB_URL")
	}

	t.Setenv("DB_URL", "postgres://localhost:5432/features")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.FeatureStoreEnabled || cfg.DBURL == "" {
		t.Fatalf("unexpected feature store config: %+v", cfg)
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("APP_SERVICE_NAME", "match-features-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "match-features-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_DBDisablePreparedBinaryResultParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("default true", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.DBDisablePreparedBinary {
			t.Fatalf("expected DBDisablePreparedBinary=true by default")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
		}
	})
}

func TestConfig_ValidateAfterOverride(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.DataDir = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty data dir")
	}
}
