package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/match-features/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

var defaultMatchFiles = []string{"raw_football_data.csv", "raw_theodds_fixtures.csv"}

// Config stores runtime configuration for one enrichment run.
type Config struct {
	AppEnv         string `validate:"oneof=dev stage prod"`
	ServiceName    string `validate:"required"`
	ServiceVersion string `validate:"required"`
	LogLevel       logging.Level

	DataDir      string   `validate:"required"`
	MatchFiles   []string `validate:"min=1,dive,required"`
	MaxWorkers   int      `validate:"min=1,max=64"`
	DefaultsFile string
	ReportPath   string

	FeatureStoreEnabled     bool
	DBURL                   string `validate:"required_if=FeatureStoreEnabled true"`
	DBDisablePreparedBinary bool
	DBMaxOpenConns          int           `validate:"min=1"`
	DBTimeout               time.Duration `validate:"gt=0"`

	UptraceEnabled bool
	UptraceDSN     string `validate:"required_if=UptraceEnabled true"`

	PyroscopeEnabled       bool
	PyroscopeServerAddress string `validate:"required_if=PyroscopeEnabled true"`
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration `validate:"gt=0"`
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	maxWorkers, err := getEnvAsInt("ENRICH_MAX_WORKERS", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse ENRICH_MAX_WORKERS: %w", err)
	}

	featureStoreEnabled, err := strconv.ParseBool(getEnv("FEATURE_STORE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FEATURE_STORE_ENABLED: %w", err)
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	dbMaxOpenConns, err := getEnvAsInt("DB_MAX_OPEN_CONNS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_MAX_OPEN_CONNS: %w", err)
	}
	dbTimeout, err := time.ParseDuration(getEnv("DB_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_TIMEOUT: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}

	cfg := Config{
		AppEnv:                  appEnv,
		ServiceName:             strings.TrimSpace(getEnv("APP_SERVICE_NAME", "match-features-enricher")),
		ServiceVersion:          strings.TrimSpace(getEnv("APP_SERVICE_VERSION", "dev")),
		LogLevel:                logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		DataDir:                 strings.TrimSpace(getEnv("DATA_DIR", "data")),
		MatchFiles:              splitCSV(getEnv("ENRICH_MATCH_FILES", strings.Join(defaultMatchFiles, ","))),
		MaxWorkers:              maxWorkers,
		DefaultsFile:            strings.TrimSpace(getEnv("ENRICH_DEFAULTS_FILE", "")),
		ReportPath:              strings.TrimSpace(getEnv("ENRICH_REPORT_PATH", "")),
		FeatureStoreEnabled:     featureStoreEnabled,
		DBURL:                   strings.TrimSpace(getEnv("DB_URL", "")),
		DBDisablePreparedBinary: dbDisablePreparedBinary,
		DBMaxOpenConns:          dbMaxOpenConns,
		DBTimeout:               dbTimeout,
		UptraceEnabled:          uptraceEnabled,
		UptraceDSN:              strings.TrimSpace(getEnv("UPTRACE_DSN", "")),
		PyroscopeEnabled:        pyroscopeEnabled,
		PyroscopeServerAddress:  strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:      strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeUploadRate:     pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints; it is also used after CLI flags
// override loaded values.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
