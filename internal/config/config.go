package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LZ26/esports-analytics/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the updater.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string

	DBURL string

	PandaScoreBaseURL            string
	PandaScoreToken              string
	PandaScoreTimeout            time.Duration
	PandaScoreMaxRetries         int
	PandaScoreRateLimitMaxPauses int
	PandaScoreRateLimitRPS       float64
	PandaScoreCircuitEnabled     bool
	PandaScoreCircuitFailures    int
	PandaScoreCircuitOpenFor     time.Duration
	PandaScoreCircuitHalfOpenReq int

	HistoryCacheTTL time.Duration

	AnalyticsStaleAfter time.Duration
	UpdateMaxWorkers    int

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	token := strings.TrimSpace(getEnv("PANDASCORE_API_KEY", ""))
	if token == "" {
		return Config{}, fmt.Errorf("PANDASCORE_API_KEY is required")
	}

	timeout, err := time.ParseDuration(getEnv("PANDASCORE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PANDASCORE_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("PANDASCORE_TIMEOUT must be > 0")
	}

	maxRetries, err := getEnvAsInt("PANDASCORE_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse PANDASCORE_MAX_RETRIES: %w", err)
	}
	if maxRetries < 0 {
		return Config{}, fmt.Errorf("PANDASCORE_MAX_RETRIES must be >= 0")
	}

	maxPauses, err := getEnvAsInt("PANDASCORE_RATE_LIMIT_MAX_PAUSES", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse PANDASCORE_RATE_LIMIT_MAX_PAUSES: %w", err)
	}
	if maxPauses <= 0 {
		return Config{}, fmt.Errorf("PANDASCORE_RATE_LIMIT_MAX_PAUSES must be > 0")
	}

	rps, err := getEnvAsFloat("PANDASCORE_RATE_LIMIT_RPS", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse PANDASCORE_RATE_LIMIT_RPS: %w", err)
	}
	if rps < 0 {
		return Config{}, fmt.Errorf("PANDASCORE_RATE_LIMIT_RPS must be >= 0")
	}

	circuitEnabled, err := strconv.ParseBool(getEnv("PANDASCORE_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PANDASCORE_CIRCUIT_ENABLED: %w", err)
	}
	circuitFailures, err := getEnvAsInt("PANDASCORE_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse PANDASCORE_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if circuitFailures <= 0 {
		return Config{}, fmt.Errorf("PANDASCORE_CIRCUIT_FAILURE_COUNT must be > 0")
	}
	circuitOpenFor, err := time.ParseDuration(getEnv("PANDASCORE_CIRCUIT_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PANDASCORE_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if circuitOpenFor <= 0 {
		return Config{}, fmt.Errorf("PANDASCORE_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	circuitHalfOpenReq, err := getEnvAsInt("PANDASCORE_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse PANDASCORE_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if circuitHalfOpenReq <= 0 {
		return Config{}, fmt.Errorf("PANDASCORE_CIRCUIT_HALF_OPEN_MAX_REQ must be > 0")
	}

	historyCacheTTL, err := time.ParseDuration(getEnv("HISTORY_CACHE_TTL", "6h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HISTORY_CACHE_TTL: %w", err)
	}
	if historyCacheTTL <= 0 {
		return Config{}, fmt.Errorf("HISTORY_CACHE_TTL must be > 0")
	}

	staleAfter, err := time.ParseDuration(getEnv("ANALYTICS_STALE_AFTER", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ANALYTICS_STALE_AFTER: %w", err)
	}
	if staleAfter <= 0 {
		return Config{}, fmt.Errorf("ANALYTICS_STALE_AFTER must be > 0")
	}

	maxWorkers, err := getEnvAsInt("UPDATE_MAX_WORKERS", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPDATE_MAX_WORKERS: %w", err)
	}
	if maxWorkers <= 0 {
		return Config{}, fmt.Errorf("UPDATE_MAX_WORKERS must be > 0")
	}

	return Config{
		AppEnv:                       appEnv,
		ServiceName:                  getEnv("SERVICE_NAME", "esports-analytics"),
		ServiceVersion:               getEnv("SERVICE_VERSION", "dev"),
		DBURL:                        strings.TrimSpace(getEnv("DB_URL", "")),
		PandaScoreBaseURL:            strings.TrimSpace(getEnv("PANDASCORE_BASE_URL", "https://api.pandascore.co")),
		PandaScoreToken:              token,
		PandaScoreTimeout:            timeout,
		PandaScoreMaxRetries:         maxRetries,
		PandaScoreRateLimitMaxPauses: maxPauses,
		PandaScoreRateLimitRPS:       rps,
		PandaScoreCircuitEnabled:     circuitEnabled,
		PandaScoreCircuitFailures:    circuitFailures,
		PandaScoreCircuitOpenFor:     circuitOpenFor,
		PandaScoreCircuitHalfOpenReq: circuitHalfOpenReq,
		HistoryCacheTTL:              historyCacheTTL,
		AnalyticsStaleAfter:          staleAfter,
		UpdateMaxWorkers:             maxWorkers,
		LogLevel:                     parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
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

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}

	return out, nil
}
