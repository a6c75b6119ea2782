package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: KOINLINT_[SECTION]_[KEY] (e.g., KOINLINT_OUTPUT_FORMAT).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.GrammarsPath, "KOINLINT_GRAMMARS_PATH")
	setEnvString(&cfg.Parser.Backend, "KOINLINT_PARSER_BACKEND")

	setEnvInt(&cfg.Analysis.Workers, "KOINLINT_ANALYSIS_WORKERS")

	setEnvString(&cfg.Output.Format, "KOINLINT_OUTPUT_FORMAT")
	setEnvString(&cfg.Output.Path, "KOINLINT_OUTPUT_PATH")

	setEnvBool(&cfg.History.Enabled, "KOINLINT_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "KOINLINT_HISTORY_PATH")

	setEnvDuration(&cfg.Watch.Debounce, "KOINLINT_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.RatePerSecond, "KOINLINT_WATCH_RATE_PER_SECOND")

	setEnvString(&cfg.Observability.MetricsAddr, "KOINLINT_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "KOINLINT_OBSERVABILITY_OTLP_ENDPOINT")

	normalize(cfg)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
