package config

import (
	stderrors "errors"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"koinlint/internal/core/errors"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := errors.CodeInternal
		if os.IsNotExist(err) {
			code = errors.CodeNotFound
		}
		return nil, errors.AddContext(errors.Wrap(err, code, "read config"), errors.CtxPath, path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists and returns the defaults otherwise.
// An explicitly requested file that is missing is an error.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && !explicit {
		slog.Debug("config file not found, using defaults", "path", path)
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes, defaults and validates a TOML document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "decode config")
	}

	// [analysis] mixes the worker count with free-form analyzer options.
	var raw struct {
		Analysis map[string]any `toml:"analysis"`
	}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "decode analysis options")
	}
	cfg.Analysis.Options = analysisOptions(raw.Analysis)

	for _, key := range md.Undecoded() {
		if k := key.String(); !strings.HasPrefix(k, "analysis.") {
			slog.Warn("unknown config key", "key", k)
		}
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errors.Wrap(stderrors.Join(errs...), errors.CodeValidationError, "invalid config")
	}
	return &cfg, nil
}

func analysisOptions(table map[string]any) map[string]any {
	out := make(map[string]any, len(table))
	for k, v := range table {
		if k == "workers" {
			continue
		}
		out[k] = v
	}
	return out
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.ScanPaths) == 0 {
		cfg.ScanPaths = []string{"."}
	}
	if strings.TrimSpace(cfg.GrammarsPath) == "" {
		cfg.GrammarsPath = "grammars"
	}
	if strings.TrimSpace(cfg.Parser.Backend) == "" {
		cfg.Parser.Backend = "auto"
	}

	if cfg.Exclude.Dirs == nil {
		cfg.Exclude.Dirs = []string{".git", ".gradle", ".idea", "build"}
	}

	if cfg.Analysis.Workers <= 0 {
		cfg.Analysis.Workers = runtime.NumCPU()
	}
	if cfg.Analysis.Options == nil {
		cfg.Analysis.Options = map[string]any{}
	}

	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "text"
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "data/koinlint-history.db"
	}
	if cfg.History.BusyTimeout <= 0 {
		cfg.History.BusyTimeout = 5 * time.Second
	}

	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.RatePerSecond == 0 {
		cfg.Watch.RatePerSecond = 4
	}
	if cfg.Watch.Burst <= 0 {
		cfg.Watch.Burst = 1
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "koinlint"
	}
	if cfg.Observability.SampleRatio == 0 {
		cfg.Observability.SampleRatio = 1
	}
}

func normalize(cfg *Config) {
	cfg.Parser.Backend = strings.ToLower(strings.TrimSpace(cfg.Parser.Backend))
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Output.Path = strings.TrimSpace(cfg.Output.Path)
	cfg.History.Path = strings.TrimSpace(cfg.History.Path)
	cfg.Observability.MetricsAddr = strings.TrimSpace(cfg.Observability.MetricsAddr)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)

	paths := cfg.ScanPaths[:0]
	for _, p := range cfg.ScanPaths {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	cfg.ScanPaths = paths

	for id, rule := range cfg.Rules {
		rule.Severity = strings.ToLower(strings.TrimSpace(rule.Severity))
		cfg.Rules[id] = rule
	}
}
