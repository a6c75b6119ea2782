package config

import (
	"time"
)

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "koinlint.toml"

type Config struct {
	Version             int                     `toml:"version"`
	ScanPaths           []string                `toml:"scan_paths"`
	GrammarsPath        string                  `toml:"grammars_path"`
	Paths               Paths                   `toml:"paths"`
	Parser              Parser                  `toml:"parser"`
	GrammarVerification GrammarVerification     `toml:"grammar_verification"`
	Exclude             Exclude                 `toml:"exclude"`
	Analysis            Analysis                `toml:"analysis"`
	Rules               map[string]RuleSettings `toml:"rules"`
	Output              Output                  `toml:"output"`
	History             History                 `toml:"history"`
	Watch               Watch                   `toml:"watch"`
	Observability       Observability           `toml:"observability"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	StateDir    string `toml:"state_dir"`
}

type Parser struct {
	Backend string `toml:"backend"`
}

type GrammarVerification struct {
	Enabled *bool `toml:"enabled"`
}

type Exclude struct {
	Dirs             []string `toml:"dirs"`
	Files            []string `toml:"files"`
	RespectGitignore *bool    `toml:"respect_gitignore"`
}

// Analysis holds the worker count and the option values shared by every rule.
// Keys other than workers are passed through to the analyzer as options.
type Analysis struct {
	Workers int            `toml:"workers"`
	Options map[string]any `toml:"-"`
}

// RuleSettings configures one rule.
type RuleSettings struct {
	Active   *bool          `toml:"active"`
	Severity string         `toml:"severity"`
	Options  map[string]any `toml:"options"`
}

type Output struct {
	Format string `toml:"format"`
	Path   string `toml:"path"`
	Color  *bool  `toml:"color"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
	Retention   int           `toml:"retention"`
}

type Watch struct {
	Debounce      time.Duration `toml:"debounce"`
	RatePerSecond float64       `toml:"rate_per_second"`
	Burst         int           `toml:"burst"`
	ReloadConfig  bool          `toml:"reload_config"`
}

type Observability struct {
	MetricsAddr  string  `toml:"metrics_addr"`
	OTLPEndpoint string  `toml:"otlp_endpoint"`
	ServiceName  string  `toml:"service_name"`
	SampleRatio  float64 `toml:"sample_ratio"`
}

func (g GrammarVerification) IsEnabled() bool {
	if g.Enabled == nil {
		return true
	}
	return *g.Enabled
}

func (e Exclude) GitignoreEnabled() bool {
	if e.RespectGitignore == nil {
		return true
	}
	return *e.RespectGitignore
}

func (o Output) ColorEnabled() bool {
	if o.Color == nil {
		return true
	}
	return *o.Color
}

// IsActive reports whether the rule is switched on. Rules are active unless configured off.
func (r RuleSettings) IsActive() bool {
	if r.Active == nil {
		return true
	}
	return *r.Active
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
