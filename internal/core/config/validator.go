package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"koinlint/internal/engine/koin"
	"koinlint/internal/engine/rules"

	"github.com/gobwas/glob"
)

var (
	validBackends = []string{"auto", "tree-sitter", "builtin"}
	validFormats  = []string{"text", "json", "markdown", "sarif"}
)

// listOptions are the analyzer options that must be TOML arrays of strings.
var listOptions = map[string]bool{
	koin.OptModuleBuilders:         true,
	koin.OptIncludeVerbs:           true,
	koin.OptDefinitionVerbs:        true,
	koin.OptScopeVerbs:             true,
	koin.OptRequestVerbs:           true,
	koin.OptContainerTypes:         true,
	koin.OptImplementationSuffixes: true,
}

// Validate returns every problem found in cfg. Defaults must already be applied.
func Validate(cfg *Config) []error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(validateVersion(cfg))
	add(validateScanPaths(cfg))
	add(validateGrammarsPath(cfg))
	add(validateParser(cfg))
	errs = append(errs, validateExclude(cfg)...)
	errs = append(errs, validateOptions("analysis", cfg.Analysis.Options)...)
	errs = append(errs, validateRules(cfg)...)
	add(validateOutput(cfg))
	add(validateHistory(cfg))
	add(validateWatch(cfg))
	add(validateObservability(cfg))
	return errs
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateScanPaths(cfg *Config) error {
	if len(cfg.ScanPaths) == 0 {
		return fmt.Errorf("scan_paths must contain at least one path")
	}
	return nil
}

func validateGrammarsPath(cfg *Config) error {
	info, err := os.Stat(cfg.GrammarsPath)
	if err != nil {
		// a missing directory only disables the tree-sitter backend
		return nil
	}
	if !info.IsDir() {
		return fmt.Errorf("grammars_path %q is not a directory", cfg.GrammarsPath)
	}
	return nil
}

func validateParser(cfg *Config) error {
	if !contains(validBackends, cfg.Parser.Backend) {
		return fmt.Errorf("parser.backend must be one of: %s, got %q", strings.Join(validBackends, ", "), cfg.Parser.Backend)
	}
	return nil
}

func validateExclude(cfg *Config) []error {
	var errs []error
	for i, pattern := range cfg.Exclude.Files {
		if strings.TrimSpace(pattern) == "" {
			errs = append(errs, fmt.Errorf("exclude.files[%d] must not be empty", i))
			continue
		}
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("exclude.files[%d] %q is not a valid glob: %w", i, pattern, err))
		}
	}
	for i, dir := range cfg.Exclude.Dirs {
		if strings.TrimSpace(dir) == "" {
			errs = append(errs, fmt.Errorf("exclude.dirs[%d] must not be empty", i))
		}
	}
	return errs
}

func validateRules(cfg *Config) []error {
	var errs []error
	ids := make([]string, 0, len(cfg.Rules))
	for id := range cfg.Rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rule := cfg.Rules[id]
		if !rules.Known(id) {
			errs = append(errs, fmt.Errorf("rules.%s: unknown rule", id))
			continue
		}
		if rule.Severity != "" {
			if _, err := rules.ParseSeverity(rule.Severity); err != nil {
				errs = append(errs, fmt.Errorf("rules.%s.severity: %w", id, err))
			}
		}
		errs = append(errs, validateOptions("rules."+id+".options", rule.Options)...)
	}
	return errs
}

// validateOptions checks option value shapes: list options must be arrays of
// strings and the findings cap must be a non-negative integer.
func validateOptions(section string, opts map[string]any) []error {
	var errs []error
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := opts[key]
		switch {
		case listOptions[key]:
			if !isStringList(value) {
				errs = append(errs, fmt.Errorf("%s.%s must be a list of strings, got %T", section, key, value))
			}
		case key == koin.OptMaxFindingsPerRule:
			n, ok := value.(int64)
			if !ok || n < 0 {
				errs = append(errs, fmt.Errorf("%s.%s must be a non-negative integer", section, key))
			}
		}
	}
	return errs
}

func isStringList(v any) bool {
	switch list := v.(type) {
	case []string:
		return true
	case []any:
		for _, item := range list {
			if _, ok := item.(string); !ok {
				return false
			}
		}
		return true
	}
	return false
}

func validateOutput(cfg *Config) error {
	if !contains(validFormats, cfg.Output.Format) {
		return fmt.Errorf("output.format must be one of: %s, got %q", strings.Join(validFormats, ", "), cfg.Output.Format)
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if cfg.History.Enabled && cfg.History.Path == "" {
		return fmt.Errorf("history.path must not be empty when history is enabled")
	}
	if cfg.History.Retention < 0 {
		return fmt.Errorf("history.retention must be >= 0, got %d", cfg.History.Retention)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.RatePerSecond < 0 {
		return fmt.Errorf("watch.rate_per_second must not be negative")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if cfg.Observability.SampleRatio < 0 || cfg.Observability.SampleRatio > 1 {
		return fmt.Errorf("observability.sample_ratio must be within [0, 1], got %v", cfg.Observability.SampleRatio)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
