package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koinlint/internal/core/errors"
	"koinlint/internal/engine/koin"
	"koinlint/internal/engine/rules"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version = 1
scan_paths = ["app/src/main"]
grammars_path = "./grammars"

[parser]
backend = "Builtin"

[grammar_verification]
enabled = false

[exclude]
dirs = [".git"]
files = ["**/*Test.kt"]
respect_gitignore = false

[analysis]
workers = 3
module_builders = ["module", "koinModule"]
max_findings_per_rule = 50

[rules.GenericDefinitionWithoutQualifier]
severity = "error"
[rules.GenericDefinitionWithoutQualifier.options]
container_types = ["List", "Set"]

[rules.EnumQualifierCollision]
active = false

[output]
format = "sarif"
path = "koinlint.sarif"

[history]
enabled = true

[watch]
debounce = "1s"
rate_per_second = 2.5

[observability]
metrics_addr = ":9464"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"app/src/main"}, cfg.ScanPaths)
	assert.Equal(t, "./grammars", cfg.GrammarsPath)
	assert.Equal(t, "builtin", cfg.Parser.Backend)
	assert.False(t, cfg.GrammarVerification.IsEnabled())
	assert.False(t, cfg.Exclude.GitignoreEnabled())
	assert.Equal(t, []string{"**/*Test.kt"}, cfg.Exclude.Files)
	assert.Equal(t, 3, cfg.Analysis.Workers)
	assert.Equal(t, map[string]any{
		"module_builders":       []any{"module", "koinModule"},
		"max_findings_per_rule": int64(50),
	}, cfg.Analysis.Options)
	assert.Equal(t, "sarif", cfg.Output.Format)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "data/koinlint-history.db", cfg.History.Path)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 2.5, cfg.Watch.RatePerSecond)
	assert.Equal(t, ":9464", cfg.Observability.MetricsAddr)

	opts := cfg.AnalyzerOptions()
	assert.True(t, opts.Disabled[koin.RuleEnumQualifierCollision])
	assert.False(t, opts.Enabled(koin.RuleEnumQualifierCollision))
	assert.Equal(t, 50, opts.Int(koin.RuleCircularModuleDependency, koin.OptMaxFindingsPerRule, 0))
	assert.Equal(t, map[string]bool{"List": true, "Set": true},
		opts.StringSet(koin.RuleGenericDefinitionWithoutQualifier, koin.OptContainerTypes, nil))

	settings := cfg.RuleSettings()
	assert.Len(t, settings, len(koin.RuleIDs))
	assert.Equal(t, rules.Setting{Active: true, Severity: rules.SeverityError}, settings[koin.RuleGenericDefinitionWithoutQualifier])
	assert.Equal(t, rules.Setting{Active: false, Severity: rules.SeverityWarning}, settings[koin.RuleEnumQualifierCollision])
	assert.Equal(t, rules.Setting{Active: true, Severity: rules.SeverityWarning}, settings[koin.RuleCircularModuleDependency])
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, []string{"."}, cfg.ScanPaths)
	assert.Equal(t, "auto", cfg.Parser.Backend)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Positive(t, cfg.Analysis.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, 1, cfg.Watch.Burst)
	assert.True(t, cfg.GrammarVerification.IsEnabled())
	assert.True(t, cfg.Exclude.GitignoreEnabled())
	assert.True(t, cfg.Output.ColorEnabled())
	assert.Contains(t, cfg.Exclude.Dirs, "build")
	assert.Empty(t, Validate(cfg))

	opts := cfg.AnalyzerOptions()
	for _, id := range koin.RuleIDs {
		assert.True(t, opts.Enabled(id), id)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	_, err = Load(writeConfig(t, "version = [1"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	_, err = Load(writeConfig(t, `
[rules.NoSuchRule]
active = true

[output]
format = "xml"
`))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
	assert.ErrorContains(t, err, "rules.NoSuchRule: unknown rule")
	assert.ErrorContains(t, err, `output.format must be one of: text, json, markdown, sarif, got "xml"`)
}

func TestLoadOrDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), DefaultFile)

	cfg, err := LoadOrDefault(missing, false)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Output.Format)

	_, err = LoadOrDefault(missing, true)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("KOINLINT_OUTPUT_FORMAT", " JSON ")
	t.Setenv("KOINLINT_ANALYSIS_WORKERS", "7")
	t.Setenv("KOINLINT_HISTORY_ENABLED", "TRUE")
	t.Setenv("KOINLINT_WATCH_DEBOUNCE", "2s")
	t.Setenv("KOINLINT_WATCH_RATE_PER_SECOND", "not-a-number")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 7, cfg.Analysis.Workers)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, float64(4), cfg.Watch.RatePerSecond)
}
