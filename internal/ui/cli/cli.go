package cli

import (
	"flag"
	"io"
	"strings"
	"time"

	"koinlint/internal/core/config"
	"koinlint/internal/shared/version"
)

type cliOptions struct {
	configPath     string
	configExplicit bool
	once           bool
	ui             bool
	format         string
	out            string
	backend        string
	listRules      bool
	rule           string
	trends         int
	trendWindow    time.Duration
	metricsAddr    string
	installGrammar bool
	grammarRepo    string
	verifyGrammars bool
	verbose        bool
	version        bool
	args           []string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet(version.Name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", config.DefaultFile, "Path to config file")
	fs.BoolVar(&opts.once, "once", false, "Analyze once and exit")
	fs.BoolVar(&opts.ui, "ui", false, "Browse findings in a terminal UI while watching")
	fs.StringVar(&opts.format, "format", "", "Output format: text, json, markdown or sarif")
	fs.StringVar(&opts.out, "out", "", "Write the report to this file instead of stdout")
	fs.StringVar(&opts.backend, "backend", "", "Parser backend: auto, tree-sitter or builtin")
	fs.BoolVar(&opts.listRules, "list-rules", false, "List rules with their effective settings and exit")
	fs.StringVar(&opts.rule, "rule", "", "Describe one rule and exit")
	fs.IntVar(&opts.trends, "trends", 0, "Print trends over the last N recorded runs and exit (requires history)")
	fs.DurationVar(&opts.trendWindow, "trend-window", 24*time.Hour, "Moving-average window for -trends")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address")
	fs.BoolVar(&opts.installGrammar, "install-grammar", false, "Build the Kotlin tree-sitter grammar into grammars_path and exit")
	fs.StringVar(&opts.grammarRepo, "grammar-repo", "", "Repository for -install-grammar")
	fs.BoolVar(&opts.verifyGrammars, "verify-grammars", false, "Verify grammar artifacts against grammars_path/manifest.toml and exit")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			opts.configExplicit = true
		}
	})

	opts.args = fs.Args()
	return opts, nil
}

// applyOverrides copies command-line settings over the loaded config.
func applyOverrides(opts cliOptions, cfg *config.Config) {
	if opts.format != "" {
		cfg.Output.Format = strings.ToLower(strings.TrimSpace(opts.format))
	}
	if opts.out != "" {
		cfg.Output.Path = opts.out
	}
	if opts.backend != "" {
		cfg.Parser.Backend = strings.ToLower(strings.TrimSpace(opts.backend))
	}
	if opts.metricsAddr != "" {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
	if len(opts.args) > 0 {
		cfg.ScanPaths = append([]string(nil), opts.args...)
	}
}
