package cli

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	coreapp "koinlint/internal/core/app"
	"koinlint/internal/core/config"
	"koinlint/internal/engine/rules"
	"koinlint/internal/shared/observability"
	"koinlint/internal/shared/version"
	"koinlint/internal/ui/report"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitFindings = 2
)

// Run executes the command line and returns the process exit code: 0 when
// clean, 1 on failure, 2 when -once finds error-severity findings.
func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitFailure
	}

	if opts.version {
		fmt.Fprintf(stdout, "%s v%s\n", version.Name, version.Version)
		return exitOK
	}

	cleanupLogs := configureLogging(stderr, "", opts.verbose)
	defer func() { cleanupLogs() }()

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to detect working directory", "error", err)
		return exitFailure
	}

	cfg, cfgPath, err := loadConfig(opts, cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return exitFailure
	}

	if opts.listRules {
		if err := rules.RenderTable(stdout, rules.All(), cfg.RuleSettings()); err != nil {
			return exitFailure
		}
		return exitOK
	}
	if opts.rule != "" {
		info, ok := rules.ByID(opts.rule)
		if !ok {
			fmt.Fprintf(stderr, "unknown rule %q; see -list-rules\n", opts.rule)
			return exitFailure
		}
		if err := rules.RenderDetails(stdout, info); err != nil {
			return exitFailure
		}
		return exitOK
	}

	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		slog.Error("failed to resolve runtime paths", "error", err)
		return exitFailure
	}

	if opts.installGrammar {
		return installGrammar(stdout, paths.GrammarsPath, opts.grammarRepo)
	}
	if opts.verifyGrammars {
		return verifyGrammars(stdout, cfg, paths.GrammarsPath)
	}

	if opts.ui {
		cleanupLogs()
		cleanupLogs = configureLogging(stderr, paths.LogFile, opts.verbose)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Endpoint:    cfg.Observability.OTLPEndpoint,
		ServiceName: cfg.Observability.ServiceName,
		SampleRatio: cfg.Observability.SampleRatio,
		Insecure:    true,
	})
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		return exitFailure
	}
	defer flushTracing(shutdownTracing)

	app, err := coreapp.New(cfg, paths)
	if err != nil {
		slog.Error("failed to initialize analyzer", "error", err)
		return exitFailure
	}
	defer app.Close()

	if opts.trends > 0 {
		return printTrends(stdout, app, opts.trends, opts.trendWindow, cfg.Output.Format)
	}

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		srv := observability.NewServer(addr, app.Health)
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "addr", addr, "error", err)
			return exitFailure
		}
		defer stopServer(srv)
	}

	if opts.ui {
		app.SetOutput(nil)
	} else {
		app.SetOutput(stdout)
	}

	result, err := app.Run(ctx)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		return exitFailure
	}

	if opts.once {
		if result.HasSeverity(rules.SeverityError) {
			return exitFindings
		}
		return exitOK
	}

	if opts.ui {
		if err := runUI(ctx, app, cfgPath); err != nil {
			slog.Error("failed to run UI", "error", err)
			return exitFailure
		}
		return exitOK
	}

	if err := app.Watch(ctx, cfgPath); err != nil {
		slog.Error("watch failed", "error", err)
		return exitFailure
	}
	return exitOK
}

// loadConfig returns the config and the path it was read from, empty when
// the defaults were used.
func loadConfig(opts cliOptions, cwd string) (*config.Config, string, error) {
	path := opts.configPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	cfg, err := config.LoadOrDefault(path, opts.configExplicit)
	if err != nil {
		return nil, "", err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		path = ""
	}

	config.ApplyEnvOverrides(cfg)
	applyOverrides(opts, cfg)
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, "", stderrors.Join(errs...)
	}
	return cfg, path, nil
}

func printTrends(w io.Writer, app *coreapp.App, limit int, window time.Duration, format string) int {
	trend, err := app.Trends(limit, window)
	if err != nil {
		slog.Error("failed to build trend report", "error", err)
		return exitFailure
	}
	if format == report.FormatJSON {
		err = report.RenderTrendJSON(w, trend)
	} else {
		err = report.RenderTrendTable(w, trend)
	}
	if err != nil {
		slog.Error("failed to render trend report", "error", err)
		return exitFailure
	}
	return exitOK
}

func flushTracing(shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		slog.Warn("failed to flush traces", "error", err)
	}
}

func stopServer(srv *observability.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		slog.Warn("failed to stop observability server", "error", err)
	}
}

// configureLogging installs the default slog logger. With a logPath the
// logs go to that file so they do not tear the terminal UI.
func configureLogging(fallback io.Writer, logPath string, verbose bool) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := fallback
	closeFn := func() {}
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(fallback, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
			fmt.Fprintf(fallback, "warning: refusing to write logs to symlink path %s\n", logPath)
		} else {
			f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
			if err == nil {
				output = f
				closeFn = func() { _ = f.Close() }
			} else {
				fmt.Fprintf(fallback, "warning: failed to open log file %s: %v\n", logPath, err)
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}
