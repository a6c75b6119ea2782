package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"koinlint/internal/engine/koin"
	"koinlint/internal/shared/observability"
	"koinlint/internal/ui/report/formats"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Run scans the configured paths, analyzes every file and publishes the
// report. Previous results are replaced.
func (a *App) Run(ctx context.Context) (formats.Report, error) {
	ctx, span := observability.Tracer.Start(ctx, "koinlint.run")
	defer span.End()
	start := time.Now()

	files, err := a.currentScanner().Scan(uniqueRoots(a.Paths.ScanPaths))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan failed")
		return formats.Report{}, err
	}
	slog.Debug("scan complete", "files", len(files))

	results, err := a.analyzeFiles(ctx, files)
	if err != nil {
		span.RecordError(err)
		return formats.Report{}, err
	}

	a.mu.Lock()
	a.results = results
	a.mu.Unlock()

	span.SetAttributes(attribute.Int("files", len(files)))
	return a.publish(start)
}

// HandleChanges re-analyzes the changed files and publishes a new report.
// Deleted or newly excluded files drop out of the results.
func (a *App) HandleChanges(ctx context.Context, paths []string) (formats.Report, error) {
	slog.Info("detected changes", "count", len(paths))
	ctx, span := observability.Tracer.Start(ctx, "koinlint.changes", trace.WithAttributes(attribute.Int("paths", len(paths))))
	defer span.End()
	start := time.Now()

	scanner := a.currentScanner()
	var changed, removed []string
	for _, path := range paths {
		path = filepath.Clean(path)
		if _, err := os.Stat(path); os.IsNotExist(err) || !scanner.Accepts(path) {
			removed = append(removed, path)
			continue
		}
		changed = append(changed, path)
	}

	results, err := a.analyzeFiles(ctx, changed)
	if err != nil {
		span.RecordError(err)
		return formats.Report{}, err
	}

	a.mu.Lock()
	for _, path := range removed {
		delete(a.results, path)
	}
	for path, res := range results {
		a.results[path] = res
	}
	a.mu.Unlock()

	return a.publish(start)
}

func (a *App) analyzeFiles(ctx context.Context, paths []string) (map[string]fileResult, error) {
	defer observeTask("analyze", time.Now())

	opts := a.currentOptions()
	out := make([]fileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, a.Config.Analysis.Workers))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = a.analyzeFile(gctx, path, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make(map[string]fileResult, len(out))
	for _, res := range out {
		results[res.report.Path] = res
	}
	return results, nil
}

// analyzeFile never fails: read and parse errors are recorded on the result.
func (a *App) analyzeFile(ctx context.Context, path string, opts koin.Options) fileResult {
	_, span := observability.Tracer.Start(ctx, "koinlint.file", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	res := fileResult{report: formats.FileReport{Path: path}}
	backend := a.Parser.SupplierName()
	fail := func(err error) fileResult {
		slog.Warn("failed to analyze file", "path", path, "error", err)
		observability.ParseErrorsTotal.WithLabelValues(backend).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "file skipped")
		res.report.Error = err.Error()
		return res
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}

	parseStart := time.Now()
	file, err := a.Parser.ParseFile(path, content)
	observability.ParsingDuration.WithLabelValues(backend).Observe(time.Since(parseStart).Seconds())
	if err != nil {
		return fail(err)
	}

	model := koin.Build(file, opts)
	findings := koin.Check(file, model, opts)
	observability.FilesAnalyzedTotal.Inc()
	for _, f := range findings {
		observability.FindingsTotal.WithLabelValues(f.RuleID).Inc()
	}

	res.parsed = true
	res.modules = len(model.Blocks)
	res.bindings = len(model.Bindings)
	res.report.Findings = findings
	span.SetAttributes(
		attribute.Int("modules", res.modules),
		attribute.Int("bindings", res.bindings),
		attribute.Int("findings", len(findings)),
	)
	return res
}

func observeTask(task string, start time.Time) {
	observability.AnalysisDuration.WithLabelValues(task).Observe(time.Since(start).Seconds())
}
