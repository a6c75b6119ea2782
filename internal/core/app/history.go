package app

import (
	"log/slog"
	"time"

	"koinlint/internal/core/errors"
	"koinlint/internal/data/history"
	"koinlint/internal/shared/observability"
	"koinlint/internal/ui/report/formats"
)

// HistoryEnabled reports whether runs are recorded.
func (a *App) HistoryEnabled() bool {
	return a.history != nil
}

func (a *App) recordRun(r formats.Report) {
	if a.history == nil {
		return
	}
	run := history.Run{
		ID:              r.RunID,
		ProjectKey:      a.Paths.ProjectRoot,
		Timestamp:       r.GeneratedAt,
		Duration:        r.Duration,
		Backend:         r.Backend,
		FileCount:       r.Stats.Files,
		ModuleCount:     r.Stats.Modules,
		BindingCount:    r.Stats.Bindings,
		ParseErrorCount: r.Stats.ParseErrors,
		FindingCount:    r.FindingCount(),
		RuleCounts:      r.Counts(),
	}
	if _, err := a.history.SaveRun(run); err != nil {
		observability.HistoryWriteErrorsTotal.Inc()
		slog.Warn("failed to record run", "path", a.history.Path(), "error", err)
		return
	}

	keep := a.Config.History.Retention
	if keep <= 0 {
		return
	}
	pruned, err := a.history.Prune(a.Paths.ProjectRoot, keep)
	if err != nil {
		slog.Warn("failed to prune run history", "error", err)
		return
	}
	if pruned > 0 {
		slog.Debug("pruned run history", "runs", pruned, "keep", keep)
	}
}

// Trends builds a trend report over the last limit runs (all runs when
// limit <= 0) with a moving average over window.
func (a *App) Trends(limit int, window time.Duration) (history.TrendReport, error) {
	if a.history == nil {
		return history.TrendReport{}, errors.New(errors.CodeNotSupported, "run history is disabled; set history.enabled = true")
	}
	runs, err := a.history.RecentRuns(a.Paths.ProjectRoot, limit)
	if err != nil {
		return history.TrendReport{}, errors.Wrap(err, errors.CodeInternal, "load run history")
	}
	if len(runs) == 0 {
		return history.TrendReport{}, errors.New(errors.CodeNotFound, "no runs recorded for this project")
	}
	return history.BuildTrendReport(runs, window)
}
