package app

import (
	"log/slog"
	"time"

	"koinlint/internal/shared/observability"
	"koinlint/internal/shared/util"
	"koinlint/internal/shared/version"
	"koinlint/internal/ui/report/formats"

	"github.com/google/uuid"
)

// publish turns the current results into a report, then records, writes and
// broadcasts it. The report is returned even when writing fails.
func (a *App) publish(start time.Time) (formats.Report, error) {
	r := a.buildReport(time.Since(start))

	a.mu.Lock()
	a.last = r
	a.mu.Unlock()

	observability.ModuleNodes.Set(float64(r.Stats.Modules))
	observability.BindingRecords.Set(float64(r.Stats.Bindings))

	a.recordRun(r)
	err := a.writeOutput(r)
	if err != nil {
		slog.Error("failed to write report", "error", err)
	}
	a.emitUpdate(Update{Report: r})

	slog.Info("analysis complete",
		"files", r.Stats.Files,
		"modules", r.Stats.Modules,
		"bindings", r.Stats.Bindings,
		"findings", r.FindingCount(),
		"duration", r.Duration,
	)
	return r, err
}

func (a *App) buildReport(elapsed time.Duration) formats.Report {
	a.mu.RLock()
	defer a.mu.RUnlock()

	r := formats.Report{
		Tool:        version.Name,
		Version:     version.Version,
		RunID:       uuid.NewString(),
		ProjectRoot: a.Paths.ProjectRoot,
		GeneratedAt: time.Now().UTC(),
		Backend:     a.Parser.SupplierName(),
		Duration:    elapsed,
		Settings:    a.settings,
		Files:       make([]formats.FileReport, 0, len(a.results)),
	}
	for _, path := range util.SortedStringKeys(a.results) {
		res := a.results[path]
		r.Files = append(r.Files, res.report)
		r.Stats.Files++
		r.Stats.Modules += res.modules
		r.Stats.Bindings += res.bindings
		if !res.parsed {
			r.Stats.ParseErrors++
		}
	}
	return r
}
