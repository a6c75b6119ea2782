package app

import (
	"context"
	"fmt"
	"time"

	"koinlint/internal/shared/observability"
	"koinlint/internal/shared/util"
)

// Health reports the parser, last run and process state for /health.
func (a *App) Health(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if a.Parser != nil {
		status.Components["parser"] = a.Parser.SupplierName()
	} else {
		status.Status = "degraded"
		status.Components["parser"] = "missing"
	}

	last := a.CurrentUpdate().Report
	if last.RunID == "" {
		status.Components["last_run"] = "pending"
	} else {
		status.Components["last_run"] = fmt.Sprintf("ok (%d files, %d findings, %d skipped)",
			last.Stats.Files, last.FindingCount(), last.Stats.ParseErrors)
	}

	if a.history != nil {
		status.Components["history"] = a.history.Path()
	}

	status.Components["heap_mb"] = fmt.Sprintf("%d", util.GetHeapAllocMB())
	status.Components["goroutines"] = fmt.Sprintf("%d", util.GoroutineCount())

	if err := ctx.Err(); err != nil {
		status.Status = "degraded"
		status.Components["context"] = err.Error()
	}
	return status
}
