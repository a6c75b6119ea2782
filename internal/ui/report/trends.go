package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"koinlint/internal/data/history"
	"koinlint/internal/shared/util"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderTrendTable writes one row per run with the deltas against the previous run.
func RenderTrendTable(w io.Writer, report history.TrendReport) error {
	if len(report.Points) == 0 {
		_, err := fmt.Fprintln(w, "no recorded runs")
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s: %d runs, %s window", report.ProjectKey, report.RunCount, report.Window))
	t.AppendHeader(table.Row{"Run", "Time", "Files", "Modules", "Findings", "Δ", "Avg", "Rule changes"})
	for _, p := range report.Points {
		t.AppendRow(table.Row{
			shortID(p.RunID),
			p.Timestamp.UTC().Format(time.RFC3339),
			p.FileCount,
			p.ModuleCount,
			p.FindingCount,
			signed(p.DeltaFindings),
			fmt.Sprintf("%.2f", p.AvgFindings),
			ruleChanges(p.RuleDeltas),
		})
	}
	t.Render()
	return nil
}

// RenderTrendJSON writes the report as indented JSON.
func RenderTrendJSON(w io.Writer, report history.TrendReport) error {
	if report.Points == nil {
		report.Points = []history.TrendPoint{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

func ruleChanges(deltas map[string]int) string {
	if len(deltas) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(deltas))
	for _, id := range util.SortedStringKeys(deltas) {
		parts = append(parts, id+" "+signed(deltas[id]))
	}
	return strings.Join(parts, ", ")
}
