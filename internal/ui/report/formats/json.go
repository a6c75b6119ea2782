package formats

import (
	"encoding/json"
	"time"
)

type jsonReport struct {
	Tool        string        `json:"tool"`
	Version     string        `json:"version"`
	RunID       string        `json:"run_id,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
	Backend     string        `json:"backend,omitempty"`
	DurationMS  int64         `json:"duration_ms"`
	Summary     jsonSummary   `json:"summary"`
	Findings    []jsonFinding `json:"findings"`
	Skipped     []jsonSkipped `json:"skipped,omitempty"`
}

type jsonSummary struct {
	Files       int            `json:"files"`
	Modules     int            `json:"modules"`
	Bindings    int            `json:"bindings"`
	ParseErrors int            `json:"parse_errors"`
	Findings    int            `json:"findings"`
	ByRule      map[string]int `json:"by_rule"`
}

type jsonFinding struct {
	Rule      string `json:"rule"`
	Severity  string `json:"severity"`
	Path      string `json:"path"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"end_line"`
	EndColumn int    `json:"end_column"`
	Summary   string `json:"summary"`
	Message   string `json:"message"`
}

type jsonSkipped struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// JSON renders the report as an indented JSON document. Paths are relative to
// the project root.
func JSON(r Report) ([]byte, error) {
	out := jsonReport{
		Tool:        nonEmpty(r.Tool, "koinlint"),
		Version:     r.Version,
		RunID:       r.RunID,
		GeneratedAt: r.GeneratedAt.UTC(),
		Backend:     r.Backend,
		DurationMS:  r.Duration.Milliseconds(),
		Summary: jsonSummary{
			Files:       r.Stats.Files,
			Modules:     r.Stats.Modules,
			Bindings:    r.Stats.Bindings,
			ParseErrors: r.Stats.ParseErrors,
			Findings:    r.FindingCount(),
			ByRule:      r.Counts(),
		},
		Findings: make([]jsonFinding, 0),
	}
	for _, e := range r.Entries() {
		span := e.Finding.Span
		out.Findings = append(out.Findings, jsonFinding{
			Rule:      e.Finding.RuleID,
			Severity:  e.Severity.String(),
			Path:      relPath(r.ProjectRoot, e.Path),
			Line:      span.Start.Line,
			Column:    span.Start.Column,
			EndLine:   span.End.Line,
			EndColumn: span.End.Column,
			Summary:   Summary(e.Finding.Message),
			Message:   e.Finding.Message,
		})
	}
	for _, f := range r.Failed() {
		out.Skipped = append(out.Skipped, jsonSkipped{Path: relPath(r.ProjectRoot, f.Path), Error: f.Error})
	}
	return json.MarshalIndent(out, "", "  ")
}
