package formats

import (
	"sort"
	"strings"
	"time"

	"koinlint/internal/engine/koin"
	"koinlint/internal/engine/rules"
)

// Report is the renderer-neutral result of one analysis run.
type Report struct {
	Tool        string
	Version     string
	RunID       string
	ProjectRoot string
	GeneratedAt time.Time
	Backend     string
	Duration    time.Duration
	Stats       Stats
	Files       []FileReport
	Settings    map[string]rules.Setting
}

type Stats struct {
	Files       int
	Modules     int
	Bindings    int
	ParseErrors int
}

// FileReport holds the findings of one file, or the error that kept it from
// being analyzed.
type FileReport struct {
	Path     string
	Findings []koin.Finding
	Error    string
}

// Entry is one finding with its file and effective severity.
type Entry struct {
	Path     string
	Finding  koin.Finding
	Severity rules.Severity
}

// Entries flattens the report in path order; findings keep their per-file order.
func (r Report) Entries() []Entry {
	files := append([]FileReport(nil), r.Files...)
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	var out []Entry
	for _, f := range files {
		for _, finding := range f.Findings {
			out = append(out, Entry{Path: f.Path, Finding: finding, Severity: r.SeverityOf(finding.RuleID)})
		}
	}
	return out
}

// Failed returns the files that could not be analyzed, in path order.
func (r Report) Failed() []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if f.Error != "" {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// SeverityOf returns the configured severity of a rule.
func (r Report) SeverityOf(ruleID string) rules.Severity {
	if s, ok := r.Settings[ruleID]; ok {
		return s.Severity
	}
	if info, ok := rules.ByID(ruleID); ok {
		return info.Severity
	}
	return rules.SeverityWarning
}

// Counts returns the number of findings per rule.
func (r Report) Counts() map[string]int {
	counts := make(map[string]int)
	for _, f := range r.Files {
		for _, finding := range f.Findings {
			counts[finding.RuleID]++
		}
	}
	return counts
}

func (r Report) FindingCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Findings)
	}
	return n
}

// HasSeverity reports whether any finding is at least as severe as min.
func (r Report) HasSeverity(min rules.Severity) bool {
	for _, e := range r.Entries() {
		if e.Severity <= min {
			return true
		}
	}
	return false
}

// Summary returns the first line of a finding message.
func Summary(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(line)
}
