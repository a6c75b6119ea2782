package formats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"koinlint/internal/engine/rules"
)

type MarkdownReportOptions struct {
	ProjectName         string
	Verbosity           string
	TableOfContents     bool
	CollapsibleSections bool
}

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

func (m *MarkdownGenerator) Generate(r Report, opts MarkdownReportOptions) (string, error) {
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}
	verbosity := normalizeReportVerbosity(opts.Verbosity)
	counts := r.Counts()
	byRule := groupByRule(r.Entries())

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: Koin Analysis Report\n")
	b.WriteString("project: " + nonEmpty(opts.ProjectName, "unknown") + "\n")
	b.WriteString("generated_at: " + r.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(r.Version, "unknown") + "\n")
	if r.RunID != "" {
		b.WriteString("run_id: " + r.RunID + "\n")
	}
	b.WriteString("---\n\n")

	b.WriteString("# Koin Analysis Report\n\n")
	if opts.TableOfContents {
		b.WriteString("## Table of Contents\n")
		b.WriteString("- [Executive Summary](#executive-summary)\n")
		for _, info := range rules.All() {
			if len(byRule[info.ID]) > 0 {
				fmt.Fprintf(&b, "- [%s](#%s)\n", info.ID, strings.ToLower(info.ID))
			}
		}
		if len(r.Failed()) > 0 {
			b.WriteString("- [Skipped Files](#skipped-files)\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Executive Summary\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	fmt.Fprintf(&b, "| Files | %d |\n", r.Stats.Files)
	fmt.Fprintf(&b, "| Koin Modules | %d |\n", r.Stats.Modules)
	fmt.Fprintf(&b, "| Bindings | %d |\n", r.Stats.Bindings)
	fmt.Fprintf(&b, "| Skipped Files | %d |\n", r.Stats.ParseErrors)
	fmt.Fprintf(&b, "| Findings | %d |\n\n", r.FindingCount())

	if r.FindingCount() == 0 {
		b.WriteString("No Koin anti-patterns detected.\n\n")
	} else {
		b.WriteString("| Rule | Severity | Findings |\n")
		b.WriteString("| --- | --- | --- |\n")
		for _, info := range rules.All() {
			if counts[info.ID] == 0 {
				continue
			}
			fmt.Fprintf(&b, "| `%s` | %s | %d |\n", info.ID, r.SeverityOf(info.ID), counts[info.ID])
		}
		b.WriteString("\n")
	}

	for _, info := range rules.All() {
		entries := byRule[info.ID]
		if len(entries) == 0 {
			continue
		}
		m.writeRule(&b, r.ProjectRoot, info, entries, opts.CollapsibleSections, verbosity)
	}

	if failed := r.Failed(); len(failed) > 0 {
		b.WriteString("## Skipped Files\n")
		rows := make([]string, 0, len(failed))
		for _, f := range failed {
			rows = append(rows, fmt.Sprintf("| `%s` | %s |\n", relPath(r.ProjectRoot, f.Path), escapeCell(f.Error)))
		}
		m.writeTableWithCollapse(&b, "Skipped file details", opts.CollapsibleSections, len(rows) > 10,
			[]string{"| File | Error |\n", "| --- | --- |\n"}, rows)
	}

	return b.String(), nil
}

func (m *MarkdownGenerator) writeRule(b *strings.Builder, root string, info rules.RuleInfo, entries []Entry, collapsible bool, verbosity string) {
	fmt.Fprintf(b, "## %s\n", info.ID)
	fmt.Fprintf(b, "%s\n\n", info.Description)
	if verbosity == "detailed" && info.Rationale != "" {
		fmt.Fprintf(b, "> %s\n\n", info.Rationale)
	}

	rows := make([]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, fmt.Sprintf("| `%s` | %s |\n", location(root, e.Path, e.Finding.Span), escapeCell(Summary(e.Finding.Message))))
	}
	m.writeTableWithCollapse(b, info.ID+" details", collapsible, len(rows) > 10,
		[]string{"| Location | Finding |\n", "| --- | --- |\n"}, rows)

	if verbosity == "summary" {
		return
	}
	// The full message of the first finding carries the rule's bad/good example.
	b.WriteString("```text\n")
	b.WriteString(strings.TrimRight(entries[0].Finding.Message, "\n"))
	b.WriteString("\n```\n\n")
}

func (m *MarkdownGenerator) writeTableWithCollapse(
	b *strings.Builder,
	summary string,
	collapsible bool,
	collapse bool,
	header []string,
	rows []string,
) {
	if collapsible && collapse {
		b.WriteString("<details>\n")
		b.WriteString("<summary>")
		b.WriteString(summary)
		b.WriteString("</summary>\n\n")
	}
	for _, line := range header {
		b.WriteString(line)
	}
	for _, line := range rows {
		b.WriteString(line)
	}
	b.WriteString("\n")
	if collapsible && collapse {
		b.WriteString("</details>\n\n")
	}
}

func groupByRule(entries []Entry) map[string][]Entry {
	out := make(map[string][]Entry)
	for _, e := range entries {
		out[e.Finding.RuleID] = append(out[e.Finding.RuleID], e)
	}
	for _, list := range out {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	}
	return out
}

func normalizeReportVerbosity(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "summary":
		return "summary"
	case "detailed":
		return "detailed"
	default:
		return "standard"
	}
}
