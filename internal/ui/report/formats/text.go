package formats

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"koinlint/internal/engine/rules"

	"github.com/charmbracelet/lipgloss"
)

var (
	pathStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	posStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
	ruleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Bold(true)
	noteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
)

// TextOptions controls the terminal renderer.
type TextOptions struct {
	Color bool
	// Brief prints only the first line of each message.
	Brief bool
}

// WriteText renders findings grouped by file followed by a one-line summary.
func WriteText(w io.Writer, r Report, opts TextOptions) error {
	paint := func(s lipgloss.Style, text string) string {
		if !opts.Color {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	current := ""
	for _, e := range r.Entries() {
		if e.Path != current {
			if current != "" {
				b.WriteString("\n")
			}
			current = e.Path
			b.WriteString(paint(pathStyle, relPath(r.ProjectRoot, e.Path)))
			b.WriteString("\n")
		}
		pos := fmt.Sprintf("%d:%d", e.Finding.Span.Start.Line, e.Finding.Span.Start.Column)
		fmt.Fprintf(&b, "  %s  %s  %s\n",
			paint(posStyle, fmt.Sprintf("%-7s", pos)),
			paint(severityStyle(e.Severity), fmt.Sprintf("%-7s", e.Severity)),
			paint(ruleStyle, e.Finding.RuleID))

		message := e.Finding.Message
		if opts.Brief {
			message = Summary(message)
		}
		for _, line := range strings.Split(message, "\n") {
			if line == "" {
				b.WriteString("\n")
				continue
			}
			b.WriteString("      ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	failed := r.Failed()
	if len(failed) > 0 {
		if current != "" {
			b.WriteString("\n")
		}
		for _, f := range failed {
			fmt.Fprintf(&b, "%s %s: %s\n", paint(failStyle, "skipped"), relPath(r.ProjectRoot, f.Path), f.Error)
		}
	}

	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(summaryLine(r, paint))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func summaryLine(r Report, paint func(lipgloss.Style, string) string) string {
	stats := fmt.Sprintf("%d files, %d modules, %d bindings", r.Stats.Files, r.Stats.Modules, r.Stats.Bindings)
	if r.Stats.ParseErrors > 0 {
		stats += fmt.Sprintf(", %d skipped", r.Stats.ParseErrors)
	}
	total := r.FindingCount()
	if total == 0 {
		return paint(successStyle, "✔ no findings") + " (" + stats + ")"
	}

	counts := r.Counts()
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s=%d", id, counts[id]))
	}
	noun := "findings"
	if total == 1 {
		noun = "finding"
	}
	return paint(warnStyle, fmt.Sprintf("✖ %d %s", total, noun)) + " (" + stats + ")\n  " + strings.Join(parts, " ")
}

func severityStyle(s rules.Severity) lipgloss.Style {
	switch s {
	case rules.SeverityError:
		return errorStyle
	case rules.SeverityWarning:
		return warnStyle
	default:
		return noteStyle
	}
}
