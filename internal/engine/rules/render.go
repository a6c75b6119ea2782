package rules

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Setting is the effective configuration of one rule.
type Setting struct {
	Active   bool
	Severity Severity
}

// Defaults returns the settings of every rule when nothing is configured.
func Defaults() map[string]Setting {
	out := make(map[string]Setting, len(registry))
	for _, r := range registry {
		out[r.ID] = Setting{Active: true, Severity: r.Severity}
	}
	return out
}

// RenderTable writes the rule list as a table. Rules missing from settings use their defaults.
func RenderTable(w io.Writer, infos []RuleInfo, settings map[string]Setting) error {
	if len(infos) == 0 {
		_, err := fmt.Fprintln(w, "(no rules)")
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rule", "Group", "Severity", "Active", "Debt", "Description"})

	for _, r := range infos {
		s, ok := settings[r.ID]
		if !ok {
			s = Setting{Active: true, Severity: r.Severity}
		}
		active := "yes"
		if !s.Active {
			active = "no"
		}
		t.AppendRow(table.Row{r.ID, r.Group, s.Severity.String(), active, r.Debt.String(), r.Description})
	}

	t.Render()
	_, err := fmt.Fprintf(w, "(%d rules)\n", len(infos))
	return err
}

// RenderDetails writes the full documentation of one rule.
func RenderDetails(w io.Writer, r RuleInfo) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %s)\n", r.ID, r.Group, r.Severity)
	fmt.Fprintf(&b, "  %s\n", r.Description)
	if r.Rationale != "" {
		fmt.Fprintf(&b, "\n  Why: %s\n", r.Rationale)
	}
	if len(r.ConfigKeys) > 0 {
		fmt.Fprintf(&b, "  Options: %s\n", strings.Join(r.ConfigKeys, ", "))
	}
	if r.BadExample != "" {
		b.WriteString("\n  ✗ Bad:\n")
		writeIndented(&b, r.BadExample)
	}
	if r.GoodExample != "" {
		b.WriteString("  ✓ Good:\n")
		writeIndented(&b, r.GoodExample)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeIndented(b *strings.Builder, text string) {
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}
