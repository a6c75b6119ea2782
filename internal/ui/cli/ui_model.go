package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"koinlint/internal/engine/rules"
	"koinlint/internal/shared/util"
	"koinlint/internal/ui/report"
	"koinlint/internal/ui/report/formats"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#475569")).
			Padding(0, 1)
)

type findingItem struct {
	entry formats.Entry
	rel   string
}

func (i findingItem) Title() string {
	return fmt.Sprintf("%s [%s]", i.entry.Finding.RuleID, i.entry.Severity)
}

func (i findingItem) Description() string {
	return fmt.Sprintf("%s:%d  %s", i.rel, i.entry.Finding.Span.Start.Line, formats.Summary(i.entry.Finding.Message))
}

func (i findingItem) FilterValue() string {
	return i.entry.Finding.RuleID + " " + i.rel + " " + i.entry.Finding.Message
}

type model struct {
	findings    list.Model
	report      formats.Report
	lastUpdate  time.Time
	showDetail  bool
	showRules   bool
	detail      string
	jumpStatus  string
	readFile    func(string) ([]byte, error)
	width       int
	initialized bool
}

type updateMsg struct {
	report formats.Report
}

type sourceJumpResultMsg struct {
	target string
	err    error
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Findings"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		findings:   l,
		lastUpdate: time.Now(),
		readFile:   os.ReadFile,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.findings.FilterState() != list.Filtering {
			if next, cmd, handled := handleKeyActions(msg, m); handled {
				return next, cmd
			}
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.width = msg.Width - h
		m.findings.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m = m.applyReport(msg.report)
		return m, nil
	case sourceJumpResultMsg:
		if msg.err != nil {
			m.jumpStatus = errorStyle.Render(fmt.Sprintf("Editor failed for %s: %v", msg.target, msg.err))
		} else {
			m.jumpStatus = statusStyle.Render("Returned from " + msg.target)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.findings, cmd = m.findings.Update(msg)
	return m, cmd
}

func (m model) applyReport(r formats.Report) model {
	m.report = r
	m.lastUpdate = time.Now()
	m.initialized = true

	entries := r.Entries()
	items := make([]list.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, findingItem{entry: e, rel: util.RelSlash(r.ProjectRoot, e.Path)})
	}
	m.findings.SetItems(items)
	if m.showDetail {
		m = m.refreshDetail()
	}
	return m
}

func (m model) selected() (findingItem, bool) {
	item, ok := m.findings.SelectedItem().(findingItem)
	return item, ok
}

// refreshDetail renders the selected finding's full message and source.
func (m model) refreshDetail() model {
	item, ok := m.selected()
	if !ok {
		m.detail = statusStyle.Render("No finding selected.")
		return m
	}
	f := item.entry.Finding
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s:%d:%d\n\n%s\n", f.RuleID, item.rel, f.Span.Start.Line, f.Span.Start.Column, f.Message)

	content, err := m.readFile(item.entry.Path)
	if err != nil {
		fmt.Fprintf(&b, "\n%s", statusStyle.Render("source unavailable: "+err.Error()))
	} else if snippet := report.FindingSnippet(content, f.Span.Start.Line, f.Span.End.Line); len(snippet.Context) > 0 {
		b.WriteString("\n" + snippet.String())
	}
	m.detail = b.String()
	return m
}

func (m model) summaryLine() string {
	if !m.initialized {
		return statusStyle.Render("Analyzing...")
	}
	total := m.report.FindingCount()
	if total == 0 {
		return successStyle.Render("✔ No Koin anti-patterns")
	}
	style := warningStyle
	if m.report.HasSeverity(rules.SeverityError) {
		style = errorStyle
	}
	return style.Render(fmt.Sprintf("✖ %d findings", total))
}

func (m model) rulesView() string {
	counts := m.report.Counts()
	if len(counts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, id := range util.SortedStringKeys(counts) {
		fmt.Fprintf(&b, "%-40s %d\n", id, counts[id])
	}
	return detailStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m model) View() string {
	stats := m.report.Stats
	status := statusStyle.Render(fmt.Sprintf("Last update: %s | %d files | %d modules | %d bindings | %d skipped",
		m.lastUpdate.Format("15:04:05"), stats.Files, stats.Modules, stats.Bindings, stats.ParseErrors))

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Koin Module Monitor"), status, m.summaryLine())
	body := m.findings.View()
	if m.showRules {
		if rv := m.rulesView(); rv != "" {
			body = rv + "\n" + body
		}
	}
	if m.showDetail && m.detail != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, detailStyle.Render(m.detail))
	}
	footer := statusStyle.Render("enter: details • o: open in $EDITOR • r: rule counts • /: filter • q: quit")
	if m.jumpStatus != "" {
		footer = m.jumpStatus + "\n" + footer
	}
	return docStyle.Render(header + "\n" + body + "\n" + footer)
}
