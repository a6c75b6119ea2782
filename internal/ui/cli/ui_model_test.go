package cli

import (
	"errors"
	"strings"
	"testing"

	"koinlint/internal/engine/koin"
	"koinlint/internal/engine/rules"
	"koinlint/internal/engine/syntax"
	"koinlint/internal/ui/report/formats"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const diSource = "package app\n\nval a = module {\n    includes(b)\n}\nval b = module { includes(a) }\n"

func uiReport() formats.Report {
	return formats.Report{
		ProjectRoot: "/work/app",
		Stats:       formats.Stats{Files: 2, Modules: 2, Bindings: 1},
		Settings:    rules.Defaults(),
		Files: []formats.FileReport{
			{
				Path: "/work/app/Di.kt",
				Findings: []koin.Finding{{
					RuleID:  koin.RuleCircularModuleDependency,
					Message: "Circular dependency: 'a' → 'b' → 'a'\n\n✗ Bad: ...",
					Span:    syntax.Span{Start: syntax.Position{Line: 3, Column: 1}, End: syntax.Position{Line: 5, Column: 2}},
				}},
			},
			{Path: "/work/app/Other.kt"},
		},
	}
}

func sized(t *testing.T) model {
	t.Helper()
	updated, _ := initialModel().Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m := updated.(model)
	m.readFile = func(path string) ([]byte, error) {
		if path == "/work/app/Di.kt" {
			return []byte(diSource), nil
		}
		return nil, errors.New("missing")
	}
	return m
}

func TestModel_AppliesReport(t *testing.T) {
	m := sized(t)
	assert.Contains(t, m.View(), "Analyzing...")

	updated, _ := m.Update(updateMsg{report: uiReport()})
	m = updated.(model)
	require.Len(t, m.findings.Items(), 1)

	item := m.findings.Items()[0].(findingItem)
	assert.Equal(t, "Di.kt", item.rel)
	assert.Equal(t, "CircularModuleDependency [warning]", item.Title())
	assert.Equal(t, "Di.kt:3  Circular dependency: 'a' → 'b' → 'a'", item.Description())

	view := m.View()
	assert.Contains(t, view, "1 findings")
	assert.Contains(t, view, "2 files | 2 modules | 1 bindings | 0 skipped")
}

func TestModel_CleanReport(t *testing.T) {
	m := sized(t)
	updated, _ := m.Update(updateMsg{report: formats.Report{Stats: formats.Stats{Files: 1}}})
	m = updated.(model)
	assert.Empty(t, m.findings.Items())
	assert.Contains(t, m.View(), "No Koin anti-patterns")
}

func TestModel_DetailAndRuleToggles(t *testing.T) {
	m := sized(t)
	updated, _ := m.Update(updateMsg{report: uiReport()})
	m = updated.(model)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(model)
	require.True(t, m.showDetail)
	assert.Contains(t, m.detail, "CircularModuleDependency  Di.kt:3:1")
	assert.Contains(t, m.detail, ">     3: val a = module {")
	assert.Contains(t, m.detail, "      6: val b = module { includes(a) }")

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(model)
	assert.False(t, m.showDetail)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = updated.(model)
	assert.True(t, m.showRules)
	assert.Contains(t, m.rulesView(), "CircularModuleDependency")
}

func TestModel_DetailWithoutSource(t *testing.T) {
	m := sized(t)
	r := uiReport()
	r.Files[0].Path = "/work/app/Gone.kt"
	updated, _ := m.Update(updateMsg{report: r})
	m = updated.(model)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(model)
	assert.Contains(t, m.detail, "source unavailable: missing")
}

func TestModel_JumpResult(t *testing.T) {
	m := sized(t)
	updated, _ := m.Update(sourceJumpResultMsg{target: "Di.kt:3", err: errors.New("exit status 1")})
	m = updated.(model)
	assert.True(t, strings.Contains(m.jumpStatus, "Editor failed for Di.kt:3"))

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'o'}})
	m = updated.(model)
	assert.Contains(t, m.jumpStatus, "No source target available.")
}

func TestEditorCommand(t *testing.T) {
	target := sourceTarget{file: "/work/app/Di.kt", line: 12}

	t.Setenv("EDITOR", "nvim")
	assert.Equal(t, []string{"nvim", "+12", "/work/app/Di.kt"}, editorCommand(target).Args)

	t.Setenv("EDITOR", "code")
	assert.Equal(t, []string{"code", "--goto", "/work/app/Di.kt:12"}, editorCommand(target).Args)

	t.Setenv("EDITOR", "hx")
	assert.Equal(t, []string{"hx", "/work/app/Di.kt"}, editorCommand(target).Args)
}

func TestModel_Quit(t *testing.T) {
	_, cmd := sized(t).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
