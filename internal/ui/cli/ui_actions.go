package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyActions handles the browser's own keys. Unhandled keys fall
// through to the list.
func handleKeyActions(msg tea.KeyMsg, m model) (model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit, true
	case "enter":
		m.showDetail = !m.showDetail
		if m.showDetail {
			m = m.refreshDetail()
		}
		return m, nil, true
	case "esc":
		if m.showDetail {
			m.showDetail = false
			return m, nil, true
		}
	case "r":
		m.showRules = !m.showRules
		return m, nil, true
	case "o":
		item, ok := m.selected()
		if !ok {
			m.jumpStatus = statusStyle.Render("No source target available.")
			return m, nil, true
		}
		return m, jumpToSourceCmd(sourceTarget{file: item.entry.Path, line: item.entry.Finding.Span.Start.Line}), true
	}

	next, cmd := m.findings.Update(msg)
	m.findings = next
	if m.showDetail {
		m = m.refreshDetail()
	}
	return m, cmd, true
}

type sourceTarget struct {
	file string
	line int
}

func editorCommand(target sourceTarget) *exec.Cmd {
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	args := []string{target.file}
	if strings.Contains(editor, "vim") || strings.Contains(editor, "nvim") || strings.HasSuffix(editor, "vi") ||
		strings.Contains(editor, "nano") || strings.Contains(editor, "emacs") {
		args = []string{fmt.Sprintf("+%d", target.line), target.file}
	} else if strings.Contains(editor, "code") {
		args = []string{"--goto", fmt.Sprintf("%s:%d", target.file, target.line)}
	}
	return exec.Command(editor, args...)
}

func jumpToSourceCmd(target sourceTarget) tea.Cmd {
	label := fmt.Sprintf("%s:%d", target.file, target.line)
	return tea.ExecProcess(editorCommand(target), func(err error) tea.Msg {
		return sourceJumpResultMsg{target: label, err: err}
	})
}
