package report

import (
	"bytes"
	"fmt"
	"strings"
)

const contextRadius = 3 // ±3 lines around a finding

// Snippet is the source surrounding one finding.
type Snippet struct {
	// Line is the 1-indexed first line of the finding.
	Line int
	// Context holds "<linenum>: <source>" lines; the finding's lines are
	// prefixed with '>'.
	Context []string
}

// FindingSnippet returns the lines startLine..endLine of content with
// contextRadius lines on each side.
func FindingSnippet(content []byte, startLine, endLine int) Snippet {
	snippet := Snippet{Line: startLine}
	if len(content) == 0 || startLine <= 0 {
		return snippet
	}
	if endLine < startLine {
		endLine = startLine
	}

	lines := splitLines(content)
	if startLine > len(lines) {
		return snippet
	}
	from := startLine - 1 - contextRadius
	if from < 0 {
		from = 0
	}
	to := endLine + contextRadius
	if to > len(lines) {
		to = len(lines)
	}

	snippet.Context = make([]string, 0, to-from)
	for i := from; i < to; i++ {
		lineNum := i + 1
		marker := " "
		if lineNum >= startLine && lineNum <= endLine {
			marker = ">"
		}
		snippet.Context = append(snippet.Context, formatContextLine(marker, lineNum, lines[i]))
	}
	return snippet
}

// String renders the snippet one line per row.
func (s Snippet) String() string {
	return strings.Join(s.Context, "\n")
}

func formatContextLine(marker string, lineNum int, source string) string {
	return fmt.Sprintf("%s%6d: %s", marker, lineNum, strings.TrimRight(source, "\r"))
}

// splitLines splits content on newlines, preserving empty lines.
func splitLines(content []byte) []string {
	raw := bytes.Split(content, []byte("\n"))
	lines := make([]string, len(raw))
	for i, b := range raw {
		lines[i] = string(b)
	}
	// Trim trailing empty line that Split adds for a final newline.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
