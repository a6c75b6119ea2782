package formats

import (
	"fmt"
	"path/filepath"
	"strings"

	"koinlint/internal/engine/syntax"
)

// relPath renders path relative to root with forward slashes. Paths outside
// root keep their original form.
func relPath(root, path string) string {
	root = strings.TrimSpace(root)
	path = strings.TrimSpace(path)
	if root == "" || path == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func location(root, path string, span syntax.Span) string {
	return fmt.Sprintf("%s:%d:%d", relPath(root, path), span.Start.Line, span.Start.Column)
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// escapeCell keeps a value on one markdown table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
