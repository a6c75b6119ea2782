package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePaths_DefaultLayout(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "settings.gradle.kts"), []byte("rootProject.name = \"app\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "state"))

	cfg := &Config{ScanPaths: []string{"app/src"}}
	applyDefaults(cfg)

	got, err := ResolvePaths(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	if got.ProjectRoot != filepath.Clean(root) {
		t.Fatalf("expected project root %q, got %q", root, got.ProjectRoot)
	}
	if got.HistoryPath != filepath.Join(root, "data", "koinlint-history.db") {
		t.Fatalf("unexpected history path: %q", got.HistoryPath)
	}
	if got.GrammarsPath != filepath.Join(root, "grammars") {
		t.Fatalf("unexpected grammars path: %q", got.GrammarsPath)
	}
	if got.LogFile != filepath.Join(root, "state", "koinlint", "koinlint.log") {
		t.Fatalf("unexpected log file: %q", got.LogFile)
	}
	if len(got.ScanPaths) != 1 || got.ScanPaths[0] != filepath.Join(root, "app", "src") {
		t.Fatalf("unexpected scan paths: %v", got.ScanPaths)
	}
	if got.OutputPath != "" {
		t.Fatalf("expected stdout output, got %q", got.OutputPath)
	}
}

func TestResolvePaths_AbsoluteOverrides(t *testing.T) {
	root := t.TempDir()
	historyPath := filepath.Join(root, "custom", "history.db")
	cfg := &Config{
		Paths: Paths{
			ProjectRoot: root,
			StateDir:    "state",
		},
		History: History{Path: historyPath},
		Output:  Output{Path: "report.sarif"},
	}
	applyDefaults(cfg)

	got, err := ResolvePaths(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	if got.StateDir != filepath.Join(root, "state") {
		t.Fatalf("unexpected state dir: %q", got.StateDir)
	}
	if got.HistoryPath != historyPath {
		t.Fatalf("unexpected history path: %q", got.HistoryPath)
	}
	if got.OutputPath != filepath.Join(root, "report.sarif") {
		t.Fatalf("unexpected output path: %q", got.OutputPath)
	}
}

func TestResolvePaths_EmptyCwd(t *testing.T) {
	if _, err := ResolvePaths(Default(), " "); err == nil {
		t.Fatal("expected error for empty cwd")
	}
}

func TestDetectProjectRoot_FallbackOrder(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, DefaultFile), []byte("version = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := DetectProjectRoot([]string{sub})
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Clean(root) {
		t.Fatalf("expected %q, got %q", root, got)
	}
}
