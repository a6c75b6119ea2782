package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string, excludeDirs, excludeFiles []string) <-chan []string {
	t.Helper()
	batches := make(chan []string, 16)
	w, err := NewWatcher(50*time.Millisecond, excludeDirs, excludeFiles, func(paths []string) {
		batches <- paths
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	require.NoError(t, w.Watch([]string{root}))
	return batches
}

// waitFor drains batches until one contains path.
func waitFor(t *testing.T, batches <-chan []string, path string) []string {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case paths := <-batches:
			for _, p := range paths {
				if p == path {
					return paths
				}
			}
		case <-timeout:
			t.Fatalf("no batch contained %s", path)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewWatcherRequiresCallback(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, nil, nil, nil)
	assert.ErrorIs(t, err, os.ErrInvalid)
	assert.Nil(t, w)

	_, err = NewWatcher(time.Millisecond, []string{"[unclosed"}, nil, func([]string) {})
	assert.Error(t, err)
}

func TestWatcherReportsChanges(t *testing.T) {
	root := t.TempDir()
	batches := startWatcher(t, root, []string{"build"}, []string{"*.gen.kt"})

	module := filepath.Join(root, "AppModule.kt")
	writeFile(t, module, "val appModule = module { }")
	waitFor(t, batches, module)

	nested := filepath.Join(root, "feature", "di")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	feature := filepath.Join(nested, "FeatureModule.kt")
	writeFile(t, feature, "val featureModule = module { }")
	waitFor(t, batches, feature)

	require.NoError(t, os.Remove(module))
	waitFor(t, batches, module)
}

func TestWatcherSkipsUnchangedContent(t *testing.T) {
	root := t.TempDir()
	seeded := filepath.Join(root, "Seeded.kt")
	writeFile(t, seeded, "val a = module { }")
	batches := startWatcher(t, root, nil, nil)

	// Rewriting identical bytes is dropped; the marker write proves the
	// watcher has already flushed past it.
	writeFile(t, seeded, "val a = module { }")
	marker := filepath.Join(root, "Marker.kt")
	time.Sleep(150 * time.Millisecond)
	writeFile(t, marker, "val m = module { }")

	paths := waitFor(t, batches, marker)
	assert.NotContains(t, paths, seeded)

	writeFile(t, seeded, "val a = module { includes(b) }")
	waitFor(t, batches, seeded)
}

func TestWatcherRename(t *testing.T) {
	root := t.TempDir()
	oldPath := filepath.Join(root, "Old.kt")
	newPath := filepath.Join(root, "New.kt")
	writeFile(t, oldPath, "val old = module { }")
	batches := startWatcher(t, root, nil, nil)

	require.NoError(t, os.Rename(oldPath, newPath))
	waitFor(t, batches, newPath)
}

func TestWatcherFilters(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, []string{"build", ".gradle"}, []string{"*Generated.kt"}, func([]string) {})
	require.NoError(t, err)
	defer w.Close()

	files := []struct {
		path    string
		exclude bool
	}{
		{"Main.java", true},
		{"build.gradle.kts", false},
		{"app/KoinGenerated.kt", true},
		{"app/src/AppModule.kt", false},
		{"app/src/APPMODULE.KT", false},
	}
	for _, f := range files {
		assert.Equal(t, f.exclude, w.shouldExcludeFile(f.path), f.path)
	}
	assert.True(t, w.shouldExcludeDir("/repo/app/build"))
	assert.True(t, w.shouldExcludeDir("/repo/.gradle"))
	assert.False(t, w.shouldExcludeDir("/repo/app/src"))

	w.SetExtensions([]string{"kt", " "})
	assert.True(t, w.shouldExcludeFile("settings.gradle.kts"))
	assert.False(t, w.shouldExcludeFile("Di.kt"))

	w.SetIgnore(func(path string, isDir bool) bool {
		return filepath.Base(path) == "generated"
	})
	assert.True(t, w.shouldExcludeDir("app/generated"))
	assert.False(t, w.shouldExcludeFile("app/src/Di.kt"))
}
