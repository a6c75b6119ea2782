package app

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"koinlint/internal/core/config"
	"koinlint/internal/shared/util"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
)

// Scanner finds the Kotlin sources under the scan paths.
type Scanner struct {
	dirGlobs   []glob.Glob
	fileGlobs  []glob.Glob
	extensions map[string]bool
	gitignore  bool

	mu      sync.Mutex
	ignores map[string]dirIgnore
}

type dirIgnore struct {
	rules    *ignore.GitIgnore // nil when the directory has no .gitignore
	repoRoot bool
}

func NewScanner(exclude config.Exclude, extensions []string) (*Scanner, error) {
	dirGlobs, err := compileGlobs(exclude.Dirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compileGlobs(exclude.Files, "exclude file")
	if err != nil {
		return nil, err
	}
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}
	return &Scanner{
		dirGlobs:   dirGlobs,
		fileGlobs:  fileGlobs,
		extensions: exts,
		gitignore:  exclude.GitignoreEnabled(),
		ignores:    make(map[string]dirIgnore),
	}, nil
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Scan walks roots and returns the accepted files, sorted and de-duplicated.
// A root may be a single file.
func (s *Scanner) Scan(roots []string) ([]string, error) {
	seen := make(map[string]bool)
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && s.excludedDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if s.Accepts(path) {
				seen[filepath.Clean(path)] = true
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %q: %w", root, err)
		}
	}
	return util.SortedStringKeys(seen), nil
}

// Accepts reports whether a file should be analyzed. Directory excludes are
// applied by Scan and by the watcher, not here.
func (s *Scanner) Accepts(path string) bool {
	if !s.extensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	base := filepath.Base(path)
	slashPath := filepath.ToSlash(path)
	for _, g := range s.fileGlobs {
		if g.Match(base) || g.Match(slashPath) {
			return false
		}
	}
	return !s.GitIgnored(path, false)
}

func (s *Scanner) excludedDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range s.dirGlobs {
		if g.Match(base) {
			return true
		}
	}
	return s.GitIgnored(path, true)
}

// GitIgnored checks path against the .gitignore files of its ancestors, up to
// and including the repository root.
func (s *Scanner) GitIgnored(path string, isDir bool) bool {
	if !s.gitignore {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	dir := filepath.Dir(abs)
	for {
		entry := s.ignoreFor(dir)
		if entry.rules != nil {
			rel := util.RelSlash(dir, abs)
			if entry.rules.MatchesPath(rel) || (isDir && entry.rules.MatchesPath(rel+"/")) {
				return true
			}
		}
		if entry.repoRoot {
			return false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}

func (s *Scanner) ignoreFor(dir string) dirIgnore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.ignores[dir]; ok {
		return entry
	}
	var entry dirIgnore
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(dir, ".gitignore")); err == nil {
		entry.rules = gi
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		entry.repoRoot = true
	}
	s.ignores[dir] = entry
	return entry
}

// uniqueRoots drops roots nested inside another root.
func uniqueRoots(paths []string) []string {
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			cleaned = append(cleaned, filepath.Clean(abs))
		}
	}
	sort.Strings(cleaned)

	out := make([]string, 0, len(cleaned))
	for _, p := range cleaned {
		nested := false
		for _, kept := range out {
			if util.HasPathPrefix(p, kept) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, p)
		}
	}
	return out
}
