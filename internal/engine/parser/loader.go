package parser

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"koinlint/internal/core/errors"
	"koinlint/internal/engine/parser/grammar"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// LanguageKotlin is the only language koinlint parses.
const LanguageKotlin = "kotlin"

// GrammarLoader holds the tree-sitter languages loaded from a grammars directory.
type GrammarLoader struct {
	languages map[string]*sitter.Language
	manifest  grammar.Manifest
}

// NewGrammarLoader reads <grammarsPath>/manifest.toml and loads the Kotlin grammar
// it lists. A missing directory or manifest yields an empty loader: parsing then
// falls back to the built-in parser. Verification failures are errors.
func NewGrammarLoader(grammarsPath string, verifyArtifacts bool) (*GrammarLoader, error) {
	gl := &GrammarLoader{languages: make(map[string]*sitter.Language)}
	if grammarsPath == "" {
		return gl, nil
	}

	info, err := os.Stat(grammarsPath)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("grammars directory not found; tree-sitter backend disabled", "path", grammarsPath)
			return gl, nil
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "stat grammars path")
	}
	if !info.IsDir() {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "grammars path is not a directory"), errors.CtxPath, grammarsPath)
	}

	manifestPath := filepath.Join(grammarsPath, grammar.ManifestFile)
	if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
		slog.Debug("grammar manifest not found; tree-sitter backend disabled", "path", manifestPath)
		return gl, nil
	}
	manifest, err := grammar.LoadManifest(manifestPath)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "invalid grammar manifest"), errors.CtxPath, manifestPath)
	}
	gl.manifest = manifest

	artifact, ok := manifest.Find(LanguageKotlin)
	if !ok {
		return gl, nil
	}

	if verifyArtifacts {
		issues, err := grammar.VerifyLanguages(grammarsPath, manifest, []string{LanguageKotlin})
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "grammar verification")
		}
		if len(issues) > 0 {
			return nil, errors.AddContext(
				errors.Newf(errors.CodeValidationError, "grammar verification failed (%d issues): %s", len(issues), issues[0]),
				errors.CtxLanguage, LanguageKotlin,
			)
		}
	}

	lang, err := grammar.LoadDynamic(filepath.Join(grammarsPath, artifact.SharedObjectPath), LanguageKotlin)
	if err != nil {
		slog.Warn("kotlin grammar could not be loaded; using built-in parser", "path", artifact.SharedObjectPath, "error", err)
		return gl, nil
	}
	gl.languages[LanguageKotlin] = lang
	return gl, nil
}

// Language returns a loaded language.
func (gl *GrammarLoader) Language(name string) (*sitter.Language, bool) {
	if gl == nil {
		return nil, false
	}
	lang, ok := gl.languages[name]
	return lang, ok
}

// Languages lists the loaded language names.
func (gl *GrammarLoader) Languages() []string {
	if gl == nil {
		return nil
	}
	out := make([]string, 0, len(gl.languages))
	for name := range gl.languages {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Describe summarizes the loader state for logs.
func (gl *GrammarLoader) Describe() string {
	if len(gl.Languages()) == 0 {
		return "no runtime grammars"
	}
	artifact, _ := gl.manifest.Find(LanguageKotlin)
	return fmt.Sprintf("kotlin grammar abi=%d source=%s", artifact.ABIVersion, artifact.Source)
}
