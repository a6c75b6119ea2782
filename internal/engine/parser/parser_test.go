package parser

import (
	"os"
	"path/filepath"
	"testing"

	"koinlint/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	for in, want := range map[string]Backend{
		"":            BackendAuto,
		"auto":        BackendAuto,
		" Builtin ":   BackendBuiltin,
		"tree-sitter": BackendTreeSitter,
	} {
		got, err := ParseBackend(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseBackend("antlr")
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestGrammarLoaderWithoutArtifacts(t *testing.T) {
	gl, err := NewGrammarLoader(filepath.Join(t.TempDir(), "missing"), true)
	require.NoError(t, err)
	assert.Empty(t, gl.Languages())
	assert.Equal(t, "no runtime grammars", gl.Describe())

	dir := t.TempDir()
	gl, err = NewGrammarLoader(dir, true)
	require.NoError(t, err)
	assert.Empty(t, gl.Languages())

	file := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = NewGrammarLoader(file, false)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestNewParserFallsBackToBuiltin(t *testing.T) {
	gl, err := NewGrammarLoader("", false)
	require.NoError(t, err)

	p, err := NewParser(gl, BackendAuto)
	require.NoError(t, err)
	assert.Equal(t, "builtin", p.SupplierName())

	_, err = NewParser(gl, BackendTreeSitter)
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))
}

func TestParseFile(t *testing.T) {
	gl, _ := NewGrammarLoader("", false)
	p, err := NewParser(gl, BackendBuiltin)
	require.NoError(t, err)

	assert.Equal(t, []string{".kt", ".kts"}, p.SupportedExtensions())
	assert.True(t, p.IsSupportedPath("app/di/Modules.KT"))
	assert.False(t, p.IsSupportedPath("app/di/Modules.java"))

	file, err := p.ParseFile("di/Modules.kt", []byte("package di\n\nval appModule = module { }\n"))
	require.NoError(t, err)
	assert.Equal(t, "di/Modules.kt", file.Path)
	assert.Len(t, file.Decls, 1)

	_, err = p.ParseFile("Main.java", nil)
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))
}
