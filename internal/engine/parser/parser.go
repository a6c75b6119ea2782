package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"koinlint/internal/core/errors"
	"koinlint/internal/engine/parser/builtin"
	"koinlint/internal/engine/syntax"
)

// Backend selects the tree supplier.
type Backend string

const (
	BackendAuto       Backend = "auto"
	BackendTreeSitter Backend = "tree-sitter"
	BackendBuiltin    Backend = "builtin"
)

// ParseBackend validates a backend name. Empty means auto.
func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(name))) {
	case "", BackendAuto:
		return BackendAuto, nil
	case BackendTreeSitter:
		return BackendTreeSitter, nil
	case BackendBuiltin:
		return BackendBuiltin, nil
	}
	return "", errors.Newf(errors.CodeValidationError, "unknown parser backend %q (want auto, tree-sitter or builtin)", name)
}

// Supplier turns source text into a syntax tree.
type Supplier interface {
	Parse(path string, src []byte) (*syntax.File, error)
}

// BuiltinSupplier parses with the hand-written Kotlin parser.
type BuiltinSupplier struct{}

func (BuiltinSupplier) Parse(path string, src []byte) (*syntax.File, error) {
	return builtin.Parse(path, src), nil
}

// Parser routes Kotlin files to the selected supplier.
type Parser struct {
	backend  Backend
	supplier Supplier
	name     string
}

var kotlinExtensions = []string{".kt", ".kts"}

// NewParser picks the supplier for backend. Auto uses tree-sitter when the
// loader has the Kotlin grammar and the built-in parser otherwise.
func NewParser(loader *GrammarLoader, backend Backend) (*Parser, error) {
	lang, loaded := loader.Language(LanguageKotlin)
	switch backend {
	case BackendBuiltin:
		return &Parser{backend: backend, supplier: BuiltinSupplier{}, name: string(BackendBuiltin)}, nil
	case BackendTreeSitter:
		if !loaded {
			return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "tree-sitter backend requested but the kotlin grammar is not loaded"), errors.CtxLanguage, LanguageKotlin)
		}
		return &Parser{backend: backend, supplier: NewTreeSitterSupplier(NewParserPool(lang)), name: string(BackendTreeSitter)}, nil
	case BackendAuto, "":
		if loaded {
			return &Parser{backend: BackendAuto, supplier: NewTreeSitterSupplier(NewParserPool(lang)), name: string(BackendTreeSitter)}, nil
		}
		return &Parser{backend: BackendAuto, supplier: BuiltinSupplier{}, name: string(BackendBuiltin)}, nil
	}
	return nil, errors.Newf(errors.CodeValidationError, "unknown parser backend %q", backend)
}

// SupplierName reports which supplier is active.
func (p *Parser) SupplierName() string { return p.name }

// ParseFile parses one Kotlin file.
func (p *Parser) ParseFile(path string, content []byte) (*syntax.File, error) {
	if !p.IsSupportedPath(path) {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "unsupported file type"), errors.CtxPath, path)
	}
	file, err := p.supplier.Parse(path, content)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	if file == nil {
		return nil, errors.AddContext(errors.New(errors.CodeInternal, fmt.Sprintf("%s supplier returned no tree", p.name)), errors.CtxPath, path)
	}
	return file, nil
}

// IsSupportedPath reports whether path has a Kotlin extension.
func (p *Parser) IsSupportedPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range kotlinExtensions {
		if ext == want {
			return true
		}
	}
	return false
}

// SupportedExtensions lists the file extensions the parser accepts.
func (p *Parser) SupportedExtensions() []string {
	out := make([]string, len(kotlinExtensions))
	copy(out, kotlinExtensions)
	return out
}
