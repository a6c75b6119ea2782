package parser

import (
	"koinlint/internal/core/errors"
	"koinlint/internal/engine/syntax"
)

// TreeSitterSupplier parses with the runtime-loaded Kotlin grammar and converts
// the concrete syntax tree into syntax nodes.
type TreeSitterSupplier struct {
	pool *ParserPool
}

func NewTreeSitterSupplier(pool *ParserPool) *TreeSitterSupplier {
	return &TreeSitterSupplier{pool: pool}
}

func (s *TreeSitterSupplier) Parse(path string, src []byte) (*syntax.File, error) {
	sp := s.pool.Get()
	defer s.pool.Put(sp)

	tree := sp.Parse(src, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeParse, "tree-sitter parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.Kind() != "source_file" {
		return nil, errors.New(errors.CodeInternal, "malformed tree: missing source_file root")
	}
	c := &converter{src: src}
	return c.file(path, root), nil
}
