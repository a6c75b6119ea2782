package koin

import (
	"strings"

	"koinlint/internal/engine/syntax"
)

// ModuleNode is a named module block with its include edges.
type ModuleNode struct {
	ID string
	// Includes are the resolved edges in argument order, without duplicates.
	Includes []string
	// Unresolved are include references naming no module of the file.
	Unresolved      []string
	Bindings        []BindingRecord
	DeclarationSite syntax.Span
	includeSites    map[string]syntax.Span
}

// IncludesSelf reports whether the module includes itself.
func (m *ModuleNode) IncludesSelf() bool {
	for _, id := range m.Includes {
		if id == m.ID {
			return true
		}
	}
	return false
}

// Graph maps module ids to nodes. Order keeps file-declaration order.
type Graph struct {
	nodes map[string]*ModuleNode
	Order []string
}

// Node returns the module with the given id.
func (g *Graph) Node(id string) (*ModuleNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Len returns the number of modules.
func (g *Graph) Len() int { return len(g.Order) }

// Edges returns the resolved includes of a module.
func (g *Graph) Edges(id string) []string {
	if n, ok := g.nodes[id]; ok {
		return n.Includes
	}
	return nil
}

// BuildGraph builds the include graph of the named blocks. Bindings are attached
// to the module they are attributed to.
func BuildGraph(blocks []*ModuleBlock, records []BindingRecord, opts Options) *Graph {
	g := &Graph{nodes: make(map[string]*ModuleNode)}
	for _, b := range blocks {
		if !b.Named() {
			continue
		}
		g.nodes[b.ID] = &ModuleNode{
			ID:              b.ID,
			DeclarationSite: b.Site,
			includeSites:    make(map[string]syntax.Span),
		}
		g.Order = append(g.Order, b.ID)
	}

	verbs := opts.StringSet("", OptIncludeVerbs, defaultIncludeVerbs)
	for _, b := range blocks {
		if !b.Named() {
			continue
		}
		node := g.nodes[b.ID]
		for _, stmt := range b.Call.Lambda.Body {
			call, ok := stmt.(*syntax.CallExpr)
			if !ok || !verbs[syntax.CalleeName(call)] {
				continue
			}
			if _, plain := call.Callee.(*syntax.Ident); !plain {
				continue
			}
			for _, arg := range call.Args {
				g.addInclude(node, arg.Value)
			}
		}
	}

	for _, rec := range records {
		if node, ok := g.nodes[rec.ModuleID]; ok {
			node.Bindings = append(node.Bindings, rec)
		}
	}
	return g
}

func (g *Graph) addInclude(node *ModuleNode, ref syntax.Node) {
	if ref == nil {
		return
	}
	text, ok := syntax.ExprText(ref)
	if !ok {
		text = strings.TrimSpace(ref.Text())
	}
	text = validName(text)
	if text == "" {
		return
	}
	id, ok := g.resolve(text)
	if !ok {
		node.Unresolved = append(node.Unresolved, text)
		return
	}
	if _, dup := node.includeSites[id]; dup {
		return
	}
	node.includeSites[id] = ref.Span()
	node.Includes = append(node.Includes, id)
}

// resolve maps a reference to a module id: full text first, then the last
// segment of a navigation such as `Modules.core`.
func (g *Graph) resolve(ref string) (string, bool) {
	if _, ok := g.nodes[ref]; ok {
		return ref, true
	}
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		last := ref[i+1:]
		if _, ok := g.nodes[last]; ok {
			return last, true
		}
	}
	return "", false
}
