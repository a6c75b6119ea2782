package koin

import "koinlint/internal/engine/syntax"

// ModuleBlock is one module-builder call. ID is empty for anonymous blocks.
type ModuleBlock struct {
	ID string
	// Index is the position of the block in source order.
	Index int
	Call  *syntax.CallExpr
	// Site is the span of the declaring property for named blocks and of the call otherwise.
	Site syntax.Span
}

// Named reports whether the block has a stable id.
func (m *ModuleBlock) Named() bool { return m.ID != "" }

// LocateModules returns every module-builder call of the file in source order.
// A call gets an id when it is the direct initializer of a property declared at
// top level or in a class/object body; the first declaration of a name wins.
func LocateModules(file *syntax.File, opts Options) []*ModuleBlock {
	if file == nil {
		return nil
	}
	builders := opts.StringSet("", OptModuleBuilders, defaultModuleBuilders)
	taken := make(map[string]bool)
	var blocks []*ModuleBlock

	syntax.Walk(file, func(n syntax.Node, path []syntax.Node) bool {
		call, ok := n.(*syntax.CallExpr)
		if !ok || call.Lambda == nil || !builders[syntax.CalleeName(call)] {
			return true
		}
		block := &ModuleBlock{Index: len(blocks), Call: call, Site: call.Span()}
		if prop, ok := declaringProperty(call, path); ok && !taken[prop.Name] {
			taken[prop.Name] = true
			block.ID = validName(prop.Name)
			block.Site = prop.Span()
		}
		blocks = append(blocks, block)
		return true
	})
	return blocks
}

// declaringProperty returns the property whose initializer is call, provided the
// property is a file or class member.
func declaringProperty(call *syntax.CallExpr, path []syntax.Node) (*syntax.PropertyDecl, bool) {
	if len(path) == 0 {
		return nil, false
	}
	prop, ok := path[len(path)-1].(*syntax.PropertyDecl)
	if !ok || prop.Init != syntax.Node(call) || prop.Name == "" {
		return nil, false
	}
	for _, ancestor := range path[:len(path)-1] {
		switch ancestor.(type) {
		case *syntax.File, *syntax.ClassDecl:
		default:
			return nil, false
		}
	}
	return prop, true
}
