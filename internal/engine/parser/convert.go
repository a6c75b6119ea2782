package parser

import (
	"strings"

	"koinlint/internal/engine/syntax"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// converter maps tree-sitter-kotlin node kinds onto syntax nodes. Unknown kinds
// become syntax.Other with their named children converted.
type converter struct {
	src []byte
}

var binaryKinds = map[string]bool{
	"additive_expression":       true,
	"multiplicative_expression": true,
	"comparison_expression":     true,
	"equality_expression":       true,
	"conjunction_expression":    true,
	"disjunction_expression":    true,
	"elvis_expression":          true,
	"range_expression":          true,
	"check_expression":          true,
}

var typeKinds = map[string]bool{
	"user_type":                    true,
	"nullable_type":                true,
	"function_type":                true,
	"parenthesized_type":           true,
	"non_nullable_type":            true,
	"type_identifier":              true,
	"definitely_non_nullable_type": true,
}

var skippedKinds = map[string]bool{
	"line_comment":      true,
	"multiline_comment": true,
	"comment":           true,
	"shebang_line":      true,
	"file_annotation":   true,
}

func (c *converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(c.src)
}

func (c *converter) info(n *sitter.Node) syntax.NodeInfo {
	start, end := n.StartPosition(), n.EndPosition()
	return syntax.NodeInfo{
		Range: syntax.Span{
			Start: syntax.Position{Line: int(start.Row) + 1, Column: int(start.Column) + 1, Offset: int(n.StartByte())},
			End:   syntax.Position{Line: int(end.Row) + 1, Column: int(end.Column) + 1, Offset: int(n.EndByte())},
		},
		Raw: c.text(n),
	}
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	count := n.NamedChildCount()
	out := make([]*sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		if child := n.NamedChild(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func allChildren(n *sitter.Node) []*sitter.Node {
	count := n.ChildCount()
	out := make([]*sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		if child := n.Child(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func childOfKind(n *sitter.Node, kinds ...string) *sitter.Node {
	for _, child := range namedChildren(n) {
		for _, kind := range kinds {
			if child.Kind() == kind {
				return child
			}
		}
	}
	return nil
}

// hasToken reports whether n has an anonymous child token with the given text.
func hasToken(n *sitter.Node, token string) bool {
	for _, child := range allChildren(n) {
		if !child.IsNamed() && child.Kind() == token {
			return true
		}
	}
	return false
}

// namedAfterToken returns the first named child that follows the anonymous token.
func namedAfterToken(n *sitter.Node, token string) *sitter.Node {
	seen := false
	for _, child := range allChildren(n) {
		if !child.IsNamed() && child.Kind() == token {
			seen = true
			continue
		}
		if seen && child.IsNamed() && !skippedKinds[child.Kind()] {
			return child
		}
	}
	return nil
}

func (c *converter) file(path string, root *sitter.Node) *syntax.File {
	file := &syntax.File{NodeInfo: c.info(root), Path: path}
	for _, child := range namedChildren(root) {
		switch child.Kind() {
		case "package_header":
			if id := childOfKind(child, "identifier"); id != nil {
				file.Package = c.text(id)
			}
		case "import_list":
			for _, header := range namedChildren(child) {
				file.Imports = c.appendImport(file.Imports, header)
			}
		case "import_header":
			file.Imports = c.appendImport(file.Imports, child)
		default:
			if n := c.convert(child); n != nil {
				file.Decls = append(file.Decls, n)
			}
		}
	}
	return file
}

func (c *converter) appendImport(imports []string, header *sitter.Node) []string {
	id := childOfKind(header, "identifier")
	if id == nil {
		return imports
	}
	name := c.text(id)
	if childOfKind(header, "wildcard_import") != nil {
		name += ".*"
	}
	return append(imports, name)
}

func (c *converter) convertAll(nodes []*sitter.Node) []syntax.Node {
	out := make([]syntax.Node, 0, len(nodes))
	for _, n := range nodes {
		if converted := c.convert(n); converted != nil {
			out = append(out, converted)
		}
	}
	return out
}

// convert maps one CST node. It returns nil for comments.
func (c *converter) convert(n *sitter.Node) syntax.Node {
	if n == nil || skippedKinds[n.Kind()] {
		return nil
	}
	kind := n.Kind()
	switch kind {
	case "property_declaration":
		return c.property(n)
	case "function_declaration":
		return c.function(n)
	case "class_declaration", "object_declaration", "companion_object", "object_literal":
		return c.class(n)
	case "call_expression":
		return c.call(n)
	case "infix_expression":
		return c.infix(n)
	case "as_expression":
		return c.asExpr(n)
	case "navigation_expression":
		return c.navigation(n)
	case "callable_reference":
		return c.callableRef(n)
	case "simple_identifier", "type_identifier":
		return &syntax.Ident{NodeInfo: c.info(n), Name: strings.Trim(c.text(n), "`")}
	case "this_expression", "super_expression":
		return &syntax.Ident{NodeInfo: c.info(n), Name: strings.SplitN(c.text(n), "@", 2)[0]}
	case "string_literal", "line_string_literal", "multi_line_string_literal":
		return &syntax.StringLit{NodeInfo: c.info(n), Value: unquote(c.text(n))}
	case "boolean_literal":
		return &syntax.BoolLit{NodeInfo: c.info(n), Value: c.text(n) == "true"}
	case "parenthesized_expression":
		if inner := namedChildren(n); len(inner) > 0 {
			return c.convert(inner[0])
		}
	case "lambda_literal":
		return c.lambda(n)
	case "annotated_lambda":
		if lit := childOfKind(n, "lambda_literal"); lit != nil {
			return c.lambda(lit)
		}
	case "annotated_expression":
		children := namedChildren(n)
		if len(children) > 0 {
			return c.convert(children[len(children)-1])
		}
	case "statements", "function_body", "block", "control_structure_body", "class_body":
		return &syntax.Block{NodeInfo: c.info(n), Stmts: c.statements(n)}
	case "assignment":
		children := namedChildren(n)
		if len(children) == 2 {
			return &syntax.BinaryExpr{NodeInfo: c.info(n), Op: c.operator(n, children[0], children[1]), Left: c.convert(children[0]), Right: c.convert(children[1])}
		}
	case "annotation":
		return c.annotation(n)
	}
	if typeKinds[kind] {
		info := c.info(n)
		return &syntax.TypeExpr{NodeInfo: info, Type: syntax.TypeRef{Raw: info.Raw, Range: info.Range}}
	}
	if binaryKinds[kind] {
		children := namedChildren(n)
		if len(children) == 2 {
			return &syntax.BinaryExpr{NodeInfo: c.info(n), Op: c.operator(n, children[0], children[1]), Left: c.convert(children[0]), Right: c.convert(children[1])}
		}
	}
	return &syntax.Other{NodeInfo: c.info(n), Kind: kind, Children: c.convertAll(namedChildren(n))}
}

// operator returns the source text between the two operands, trimmed.
func (c *converter) operator(n, left, right *sitter.Node) string {
	from, to := left.EndByte(), right.StartByte()
	if to <= from || int(to) > len(c.src) {
		return ""
	}
	op := strings.TrimSpace(string(c.src[from:to]))
	// `!in`/`!is` come through whole, comments do not
	if i := strings.Index(op, "//"); i >= 0 {
		op = strings.TrimSpace(op[:i])
	}
	return op
}

// statements flattens the statement list of a body-like node.
func (c *converter) statements(n *sitter.Node) []syntax.Node {
	var out []syntax.Node
	for _, child := range namedChildren(n) {
		switch child.Kind() {
		case "statements", "block":
			out = append(out, c.statements(child)...)
		default:
			if converted := c.convert(child); converted != nil {
				out = append(out, converted)
			}
		}
	}
	return out
}

func (c *converter) modifiers(n *sitter.Node) ([]*syntax.Annotation, []string) {
	var annotations []*syntax.Annotation
	var words []string
	for _, child := range namedChildren(n) {
		if child.Kind() != "modifiers" {
			continue
		}
		for _, mod := range namedChildren(child) {
			if mod.Kind() == "annotation" {
				if a := c.annotation(mod); a != nil {
					annotations = append(annotations, a)
				}
				continue
			}
			words = append(words, c.text(mod))
		}
	}
	return annotations, words
}

func (c *converter) annotation(n *sitter.Node) *syntax.Annotation {
	ann := &syntax.Annotation{NodeInfo: c.info(n)}
	target := childOfKind(n, "constructor_invocation", "user_type")
	if target == nil {
		return ann
	}
	if target.Kind() == "constructor_invocation" {
		ann.Name = syntax.SimpleTypeName(c.text(childOfKind(target, "user_type")))
		ann.Args = c.arguments(childOfKind(target, "value_arguments"))
		return ann
	}
	ann.Name = syntax.SimpleTypeName(c.text(target))
	return ann
}

func (c *converter) property(n *sitter.Node) syntax.Node {
	annotations, _ := c.modifiers(n)
	decl := &syntax.PropertyDecl{NodeInfo: c.info(n), Annotations: annotations}
	if v := childOfKind(n, "variable_declaration"); v != nil {
		if id := childOfKind(v, "simple_identifier"); id != nil {
			decl.Name = c.text(id)
		}
		if typ := namedAfterToken(v, ":"); typ != nil {
			decl.Type = c.text(typ)
		}
	}
	if delegate := childOfKind(n, "property_delegate"); delegate != nil {
		decl.Delegated = true
		if inner := namedChildren(delegate); len(inner) > 0 {
			decl.Init = c.convert(inner[len(inner)-1])
		}
	} else if init := namedAfterToken(n, "="); init != nil {
		decl.Init = c.convert(init)
	}
	return decl
}

func (c *converter) function(n *sitter.Node) syntax.Node {
	annotations, _ := c.modifiers(n)
	decl := &syntax.FuncDecl{NodeInfo: c.info(n), Annotations: annotations}
	if id := childOfKind(n, "simple_identifier"); id != nil {
		decl.Name = c.text(id)
	}
	if typ := namedAfterToken(n, ":"); typ != nil && typeKinds[typ.Kind()] {
		decl.ReturnType = c.text(typ)
	}
	if body := childOfKind(n, "function_body"); body != nil {
		if hasToken(body, "=") {
			if expr := namedChildren(body); len(expr) > 0 {
				decl.Body = c.convert(expr[0])
			}
		} else {
			decl.Body = &syntax.Block{NodeInfo: c.info(body), Stmts: c.statements(body)}
		}
	}
	return decl
}

func (c *converter) class(n *sitter.Node) syntax.Node {
	annotations, words := c.modifiers(n)
	decl := &syntax.ClassDecl{NodeInfo: c.info(n), Annotations: annotations}
	switch {
	case hasToken(n, "interface"):
		decl.Keyword = "interface"
	case hasToken(n, "object") || n.Kind() != "class_declaration":
		decl.Keyword = "object"
	default:
		decl.Keyword = "class"
	}
	for _, w := range words {
		if w == "enum" {
			decl.Keyword = "enum"
		}
	}
	if id := childOfKind(n, "type_identifier", "simple_identifier"); id != nil {
		decl.Name = c.text(id)
	}
	for _, child := range namedChildren(n) {
		switch child.Kind() {
		case "delegation_specifier":
			decl.Supertypes = append(decl.Supertypes, c.supertype(child))
		case "delegation_specifiers":
			for _, spec := range namedChildren(child) {
				decl.Supertypes = append(decl.Supertypes, c.supertype(spec))
			}
		case "class_body":
			decl.Members = c.statements(child)
		case "enum_class_body":
			for _, member := range namedChildren(child) {
				if member.Kind() == "enum_entry" {
					continue
				}
				if converted := c.convert(member); converted != nil {
					decl.Members = append(decl.Members, converted)
				}
			}
		}
	}
	return decl
}

func (c *converter) supertype(n *sitter.Node) string {
	if typ := childOfKind(n, "user_type"); typ != nil {
		return syntax.SimpleTypeName(c.text(typ))
	}
	if inv := childOfKind(n, "constructor_invocation", "explicit_delegation"); inv != nil {
		return c.supertype(inv)
	}
	return syntax.SimpleTypeName(c.text(n))
}

func (c *converter) call(n *sitter.Node) syntax.Node {
	children := namedChildren(n)
	call := &syntax.CallExpr{NodeInfo: c.info(n)}
	if len(children) == 0 {
		return call
	}
	call.Callee = c.convert(children[0])
	suffix := childOfKind(n, "call_suffix")
	if suffix == nil {
		return call
	}
	if typeArgs := childOfKind(suffix, "type_arguments"); typeArgs != nil {
		call.TypeArgs = c.typeArguments(typeArgs)
	}
	call.Args = c.arguments(childOfKind(suffix, "value_arguments"))
	if lambda := childOfKind(suffix, "annotated_lambda"); lambda != nil {
		if lit := childOfKind(lambda, "lambda_literal"); lit != nil {
			call.Lambda = c.lambda(lit)
		}
	}
	return call
}

func (c *converter) typeArguments(n *sitter.Node) []syntax.TypeRef {
	var out []syntax.TypeRef
	for _, proj := range namedChildren(n) {
		if proj.Kind() != "type_projection" {
			continue
		}
		target := proj
		for _, child := range namedChildren(proj) {
			if typeKinds[child.Kind()] {
				target = child
			}
		}
		info := c.info(target)
		out = append(out, syntax.TypeRef{Raw: info.Raw, Range: info.Range})
	}
	return out
}

func (c *converter) arguments(n *sitter.Node) []syntax.Argument {
	if n == nil {
		return nil
	}
	var out []syntax.Argument
	for _, arg := range namedChildren(n) {
		if arg.Kind() != "value_argument" {
			continue
		}
		parts := namedChildren(arg)
		if len(parts) == 0 {
			continue
		}
		var a syntax.Argument
		if hasToken(arg, "=") && len(parts) >= 2 && parts[0].Kind() == "simple_identifier" {
			a.Name = c.text(parts[0])
		}
		a.Value = c.convert(parts[len(parts)-1])
		out = append(out, a)
	}
	return out
}

func (c *converter) lambda(n *sitter.Node) *syntax.LambdaExpr {
	lambda := &syntax.LambdaExpr{NodeInfo: c.info(n)}
	for _, child := range namedChildren(n) {
		switch child.Kind() {
		case "lambda_parameters":
			for _, param := range namedChildren(child) {
				if id := childOfKind(param, "simple_identifier"); id != nil {
					lambda.Params = append(lambda.Params, c.text(id))
				}
			}
		case "statements":
			lambda.Body = append(lambda.Body, c.statements(child)...)
		default:
			if converted := c.convert(child); converted != nil {
				lambda.Body = append(lambda.Body, converted)
			}
		}
	}
	return lambda
}

func (c *converter) infix(n *sitter.Node) syntax.Node {
	children := namedChildren(n)
	if len(children) != 3 {
		return &syntax.Other{NodeInfo: c.info(n), Kind: n.Kind(), Children: c.convertAll(children)}
	}
	return &syntax.BinaryExpr{
		NodeInfo: c.info(n),
		Op:       c.text(children[1]),
		Left:     c.convert(children[0]),
		Right:    c.convert(children[2]),
	}
}

func (c *converter) asExpr(n *sitter.Node) syntax.Node {
	children := namedChildren(n)
	if len(children) != 2 {
		return &syntax.Other{NodeInfo: c.info(n), Kind: n.Kind(), Children: c.convertAll(children)}
	}
	op := "as"
	if hasToken(n, "as?") {
		op = "as?"
	}
	info := c.info(children[1])
	return &syntax.BinaryExpr{
		NodeInfo: c.info(n),
		Op:       op,
		Left:     c.convert(children[0]),
		Right:    &syntax.TypeExpr{NodeInfo: info, Type: syntax.TypeRef{Raw: info.Raw, Range: info.Range}},
	}
}

func (c *converter) navigation(n *sitter.Node) syntax.Node {
	children := namedChildren(n)
	suffix := childOfKind(n, "navigation_suffix")
	if len(children) == 0 || suffix == nil {
		return &syntax.Other{NodeInfo: c.info(n), Kind: n.Kind(), Children: c.convertAll(children)}
	}
	target := children[0]
	switch {
	case hasToken(suffix, "::") && hasToken(suffix, "class"):
		return &syntax.ClassLit{NodeInfo: c.info(n), Type: syntax.TypeRef{Raw: c.text(target), Range: c.info(target).Range}}
	case hasToken(suffix, "::"):
		return &syntax.CallableRef{NodeInfo: c.info(n), Receiver: c.text(target), Name: c.text(childOfKind(suffix, "simple_identifier"))}
	}
	id := childOfKind(suffix, "simple_identifier")
	if id == nil {
		return &syntax.Other{NodeInfo: c.info(n), Kind: n.Kind(), Children: c.convertAll(children)}
	}
	return &syntax.NavExpr{
		NodeInfo: c.info(n),
		Target:   c.convert(target),
		Name:     c.text(id),
		Safe:     strings.HasPrefix(strings.TrimSpace(c.text(suffix)), "?."),
	}
}

func (c *converter) callableRef(n *sitter.Node) syntax.Node {
	var receiver string
	if typ := childOfKind(n, "receiver_type", "user_type", "type_identifier"); typ != nil {
		receiver = c.text(typ)
	}
	if hasToken(n, "class") {
		info := c.info(n)
		return &syntax.ClassLit{NodeInfo: info, Type: syntax.TypeRef{Raw: receiver, Range: info.Range}}
	}
	return &syntax.CallableRef{NodeInfo: c.info(n), Receiver: receiver, Name: c.text(childOfKind(n, "simple_identifier"))}
}

func unquote(raw string) string {
	switch {
	case strings.HasPrefix(raw, `"""`) && strings.HasSuffix(raw, `"""`) && len(raw) >= 6:
		return raw[3 : len(raw)-3]
	case strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2:
		return raw[1 : len(raw)-1]
	}
	return raw
}
