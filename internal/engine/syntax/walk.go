package syntax

import "strings"

// Visitor is called for each node in pre-order. path holds the ancestors of n,
// outermost first. Returning false skips the children of n.
type Visitor func(n Node, path []Node) bool

// Walk traverses the tree rooted at root in pre-order.
func Walk(root Node, visit Visitor) {
	if root == nil {
		return
	}
	walk(root, make([]Node, 0, 16), visit)
}

func walk(n Node, path []Node, visit Visitor) {
	if !visit(n, path) {
		return
	}
	path = append(path, n)
	for _, child := range Children(n) {
		if child != nil {
			walk(child, path, visit)
		}
	}
}

// Children returns the direct child nodes of n in source order.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *File:
		return v.Decls
	case *PropertyDecl:
		out := annotationNodes(v.Annotations)
		if v.Init != nil {
			out = append(out, v.Init)
		}
		return out
	case *FuncDecl:
		out := annotationNodes(v.Annotations)
		if v.Body != nil {
			out = append(out, v.Body)
		}
		return out
	case *ClassDecl:
		return append(annotationNodes(v.Annotations), v.Members...)
	case *Block:
		return v.Stmts
	case *CallExpr:
		out := make([]Node, 0, len(v.Args)+2)
		if v.Callee != nil {
			out = append(out, v.Callee)
		}
		for _, arg := range v.Args {
			if arg.Value != nil {
				out = append(out, arg.Value)
			}
		}
		if v.Lambda != nil {
			out = append(out, v.Lambda)
		}
		return out
	case *BinaryExpr:
		return compact(v.Left, v.Right)
	case *LambdaExpr:
		return v.Body
	case *NavExpr:
		return compact(v.Target)
	case *Annotation:
		out := make([]Node, 0, len(v.Args))
		for _, arg := range v.Args {
			if arg.Value != nil {
				out = append(out, arg.Value)
			}
		}
		return out
	case *Other:
		return v.Children
	}
	return nil
}

func annotationNodes(annotations []*Annotation) []Node {
	out := make([]Node, 0, len(annotations)+1)
	for _, a := range annotations {
		out = append(out, a)
	}
	return out
}

func compact(nodes ...Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// CalleeName returns the simple name a call invokes: `foo` for `foo()` and
// `bar` for `a.b.bar()`. It is empty for calls on other expressions.
func CalleeName(call *CallExpr) string {
	if call == nil {
		return ""
	}
	switch callee := call.Callee.(type) {
	case *Ident:
		return callee.Name
	case *NavExpr:
		return callee.Name
	}
	return ""
}

// SimpleTypeName strips type arguments, package qualifiers and nullability:
// `com.example.Repo<T>?` becomes `Repo`.
func SimpleTypeName(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, '<'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(strings.TrimSpace(s), "?!")
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return strings.Trim(strings.TrimSpace(s), "`")
}

// TypeArguments returns the top-level type arguments of raw, so
// `Map<String, List<Int>>` yields ["String", "List<Int>"].
func TypeArguments(raw string) []string {
	start := strings.IndexByte(raw, '<')
	end := strings.LastIndexByte(raw, '>')
	if start < 0 || end <= start {
		return nil
	}
	inner := raw[start+1 : end]
	var args []string
	depth, last := 0, 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ',':
			if depth == 0 {
				args = appendTrimmed(args, inner[last:i])
				last = i + 1
			}
		}
	}
	return appendTrimmed(args, inner[last:])
}

func appendTrimmed(args []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		args = append(args, s)
	}
	return args
}

// ExprText renders a reference-like expression (identifier or navigation chain)
// as dotted text. ok is false for anything else.
func ExprText(n Node) (string, bool) {
	switch v := n.(type) {
	case *Ident:
		return v.Name, true
	case *NavExpr:
		target, ok := ExprText(v.Target)
		if !ok {
			return "", false
		}
		return target + "." + v.Name, true
	}
	return "", false
}
