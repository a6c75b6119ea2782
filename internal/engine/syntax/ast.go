// Package syntax defines the language-neutral tree that the Koin analysis consumes.
// Both tree suppliers (tree-sitter and the built-in parser) produce these nodes.
package syntax

// Position is a point in a source file. Line and Column are 1-based, Offset is a byte offset.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Span is the half-open source range [Start, End) covered by a node.
type Span struct {
	Start Position
	End   Position
}

// Node is implemented by every tree node.
type Node interface {
	Span() Span
	Text() string
	node()
}

// NodeInfo carries the common location data. Embed it in every node type.
type NodeInfo struct {
	Range Span
	Raw   string
}

// Span returns the node's source span.
func (n *NodeInfo) Span() Span { return n.Range }

// Text returns the source text the node was parsed from.
func (n *NodeInfo) Text() string { return n.Raw }

func (*NodeInfo) node() {}

// TypeRef is a type written in source, kept as raw text.
type TypeRef struct {
	Raw   string
	Range Span
}

// Name returns the simple name of the referenced type.
func (t TypeRef) Name() string { return SimpleTypeName(t.Raw) }

// IsGeneric reports whether the reference carries type arguments.
func (t TypeRef) IsGeneric() bool { return len(TypeArguments(t.Raw)) > 0 }

// Argument is a call or annotation argument. Name is set for `name = value` arguments.
type Argument struct {
	Name  string
	Value Node
}

// File is the root of a parsed source file.
type File struct {
	NodeInfo
	Path    string
	Package string
	Imports []string
	Decls   []Node
}

// PropertyDecl is a `val`/`var` declaration. Init holds the initializer or delegate expression.
type PropertyDecl struct {
	NodeInfo
	Name        string
	Type        string
	Init        Node
	Delegated   bool
	Annotations []*Annotation
}

// FuncDecl is a named function. Body is a *Block or an expression for `= expr` bodies.
type FuncDecl struct {
	NodeInfo
	Name        string
	ReturnType  string
	Annotations []*Annotation
	Body        Node
}

// ClassDecl covers classes, interfaces, objects and enums.
type ClassDecl struct {
	NodeInfo
	Name        string
	Keyword     string
	Annotations []*Annotation
	Supertypes  []string
	Members     []Node
}

// Block is a braced statement list that is not a lambda (function bodies, if/when branches).
type Block struct {
	NodeInfo
	Stmts []Node
}

// CallExpr is a call such as `single<Foo>(named("x")) { FooImpl() }`.
type CallExpr struct {
	NodeInfo
	Callee   Node
	TypeArgs []TypeRef
	Args     []Argument
	Lambda   *LambdaExpr
}

// BinaryExpr is any binary operation. Op is the operator token, including infix
// function names such as `bind` and the casts `as` and `as?`.
type BinaryExpr struct {
	NodeInfo
	Op    string
	Left  Node
	Right Node
}

// LambdaExpr is a lambda literal.
type LambdaExpr struct {
	NodeInfo
	Params []string
	Body   []Node
}

// Ident is a simple name.
type Ident struct {
	NodeInfo
	Name string
}

// NavExpr is a member access `Target.Name` or `Target?.Name`.
type NavExpr struct {
	NodeInfo
	Target Node
	Name   string
	Safe   bool
}

// StringLit is a string literal. Value is the content between the quotes, templates unexpanded.
type StringLit struct {
	NodeInfo
	Value string
}

// BoolLit is `true` or `false`.
type BoolLit struct {
	NodeInfo
	Value bool
}

// ClassLit is `Foo::class`.
type ClassLit struct {
	NodeInfo
	Type TypeRef
}

// CallableRef is `::Foo` or `Receiver::member`.
type CallableRef struct {
	NodeInfo
	Receiver string
	Name     string
}

// TypeExpr is a type in expression position, the right operand of `as` and `is`.
type TypeExpr struct {
	NodeInfo
	Type TypeRef
}

// Annotation is `@Name` or `@Name(args)`.
type Annotation struct {
	NodeInfo
	Name string
	Args []Argument
}

// Other is a construct the analysis does not model. Children keeps the converted
// sub-expressions so nested calls remain reachable.
type Other struct {
	NodeInfo
	Kind     string
	Children []Node
}
