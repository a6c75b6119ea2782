// Package koin builds a per-file symbolic model of Koin module definitions from a
// syntax tree (binding records, module blocks, include graph) and runs the
// structural checks over it. Everything here is heuristic: no type solver is
// available, so every inferred type is an explicitly fallible lookup.
package koin

import (
	"strconv"

	"koinlint/internal/engine/syntax"
)

// DefinitionKind is the lifetime a definition verb declares.
type DefinitionKind int

const (
	KindSingle DefinitionKind = iota
	KindFactory
	KindScoped
	KindViewModel
	KindWorker
)

func (k DefinitionKind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindFactory:
		return "factory"
	case KindScoped:
		return "scoped"
	case KindViewModel:
		return "viewModel"
	case KindWorker:
		return "worker"
	}
	return "unknown"
}

// Origin tells which surface declared a binding.
type Origin int

const (
	// OriginDSL is a builder call such as `single { }`.
	OriginDSL Origin = iota
	// OriginAnnotation is a declaration annotated with @Single, @Factory, ...
	OriginAnnotation
)

func (o Origin) String() string {
	if o == OriginAnnotation {
		return "annotation"
	}
	return "dsl"
}

// QualifierKind classifies a qualifier expression.
type QualifierKind int

const (
	QualifierString QualifierKind = iota
	QualifierEnum
	QualifierType
	QualifierOther
)

// Qualifier is the secondary key of a binding.
type Qualifier struct {
	Kind  QualifierKind
	Value string
	// EnumType is the simple name of the enum owning Value, for QualifierEnum.
	EnumType string
}

// Key identifies the qualifier for grouping. Equal keys mean the same qualifier.
func (q Qualifier) Key() string {
	switch q.Kind {
	case QualifierString:
		return "string:" + q.Value
	case QualifierEnum:
		return "enum:" + q.EnumType + "." + q.Value
	case QualifierType:
		return "type:" + q.Value
	}
	return "expr:" + q.Value
}

func (q Qualifier) String() string {
	switch q.Kind {
	case QualifierString:
		return `named("` + q.Value + `")`
	case QualifierEnum:
		return "named(" + q.EnumType + "." + q.Value + ")"
	case QualifierType:
		return "named<" + q.Value + ">()"
	}
	return q.Value
}

// BindingRecord is one definition found in a file. Records are produced once per
// analysis pass and never modified afterwards.
type BindingRecord struct {
	Kind   DefinitionKind
	Origin Origin
	// Verb is the callee or annotation name that produced the record.
	Verb string
	// DeclaredType is the explicit type argument (`single<Foo>`), raw text, or "".
	DeclaredType string
	// ConstructedType is the best-effort type of the definition body, raw text, or "".
	ConstructedType string
	// BoundInterfaces are the `bind` targets, simple names, in source order.
	BoundInterfaces []string
	Qualifier       *Qualifier
	HasOverride     bool
	// ModuleID is the nearest enclosing named module, or "".
	ModuleID string
	// Block is the index of the innermost module block, or -1 outside any block.
	Block        int
	InScopeBlock bool
	Span         syntax.Span
}

// Declared returns the explicit type argument.
func (b BindingRecord) Declared() (string, bool) {
	return b.DeclaredType, b.DeclaredType != ""
}

// Constructed returns the type inferred from the definition body. The inference
// is a guess from syntax only.
func (b BindingRecord) Constructed() (string, bool) {
	return b.ConstructedType, b.ConstructedType != ""
}

// InferredType returns the declared type when present and the constructed type
// otherwise. ok is false when neither is known.
func (b BindingRecord) InferredType() (string, bool) {
	if t, ok := b.Declared(); ok {
		return t, true
	}
	return b.Constructed()
}

// EnclosingModule returns the id of the nearest enclosing named module.
func (b BindingRecord) EnclosingModule() (string, bool) {
	return b.ModuleID, b.ModuleID != ""
}

// ProvidedTypes lists the simple names this binding makes resolvable: the
// inferred type followed by the bound interfaces, without duplicates.
func (b BindingRecord) ProvidedTypes() []string {
	out := make([]string, 0, len(b.BoundInterfaces)+1)
	seen := make(map[string]bool, len(b.BoundInterfaces)+1)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	if t, ok := b.InferredType(); ok {
		add(syntax.SimpleTypeName(t))
	}
	for _, iface := range b.BoundInterfaces {
		add(syntax.SimpleTypeName(iface))
	}
	return out
}

// QualifierKey returns the grouping key of the qualifier, "" when unqualified.
func (b BindingRecord) QualifierKey() string {
	if b.Qualifier == nil {
		return ""
	}
	return b.Qualifier.Key()
}

// scopeKey groups bindings by module: the named module when there is one,
// otherwise the anonymous block. Unscoped records return ok=false.
func (b BindingRecord) scopeKey() (string, bool) {
	if b.ModuleID != "" {
		return "module:" + b.ModuleID, true
	}
	if b.Block >= 0 {
		return "block:" + strconv.Itoa(b.Block), true
	}
	return "", false
}
