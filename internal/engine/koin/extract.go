package koin

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"koinlint/internal/engine/syntax"
)

// traversal is the context threaded down the recursive walk. It is copied, never
// shared, so sibling subtrees cannot observe each other's state.
type traversal struct {
	module  string
	block   int
	inScope bool
}

// chain operators that decorate a definition: `single { } bind Foo::class`,
// `single { }.withOptions { }`.
var chainOps = map[string]bool{
	"bind":           true,
	"binds":          true,
	"named":          true,
	"withOptions":    true,
	"onClose":        true,
	"createdAtStart": true,
}

var qualifierCalls = map[string]bool{
	"named":           true,
	"qualifier":       true,
	"StringQualifier": true,
	"TypeQualifier":   true,
}

var collectionBuilders = map[string]string{
	"listOf":              "List",
	"emptyList":           "List",
	"mutableListOf":       "MutableList",
	"arrayListOf":         "ArrayList",
	"setOf":               "Set",
	"emptySet":            "Set",
	"mutableSetOf":        "MutableSet",
	"hashSetOf":           "HashSet",
	"linkedSetOf":         "LinkedHashSet",
	"mapOf":               "Map",
	"emptyMap":            "Map",
	"mutableMapOf":        "MutableMap",
	"hashMapOf":           "HashMap",
	"linkedMapOf":         "LinkedHashMap",
	"arrayOf":             "Array",
	"emptyArray":          "Array",
	"sequenceOf":          "Sequence",
	"emptySequence":       "Sequence",
	"mutableCollectionOf": "MutableCollection",
}

// Definition annotations on classes and the kind each one declares.
var classAnnotations = map[string]DefinitionKind{
	"Single":                KindSingle,
	"Factory":               KindFactory,
	"Scoped":                KindScoped,
	"KoinViewModel":         KindViewModel,
	"KoinWorker":            KindWorker,
	"ActivityScope":         KindScoped,
	"FragmentScope":         KindScoped,
	"ViewModelScope":        KindScoped,
	"RequestScope":          KindScoped,
	"ActivityRetainedScope": KindScoped,
}

// Annotations that turn a function into a provider.
var providerAnnotations = map[string]DefinitionKind{
	"Single":  KindSingle,
	"Factory": KindFactory,
	"Scoped":  KindScoped,
}

type extractor struct {
	blocks          map[*syntax.CallExpr]*ModuleBlock
	definitionVerbs map[string]bool
	scopeVerbs      map[string]bool
	suffixes        []string
	seen            map[*syntax.CallExpr]bool
	records         []BindingRecord
}

// ExtractBindings returns the binding records of a file in source order. blocks
// must come from LocateModules on the same file.
func ExtractBindings(file *syntax.File, blocks []*ModuleBlock, opts Options) []BindingRecord {
	if file == nil {
		return nil
	}
	e := &extractor{
		blocks:          make(map[*syntax.CallExpr]*ModuleBlock, len(blocks)),
		definitionVerbs: opts.StringSet("", OptDefinitionVerbs, defaultDefinitionVerbs),
		scopeVerbs:      opts.StringSet("", OptScopeVerbs, defaultScopeVerbs),
		suffixes:        opts.StringSlice("", OptImplementationSuffixes, nil),
		seen:            make(map[*syntax.CallExpr]bool),
	}
	for _, b := range blocks {
		e.blocks[b.Call] = b
	}
	e.visit(file, traversal{block: -1})
	return e.records
}

func (e *extractor) visit(n syntax.Node, tc traversal) {
	switch v := n.(type) {
	case *syntax.CallExpr:
		if block, ok := e.blocks[v]; ok {
			tc.block = block.Index
			if block.Named() {
				tc.module = block.ID
			}
		} else if v.Lambda != nil && e.scopeVerbs[syntax.CalleeName(v)] {
			if _, plain := v.Callee.(*syntax.Ident); plain {
				tc.inScope = true
			}
		}
		e.definition(v, tc)
	case *syntax.BinaryExpr:
		if chainOps[v.Op] {
			e.definition(v, tc)
		}
	case *syntax.FuncDecl:
		e.provider(v, tc)
	case *syntax.ClassDecl:
		e.annotatedClass(v, tc)
	}
	for _, child := range syntax.Children(n) {
		if child != nil {
			e.visit(child, tc)
		}
	}
}

// definition records the definition rooted at n, if any. n is either the
// definition call or the outermost link of a chain decorating it.
func (e *extractor) definition(n syntax.Node, tc traversal) {
	root, links, ok := e.unwind(n)
	if !ok || e.seen[root] {
		return
	}
	e.seen[root] = true

	name := syntax.CalleeName(root)
	rec := BindingRecord{
		Kind:         kindOfVerb(name),
		Origin:       OriginDSL,
		Verb:         name,
		ModuleID:     tc.module,
		Block:        tc.block,
		InScopeBlock: tc.inScope,
		Span:         root.Span(),
	}
	if len(root.TypeArgs) > 0 {
		rec.DeclaredType = root.TypeArgs[0].Raw
	}
	for _, arg := range root.Args {
		switch {
		case arg.Name == "override":
			if lit, ok := arg.Value.(*syntax.BoolLit); ok && lit.Value {
				rec.HasOverride = true
			}
		case arg.Name == "qualifier":
			rec.Qualifier = qualifierOf(arg.Value)
		case arg.Name == "" && isQualifierCall(arg.Value):
			rec.Qualifier = qualifierOf(arg.Value)
		}
	}
	if isConstructorForm(name) {
		if len(root.Args) > 0 {
			if ref, ok := root.Args[0].Value.(*syntax.CallableRef); ok && ref.Receiver == "" {
				rec.ConstructedType = ref.Name
			}
		}
		if root.Lambda != nil {
			applyOptions(&rec, root.Lambda)
		}
	} else if root.Lambda != nil && len(root.Lambda.Body) == 1 {
		rec.ConstructedType = e.constructed(root.Lambda.Body[0])
	}

	for _, link := range links {
		applyLink(&rec, link)
	}
	e.records = append(e.records, validRecord(rec))
}

// unwind walks a decorated definition down to its definition call. The links are
// returned in source order, innermost first.
func (e *extractor) unwind(n syntax.Node) (*syntax.CallExpr, []syntax.Node, bool) {
	var links []syntax.Node
	for n != nil {
		switch v := n.(type) {
		case *syntax.BinaryExpr:
			if !chainOps[v.Op] {
				return nil, nil, false
			}
			links = append(links, v)
			n = v.Left
		case *syntax.CallExpr:
			if e.isDefinition(v) {
				for i, j := 0, len(links)-1; i < j; i, j = i+1, j-1 {
					links[i], links[j] = links[j], links[i]
				}
				return v, links, true
			}
			nav, ok := v.Callee.(*syntax.NavExpr)
			if !ok || !chainOps[nav.Name] {
				return nil, nil, false
			}
			links = append(links, v)
			n = nav.Target
		default:
			return nil, nil, false
		}
	}
	return nil, nil, false
}

func (e *extractor) isDefinition(call *syntax.CallExpr) bool {
	ident, ok := call.Callee.(*syntax.Ident)
	if !ok || !e.definitionVerbs[ident.Name] {
		return false
	}
	if isConstructorForm(ident.Name) {
		return len(call.Args) > 0
	}
	return call.Lambda != nil
}

func isConstructorForm(verb string) bool {
	return len(verb) > 2 && strings.HasSuffix(verb, "Of")
}

func kindOfVerb(verb string) DefinitionKind {
	if isConstructorForm(verb) {
		verb = strings.TrimSuffix(verb, "Of")
	}
	switch verb {
	case "single":
		return KindSingle
	case "scoped":
		return KindScoped
	case "viewModel":
		return KindViewModel
	case "worker":
		return KindWorker
	}
	return KindFactory
}

func applyLink(rec *BindingRecord, link syntax.Node) {
	switch v := link.(type) {
	case *syntax.BinaryExpr:
		switch v.Op {
		case "bind":
			if t, ok := typeOf(v.Right); ok {
				rec.BoundInterfaces = append(rec.BoundInterfaces, t)
			}
		case "binds":
			rec.BoundInterfaces = append(rec.BoundInterfaces, classLiterals(v.Right)...)
		case "named":
			rec.Qualifier = qualifierOf(v.Right)
		case "withOptions":
			if lambda, ok := v.Right.(*syntax.LambdaExpr); ok {
				applyOptions(rec, lambda)
			}
		}
	case *syntax.CallExpr:
		nav := v.Callee.(*syntax.NavExpr)
		switch nav.Name {
		case "bind", "binds":
			rec.BoundInterfaces = append(rec.BoundInterfaces, boundByCall(v)...)
		case "named":
			rec.Qualifier = qualifierFromCall(v)
		case "withOptions":
			if v.Lambda != nil {
				applyOptions(rec, v.Lambda)
			}
		}
	}
}

// applyOptions reads an options lambda: `{ named("x"); bind<Foo>(); createdAtStart() }`.
func applyOptions(rec *BindingRecord, lambda *syntax.LambdaExpr) {
	for _, stmt := range lambda.Body {
		switch v := stmt.(type) {
		case *syntax.CallExpr:
			name, ok := v.Callee.(*syntax.Ident)
			if !ok {
				continue
			}
			switch {
			case name.Name == "bind" || name.Name == "binds":
				rec.BoundInterfaces = append(rec.BoundInterfaces, boundByCall(v)...)
			case qualifierCalls[name.Name]:
				rec.Qualifier = qualifierFromCall(v)
			}
		case *syntax.BinaryExpr:
			if target, ok := v.Left.(*syntax.Ident); ok && v.Op == "=" && target.Name == "qualifier" {
				rec.Qualifier = qualifierOf(v.Right)
			}
		}
	}
}

// boundByCall returns the types of `bind<Foo>()`, `bind(Foo::class)` and
// `binds(listOf(A::class, B::class))`.
func boundByCall(call *syntax.CallExpr) []string {
	var out []string
	for _, t := range call.TypeArgs {
		out = append(out, t.Raw)
	}
	for _, arg := range call.Args {
		out = append(out, classLiterals(arg.Value)...)
	}
	return out
}

// classLiterals collects every `X::class` under n in source order.
func classLiterals(n syntax.Node) []string {
	var out []string
	syntax.Walk(n, func(node syntax.Node, _ []syntax.Node) bool {
		if lit, ok := node.(*syntax.ClassLit); ok && lit.Type.Raw != "" {
			out = append(out, lit.Type.Raw)
			return false
		}
		return true
	})
	return out
}

// typeOf reads a type from expression position: `Foo::class`, `Foo`, `a.Foo`.
func typeOf(n syntax.Node) (string, bool) {
	switch v := n.(type) {
	case *syntax.ClassLit:
		return v.Type.Raw, v.Type.Raw != ""
	case *syntax.TypeExpr:
		return v.Type.Raw, v.Type.Raw != ""
	}
	return syntax.ExprText(n)
}

func isQualifierCall(n syntax.Node) bool {
	call, ok := n.(*syntax.CallExpr)
	return ok && qualifierCalls[syntax.CalleeName(call)]
}

// qualifierOf classifies a qualifier expression.
func qualifierOf(n syntax.Node) *Qualifier {
	switch v := n.(type) {
	case nil:
		return nil
	case *syntax.CallExpr:
		if qualifierCalls[syntax.CalleeName(v)] {
			return qualifierFromCall(v)
		}
	case *syntax.StringLit:
		return &Qualifier{Kind: QualifierString, Value: v.Value}
	case *syntax.NavExpr:
		if target, ok := syntax.ExprText(v.Target); ok {
			return &Qualifier{Kind: QualifierEnum, Value: v.Name, EnumType: syntax.SimpleTypeName(target)}
		}
	case *syntax.ClassLit:
		return &Qualifier{Kind: QualifierType, Value: v.Type.Name()}
	}
	return &Qualifier{Kind: QualifierOther, Value: strings.TrimSpace(n.Text())}
}

// qualifierFromCall reads `named("x")`, `named(Enum.X)`, `named<T>()` and friends.
func qualifierFromCall(call *syntax.CallExpr) *Qualifier {
	if len(call.Args) == 0 {
		if len(call.TypeArgs) > 0 {
			return &Qualifier{Kind: QualifierType, Value: call.TypeArgs[0].Name()}
		}
		return &Qualifier{Kind: QualifierOther, Value: strings.TrimSpace(call.Text())}
	}
	return qualifierOf(call.Args[0].Value)
}

// constructed guesses the type produced by a definition body statement.
func (e *extractor) constructed(stmt syntax.Node) string {
	switch v := stmt.(type) {
	case *syntax.BinaryExpr:
		if v.Op == "as" || v.Op == "as?" {
			if t, ok := typeOf(v.Right); ok {
				return strings.TrimSuffix(t, "?")
			}
		}
	case *syntax.CallExpr:
		name := syntax.CalleeName(v)
		if container, ok := collectionBuilders[name]; ok {
			if len(v.TypeArgs) == 0 {
				return ""
			}
			return container + typeArgText(v.TypeArgs)
		}
		if !startsUpper(name) || !e.allowedImplementation(name) {
			return ""
		}
		if _, ok := v.Callee.(*syntax.Ident); !ok {
			if _, ok := syntax.ExprText(v.Callee); !ok {
				return ""
			}
		}
		return name + typeArgText(v.TypeArgs)
	}
	return ""
}

func (e *extractor) allowedImplementation(name string) bool {
	if len(e.suffixes) == 0 {
		return true
	}
	for _, s := range e.suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func typeArgText(args []syntax.TypeRef) string {
	if len(args) == 0 {
		return ""
	}
	raw := make([]string, len(args))
	for i, a := range args {
		raw[i] = a.Raw
	}
	return "<" + strings.Join(raw, ", ") + ">"
}

// validName replaces invalid UTF-8 in source-derived names so they can be
// embedded in messages and JSON or SARIF output.
func validName(s string) string {
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

func validRecord(rec BindingRecord) BindingRecord {
	rec.Verb = validName(rec.Verb)
	rec.DeclaredType = validName(rec.DeclaredType)
	rec.ConstructedType = validName(rec.ConstructedType)
	rec.ModuleID = validName(rec.ModuleID)
	if len(rec.BoundInterfaces) > 0 {
		ifaces := make([]string, len(rec.BoundInterfaces))
		for i, iface := range rec.BoundInterfaces {
			ifaces[i] = validName(iface)
		}
		rec.BoundInterfaces = ifaces
	}
	if rec.Qualifier != nil {
		q := *rec.Qualifier
		q.Value = validName(q.Value)
		q.EnumType = validName(q.EnumType)
		rec.Qualifier = &q
	}
	return rec
}

func startsUpper(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// provider records a function annotated @Single, @Factory or @Scoped.
func (e *extractor) provider(fn *syntax.FuncDecl, tc traversal) {
	names := annotationNames(fn.Annotations)
	kind, verb, ok := firstAnnotation(names, providerAnnotations)
	if !ok {
		return
	}
	rec := BindingRecord{
		Kind:         kind,
		Origin:       OriginAnnotation,
		Verb:         "@" + verb,
		DeclaredType: fn.ReturnType,
		Qualifier:    namedAnnotation(fn.Annotations),
		ModuleID:     tc.module,
		Block:        tc.block,
		InScopeBlock: tc.inScope,
		Span:         fn.Span(),
	}
	if rec.DeclaredType == "" && fn.Body != nil {
		if _, isBlock := fn.Body.(*syntax.Block); !isBlock {
			rec.ConstructedType = e.constructed(fn.Body)
		}
	}
	if _, ok := rec.InferredType(); !ok {
		return
	}
	e.records = append(e.records, validRecord(rec))
}

// annotatedClass records a class carrying a definition annotation. The first
// annotation decides the kind.
func (e *extractor) annotatedClass(cls *syntax.ClassDecl, tc traversal) {
	if cls.Name == "" {
		return
	}
	var def *syntax.Annotation
	for _, a := range cls.Annotations {
		if _, ok := classAnnotations[syntax.SimpleTypeName(a.Name)]; ok {
			def = a
			break
		}
	}
	if def == nil {
		return
	}
	name := syntax.SimpleTypeName(def.Name)
	rec := BindingRecord{
		Kind:         classAnnotations[name],
		Origin:       OriginAnnotation,
		Verb:         "@" + name,
		DeclaredType: cls.Name,
		Qualifier:    namedAnnotation(cls.Annotations),
		ModuleID:     tc.module,
		Block:        tc.block,
		InScopeBlock: tc.inScope,
		Span:         cls.Span(),
	}
	for _, arg := range def.Args {
		if arg.Name == "binds" {
			rec.BoundInterfaces = append(rec.BoundInterfaces, classLiterals(arg.Value)...)
		}
	}
	e.records = append(e.records, validRecord(rec))
}

func annotationNames(annotations []*syntax.Annotation) []string {
	names := make([]string, 0, len(annotations))
	for _, a := range annotations {
		names = append(names, syntax.SimpleTypeName(a.Name))
	}
	return names
}

func firstAnnotation(names []string, known map[string]DefinitionKind) (DefinitionKind, string, bool) {
	for _, n := range names {
		if kind, ok := known[n]; ok {
			return kind, n, true
		}
	}
	return 0, "", false
}

// namedAnnotation reads `@Named("x")`.
func namedAnnotation(annotations []*syntax.Annotation) *Qualifier {
	for _, a := range annotations {
		if syntax.SimpleTypeName(a.Name) != "Named" || len(a.Args) == 0 {
			continue
		}
		if lit, ok := a.Args[0].Value.(*syntax.StringLit); ok {
			return &Qualifier{Kind: QualifierString, Value: lit.Value}
		}
		return qualifierOf(a.Args[0].Value)
	}
	return nil
}

// DefinitionAnnotations returns the definition annotations of a class in source
// order, used to spot classes annotated more than once.
func DefinitionAnnotations(cls *syntax.ClassDecl) []string {
	var out []string
	for _, name := range annotationNames(cls.Annotations) {
		if _, ok := classAnnotations[name]; ok {
			out = append(out, name)
		}
	}
	return out
}
