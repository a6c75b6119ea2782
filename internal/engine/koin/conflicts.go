package koin

import (
	"fmt"
	"strings"

	"koinlint/internal/engine/syntax"
)

type scopedType struct {
	scope string
	typ   string
}

// duplicateFindings groups the bindings of each module scope by provided type. A
// group of two or more with an unqualified member reports its first unqualified
// binding. A binding reported for several types gets one finding listing them all.
func duplicateFindings(records []BindingRecord) []Finding {
	groups := make(map[scopedType][]int)
	var order []scopedType
	for i, rec := range records {
		scope, ok := rec.scopeKey()
		if !ok {
			continue
		}
		for _, t := range rec.ProvidedTypes() {
			key := scopedType{scope: scope, typ: t}
			if _, seen := groups[key]; !seen {
				order = append(order, key)
			}
			groups[key] = append(groups[key], i)
		}
	}

	duplicated := make(map[int][]string)
	var reported []int
	for _, key := range order {
		members := groups[key]
		if len(members) < 2 {
			continue
		}
		for _, i := range members {
			if records[i].Qualifier != nil {
				continue
			}
			if _, ok := duplicated[i]; !ok {
				reported = append(reported, i)
			}
			duplicated[i] = append(duplicated[i], key.typ)
			break
		}
	}

	findings := make([]Finding, 0, len(reported))
	for _, i := range reported {
		types := duplicated[i]
		first := types[0]
		findings = append(findings, Finding{
			RuleID: RuleDuplicateBindingWithoutQualifier,
			Message: message(
				fmt.Sprintf("Duplicate binding to %s without qualifier → Silent override\n→ Add named() qualifiers to keep both bindings", strings.Join(types, ", ")),
				fmt.Sprintf("single { A() } bind %[1]s::class\nsingle { B() } bind %[1]s::class", first),
				fmt.Sprintf("single { A() } bind %[1]s::class named(\"a\")\nsingle { B() } bind %[1]s::class named(\"b\")", first),
			),
			Span: records[i].Span,
		})
	}
	return findings
}

type qualifiedType struct {
	typ       string
	qualifier string
}

// crossOriginFindings reports types bound both through the DSL and through
// annotations, keyed by (type, qualifier). The annotation side is reported.
func crossOriginFindings(records []BindingRecord) []Finding {
	type origins struct {
		dsl        bool
		annotation int
	}
	seen := make(map[qualifiedType]*origins)
	var order []qualifiedType
	for i, rec := range records {
		for _, t := range rec.ProvidedTypes() {
			key := qualifiedType{typ: t, qualifier: rec.QualifierKey()}
			o, ok := seen[key]
			if !ok {
				o = &origins{annotation: -1}
				seen[key] = o
				order = append(order, key)
			}
			if rec.Origin == OriginDSL {
				o.dsl = true
			} else if o.annotation < 0 {
				o.annotation = i
			}
		}
	}

	var findings []Finding
	for _, key := range order {
		o := seen[key]
		if !o.dsl || o.annotation < 0 {
			continue
		}
		findings = append(findings, Finding{
			RuleID: RuleConflictingBindings,
			Message: message(
				fmt.Sprintf("Type '%s' defined in both DSL and Annotations → Runtime conflict: which wins?\n→ Use only one approach per type", key.typ),
				fmt.Sprintf("@Single fun provide(): %[1]s = ...; val m = module { single<%[1]s> { ... } }", key.typ),
				fmt.Sprintf("@Single fun provide(): %s = ...", key.typ),
			),
			Span: records[o.annotation].Span,
		})
	}
	return findings
}

// multiAnnotationFindings reports classes carrying more than one definition annotation.
func multiAnnotationFindings(file *syntax.File) []Finding {
	var findings []Finding
	syntax.Walk(file, func(n syntax.Node, _ []syntax.Node) bool {
		cls, ok := n.(*syntax.ClassDecl)
		if !ok {
			return true
		}
		names := DefinitionAnnotations(cls)
		if len(names) < 2 {
			return true
		}
		at := make([]string, len(names))
		for i, name := range names {
			at[i] = "@" + name
		}
		findings = append(findings, Finding{
			RuleID: RuleConflictingBindings,
			Message: message(
				"Multiple Koin definition annotations: "+strings.Join(at, ", ")+"\n→ KSP picks first annotation; behavior is undefined. Choose one.",
				strings.Join(at, " ")+" class "+cls.Name,
				at[0]+" class "+cls.Name,
			),
			Span: cls.Span(),
		})
		return true
	})
	return findings
}

// overrideFindings reports, for every module with a resolved include, its
// bindings without `override = true` whose type is provided more than once in
// the file. Co-occurrence in the file stands in for "provided by an included module".
func overrideFindings(g *Graph, records []BindingRecord) []Finding {
	providers := make(map[string]int)
	for _, rec := range records {
		for _, t := range rec.ProvidedTypes() {
			providers[t]++
		}
	}

	var findings []Finding
	for _, id := range g.Order {
		node := g.nodes[id]
		if len(node.Includes) == 0 {
			continue
		}
		for _, rec := range node.Bindings {
			if rec.HasOverride {
				continue
			}
			for _, t := range rec.ProvidedTypes() {
				if providers[t] < 2 {
					continue
				}
				findings = append(findings, Finding{
					RuleID: RuleOverrideInIncludedModule,
					Message: message(
						"Module with includes() defines type that may conflict: "+t+
							"\n→ Overriding definitions from included modules requires override = true"+
							"\n→ Or use separate modules without includes()",
						fmt.Sprintf("module { includes(base); single<%s> { ... } }", t),
						fmt.Sprintf("module { includes(base); single<%s>(override = true) { ... } }", t),
					),
					Span: rec.Span,
				})
				break
			}
		}
	}
	return findings
}

// Request is a container lookup with an explicit type argument: `get<Foo>()`.
type Request struct {
	Verb string
	Type string
	Span syntax.Span
}

// CollectRequests returns the typed lookups of a file in source order.
func CollectRequests(file *syntax.File, opts Options) []Request {
	verbs := opts.StringSet(RuleGetConcreteTypeInsteadOfInterface, OptRequestVerbs, defaultRequestVerbs)
	var requests []Request
	syntax.Walk(file, func(n syntax.Node, _ []syntax.Node) bool {
		call, ok := n.(*syntax.CallExpr)
		if !ok || len(call.TypeArgs) == 0 {
			return true
		}
		verb := syntax.CalleeName(call)
		if !verbs[verb] {
			return true
		}
		if t := call.TypeArgs[0].Name(); t != "" {
			requests = append(requests, Request{Verb: verb, Type: t, Span: call.Span()})
		}
		return true
	})
	return requests
}

// concreteFindings reports requests for an implementation type that is only
// registered behind an interface.
func concreteFindings(records []BindingRecord, requests []Request, opts Options) []Finding {
	suffixes := opts.StringSlice(RuleGetConcreteTypeInsteadOfInterface, OptImplementationSuffixes, nil)
	implementation := func(name string) bool {
		if len(suffixes) == 0 {
			return true
		}
		for _, s := range suffixes {
			if strings.HasSuffix(name, s) {
				return true
			}
		}
		return false
	}

	interfaces := make(map[string]string)
	standalone := make(map[string]bool)
	mapTo := func(impl, iface string) {
		if impl == "" || iface == "" || impl == iface {
			return
		}
		if _, ok := interfaces[impl]; !ok {
			interfaces[impl] = iface
		}
	}
	for _, rec := range records {
		declared, hasDeclared := rec.Declared()
		constructed, hasConstructed := rec.Constructed()
		declared = syntax.SimpleTypeName(declared)
		constructed = syntax.SimpleTypeName(constructed)
		if hasConstructed && !implementation(constructed) {
			hasConstructed = false
			constructed = ""
		}
		if hasDeclared {
			standalone[declared] = true
		}
		if hasDeclared && hasConstructed {
			mapTo(constructed, declared)
		}
		if len(rec.BoundInterfaces) > 0 {
			first := syntax.SimpleTypeName(rec.BoundInterfaces[0])
			mapTo(constructed, first)
			mapTo(declared, first)
		} else if hasConstructed && !hasDeclared {
			standalone[constructed] = true
		}
	}

	var findings []Finding
	for _, req := range requests {
		iface, ok := interfaces[req.Type]
		if !ok || standalone[req.Type] {
			continue
		}
		findings = append(findings, Finding{
			RuleID: RuleGetConcreteTypeInsteadOfInterface,
			Message: message(
				fmt.Sprintf("%[1]s<%[2]s>() requests concrete type but only %[3]s is registered\n"+
					"→ verify() passes but runtime fails with NoBeanDefFoundException\n"+
					"→ Request the interface type: %[1]s<%[3]s>()", req.Verb, req.Type, iface),
				fmt.Sprintf("single<%[2]s> { %[1]s() }; %[3]s<%[1]s>()", req.Type, iface, req.Verb),
				fmt.Sprintf("single<%[1]s> { %[2]s() }; %[3]s<%[1]s>()", iface, req.Type, req.Verb),
			),
			Span: req.Span,
		})
	}
	return findings
}
