package koin

import (
	"fmt"

	"koinlint/internal/engine/syntax"
)

// scopedOutsideFindings reports `scoped`/`scopedOf` definitions that are not
// nested in a scope block.
func scopedOutsideFindings(records []BindingRecord) []Finding {
	var findings []Finding
	for _, rec := range records {
		if rec.Origin != OriginDSL || rec.Kind != KindScoped || rec.InScopeBlock {
			continue
		}
		findings = append(findings, Finding{
			RuleID: RuleScopedDependencyOutsideScopeBlock,
			Message: message(
				fmt.Sprintf("'%s' must be defined inside a scope {} block (scope, activityScope, fragmentScope, etc.)", rec.Verb),
				"module { scoped { Presenter() } }",
				"module { scope<MainActivity> { scoped { Presenter() } } }",
			),
			Span: rec.Span,
		})
	}
	return findings
}

// factoryInScopeFindings reports `factory`/`factoryOf` definitions nested in a
// scope block, where they ignore the scope lifecycle.
func factoryInScopeFindings(records []BindingRecord) []Finding {
	var findings []Finding
	for _, rec := range records {
		if rec.Origin != OriginDSL || rec.Kind != KindFactory || !rec.InScopeBlock {
			continue
		}
		findings = append(findings, Finding{
			RuleID: RuleFactoryInScopeBlock,
			Message: message(
				"Factory inside scope block → Creates new instance every time, ignores scope lifecycle\n"+
					"→ Use scoped { } to respect scope lifecycle, or move factory outside scope block",
				"scope<Activity> { factory { Presenter() } }",
				"scope<Activity> { scoped { Presenter() } }",
			),
			Span: rec.Span,
		})
	}
	return findings
}

var mixingAnnotations = map[string]bool{"Module": true, "Single": true, "Factory": true}

// mixingFindings reports a file that declares module blocks and also carries
// Koin annotations on a top-level declaration. The first block is reported.
func mixingFindings(file *syntax.File, blocks []*ModuleBlock) []Finding {
	if len(blocks) == 0 || !hasTopLevelKoinAnnotation(file) {
		return nil
	}
	return []Finding{{
		RuleID: RuleMixingDslAndAnnotations,
		Message: message(
			"Mixing DSL and Annotations in same file → Inconsistent, harder to maintain\n"+
				"→ Choose one approach per file for consistency",
			"@Module class MyModule; val dslModule = module { }",
			"val module = module { single { Repo() }; single { Api() } }",
		),
		Span: blocks[0].Call.Span(),
	}}
}

func hasTopLevelKoinAnnotation(file *syntax.File) bool {
	for _, decl := range file.Decls {
		var annotations []*syntax.Annotation
		switch d := decl.(type) {
		case *syntax.ClassDecl:
			annotations = d.Annotations
		case *syntax.FuncDecl:
			annotations = d.Annotations
		case *syntax.PropertyDecl:
			annotations = d.Annotations
		}
		for _, name := range annotationNames(annotations) {
			if mixingAnnotations[name] {
				return true
			}
		}
	}
	return false
}
