package koin

import (
	"fmt"

	"koinlint/internal/engine/syntax"
)

const fileScope = "file"

// enumCollisionFindings tracks, per module scope, which enum types own each
// qualifier constant. A constant reused by a second enum type is reported at the
// binding that introduces the second type.
func enumCollisionFindings(records []BindingRecord) []Finding {
	owners := make(map[string]map[string][]string)
	var findings []Finding
	for _, rec := range records {
		q := rec.Qualifier
		if q == nil || q.Kind != QualifierEnum || q.EnumType == "" {
			continue
		}
		scope, ok := rec.scopeKey()
		if !ok {
			scope = fileScope
		}
		byConstant, ok := owners[scope]
		if !ok {
			byConstant = make(map[string][]string)
			owners[scope] = byConstant
		}
		types := byConstant[q.Value]
		if contains(types, q.EnumType) {
			continue
		}
		if len(types) > 0 {
			findings = append(findings, Finding{
				RuleID: RuleEnumQualifierCollision,
				Message: message(
					fmt.Sprintf("Enum qualifier collision: '%s' used by multiple enum types\n"+
						"→ R8/ProGuard may treat these as identical, causing runtime errors\n"+
						"→ Use string qualifiers or ensure unique enum value names", q.Value),
					fmt.Sprintf("enum class %[1]s { %[3]s }; enum class %[2]s { %[3]s }\nsingle(named(%[1]s.%[3]s)) { ... }\nsingle(named(%[2]s.%[3]s)) { ... }",
						types[0], q.EnumType, q.Value),
					"single(named(\"type1_value\")) { ... }\nsingle(named(\"type2_value\")) { ... }",
				),
				Span: rec.Span,
			})
		}
		byConstant[q.Value] = append(types, q.EnumType)
	}
	return findings
}

// genericFindings reports unqualified bindings of a parameterized container type.
// Parameterizations are erased at runtime, so a collision is assumed possible.
func genericFindings(records []BindingRecord, opts Options) []Finding {
	containers := opts.StringSet(RuleGenericDefinitionWithoutQualifier, OptContainerTypes, defaultContainerTypes)
	var findings []Finding
	for _, rec := range records {
		if rec.Qualifier != nil {
			continue
		}
		t, ok := rec.InferredType()
		if !ok || !containers[syntax.SimpleTypeName(t)] || len(syntax.TypeArguments(t)) == 0 {
			continue
		}
		findings = append(findings, Finding{
			RuleID: RuleGenericDefinitionWithoutQualifier,
			Message: message(
				"Generic type without qualifier → Type erasure collision\n→ "+t+" is indistinguishable from other "+
					syntax.SimpleTypeName(t)+" bindings at runtime",
				"single { listOf<A>() }",
				"single(named(\"a\")) { listOf<A>() }",
			),
			Span: rec.Span,
		})
	}
	return findings
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
