package koin

import (
	"sort"
	"strings"

	"koinlint/internal/engine/syntax"
)

// Rule identifiers.
const (
	RuleCircularModuleDependency          = "CircularModuleDependency"
	RuleDuplicateBindingWithoutQualifier  = "DuplicateBindingWithoutQualifier"
	RuleConflictingBindings               = "ConflictingBindings"
	RuleOverrideInIncludedModule          = "OverrideInIncludedModule"
	RuleGetConcreteTypeInsteadOfInterface = "GetConcreteTypeInsteadOfInterface"
	RuleEnumQualifierCollision            = "EnumQualifierCollision"
	RuleGenericDefinitionWithoutQualifier = "GenericDefinitionWithoutQualifier"
	RuleScopedDependencyOutsideScopeBlock = "ScopedDependencyOutsideScopeBlock"
	RuleFactoryInScopeBlock               = "FactoryInScopeBlock"
	RuleMixingDslAndAnnotations           = "MixingDslAndAnnotations"
)

// RuleIDs lists every rule the analyzer can report, in reporting order.
var RuleIDs = []string{
	RuleCircularModuleDependency,
	RuleDuplicateBindingWithoutQualifier,
	RuleConflictingBindings,
	RuleOverrideInIncludedModule,
	RuleGetConcreteTypeInsteadOfInterface,
	RuleEnumQualifierCollision,
	RuleGenericDefinitionWithoutQualifier,
	RuleScopedDependencyOutsideScopeBlock,
	RuleFactoryInScopeBlock,
	RuleMixingDslAndAnnotations,
}

// Finding is one reported anti-pattern.
type Finding struct {
	RuleID  string
	Message string
	Span    syntax.Span
}

// message renders the house format: the summary lines, a blank line, then the
// bad and good examples. Continuation lines of an example are indented under it.
func message(summary, bad, good string) string {
	var b strings.Builder
	b.WriteString(summary)
	if bad != "" || good != "" {
		b.WriteString("\n\n")
		writeExample(&b, "✗ Bad:  ", bad)
		b.WriteString("\n")
		writeExample(&b, "✓ Good: ", good)
	}
	return b.String()
}

func writeExample(b *strings.Builder, label, example string) {
	pad := strings.Repeat(" ", len([]rune(label)))
	for i, line := range strings.Split(example, "\n") {
		if i == 0 {
			b.WriteString(label)
		} else {
			b.WriteString("\n")
			b.WriteString(pad)
		}
		b.WriteString(line)
	}
}

// sortFindings orders findings by start offset, then rule id, then message.
func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Span.Start.Offset != b.Span.Start.Offset {
			return a.Span.Start.Offset < b.Span.Start.Offset
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.Message < b.Message
	})
}

// capFindings keeps at most limit(rule) findings per rule, in order. A limit <= 0 keeps all.
func capFindings(findings []Finding, limit func(ruleID string) int) []Finding {
	counts := make(map[string]int)
	out := findings[:0]
	for _, f := range findings {
		if n := limit(f.RuleID); n > 0 && counts[f.RuleID] >= n {
			continue
		}
		counts[f.RuleID]++
		out = append(out, f)
	}
	return out
}
