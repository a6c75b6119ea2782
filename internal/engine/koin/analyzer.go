package koin

import "koinlint/internal/engine/syntax"

// Model is the symbolic view of one file. It lives for one analysis pass.
type Model struct {
	Blocks   []*ModuleBlock
	Bindings []BindingRecord
	Graph    *Graph
	Requests []Request
}

// Build extracts the model of a file.
func Build(file *syntax.File, opts Options) *Model {
	blocks := LocateModules(file, opts)
	bindings := ExtractBindings(file, blocks, opts)
	return &Model{
		Blocks:   blocks,
		Bindings: bindings,
		Graph:    BuildGraph(blocks, bindings, opts),
		Requests: CollectRequests(file, opts),
	}
}

// Analyze runs every enabled check over a file and returns the findings ordered
// by position. It never fails; missing structure yields no finding.
func Analyze(file *syntax.File, opts Options) []Finding {
	if file == nil {
		return nil
	}
	return Check(file, Build(file, opts), opts)
}

// Check runs the enabled checks over a model built from file.
func Check(file *syntax.File, m *Model, opts Options) []Finding {
	checks := []struct {
		rule string
		run  func() []Finding
	}{
		{RuleCircularModuleDependency, func() []Finding { return m.Graph.cycleFindings(DetectCycles(m.Graph)) }},
		{RuleDuplicateBindingWithoutQualifier, func() []Finding { return duplicateFindings(m.Bindings) }},
		{RuleConflictingBindings, func() []Finding {
			return append(crossOriginFindings(m.Bindings), multiAnnotationFindings(file)...)
		}},
		{RuleOverrideInIncludedModule, func() []Finding { return overrideFindings(m.Graph, m.Bindings) }},
		{RuleGetConcreteTypeInsteadOfInterface, func() []Finding { return concreteFindings(m.Bindings, m.Requests, opts) }},
		{RuleEnumQualifierCollision, func() []Finding { return enumCollisionFindings(m.Bindings) }},
		{RuleGenericDefinitionWithoutQualifier, func() []Finding { return genericFindings(m.Bindings, opts) }},
		{RuleScopedDependencyOutsideScopeBlock, func() []Finding { return scopedOutsideFindings(m.Bindings) }},
		{RuleFactoryInScopeBlock, func() []Finding { return factoryInScopeFindings(m.Bindings) }},
		{RuleMixingDslAndAnnotations, func() []Finding { return mixingFindings(file, m.Blocks) }},
	}

	var findings []Finding
	for _, c := range checks {
		if !opts.Enabled(c.rule) {
			continue
		}
		for _, f := range c.run() {
			f.Message = validName(f.Message)
			findings = append(findings, f)
		}
	}
	sortFindings(findings)
	return capFindings(findings, func(ruleID string) int {
		return opts.Int(ruleID, OptMaxFindingsPerRule, 0)
	})
}
