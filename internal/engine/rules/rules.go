// Package rules holds the metadata of every Koin rule: ids, groups, default
// severities and the documentation shown by -list-rules.
package rules

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"koinlint/internal/engine/koin"
)

// Severity of a rule's findings.
type Severity int

// Severity levels, most severe first.
const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

// String returns the config spelling of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// SARIFLevel maps the severity onto a SARIF result level.
func (s Severity) SARIFLevel() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

// ParseSeverity parses a config severity name.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	case "hint":
		return SeverityHint, nil
	}
	return SeverityWarning, fmt.Errorf("unknown severity %q (want error, warning, info or hint)", name)
}

// Rule groups.
const (
	GroupArchitecture = "architecture"
	GroupModuleDSL    = "moduledsl"
	GroupAnnotations  = "annotations"
	GroupScope        = "scope"
)

// RuleInfo documents one rule.
type RuleInfo struct {
	ID          string        `json:"id"`
	Group       string        `json:"group"`
	Description string        `json:"description"`
	Severity    Severity      `json:"-"`
	Debt        time.Duration `json:"-"`
	ConfigKeys  []string      `json:"config_keys,omitempty"`

	Rationale   string `json:"rationale,omitempty"`
	BadExample  string `json:"bad_example,omitempty"`
	GoodExample string `json:"good_example,omitempty"`
}

var common = []string{koin.OptModuleBuilders, koin.OptDefinitionVerbs, koin.OptMaxFindingsPerRule}

var registry = []RuleInfo{
	{
		ID:          koin.RuleCircularModuleDependency,
		Group:       GroupArchitecture,
		Description: "Circular dependency between Koin modules",
		Severity:    SeverityWarning,
		Debt:        20 * time.Minute,
		ConfigKeys:  append([]string{koin.OptIncludeVerbs}, common...),
		Rationale:   "Modules that include each other fail or loop during initialization.",
		BadExample:  "val a = module { includes(b) }\nval b = module { includes(a) }",
		GoodExample: "val core = module { }\nval a = module { includes(core) }",
	},
	{
		ID:          koin.RuleDuplicateBindingWithoutQualifier,
		Group:       GroupModuleDSL,
		Description: "Multiple bindings to the same type without qualifiers (silent override)",
		Severity:    SeverityWarning,
		Debt:        10 * time.Minute,
		ConfigKeys:  common,
		Rationale:   "The last definition wins at runtime and the earlier one is silently lost.",
		BadExample:  "single { A() } bind Foo::class\nsingle { B() } bind Foo::class",
		GoodExample: "single(named(\"a\")) { A() } bind Foo::class\nsingle(named(\"b\")) { B() } bind Foo::class",
	},
	{
		ID:          koin.RuleConflictingBindings,
		Group:       GroupAnnotations,
		Description: "Same type defined in both DSL and Annotations",
		Severity:    SeverityWarning,
		Debt:        10 * time.Minute,
		ConfigKeys:  common,
		Rationale:   "Which definition Koin keeps depends on module load order.",
		BadExample:  "@Single fun repo(): Repository = RepoImpl()\nsingle<Repository> { RepoImpl() }",
		GoodExample: "@Single fun repo(): Repository = RepoImpl()",
	},
	{
		ID:          koin.RuleOverrideInIncludedModule,
		Group:       GroupModuleDSL,
		Description: "Overriding definitions from included modules requires explicit override = true",
		Severity:    SeverityWarning,
		Debt:        5 * time.Minute,
		ConfigKeys:  append([]string{koin.OptIncludeVerbs}, common...),
		Rationale:   "Koin rejects or silently replaces redefinitions depending on allowOverride.",
		BadExample:  "val app = module {\n    includes(base)\n    single<Service> { ServiceB() }\n}",
		GoodExample: "val app = module {\n    includes(base)\n    single<Service>(override = true) { ServiceB() }\n}",
	},
	{
		ID:          koin.RuleGetConcreteTypeInsteadOfInterface,
		Group:       GroupArchitecture,
		Description: "get<ConcreteType>() fails at runtime when only the interface is registered",
		Severity:    SeverityWarning,
		Debt:        10 * time.Minute,
		ConfigKeys:  append([]string{koin.OptRequestVerbs, koin.OptImplementationSuffixes}, common...),
		Rationale:   "verify() passes but resolution throws NoBeanDefFoundException.",
		BadExample:  "single<Repository> { RepoImpl() }\nval repo = get<RepoImpl>()",
		GoodExample: "single<Repository> { RepoImpl() }\nval repo = get<Repository>()",
	},
	{
		ID:          koin.RuleEnumQualifierCollision,
		Group:       GroupModuleDSL,
		Description: "Enum qualifiers with the same value name from different enum types",
		Severity:    SeverityWarning,
		Debt:        10 * time.Minute,
		ConfigKeys:  common,
		Rationale:   "R8/ProGuard may reduce both constants to the same qualifier value.",
		BadExample:  "single(named(Type1.VALUE)) { A() }\nsingle(named(Type2.VALUE)) { B() }",
		GoodExample: "single(named(\"type1\")) { A() }\nsingle(named(\"type2\")) { B() }",
	},
	{
		ID:          koin.RuleGenericDefinitionWithoutQualifier,
		Group:       GroupModuleDSL,
		Description: "Generic types without qualifiers cause type erasure collisions",
		Severity:    SeverityWarning,
		Debt:        10 * time.Minute,
		ConfigKeys:  append([]string{koin.OptContainerTypes}, common...),
		Rationale:   "List<A> and List<B> erase to the same runtime class.",
		BadExample:  "single { listOf<A>() }",
		GoodExample: "single(named(\"a\")) { listOf<A>() }",
	},
	{
		ID:          koin.RuleScopedDependencyOutsideScopeBlock,
		Group:       GroupScope,
		Description: "scoped {} or scopedOf() outside a scope {} block",
		Severity:    SeverityWarning,
		Debt:        10 * time.Minute,
		ConfigKeys:  append([]string{koin.OptScopeVerbs}, common...),
		Rationale:   "A scoped definition needs an enclosing scope to bind its lifecycle to.",
		BadExample:  "module { scoped { Presenter() } }",
		GoodExample: "module { scope<MainActivity> { scoped { Presenter() } } }",
	},
	{
		ID:          koin.RuleFactoryInScopeBlock,
		Group:       GroupScope,
		Description: "factory {} or factoryOf() inside a scope {} block",
		Severity:    SeverityInfo,
		Debt:        5 * time.Minute,
		ConfigKeys:  append([]string{koin.OptScopeVerbs}, common...),
		Rationale:   "A factory creates a new instance on every call regardless of the scope.",
		BadExample:  "scope<Activity> { factory { Presenter() } }",
		GoodExample: "scope<Activity> { scoped { Presenter() } }",
	},
	{
		ID:          koin.RuleMixingDslAndAnnotations,
		Group:       GroupAnnotations,
		Description: "Mixing DSL and Annotations in the same file",
		Severity:    SeverityWarning,
		Debt:        5 * time.Minute,
		ConfigKeys:  common,
		Rationale:   "One definition style per file keeps module wiring predictable.",
		BadExample:  "@Module class MyModule\nval dslModule = module { }",
		GoodExample: "val module = module { single { Repo() }; single { Api() } }",
	},
}

// All returns every rule in reporting order.
func All() []RuleInfo {
	out := make([]RuleInfo, len(registry))
	copy(out, registry)
	return out
}

// ByID looks a rule up by id.
func ByID(id string) (RuleInfo, bool) {
	for _, r := range registry {
		if r.ID == id {
			return r, true
		}
	}
	return RuleInfo{}, false
}

// ByGroup returns the rules of one group, sorted by id.
func ByGroup(group string) []RuleInfo {
	var out []RuleInfo
	for _, r := range registry {
		if r.Group == group {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Known reports whether id names a registered rule.
func Known(id string) bool {
	_, ok := ByID(id)
	return ok
}
