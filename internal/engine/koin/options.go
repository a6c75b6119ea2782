package koin

import "strings"

// Option keys understood by the analysis.
const (
	OptModuleBuilders         = "module_builders"
	OptIncludeVerbs           = "include_verbs"
	OptDefinitionVerbs        = "definition_verbs"
	OptScopeVerbs             = "scope_verbs"
	OptRequestVerbs           = "request_verbs"
	OptContainerTypes         = "container_types"
	OptImplementationSuffixes = "implementation_suffixes"
	OptMaxFindingsPerRule     = "max_findings_per_rule"
)

var (
	defaultModuleBuilders  = []string{"module", "lazyModule"}
	defaultIncludeVerbs    = []string{"includes"}
	defaultDefinitionVerbs = []string{
		"single", "factory", "scoped", "viewModel", "worker",
		"singleOf", "factoryOf", "scopedOf", "viewModelOf", "workerOf",
	}
	defaultScopeVerbs = []string{
		"scope", "activityScope", "fragmentScope", "viewModelScope", "activityRetainedScope", "requestScope",
	}
	defaultRequestVerbs   = []string{"get", "getOrNull", "inject", "injectOrNull"}
	defaultContainerTypes = []string{
		"List", "Set", "Map", "Array", "Collection", "Iterable", "Sequence",
		"MutableList", "MutableSet", "MutableMap", "MutableCollection", "MutableIterable",
		"ArrayList", "HashMap", "HashSet", "LinkedHashMap", "LinkedHashSet",
	}
)

// Options is the configuration handed to Analyze. Values applies to every rule;
// Rules holds per-rule overrides keyed by rule id. A nil Options value is valid
// and yields the defaults.
type Options struct {
	Values   map[string]any
	Rules    map[string]map[string]any
	Disabled map[string]bool
}

// Enabled reports whether a rule should run.
func (o Options) Enabled(ruleID string) bool {
	return !o.Disabled[ruleID]
}

// lookup merges the rule-specific options over the global ones.
func (o Options) lookup(ruleID string) map[string]any {
	ruleOpts := o.Rules[ruleID]
	if len(ruleOpts) == 0 {
		return o.Values
	}
	merged := make(map[string]any, len(o.Values)+len(ruleOpts))
	for k, v := range o.Values {
		merged[k] = v
	}
	for k, v := range ruleOpts {
		merged[k] = v
	}
	return merged
}

// StringSet returns a list option as a set.
func (o Options) StringSet(ruleID, key string, defaultVal []string) map[string]bool {
	values := GetStringSliceOption(o.lookup(ruleID), key, defaultVal)
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = true
		}
	}
	return set
}

// StringSlice returns a list option.
func (o Options) StringSlice(ruleID, key string, defaultVal []string) []string {
	return GetStringSliceOption(o.lookup(ruleID), key, defaultVal)
}

// Int returns an integer option.
func (o Options) Int(ruleID, key string, defaultVal int) int {
	return GetIntOption(o.lookup(ruleID), key, defaultVal)
}

// GetOption extracts a typed option with a default value.
func GetOption[T any](opts map[string]any, key string, defaultVal T) T {
	if opts == nil {
		return defaultVal
	}
	v, ok := opts[key]
	if !ok {
		return defaultVal
	}
	if typed, ok := v.(T); ok {
		return typed
	}
	return defaultVal
}

// GetIntOption extracts an int option. TOML decodes integers as int64 and JSON as float64.
func GetIntOption(opts map[string]any, key string, defaultVal int) int {
	v, ok := opts[key]
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return defaultVal
}

// GetBoolOption extracts a bool option.
func GetBoolOption(opts map[string]any, key string, defaultVal bool) bool {
	return GetOption(opts, key, defaultVal)
}

// GetStringSliceOption extracts a string list option. A list holding anything
// other than strings falls back to the default.
func GetStringSliceOption(opts map[string]any, key string, defaultVal []string) []string {
	v, ok := opts[key]
	if !ok {
		return defaultVal
	}
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		result := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return defaultVal
			}
			result = append(result, str)
		}
		return result
	}
	return defaultVal
}
