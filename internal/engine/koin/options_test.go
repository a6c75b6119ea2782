package koin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionHelpers(t *testing.T) {
	opts := map[string]any{
		"int":      3,
		"int64":    int64(4),
		"float":    float64(5),
		"bool":     true,
		"strings":  []string{"a", "b"},
		"anys":     []any{"c", "d"},
		"mixed":    []any{"e", 1},
		"notAList": "f",
	}

	assert.Equal(t, 3, GetIntOption(opts, "int", 0))
	assert.Equal(t, 4, GetIntOption(opts, "int64", 0))
	assert.Equal(t, 5, GetIntOption(opts, "float", 0))
	assert.Equal(t, 7, GetIntOption(opts, "missing", 7))
	assert.Equal(t, 7, GetIntOption(opts, "bool", 7))

	assert.True(t, GetBoolOption(opts, "bool", false))
	assert.True(t, GetBoolOption(nil, "bool", true))

	def := []string{"default"}
	assert.Equal(t, []string{"a", "b"}, GetStringSliceOption(opts, "strings", def))
	assert.Equal(t, []string{"c", "d"}, GetStringSliceOption(opts, "anys", def))
	assert.Equal(t, def, GetStringSliceOption(opts, "mixed", def))
	assert.Equal(t, def, GetStringSliceOption(opts, "notAList", def))
	assert.Equal(t, def, GetStringSliceOption(nil, "strings", def))

	assert.Equal(t, "f", GetOption(opts, "notAList", ""))
	assert.Equal(t, "x", GetOption(opts, "int", "x"))
}

func TestOptionsLookup(t *testing.T) {
	opts := Options{
		Values: map[string]any{OptMaxFindingsPerRule: 10, OptRequestVerbs: []any{"get"}},
		Rules: map[string]map[string]any{
			RuleEnumQualifierCollision: {OptMaxFindingsPerRule: 1},
		},
		Disabled: map[string]bool{RuleConflictingBindings: true},
	}

	assert.Equal(t, 1, opts.Int(RuleEnumQualifierCollision, OptMaxFindingsPerRule, 0))
	assert.Equal(t, 10, opts.Int(RuleCircularModuleDependency, OptMaxFindingsPerRule, 0))
	assert.Equal(t, map[string]bool{"get": true}, opts.StringSet(RuleEnumQualifierCollision, OptRequestVerbs, nil))
	assert.False(t, opts.Enabled(RuleConflictingBindings))
	assert.True(t, opts.Enabled(RuleCircularModuleDependency))
	assert.True(t, Options{}.Enabled(RuleCircularModuleDependency))
}

func TestMessageLayout(t *testing.T) {
	got := message("Problem → Consequence\n→ Fix", "bad()\nbad2()", "good()")
	want := "Problem → Consequence\n→ Fix\n\n" +
		"✗ Bad:  bad()\n" +
		"        bad2()\n" +
		"✓ Good: good()"
	assert.Equal(t, want, got)
	assert.Equal(t, "only summary", message("only summary", "", ""))
}

func TestCapFindings(t *testing.T) {
	findings := []Finding{
		{RuleID: "A", Message: "1"},
		{RuleID: "B", Message: "2"},
		{RuleID: "A", Message: "3"},
		{RuleID: "A", Message: "4"},
	}
	limit := func(rule string) int {
		if rule == "A" {
			return 2
		}
		return 0
	}
	got := capFindings(findings, limit)
	assert.Equal(t, []Finding{
		{RuleID: "A", Message: "1"},
		{RuleID: "B", Message: "2"},
		{RuleID: "A", Message: "3"},
	}, got)
}
