package koin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findingLines(findings []Finding) []int {
	var lines []int
	for _, f := range findings {
		lines = append(lines, f.Span.Start.Line)
	}
	return lines
}

func TestScopedDependencyOutsideScopeBlock(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		lines []int
	}{
		{
			name: "scoped at module level",
			src: `
val m = module {
    scoped { Presenter() }
    scopedOf(::Tracker)
}`,
			lines: []int{3, 4},
		},
		{
			name: "scoped inside scope blocks",
			src: `
val m = module {
    scope<MainActivity> {
        scoped { Presenter() }
    }
    activityScope {
        scopedOf(::Tracker)
    }
    requestScope {
        scoped { Session() }
    }
}`,
		},
		{
			name: "other kinds are ignored",
			src: `
val m = module {
    single { Repo() }
    factory { Presenter() }
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := byRule(analyze(t, tt.src), RuleScopedDependencyOutsideScopeBlock)
			assert.Equal(t, tt.lines, findingLines(findings))
		})
	}

	findings := byRule(analyze(t, "val m = module {\n    scopedOf(::Tracker)\n}"), RuleScopedDependencyOutsideScopeBlock)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "'scopedOf' must be defined inside a scope {} block")
}

func TestFactoryInScopeBlock(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		lines []int
	}{
		{
			name: "factory in scope",
			src: `
val m = module {
    scope<MainActivity> {
        factory { Presenter() }
        factoryOf(::Mapper)
        scoped { Session() }
    }
}`,
			lines: []int{4, 5},
		},
		{
			name: "factory after the scope block",
			src: `
val m = module {
    scope<MainActivity> {
        scoped { Session() }
    }
    factory { Presenter() }
}`,
		},
		{
			name: "custom scope verb",
			src: `
val m = module {
    navScope {
        factory { Presenter() }
    }
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := byRule(analyze(t, tt.src), RuleFactoryInScopeBlock)
			assert.Equal(t, tt.lines, findingLines(findings))
		})
	}

	file := parse(t, `
val m = module {
    navScope {
        factory { Presenter() }
    }
}`)
	opts := Options{Values: map[string]any{OptScopeVerbs: []any{"navScope"}}}
	findings := byRule(Analyze(file, opts), RuleFactoryInScopeBlock)
	require.Len(t, findings, 1)
	assert.Equal(t, 4, findings[0].Span.Start.Line)
	assert.Contains(t, findings[0].Message, "Factory inside scope block")
}

func TestMixingDslAndAnnotations(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		lines []int
	}{
		{
			name: "annotated module and dsl module",
			src: `
@Module
class DataModule

val first = module { single { Api() } }
val second = module { single { Db() } }`,
			lines: []int{5},
		},
		{
			name: "annotated provider function",
			src: `
@Single
fun provideRepo(): Repository = RepoImpl()

val m = module { }`,
			lines: []int{5},
		},
		{
			name: "dsl only",
			src: `
val m = module { single { Api() } }`,
		},
		{
			name: "annotations only",
			src: `
@Module
class DataModule {
    @Single
    fun provideRepo(): Repository = RepoImpl()
}`,
		},
		{
			name: "unrelated annotation",
			src: `
@Suppress("unused")
class Holder

val m = module { }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := byRule(analyze(t, tt.src), RuleMixingDslAndAnnotations)
			assert.Equal(t, tt.lines, findingLines(findings))
		})
	}
}
