package formats

import (
	"time"

	"koinlint/internal/engine/koin"
	"koinlint/internal/engine/rules"
	"koinlint/internal/engine/syntax"
)

func span(line, col, endLine, endCol int) syntax.Span {
	return syntax.Span{
		Start: syntax.Position{Line: line, Column: col},
		End:   syntax.Position{Line: endLine, Column: endCol},
	}
}

func sampleReport() Report {
	settings := rules.Defaults()
	settings[koin.RuleCircularModuleDependency] = rules.Setting{Active: true, Severity: rules.SeverityError}

	return Report{
		Tool:        "koinlint",
		Version:     "1.2.3",
		RunID:       "6f1c9a1e-8a61-4c61-9d7c-2b1f3f9d2a10",
		ProjectRoot: "/work/app",
		GeneratedAt: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC),
		Backend:     "builtin",
		Duration:    250 * time.Millisecond,
		Stats:       Stats{Files: 3, Modules: 4, Bindings: 9, ParseErrors: 1},
		Settings:    settings,
		Files: []FileReport{
			{
				Path: "/work/app/src/Network.kt",
				Findings: []koin.Finding{
					{RuleID: koin.RuleDuplicateBindingWithoutQualifier, Message: "Duplicate binding for 'Api' without qualifier\n\n✗ Bad:  single { Api() }\n✓ Good: single(named(\"a\")) { Api() }", Span: span(7, 5, 7, 22)},
				},
			},
			{
				Path: "/work/app/src/Di.kt",
				Findings: []koin.Finding{
					{RuleID: koin.RuleCircularModuleDependency, Message: "Circular dependency: 'a' → 'b' → 'a'", Span: span(3, 1, 5, 2)},
					{RuleID: koin.RuleEnumQualifierCollision, Message: "Enum qualifier 'PROD' | collides", Span: span(9, 12, 9, 30)},
				},
			},
			{Path: "/work/app/src/Broken.kt", Error: "permission denied"},
		},
	}
}
