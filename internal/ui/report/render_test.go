package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"koinlint/internal/core/errors"
	"koinlint/internal/data/history"
	"koinlint/internal/engine/koin"
	"koinlint/internal/engine/syntax"
	"koinlint/internal/ui/report/formats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneFindingReport() formats.Report {
	return formats.Report{
		Tool:        "koinlint",
		Version:     "0.1.0",
		ProjectRoot: "/work/app",
		GeneratedAt: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC),
		Stats:       formats.Stats{Files: 1, Modules: 2, Bindings: 2},
		Files: []formats.FileReport{{
			Path: "/work/app/Di.kt",
			Findings: []koin.Finding{{
				RuleID:  koin.RuleCircularModuleDependency,
				Message: "Circular dependency: 'a' → 'b' → 'a'",
				Span:    syntax.Span{Start: syntax.Position{Line: 5, Column: 1}, End: syntax.Position{Line: 7, Column: 2}},
			}},
		}},
	}
}

func TestWriteFormats(t *testing.T) {
	r := oneFindingReport()

	for _, format := range Formats {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, format, r, Options{ProjectName: "app"}))
			out := buf.String()
			assert.True(t, strings.HasSuffix(out, "\n"))
			assert.Contains(t, out, "CircularModuleDependency")
			if format == FormatJSON || format == FormatSARIF {
				assert.True(t, json.Valid(buf.Bytes()), "output must be valid JSON")
			}
		})
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, "html", oneFindingReport(), Options{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))
	assert.Zero(t, buf.Len())
}

func TestRenderTrendTable(t *testing.T) {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tr := history.TrendReport{
		ProjectKey: "app",
		Window:     "24h0m0s",
		RunCount:   2,
		Points: []history.TrendPoint{
			{RunID: "aaaaaaaa-1111", Timestamp: base, FileCount: 4, ModuleCount: 3, FindingCount: 2, AvgFindings: 2},
			{
				RunID: "bbbbbbbb-2222", Timestamp: base.Add(time.Hour), FileCount: 4, ModuleCount: 3, FindingCount: 1,
				DeltaFindings: -1, AvgFindings: 1.5,
				RuleDeltas: map[string]int{"EnumQualifierCollision": -2, "ConflictingBindings": 1},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderTrendTable(&buf, tr))
	out := buf.String()
	assert.Contains(t, out, "app: 2 runs, 24h0m0s window")
	assert.Contains(t, out, "aaaaaaaa")
	assert.NotContains(t, out, "aaaaaaaa-1111")
	assert.Contains(t, out, "2026-05-01T10:00:00Z")
	assert.Contains(t, out, "1.50")
	assert.Contains(t, out, "ConflictingBindings +1, EnumQualifierCollision -2")
}

func TestRenderTrendEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTrendTable(&buf, history.TrendReport{}))
	assert.Equal(t, "no recorded runs\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderTrendJSON(&buf, history.TrendReport{ProjectKey: "app"}))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []any{}, decoded["points"])
	assert.Equal(t, "app", decoded["project_key"])
}
