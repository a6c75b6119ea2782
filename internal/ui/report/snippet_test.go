package report

import (
	"strings"
	"testing"
)

const sampleSource = `package app

import org.koin.dsl.module

val a = module {
    includes(b)
}

val b = module {
    includes(a)
}
`

func TestFindingSnippet_MarksFindingLines(t *testing.T) {
	s := FindingSnippet([]byte(sampleSource), 5, 7)
	if s.Line != 5 {
		t.Fatalf("line mismatch: got %d", s.Line)
	}
	// lines 2..10
	if len(s.Context) != 9 {
		t.Fatalf("expected 9 context lines, got %d: %v", len(s.Context), s.Context)
	}
	if s.Context[0] != "      2: " {
		t.Errorf("unexpected first line %q", s.Context[0])
	}
	if s.Context[3] != ">     5: val a = module {" {
		t.Errorf("unexpected finding line %q", s.Context[3])
	}
	if !strings.HasPrefix(s.Context[5], ">     7: }") {
		t.Errorf("expected closing brace to be marked, got %q", s.Context[5])
	}
	if strings.HasPrefix(s.Context[6], ">") {
		t.Errorf("line after the finding must not be marked: %q", s.Context[6])
	}
}

func TestFindingSnippet_ClampsAtFileEnd(t *testing.T) {
	s := FindingSnippet([]byte(sampleSource), 11, 11)
	last := s.Context[len(s.Context)-1]
	if last != ">    11: }" {
		t.Errorf("unexpected last line %q", last)
	}
	if len(s.Context) != 4 {
		t.Errorf("expected 4 lines (8..11), got %d", len(s.Context))
	}
}

func TestFindingSnippet_Empty(t *testing.T) {
	if s := FindingSnippet(nil, 3, 3); len(s.Context) != 0 {
		t.Error("expected no context for empty content")
	}
	if s := FindingSnippet([]byte(sampleSource), 0, 0); len(s.Context) != 0 {
		t.Error("expected no context for unknown line")
	}
	if s := FindingSnippet([]byte(sampleSource), 40, 41); len(s.Context) != 0 {
		t.Error("expected no context past the end of the file")
	}
}
