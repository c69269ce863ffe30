package search

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

func TestParse_Empty(t *testing.T) {
	q := Parse("   ")
	if !q.IsEmpty() {
		t.Errorf("expected empty query, got %d directives", len(q.Directives))
	}
}

func TestParse_Directives(t *testing.T) {
	testCases := []struct {
		input string
		typ   DirectiveType
		value string
	}{
		{"Todo", DirFilename, "todo"},
		{"name:Plan", DirFilename, "plan"},
		{"contents:Deadline", DirContents, "deadline"},
		{"text:foo", DirContents, "foo"},
		{"heading:Install", DirHeading, "install"},
		{"h:usage", DirHeading, "usage"},
		{"ext:md", DirExt, ".md"},
		{"ext:.TXT", DirExt, ".txt"},
		{"type:markdown", DirExt, ".markdown"},
		{"unknown:thing", DirFilename, "unknown:thing"},
		{":leading", DirFilename, ":leading"},
	}

	for _, tc := range testCases {
		q := Parse(tc.input)
		if len(q.Directives) != 1 {
			t.Fatalf("input %q: expected 1 directive, got %d", tc.input, len(q.Directives))
		}
		d := q.Directives[0]
		if d.Type != tc.typ {
			t.Errorf("input %q: expected type %d, got %d", tc.input, tc.typ, d.Type)
		}
		if d.Value != tc.value {
			t.Errorf("input %q: expected value %q, got %q", tc.input, tc.value, d.Value)
		}
	}
}

func TestParse_SizeDirective(t *testing.T) {
	testCases := []struct {
		input string
		op    Operator
		bytes int64
	}{
		{"size:>10KB", OpGreater, 10000},
		{"size:<1KiB", OpLess, 1024},
		{"size:>=2MB", OpGreaterEq, 2000000},
		{"size:<=512", OpLessEq, 512},
		{"size:100", OpEquals, 100},
		{"size:>lots", OpGreater, 0},
	}

	for _, tc := range testCases {
		d := Parse(tc.input).Directives[0]
		if d.Type != DirSize {
			t.Fatalf("input %q: expected DirSize, got %d", tc.input, d.Type)
		}
		if d.Operator != tc.op {
			t.Errorf("input %q: expected operator %d, got %d", tc.input, tc.op, d.Operator)
		}
		if d.NumValue != tc.bytes {
			t.Errorf("input %q: expected %d bytes, got %d", tc.input, tc.bytes, d.NumValue)
		}
	}
}

func TestParse_ModifiedDirective(t *testing.T) {
	testCases := []struct {
		input    string
		op       Operator
		expected time.Time
	}{
		{"modified:>2024-01-02", OpGreater, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"date:<2024-06", OpLess, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"mtime:=2024/02/03", OpEquals, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"modified:>today", OpGreater, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"modified:>=yesterday", OpGreaterEq, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"modified:>week", OpGreater, testNow.AddDate(0, 0, -7)},
		{"modified:>nonsense", OpGreater, time.Time{}},
	}

	for _, tc := range testCases {
		d := parseAt(tc.input, testNow).Directives[0]
		if d.Type != DirModified {
			t.Fatalf("input %q: expected DirModified, got %d", tc.input, d.Type)
		}
		if d.Operator != tc.op {
			t.Errorf("input %q: expected operator %d, got %d", tc.input, tc.op, d.Operator)
		}
		if !d.TimeVal.Equal(tc.expected) {
			t.Errorf("input %q: expected %v, got %v", tc.input, tc.expected, d.TimeVal)
		}
	}
}

func TestParse_MultipleAndQuoted(t *testing.T) {
	q := Parse(`ext:md contents:"release notes" 'my file'`)
	if len(q.Directives) != 3 {
		t.Fatalf("expected 3 directives, got %d", len(q.Directives))
	}
	if q.Directives[1].Value != "release notes" {
		t.Errorf("expected quoted contents, got %q", q.Directives[1].Value)
	}
	if q.Directives[2].Value != "my file" {
		t.Errorf("expected quoted filename, got %q", q.Directives[2].Value)
	}
	if !q.HasContentSearch() {
		t.Error("expected HasContentSearch")
	}
	if Parse("ext:md size:>1KB").HasContentSearch() {
		t.Error("metadata-only query should not need content")
	}
}

func TestMatchGlob(t *testing.T) {
	testCases := []struct {
		name, pattern string
		expected      bool
	}{
		{"readme.md", "read", true},
		{"readme.md", "*.md", true},
		{"readme.md", "read*", true},
		{"readme.md", "r*m*.md", true},
		{"readme.md", "*.txt", false},
		{"aba", "ab*ba", false},
		{"notes.md", "x*", false},
	}

	for _, tc := range testCases {
		if got := matchGlob(tc.name, tc.pattern); got != tc.expected {
			t.Errorf("matchGlob(%q, %q) = %v, want %v", tc.name, tc.pattern, got, tc.expected)
		}
	}
}

func TestCompareTime(t *testing.T) {
	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	if !compareTime(base, base.Add(-time.Hour), OpGreater) {
		t.Error("expected later time to be greater")
	}
	if !compareTime(base, base, OpGreaterEq) || !compareTime(base, base, OpLessEq) {
		t.Error("expected equal times to satisfy >= and <=")
	}
	if !compareTime(base, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), OpEquals) {
		t.Error("expected same day to be equal")
	}
	if compareTime(base, time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC), OpEquals) {
		t.Error("expected different days to differ")
	}
}
