package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/justyntemme/bokuchi/internal/fs"
	"github.com/justyntemme/bokuchi/internal/tabs"
)

func TestMatcher_Match(t *testing.T) {
	c := Candidate{
		Name:    "Plan.md",
		Size:    2048,
		ModTime: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
		Content: "# Plan\n\nShip the release.\n\n## Release checklist\n- tag the release\n",
	}

	testCases := []struct {
		query    string
		matches  bool
		hitLines []int
	}{
		{"plan", true, nil},
		{"ext:md size:>1KB", true, nil},
		{"ext:txt", false, nil},
		{"modified:>2024-05-01", true, nil},
		{"modified:<2024-05-01", false, nil},
		{"contents:release", true, []int{3, 5, 6}},
		{"heading:checklist", true, []int{5}},
		{"contents:release heading:release", true, []int{3, 5, 6}},
		{"heading:ship", false, nil},
		{"", true, nil},
	}

	for _, tc := range testCases {
		hits, ok := NewMatcher(Parse(tc.query)).Match(c)
		if ok != tc.matches {
			t.Errorf("query %q: expected match=%v, got %v", tc.query, tc.matches, ok)
			continue
		}
		if len(hits) != len(tc.hitLines) {
			t.Errorf("query %q: expected %d hits, got %v", tc.query, len(tc.hitLines), hits)
			continue
		}
		for i, line := range tc.hitLines {
			if hits[i].Line != line {
				t.Errorf("query %q: hit %d on line %d, want %d", tc.query, i, hits[i].Line, line)
			}
		}
	}
}

func TestMatcher_UnknownModTime(t *testing.T) {
	hits, ok := NewMatcher(Parse("modified:>2020-01-01")).Match(Candidate{Name: "Untitled"})
	if ok || hits != nil {
		t.Error("documents without a known mtime should not match date filters")
	}
}

func TestDocuments(t *testing.T) {
	docs := []tabs.Document{
		{ID: "1", Title: "todo.md", Content: "- buy milk\n- call mom"},
		{ID: "2", Title: "Untitled", Content: "milk prices"},
		{ID: "3", Title: "notes.txt", Content: "nothing here"},
	}

	results := Documents(Parse("contents:milk"), docs)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "1" || results[1].ID != "2" {
		t.Errorf("expected tab order, got %s, %s", results[0].ID, results[1].ID)
	}
	if results[0].Hits[0].Line != 1 || results[0].Hits[0].Text != "- buy milk" {
		t.Errorf("unexpected hit %+v", results[0].Hits[0])
	}
}

func TestFolder(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("a.md", "# Alpha\nsecret plan")
	write("sub/b.txt", "plan b")
	write("sub/c.md", "nothing")
	write(".hidden/d.md", "plan d")
	write("image.png", "plan png")

	local := fs.NewLocal(nil)
	results, err := Folder(context.Background(), local, root, Parse("contents:plan"))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %+v", results)
	}
	if results[0].Name != "a.md" || results[1].Name != "b.txt" {
		t.Errorf("unexpected results %s, %s", results[0].Name, results[1].Name)
	}

	results, err = Folder(context.Background(), local, root, Parse("ext:md"))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 markdown files, got %d", len(results))
	}
}
