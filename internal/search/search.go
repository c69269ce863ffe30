package search

import (
	"context"
	"time"

	"github.com/justyntemme/bokuchi/internal/debug"
	"github.com/justyntemme/bokuchi/internal/fs"
	"github.com/justyntemme/bokuchi/internal/tabs"
)

// Result is a matching document or file. ID is set for open documents.
type Result struct {
	ID   string
	Name string
	Path string
	Hits []Hit
}

// Documents searches open documents in tab order.
func Documents(q *Query, docs []tabs.Document) []Result {
	m := NewMatcher(q)
	var results []Result
	for _, d := range docs {
		c := Candidate{
			Name:    d.Title,
			Path:    d.FilePath,
			Size:    int64(len(d.Content)),
			Content: d.Content,
		}
		if d.FileHash != nil && !d.IsModified {
			c.ModTime = time.Unix(d.FileHash.ModTime, 0)
		}
		if hits, ok := m.Match(c); ok {
			results = append(results, Result{ID: d.ID, Name: d.Title, Path: d.FilePath, Hits: hits})
		}
	}
	return results
}

// Folder searches the editable files below root. Files are only read when
// the query looks at content; unreadable files are skipped.
func Folder(ctx context.Context, local *fs.Local, root string, q *Query) ([]Result, error) {
	entries, err := local.Scan(ctx, root)
	if err != nil {
		return nil, err
	}

	m := NewMatcher(q)
	needContent := q.HasContentSearch()
	var results []Result
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		c := Candidate{Name: e.Name, Path: e.Path, Size: e.Size, ModTime: e.ModTime}
		if needContent {
			content, err := local.ReadFile(ctx, e.Path)
			if err != nil {
				debug.Log(debug.FS, "search: skipping %s: %v", e.Path, err)
				continue
			}
			c.Content = content
		}
		if hits, ok := m.Match(c); ok {
			results = append(results, Result{Name: e.Name, Path: e.Path, Hits: hits})
		}
	}
	debug.Log(debug.FS, "search: %q in %s matched %d of %d files", q.Raw, root, len(results), len(entries))
	return results, nil
}
