package tabs

import "strings"

// NormalizePath converts path separators to '/'. Matching stays
// case-sensitive and symlinks are not resolved.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}

// ResolveOpen returns the id of the first document bound to path. An empty
// path never matches.
func ResolveOpen(path string, docs []Document) (string, bool) {
	if path == "" {
		return "", false
	}
	want := NormalizePath(path)
	for _, d := range docs {
		if d.FilePath != "" && NormalizePath(d.FilePath) == want {
			return d.ID, true
		}
	}
	return "", false
}

// buildIndex maps normalized paths to document ids. The first document wins
// when two share a path.
func buildIndex(docs []Document) map[string]string {
	index := make(map[string]string, len(docs))
	for _, d := range docs {
		if d.FilePath == "" {
			continue
		}
		key := NormalizePath(d.FilePath)
		if _, ok := index[key]; !ok {
			index[key] = d.ID
		}
	}
	return index
}
