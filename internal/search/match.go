package search

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/justyntemme/bokuchi/internal/outline"
)

// Candidate is something a query can match: an open document or a file.
type Candidate struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time // zero when unknown
	Content string
}

// Hit is a matching line. Line is 1-based.
type Hit struct {
	Line int
	Text string
}

// Matcher evaluates candidates against a query.
type Matcher struct {
	query *Query
}

// NewMatcher creates a Matcher for q.
func NewMatcher(q *Query) *Matcher {
	return &Matcher{query: q}
}

// Match reports whether c satisfies every directive, with the lines that
// matched content and heading directives.
func (m *Matcher) Match(c Candidate) ([]Hit, bool) {
	var hits []Hit
	for _, d := range m.query.Directives {
		h, ok := m.matchDirective(d, c)
		if !ok {
			return nil, false
		}
		hits = append(hits, h...)
	}
	return dedupe(hits), true
}

func (m *Matcher) matchDirective(d Directive, c Candidate) ([]Hit, bool) {
	switch d.Type {
	case DirFilename:
		return nil, matchGlob(strings.ToLower(c.Name), d.Value)

	case DirExt:
		return nil, strings.ToLower(filepath.Ext(c.Name)) == d.Value

	case DirSize:
		return nil, compareInt(c.Size, d.NumValue, d.Operator)

	case DirModified:
		if d.TimeVal.IsZero() {
			return nil, true
		}
		if c.ModTime.IsZero() {
			return nil, false
		}
		return nil, compareTime(c.ModTime, d.TimeVal, d.Operator)

	case DirContents:
		var hits []Hit
		for i, line := range strings.Split(c.Content, "\n") {
			if strings.Contains(strings.ToLower(line), d.Value) {
				hits = append(hits, Hit{Line: i + 1, Text: strings.TrimSpace(line)})
			}
		}
		return hits, len(hits) > 0

	case DirHeading:
		var hits []Hit
		for _, h := range outline.Headings(c.Content) {
			if strings.Contains(strings.ToLower(h.Text), d.Value) {
				hits = append(hits, Hit{Line: h.Line, Text: h.Text})
			}
		}
		return hits, len(hits) > 0
	}
	return nil, true
}

func dedupe(hits []Hit) []Hit {
	if len(hits) < 2 {
		return hits
	}
	seen := make(map[int]bool, len(hits))
	out := hits[:0]
	for _, h := range hits {
		if !seen[h.Line] {
			seen[h.Line] = true
			out = append(out, h)
		}
	}
	return out
}

// matchGlob matches * wildcards; a pattern without one is a substring test.
func matchGlob(name, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return strings.Contains(name, pattern)
	}

	parts := strings.Split(pattern, "*")
	if parts[0] != "" && !strings.HasPrefix(name, parts[0]) {
		return false
	}
	last := parts[len(parts)-1]
	if last != "" && !strings.HasSuffix(name, last) {
		return false
	}

	pos := len(parts[0])
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		idx := strings.Index(name[pos:], part)
		if idx < 0 {
			return false
		}
		pos += idx + len(part)
	}
	return pos <= len(name)-len(last)
}

func compareInt(val, target int64, op Operator) bool {
	switch op {
	case OpGreater:
		return val > target
	case OpLess:
		return val < target
	case OpGreaterEq:
		return val >= target
	case OpLessEq:
		return val <= target
	default:
		return val == target
	}
}

func compareTime(val, target time.Time, op Operator) bool {
	switch op {
	case OpGreater:
		return val.After(target)
	case OpLess:
		return val.Before(target)
	case OpGreaterEq:
		return !val.Before(target)
	case OpLessEq:
		return !val.After(target)
	default:
		// same calendar day
		vy, vm, vd := val.Date()
		ty, tm, td := target.In(val.Location()).Date()
		return vy == ty && vm == tm && vd == td
	}
}
