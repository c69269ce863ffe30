// Package search finds documents by name, extension, size, modification
// date, heading or content, using a small directive query language.
package search

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// DirectiveType is the field a directive tests.
type DirectiveType int

const (
	DirFilename DirectiveType = iota
	DirContents
	DirExt
	DirSize
	DirModified
	DirHeading
)

// Operator compares sizes and dates.
type Operator int

const (
	OpEquals Operator = iota
	OpGreater
	OpLess
	OpGreaterEq
	OpLessEq
)

// Directive is one term of a query.
type Directive struct {
	Type     DirectiveType
	Value    string
	Operator Operator
	NumValue int64     // size in bytes
	TimeVal  time.Time // zero when the date did not parse
}

// Query holds parsed directives. All of them must match.
type Query struct {
	Directives []Directive
	Raw        string
}

// Parse parses a query. Examples:
//   - "todo" matches file names containing todo
//   - "contents:deadline" matches documents whose text contains deadline
//   - "heading:install" matches documents with a heading containing install
//   - "ext:md", "size:>10KB", "modified:>=2024-01-01", "modified:>week"
func Parse(input string) *Query {
	return parseAt(input, time.Now())
}

func parseAt(input string, now time.Time) *Query {
	q := &Query{Raw: input}
	for _, part := range splitRespectingQuotes(strings.TrimSpace(input)) {
		q.Directives = append(q.Directives, parseDirective(part, now))
	}
	return q
}

func splitRespectingQuotes(s string) []string {
	var parts []string
	var current strings.Builder
	quote := rune(0)

	for _, r := range s {
		switch {
		case (r == '"' || r == '\'') && quote == 0:
			quote = r
		case r == quote:
			quote = 0
		case r == ' ' && quote == 0:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func parseDirective(s string, now time.Time) Directive {
	name, value, ok := strings.Cut(s, ":")
	if !ok || name == "" {
		return Directive{Type: DirFilename, Value: strings.ToLower(s)}
	}
	value = strings.Trim(value, "\"'")

	switch strings.ToLower(name) {
	case "filename", "name", "file":
		return Directive{Type: DirFilename, Value: strings.ToLower(value)}
	case "contents", "content", "text", "body":
		return Directive{Type: DirContents, Value: strings.ToLower(value)}
	case "heading", "title", "h":
		return Directive{Type: DirHeading, Value: strings.ToLower(value)}
	case "ext", "extension", "type":
		if !strings.HasPrefix(value, ".") {
			value = "." + value
		}
		return Directive{Type: DirExt, Value: strings.ToLower(value)}
	case "size":
		op, num := parseOperator(value)
		return Directive{Type: DirSize, Value: value, Operator: op, NumValue: parseSize(num)}
	case "modified", "date", "mtime":
		op, date := parseOperator(value)
		return Directive{Type: DirModified, Value: value, Operator: op, TimeVal: parseDate(date, now)}
	}
	return Directive{Type: DirFilename, Value: strings.ToLower(s)}
}

func parseOperator(s string) (Operator, string) {
	s = strings.TrimSpace(s)
	for _, p := range []struct {
		prefix string
		op     Operator
	}{
		{">=", OpGreaterEq},
		{"<=", OpLessEq},
		{">", OpGreater},
		{"<", OpLess},
		{"=", OpEquals},
	} {
		if strings.HasPrefix(s, p.prefix) {
			return p.op, strings.TrimSpace(s[len(p.prefix):])
		}
	}
	return OpEquals, s
}

// parseSize accepts humanized sizes such as "10KB", "1.5 MiB" or "512".
// Unparseable sizes become 0.
func parseSize(s string) int64 {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return int64(n)
}

// parseDate understands calendar dates and the words today, yesterday,
// week, month and year (relative to now).
func parseDate(s string, now time.Time) time.Time {
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "today":
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case "yesterday":
		y, m, d := now.AddDate(0, 0, -1).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case "week":
		return now.AddDate(0, 0, -7)
	case "month":
		return now.AddDate(0, -1, 0)
	case "year":
		return now.AddDate(-1, 0, 0)
	}

	for _, layout := range []string{"2006-01-02", "2006-01", "2006/01/02", "01/02/2006"} {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t
		}
	}
	return time.Time{}
}

// HasContentSearch reports whether matching needs document text.
func (q *Query) HasContentSearch() bool {
	for _, d := range q.Directives {
		if d.Type == DirContents || d.Type == DirHeading {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the query has no directives.
func (q *Query) IsEmpty() bool {
	return len(q.Directives) == 0
}
