// Package outline lists the headings of a Markdown document for outline
// navigation.
package outline

import (
	"bytes"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	goldtext "github.com/yuin/goldmark/text"
)

// Heading is one outline entry. Line is 1-based.
type Heading struct {
	Level  int
	Text   string
	Line   int
	Anchor string
}

var md = goldmark.New(
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// Meta is a document's front matter block.
type Meta map[string]any

// Split separates a leading YAML/TOML/JSON front matter block from the
// Markdown body. offset is the number of lines the block occupied. Content
// with no block, or a block that fails to parse, is returned whole.
func Split(content string) (meta Meta, body string, offset int) {
	source := []byte(content)
	var m Meta
	rest, err := frontmatter.Parse(bytes.NewReader(source), &m)
	if err != nil || len(rest) == len(source) || !bytes.HasSuffix(source, rest) {
		return nil, content, 0
	}
	head := source[:len(source)-len(rest)]
	return m, string(rest), bytes.Count(head, []byte("\n"))
}

// Headings returns the document's headings in order. Headings without text
// are skipped. Front matter is not parsed as Markdown, and line numbers
// still refer to the full document.
func Headings(content string) []Heading {
	_, body, offset := Split(content)
	source := []byte(body)
	doc := md.Parser().Parse(goldtext.NewReader(source))

	var headings []Heading
	ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := node.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		var text strings.Builder
		collectText(h, source, &text)
		title := strings.TrimSpace(text.String())
		if title == "" || h.Lines().Len() == 0 {
			return ast.WalkSkipChildren, nil
		}

		heading := Heading{
			Level: h.Level,
			Text:  title,
			Line:  offset + bytes.Count(source[:h.Lines().At(0).Start], []byte("\n")) + 1,
		}
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				heading.Anchor = string(b)
			}
		}
		headings = append(headings, heading)
		return ast.WalkSkipChildren, nil
	})
	return headings
}

func collectText(node ast.Node, source []byte, out *strings.Builder) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Text:
			out.Write(n.Segment.Value(source))
			if n.SoftLineBreak() || n.HardLineBreak() {
				out.WriteByte(' ')
			}
		case *ast.String:
			out.Write(n.Value)
		default:
			collectText(child, source, out)
		}
	}
}
