// Package markdown renders structure documents to HTML with GFM extensions and syntax highlighting.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

const highlightStyle = "monokai"

var (
	anchorInvalid = regexp.MustCompile(`[^a-z0-9\-\p{Han}\p{Hiragana}\p{Katakana}]`)
	anchorDashes  = regexp.MustCompile(`-+`)
)

// TOCItem represents a table of contents entry
type TOCItem struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// ParseResult contains the parsed markdown result
type ParseResult struct {
	HTML  string    `json:"html"`
	TOC   []TOCItem `json:"toc"`
	Title string    `json:"title"`
}

// Parser handles markdown parsing with goldmark
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates a new markdown parser with extensions. Raw HTML in the source is
// not passed through: documents quote comments from arbitrary repositories.
func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle(highlightStyle),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	return &Parser{md: md}
}

// Parse converts markdown source to HTML. Headings get ids from their text, and the
// same ids are reported in the TOC; repeated titles are numbered.
func (p *Parser) Parse(source []byte) (*ParseResult, error) {
	doc := p.md.Parser().Parse(text.NewReader(source))
	toc, err := assignAnchors(doc, source)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := p.md.Renderer().Render(&buf, source, doc); err != nil {
		return nil, err
	}

	title := ""
	if len(toc) > 0 {
		title = toc[0].Title
	}

	return &ParseResult{
		HTML:  buf.String(),
		TOC:   toc,
		Title: title,
	}, nil
}

// assignAnchors walks the AST, sets an id on every heading and returns them in order.
func assignAnchors(doc ast.Node, source []byte) ([]TOCItem, error) {
	var toc []TOCItem
	used := make(map[string]bool)
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		title := extractText(heading, source)
		anchor := generateAnchor(title)
		if anchor == "" {
			anchor = "section"
		}
		anchor = uniqueAnchor(anchor, used)
		heading.SetAttributeString("id", []byte(anchor))
		toc = append(toc, TOCItem{
			Level:  heading.Level,
			Title:  title,
			Anchor: anchor,
		})
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, err
	}
	return toc, nil
}

// uniqueAnchor returns base, or base with the first free "-N" suffix when another
// heading already took it.
func uniqueAnchor(base string, used map[string]bool) string {
	anchor := base
	for n := 1; used[anchor]; n++ {
		anchor = fmt.Sprintf("%s-%d", base, n)
	}
	used[anchor] = true
	return anchor
}

// extractText returns the source text of a heading, so markup inside a name
// ("__init__.py") is kept as written.
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(source))
	}
	return strings.TrimSpace(buf.String())
}

// generateAnchor creates a URL-safe anchor from text. Path separators and dots become
// hyphens so "backend/api" and "user.ts" stay readable.
func generateAnchor(title string) string {
	anchor := strings.ToLower(title)
	anchor = strings.NewReplacer(" ", "-", "/", "-", ".", "-").Replace(anchor)
	anchor = anchorInvalid.ReplaceAllString(anchor, "")
	anchor = anchorDashes.ReplaceAllString(anchor, "-")
	return strings.Trim(anchor, "-")
}

// HighlightCSS returns the stylesheet for the classes emitted by the highlighter.
func HighlightCSS() (string, error) {
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get(highlightStyle)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
