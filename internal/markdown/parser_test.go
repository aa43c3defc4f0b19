package markdown

import (
	"strings"
	"testing"
)

const structureDoc = "# REPO Structure\n" +
	"Last updated: 2024-05-06T07:08:09\n\n" +
	"## Directory Structure\n```\n├── backend\n│   └── api.ts\n└── main.py\n\n```\n\n" +
	"## File Documentation\n" +
	"\n### backend\n" +
	"\n#### api.ts\nAPI routes.\n" +
	"\n### frontend/src\n" +
	"\n#### api.ts\nClient.\n"

func TestParse(t *testing.T) {
	p := NewParser()
	source := []byte("# Hello World\n\nThis is a *test*.")

	result, err := p.Parse(source)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !strings.Contains(result.HTML, `<h1 id="hello-world">Hello World</h1>`) {
		t.Errorf("expected H1 with anchor in HTML, got %s", result.HTML)
	}
	if !strings.Contains(result.HTML, "<em>test</em>") {
		t.Error("expected italicized test in HTML")
	}
	if result.Title != "Hello World" {
		t.Errorf("expected title Hello World, got %s", result.Title)
	}
}

func TestParseStructureDocument(t *testing.T) {
	p := NewParser()
	result, err := p.Parse([]byte(structureDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if result.Title != "REPO Structure" {
		t.Errorf("expected title REPO Structure, got %s", result.Title)
	}
	want := []TOCItem{
		{Level: 1, Title: "REPO Structure", Anchor: "repo-structure"},
		{Level: 2, Title: "Directory Structure", Anchor: "directory-structure"},
		{Level: 2, Title: "File Documentation", Anchor: "file-documentation"},
		{Level: 3, Title: "backend", Anchor: "backend"},
		{Level: 4, Title: "api.ts", Anchor: "api-ts"},
		{Level: 3, Title: "frontend/src", Anchor: "frontend-src"},
		{Level: 4, Title: "api.ts", Anchor: "api-ts-1"},
	}
	if len(result.TOC) != len(want) {
		t.Fatalf("expected %d TOC items, got %d: %+v", len(want), len(result.TOC), result.TOC)
	}
	for i := range want {
		if result.TOC[i] != want[i] {
			t.Errorf("TOC item %d = %+v, want %+v", i, result.TOC[i], want[i])
		}
	}

	if !strings.Contains(result.HTML, `id="api-ts-1"`) {
		t.Error("expected numbered anchor for repeated heading")
	}
	if !strings.Contains(result.HTML, "└── main.py") {
		t.Error("expected tree block to be kept verbatim")
	}
}

func TestAnchorsStayUnique(t *testing.T) {
	p := NewParser()
	result, err := p.Parse([]byte("## a\n\n## a\n\n## a-1\n\n## a\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []string{"a", "a-1", "a-1-1", "a-2"}
	if len(result.TOC) != len(want) {
		t.Fatalf("expected %d TOC items, got %d: %+v", len(want), len(result.TOC), result.TOC)
	}
	seen := make(map[string]bool)
	for i, item := range result.TOC {
		if item.Anchor != want[i] {
			t.Errorf("anchor %d = %q, want %q", i, item.Anchor, want[i])
		}
		if seen[item.Anchor] {
			t.Errorf("duplicate anchor %q", item.Anchor)
		}
		seen[item.Anchor] = true
		if !strings.Contains(result.HTML, `id="`+item.Anchor+`"`) {
			t.Errorf("expected heading id %q in HTML", item.Anchor)
		}
	}
}

func TestParseEscapesRawHTML(t *testing.T) {
	p := NewParser()
	result, err := p.Parse([]byte("#### evil.js\n<script>alert(1)</script>\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if strings.Contains(result.HTML, "<script>") {
		t.Errorf("raw HTML passed through: %s", result.HTML)
	}
}

func TestHeadingKeepsMarkup(t *testing.T) {
	p := NewParser()
	result, err := p.Parse([]byte("#### __init__.py\nPackage.\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.TOC) != 1 || result.TOC[0].Title != "__init__.py" {
		t.Errorf("unexpected TOC: %+v", result.TOC)
	}
}

func TestGenerateAnchor(t *testing.T) {
	tests := []struct {
		input  string
		output string
	}{
		{"Hello World", "hello-world"},
		{"Test! @# Content", "test-content"},
		{"Multiple   Spaces", "multiple-spaces"},
		{"-Start-and-End-", "start-and-end"},
		{"backend/api/handlers", "backend-api-handlers"},
		{"UserService.java", "userservice-java"},
		{"中文标题", "中文标题"},
	}

	for _, tt := range tests {
		got := generateAnchor(tt.input)
		if got != tt.output {
			t.Errorf("generateAnchor(%q) = %q, want %q", tt.input, got, tt.output)
		}
	}
}

func TestRenderPage(t *testing.T) {
	p := NewParser()

	page, err := p.Render([]byte(structureDoc), PageOptions{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	for _, want := range []string{
		"<title>REPO Structure</title>",
		`<a class="level-3" href="#frontend-src">frontend/src</a>`,
		`<h4 id="api-ts">`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(page, "WebSocket") {
		t.Error("live reload script present without LiveReload")
	}

	live, err := p.Render([]byte(structureDoc), PageOptions{ID: "3", LiveReload: true})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(live, `msg.payload.id === "3"`) {
		t.Error("expected live reload script bound to the document id")
	}
}

func TestHighlightCSS(t *testing.T) {
	css, err := HighlightCSS()
	if err != nil {
		t.Fatalf("HighlightCSS failed: %v", err)
	}
	if !strings.Contains(css, ".chroma") {
		t.Error("expected chroma classes in stylesheet")
	}
}
