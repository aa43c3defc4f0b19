package docextract

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	sitterjava "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

var javaTypeDeclarations = map[string]bool{
	"class_declaration":           true,
	"interface_declaration":       true,
	"enum_declaration":            true,
	"record_declaration":          true,
	"annotation_type_declaration": true,
}

// JavaAnalyzer finds top-level Java type declarations with tree-sitter. A declaration's
// doc comment is the /** ... */ block comment directly before it.
type JavaAnalyzer struct {
	language *sitter.Language
}

// NewJavaAnalyzer returns an analyzer for Java sources.
func NewJavaAnalyzer() *JavaAnalyzer {
	return &JavaAnalyzer{language: sitter.NewLanguage(sitterjava.Language())}
}

// Declarations parses content and lists its top-level type declarations.
func (j *JavaAnalyzer) Declarations(name string, content []byte) ([]Declaration, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(j.language); err != nil {
		return nil, fmt.Errorf("set java language: %w", err)
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse file: %s", name)
	}
	defer tree.Close()

	root := tree.RootNode()
	var decls []Declaration
	var prev *sitter.Node
	for i := uint(0); i < root.NamedChildCount(); i++ {
		node := root.NamedChild(i)
		// Line comments between a doc comment and its type do not detach it
		if node == nil || node.Kind() == "line_comment" {
			continue
		}
		if javaTypeDeclarations[node.Kind()] {
			decl := Declaration{Kind: strings.TrimSuffix(node.Kind(), "_declaration")}
			if n := node.ChildByFieldName("name"); n != nil {
				decl.Name = n.Utf8Text(content)
			}
			if prev != nil && isDocComment(prev, content) {
				decl.Doc = prev.Utf8Text(content)
			}
			decls = append(decls, decl)
		}
		prev = node
	}
	return decls, nil
}

func isDocComment(node *sitter.Node, content []byte) bool {
	switch node.Kind() {
	case "block_comment", "comment":
		text := node.Utf8Text(content)
		return strings.HasPrefix(text, "/**") && text != "/**/"
	default:
		return false
	}
}
