package docextract

import "strings"

// Declaration is a top-level type declaration and the doc comment attached to it.
// Doc is the comment's source text, delimiters included, or "" when there is none.
type Declaration struct {
	Kind string
	Name string
	Doc  string
}

// Analyzer reports the top-level type declarations of a source file in declaration order.
type Analyzer interface {
	Declarations(name string, content []byte) ([]Declaration, error)
}

// ExtractStructured joins the doc comments of the declarations a reports, separated by
// a blank line and otherwise untouched. Analysis errors yield "".
func ExtractStructured(a Analyzer, name string, content []byte) string {
	decls, err := a.Declarations(name, content)
	if err != nil {
		return ""
	}
	docs := make([]string, 0, len(decls))
	for _, d := range decls {
		if d.Doc != "" {
			docs = append(docs, d.Doc)
		}
	}
	return strings.Join(docs, "\n\n")
}
