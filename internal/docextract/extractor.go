// Package docextract pulls the leading documentation out of a source file. Which
// heuristic applies is decided by the file extension.
package docextract

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// Strategy is an extraction heuristic.
type Strategy int

// Extraction strategies.
const (
	// StructuredComment returns the doc comments attached to top-level type
	// declarations, as reported by an Analyzer.
	StructuredComment Strategy = iota + 1
	// Docstring returns the first triple-quoted string.
	Docstring
	// BlockComment returns the first /** ... */ comment.
	BlockComment
)

func (s Strategy) String() string {
	switch s {
	case StructuredComment:
		return "structured-comment"
	case Docstring:
		return "docstring"
	case BlockComment:
		return "block-comment"
	default:
		return "unknown"
	}
}

// DefaultStrategies maps lowercase extensions to the strategy used for them.
var DefaultStrategies = map[string]Strategy{
	"kt":   StructuredComment,
	"java": StructuredComment,
	"py":   Docstring,
	"js":   BlockComment,
	"jsx":  BlockComment,
	"ts":   BlockComment,
	"tsx":  BlockComment,
}

// Extractor dispatches files to a strategy by extension.
type Extractor struct {
	strategies map[string]Strategy
	analyzers  map[string]Analyzer
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithStrategy registers (or overrides) the strategy for ext.
func WithStrategy(ext string, s Strategy) Option {
	return func(e *Extractor) {
		e.strategies[strings.ToLower(ext)] = s
	}
}

// WithAnalyzer registers the structural analyzer used for ext. Without one, files of a
// StructuredComment extension extract as empty.
func WithAnalyzer(ext string, a Analyzer) Option {
	return func(e *Extractor) {
		e.analyzers[strings.ToLower(ext)] = a
	}
}

// New returns an Extractor with the default strategy table and the given options.
// No analyzers are registered unless passed in.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		strategies: make(map[string]Strategy, len(DefaultStrategies)),
		analyzers:  make(map[string]Analyzer),
	}
	for ext, s := range DefaultStrategies {
		e.strategies[ext] = s
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewDefault returns an Extractor with the default strategies and the tree-sitter Java
// analyzer.
func NewDefault() *Extractor {
	return New(WithAnalyzer("java", NewJavaAnalyzer()))
}

// Strategy returns the strategy registered for ext.
func (e *Extractor) Strategy(ext string) (Strategy, bool) {
	s, ok := e.strategies[strings.ToLower(ext)]
	return s, ok
}

// Supports reports whether files with extension ext are documented at all.
func (e *Extractor) Supports(ext string) bool {
	_, ok := e.Strategy(ext)
	return ok
}

// Extract returns the documentation of the file, or "" when there is none, the
// extension is not supported, or the content is not UTF-8 text.
func (e *Extractor) Extract(name, ext string, content []byte) string {
	s, ok := e.Strategy(ext)
	if !ok || !isText(content) {
		return ""
	}

	switch s {
	case StructuredComment:
		a, ok := e.analyzers[strings.ToLower(ext)]
		if !ok {
			return ""
		}
		return ExtractStructured(a, name, content)
	case Docstring:
		return ExtractDocstring(string(content))
	case BlockComment:
		return ExtractBlockComment(string(content))
	default:
		return ""
	}
}

// isText rejects content with NUL bytes or invalid UTF-8.
func isText(content []byte) bool {
	return bytes.IndexByte(content, 0) < 0 && utf8.Valid(content)
}
