// Package structure assembles the repository structure document: a header, the ASCII
// tree of the root and the documentation found in its source files.
package structure

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CageChen/repodoc/internal/fs"
	"github.com/CageChen/repodoc/internal/logger"
	"github.com/CageChen/repodoc/internal/tree"
)

// TimestampLayout formats the "Last updated" line: local date-time, fractional seconds
// only when non-zero, no zone.
const TimestampLayout = "2006-01-02T15:04:05.999999999"

const timestampPrefix = "Last updated: "

// ErrInvalidRoot is returned when Generate is given something other than a directory.
var ErrInvalidRoot = errors.New("invalid root directory")

// Extractor documents a single file.
type Extractor interface {
	Supports(ext string) bool
	Extract(name, ext string, content []byte) string
}

// Documenter generates structure documents.
type Documenter struct {
	extractor Extractor
	now       func() time.Time
	log       logger.Logger
}

// Option configures a Documenter.
type Option func(*Documenter)

// WithClock sets the time source for the "Last updated" line.
func WithClock(now func() time.Time) Option {
	return func(d *Documenter) {
		d.now = now
	}
}

// WithLogger sets where skipped entries are reported.
func WithLogger(l logger.Logger) Option {
	return func(d *Documenter) {
		d.log = l
	}
}

// New returns a Documenter using extractor for file documentation.
func New(extractor Extractor, opts ...Option) *Documenter {
	d := &Documenter{
		extractor: extractor,
		now:       time.Now,
		log:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Generate builds the document for root. Unreadable entries below the root are skipped;
// the only error is a root that is not a directory.
func (d *Documenter) Generate(root *fs.Node) (string, error) {
	if root == nil || !root.IsDir() {
		return "", ErrInvalidRoot
	}

	var content strings.Builder
	fmt.Fprintf(&content, "# %s Structure\n", strings.ToUpper(root.Name()))
	content.WriteString(timestampPrefix + d.now().Format(TimestampLayout) + "\n\n")

	content.WriteString("## Directory Structure\n```\n")
	content.WriteString(tree.Render(root, ""))
	content.WriteString("\n```\n\n")

	content.WriteString("## File Documentation\n")
	d.document(&content, root, "")

	return content.String(), nil
}

// document walks dir depth-first, directories before files, writing a heading for each
// directory and for each file that has documentation.
func (d *Documenter) document(content *strings.Builder, dir *fs.Node, relativePath string) {
	children, err := dir.Children()
	if err != nil {
		d.log.Debug("skipping unreadable directory %s: %v", dir.Path(), err)
		return
	}
	fs.SortNodes(children)

	for _, child := range children {
		if child.IsDir() {
			newPath := child.Name()
			if relativePath != "" {
				newPath = relativePath + "/" + child.Name()
			}
			content.WriteString("\n### " + newPath + "\n")
			d.document(content, child, newPath)
			continue
		}

		doc := d.extract(child)
		if doc == "" {
			continue
		}
		content.WriteString("\n#### " + child.Name() + "\n")
		content.WriteString(doc + "\n")
	}
}

func (d *Documenter) extract(file *fs.Node) string {
	ext := file.Ext()
	if !d.extractor.Supports(ext) {
		return ""
	}
	data, err := file.Content()
	if err != nil {
		d.log.Debug("skipping unreadable file %s: %v", file.Path(), err)
		return ""
	}
	return d.extractor.Extract(file.Name(), ext, data)
}

// StripTimestamp removes the "Last updated" line so documents from different runs can
// be compared.
func StripTimestamp(doc string) string {
	lines := strings.SplitAfter(doc, "\n")
	var b strings.Builder
	b.Grow(len(doc))
	for i, line := range lines {
		if i < 3 && strings.HasPrefix(line, timestampPrefix) {
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}
