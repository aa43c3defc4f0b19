// Package tree renders a directory as a box-drawing ASCII tree.
package tree

import (
	"strings"

	"github.com/CageChen/repodoc/internal/fs"
)

const (
	branch     = "├── "
	lastBranch = "└── "
	pipe       = "│   "
	space      = "    "
)

// Render returns one line per descendant of node, each starting with prefix. The node
// itself is not printed. Directories sort before files and names compare byte-wise.
// A directory that cannot be listed renders as empty.
func Render(node *fs.Node, prefix string) string {
	var builder strings.Builder
	renderNode(&builder, node, prefix)
	return builder.String()
}

func renderNode(builder *strings.Builder, node *fs.Node, prefix string) {
	children, err := node.Children()
	if err != nil {
		return
	}
	fs.SortNodes(children)

	for i, child := range children {
		connector := branch
		newPrefix := prefix + pipe
		if i == len(children)-1 {
			connector = lastBranch
			newPrefix = prefix + space
		}

		builder.WriteString(prefix)
		builder.WriteString(connector)
		builder.WriteString(child.Name())
		builder.WriteString("\n")

		if child.IsDir() {
			renderNode(builder, child, newPrefix)
		}
	}
}
