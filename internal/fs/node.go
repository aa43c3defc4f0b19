package fs

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// Node is one entry of a scanned tree. Children and content are read through the
// FileSystem on demand; nothing is cached, so every call reflects the current state.
type Node struct {
	fsys   FileSystem
	filter *Filter
	path   string
	name   string
	isDir  bool
}

// NewRoot returns the directory node at dir (relative to fsys, "" for its root).
// name is what the node reports from Name; an empty name falls back to the base of dir.
// It fails when dir does not exist or is not a directory.
func NewRoot(fsys FileSystem, dir, name string, filter *Filter) (*Node, error) {
	dir = strings.Trim(path.Clean("/"+dir), "/")
	info, err := fsys.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat root %q: %w", dir, err)
	}
	if !info.IsDir {
		return nil, fmt.Errorf("root %q: %w", dir, ErrNotDirectory)
	}
	if name == "" {
		name = path.Base("/" + dir)
		if name == "/" {
			name = info.Name
		}
	}
	return &Node{fsys: fsys, filter: filter, path: dir, name: name, isDir: true}, nil
}

// Name returns the entry's base name.
func (n *Node) Name() string { return n.name }

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool { return n.isDir }

// Path returns the slash separated path of the node relative to its FileSystem.
func (n *Node) Path() string { return n.path }

// Ext returns the text after the last dot of the name, or "" for directories and
// names without a dot.
func (n *Node) Ext() string {
	if n.isDir {
		return ""
	}
	i := strings.LastIndexByte(n.name, '.')
	if i < 0 {
		return ""
	}
	return n.name[i+1:]
}

// Children lists the node's immediate children in listing order, minus anything the
// filter drops. A file has no children.
func (n *Node) Children() ([]*Node, error) {
	if !n.isDir {
		return nil, nil
	}
	entries, err := n.fsys.ReadDir(n.path)
	if err != nil {
		return nil, err
	}

	children := make([]*Node, 0, len(entries))
	for _, e := range entries {
		childPath := e.Name
		if n.path != "" {
			childPath = n.path + "/" + e.Name
		}
		if n.filter.Skip(childPath, e.IsDir) {
			continue
		}
		children = append(children, &Node{
			fsys:   n.fsys,
			filter: n.filter,
			path:   childPath,
			name:   e.Name,
			isDir:  e.IsDir,
		})
	}
	return children, nil
}

// Content reads the file's bytes.
func (n *Node) Content() ([]byte, error) {
	if n.isDir {
		return nil, fmt.Errorf("%s: is a directory", n.path)
	}
	return n.fsys.ReadFile(n.path)
}

// SortNodes orders nodes in place: directories first, then files, each group by name
// in byte order.
func SortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].isDir != nodes[j].isDir {
			return nodes[i].isDir
		}
		return nodes[i].name < nodes[j].name
	})
}
