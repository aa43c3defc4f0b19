// Package fs provides the filesystem boundary the documenter reads through: local disk
// or the committed tree of a git ref, exposed as lazily listed Nodes.
package fs

import (
	"errors"
	"time"
)

// ErrNotDirectory is returned when a root is requested on something that is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// FileInfo holds file metadata.
type FileInfo struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// DirEntry represents a single directory entry.
type DirEntry struct {
	Name  string
	IsDir bool
}

// FileSystem abstracts file operations so callers can work with either
// the local filesystem or a git object database. Paths are slash separated
// and relative to the filesystem root; "" and "." name the root itself.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (FileInfo, error)
	ReadDir(path string) ([]DirEntry, error)
}
