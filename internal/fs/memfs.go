package fs

import (
	"errors"
	"os"
	"path"
	"sort"
	"strings"
)

// MemFS is an in-memory FileSystem. Keys are slash separated file paths; a key ending
// in "/" declares an (possibly empty) directory. Parent directories are implied.
type MemFS struct {
	files  map[string][]byte
	dirs   map[string]bool
	broken map[string]bool
}

// ErrBroken is returned for paths marked with Break.
var ErrBroken = errors.New("memfs: broken entry")

// NewMemFS builds a MemFS from path -> content.
func NewMemFS(entries map[string]string) *MemFS {
	m := &MemFS{
		files:  make(map[string][]byte),
		dirs:   map[string]bool{"": true},
		broken: make(map[string]bool),
	}
	for p, content := range entries {
		if strings.HasSuffix(p, "/") {
			m.addDir(strings.TrimSuffix(p, "/"))
			continue
		}
		p = strings.Trim(p, "/")
		m.files[p] = []byte(content)
		m.addDir(path.Dir(p))
	}
	return m
}

func (m *MemFS) addDir(dir string) {
	for dir != "." && dir != "" && dir != "/" {
		m.dirs[dir] = true
		dir = path.Dir(dir)
	}
}

// Break makes every read of p (ReadFile, and ReadDir for directories) fail.
func (m *MemFS) Break(p string) {
	m.broken[strings.Trim(p, "/")] = true
}

func memClean(p string) string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "." {
		return ""
	}
	return p
}

// ReadFile returns the content stored for p.
func (m *MemFS) ReadFile(p string) ([]byte, error) {
	p = memClean(p)
	if m.broken[p] {
		return nil, ErrBroken
	}
	content, ok := m.files[p]
	if !ok {
		return nil, os.ErrNotExist
	}
	return content, nil
}

// Stat reports whether p is a known file or directory.
func (m *MemFS) Stat(p string) (FileInfo, error) {
	p = memClean(p)
	if m.dirs[p] {
		return FileInfo{Name: path.Base("/" + p), IsDir: true}, nil
	}
	if content, ok := m.files[p]; ok {
		return FileInfo{Name: path.Base(p), Size: int64(len(content))}, nil
	}
	return FileInfo{}, os.ErrNotExist
}

// ReadDir lists the immediate children of p in reverse name order, so callers cannot
// depend on the listing order.
func (m *MemFS) ReadDir(p string) ([]DirEntry, error) {
	p = memClean(p)
	if m.broken[p] {
		return nil, ErrBroken
	}
	if !m.dirs[p] {
		return nil, os.ErrNotExist
	}

	var entries []DirEntry
	isChild := func(c string) (string, bool) {
		if p == "" {
			return c, !strings.Contains(c, "/")
		}
		rest, ok := strings.CutPrefix(c, p+"/")
		return rest, ok && !strings.Contains(rest, "/")
	}
	for d := range m.dirs {
		if d == "" {
			continue
		}
		if name, ok := isChild(d); ok {
			entries = append(entries, DirEntry{Name: name, IsDir: true})
		}
	}
	for f := range m.files {
		if name, ok := isChild(f); ok {
			entries = append(entries, DirEntry{Name: name})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name > entries[j].Name })
	return entries, nil
}
