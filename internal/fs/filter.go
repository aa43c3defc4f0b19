package fs

import (
	"bytes"
	"path"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Filter decides which entries are left out of a scan. A nil Filter keeps everything.
type Filter struct {
	base    string
	exclude []string
	ignore  *gitignore.GitIgnore
}

// NewFilter builds a filter for a scan rooted at base (slash separated, relative to the
// FileSystem). exclude holds glob patterns matched against the path relative to base and
// against the entry name; ignoreLines holds gitignore rules relative to base.
func NewFilter(base string, exclude, ignoreLines []string) *Filter {
	f := &Filter{
		base:    strings.Trim(path.Clean("/"+base), "/"),
		exclude: exclude,
	}
	if len(ignoreLines) > 0 {
		f.ignore = gitignore.CompileIgnoreLines(ignoreLines...)
	}
	return f
}

// LoadGitignore reads the .gitignore file at dir, if there is one, and returns its rules.
func LoadGitignore(fsys FileSystem, dir string) []string {
	p := ".gitignore"
	if d := strings.Trim(path.Clean("/"+dir), "/"); d != "" {
		p = d + "/.gitignore"
	}
	content, err := fsys.ReadFile(p)
	if err != nil {
		return nil
	}
	var lines []string
	for _, line := range bytes.Split(content, []byte{'\n'}) {
		line = bytes.TrimRight(line, "\r")
		if len(line) > 0 && !bytes.HasPrefix(line, []byte{'#'}) {
			lines = append(lines, string(line))
		}
	}
	return lines
}

func (f *Filter) rel(p string) string {
	if f.base == "" {
		return p
	}
	return strings.TrimPrefix(p, f.base+"/")
}

// Skip reports whether the entry at p (slash separated, relative to the FileSystem)
// should be left out.
func (f *Filter) Skip(p string, isDir bool) bool {
	if f == nil {
		return false
	}
	rel := f.rel(p)
	if f.excluded(rel) {
		return true
	}
	if f.ignore != nil {
		if isDir {
			return f.ignore.MatchesPath(rel + "/")
		}
		return f.ignore.MatchesPath(rel)
	}
	return false
}

func (f *Filter) excluded(rel string) bool {
	base := path.Base(rel)
	for _, pattern := range f.exclude {
		if matched, _ := path.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := path.Match(pattern, base); matched {
			return true
		}
		clean := strings.Trim(path.Clean("/"+pattern), "/")
		if rel == clean || strings.HasPrefix(rel, clean+"/") {
			return true
		}
	}
	return false
}
