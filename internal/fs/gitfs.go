package fs

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitFS implements FileSystem by reading from a git ref (branch, tag, or commit).
// The ref is resolved once, on first use; later reads see that commit even if the
// ref moves.
type GitFS struct {
	repoPath string
	ref      string

	once    sync.Once
	tree    *object.Tree
	modTime time.Time
	err     error
}

// NewGitFS creates a GitFS that reads files from the given ref in the repository at repoPath.
func NewGitFS(repoPath, ref string) *GitFS {
	return &GitFS{repoPath: repoPath, ref: ref}
}

func (g *GitFS) resolve() (*object.Tree, error) {
	g.once.Do(func() {
		repo, err := git.PlainOpenWithOptions(g.repoPath, &git.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			g.err = fmt.Errorf("open repository %s: %w", g.repoPath, err)
			return
		}
		hash, err := repo.ResolveRevision(plumbing.Revision(g.ref))
		if err != nil {
			g.err = fmt.Errorf("resolve ref %s: %w", g.ref, err)
			return
		}
		commit, err := repo.CommitObject(*hash)
		if err != nil {
			g.err = fmt.Errorf("load commit %s: %w", hash, err)
			return
		}
		tree, err := commit.Tree()
		if err != nil {
			g.err = fmt.Errorf("load tree of %s: %w", hash, err)
			return
		}
		g.tree = tree
		g.modTime = commit.Committer.When
	})
	return g.tree, g.err
}

func cleanGitPath(p string) string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "." {
		return ""
	}
	return p
}

// ReadFile reads the contents of the file at the given path from the git ref.
func (g *GitFS) ReadFile(p string) ([]byte, error) {
	objPath := cleanGitPath(p)
	if objPath == "" {
		return nil, fmt.Errorf("cannot read directory as file")
	}
	tree, err := g.resolve()
	if err != nil {
		return nil, err
	}
	f, err := tree.File(objPath)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("git read %s: %w", objPath, err)
	}
	contents, err := f.Contents()
	if err != nil {
		return nil, fmt.Errorf("git read %s: %w", objPath, err)
	}
	return []byte(contents), nil
}

// Stat returns metadata for the file or directory at the given path in the git ref.
// ModTime is the commit time of the ref for every entry.
func (g *GitFS) Stat(p string) (FileInfo, error) {
	tree, err := g.resolve()
	if err != nil {
		return FileInfo{}, os.ErrNotExist
	}

	objPath := cleanGitPath(p)
	if objPath == "" {
		return FileInfo{
			Name:    g.ref,
			IsDir:   true,
			ModTime: g.modTime,
		}, nil
	}

	entry, err := tree.FindEntry(objPath)
	if err != nil {
		return FileInfo{}, os.ErrNotExist
	}

	if entry.Mode == filemode.Dir {
		return FileInfo{
			Name:    entry.Name,
			IsDir:   true,
			ModTime: g.modTime,
		}, nil
	}

	var size int64
	if f, err := tree.File(objPath); err == nil {
		size = f.Size
	}
	return FileInfo{
		Name:    entry.Name,
		IsDir:   false,
		Size:    size,
		ModTime: g.modTime,
	}, nil
}

// ReadDir lists the immediate children of the directory at the given path in the git ref.
func (g *GitFS) ReadDir(p string) ([]DirEntry, error) {
	tree, err := g.resolve()
	if err != nil {
		return nil, os.ErrNotExist
	}

	objPath := cleanGitPath(p)
	dir := tree
	if objPath != "" {
		dir, err = tree.Tree(objPath)
		if err != nil {
			return nil, os.ErrNotExist
		}
	}

	entries := make([]DirEntry, 0, len(dir.Entries))
	for _, e := range dir.Entries {
		entries = append(entries, DirEntry{
			Name:  e.Name,
			IsDir: e.Mode == filemode.Dir,
		})
	}
	return entries, nil
}
