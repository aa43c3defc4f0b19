package main

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"

	"github.com/CageChen/repodoc/internal/config"
	"github.com/CageChen/repodoc/internal/fs"
	"github.com/CageChen/repodoc/internal/tree"
)

// maxPreviewLines bounds the tree shown next to a candidate.
const maxPreviewLines = 200

var errAborted = errors.New("selection aborted")

// rootCandidates lists the current directory and every directory below it that is
// not excluded.
func rootCandidates(cfg *config.Config) ([]string, error) {
	candidates := []string{"."}
	err := filepath.WalkDir(".", func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == "." || !d.IsDir() {
			return nil
		}
		if cfg.IsExcluded(path) {
			return filepath.SkipDir
		}
		candidates = append(candidates, filepath.ToSlash(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning for directories: %w", err)
	}
	return candidates, nil
}

// previewTree renders the tree of dir the way it will appear in the document.
func previewTree(fsys fs.FileSystem, filter *fs.Filter, dir string) string {
	root, err := fs.NewRoot(fsys, dir, "", filter)
	if err != nil {
		return err.Error()
	}
	rendered := tree.Render(root, "")
	lines := 0
	for i, r := range rendered {
		if r == '\n' {
			lines++
			if lines == maxPreviewLines {
				return rendered[:i+1] + "..."
			}
		}
	}
	return rendered
}

// pickRoots asks for the directories to document with a fuzzy finder.
func pickRoots(cfg *config.Config) ([]string, error) {
	candidates, err := rootCandidates(cfg)
	if err != nil {
		return nil, err
	}

	fsys := fs.NewLocalFS(".")
	filter := fs.NewFilter("", cfg.Exclude, nil)
	idx, err := fuzzyfinder.FindMulti(
		candidates,
		func(i int) string {
			return candidates[i]
		},
		fuzzyfinder.WithPromptString("roots> "),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return "Select the roots to document. Tab selects several, Enter confirms."
			}
			return candidates[i] + "\n" + previewTree(fsys, filter, candidates[i])
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, errAborted
		}
		return nil, fmt.Errorf("fuzzy finder: %w", err)
	}

	selected := make([]string, len(idx))
	for i, index := range idx {
		selected[i] = candidates[index]
	}
	return selected, nil
}
