package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// IsGitURL reports whether input looks like a remote git repository URL.
func IsGitURL(input string) bool {
	return strings.HasSuffix(input, ".git") || strings.HasPrefix(input, "git@")
}

// CloneRepo makes a shallow clone of the default branch of url into a fresh temporary
// directory and returns its path. The caller removes the directory.
func CloneRepo(ctx context.Context, url string, progress io.Writer) (string, error) {
	dir, err := os.MkdirTemp("", "repodoc-git-")
	if err != nil {
		return "", fmt.Errorf("create temporary directory: %w", err)
	}

	_, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           url,
		Progress:      progress,
		ReferenceName: plumbing.HEAD,
		SingleBranch:  true,
		Depth:         1,
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("clone %s: %w", url, err)
	}
	return dir, nil
}
