package scm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitBlamer blames files at the HEAD commit of a git repository.
type GitBlamer struct {
	repoDir string
}

// NewGitBlamer returns a blamer for the repository at repoDir.
func NewGitBlamer(repoDir string) *GitBlamer {
	return &GitBlamer{repoDir: repoDir}
}

// Blame reports the blame of each file to out. Files unknown to HEAD are
// skipped and stay unblamed. The caller calls out.Finish.
func (b *GitBlamer) Blame(ctx context.Context, out *BlameOutput, files []InputFile) error {
	repo, err := git.PlainOpen(b.repoDir)
	if err != nil {
		return fmt.Errorf("failed to open repository %q: %w", b.repoDir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return fmt.Errorf("failed to load HEAD commit %s: %w", head.Hash(), err)
	}

	slog.Info("blaming files", "repository", b.repoDir, "revision", head.Hash().String(), "files", len(files))

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := git.Blame(commit, f.Path)
		if errors.Is(err, object.ErrFileNotFound) {
			slog.Debug("file not in HEAD, skipping blame", "file", f.Key, "path", f.Path)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to blame %s: %w", f.Path, err)
		}

		lines := make([]BlameLine, 0, len(result.Lines))
		for _, l := range result.Lines {
			lines = append(lines, BlameLine{
				Date:     l.Date,
				Revision: l.Hash.String(),
				Author:   l.Author,
			})
		}
		if err := out.BlameResult(f, lines); err != nil {
			return err
		}
	}
	return nil
}
