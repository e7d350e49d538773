package state

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Revision identifies the project checkout a build ran from. The zero value
// means the project is not a git checkout or has no commits yet.
type Revision struct {
	Commit string
	Dirty  bool // uncommitted or untracked changes in the worktree
}

// String is the short commit hash, suffixed with "-dirty" when needed.
func (r Revision) String() string {
	if r.Commit == "" {
		return ""
	}
	s := r.Commit
	if len(s) > 12 {
		s = s[:12]
	}
	if r.Dirty {
		s += "-dirty"
	}
	return s
}

// ReadRevision reports HEAD of the git checkout containing dir.
func ReadRevision(dir string) (Revision, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return Revision{}, nil
	}
	if err != nil {
		return Revision{}, fmt.Errorf("open repository: %w", err)
	}
	ref, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return Revision{}, nil
	}
	if err != nil {
		return Revision{}, fmt.Errorf("read HEAD: %w", err)
	}

	rev := Revision{Commit: ref.Hash().String()}
	wt, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return rev, nil
	}
	if err != nil {
		return rev, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return rev, fmt.Errorf("read worktree status: %w", err)
	}
	rev.Dirty = !status.IsClean()
	return rev, nil
}
