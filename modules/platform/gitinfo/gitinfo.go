package gitinfo

import (
	"fmt"
	"os"
	"path/filepath"

	"csd-runlab/modules/platform/api"

	"github.com/go-git/go-git/v5"
)

// IsRepository checks if a path is inside a git repository
func IsRepository(path string) bool {
	_, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	return err == nil
}

// Detect gathers upload provenance for the repository containing path.
// Returns nil (no error) when the path is not inside a git repository,
// since provenance is optional on uploads.
func Detect(path string) (*api.Provenance, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	// Callers pass script file paths; go-git wants the containing directory
	if info, err := os.Stat(absPath); err == nil && !info.IsDir() {
		absPath = filepath.Dir(absPath)
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	prov := &api.Provenance{}

	head, err := repo.Head()
	if err == nil {
		prov.Branch = head.Name().Short()
		prov.Commit = head.Hash().String()
	}

	worktree, err := repo.Worktree()
	if err == nil {
		// Worktree status is expensive on large repos but uploads are rare
		status, err := worktree.Status()
		if err == nil {
			prov.Dirty = !status.IsClean()
		}
	}

	remotes, err := repo.Remotes()
	if err == nil && len(remotes) > 0 {
		urls := remotes[0].Config().URLs
		if len(urls) > 0 {
			prov.Remote = urls[0]
		}
	}

	return prov, nil
}
