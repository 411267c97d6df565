// Package git reads changelog files from local repositories with go-git,
// so git-backed sources work without a git CLI.
package git

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// DefaultChangelogFile is read when a source names no file.
const DefaultChangelogFile = "CHANGELOG.md"

// changelogNames are the root files FindChangelog looks for, in order.
var changelogNames = []string{"CHANGELOG.md", "CHANGELOG", "CHANGES.md", "HISTORY.md", "RELEASES.md"}

// ErrNoChangelog is returned when HEAD has no changelog file at the root.
var ErrNoChangelog = errors.New("no changelog file at repository root")

// Commit describes the HEAD commit a file was read from.
type Commit struct {
	Hash   string
	Branch string
	When   time.Time
}

// openRepo opens the repository containing path, or the working directory
// when path is empty.
func openRepo(path string) (*git.Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return repo, nil
}

func headCommit(repo *git.Repository) (*object.Commit, Commit, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, Commit{}, fmt.Errorf("getting HEAD reference: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, Commit{}, fmt.Errorf("reading HEAD commit: %w", err)
	}

	info := Commit{Hash: head.Hash().String(), When: commit.Committer.When}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	return commit, info, nil
}

// HeadFile returns the contents of name as committed at HEAD of the
// repository containing path. Uncommitted edits are not seen.
func HeadFile(path, name string) ([]byte, Commit, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, Commit{}, err
	}
	commit, info, err := headCommit(repo)
	if err != nil {
		return nil, Commit{}, err
	}
	if name == "" {
		name = DefaultChangelogFile
	}

	file, err := commit.File(name)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, Commit{}, fmt.Errorf("%s not found at HEAD (%s): %w", name, shortHash(info.Hash), err)
		}
		return nil, Commit{}, fmt.Errorf("reading %s: %w", name, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, Commit{}, fmt.Errorf("reading %s: %w", name, err)
	}
	return []byte(contents), info, nil
}

// FindChangelog returns the name of the changelog file in the root tree at
// HEAD. Names are matched case-insensitively.
func FindChangelog(path string) (string, error) {
	repo, err := openRepo(path)
	if err != nil {
		return "", err
	}
	commit, _, err := headCommit(repo)
	if err != nil {
		return "", err
	}
	tree, err := commit.Tree()
	if err != nil {
		return "", fmt.Errorf("reading HEAD tree: %w", err)
	}

	for _, want := range changelogNames {
		for _, entry := range tree.Entries {
			if entry.Mode.IsFile() && strings.EqualFold(entry.Name, want) {
				return entry.Name, nil
			}
		}
	}
	return "", ErrNoChangelog
}

// IsRepository reports whether path is inside a git repository.
func IsRepository(path string) bool {
	_, err := openRepo(path)
	return err == nil
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
