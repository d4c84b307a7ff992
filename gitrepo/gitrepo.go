// Package gitrepo provides read-only repository inspection through go-git.
// It backs the staleness decision: local head commit time and hash, and
// the remote's current head reference for the ambiguous comparison band.
package gitrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Inspector reads repository state without invoking external commands.
type Inspector struct{}

// NewInspector creates an Inspector.
func NewInspector() *Inspector {
	return &Inspector{}
}

// HeadCommitTime returns the committer timestamp of the HEAD commit of
// the repository at path, normalized to UTC.
func (Inspector) HeadCommitTime(path string) (time.Time, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read HEAD commit: %w", err)
	}

	return commit.Committer.When.UTC(), nil
}

// HeadHash returns the hash of the HEAD commit of the repository at path.
func (Inspector) HeadHash(path string) (string, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	return head.Hash().String(), nil
}

// RemoteHead returns the hash of the remote's current head reference.
// It prefers the HEAD symref target and falls back to the conventional
// default branches when the remote does not advertise one.
func (Inspector) RemoteHead(ctx context.Context, remoteURL string) (string, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{remoteURL},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to list remote refs: %w", err)
	}

	byName := make(map[plumbing.ReferenceName]*plumbing.Reference, len(refs))
	for _, ref := range refs {
		byName[ref.Name()] = ref
	}

	if head, ok := byName[plumbing.HEAD]; ok {
		if head.Type() == plumbing.HashReference {
			return head.Hash().String(), nil
		}
		if target, ok := byName[head.Target()]; ok {
			return target.Hash().String(), nil
		}
	}

	for _, name := range []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName("main"),
		plumbing.NewBranchReferenceName("master"),
	} {
		if ref, ok := byName[name]; ok {
			return ref.Hash().String(), nil
		}
	}

	return "", fmt.Errorf("failed to resolve remote head for %s", remoteURL)
}
