// Package git manages the version-controlled artifact repository through
// go-git: initialization, remote wiring, and publishing generated artifacts.
package git

import (
	"context"
	"errors"
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/vaultlab/vaultlab/pkg/client/netretry"
)

const (
	committerName  = "vaultlab"
	committerEmail = "vaultlab@localhost"
)

// Client operates on one local repository working tree.
type Client struct {
	path string
}

// NewClient creates a git client rooted at the given working tree path.
func NewClient(path string) *Client {
	return &Client{path: path}
}

// HasRemote reports whether the repository exists and has the named remote
// configured. This is the read-only probe behind repo-remote-missing.
func (c *Client) HasRemote(remoteName string) (bool, error) {
	repo, err := gogit.PlainOpen(c.path)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return false, nil
		}

		return false, fmt.Errorf("open repository %s: %w", c.path, err)
	}

	_, err = repo.Remote(remoteName)
	if err != nil {
		if errors.Is(err, gogit.ErrRemoteNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("lookup remote %s: %w", remoteName, err)
	}

	return true, nil
}

// EnsureInitialized initializes the repository and configures the remote.
// An existing repository or remote is left in place, so the operation can
// run against any partial prior state.
func (c *Client) EnsureInitialized(remoteName, remoteURL, branch string) error {
	repo, err := gogit.PlainInitWithOptions(c.path, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName(branch),
		},
	})
	if err != nil {
		if !errors.Is(err, gogit.ErrRepositoryAlreadyExists) {
			return fmt.Errorf("init repository %s: %w", c.path, err)
		}

		repo, err = gogit.PlainOpen(c.path)
		if err != nil {
			return fmt.Errorf("open repository %s: %w", c.path, err)
		}
	}

	if remoteURL == "" {
		return nil
	}

	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: remoteName,
		URLs: []string{remoteURL},
	})
	if err != nil && !errors.Is(err, gogit.ErrRemoteExists) {
		return fmt.Errorf("create remote %s: %w", remoteName, err)
	}

	return nil
}

// CommitAll stages every change in the working tree and commits it. A clean
// working tree produces no commit and no error.
func (c *Client) CommitAll(message string) error {
	repo, err := gogit.PlainOpen(c.path)
	if err != nil {
		return fmt.Errorf("open repository %s: %w", c.path, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	err = worktree.AddWithOptions(&gogit.AddOptions{All: true})
	if err != nil {
		return fmt.Errorf("stage changes: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("read worktree status: %w", err)
	}

	if status.IsClean() {
		return nil
	}

	_, err = worktree.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  committerName,
			Email: committerEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("commit changes: %w", err)
	}

	return nil
}

const (
	pushAttempts = 3
	pushBaseWait = 1 * time.Second
	pushMaxWait  = 4 * time.Second
)

// Push publishes commits to the named remote. An up-to-date remote is not
// an error. Transient network failures are retried with exponential backoff.
func (c *Client) Push(ctx context.Context, remoteName string) error {
	repo, err := gogit.PlainOpen(c.path)
	if err != nil {
		return fmt.Errorf("open repository %s: %w", c.path, err)
	}

	for attempt := 1; ; attempt++ {
		err = repo.PushContext(ctx, &gogit.PushOptions{RemoteName: remoteName})
		if err == nil || errors.Is(err, gogit.NoErrAlreadyUpToDate) {
			return nil
		}

		if attempt >= pushAttempts || !netretry.IsRetryable(err) {
			return fmt.Errorf("push to %s: %w", remoteName, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("push to %s: %w", remoteName, ctx.Err())
		case <-time.After(netretry.ExponentialDelay(attempt, pushBaseWait, pushMaxWait)):
		}
	}
}
