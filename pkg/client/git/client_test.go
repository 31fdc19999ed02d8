package git_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"

	"github.com/vaultlab/vaultlab/pkg/client/git"
)

func TestHasRemote_NoRepository(t *testing.T) {
	t.Parallel()

	client := git.NewClient(t.TempDir())

	found, err := client.HasRemote("origin")
	require.NoError(t, err)
	require.False(t, found)
}

func TestHasRemote_RepositoryWithoutRemote(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	client := git.NewClient(dir)

	found, err := client.HasRemote("origin")
	require.NoError(t, err)
	require.False(t, found)
}

func TestEnsureInitialized_CreatesRepositoryAndRemote(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	client := git.NewClient(dir)

	err := client.EnsureInitialized("origin", "https://example.com/demo.git", "main")
	require.NoError(t, err)

	found, err := client.HasRemote("origin")
	require.NoError(t, err)
	require.True(t, found)
}

func TestEnsureInitialized_Idempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	client := git.NewClient(dir)

	require.NoError(t, client.EnsureInitialized("origin", "https://example.com/demo.git", "main"))
	require.NoError(t, client.EnsureInitialized("origin", "https://example.com/demo.git", "main"))

	found, err := client.HasRemote("origin")
	require.NoError(t, err)
	require.True(t, found)
}

func TestCommitAll_CleanTreeIsNoOp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	client := git.NewClient(dir)
	require.NoError(t, client.EnsureInitialized("origin", "", "main"))

	require.NoError(t, client.CommitAll("nothing to commit"))
}

func TestCommitAll_CommitsNewFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	client := git.NewClient(dir)
	require.NoError(t, client.EnsureInitialized("origin", "", "main"))

	err := os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte("kind: Secret\n"), 0o644)
	require.NoError(t, err)

	require.NoError(t, client.CommitAll("add manifest"))

	repo, err := gogit.PlainOpen(dir)
	require.NoError(t, err)

	head, err := repo.Head()
	require.NoError(t, err)

	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	require.Equal(t, "add manifest", commit.Message)
}

func TestPush_ToLocalBareRemote(t *testing.T) {
	t.Parallel()

	remoteDir := t.TempDir()
	_, err := gogit.PlainInit(remoteDir, true)
	require.NoError(t, err)

	workDir := t.TempDir()
	client := git.NewClient(workDir)
	require.NoError(t, client.EnsureInitialized("origin", remoteDir, "master"))

	err = os.WriteFile(filepath.Join(workDir, "manifest.yaml"), []byte("kind: Secret\n"), 0o644)
	require.NoError(t, err)
	require.NoError(t, client.CommitAll("add manifest"))

	require.NoError(t, client.Push(context.Background(), "origin"))
	// Pushing again with nothing new is not an error.
	require.NoError(t, client.Push(context.Background(), "origin"))
}
