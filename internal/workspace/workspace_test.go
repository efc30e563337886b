package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a repository in a temp dir, optionally with one commit.
func initRepo(t *testing.T, commit bool) (string, *git.Repository, plumbing.Hash) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	if !commit {
		return dir, repo, plumbing.ZeroHash
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("hi\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README")
	require.NoError(t, err)
	hash, err := wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, repo, hash
}

func TestDetect_GitRootWins(t *testing.T) {
	root, _, _ := initRepo(t, false)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	// A store deeper than the repo root does not win.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", ".crumbs"), 0o755))

	ws, err := Detect(nested, ".crumbs")
	require.NoError(t, err)
	assert.Equal(t, root, ws.Root)
	assert.Equal(t, filepath.Join("a", "b"), ws.WorkingDir())
	assert.Equal(t, filepath.Join(root, ".crumbs"), ws.StoreDir())
	assert.False(t, ws.StoreExists())
}

func TestDetect_StoreAncestor(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".crumbs"), 0o755))
	nested := filepath.Join(root, "x")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	ws, err := Detect(nested, ".crumbs")
	require.NoError(t, err)
	assert.Equal(t, root, ws.Root)
	assert.Equal(t, "x", ws.WorkingDir())
	assert.True(t, ws.StoreExists())
}

func TestDetect_FallsBackToCwd(t *testing.T) {
	dir := t.TempDir()

	ws, err := Detect(dir, "")
	require.NoError(t, err)
	assert.Equal(t, dir, ws.Root)
	assert.Equal(t, ".", ws.WorkingDir())
	assert.Equal(t, ".crumbs", ws.DirName)
}

func TestRelativeWorkingDir(t *testing.T) {
	root := filepath.FromSlash("/work/repo")

	assert.Equal(t, ".", RelativeWorkingDir(root, root))
	assert.Equal(t, filepath.FromSlash("pkg/api"), RelativeWorkingDir(root, filepath.FromSlash("/work/repo/pkg/api")))
	assert.Equal(t, filepath.FromSlash("/work/other"), RelativeWorkingDir(root, filepath.FromSlash("/work/other")))
	assert.Equal(t, filepath.FromSlash("/work/repo..x"), RelativeWorkingDir(root, filepath.FromSlash("/work/repo..x")))
}

func TestReadMetadata(t *testing.T) {
	t.Run("branch and revision", func(t *testing.T) {
		dir, repo, hash := initRepo(t, true)
		wt, err := repo.Worktree()
		require.NoError(t, err)
		require.NoError(t, wt.Checkout(&git.CheckoutOptions{
			Branch: plumbing.NewBranchReferenceName("feature/test-branch"),
			Create: true,
		}))

		meta, err := ReadMetadata(dir)
		require.NoError(t, err)
		require.NotNil(t, meta.Branch)
		assert.Equal(t, "feature/test-branch", *meta.Branch)
		require.NotNil(t, meta.Revision)
		assert.Equal(t, hash.String(), *meta.Revision)
	})

	t.Run("detached head", func(t *testing.T) {
		dir, repo, hash := initRepo(t, true)
		wt, err := repo.Worktree()
		require.NoError(t, err)
		require.NoError(t, wt.Checkout(&git.CheckoutOptions{Hash: hash}))

		meta, err := ReadMetadata(dir)
		require.NoError(t, err)
		assert.Equal(t, "HEAD", *meta.Branch)
		assert.Equal(t, hash.String(), *meta.Revision)
	})

	t.Run("no commits", func(t *testing.T) {
		dir, _, _ := initRepo(t, false)

		meta, err := ReadMetadata(dir)
		assert.Error(t, err)
		assert.Nil(t, meta.Branch)
		assert.Nil(t, meta.Revision)
	})

	t.Run("not a repository", func(t *testing.T) {
		meta, err := ReadMetadata(t.TempDir())
		assert.ErrorIs(t, err, ErrNoRepository)
		assert.Nil(t, meta.Branch)
	})
}

func TestWorkspace_Origin(t *testing.T) {
	dir, _, hash := initRepo(t, true)
	sub := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	ws, err := Detect(sub, ".crumbs")
	require.NoError(t, err)

	origin, err := ws.Origin()
	require.NoError(t, err)
	assert.Equal(t, "src", origin.WorkingDir)
	assert.Equal(t, hash.String(), *origin.Revision)

	outside, err := Detect(t.TempDir(), ".crumbs")
	require.NoError(t, err)
	origin, err = outside.Origin()
	assert.Error(t, err)
	assert.Equal(t, ".", origin.WorkingDir)
	assert.Nil(t, origin.Branch)
}
