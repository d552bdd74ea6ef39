package host

import (
	"os"
	"path/filepath"
	"testing"

	gitc "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/speakeasy-api/scaffold/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestRepo creates a temporary git repository on "main" with one commit per entry of commits.
func initTestRepo(t *testing.T, commits ...map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := gitc.PlainInitWithOptions(dir, &gitc.PlainInitOptions{
		InitOptions: gitc.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName("main"),
		},
	})
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	for i, files := range commits {
		for name, content := range files {
			writeFile(t, filepath.Join(dir, filepath.FromSlash(name)), content)
			_, err = wt.Add(name)
			require.NoError(t, err)
		}
		_, err = wt.Commit("commit", &gitc.CommitOptions{
			Author: &object.Signature{Name: "test", Email: "test@test.com"},
		})
		require.NoError(t, err)

		if i == 0 {
			_, err = repo.CreateTag("v1", mustHead(t, repo), nil)
			require.NoError(t, err)
		}
	}

	return dir
}

func mustHead(t *testing.T, repo *gitc.Repository) plumbing.Hash {
	t.Helper()
	head, err := repo.Head()
	require.NoError(t, err)
	return head.Hash()
}

func TestGit(t *testing.T) {
	t.Parallel()

	dir := initTestRepo(t,
		map[string]string{"README.md": "# v1", "src/main.go": "package main"},
		map[string]string{"README.md": "# v2"},
	)

	head, err := NewGit(dir, "HEAD")
	require.NoError(t, err)
	assert.Len(t, head.Commit(), 40)

	content, err := head.Read("/README.md")
	require.NoError(t, err)
	assert.Equal(t, "# v2", string(content))

	v1, err := NewGit(dir, "v1")
	require.NoError(t, err)
	content, err = v1.Read("README.md")
	require.NoError(t, err)
	assert.Equal(t, "# v1", string(content))

	assert.True(t, head.IsDirectory("/"))
	assert.True(t, head.IsDirectory("/src"))
	assert.True(t, head.IsFile("/src/main.go"))
	assert.False(t, head.Exists("/missing"))

	names, err := head.List("/")
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "src"}, names)

	// Working tree changes are not visible.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("dirty"), 0o644))
	content, err = head.Read("/README.md")
	require.NoError(t, err)
	assert.Equal(t, "# v2", string(content))
}

func TestGit_Subdirectory(t *testing.T) {
	t.Parallel()

	dir := initTestRepo(t, map[string]string{"README.md": "root", "pkg/api/api.go": "package api"})

	g, err := NewGit(filepath.Join(dir, "pkg"), "main")
	require.NoError(t, err)

	tr := tree.New(g)
	assert.Equal(t, []string{"/api/api.go"}, tr.Paths())
}

func TestNewGit_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewGit(t.TempDir(), "HEAD")
	assert.Error(t, err)

	dir := initTestRepo(t, map[string]string{"a": "a"})
	_, err = NewGit(dir, "does-not-exist")
	assert.Error(t, err)
}
