package integration_tests

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

type result struct {
	Output string
	Err    error
}

// execute runs the scaffold binary in wd with an isolated home directory, so no user config
// leaks into the test.
func execute(t *testing.T, wd string, args ...string) result {
	t.Helper()

	binary, err := ensureBinary()
	require.NoError(t, err)

	cmd := exec.Command(binary, args...)
	cmd.Dir = wd
	cmd.Env = append(os.Environ(), "HOME="+t.TempDir(), "GITHUB_ACTIONS=false")

	out, err := cmd.CombinedOutput()
	return result{Output: string(out), Err: err}
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

// commitAll initializes a repository in dir if needed and commits every file in it.
func commitAll(t *testing.T, dir, message string) {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	if err == git.ErrRepositoryAlreadyExists {
		repo, err = git.PlainOpen(dir)
	}
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))

	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "scaffold", Email: "scaffold@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}
