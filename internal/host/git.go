package host

import (
	"path/filepath"
	"sort"
	"strings"

	gitc "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"
	"github.com/speakeasy-api/scaffold/internal/tree"
)

var _ tree.Host = (*Git)(nil)

// Git is a read-only host over the tree of a commit. When opened from a subdirectory of the
// work tree, paths are relative to that subdirectory.
type Git struct {
	revision string
	commit   plumbing.Hash
	tree     *object.Tree
}

// NewGit opens the repository containing dir and resolves revision (a branch, tag, hash or
// "HEAD").
func NewGit(dir, revision string) (*Git, error) {
	repo, err := gitc.PlainOpenWithOptions(dir, &gitc.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "git: failed to open repository at %s", dir)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, errors.Wrapf(err, "git: failed to resolve revision %s", revision)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, errors.Wrapf(err, "git: failed to read commit %s", hash)
	}
	root, err := commit.Tree()
	if err != nil {
		return nil, errors.Wrapf(err, "git: failed to read tree of %s", hash)
	}

	prefix, err := workTreePrefix(repo, dir)
	if err != nil {
		return nil, err
	}
	if prefix != "" {
		if root, err = root.Tree(prefix); err != nil {
			return nil, errors.Wrapf(err, "git: %s not found at %s", prefix, revision)
		}
	}

	return &Git{revision: revision, commit: *hash, tree: root}, nil
}

func workTreePrefix(repo *gitc.Repository, dir string) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no work tree to be relative to.
		return "", nil
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %s", dir)
	}
	rootAbs, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		rootAbs = wt.Filesystem.Root()
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	rel, err := filepath.Rel(rootAbs, abs)
	if err != nil || rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

func (g *Git) Revision() string {
	return g.revision
}

func (g *Git) Commit() string {
	return g.commit.String()
}

func relPath(p string) (string, bool) {
	n, err := tree.Normalize(p)
	if err != nil {
		return "", false
	}
	return strings.TrimPrefix(n, "/"), true
}

func (g *Git) entry(p string) (*object.TreeEntry, bool) {
	r, ok := relPath(p)
	if !ok || r == "" {
		return nil, false
	}
	e, err := g.tree.FindEntry(r)
	if err != nil {
		return nil, false
	}
	return e, true
}

func (g *Git) Read(p string) ([]byte, error) {
	r, ok := relPath(p)
	if !ok {
		return nil, tree.ErrInvalidPath
	}
	f, err := g.tree.File(r)
	if err != nil {
		return nil, errors.Wrapf(err, "git: failed to read %s at %s", p, g.revision)
	}
	contents, err := f.Contents()
	if err != nil {
		return nil, errors.Wrapf(err, "git: failed to read blob %s", f.Hash)
	}
	return []byte(contents), nil
}

func (g *Git) Exists(p string) bool {
	return g.IsFile(p) || g.IsDirectory(p)
}

func (g *Git) IsFile(p string) bool {
	e, ok := g.entry(p)
	return ok && e.Mode.IsFile()
}

func (g *Git) IsDirectory(p string) bool {
	if r, ok := relPath(p); ok && r == "" {
		return true
	}
	e, ok := g.entry(p)
	return ok && e.Mode == filemode.Dir
}

func (g *Git) List(p string) ([]string, error) {
	r, ok := relPath(p)
	if !ok {
		return nil, tree.ErrInvalidPath
	}

	t := g.tree
	if r != "" {
		sub, err := g.tree.Tree(r)
		if err != nil {
			return nil, errors.Wrapf(err, "git: %s is not a directory at %s", p, g.revision)
		}
		t = sub
	}

	names := make([]string, 0, len(t.Entries))
	for _, e := range t.Entries {
		if e.Mode == filemode.Submodule {
			continue
		}
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names, nil
}
