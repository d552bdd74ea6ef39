package host

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/speakeasy-api/scaffold/internal/locks"
	"github.com/speakeasy-api/scaffold/internal/tree"
)

var _ tree.Host = (*Disk)(nil)

// Disk is a writable host rooted at a directory. Tree paths map onto paths below the root.
type Disk struct {
	root   string
	ignore []string
}

type DiskOption func(*Disk)

// WithIgnore hides entries with the given base names from listings.
func WithIgnore(names ...string) DiskOption {
	return func(d *Disk) {
		d.ignore = append(d.ignore, names...)
	}
}

// NewDisk returns a host rooted at root, which must be an existing directory. ".git" and the
// sink lock file are never listed.
func NewDisk(root string, opts ...DiskOption) (*Disk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", root)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", root)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s is not a directory", root)
	}

	d := &Disk{root: abs, ignore: []string{".git", locks.LockFileName}}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Disk) Root() string {
	return d.root
}

// resolve maps a tree path to a path on disk. Paths are normalized first, so they can never
// leave the root; the relative check guards against roots that are not clean.
func (d *Disk) resolve(p string) (string, error) {
	n, err := tree.Normalize(p)
	if err != nil {
		return "", err
	}

	full := filepath.Join(d.root, filepath.FromSlash(n))
	rel, err := filepath.Rel(d.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(tree.ErrInvalidPath, "%s escapes %s", p, d.root)
	}
	return full, nil
}

func (d *Disk) ignored(name string) bool {
	return slices.Contains(d.ignore, name)
}

func (d *Disk) Read(p string) ([]byte, error) {
	full, err := d.resolve(p)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

func (d *Disk) stat(p string) (fs.FileInfo, bool) {
	full, err := d.resolve(p)
	if err != nil {
		return nil, false
	}
	if d.ignored(filepath.Base(full)) {
		return nil, false
	}
	info, err := os.Stat(full)
	return info, err == nil
}

func (d *Disk) Exists(p string) bool {
	_, ok := d.stat(p)
	return ok
}

func (d *Disk) IsFile(p string) bool {
	info, ok := d.stat(p)
	return ok && info.Mode().IsRegular()
}

func (d *Disk) IsDirectory(p string) bool {
	if n, err := tree.Normalize(p); err == nil && n == "/" {
		return true
	}
	info, ok := d.stat(p)
	return ok && info.IsDir()
}

func (d *Disk) List(p string) ([]string, error) {
	full, err := d.resolve(p)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !d.ignored(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Write writes content to disk, creating parent directories if needed (mkdir -p behavior).
// Existing files keep their mode; new files get 0644.
func (d *Disk) Write(p string, content []byte) error {
	full, err := d.resolve(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(full); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(full, content, mode)
}

// Remove deletes a file and any directories left empty by it, up to the root.
func (d *Disk) Remove(p string) error {
	full, err := d.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return err
	}
	d.prune(filepath.Dir(full))
	return nil
}

func (d *Disk) Rename(from, to string) error {
	src, err := d.resolve(from)
	if err != nil {
		return err
	}
	dst, err := d.resolve(to)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return err
	}
	d.prune(filepath.Dir(src))
	return nil
}

func (d *Disk) prune(dir string) {
	for dir != d.root && strings.HasPrefix(dir, d.root) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
