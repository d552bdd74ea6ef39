// Package host provides the backing stores trees are read from and sinks write to.
package host

import (
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/speakeasy-api/scaffold/internal/tree"
)

var _ tree.Host = (*Memory)(nil)

// Memory is a writable host that keeps every file in memory.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory returns a memory host seeded with files. Keys are normalized.
func NewMemory(files map[string][]byte) (*Memory, error) {
	m := &Memory{files: map[string][]byte{}}
	for p, content := range files {
		if err := m.Write(p, content); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Memory) Read(p string) ([]byte, error) {
	n, err := tree.Normalize(p)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	content, ok := m.files[n]
	if !ok {
		return nil, errors.Wrapf(fs.ErrNotExist, "read %s", n)
	}
	return content, nil
}

func (m *Memory) Exists(p string) bool {
	return m.IsFile(p) || m.IsDirectory(p)
}

func (m *Memory) IsFile(p string) bool {
	n, err := tree.Normalize(p)
	if err != nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.files[n]
	return ok
}

func (m *Memory) IsDirectory(p string) bool {
	n, err := tree.Normalize(p)
	if err != nil {
		return false
	}
	if n == "/" {
		return true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for f := range m.files {
		if strings.HasPrefix(f, n+"/") {
			return true
		}
	}
	return false
}

func (m *Memory) List(p string) ([]string, error) {
	n, err := tree.Normalize(p)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimSuffix(n, "/") + "/"

	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := map[string]struct{}{}
	for f := range m.files {
		if rest, ok := strings.CutPrefix(f, prefix); ok {
			name, _, _ := strings.Cut(rest, "/")
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Files returns a copy of every file keyed by path.
func (m *Memory) Files() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]byte, len(m.files))
	for p, content := range m.files {
		out[p] = content
	}
	return out
}

func (m *Memory) Write(p string, content []byte) error {
	n, err := tree.Normalize(p)
	if err != nil || n == "/" {
		return errors.Wrapf(tree.ErrInvalidPath, "write %q", p)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for dir := path.Dir(n); dir != "/"; dir = path.Dir(dir) {
		if _, ok := m.files[dir]; ok {
			return errors.Wrapf(tree.ErrPathIsFile, "write %s", n)
		}
	}
	m.files[n] = append([]byte(nil), content...)
	return nil
}

func (m *Memory) Remove(p string) error {
	n, err := tree.Normalize(p)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[n]; !ok {
		return errors.Wrapf(fs.ErrNotExist, "remove %s", n)
	}
	delete(m.files, n)
	return nil
}

func (m *Memory) Rename(from, to string) error {
	f, err := tree.Normalize(from)
	if err != nil {
		return err
	}
	t, err := tree.Normalize(to)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	content, ok := m.files[f]
	if !ok {
		return errors.Wrapf(fs.ErrNotExist, "rename %s", f)
	}
	delete(m.files, f)
	m.files[t] = content
	return nil
}
