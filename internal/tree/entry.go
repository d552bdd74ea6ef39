package tree

import (
	"path"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// FileEntry is a file visible in a tree. Content is loaded from the host on first access and is
// never changed afterwards; mutations stage a new entry instead.
type FileEntry struct {
	path    string
	content []byte
	loaded  bool
	load    func() ([]byte, error)
}

func newEntry(p string, content []byte) *FileEntry {
	return &FileEntry{path: p, content: content, loaded: true}
}

func hostEntry(h Host, p string) *FileEntry {
	return &FileEntry{path: p, load: func() ([]byte, error) { return h.Read(p) }}
}

func (e *FileEntry) Path() string {
	return e.path
}

func (e *FileEntry) Content() ([]byte, error) {
	if !e.loaded {
		content, err := e.load()
		if err != nil {
			return nil, err
		}
		e.content = content
		e.loaded = true
	}
	return e.content, nil
}

func (e *FileEntry) moved(to string) *FileEntry {
	return &FileEntry{path: to, content: e.content, loaded: e.loaded, load: e.load}
}

// DirEntry is a view over a directory of a tree. Directories are never stored; they exist for as
// long as some live file sits beneath them.
type DirEntry struct {
	tree *Tree
	path string
}

func (d DirEntry) Path() string {
	return d.path
}

// Parent returns the enclosing directory, or false for the root.
func (d DirEntry) Parent() (DirEntry, bool) {
	if d.path == "/" {
		return DirEntry{}, false
	}
	return DirEntry{tree: d.tree, path: path.Dir(d.path)}, true
}

func (d DirEntry) Subdirs() []string {
	dirs, _ := d.tree.children(d.path)
	return dirs
}

func (d DirEntry) Subfiles() []string {
	_, files := d.tree.children(d.path)
	return files
}

func (d DirEntry) Dir(name string) DirEntry {
	return DirEntry{tree: d.tree, path: path.Join(d.path, name)}
}

func (d DirEntry) File(name string) (*FileEntry, error) {
	return d.tree.Get(path.Join(d.path, name))
}

func (t *Tree) children(dir string) ([]string, []string) {
	prefix := strings.TrimSuffix(dir, "/") + "/"

	var dirs, files []string
	for p := range t.state.files {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok {
			continue
		}
		if name, _, nested := strings.Cut(rest, "/"); nested {
			dirs = append(dirs, name)
		} else {
			files = append(files, name)
		}
	}

	if t.host != nil && t.host.IsDirectory(dir) {
		names, _ := t.host.List(dir)
		for _, name := range names {
			child := path.Join(dir, name)
			switch {
			case t.host.IsFile(child):
				if !t.hidden(child) {
					files = append(files, name)
				}
			case t.host.IsDirectory(child):
				if t.hostDirLive(child) {
					dirs = append(dirs, name)
				}
			}
		}
	}

	dirs = lo.Uniq(dirs)
	files = lo.Uniq(files)
	sort.Strings(dirs)
	sort.Strings(files)
	return dirs, files
}
