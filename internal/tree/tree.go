// Package tree implements a staged, branchable view over a file host. Every mutation is checked
// against the current view, applied to an in-memory overlay and recorded in an action journal;
// the host itself is never written.
//
// A Tree is not safe for concurrent use. Branches share storage until one side mutates.
package tree

import (
	"bytes"
	"maps"
	"path"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/samber/lo"
	"github.com/speakeasy-api/scaffold/internal/action"
	"github.com/speakeasy-api/scaffold/internal/log"
	"go.uber.org/zap"
)

var generations atomic.Uint64

type Option func(*Tree)

func WithLogger(l log.Logger) Option {
	return func(t *Tree) {
		t.logger = l
	}
}

type Tree struct {
	host   Host
	id     uint64
	logger log.Logger

	// ancestry maps the generation id of every ancestor to the number of journal entries
	// inherited from it when branching.
	ancestry map[uint64]int

	state   *staged
	journal *action.Log
	owned   bool

	reads map[string]*FileEntry
}

// New returns a tree backed by host. A nil host behaves as an empty one.
func New(host Host, opts ...Option) *Tree {
	t := &Tree{
		host:     host,
		id:       generations.Add(1),
		logger:   log.Discard(),
		ancestry: map[uint64]int{},
		state:    newStaged(),
		journal:  action.NewLog(),
		owned:    true,
		reads:    map[string]*FileEntry{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func Empty() *Tree {
	return New(nil)
}

func (t *Tree) Host() Host {
	return t.host
}

// GenerationID returns the process-unique id of this tree.
func (t *Tree) GenerationID() uint64 {
	return t.id
}

// Actions returns a copy of the journal in recording order.
func (t *Tree) Actions() []action.Action {
	return t.journal.Actions()
}

// Journal returns a copy of the journal that can be optimized without affecting the tree.
func (t *Tree) Journal() *action.Log {
	return t.journal.Clone()
}

// Branch returns a child tree with the same view and journal. The two evolve independently.
func (t *Tree) Branch() *Tree {
	t.owned = false

	b := &Tree{
		host:     t.host,
		id:       generations.Add(1),
		logger:   t.logger,
		ancestry: maps.Clone(t.ancestry),
		state:    t.state,
		journal:  t.journal,
		reads:    t.reads,
	}
	b.ancestry[t.id] = t.journal.Len()

	return b
}

func (t *Tree) own() {
	if t.owned {
		return
	}
	t.state = t.state.clone()
	t.journal = t.journal.Clone()
	t.owned = true
}

func (t *Tree) hidden(p string) bool {
	return has(t.state.hidden, p)
}

func (t *Tree) onHost(p string) bool {
	return t.host != nil && t.host.IsFile(p)
}

func (t *Tree) entry(p string) *FileEntry {
	if e, ok := t.state.files[p]; ok {
		return e
	}
	if t.hidden(p) || !t.onHost(p) {
		return nil
	}
	if e, ok := t.reads[p]; ok {
		return e
	}
	e := hostEntry(t.host, p)
	t.reads[p] = e
	return e
}

func (t *Tree) exists(p string) bool {
	return t.entry(p) != nil
}

func (t *Tree) isDir(p string) bool {
	if p == "/" {
		return true
	}

	prefix := p + "/"
	for f := range t.state.files {
		if strings.HasPrefix(f, prefix) {
			return true
		}
	}

	return t.host != nil && t.host.IsDirectory(p) && t.hostDirLive(p)
}

// hostDirLive reports whether any host file under dir is still visible.
func (t *Tree) hostDirLive(dir string) bool {
	names, err := t.host.List(dir)
	if err != nil {
		return false
	}
	for _, name := range names {
		child := path.Join(dir, name)
		if t.host.IsFile(child) {
			if !t.hidden(child) {
				return true
			}
			continue
		}
		if t.host.IsDirectory(child) && t.hostDirLive(child) {
			return true
		}
	}
	return false
}

func (t *Tree) checkPlacement(op, p string) error {
	if t.isDir(p) {
		return &PathError{Op: op, Path: p, Err: ErrPathIsDirectory}
	}
	for dir := path.Dir(p); dir != "/"; dir = path.Dir(dir) {
		if t.exists(dir) {
			return &PathError{Op: op, Path: dir, Err: ErrPathIsFile}
		}
	}
	return nil
}

func (t *Tree) Exists(p string) bool {
	n, err := Normalize(p)
	if err != nil {
		return false
	}
	return t.exists(n)
}

func (t *Tree) Read(p string) ([]byte, error) {
	n, err := normalizeFile("read", p)
	if err != nil {
		return nil, err
	}

	e := t.entry(n)
	if e == nil {
		return nil, &PathError{Op: "read", Path: n, Err: ErrFileDoesNotExist}
	}
	return e.Content()
}

// Get returns the file at p, or nil when nothing lives there.
func (t *Tree) Get(p string) (*FileEntry, error) {
	n, err := normalizeFile("get", p)
	if err != nil {
		return nil, err
	}

	if e := t.entry(n); e != nil {
		return e, nil
	}
	if t.isDir(n) {
		return nil, &PathError{Op: "get", Path: n, Err: ErrPathIsDirectory}
	}
	return nil, nil
}

func (t *Tree) GetDir(p string) (DirEntry, error) {
	n, err := Normalize(p)
	if err != nil {
		return DirEntry{}, &PathError{Op: "getDir", Path: p, Err: err}
	}
	if t.exists(n) {
		return DirEntry{}, &PathError{Op: "getDir", Path: n, Err: ErrPathIsFile}
	}
	return DirEntry{tree: t, path: n}, nil
}

func (t *Tree) Root() DirEntry {
	return DirEntry{tree: t, path: "/"}
}

// Paths returns every live file path in lexical order.
func (t *Tree) Paths() []string {
	paths := lo.Keys(t.state.files)
	if t.host != nil {
		t.walkHost("/", func(p string) {
			if _, staged := t.state.files[p]; !staged && !t.hidden(p) {
				paths = append(paths, p)
			}
		})
	}
	sort.Strings(paths)
	return paths
}

func (t *Tree) walkHost(dir string, fn func(p string)) {
	names, err := t.host.List(dir)
	if err != nil {
		return
	}
	for _, name := range names {
		child := path.Join(dir, name)
		switch {
		case t.host.IsFile(child):
			fn(child)
		case t.host.IsDirectory(child):
			t.walkHost(child, fn)
		}
	}
}

// Visit calls visitor for every live file in lexical path order, stopping at the first error.
func (t *Tree) Visit(visitor func(p string, entry *FileEntry) error) error {
	for _, p := range t.Paths() {
		if err := visitor(p, t.entry(p)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) Create(p string, content []byte) error {
	n, err := normalizeFile("create", p)
	if err != nil {
		return err
	}
	if t.exists(n) {
		return &PathError{Op: "create", Path: n, Err: ErrFileAlreadyExists}
	}
	if err := t.checkPlacement("create", n); err != nil {
		return err
	}

	content = bytes.Clone(content)
	t.own()
	t.state.create(n, newEntry(n, content))
	t.journal.Create(n, content)
	return nil
}

func (t *Tree) Overwrite(p string, content []byte) error {
	n, err := normalizeFile("overwrite", p)
	if err != nil {
		return err
	}
	if !t.exists(n) {
		return &PathError{Op: "overwrite", Path: n, Err: ErrFileDoesNotExist}
	}

	content = bytes.Clone(content)
	t.own()
	t.state.overwrite(n, newEntry(n, content))
	t.journal.Overwrite(n, content)
	return nil
}

func (t *Tree) Delete(p string) error {
	n, err := normalizeFile("delete", p)
	if err != nil {
		return err
	}
	if !t.exists(n) {
		return &PathError{Op: "delete", Path: n, Err: ErrFileDoesNotExist}
	}

	t.own()
	t.state.remove(n, t.onHost(n))
	t.journal.Delete(n)
	return nil
}

func (t *Tree) Rename(from, to string) error {
	f, err := normalizeFile("rename", from)
	if err != nil {
		return err
	}
	d, err := normalizeFile("rename", to)
	if err != nil {
		return err
	}
	if f == d {
		return nil
	}

	e := t.entry(f)
	if e == nil {
		return &PathError{Op: "rename", Path: f, Err: ErrFileDoesNotExist}
	}
	if t.exists(d) {
		return &PathError{Op: "rename", Path: d, Err: ErrFileAlreadyExists}
	}
	if err := t.checkPlacement("rename", d); err != nil {
		return err
	}

	t.own()
	t.state.rename(f, d, e, t.onHost(f))
	t.journal.Rename(f, d)

	t.logger.Debug("renamed file", zap.String("from", f), zap.String("to", d))
	return nil
}
