package tree

import (
	"bytes"

	"github.com/speakeasy-api/scaffold/internal/updatebuffer"
)

// UpdateRecorder collects textual edits against a snapshot of one file. Indices always refer to
// the snapshot, regardless of edits already recorded.
type UpdateRecorder struct {
	path      string
	original  []byte
	buffer    *updatebuffer.UpdateBuffer
	committed bool
}

func (r *UpdateRecorder) Path() string {
	return r.path
}

func (r *UpdateRecorder) InsertLeft(index int, content []byte, assert bool) error {
	return r.buffer.InsertLeft(index, content, assert)
}

func (r *UpdateRecorder) InsertRight(index int, content []byte, assert bool) error {
	return r.buffer.InsertRight(index, content, assert)
}

func (r *UpdateRecorder) Remove(index, length int) error {
	return r.buffer.Remove(index, length)
}

// Content returns the file content with every recorded edit applied.
func (r *UpdateRecorder) Content() []byte {
	return r.buffer.Generate()
}

func (t *Tree) BeginUpdate(p string) (*UpdateRecorder, error) {
	n, err := normalizeFile("beginUpdate", p)
	if err != nil {
		return nil, err
	}

	e := t.entry(n)
	if e == nil {
		return nil, &PathError{Op: "beginUpdate", Path: n, Err: ErrFileDoesNotExist}
	}
	content, err := e.Content()
	if err != nil {
		return nil, err
	}

	return &UpdateRecorder{
		path:     n,
		original: content,
		buffer:   updatebuffer.NewBOM(content),
	}, nil
}

// CommitUpdate applies the edits of r as an overwrite. It fails if the file changed since
// BeginUpdate, and a recorder can only be committed once.
func (t *Tree) CommitUpdate(r *UpdateRecorder) error {
	if r.committed {
		return &PathError{Op: "commitUpdate", Path: r.path, Err: ErrRecorderConsumed}
	}

	current, err := t.Read(r.path)
	if err != nil {
		return err
	}
	if !bytes.Equal(current, r.original) {
		return &PathError{Op: "commitUpdate", Path: r.path, Err: ErrContentHasMutated}
	}

	r.committed = true

	content := r.buffer.Generate()
	if bytes.Equal(content, current) {
		return nil
	}
	return t.Overwrite(r.path, content)
}
