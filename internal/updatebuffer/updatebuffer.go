// Package updatebuffer implements a piece-table editor over an immutable original buffer.
// Every offset accepted by an UpdateBuffer is expressed in the coordinate space of the
// original content and stays valid no matter how many edits have been applied.
package updatebuffer

import (
	"bytes"
	"slices"
)

const none = -1

// edge is an inserted buffer sitting on one side of a chunk.
type edge struct {
	buf       []byte
	asserted  bool
	tombstone bool
}

// append adds content after the buffer. A removed buffer is replaced rather than revived, so
// content removed earlier never reappears.
func (e *edge) append(content []byte, assert bool) {
	if e.tombstone {
		*e = edge{}
	}
	e.buf = append(slices.Clip(e.buf), content...)
	if assert {
		e.asserted = true
	}
}

func (e *edge) prepend(content []byte, assert bool) {
	if e.tombstone {
		*e = edge{}
	}
	buf := make([]byte, 0, len(content)+len(e.buf))
	e.buf = append(append(buf, content...), e.buf...)
	if assert {
		e.asserted = true
	}
}

func (e *edge) live() bool {
	return !e.tombstone
}

func (e *edge) protected() bool {
	return e.asserted && !e.tombstone
}

// chunk covers [start, end) of the original content. left sits right after start, right sits
// right before end.
type chunk struct {
	start, end       int
	left, right      edge
	contentTombstone bool
	next             int
}

func (c *chunk) len() int {
	n := 0
	if c.left.live() {
		n += len(c.left.buf)
	}
	if !c.contentTombstone {
		n += c.end - c.start
	}
	if c.right.live() {
		n += len(c.right.buf)
	}
	return n
}

// UpdateBuffer is a singly linked list of chunks stored in an arena. Chunk 0 is always the head.
type UpdateBuffer struct {
	original []byte
	offset   int
	chunks   []chunk
}

// New returns an UpdateBuffer over original. The original slice is never modified.
func New(original []byte) *UpdateBuffer {
	return &UpdateBuffer{
		original: original,
		chunks:   []chunk{{start: 0, end: len(original), next: none}},
	}
}

// NewBOM returns an UpdateBuffer whose offsets skip a leading byte order mark, so callers
// address logical content positions.
func NewBOM(original []byte) *UpdateBuffer {
	b := New(original)
	b.offset = bomLength(original)
	return b
}

func bomLength(content []byte) int {
	switch {
	case bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}):
		return 3
	case bytes.HasPrefix(content, []byte{0xFF, 0xFE}), bytes.HasPrefix(content, []byte{0xFE, 0xFF}):
		return 2
	default:
		return 0
	}
}

// Original returns the content the buffer was created over.
func (b *UpdateBuffer) Original() []byte {
	return b.original
}

// Len is the length of the content Generate would return.
func (b *UpdateBuffer) Len() int {
	n := 0
	for h := 0; h != none; h = b.chunks[h].next {
		n += b.chunks[h].len()
	}
	return n
}

// Generate concatenates every live fragment of the chunk list.
func (b *UpdateBuffer) Generate() []byte {
	out := make([]byte, 0, b.Len())
	for h := 0; h != none; h = b.chunks[h].next {
		c := &b.chunks[h]
		if c.left.live() {
			out = append(out, c.left.buf...)
		}
		if !c.contentTombstone {
			out = append(out, b.original[c.start:c.end]...)
		}
		if c.right.live() {
			out = append(out, c.right.buf...)
		}
	}
	return out
}

func (b *UpdateBuffer) String() string {
	return string(b.Generate())
}

// InsertLeft inserts content immediately before index. With assert set, the inserted content
// can no longer be removed.
func (b *UpdateBuffer) InsertLeft(index int, content []byte, assert bool) error {
	l, _, err := b.locate(index)
	if err != nil {
		return err
	}
	b.chunks[l].right.append(content, assert)
	return nil
}

// InsertRight inserts content immediately after index.
func (b *UpdateBuffer) InsertRight(index int, content []byte, assert bool) error {
	_, r, err := b.locate(index)
	if err != nil {
		return err
	}
	b.chunks[r].left.prepend(content, assert)
	return nil
}

// Remove drops the original content in [index, index+length) along with everything inserted
// strictly inside that range. Insertions sitting on the two edges of the range are kept.
func (b *UpdateBuffer) Remove(index, length int) error {
	if length < 0 {
		return b.outOfBound(index + length)
	}
	if err := b.checkIndex(index); err != nil {
		return err
	}
	if err := b.checkIndex(index + length); err != nil {
		return err
	}

	_, first, err := b.locate(index)
	if err != nil {
		return err
	}
	_, last, err := b.locate(index + length)
	if err != nil {
		return err
	}

	for h := first; h != last; h = b.chunks[h].next {
		c := &b.chunks[h]
		if h != first && c.left.protected() {
			return ErrContentCannotBeRemoved
		}
		if c.next != last && c.right.protected() {
			return ErrContentCannotBeRemoved
		}
	}

	for h := first; h != last; h = b.chunks[h].next {
		c := &b.chunks[h]
		c.contentTombstone = true
		if h != first {
			c.left = edge{tombstone: true}
		}
		if c.next != last {
			c.right = edge{tombstone: true}
		}
	}

	return nil
}

// checkIndex validates a logical offset, one that does not count a leading byte order mark.
func (b *UpdateBuffer) checkIndex(index int) error {
	if index < 0 || index > len(b.original)-b.offset {
		return b.outOfBound(index)
	}
	return nil
}

func (b *UpdateBuffer) outOfBound(index int) error {
	return &IndexOutOfBoundError{Index: index, Min: 0, Max: len(b.original) - b.offset}
}

// locate returns the chunks on both sides of the logical offset index.
func (b *UpdateBuffer) locate(index int) (int, int, error) {
	if err := b.checkIndex(index); err != nil {
		return none, none, err
	}
	return b.boundary(index + b.offset)
}

// boundary returns the chunk ending at the original offset index and the chunk starting at it,
// splitting a chunk when index falls inside it.
func (b *UpdateBuffer) boundary(index int) (int, int, error) {
	for h := 0; h != none; h = b.chunks[h].next {
		c := b.chunks[h]
		if index > c.end {
			continue
		}
		if index == c.end && c.next != none {
			return h, c.next, nil
		}
		return h, b.slice(h, index), nil
	}

	return none, none, b.outOfBound(index - b.offset)
}

// slice splits chunk h at the original offset at and returns the handle of the new right
// chunk. A removed chunk passes its content tombstone on to the right chunk. The two edges of
// the new boundary start out empty and live.
func (b *UpdateBuffer) slice(h, at int) int {
	c := b.chunks[h]

	n := chunk{
		start:            at,
		end:              c.end,
		right:            c.right,
		contentTombstone: c.contentTombstone,
		next:             c.next,
	}

	c.right = edge{}
	c.end = at
	c.next = len(b.chunks)
	b.chunks[h] = c
	b.chunks = append(b.chunks, n)

	return c.next
}
