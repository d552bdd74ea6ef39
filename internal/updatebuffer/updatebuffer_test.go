package updatebuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateBuffer_Inserts(t *testing.T) {
	t.Parallel()

	type insert struct {
		left    bool
		index   int
		content string
	}

	tests := []struct {
		name     string
		original string
		inserts  []insert
		expected string
	}{
		{
			name:     "left and right at the same index",
			original: "0123456789",
			inserts:  []insert{{left: true, index: 5, content: "AB"}, {index: 5, content: "CD"}},
			expected: "01234ABCD56789",
		},
		{
			name:     "right then left at the same index",
			original: "0123456789",
			inserts:  []insert{{index: 5, content: "CD"}, {left: true, index: 5, content: "AB"}},
			expected: "01234ABCD56789",
		},
		{
			name:     "repeated left inserts stack towards the index",
			original: "0123",
			inserts:  []insert{{left: true, index: 2, content: "a"}, {left: true, index: 2, content: "b"}},
			expected: "01ab23",
		},
		{
			name:     "repeated right inserts stack towards the index",
			original: "0123",
			inserts:  []insert{{index: 2, content: "a"}, {index: 2, content: "b"}},
			expected: "01ba23",
		},
		{
			name:     "offsets stay in original coordinates",
			original: "0123456789",
			inserts:  []insert{{left: true, index: 2, content: "xxxx"}, {left: true, index: 8, content: "y"}},
			expected: "01xxxx234567y89",
		},
		{
			name:     "start and end of buffer",
			original: "abc",
			inserts:  []insert{{left: true, index: 0, content: "<"}, {index: 3, content: ">"}},
			expected: "<abc>",
		},
		{
			name:     "empty original",
			original: "",
			inserts:  []insert{{left: true, index: 0, content: "a"}, {index: 0, content: "b"}},
			expected: "ab",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := New([]byte(tc.original))
			for _, ins := range tc.inserts {
				if ins.left {
					require.NoError(t, b.InsertLeft(ins.index, []byte(ins.content), false))
				} else {
					require.NoError(t, b.InsertRight(ins.index, []byte(ins.content), false))
				}
			}

			assert.Equal(t, tc.expected, string(b.Generate()))
			assert.Equal(t, len(tc.expected), b.Len())
			assert.Equal(t, tc.original, string(b.Original()))
		})
	}
}

func TestUpdateBuffer_Remove(t *testing.T) {
	t.Parallel()

	b := New([]byte("0123456789"))
	require.NoError(t, b.Remove(2, 3))
	assert.Equal(t, "0156789", b.String())

	// offsets still address the original content
	require.NoError(t, b.Remove(7, 2))
	assert.Equal(t, "01569", b.String())

	require.NoError(t, b.InsertLeft(6, []byte("X"), false))
	assert.Equal(t, "015X69", b.String())
}

func TestUpdateBuffer_RemoveKeepsEdgeInsertions(t *testing.T) {
	t.Parallel()

	b := New([]byte("0123456789"))
	require.NoError(t, b.InsertLeft(3, []byte("["), false))
	require.NoError(t, b.InsertRight(3, []byte("("), false))
	require.NoError(t, b.InsertLeft(5, []byte("inner"), false))
	require.NoError(t, b.InsertLeft(7, []byte(")"), false))
	require.NoError(t, b.InsertRight(7, []byte("]"), false))

	require.NoError(t, b.Remove(3, 4))

	assert.Equal(t, "012[()]789", b.String())
}

func TestUpdateBuffer_InsertIntoRemovedRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		run      func(b *UpdateBuffer) error
		expected string
	}{
		{
			name: "insert left inside removed range",
			run: func(b *UpdateBuffer) error {
				if err := b.Remove(2, 4); err != nil {
					return err
				}
				return b.InsertLeft(4, []byte("X"), false)
			},
			expected: "01X6789",
		},
		{
			name: "insert right inside removed range",
			run: func(b *UpdateBuffer) error {
				if err := b.Remove(2, 6); err != nil {
					return err
				}
				return b.InsertRight(4, []byte("Y"), false)
			},
			expected: "01Y89",
		},
		{
			name: "insert after overlapping removes",
			run: func(b *UpdateBuffer) error {
				if err := b.Remove(3, 2); err != nil {
					return err
				}
				if err := b.Remove(0, 10); err != nil {
					return err
				}
				return b.InsertLeft(5, []byte("Y"), false)
			},
			expected: "Y",
		},
		{
			name: "removed insertion stays removed",
			run: func(b *UpdateBuffer) error {
				if err := b.InsertLeft(5, []byte("old"), false); err != nil {
					return err
				}
				if err := b.Remove(2, 6); err != nil {
					return err
				}
				return b.InsertLeft(5, []byte("new"), false)
			},
			expected: "01new89",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := New([]byte("0123456789"))
			require.NoError(t, tc.run(b))
			assert.Equal(t, tc.expected, b.String())
			assert.Equal(t, len(tc.expected), b.Len())
		})
	}
}

func TestUpdateBuffer_AssertedInsertIntoRemovedRange(t *testing.T) {
	t.Parallel()

	b := New([]byte("0123456789"))
	require.NoError(t, b.Remove(2, 6))
	require.NoError(t, b.InsertRight(4, []byte("kept"), true))
	assert.Equal(t, "01kept89", b.String())

	err := b.Remove(1, 8)
	require.ErrorIs(t, err, ErrContentCannotBeRemoved)
	assert.Equal(t, "01kept89", b.String())
}

func TestUpdateBuffer_RemoveAssertedContent(t *testing.T) {
	t.Parallel()

	b := New([]byte("0123456789"))
	require.NoError(t, b.InsertLeft(5, []byte("AB"), true))
	before := b.String()

	err := b.Remove(3, 4)
	require.ErrorIs(t, err, ErrContentCannotBeRemoved)
	assert.Equal(t, before, b.String())

	// the asserted insertion sits on the edge of this range and survives
	require.NoError(t, b.Remove(5, 2))
	assert.Equal(t, "01234AB789", b.String())
}

func TestUpdateBuffer_IndexOutOfBound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		run  func(b *UpdateBuffer) error
	}{
		{name: "negative insert", run: func(b *UpdateBuffer) error { return b.InsertLeft(-1, []byte("x"), false) }},
		{name: "insert past end", run: func(b *UpdateBuffer) error { return b.InsertRight(11, []byte("x"), false) }},
		{name: "remove past end", run: func(b *UpdateBuffer) error { return b.Remove(8, 5) }},
		{name: "negative length", run: func(b *UpdateBuffer) error { return b.Remove(4, -2) }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := New([]byte("0123456789"))
			err := tc.run(b)
			require.ErrorIs(t, err, ErrIndexOutOfBound)

			var boundErr *IndexOutOfBoundError
			require.ErrorAs(t, err, &boundErr)
			assert.Equal(t, 10, boundErr.Max)
			assert.Equal(t, "0123456789", b.String())
		})
	}
}

func TestUpdateBuffer_BOM(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bom      []byte
		expected int
	}{
		{name: "utf-8", bom: []byte{0xEF, 0xBB, 0xBF}, expected: 3},
		{name: "utf-16 le", bom: []byte{0xFF, 0xFE}, expected: 2},
		{name: "utf-16 be", bom: []byte{0xFE, 0xFF}, expected: 2},
		{name: "none", bom: nil, expected: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			original := append(append([]byte{}, tc.bom...), []byte("hello")...)
			b := NewBOM(original)
			assert.Equal(t, tc.expected, b.offset)

			require.NoError(t, b.InsertLeft(0, []byte(">"), false))
			require.NoError(t, b.Remove(4, 1))

			expected := append(append([]byte{}, tc.bom...), []byte(">hell")...)
			assert.Equal(t, expected, b.Generate())
		})
	}
}

func TestUpdateBuffer_BOMBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		run  func(b *UpdateBuffer) error
	}{
		{name: "insert left inside mark", run: func(b *UpdateBuffer) error { return b.InsertLeft(-2, []byte("X"), false) }},
		{name: "insert right inside mark", run: func(b *UpdateBuffer) error { return b.InsertRight(-1, []byte("X"), false) }},
		{name: "remove mark", run: func(b *UpdateBuffer) error { return b.Remove(-3, 3) }},
		{name: "remove across mark", run: func(b *UpdateBuffer) error { return b.Remove(-1, 2) }},
		{name: "insert past logical end", run: func(b *UpdateBuffer) error { return b.InsertLeft(4, []byte("X"), false) }},
		{name: "remove past logical end", run: func(b *UpdateBuffer) error { return b.Remove(2, 2) }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			original := []byte("\xEF\xBB\xBFabc")
			b := NewBOM(original)

			err := tc.run(b)
			require.ErrorIs(t, err, ErrIndexOutOfBound)

			var boundErr *IndexOutOfBoundError
			require.ErrorAs(t, err, &boundErr)
			assert.Equal(t, 3, boundErr.Max)
			assert.Equal(t, original, b.Generate())
		})
	}
}
