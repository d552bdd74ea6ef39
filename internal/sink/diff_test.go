package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBinary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  []byte
		expected bool
	}{
		{name: "text content", content: []byte("hello world\nthis is text"), expected: false},
		{name: "binary with null byte", content: []byte("hello\x00world"), expected: true},
		{name: "empty content", content: []byte{}, expected: false},
		{name: "binary at start", content: []byte{0x00, 0x01, 0x02}, expected: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, isBinary(tc.content))
		})
	}
}

func TestNormalizeLineEndings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "LF unchanged", input: "hello\nworld", expected: "hello\nworld"},
		{name: "CRLF to LF", input: "hello\r\nworld", expected: "hello\nworld"},
		{name: "CR to LF", input: "hello\rworld", expected: "hello\nworld"},
		{name: "mixed endings", input: "line1\r\nline2\rline3\n", expected: "line1\nline2\nline3\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, normalizeLineEndings(tc.input))
		})
	}
}

func TestComputeFileDiff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		before   string
		after    string
		text     string
		expected DiffStats
	}{
		{
			name:     "modified line",
			before:   "package foo\n\nfunc Original() {}\n",
			after:    "package foo\n\nfunc Modified() {}\n",
			expected: DiffStats{Added: 1, Removed: 1},
		},
		{
			name:     "line endings only",
			before:   "a\r\nb\r\n",
			after:    "a\nb\n",
			expected: DiffStats{},
		},
		{
			name:     "binary",
			before:   "a\x00",
			after:    "b",
			text:     "(binary file)",
			expected: DiffStats{},
		},
		{
			name:     "new content",
			before:   "",
			after:    "one\ntwo\n",
			expected: DiffStats{Added: 2},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fd := ComputeFileDiff("/foo.go", []byte(tc.before), []byte(tc.after))
			assert.Equal(t, "/foo.go", fd.Path)
			assert.Equal(t, tc.expected, fd.Stats)
			if tc.text != "" {
				assert.Equal(t, tc.text, fd.DiffText)
			}
		})
	}

	fd := ComputeFileDiff("/foo.go", []byte("x\n"), []byte("y\n"))
	assert.Contains(t, fd.DiffText, "--- a/foo.go")
	assert.Contains(t, fd.DiffText, "+++ b/foo.go")
	assert.Contains(t, fd.DiffText, "-x")
	assert.Contains(t, fd.DiffText, "+y")
}
