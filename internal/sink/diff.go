package sink

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// FileDiff is the unified diff of one file between two versions.
type FileDiff struct {
	Path     string
	DiffText string
	Stats    DiffStats
}

// DiffStats contains statistics about a diff
type DiffStats struct {
	Added   int
	Removed int
}

// ComputeFileDiff generates a unified diff between the previous and the new content of path.
func ComputeFileDiff(path string, before, after []byte) FileDiff {
	fd := FileDiff{Path: path}

	if isBinary(before) || isBinary(after) {
		fd.DiffText = "(binary file)"
		return fd
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(normalizeLineEndings(string(before))),
		B:        difflib.SplitLines(normalizeLineEndings(string(after))),
		FromFile: "a" + path,
		ToFile:   "b" + path,
		Context:  3,
	}

	diffText, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		fd.DiffText = "(diff computation failed)"
		return fd
	}

	fd.DiffText = diffText
	fd.Stats = countDiffStats(diffText)
	return fd
}

// isBinary returns true if the content appears to be binary (contains null bytes).
func isBinary(content []byte) bool {
	checkLen := min(len(content), 512)
	for i := 0; i < checkLen; i++ {
		if content[i] == 0 {
			return true
		}
	}
	return false
}

// normalizeLineEndings converts all line endings to LF.
func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

// countDiffStats counts added and removed lines in a unified diff.
func countDiffStats(diffText string) DiffStats {
	var stats DiffStats
	for _, line := range strings.Split(diffText, "\n") {
		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
			stats.Added++
		} else if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---") {
			stats.Removed++
		}
	}
	return stats
}
