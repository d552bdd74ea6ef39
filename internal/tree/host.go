package tree

import (
	"path"
	"strings"
)

// Host is the read-only backing store a Tree resolves paths from when they are not staged.
// Paths are always normalized and rooted at "/".
type Host interface {
	Read(path string) ([]byte, error)
	Exists(path string) bool
	IsDirectory(path string) bool
	IsFile(path string) bool
	// List returns the names of the direct children of a directory.
	List(path string) ([]string, error)
}

// Normalize cleans p into a "/"-rooted path. Backslashes are treated as separators.
func Normalize(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", ErrInvalidPath
	}
	p = strings.ReplaceAll(p, "\\", "/")
	return path.Clean("/" + p), nil
}

func normalizeFile(op, p string) (string, error) {
	n, err := Normalize(p)
	if err != nil || n == "/" {
		return "", &PathError{Op: op, Path: p, Err: ErrInvalidPath}
	}
	return n, nil
}
