package tree

import (
	"fmt"

	"github.com/speakeasy-api/scaffold/internal/action"
	"github.com/speakeasy-api/speakeasy-core/errors"
)

const (
	ErrFileAlreadyExists = errors.Error("file already exists")
	ErrFileDoesNotExist  = errors.Error("file does not exist")
	ErrPathIsDirectory   = errors.Error("path is a directory")
	ErrPathIsFile        = errors.Error("path is a file")
	ErrInvalidPath       = errors.Error("invalid path")
	ErrMergeConflict     = errors.Error("merge conflict")
	ErrContentHasMutated = errors.Error("content has mutated")
	ErrRecorderConsumed  = errors.Error("update recorder already committed")
)

// PathError records the operation and path that caused a structural failure.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func (e *PathError) ErrorPath() string {
	return e.Path
}

// MergeConflictError is returned by Merge when an incoming action collides with a staged change
// the strategy does not tolerate.
type MergeConflictError struct {
	Path string
	Kind action.Kind
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("merge conflict on %s (%s)", e.Path, e.Kind)
}

func (e *MergeConflictError) Unwrap() error {
	return ErrMergeConflict
}

func (e *MergeConflictError) ErrorPath() string {
	return e.Path
}
