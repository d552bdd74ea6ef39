package updatebuffer

import (
	"fmt"

	"github.com/speakeasy-api/speakeasy-core/errors"
)

const (
	ErrIndexOutOfBound        = errors.Error("index out of bound")
	ErrContentCannotBeRemoved = errors.Error("content cannot be removed")
)

// IndexOutOfBoundError reports an offset outside of the original buffer.
type IndexOutOfBoundError struct {
	Index, Min, Max int
}

func (e *IndexOutOfBoundError) Error() string {
	return fmt.Sprintf("index %d outside of range [%d, %d]", e.Index, e.Min, e.Max)
}

func (e *IndexOutOfBoundError) Unwrap() error {
	return ErrIndexOutOfBound
}
