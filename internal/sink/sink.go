// Package sink commits action journals to their destination.
package sink

import (
	"context"

	"github.com/speakeasy-api/scaffold/internal/action"
	"github.com/speakeasy-api/scaffold/internal/tree"
)

// Sink receives the final actions of a run.
type Sink interface {
	Commit(ctx context.Context, actions []action.Action) error
}

// Writer is a host that can also be written to.
type Writer interface {
	tree.Host
	Write(path string, content []byte) error
	Remove(path string) error
	Rename(from, to string) error
}

// Func adapts a function to a Sink.
type Func func(ctx context.Context, actions []action.Action) error

func (f Func) Commit(ctx context.Context, actions []action.Action) error {
	return f(ctx, actions)
}
