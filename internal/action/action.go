// Package action holds the journal of structural edits recorded against a tree.
package action

import (
	"fmt"

	"github.com/AlekSi/pointer"
	"github.com/samber/lo"
)

type Kind string

const (
	KindCreate    Kind = "c"
	KindOverwrite Kind = "o"
	KindRename    Kind = "r"
	KindDelete    Kind = "d"
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindOverwrite:
		return "overwrite"
	case KindRename:
		return "rename"
	case KindDelete:
		return "delete"
	default:
		return string(k)
	}
}

// Action is a single structural edit. Content is set for creates and overwrites, To for renames.
type Action struct {
	ID      uint64
	Parent  uint64
	Kind    Kind
	Path    string
	Content []byte
	To      string
}

func (a Action) String() string {
	switch a.Kind {
	case KindRename:
		return fmt.Sprintf("%s %s -> %s", a.Kind, a.Path, a.To)
	case KindCreate, KindOverwrite:
		return fmt.Sprintf("%s %s (%d bytes)", a.Kind, a.Path, len(a.Content))
	default:
		return fmt.Sprintf("%s %s", a.Kind, a.Path)
	}
}

// Record is the form of an action handed to sinks and printed by the CLI.
type Record struct {
	ID      uint64  `json:"id"`
	Parent  uint64  `json:"parent"`
	Kind    Kind    `json:"kind"`
	Path    string  `json:"path"`
	Content *string `json:"content,omitempty"`
	To      *string `json:"to,omitempty"`
}

func (a Action) Record() Record {
	r := Record{
		ID:     a.ID,
		Parent: a.Parent,
		Kind:   a.Kind,
		Path:   a.Path,
	}

	switch a.Kind {
	case KindCreate, KindOverwrite:
		r.Content = pointer.ToString(string(a.Content))
	case KindRename:
		r.To = pointer.ToString(a.To)
	}

	return r
}

func Records(actions []Action) []Record {
	return lo.Map(actions, func(a Action, _ int) Record {
		return a.Record()
	})
}
