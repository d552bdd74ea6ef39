package action

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Log is an append-only, ordered journal of actions. Each log stamps its own ids; an action's
// parent is the id of the action recorded right before it in the same log.
type Log struct {
	actions []Action
	lastID  uint64
}

func NewLog() *Log {
	return &Log{}
}

// Push appends a copy of a with a fresh id and parent.
func (l *Log) Push(a Action) Action {
	a.Parent = 0
	if n := len(l.actions); n > 0 {
		a.Parent = l.actions[n-1].ID
	}
	l.lastID++
	a.ID = l.lastID
	l.actions = append(l.actions, a)

	return a
}

func (l *Log) Create(path string, content []byte) Action {
	return l.Push(Action{Kind: KindCreate, Path: path, Content: content})
}

func (l *Log) Overwrite(path string, content []byte) Action {
	return l.Push(Action{Kind: KindOverwrite, Path: path, Content: content})
}

func (l *Log) Rename(path, to string) Action {
	return l.Push(Action{Kind: KindRename, Path: path, To: to})
}

func (l *Log) Delete(path string) Action {
	return l.Push(Action{Kind: KindDelete, Path: path})
}

// Actions returns the recorded actions in order. The returned slice is a copy.
func (l *Log) Actions() []Action {
	return slices.Clone(l.actions)
}

func (l *Log) Len() int {
	return len(l.actions)
}

// Clone returns an independent log with the same actions and id sequence.
func (l *Log) Clone() *Log {
	return &Log{
		actions: slices.Clone(l.actions),
		lastID:  l.lastID,
	}
}

// Optimize rewrites the log into an equivalent sequence with at most one action per path:
// every delete first, then renames, then creates, then overwrites. Ids keep increasing from
// where the log left off.
func (l *Log) Optimize() {
	toCreate := orderedmap.New[string, []byte]()
	toOverwrite := orderedmap.New[string, []byte]()
	toRename := orderedmap.New[string, string]()
	toDelete := orderedmap.New[string, struct{}]()

	for _, a := range l.actions {
		switch a.Kind {
		case KindCreate:
			toCreate.Set(a.Path, a.Content)
		case KindOverwrite:
			if _, ok := toCreate.Get(a.Path); ok {
				toCreate.Set(a.Path, a.Content)
			} else {
				toOverwrite.Set(a.Path, a.Content)
			}
		case KindDelete:
			if _, ok := toCreate.Delete(a.Path); ok {
				// created in this log, nothing left to delete
				continue
			}
			toOverwrite.Delete(a.Path)
			if from, ok := renameSource(toRename, a.Path); ok {
				toRename.Delete(from)
				toDelete.Set(from, struct{}{})
				continue
			}
			toDelete.Set(a.Path, struct{}{})
		case KindRename:
			if content, ok := toCreate.Delete(a.Path); ok {
				toCreate.Set(a.To, content)
				continue
			}
			if content, ok := toOverwrite.Delete(a.Path); ok {
				toOverwrite.Set(a.To, content)
			}
			if from, ok := renameSource(toRename, a.Path); ok {
				toRename.Set(from, a.To)
			} else {
				toRename.Set(a.Path, a.To)
			}
		}
	}

	l.actions = nil
	for p := toDelete.Oldest(); p != nil; p = p.Next() {
		l.Delete(p.Key)
	}
	for p := toRename.Oldest(); p != nil; p = p.Next() {
		if p.Key == p.Value {
			continue
		}
		l.Rename(p.Key, p.Value)
	}
	for p := toCreate.Oldest(); p != nil; p = p.Next() {
		l.Create(p.Key, p.Value)
	}
	for p := toOverwrite.Oldest(); p != nil; p = p.Next() {
		l.Overwrite(p.Key, p.Value)
	}
}

// renameSource finds the pending rename that currently ends at path. This is a linear scan
// over every pending rename.
func renameSource(renames *orderedmap.OrderedMap[string, string], path string) (string, bool) {
	for p := renames.Oldest(); p != nil; p = p.Next() {
		if p.Value == path {
			return p.Key, true
		}
	}
	return "", false
}
