package tree

import (
	"bytes"

	"github.com/speakeasy-api/scaffold/internal/action"
	"go.uber.org/zap"
)

// Merge replays the journal of other onto t, checking every action against the changes t already
// carries. Actions other inherited from t when it was branched are already part of t and are
// skipped rather than replayed with a forced overwrite. The branch's own actions are checked
// under strategy against everything t has staged, including edits t made before or after the
// branch point. A conflict the strategy does not allow aborts the merge; actions applied before
// it stay applied.
func (t *Tree) Merge(other *Tree, strategy MergeStrategy) error {
	if other == nil || other == t {
		return nil
	}

	actions := other.journal.Actions()
	if inherited, ok := other.ancestry[t.id]; ok {
		actions = actions[min(inherited, len(actions)):]
	}
	if len(actions) == 0 {
		return nil
	}

	l := t.logger.With(zap.Uint64("from", other.id), zap.Uint64("into", t.id))
	l.Debug("merging tree", zap.Int("actions", len(actions)), zap.String("strategy", strategy.String()))

	for _, a := range actions {
		if err := t.mergeAction(a, strategy); err != nil {
			l.Debug("merge aborted", zap.Error(err))
			return err
		}
	}

	return nil
}

func (t *Tree) mergeAction(a action.Action, strategy MergeStrategy) error {
	switch a.Kind {
	case action.KindCreate:
		return t.mergeCreate(a, strategy)
	case action.KindOverwrite:
		return t.mergeOverwrite(a, strategy)
	case action.KindRename:
		return t.mergeRename(a)
	case action.KindDelete:
		return t.mergeDelete(a, strategy)
	}
	return nil
}

func (t *Tree) sameContent(p string, content []byte) bool {
	e := t.entry(p)
	if e == nil {
		return false
	}
	current, err := e.Content()
	return err == nil && bytes.Equal(current, content)
}

func (t *Tree) mergeCreate(a action.Action, strategy MergeStrategy) error {
	s := t.state
	if has(s.creates, a.Path) || has(s.overwrites, a.Path) || t.exists(a.Path) {
		if t.sameContent(a.Path, a.Content) {
			return nil
		}
		if !strategy.Allows(MergeAllowCreationConflict) {
			return &MergeConflictError{Path: a.Path, Kind: a.Kind}
		}
		return t.write(a.Path, a.Content)
	}
	return t.Create(a.Path, a.Content)
}

func (t *Tree) mergeOverwrite(a action.Action, strategy MergeStrategy) error {
	s := t.state
	allowed := strategy.Allows(MergeAllowOverwriteConflict)

	if has(s.deletes, a.Path) && !allowed {
		return &MergeConflictError{Path: a.Path, Kind: a.Kind}
	}
	if has(s.creates, a.Path) || has(s.overwrites, a.Path) {
		if t.sameContent(a.Path, a.Content) {
			return nil
		}
		if !allowed {
			return &MergeConflictError{Path: a.Path, Kind: a.Kind}
		}
	}
	return t.write(a.Path, a.Content)
}

func (t *Tree) mergeRename(a action.Action) error {
	s := t.state
	if has(s.deletes, a.Path) {
		return &MergeConflictError{Path: a.Path, Kind: a.Kind}
	}
	if to, ok := s.renames[a.Path]; ok {
		if to == a.To {
			return nil
		}
		return &MergeConflictError{Path: a.Path, Kind: a.Kind}
	}
	return t.Rename(a.Path, a.To)
}

func (t *Tree) mergeDelete(a action.Action, strategy MergeStrategy) error {
	if has(t.state.deletes, a.Path) {
		return nil
	}
	if !t.exists(a.Path) {
		if !strategy.Allows(MergeAllowDeleteConflict) {
			return &MergeConflictError{Path: a.Path, Kind: a.Kind}
		}
		return nil
	}
	return t.Delete(a.Path)
}

func (t *Tree) write(p string, content []byte) error {
	if t.exists(p) {
		return t.Overwrite(p, content)
	}
	return t.Create(p, content)
}
