package sink

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/speakeasy-api/scaffold/internal/action"
	"github.com/speakeasy-api/scaffold/internal/locks"
	"github.com/speakeasy-api/scaffold/internal/log"
	"go.uber.org/zap"
)

// Host applies actions to a writable host. Every action is validated before the first one is
// applied, so a commit that would fail part way is rejected up front.
type Host struct {
	writer Writer
	lock   *locks.DirMutex

	lockRetryDelay time.Duration
	lockTimeout    time.Duration
}

type HostOption func(*Host)

// WithLock holds the inter-process lock of dir while applying actions.
func WithLock(dir string, retryDelay, timeout time.Duration) HostOption {
	return func(h *Host) {
		h.lock = locks.ForDir(dir)
		h.lockRetryDelay = retryDelay
		h.lockTimeout = timeout
	}
}

func NewHost(w Writer, opts ...HostOption) *Host {
	h := &Host{writer: w}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Host) Commit(ctx context.Context, actions []action.Action) error {
	logger := log.From(ctx)

	if h.lock != nil {
		logger.Debug("acquiring lock", zap.String("path", h.lock.Path()))
		if err := h.lock.Lock(ctx, h.lockRetryDelay, h.lockTimeout); err != nil {
			return errors.Wrapf(err, "failed to lock %s", h.lock.Dir)
		}
		defer func() {
			if err := h.lock.Unlock(); err != nil {
				logger.Warn("failed to release lock", zap.Error(err))
			}
		}()
	}

	if err := h.Validate(actions); err != nil {
		return err
	}

	for _, a := range actions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.apply(a); err != nil {
			return errors.Wrapf(err, "failed to %s %s", a.Kind, a.Path)
		}
		logger.Debug("applied action", zap.Stringer("action", a))
	}

	logger.Infof("Applied %d actions", len(actions))
	return nil
}

// Validate replays actions against the current state of the writer and reports every action
// that could not be applied.
func (h *Host) Validate(actions []action.Action) error {
	live := map[string]bool{}
	exists := func(p string) bool {
		if v, ok := live[p]; ok {
			return v
		}
		return h.writer.IsFile(p)
	}

	var errs *multierror.Error
	for _, a := range actions {
		switch a.Kind {
		case action.KindCreate:
			if exists(a.Path) {
				errs = multierror.Append(errs, errors.Errorf("create %s: file already exists", a.Path))
			}
			live[a.Path] = true
		case action.KindOverwrite:
			if !exists(a.Path) {
				errs = multierror.Append(errs, errors.Errorf("overwrite %s: file does not exist", a.Path))
			}
			live[a.Path] = true
		case action.KindRename:
			if !exists(a.Path) {
				errs = multierror.Append(errs, errors.Errorf("rename %s: file does not exist", a.Path))
			}
			if exists(a.To) {
				errs = multierror.Append(errs, errors.Errorf("rename %s: %s already exists", a.Path, a.To))
			}
			live[a.Path] = false
			live[a.To] = true
		case action.KindDelete:
			if !exists(a.Path) {
				errs = multierror.Append(errs, errors.Errorf("delete %s: file does not exist", a.Path))
			}
			live[a.Path] = false
		default:
			errs = multierror.Append(errs, errors.Errorf("%s: unknown action kind %q", a.Path, a.Kind))
		}
	}

	return errs.ErrorOrNil()
}

func (h *Host) apply(a action.Action) error {
	switch a.Kind {
	case action.KindCreate, action.KindOverwrite:
		return h.writer.Write(a.Path, a.Content)
	case action.KindRename:
		return h.writer.Rename(a.Path, a.To)
	case action.KindDelete:
		return h.writer.Remove(a.Path)
	}
	return nil
}
