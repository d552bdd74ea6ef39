// Package engine runs rules against a tree, commits the resulting actions to a sink and then
// executes the tasks the rules scheduled.
package engine

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/speakeasy-api/scaffold/internal/action"
	"github.com/speakeasy-api/scaffold/internal/log"
	"github.com/speakeasy-api/scaffold/internal/scheduler"
	"github.com/speakeasy-api/scaffold/internal/sink"
	"github.com/speakeasy-api/scaffold/internal/tree"
	coreErrors "github.com/speakeasy-api/speakeasy-core/errors"
	"go.uber.org/zap"
)

const ErrUnregisteredTask = coreErrors.Error("unregistered task")

// Executor runs one task.
type Executor func(ctx context.Context, task scheduler.TaskInfo) error

// ExecutorFactory builds the executor for a task name. It is called at most once per run.
type ExecutorFactory func(ctx context.Context) (Executor, error)

type Engine struct {
	sink      sink.Sink
	optimize  bool
	skipTasks bool
	factories map[string]ExecutorFactory
}

type Option func(*Engine)

func WithSink(s sink.Sink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

func WithOptimize(optimize bool) Option {
	return func(e *Engine) {
		e.optimize = optimize
	}
}

// WithSkipTasks finalizes scheduled tasks into the result without executing them.
func WithSkipTasks(skip bool) Option {
	return func(e *Engine) {
		e.skipTasks = skip
	}
}

func WithExecutor(name string, factory ExecutorFactory) Option {
	return func(e *Engine) {
		e.Register(name, factory)
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		factories: map[string]ExecutorFactory{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register makes factory available under name. Names are matched in kebab case, so
// "runCommand" and "run-command" refer to the same executor.
func (e *Engine) Register(name string, factory ExecutorFactory) {
	e.factories[strcase.ToKebab(name)] = factory
}

type Result struct {
	Tree    *tree.Tree
	Actions []action.Action
	Tasks   []scheduler.TaskInfo
}

// Run builds a tree over host and applies rules in order. If every rule succeeds, the tree's
// actions are committed to the sink and the scheduled tasks are executed in priority order.
// Nothing is committed when a rule fails.
func (e *Engine) Run(ctx context.Context, host tree.Host, rules ...Rule) (*Result, error) {
	r := &run{
		id:        uuid.NewString(),
		engine:    e,
		logger:    log.From(ctx),
		executors: map[string]Executor{},
	}
	l := r.logger.With(zap.String("run", r.id))
	l.Debug("starting run", zap.Int("rules", len(rules)))

	t := tree.New(host, tree.WithLogger(l))
	out, err := Chain(rules...)(t, r.context(ctx, "root"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to run rules")
	}

	journal := out.Journal()
	if e.optimize {
		before := journal.Len()
		journal.Optimize()
		l.Debug("optimized actions", zap.Int("before", before), zap.Int("after", journal.Len()))
	}
	actions := journal.Actions()

	if e.sink != nil {
		if err := e.sink.Commit(ctx, actions); err != nil {
			return nil, errors.Wrap(err, "failed to commit actions")
		}
	}

	tasks := r.finalize()
	if e.skipTasks {
		l.Debug("skipping tasks", zap.Int("tasks", len(tasks)))
		return &Result{Tree: out, Actions: actions, Tasks: tasks}, nil
	}
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.execute(ctx, task); err != nil {
			return nil, errors.Wrapf(err, "task %s failed", task.Configuration.Name)
		}
	}

	return &Result{Tree: out, Actions: actions, Tasks: tasks}, nil
}

type run struct {
	id         string
	engine     *Engine
	logger     log.Logger
	schedulers []*scheduler.Scheduler
	executors  map[string]Executor
}

func (r *run) context(ctx context.Context, rule string) *Context {
	s := scheduler.New(scheduler.ExecutionContext{Rule: rule, RunID: r.id})
	r.schedulers = append(r.schedulers, s)

	return &Context{
		ctx:       ctx,
		logger:    r.logger.With(zap.String("rule", rule)),
		rule:      rule,
		scheduler: s,
		run:       r,
	}
}

// finalize drains every scheduler of the run. Equal priorities keep scheduler creation order,
// then schedule order.
func (r *run) finalize() []scheduler.TaskInfo {
	tasks := lo.FlatMap(r.schedulers, func(s *scheduler.Scheduler, _ int) []scheduler.TaskInfo {
		return s.Finalize()
	})
	slices.SortStableFunc(tasks, func(a, b scheduler.TaskInfo) int {
		return a.Priority - b.Priority
	})
	return tasks
}

func (r *run) executor(ctx context.Context, name string) (Executor, error) {
	name = strcase.ToKebab(name)
	if exec, ok := r.executors[name]; ok {
		return exec, nil
	}

	factory, ok := r.engine.factories[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnregisteredTask, "no executor for %q", name)
	}
	exec, err := factory(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create executor %q", name)
	}

	r.executors[name] = exec
	return exec, nil
}

func (r *run) execute(ctx context.Context, task scheduler.TaskInfo) error {
	exec, err := r.executor(ctx, task.Configuration.Name)
	if err != nil {
		return err
	}

	r.logger.Debug("executing task",
		zap.String("task", task.Configuration.Name),
		zap.Int("priority", task.Priority),
		zap.String("rule", task.Context.Rule),
	)
	return exec(ctx, task)
}
