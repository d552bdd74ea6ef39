package engine

import (
	"context"

	"github.com/speakeasy-api/scaffold/internal/log"
	"github.com/speakeasy-api/scaffold/internal/scheduler"
	"go.uber.org/zap"
)

// Context is handed to every rule. Each context owns the scheduler its tasks are queued on.
type Context struct {
	ctx       context.Context
	logger    log.Logger
	rule      string
	scheduler *scheduler.Scheduler
	run       *run
}

func (c *Context) Context() context.Context {
	return c.ctx
}

func (c *Context) Logger() log.Logger {
	return c.logger
}

func (c *Context) Rule() string {
	return c.rule
}

func (c *Context) RunID() string {
	return c.run.id
}

// AddTask queues a task to execute once the run's tree has been committed. Dependencies must
// come from this context.
func (c *Context) AddTask(name string, options any, dependencies ...scheduler.TaskID) (scheduler.TaskID, error) {
	id, err := c.scheduler.Schedule(scheduler.TaskConfiguration{
		Name:         name,
		Dependencies: dependencies,
		Options:      options,
	})
	if err != nil {
		return scheduler.TaskID{}, err
	}

	c.logger.Debug("scheduled task", zap.String("task", name), zap.Stringer("id", id))
	return id, nil
}

func (c *Context) child(name string) *Context {
	return c.run.context(c.ctx, name)
}
