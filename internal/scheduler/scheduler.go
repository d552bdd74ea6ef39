// Package scheduler orders deferred tasks so that every task runs after the tasks it depends on.
package scheduler

import (
	"container/heap"
	"fmt"

	"github.com/speakeasy-api/speakeasy-core/errors"
)

const ErrUnknownTaskDependency = errors.Error("unknown task dependency")

// ExecutionContext identifies the rule run a task was scheduled from.
type ExecutionContext struct {
	Rule  string
	RunID string
}

// TaskID is an opaque handle returned by Schedule. It is only meaningful to the scheduler that
// issued it.
type TaskID struct {
	owner *Scheduler
	id    uint64
}

func (t TaskID) String() string {
	return fmt.Sprintf("task#%d", t.id)
}

type TaskConfiguration struct {
	Name         string
	Dependencies []TaskID
	Options      any
}

type TaskInfo struct {
	ID            uint64
	Priority      int
	Configuration TaskConfiguration
	Context       ExecutionContext
}

type Scheduler struct {
	context ExecutionContext
	queue   taskQueue
	tasks   map[uint64]*TaskInfo
	lastID  uint64
}

func New(ctx ExecutionContext) *Scheduler {
	return &Scheduler{
		context: ctx,
		tasks:   map[uint64]*TaskInfo{},
	}
}

func (s *Scheduler) Context() ExecutionContext {
	return s.context
}

// Schedule queues a task. Its priority is 0 without dependencies, otherwise one more than the
// sum of the priorities of its dependencies.
func (s *Scheduler) Schedule(config TaskConfiguration) (TaskID, error) {
	priority := 0
	for _, dep := range config.Dependencies {
		info, ok := s.tasks[dep.id]
		if dep.owner != s || !ok {
			return TaskID{}, fmt.Errorf("%w: %s", ErrUnknownTaskDependency, dep)
		}
		priority += info.Priority
	}
	if len(config.Dependencies) > 0 {
		priority++
	}

	s.lastID++
	info := &TaskInfo{
		ID:            s.lastID,
		Priority:      priority,
		Configuration: config,
		Context:       s.context,
	}
	heap.Push(&s.queue, info)
	s.tasks[info.ID] = info

	return TaskID{owner: s, id: info.ID}, nil
}

func (s *Scheduler) Len() int {
	return s.queue.Len()
}

// Finalize drains the queue in priority order. The scheduler is empty afterwards and previously
// issued ids can no longer be used as dependencies.
func (s *Scheduler) Finalize() []TaskInfo {
	out := make([]TaskInfo, 0, s.queue.Len())
	for s.queue.Len() > 0 {
		out = append(out, *heap.Pop(&s.queue).(*TaskInfo))
	}
	s.tasks = map[uint64]*TaskInfo{}
	return out
}

// taskQueue is a min-heap ordered by priority, then by schedule order.
type taskQueue []*TaskInfo

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].Priority != q[j].Priority {
		return q[i].Priority < q[j].Priority
	}
	return q[i].ID < q[j].ID
}

func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue) Push(x any) {
	*q = append(*q, x.(*TaskInfo))
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
