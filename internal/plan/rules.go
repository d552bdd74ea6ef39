package plan

import (
	"fmt"

	"github.com/AlekSi/pointer"
	"github.com/pkg/errors"
	"github.com/speakeasy-api/scaffold/internal/engine"
	"github.com/speakeasy-api/scaffold/internal/scheduler"
	"github.com/speakeasy-api/scaffold/internal/tree"
	"go.uber.org/zap"
)

// Rules converts the plan into engine rules. Branches without a strategy of their own merge
// with the plan's strategy, or defaultStrategy when the plan has none.
func (p *Plan) Rules(defaultStrategy tree.MergeStrategy) ([]engine.Rule, error) {
	strategy := defaultStrategy
	if p.Strategy != "" {
		s, err := tree.ParseMergeStrategy(p.Strategy)
		if err != nil {
			return nil, err
		}
		strategy = s
	}

	rules, err := stepRules(p.Steps, strategy)
	if err != nil {
		return nil, err
	}
	if len(p.Tasks) > 0 {
		rules = append(rules, engine.Named("tasks", p.scheduleTasks))
	}
	return rules, nil
}

func stepRules(steps []Step, strategy tree.MergeStrategy) ([]engine.Rule, error) {
	rules := make([]engine.Rule, 0, len(steps))
	for i, s := range steps {
		r, err := s.rule(strategy)
		if err != nil {
			return nil, errors.Wrapf(err, "step %d", i)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (s Step) rule(strategy tree.MergeStrategy) (engine.Rule, error) {
	switch {
	case s.Create != nil:
		p, content := pointer.GetString(s.Create), []byte(s.Content)
		return func(t *tree.Tree, _ *engine.Context) (*tree.Tree, error) {
			return t, t.Create(p, content)
		}, nil
	case s.Overwrite != nil:
		p, content := pointer.GetString(s.Overwrite), []byte(s.Content)
		return func(t *tree.Tree, _ *engine.Context) (*tree.Tree, error) {
			return t, t.Overwrite(p, content)
		}, nil
	case s.Rename != nil:
		from, to := pointer.GetString(s.Rename), s.To
		return func(t *tree.Tree, _ *engine.Context) (*tree.Tree, error) {
			return t, t.Rename(from, to)
		}, nil
	case s.Delete != nil:
		p := pointer.GetString(s.Delete)
		return func(t *tree.Tree, _ *engine.Context) (*tree.Tree, error) {
			return t, t.Delete(p)
		}, nil
	case s.Update != nil:
		p, edits := pointer.GetString(s.Update), s.Edits
		return func(t *tree.Tree, _ *engine.Context) (*tree.Tree, error) {
			return t, update(t, p, edits)
		}, nil
	case s.Branch != nil:
		branchStrategy := strategy
		if s.Branch.Strategy != "" {
			parsed, err := tree.ParseMergeStrategy(s.Branch.Strategy)
			if err != nil {
				return nil, err
			}
			branchStrategy = parsed
		}
		rules, err := stepRules(s.Branch.Steps, branchStrategy)
		if err != nil {
			return nil, err
		}

		name := s.Branch.Name
		if name == "" {
			name = "branch"
		}
		return engine.Named(name, engine.Branch(engine.Chain(rules...), branchStrategy)), nil
	}
	return nil, errors.New("empty step")
}

func update(t *tree.Tree, p string, edits []Edit) error {
	r, err := t.BeginUpdate(p)
	if err != nil {
		return err
	}

	for i, e := range edits {
		content := []byte(e.Content)

		switch {
		case e.InsertLeft != nil:
			err = r.InsertLeft(pointer.GetInt(e.InsertLeft), content, e.Assert)
		case e.InsertRight != nil:
			err = r.InsertRight(pointer.GetInt(e.InsertRight), content, e.Assert)
		case e.Remove != nil:
			err = r.Remove(pointer.GetInt(e.Remove), e.Length)
		}
		if err != nil {
			return errors.Wrapf(err, "edit %d of %s", i, p)
		}
	}

	return t.CommitUpdate(r)
}

func (p *Plan) scheduleTasks(t *tree.Tree, c *engine.Context) (*tree.Tree, error) {
	ids := map[string]scheduler.TaskID{}

	for _, task := range p.Tasks {
		deps := make([]scheduler.TaskID, 0, len(task.DependsOn))
		for _, dep := range task.DependsOn {
			id, ok := ids[dep]
			if !ok {
				return nil, fmt.Errorf("task %s: %w: %s", task.Name, scheduler.ErrUnknownTaskDependency, dep)
			}
			deps = append(deps, id)
		}

		id, err := c.AddTask(task.Name, task.Options, deps...)
		if err != nil {
			return nil, err
		}
		if task.ID != "" {
			ids[task.ID] = id
		}
		c.Logger().Debug("plan task", zap.String("name", task.Name), zap.String("id", task.ID))
	}

	return t, nil
}
