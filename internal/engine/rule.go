package engine

import (
	"github.com/speakeasy-api/scaffold/internal/tree"
	"go.uber.org/zap"
)

// Rule transforms a tree. Returning a nil tree keeps the input tree.
type Rule func(t *tree.Tree, c *Context) (*tree.Tree, error)

// Chain runs rules in order, each on the tree returned by the previous one. The last returned
// tree wins.
func Chain(rules ...Rule) Rule {
	return func(t *tree.Tree, c *Context) (*tree.Tree, error) {
		for _, rule := range rules {
			if err := c.ctx.Err(); err != nil {
				return nil, err
			}

			out, err := rule(t, c)
			if err != nil {
				return nil, err
			}
			if out != nil {
				t = out
			}
		}
		return t, nil
	}
}

// Branch runs rule on a branch of the input tree and merges the result back with strategy.
func Branch(rule Rule, strategy tree.MergeStrategy) Rule {
	return func(t *tree.Tree, c *Context) (*tree.Tree, error) {
		b := t.Branch()
		out, err := rule(b, c)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = b
		}

		c.logger.Debug("merging branch", zap.String("rule", c.rule), zap.String("strategy", strategy.String()))
		if err := t.Merge(out, strategy); err != nil {
			return nil, err
		}
		return t, nil
	}
}

// Named runs rule in a child context with its own name and task scheduler.
func Named(name string, rule Rule) Rule {
	return func(t *tree.Tree, c *Context) (*tree.Tree, error) {
		return rule(t, c.child(name))
	}
}

func Noop() Rule {
	return func(t *tree.Tree, _ *Context) (*tree.Tree, error) {
		return t, nil
	}
}
