package plan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/speakeasy-api/scaffold/internal/engine"
	"github.com/speakeasy-api/scaffold/internal/host"
	"github.com/speakeasy-api/scaffold/internal/log"
	"github.com/speakeasy-api/scaffold/internal/scheduler"
	"github.com/speakeasy-api/scaffold/internal/tree"
	"github.com/speakeasy-api/scaffold/internal/updatebuffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlan = `
version: ">= 0.1"
strategy: content-only
steps:
  - create: /src/main.go
    content: "package main\n"
  - update: /README.md
    edits:
      - insertLeft: 0
        content: "# "
      - remove: 5
        length: 3
  - rename: /LICENSE
    to: /LICENSE.txt
  - branch:
      name: docs
      steps:
        - overwrite: /src/main.go
          content: "package app\n"
        - create: /docs/index.md
          content: docs
tasks:
  - id: install
    name: print
    options:
      message: install
  - name: print
    dependsOn: [install]
    options:
      message: build
`

func testContext() context.Context {
	return log.With(context.Background(), log.Discard())
}

func TestParse(t *testing.T) {
	t.Parallel()

	p, err := Parse([]byte(samplePlan))
	require.NoError(t, err)

	assert.Equal(t, ">= 0.1", p.Version)
	require.Len(t, p.Steps, 4)
	assert.Equal(t, "/src/main.go", *p.Steps[0].Create)
	require.NotNil(t, p.Steps[3].Branch)
	assert.Len(t, p.Steps[3].Branch.Steps, 2)
	require.Len(t, p.Tasks, 2)
	assert.Equal(t, []string{"install"}, p.Tasks[1].DependsOn)
	assert.True(t, p.OptimizeOr(true))
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		plan     string
		contains []string
	}{
		{
			name:     "unknown field",
			plan:     "steps:\n  - create: /a\n    contents: x\n",
			contains: []string{"contents"},
		},
		{
			name:     "no kind",
			plan:     "steps:\n  - content: x\n",
			contains: []string{"steps[0]: exactly one of"},
		},
		{
			name:     "two kinds",
			plan:     "steps:\n  - create: /a\n    delete: /b\n",
			contains: []string{"steps[0]: exactly one of"},
		},
		{
			name:     "rename without target",
			plan:     "steps:\n  - rename: /a\n",
			contains: []string{"steps[0]: rename requires to"},
		},
		{
			name:     "bad edit",
			plan:     "steps:\n  - update: /a\n    edits:\n      - remove: 1\n",
			contains: []string{"steps[0].edits[0]: remove requires a positive length"},
		},
		{
			name:     "nested branch",
			plan:     "steps:\n  - branch:\n      strategy: sometimes\n      steps:\n        - content: x\n",
			contains: []string{"steps[0].branch.strategy", "steps[0].branch.steps[0]"},
		},
		{
			name:     "every problem is reported",
			plan:     "version: nope\nstrategy: bogus\nsteps: []\ntasks:\n  - name: ''\n  - name: a\n    dependsOn: [later]\n",
			contains: []string{"version:", "strategy:", "tasks[0]: name is required", `tasks[1]: dependency "later"`},
		},
		{
			name:     "duplicate task id",
			plan:     "steps: []\ntasks:\n  - id: a\n    name: print\n  - id: a\n    name: print\n",
			contains: []string{`tasks[1]: duplicate id "a"`},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tc.plan))
			require.Error(t, err)
			for _, c := range tc.contains {
				assert.Contains(t, err.Error(), c)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePlan), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, p.Steps, 4)

	_, err = Load(filepath.Join(dir, "plan.json"))
	assert.ErrorContains(t, err, "must be a .yaml or .yml file")

	_, err = Load(filepath.Join(dir, "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlan_CheckVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		constraint string
		current    string
		wantErr    bool
	}{
		{constraint: "", current: "0.0.1"},
		{constraint: ">= 0.1", current: "0.2.0"},
		{constraint: ">= 0.1", current: "0.0.9", wantErr: true},
		{constraint: "~> 1.2", current: "1.2.7"},
		{constraint: ">= 0.1", current: "dev", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.constraint+" "+tc.current, func(t *testing.T) {
			t.Parallel()

			err := (&Plan{Version: tc.constraint}).CheckVersion(tc.current)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPlan_OptimizeOr(t *testing.T) {
	t.Parallel()

	off := false
	assert.False(t, (&Plan{Optimize: &off}).OptimizeOr(true))
	assert.True(t, (&Plan{}).OptimizeOr(true))
}

func TestPlan_Rules(t *testing.T) {
	t.Parallel()

	m, err := host.NewMemory(map[string][]byte{
		"/README.md": []byte("scaffold"),
		"/LICENSE":   []byte("MIT"),
	})
	require.NoError(t, err)

	p, err := Parse([]byte(samplePlan))
	require.NoError(t, err)

	rules, err := p.Rules(tree.MergeDefault)
	require.NoError(t, err)

	var messages []string
	e := engine.New(engine.WithExecutor("print", func(context.Context) (engine.Executor, error) {
		return func(_ context.Context, task scheduler.TaskInfo) error {
			opts := task.Configuration.Options.(map[string]any)
			messages = append(messages, opts["message"].(string))
			return nil
		}, nil
	}))

	res, err := e.Run(testContext(), m, rules...)
	require.NoError(t, err)

	readme, err := res.Tree.Read("/README.md")
	require.NoError(t, err)
	assert.Equal(t, "# scaff", string(readme))

	main, err := res.Tree.Read("/src/main.go")
	require.NoError(t, err)
	assert.Equal(t, "package app\n", string(main), "the plan strategy lets the branch overwrite")

	assert.True(t, res.Tree.Exists("/docs/index.md"))
	assert.True(t, res.Tree.Exists("/LICENSE.txt"))
	assert.False(t, res.Tree.Exists("/LICENSE"))

	assert.Equal(t, []string{"install", "build"}, messages)
	require.Len(t, res.Tasks, 2)
	assert.Equal(t, "tasks", res.Tasks[0].Context.Rule)
}

func TestPlan_RulesDefaultStrategyConflicts(t *testing.T) {
	t.Parallel()

	p, err := Parse([]byte(`
steps:
  - create: /a
    content: a
  - branch:
      steps:
        - overwrite: /a
          content: b
`))
	require.NoError(t, err)

	rules, err := p.Rules(tree.MergeDefault)
	require.NoError(t, err)
	_, err = engine.New().Run(testContext(), nil, rules...)
	assert.ErrorIs(t, err, tree.ErrMergeConflict)

	rules, err = p.Rules(tree.MergeOverwrite)
	require.NoError(t, err)
	res, err := engine.New().Run(testContext(), nil, rules...)
	require.NoError(t, err)
	content, err := res.Tree.Read("/a")
	require.NoError(t, err)
	assert.Equal(t, "b", string(content))
}

func TestPlan_UpdateErrors(t *testing.T) {
	t.Parallel()

	m, err := host.NewMemory(map[string][]byte{"/a": []byte("abc"), "/bom": []byte("\xEF\xBB\xBFabc")})
	require.NoError(t, err)

	tests := []struct {
		name string
		plan string
		err  error
	}{
		{
			name: "offset inside byte order mark",
			plan: "steps:\n  - update: /bom\n    edits:\n      - insertLeft: -1\n        content: x\n",
			err:  updatebuffer.ErrIndexOutOfBound,
		},
		{
			name: "missing file",
			plan: "steps:\n  - update: /missing\n    edits:\n      - insertLeft: 0\n        content: x\n",
			err:  tree.ErrFileDoesNotExist,
		},
		{
			name: "out of bounds",
			plan: "steps:\n  - update: /a\n    edits:\n      - insertRight: 10\n        content: x\n",
			err:  updatebuffer.ErrIndexOutOfBound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p, err := Parse([]byte(tc.plan))
			require.NoError(t, err)
			rules, err := p.Rules(tree.MergeDefault)
			require.NoError(t, err)

			_, err = engine.New().Run(testContext(), m, rules...)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestPlan_UpdateInsertsIntoRemovedRange(t *testing.T) {
	t.Parallel()

	m, err := host.NewMemory(map[string][]byte{"/a": []byte("0123456789")})
	require.NoError(t, err)

	p, err := Parse([]byte(`
steps:
  - update: /a
    edits:
      - remove: 2
        length: 4
      - insertLeft: 4
        content: X
`))
	require.NoError(t, err)
	rules, err := p.Rules(tree.MergeDefault)
	require.NoError(t, err)

	res, err := engine.New().Run(testContext(), m, rules...)
	require.NoError(t, err)

	content, err := res.Tree.Read("/a")
	require.NoError(t, err)
	assert.Equal(t, "01X6789", string(content))
}
