package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/samber/lo"
	"github.com/speakeasy-api/scaffold/internal/action"
	"github.com/speakeasy-api/scaffold/internal/engine"
	"github.com/speakeasy-api/scaffold/internal/host"
	"github.com/speakeasy-api/scaffold/internal/model"
	"github.com/speakeasy-api/scaffold/internal/model/flag"
	"github.com/speakeasy-api/scaffold/internal/scheduler"
	"github.com/speakeasy-api/scaffold/internal/tree"
	"github.com/speakeasy-api/scaffold/internal/utils"
)

// stdout receives command output that is meant to be piped, as opposed to log lines.
var stdout io.Writer = os.Stdout

type actionsFlags struct {
	Plan     string `json:"plan"`
	Dir      string `json:"dir"`
	Optimize string `json:"optimize"`
	Strategy string `json:"strategy"`
}

type actionsOutput struct {
	Actions []action.Record `json:"actions"`
	Tasks   []taskOutput    `json:"tasks"`
}

type taskOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Rule     string `json:"rule"`
	Options  any    `json:"options,omitempty"`
}

var actionsCmd = &model.ExecutableCommand[actionsFlags]{
	Usage: "actions",
	Short: "Print the actions a plan produces as JSON",
	Long: `Runs the plan against a staged view of --dir, or of an empty tree when --dir is not set, and
prints the resulting actions and the tasks it schedules. Nothing is written and no task runs.`,
	Run: runActions,
	Flags: []flag.Flag{
		planFlag,
		flag.StringFlag{
			Name:        "dir",
			Shorthand:   "d",
			Description: "the directory the plan is staged on",
		},
		optimizeFlag,
		strategyFlag,
	},
}

func runActions(ctx context.Context, flags actionsFlags, _ []string) error {
	p, err := loadPlan(flags.Plan, cliVersion)
	if err != nil {
		return err
	}

	var source tree.Host
	if flags.Dir != "" {
		disk, err := host.NewDisk(utils.SanitizeFilePath(flags.Dir))
		if err != nil {
			return err
		}
		source = disk
	}

	rules, err := planRules(p, flags.Strategy)
	if err != nil {
		return err
	}
	optimize, err := resolveOptimize(p, flags.Optimize)
	if err != nil {
		return err
	}

	res, err := engine.New(engine.WithOptimize(optimize), engine.WithSkipTasks(true)).Run(ctx, source, rules...)
	if err != nil {
		return err
	}

	out := actionsOutput{
		Actions: action.Records(res.Actions),
		Tasks: lo.Map(res.Tasks, func(t scheduler.TaskInfo, _ int) taskOutput {
			return taskOutput{
				ID:       t.ID.String(),
				Name:     t.Configuration.Name,
				Priority: t.Priority,
				Rule:     t.Context.Rule,
				Options:  t.Configuration.Options,
			}
		}),
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
