package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-githubactions"
	"github.com/speakeasy-api/scaffold/internal/action"
	"github.com/speakeasy-api/scaffold/internal/charm/styles"
	"github.com/speakeasy-api/scaffold/internal/config"
	"github.com/speakeasy-api/scaffold/internal/engine"
	"github.com/speakeasy-api/scaffold/internal/env"
	"github.com/speakeasy-api/scaffold/internal/host"
	"github.com/speakeasy-api/scaffold/internal/interactivity"
	"github.com/speakeasy-api/scaffold/internal/log"
	"github.com/speakeasy-api/scaffold/internal/model"
	"github.com/speakeasy-api/scaffold/internal/model/flag"
	"github.com/speakeasy-api/scaffold/internal/plan"
	"github.com/speakeasy-api/scaffold/internal/sink"
	"github.com/speakeasy-api/scaffold/internal/tasks"
	"github.com/speakeasy-api/scaffold/internal/tree"
	"github.com/speakeasy-api/scaffold/internal/utils"
	"go.uber.org/zap"
)

type applyFlags struct {
	Plan     string   `json:"plan"`
	Dir      string   `json:"dir"`
	DryRun   bool     `json:"dry-run"`
	Optimize string   `json:"optimize"`
	Strategy string   `json:"strategy"`
	Revision string   `json:"revision"`
	Ignore   []string `json:"ignore"`
	Yes      bool     `json:"yes"`
}

var errAborted = errors.New("aborted, nothing was written")

var planFlag = flag.StringFlag{
	Name:                       "plan",
	Shorthand:                  "p",
	Description:                "path to the plan file",
	Required:                   true,
	AutocompleteFileExtensions: []string{"yaml", "yml"},
}

var optimizeFlag = flag.EnumFlag{
	Name:          "optimize",
	Description:   "collapse redundant actions before committing, overrides the plan and config",
	AllowedValues: []string{"true", "false"},
}

var strategyFlag = flag.EnumFlag{
	Name:          "strategy",
	Shorthand:     "s",
	Description:   "merge strategy for branches, overrides the plan and config",
	AllowedValues: tree.StrategyNames,
}

var applyCmd = &model.ExecutableCommand[applyFlags]{
	Usage: "apply",
	Short: "Apply a plan to a directory",
	Long: `Runs every step of the plan against a staged view of the directory, validates the resulting
actions and writes them. Tasks of the plan run after the write succeeded.

With --revision, the staged view starts from a git revision of the directory instead of its
working copy. Writes always go to the working copy.`,
	Run: runApply,
	Flags: []flag.Flag{
		planFlag,
		flag.StringFlag{
			Name:         "dir",
			Shorthand:    "d",
			Description:  "the directory to apply the plan to",
			DefaultValue: ".",
		},
		flag.BooleanFlag{
			Name:        "dry-run",
			Description: "report the actions and diffs without writing anything or running tasks",
		},
		optimizeFlag,
		strategyFlag,
		flag.StringFlag{
			Name:        "revision",
			Shorthand:   "r",
			Description: "stage edits on top of this git revision of the directory",
		},
		flag.StringSliceFlag{
			Name:        "ignore",
			Description: "file or directory names in the directory to leave out of the staged view",
		},
		flag.BooleanFlag{
			Name:        "yes",
			Shorthand:   "y",
			Description: "write without asking for confirmation in interactive terminals",
		},
	},
}

func runApply(ctx context.Context, flags applyFlags, _ []string) error {
	logger := log.From(ctx)

	p, err := loadPlan(flags.Plan, cliVersion)
	if err != nil {
		return err
	}

	disk, err := host.NewDisk(utils.SanitizeFilePath(flags.Dir), host.WithIgnore(flags.Ignore...))
	if err != nil {
		return err
	}

	var source tree.Host = disk
	if flags.Revision != "" {
		g, err := host.NewGit(disk.Root(), flags.Revision)
		if err != nil {
			return err
		}
		logger.Info("Staging on git revision", zap.String("revision", flags.Revision), zap.String("commit", g.Commit()))
		source = g
	}

	rules, err := planRules(p, flags.Strategy)
	if err != nil {
		return err
	}

	optimize, err := resolveOptimize(p, flags.Optimize)
	if err != nil {
		return err
	}

	var target sink.Sink
	if flags.DryRun {
		target = sink.NewDryRun(source, stdout, sink.WithDiffs(config.GetShowDiffs()))
	} else {
		var opts []sink.HostOption
		if config.GetSinkLock() && !env.IsConcurrencyLockDisabled() {
			opts = append(opts, sink.WithLock(disk.Root(), config.GetLockRetryDelay(), config.GetLockTimeout()))
		}
		target = sink.NewHost(disk, opts...)

		if !flags.Yes && utils.IsInteractive() {
			target = confirmBefore(sink.NewDryRun(source, stdout, sink.WithDiffs(config.GetShowDiffs())), target)
		}
	}

	e := engine.New(
		engine.WithSink(target),
		engine.WithOptimize(optimize),
		engine.WithSkipTasks(flags.DryRun),
	)
	tasks.Register(e, disk.Root())

	res, err := e.Run(ctx, source, rules...)
	if err != nil {
		return err
	}

	if flags.DryRun {
		if len(res.Tasks) > 0 {
			logger.PrintfStyled(styles.DimmedItalic, "Skipped %d tasks\n", len(res.Tasks))
		}
		return nil
	}

	summary := fmt.Sprintf("%d actions, %d tasks", len(res.Actions), len(res.Tasks))
	logger.Println(styles.RenderSuccessMessage(fmt.Sprintf("applied %s to %s", flags.Plan, disk.Root()), summary))
	if env.IsGithubAction() {
		githubactions.AddStepSummary(fmt.Sprintf("# scaffold apply\n\nApplied `%s` to `%s`: %s\n", flags.Plan, disk.Root(), summary))
	}
	return nil
}

// confirmBefore shows the preview of a commit and only forwards it to next once the user agrees.
func confirmBefore(preview sink.Sink, next sink.Sink) sink.Sink {
	return sink.Func(func(ctx context.Context, actions []action.Action) error {
		if len(actions) == 0 {
			return next.Commit(ctx, actions)
		}
		if err := preview.Commit(ctx, actions); err != nil {
			return err
		}

		ok, err := interactivity.Confirm(fmt.Sprintf("Apply %d actions?", len(actions)), "Tasks of the plan run afterwards.")
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
		return next.Commit(ctx, actions)
	})
}

func loadPlan(path, version string) (*plan.Plan, error) {
	p, err := plan.Load(utils.SanitizeFilePath(path))
	if err != nil {
		return nil, err
	}
	if err := p.CheckVersion(version); err != nil {
		return nil, err
	}
	return p, nil
}

// planRules resolves the merge strategy of p: the flag wins over the plan, the plan over the
// config file.
func planRules(p *plan.Plan, strategyFlag string) ([]engine.Rule, error) {
	if strategyFlag != "" {
		p.Strategy = strategyFlag
	}

	defaultStrategy, err := config.GetMergeStrategy()
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s in config", config.MergeStrategyKey)
	}
	return p.Rules(defaultStrategy)
}

func resolveOptimize(p *plan.Plan, optimizeFlag string) (bool, error) {
	if optimizeFlag == "" {
		return p.OptimizeOr(config.GetOptimize()), nil
	}
	return strconv.ParseBool(optimizeFlag)
}
