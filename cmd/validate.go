package cmd

import (
	"context"
	"fmt"

	"github.com/speakeasy-api/scaffold/internal/charm/styles"
	"github.com/speakeasy-api/scaffold/internal/log"
	"github.com/speakeasy-api/scaffold/internal/model"
	"github.com/speakeasy-api/scaffold/internal/model/flag"
)

type validateFlags struct {
	Plan string `json:"plan"`
}

var validateCmd = &model.ExecutableCommand[validateFlags]{
	Usage: "validate",
	Short: "Check a plan for errors without running it",
	Run:   runValidate,
	Flags: []flag.Flag{
		planFlag,
	},
}

func runValidate(ctx context.Context, flags validateFlags, _ []string) error {
	p, err := loadPlan(flags.Plan, cliVersion)
	if err != nil {
		return err
	}

	if _, err := planRules(p, ""); err != nil {
		return err
	}

	log.From(ctx).Println(styles.RenderSuccessMessage(
		fmt.Sprintf("%s is valid", flags.Plan),
		fmt.Sprintf("%d steps, %d tasks", len(p.Steps), len(p.Tasks)),
	))
	return nil
}
