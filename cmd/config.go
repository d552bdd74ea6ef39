package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/speakeasy-api/scaffold/internal/charm/styles"
	"github.com/speakeasy-api/scaffold/internal/config"
	"github.com/speakeasy-api/scaffold/internal/log"
	"github.com/speakeasy-api/scaffold/internal/model"
	"github.com/spf13/cobra"
)

var configCmd = &model.CommandGroup{
	Usage: "config",
	Short: "Read and change the settings in ~/.scaffold/config.yaml",
	Long: fmt.Sprintf(`Settings can also be provided through SCAFFOLD_ prefixed environment variables, e.g.
SCAFFOLD_MERGE_STRATEGY=overwrite. Available keys: %s`, strings.Join(config.Keys, ", ")),
	Commands: []model.Command{configListCmd, configSetCmd},
}

var configListCmd = &model.ExecutableCommand[struct{}]{
	Usage: "list",
	Short: "Print the effective value of every setting",
	Args:  cobra.NoArgs,
	Run: func(ctx context.Context, _ struct{}, _ []string) error {
		logger := log.From(ctx)
		for _, key := range config.Keys {
			logger.Printf("%s %s", styles.Emphasized.Render(key), config.Get(key))
		}
		return nil
	},
}

var configSetCmd = &model.ExecutableCommand[struct{}]{
	Usage: "set KEY VALUE",
	Short: "Persist a setting",
	Args:  cobra.ExactArgs(2),
	Run: func(ctx context.Context, _ struct{}, args []string) error {
		if err := config.Set(args[0], args[1]); err != nil {
			return err
		}
		log.From(ctx).Successf("Set %s to %s", strings.ToLower(args[0]), args[1])
		return nil
	},
}
