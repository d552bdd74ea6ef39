package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/speakeasy-api/scaffold/internal/charm/styles"
	"github.com/speakeasy-api/scaffold/internal/config"
	"github.com/speakeasy-api/scaffold/internal/log"
	"github.com/speakeasy-api/scaffold/internal/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "scaffold",
	Short: "Stage, merge and commit file tree edits described by a plan",
	Long: `scaffold applies a plan of file edits to a directory through a staged tree:
	- Edits are recorded against a copy-on-write view of the directory and never touch it directly
	- Branches of edits are merged back under a configurable merge strategy
	- The resulting actions are validated and committed in one go, or reported with --dry-run
	- Tasks declared by the plan run once the edits are committed
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var (
	l           = log.New().WithLevel(log.LevelInfo)
	cliVersion  = "0.0.0"
	initialized bool
)

func init() {
	// We want our commands to be sorted in defined order, not alphabetically
	cobra.EnableCommandSorting = false
	if err := config.Load(); err != nil {
		l.Error("", zap.Error(err))
		os.Exit(1)
	}
}

func Init(version, artifactArch string) {
	if initialized {
		return
	}
	initialized = true

	rootCmd.PersistentFlags().String("logLevel", string(log.LevelInfo), fmt.Sprintf("the log level (available options: [%s])", strings.Join(log.Levels, ", ")))

	addCommand(rootCmd, applyCmd)
	addCommand(rootCmd, actionsCmd)
	addCommand(rootCmd, validateCmd)
	addCommand(rootCmd, configCmd)
}

func addCommand(cmd *cobra.Command, command model.Command) {
	c, err := command.Init()
	if err != nil {
		l.Error("", zap.Error(err))
		os.Exit(1)
	}
	cmd.AddCommand(c)
}

func CmdForTest(version, artifactArch string) *cobra.Command {
	setupRootCmd(version, artifactArch)

	return rootCmd
}

func Execute(version, artifactArch string) {
	setupRootCmd(version, artifactArch)

	if err := rootCmd.Execute(); err != nil {
		l.Error("", zap.Error(err))
		l.WithInteractiveOnly().PrintfStyled(styles.DimmedItalic, "Run '%s --help' for usage.\n", rootCmd.CommandPath())
		os.Exit(1)
	}
}

func setupRootCmd(version, artifactArch string) {
	cliVersion = version
	rootCmd.Version = version + "\n" + artifactArch
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setLogLevel(cmd)
	}

	Init(version, artifactArch)
}

func GetRootCommand() *cobra.Command {
	return rootCmd
}

func setLogLevel(cmd *cobra.Command) error {
	logLevel, err := cmd.Flags().GetString("logLevel")
	if err != nil {
		return err
	}
	if !slices.Contains(log.Levels, logLevel) {
		return fmt.Errorf("log level must be one of: %s", strings.Join(log.Levels, ", "))
	}

	l = l.WithLevel(log.Level(logLevel))
	ctx := log.With(cmd.Context(), l)
	cmd.SetContext(ctx)

	return nil
}
