// Package tasks provides the executors the CLI registers for scheduled tasks.
package tasks

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/speakeasy-api/scaffold/internal/charm/styles"
	"github.com/speakeasy-api/scaffold/internal/engine"
	"github.com/speakeasy-api/scaffold/internal/log"
	"github.com/speakeasy-api/scaffold/internal/scheduler"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	Command = "command"
	Print   = "print"
)

// CommandOptions runs a program inside the output directory.
type CommandOptions struct {
	Run []string `yaml:"run"`
	Dir string   `yaml:"dir,omitempty"`
	Env []string `yaml:"env,omitempty"`
}

type PrintOptions struct {
	Message string `yaml:"message"`
}

// Register adds every executor of this package to e. Commands run relative to dir.
func Register(e *engine.Engine, dir string) {
	e.Register(Command, func(context.Context) (engine.Executor, error) {
		return commandExecutor(dir), nil
	})
	e.Register(Print, func(context.Context) (engine.Executor, error) {
		return printExecutor, nil
	})
}

// DecodeOptions converts the loosely typed options of a task into out.
func DecodeOptions(options any, out any) error {
	if options == nil {
		return nil
	}
	data, err := yaml.Marshal(options)
	if err != nil {
		return errors.Wrap(err, "failed to encode task options")
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "failed to decode task options")
	}
	return nil
}

func commandExecutor(root string) engine.Executor {
	return func(ctx context.Context, task scheduler.TaskInfo) error {
		var opts CommandOptions
		if err := DecodeOptions(task.Configuration.Options, &opts); err != nil {
			return err
		}
		if len(opts.Run) == 0 {
			return errors.New("command task requires a non-empty run list")
		}

		dir := root
		if opts.Dir != "" {
			dir = filepath.Join(root, filepath.FromSlash(opts.Dir))
		}

		l := log.From(ctx)
		l.Info("Running command", zap.String("command", strings.Join(opts.Run, " ")), zap.String("dir", dir))

		cmd := exec.CommandContext(ctx, opts.Run[0], opts.Run[1:]...)
		cmd.Dir = dir
		cmd.Env = append(cmd.Environ(), opts.Env...)

		var output bytes.Buffer
		cmd.Stdout = &output
		cmd.Stderr = &output
		if err := cmd.Run(); err != nil {
			return errors.Wrapf(err, "command %q failed: %s", opts.Run[0], strings.TrimSpace(output.String()))
		}

		if out := strings.TrimSpace(output.String()); out != "" {
			l.PrintfStyled(styles.Dimmed, "%s\n", out)
		}
		return nil
	}
}

func printExecutor(ctx context.Context, task scheduler.TaskInfo) error {
	var opts PrintOptions
	if err := DecodeOptions(task.Configuration.Options, &opts); err != nil {
		return err
	}
	log.From(ctx).Println(opts.Message)
	return nil
}
