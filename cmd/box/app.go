// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pharbox/box/internal/builder"
	"github.com/pharbox/box/internal/config"
	"github.com/pharbox/box/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: all Cobra command handlers receive an App reference and delegate
	// configuration loading and archive building through its service interfaces.
	App struct {
		Config   config.Provider
		Builder  BuildService
		Prompter config.Prompter
		stdin    io.Reader
		stdout   io.Writer
		stderr   io.Writer
		verbose  bool
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config   config.Provider
		Builder  BuildService
		Prompter config.Prompter
		Stdin    io.Reader
		Stdout   io.Writer
		Stderr   io.Writer
	}

	// BuildService builds the archive described by a resolved configuration.
	BuildService interface {
		Build(ctx context.Context, cfg *config.BuildConfig, opts builder.RunOptions) (*builder.Result, error)
	}

	runBuildService struct{}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Builder == nil {
		deps.Builder = runBuildService{}
	}
	if deps.Prompter == nil {
		deps.Prompter = newTerminalPrompter(deps.Stdin, deps.Stderr)
	}

	return &App{
		Config:   deps.Config,
		Builder:  deps.Builder,
		Prompter: deps.Prompter,
		stdin:    deps.Stdin,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
	}, nil
}

func (runBuildService) Build(ctx context.Context, cfg *config.BuildConfig, opts builder.RunOptions) (*builder.Result, error) {
	return builder.Run(ctx, cfg, opts)
}

// newLogger returns the progress logger. Without --verbose only warnings are
// shown; with it every step and every added file is logged.
func (a *App) newLogger() *log.Logger {
	level := log.WarnLevel
	if a.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Level:           level,
		Prefix:          "box",
		ReportTimestamp: false,
	})
}

// fail renders err for the user and returns the ExitError that ends the
// command with a failure status.
func (a *App) fail(cmd *cobra.Command, operation string, err error) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	ce := newCommandError(operation, err, a.verbose)
	ce.render(a.stderr)

	return &ExitError{Code: types.ExitFailure, Err: ce}
}
