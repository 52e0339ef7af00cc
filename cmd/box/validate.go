// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pharbox/box/internal/config"
	"github.com/pharbox/box/internal/issue"
	"github.com/pharbox/box/pkg/types"
)

// newValidateCommand creates the `box validate` command.
func newValidateCommand(app *App) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validates the configuration file",
		Long: `Validate the configuration file against the box.json schema.

Without arguments the configuration is discovered like 'box build' does:
box.json, then box.json.dist, box.yaml, box.yml and box.toml in the current
directory. Use -v to see why a file failed validation.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := configFile
			if len(args) > 0 {
				file = args[0]
			}
			return runValidate(cmd, app, file)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "alternative configuration file path")

	return cmd
}

func runValidate(cmd *cobra.Command, app *App, file string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if app.verbose {
		fmt.Fprintln(app.stdout, "Validating the Box configuration file...")
	}

	wd, err := os.Getwd()
	if err != nil {
		return app.fail(cmd, "validate configuration", issue.IO("getwd", ".", err))
	}
	path, err := config.Find(wd, file)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			fmt.Fprintln(app.stdout, ErrorStyle.Render("No configuration file could be found."))
			return &ExitError{Code: types.ExitFailure, Err: err}
		}
		return app.fail(cmd, "validate configuration", err)
	}

	if app.verbose {
		shown := path
		if rel, relErr := filepath.Rel(wd, path); relErr == nil {
			shown = rel
		}
		fmt.Fprintf(app.stdout, "Found: %s\n", shown)
	}

	doc, err := config.ReadDocument(path)
	if err == nil {
		err = config.ValidateDocument(path, doc)
	}
	if err != nil {
		fmt.Fprintln(app.stdout, ErrorStyle.Render("The configuration file failed validation."))
		if app.verbose {
			fmt.Fprintln(app.stderr, issue.ForBuildError("validate configuration", err).Format(true))
		}
		return &ExitError{Code: types.ExitFailure, Err: err}
	}

	fmt.Fprintln(app.stdout, SuccessStyle.Render("The configuration file passed validation."))
	return nil
}
