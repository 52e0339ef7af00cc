// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pharbox/box/internal/builder"
	"github.com/pharbox/box/internal/config"
)

// newBuildCommand creates the `box build` command.
func newBuildCommand(app *App) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Builds a new PHAR",
		Long: `Build a new PHAR archive from the box.json configuration.

The configuration file is box.json, or box.json.dist when box.json does not
exist, in the current directory. YAML (box.yaml, box.yml) and TOML (box.toml)
files are accepted as well. Scalar settings can be overridden with BOX_*
environment variables, for example BOX_OUTPUT=dist/app.phar.

Any existing archive at the output path is replaced. If the build fails no
archive is left behind.`,
		Example: `  # Build using box.json in the current directory
  box build

  # Build using another configuration file and show every step
  box build -c box.dist.json -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, app, configFile)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "alternative configuration file path")

	return cmd
}

func runBuild(cmd *cobra.Command, app *App, configFile string) error {
	ctx := cmd.Context()

	if !app.verbose {
		fmt.Fprint(app.stdout, "Building archive...")
	}

	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: configFile, Prompter: app.Prompter})
	if err != nil {
		endProgressLine(app)
		return app.fail(cmd, "load configuration", err)
	}

	res, err := app.Builder.Build(ctx, cfg, builder.RunOptions{Logger: app.newLogger()})
	if err != nil {
		endProgressLine(app)
		return app.fail(cmd, "build archive", err)
	}

	if app.verbose {
		fmt.Fprintf(app.stdout, "%s %s (%d files, %s)\n",
			SuccessStyle.Render("Done."), res.Path, res.Files, res.Elapsed.Round(time.Millisecond))
		return nil
	}
	if res.Files == 0 {
		fmt.Fprintln(app.stdout, " no files found.")
		return nil
	}
	fmt.Fprintln(app.stdout, " done.")
	return nil
}

// endProgressLine terminates the "Building archive..." line before an error
// is printed.
func endProgressLine(app *App) {
	if !app.verbose {
		fmt.Fprintln(app.stdout)
	}
}
