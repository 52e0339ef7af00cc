// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pharbox/box/internal/issue"
	"github.com/pharbox/box/internal/phar"
)

// newExtractCommand creates the `box extract` command.
func newExtractCommand(app *App) *cobra.Command {
	var (
		out   string
		picks []string
	)

	cmd := &cobra.Command{
		Use:   "extract <phar>",
		Short: "Extracts files from a PHAR",
		Long: `Extract the files of a PHAR archive.

Files are written to <phar>-contents unless --out is given. Use --pick to
extract only some files or directories.`,
		Example: `  box extract app.phar
  box extract app.phar -o src -p lib/ -p bin/run.php`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			if app.verbose {
				fmt.Fprintln(app.stdout, "Extracting files from the PHAR...")
			}

			r, err := openArchive(file)
			if err != nil {
				return app.fail(cmd, "extract archive", err)
			}
			if out == "" {
				out = file + "-contents"
			}
			n, err := r.ExtractTo(out, picks...)
			if err != nil {
				return app.fail(cmd, "extract archive", issue.IO("extract", out, err))
			}

			if app.verbose {
				fmt.Fprintf(app.stdout, "%s %d files extracted to %s\n", SuccessStyle.Render("Done."), n, out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "the alternative output directory (default: <phar>-contents)")
	cmd.Flags().StringArrayVarP(&picks, "pick", "p", nil, "the file or directory to cherry pick")

	return cmd
}

// openArchive opens the archive at file, reporting a missing file the way
// every inspection command does.
func openArchive(file string) (*phar.Reader, error) {
	if info, err := os.Stat(file); err != nil || info.IsDir() {
		return nil, &issue.BuildError{
			Kind:    issue.KindFile,
			Path:    file,
			Message: fmt.Sprintf("The path %q is not a file or does not exist.", file),
		}
	}
	r, err := phar.Open(file)
	if err != nil {
		return nil, issue.IO("read", file, err)
	}
	return r, nil
}
