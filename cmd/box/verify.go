// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pharbox/box/pkg/types"
)

// newVerifyCommand creates the `box verify` command.
func newVerifyCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <phar>",
		Short: "Verifies the PHAR signature",
		Long: `Verify the signature of a PHAR archive.

Hash signatures are recomputed over the archive. OpenSSL signatures are
checked with the public key stored next to the archive as <phar>.pubkey.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true

			r, err := openArchive(args[0])
			if err != nil {
				return app.fail(cmd, "verify archive", err)
			}

			if err := r.Verify(); err != nil {
				fmt.Fprintln(app.stdout, ErrorStyle.Render("The PHAR failed verification."))
				if app.verbose {
					fmt.Fprintln(app.stderr, err.Error())
				}
				return &ExitError{Code: types.ExitFailure, Err: err}
			}

			fmt.Fprintln(app.stdout, SuccessStyle.Render("The PHAR passed verification."))
			if sig := r.Signature(); sig != nil && app.verbose {
				fmt.Fprintf(app.stdout, "%s %s\n%s %s\n",
					LabelStyle.Render("Signature:"), sig.HashType,
					LabelStyle.Render("Signature Hash:"), sig.Hash)
			}
			return nil
		},
	}
}
