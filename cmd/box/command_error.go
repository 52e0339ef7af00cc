// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/pharbox/box/internal/issue"
)

// commandError is a command failure ready to be shown to the user. In verbose
// mode it also carries the catalog entry documenting the error's kind.
type commandError struct {
	err     *issue.ActionableError
	entry   *issue.Issue
	verbose bool
}

// newCommandError wraps err, which must not be nil, for display.
func newCommandError(operation string, err error, verbose bool) *commandError {
	if err == nil {
		panic("commandError: err must not be nil")
	}
	ce := &commandError{err: issue.ForBuildError(operation, err), verbose: verbose}
	if verbose {
		ce.entry = issue.ForKind(issue.KindOf(err))
	}
	return ce
}

func (e *commandError) Error() string { return e.err.Error() }

func (e *commandError) Unwrap() error { return e.err }

// render writes the styled message, then the catalog entry if there is one.
func (e *commandError) render(w io.Writer) {
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+e.err.Format(e.verbose))
	if e.entry == nil {
		return
	}
	rendered, err := e.entry.Render("dark")
	if err != nil {
		log.Warn("failed to render issue catalog entry", "issue", e.entry.Id(), "error", err)
		return
	}
	fmt.Fprint(w, rendered)
}
