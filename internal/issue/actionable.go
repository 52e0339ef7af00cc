// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// ActionableError is what the CLI shows for a failed command: the
	// operation that failed, the file involved, and hints for fixing it.
	//
	//	err := issue.NewErrorContext().
	//		WithOperation("load configuration").
	//		WithResource("./box.json").
	//		WithSuggestion("Create a box.json file in the project root").
	//		Wrap(originalErr).
	//		Build()
	ActionableError struct {
		// Operation is a verb phrase such as "build archive" or "extract archive".
		Operation string

		// Resource is the file the operation was working on (optional).
		Resource string

		// Kind is copied from the first BuildError in Cause, or 0.
		Kind Kind

		Suggestions []string

		Cause error
	}

	// ErrorContext incrementally collects the parts of an ActionableError.
	// A context may be reused; each Build returns an independent error.
	ErrorContext struct {
		operation   string
		resource    string
		suggestions []string
		cause       error
	}
)

// suggestionsByKind holds the hints attached by ForBuildError.
var suggestionsByKind = map[Kind][]string{
	KindConfig:     {"Run 'box validate -v' to check the configuration file"},
	KindFile:       {"Check that every path in files, directories and finder is relative to base-path"},
	KindCompaction: {"Fix the syntax error or exclude the file from compaction"},
	KindIO:         {"Check that the output directory exists and is writable"},
	KindSignature:  {"Check that the key is a PEM encoded RSA private key", "Check the key passphrase (key-pass)"},
}

// NewErrorContext creates an empty ErrorContext.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// ForBuildError wraps err with operation and the suggestions that fit the
// Kind of its BuildError. Other errors are wrapped with the operation only.
func ForBuildError(operation string, err error) *ActionableError {
	if err == nil {
		return nil
	}
	kind := KindOf(err)
	return NewErrorContext().
		WithOperation(operation).
		WithSuggestions(suggestionsByKind[kind]...).
		Wrap(err).
		Build()
}

// Error returns "failed to <operation>[: <resource>][: <cause>]".
func (e *ActionableError) Error() string {
	var msg strings.Builder

	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)
	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}
	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}

	return msg.String()
}

// Unwrap returns the cause for errors.Is and errors.As.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the error for the terminal:
//
//	failed to <operation>: <cause message>
//
//	  • <suggestion 1>
//	  • <suggestion 2>
//
// Verbose output adds the error kind and every error of the cause chain.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder

	msg.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n")
		for _, suggestion := range e.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(suggestion)
		}
	}

	if !verbose {
		return msg.String()
	}
	if e.Kind != 0 {
		fmt.Fprintf(&msg, "\n\nKind: %s", e.Kind)
	}
	if e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		for depth, err := range causeChain(e.Cause) {
			fmt.Fprintf(&msg, "\n  %d. %s", depth+1, err.Error())
		}
	}

	return msg.String()
}

// causeChain follows single-error Unwrap and the Cause of BuildErrors, whose
// multi-error Unwrap also yields the Kind sentinel.
func causeChain(err error) []error {
	var chain []error
	for err != nil {
		chain = append(chain, err)
		if be, ok := err.(*BuildError); ok {
			err = be.Cause
			continue
		}
		err = errors.Unwrap(err)
	}
	return chain
}

// WithOperation sets the operation being performed.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.operation = op
	return c
}

// WithResource sets the file involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// WithSuggestion appends one hint.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.suggestions = append(c.suggestions, sug)
	return c
}

// WithSuggestions appends several hints.
func (c *ErrorContext) WithSuggestions(sugs ...string) *ErrorContext {
	c.suggestions = append(c.suggestions, sugs...)
	return c
}

// Wrap sets the underlying cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.cause = err
	return c
}

// Build returns the ActionableError, or nil when no operation was set.
func (c *ErrorContext) Build() *ActionableError {
	if c.operation == "" {
		return nil
	}

	return &ActionableError{
		Operation:   c.operation,
		Resource:    c.resource,
		Kind:        KindOf(c.cause),
		Suggestions: append([]string(nil), c.suggestions...),
		Cause:       c.cause,
	}
}
