// SPDX-License-Identifier: MPL-2.0

// Package issue provides the build error taxonomy and actionable error handling
// with user-friendly messages.
//
// Every fatal build failure is a *BuildError carrying a Kind (configuration, file,
// compaction, I/O, signature). The ActionableError builder adds remediation steps,
// and the issue catalog holds Markdown guidance rendered by the CLI.
package issue
