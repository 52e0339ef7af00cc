// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for box.
//
// This package implements the Cobra command hierarchy for the box CLI:
// build, which turns a box.json configuration into a PHAR archive, and the
// info, extract, validate and verify commands that inspect archives and
// configuration files.
package cmd
