// SPDX-License-Identifier: MPL-2.0

// Package selector decides which source files go into an archive.
//
// Sources are read through a go-billy filesystem rooted at the build base
// path, so production code uses osfs and tests use memfs. Entries are
// returned in a fixed order: explicit files, directories and finders for text
// files, then the same for binary files, then the main script and the stub.
// Duplicate archive paths are kept; the archive builder lets the last one win.
package selector
