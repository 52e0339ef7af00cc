// SPDX-License-Identifier: MPL-2.0

// Package builder assembles archives.
//
// A Builder moves through four states:
//
//	Buffering -> Finalizing -> Sealed
//	    \____________\___________> Aborted
//
// New removes stale output, takes an advisory lock on the output path and
// starts Buffering: files are imported (compacted and placeholder-replaced) or
// added raw, and archive-wide settings may change. StopBuffering writes the
// archive to a temporary file next to the output; stub, compression and
// signature changes rewrite that file. Seal applies the file mode and renames
// the temporary file over the output path. Abort, which callers defer, removes
// the temporary file so a failed build never leaves an archive behind.
//
// Run drives a complete build from a resolved configuration.
package builder
