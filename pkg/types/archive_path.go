// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArchivePath is the sentinel error wrapped by InvalidArchivePathError.
var ErrInvalidArchivePath = errors.New("invalid archive path")

type (
	// ArchivePath is the path of an entry inside an archive. It is always
	// relative, uses forward slashes, and never escapes the archive root.
	ArchivePath string

	// InvalidArchivePathError is returned when an ArchivePath is empty,
	// absolute, or contains a ".." segment.
	InvalidArchivePathError struct {
		Value  ArchivePath
		Reason string
	}
)

// String returns the string representation of the ArchivePath.
func (p ArchivePath) String() string { return string(p) }

// Validate returns an error if the ArchivePath cannot name an archive entry.
func (p ArchivePath) Validate() error {
	s := string(p)
	switch {
	case strings.TrimSpace(s) == "":
		return &InvalidArchivePathError{Value: p, Reason: "must be non-empty"}
	case strings.Contains(s, `\`):
		return &InvalidArchivePathError{Value: p, Reason: "must use forward slashes"}
	case strings.HasPrefix(s, "/"):
		return &InvalidArchivePathError{Value: p, Reason: "must be relative"}
	}
	for seg := range strings.SplitSeq(s, "/") {
		if seg == ".." {
			return &InvalidArchivePathError{Value: p, Reason: "must not contain '..'"}
		}
	}
	return nil
}

// Error implements the error interface for InvalidArchivePathError.
func (e *InvalidArchivePathError) Error() string {
	return fmt.Sprintf("invalid archive path %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidArchivePath for errors.Is() compatibility.
func (e *InvalidArchivePathError) Unwrap() error { return ErrInvalidArchivePath }
