// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrInvalidFileMode is the sentinel error wrapped by InvalidFileModeError.
var ErrInvalidFileMode = errors.New("invalid file mode")

type (
	// FileMode is a POSIX mode written in octal notation ("0755", "4755").
	// The permission bits and the setuid, setgid and sticky bits (0-07777)
	// are accepted.
	FileMode uint32

	// InvalidFileModeError is returned when a mode string is not a valid
	// octal permission mask.
	InvalidFileModeError struct {
		Value string
	}
)

// ParseFileMode parses an octal mode string such as "0755" or "644".
func ParseFileMode(s string) (FileMode, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, &InvalidFileModeError{Value: s}
	}
	v, err := strconv.ParseUint(trimmed, 8, 32)
	if err != nil || v > 0o7777 {
		return 0, &InvalidFileModeError{Value: s}
	}
	return FileMode(v), nil
}

// Perm returns the permission bits only.
func (m FileMode) Perm() os.FileMode { return os.FileMode(m) & os.ModePerm }

// Mode converts the mode to an os.FileMode, mapping the octal setuid, setgid
// and sticky bits to their os.Mode counterparts.
func (m FileMode) Mode() os.FileMode {
	mode := m.Perm()
	if m&0o4000 != 0 {
		mode |= os.ModeSetuid
	}
	if m&0o2000 != 0 {
		mode |= os.ModeSetgid
	}
	if m&0o1000 != 0 {
		mode |= os.ModeSticky
	}
	return mode
}

// String returns the mode in four-digit octal notation.
func (m FileMode) String() string { return fmt.Sprintf("%04o", uint32(m)) }

// Error implements the error interface for InvalidFileModeError.
func (e *InvalidFileModeError) Error() string {
	return fmt.Sprintf("invalid file mode %q: must be an octal mode between 0 and 7777 (e.g. 0755)", e.Value)
}

// Unwrap returns ErrInvalidFileMode for errors.Is() compatibility.
func (e *InvalidFileModeError) Unwrap() error { return ErrInvalidFileMode }
