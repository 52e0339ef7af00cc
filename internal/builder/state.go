// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"errors"
	"fmt"
)

const (
	// StateEmpty is the zero state of a Builder that was not created by New.
	StateEmpty State = iota
	// StateBuffering accepts files and archive-wide settings.
	StateBuffering
	// StateFinalizing accepts stub, compression and signature changes.
	StateFinalizing
	// StateSealed means the archive is complete at the output path.
	StateSealed
	// StateAborted means the build was abandoned and its files removed.
	StateAborted
)

// ErrInvalidState is returned when an operation is not allowed in the
// builder's current state.
var ErrInvalidState = errors.New("invalid builder state")

type (
	// State is the lifecycle state of a Builder.
	State int

	// InvalidStateError reports an operation attempted in the wrong state.
	InvalidStateError struct {
		Op    string
		State State
		Want  State
	}
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBuffering:
		return "buffering"
	case StateFinalizing:
		return "finalizing"
	case StateSealed:
		return "sealed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s is only allowed while %s (builder is %s)", e.Op, e.Want, e.State)
}

// Unwrap returns ErrInvalidState for errors.Is() compatibility.
func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

func (b *Builder) require(op string, want State) error {
	if b.state != want {
		return &InvalidStateError{Op: op, State: b.state, Want: want}
	}
	return nil
}
