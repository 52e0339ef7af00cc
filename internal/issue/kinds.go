// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
)

const (
	// KindConfig marks malformed or inconsistent configuration.
	KindConfig Kind = iota + 1
	// KindFile marks a missing or unusable source file or directory.
	KindFile
	// KindCompaction marks a compactor that rejected a file's content.
	KindCompaction
	// KindIO marks archive write, permission change, or key-file read failures.
	KindIO
	// KindSignature marks an invalid or unreadable private key.
	KindSignature
)

var (
	// ErrConfig is matched by every configuration BuildError.
	ErrConfig = errors.New("configuration error")
	// ErrFile is matched by every file BuildError.
	ErrFile = errors.New("file error")
	// ErrCompaction is matched by every compaction BuildError.
	ErrCompaction = errors.New("compaction error")
	// ErrIO is matched by every I/O BuildError.
	ErrIO = errors.New("i/o error")
	// ErrSignature is matched by every signature BuildError.
	ErrSignature = errors.New("signature error")
)

type (
	// Kind classifies a BuildError. None of the kinds is retried.
	Kind int

	// BuildError is a fatal error raised while resolving configuration or
	// building an archive. errors.Is matches both the Kind sentinel and the cause.
	BuildError struct {
		Kind Kind
		// Op is the failing operation for I/O errors ("write", "chmod", ...).
		Op string
		// Path is the offending file, when there is one.
		Path string
		// Message overrides the generated message (used for configuration errors).
		Message string
		Cause   error
	}
)

// String returns the human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "ConfigError"
	case KindFile:
		return "FileError"
	case KindCompaction:
		return "CompactionError"
	case KindIO:
		return "IOError"
	case KindSignature:
		return "SignatureError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindConfig:
		return ErrConfig
	case KindFile:
		return ErrFile
	case KindCompaction:
		return ErrCompaction
	case KindIO:
		return ErrIO
	case KindSignature:
		return ErrSignature
	default:
		return nil
	}
}

// Config returns a configuration error with a formatted message.
func Config(format string, args ...any) *BuildError {
	return &BuildError{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

// ConfigWrap returns a configuration error about path wrapping cause.
func ConfigWrap(path string, cause error) *BuildError {
	return &BuildError{Kind: KindConfig, Path: path, Cause: cause}
}

// File returns a file error about path.
func File(path string, cause error) *BuildError {
	return &BuildError{Kind: KindFile, Path: path, Cause: cause}
}

// Compaction returns a compaction error identifying the offending path.
func Compaction(path string, cause error) *BuildError {
	return &BuildError{Kind: KindCompaction, Path: path, Cause: cause}
}

// IO returns an I/O error for operation op on path.
func IO(op, path string, cause error) *BuildError {
	return &BuildError{Kind: KindIO, Op: op, Path: path, Cause: cause}
}

// Signature returns a signature error about the key at path.
func Signature(path string, cause error) *BuildError {
	return &BuildError{Kind: KindSignature, Path: path, Cause: cause}
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.Message != "" {
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}

	msg := e.Kind.String()
	switch e.Kind {
	case KindFile:
		msg = fmt.Sprintf("the path %q is not a file or directory, or does not exist", e.Path)
	case KindCompaction:
		msg = fmt.Sprintf("could not compact %q", e.Path)
	case KindIO:
		msg = fmt.Sprintf("%s %s", e.Op, e.Path)
	case KindSignature:
		msg = fmt.Sprintf("could not use private key %q", e.Path)
	case KindConfig:
		if e.Path != "" {
			msg = fmt.Sprintf("invalid configuration %q", e.Path)
		}
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the Kind sentinel and the cause to errors.Is and errors.As.
func (e *BuildError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// KindOf returns the Kind of the first BuildError in err's chain, or 0.
func KindOf(err error) Kind {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}
