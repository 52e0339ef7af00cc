// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DefaultMaxFileSize bounds configuration files read into memory (5 MiB).
const DefaultMaxFileSize int64 = 5 << 20

// Validate checks doc against the definition (e.g. "#Box") of schema.
// filename is only used to prefix error messages.
func Validate(schema []byte, definition string, doc any, filename string) error {
	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	root := schemaValue.LookupPath(cue.ParsePath(definition))
	if root.Err() != nil {
		return fmt.Errorf("internal error: schema definition %s not found: %w", definition, root.Err())
	}

	docValue := ctx.Encode(doc)
	if docValue.Err() != nil {
		return FormatError(docValue.Err(), filename)
	}

	unified := root.Unify(docValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return FormatError(err, filename)
	}
	return nil
}
