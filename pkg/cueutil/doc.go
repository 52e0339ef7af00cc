// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates decoded documents against embedded CUE schemas.
//
// Configuration files may be JSON, YAML or TOML; once decoded to a
// JSON-compatible value they are all checked the same way:
//
//  1. Compile the embedded schema and look up its root definition
//  2. Encode the decoded document as a CUE value and unify it with the definition
//  3. Validate the result, reporting errors with JSON-path prefixes
//
// # Usage
//
//	//go:embed box_schema.cue
//	var schema []byte
//
//	if err := cueutil.Validate(schema, "#Box", doc, "box.json"); err != nil {
//	    return err // e.g. "box.json: files[0]: conflicting values ..."
//	}
package cueutil
