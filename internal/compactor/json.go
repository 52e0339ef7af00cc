// SPDX-License-Identifier: MPL-2.0

package compactor

import (
	"bytes"
	"encoding/json"
)

// JSON removes insignificant whitespace from JSON documents. Key order and
// number formatting are kept as written.
type JSON struct {
	exts extensions
}

// NewJSON returns the JSON compactor.
func NewJSON() *JSON {
	return &JSON{exts: extensions{".json"}}
}

func (*JSON) ID() string { return IDJSON }

func (c *JSON) Supports(archivePath string) bool { return c.exts.match(archivePath) }

func (*JSON) Compact(_ string, content []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, content); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
