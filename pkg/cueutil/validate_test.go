// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Doc: {
	name:   string
	count?: int & >=0
	tags?: [...string]
}
`

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     any
		wantErr string
	}{
		{"valid", map[string]any{"name": "app", "count": int64(2), "tags": []any{"a"}}, ""},
		{"missing required", map[string]any{"count": int64(1)}, "name"},
		{"wrong type in list", map[string]any{"name": "x", "tags": []any{"a", int64(1)}}, "tags[1]"},
		{"unknown field", map[string]any{"name": "x", "extra": true}, "extra"},
		{"constraint", map[string]any{"name": "x", "count": int64(-1)}, "count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Validate([]byte(testSchema), "#Doc", tt.doc, "doc.json")
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.HasPrefix(err.Error(), "doc.json: ") || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_UnknownDefinition(t *testing.T) {
	t.Parallel()

	err := Validate([]byte(testSchema), "#Missing", map[string]any{}, "doc.json")
	if err == nil || !strings.Contains(err.Error(), "internal error") {
		t.Errorf("Validate() error = %v", err)
	}
}
