// SPDX-License-Identifier: MPL-2.0

package phar

import (
	"testing"
)

func TestMarshalMetadata_Scalars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", `s:5:"hello";`},
		{"whole float is int", float64(42), "i:42;"},
		{"bool", true, "b:1;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := MarshalMetadata(tt.in)
			if err != nil {
				t.Fatalf("MarshalMetadata() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("MarshalMetadata(%v) = %q, want %q", tt.in, got, tt.want)
			}

			back, err := UnmarshalMetadata(got)
			if err != nil {
				t.Fatalf("UnmarshalMetadata() error = %v", err)
			}
			if back == nil {
				t.Error("UnmarshalMetadata() = nil")
			}
		})
	}

	if got, _ := MarshalMetadata(nil); got != nil {
		t.Errorf("MarshalMetadata(nil) = %q, want nil", got)
	}
}

func TestFormatMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "NULL"},
		{"string", "it's", `'it\'s'`},
		{"int", int64(3), "3"},
		{"array", map[any]any{"b": int64(1), "a": "x"}, "array (\n  'a' => 'x',\n  'b' => 1,\n)"},
		{"list", []any{"x"}, "array (\n  0 => 'x',\n)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatMetadata(tt.in); got != tt.want {
				t.Errorf("FormatMetadata() = %q, want %q", got, tt.want)
			}
		})
	}
}
