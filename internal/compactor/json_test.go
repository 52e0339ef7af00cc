// SPDX-License-Identifier: MPL-2.0

package compactor

import (
	"testing"
)

func TestJSON_Compact(t *testing.T) {
	t.Parallel()

	in := "{\n    \"z\": 1,\n    \"a\": [1, 2.50, \"x y\"]\n}\n"
	got, err := NewJSON().Compact("composer.json", []byte(in))
	if err != nil {
		t.Fatalf("Compact() error = %v", err)
	}
	if want := `{"z":1,"a":[1,2.50,"x y"]}`; string(got) != want {
		t.Errorf("Compact() = %q, want %q", got, want)
	}
}

func TestJSON_CompactInvalid(t *testing.T) {
	t.Parallel()

	if _, err := NewJSON().Compact("composer.json", []byte(`{"a":`)); err == nil {
		t.Error("Compact() should reject invalid JSON")
	}
}
