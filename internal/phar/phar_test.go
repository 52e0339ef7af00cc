// SPDX-License-Identifier: MPL-2.0

package phar

import "testing"

func TestParseCompression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		want   Compression
		wantOK bool
	}{
		{"GZ", GZ, true},
		{"BZ2", BZ2, true},
		{"NONE", None, true},
		{"gz", 0, false},
		{"INVALID", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseCompression(tt.name)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseCompression(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseSignatureAlgorithm(t *testing.T) {
	t.Parallel()

	for _, name := range SignatureNames() {
		alg, ok := ParseSignatureAlgorithm(name)
		if !ok || alg.String() != name || !alg.Valid() {
			t.Errorf("ParseSignatureAlgorithm(%q) = %v, %v", name, alg, ok)
		}
	}
	if _, ok := ParseSignatureAlgorithm("sha1"); ok {
		t.Error("names must be case-sensitive")
	}
	if SignatureAlgorithm(0x5).Valid() {
		t.Error("0x5 must not be valid")
	}
}

func TestHashType(t *testing.T) {
	t.Parallel()

	want := map[SignatureAlgorithm]string{MD5: "MD5", SHA1: "SHA-1", SHA256: "SHA-256", SHA512: "SHA-512", OpenSSL: "OpenSSL"}
	for alg, name := range want {
		if alg.HashType() != name {
			t.Errorf("%v.HashType() = %q, want %q", alg, alg.HashType(), name)
		}
	}
}

func TestCompressionValues(t *testing.T) {
	t.Parallel()

	if uint32(GZ) != 4096 || uint32(BZ2) != 8192 || uint32(None) != 0 {
		t.Errorf("compression values changed: GZ=%d BZ2=%d NONE=%d", GZ, BZ2, None)
	}
	if !GZ.Valid() || Compression(1).Valid() {
		t.Error("Valid() mismatch")
	}
}
