// SPDX-License-Identifier: MPL-2.0

// Package phar reads and writes PHP archives (PHAR files).
//
// An archive is laid out as:
//
//	stub ... __HALT_COMPILER(); ?>\r\n
//	manifest (little-endian, API 1.1.1)
//	entry data
//	[signature][uint32 length, OpenSSL only][uint32 algorithm]GBMB
package phar

import (
	"errors"
	"fmt"
	"slices"
)

const (
	// None stores entries uncompressed.
	None Compression = 0
	// GZ stores entries as raw deflate streams.
	GZ Compression = 0x1000
	// BZ2 stores entries as bzip2 streams.
	BZ2 Compression = 0x2000
)

const (
	MD5     SignatureAlgorithm = 0x1
	SHA1    SignatureAlgorithm = 0x2
	SHA256  SignatureAlgorithm = 0x3
	SHA512  SignatureAlgorithm = 0x4
	OpenSSL SignatureAlgorithm = 0x10
)

const (
	haltCompiler = "__HALT_COMPILER();"
	stubTerminus = " ?>\r\n"
	sigMagic     = "GBMB"

	// apiVersion is written as the two bytes 0x11 0x10 ("1.1.1").
	apiVersion = 0x1110

	flagSigned         = 0x00010000
	flagCompressedMask = 0x0000F000
	permMask           = 0x000001FF

	// DefaultPerm is the permission stored for every entry.
	DefaultPerm = 0o644
)

// APIVersion is the manifest API version written by this package.
const APIVersion = "1.1.1"

var (
	// ErrInvalidStub is returned for stubs lacking __HALT_COMPILER();.
	ErrInvalidStub = errors.New("illegal stub: missing __HALT_COMPILER();")
	// ErrCorrupt is returned when an archive cannot be parsed.
	ErrCorrupt = errors.New("corrupt archive")
	// ErrNotSigned is returned by Verify for archives without signature.
	ErrNotSigned = errors.New("archive is not signed")
	// ErrSignatureMismatch is returned by Verify when contents were altered.
	ErrSignatureMismatch = errors.New("signature mismatch")
	// ErrNotFound is returned when an entry does not exist.
	ErrNotFound = errors.New("entry not found")
)

type (
	// Compression identifies the algorithm used for stored entries.
	Compression uint32

	// SignatureAlgorithm identifies how the archive signature is computed.
	SignatureAlgorithm uint32
)

var (
	compressionNames = map[string]Compression{"NONE": None, "GZ": GZ, "BZ2": BZ2}
	signatureNames   = map[string]SignatureAlgorithm{
		"MD5": MD5, "SHA1": SHA1, "SHA256": SHA256, "SHA512": SHA512, "OPENSSL": OpenSSL,
	}
)

// ParseCompression looks up a symbolic compression name. Names are case-sensitive.
func ParseCompression(name string) (Compression, bool) {
	c, ok := compressionNames[name]
	return c, ok
}

// Valid reports whether c is one of the supported compression values.
func (c Compression) Valid() bool {
	return c == None || c == GZ || c == BZ2
}

func (c Compression) String() string {
	switch c {
	case None:
		return "NONE"
	case GZ:
		return "GZ"
	case BZ2:
		return "BZ2"
	default:
		return fmt.Sprintf("Compression(%#x)", uint32(c))
	}
}

// CompressionNames returns the supported symbolic compression names.
func CompressionNames() []string {
	return []string{"GZ", "BZ2", "NONE"}
}

// ParseSignatureAlgorithm looks up a symbolic signature name. Names are case-sensitive.
func ParseSignatureAlgorithm(name string) (SignatureAlgorithm, bool) {
	a, ok := signatureNames[name]
	return a, ok
}

// Valid reports whether a is one of the supported signature algorithms.
func (a SignatureAlgorithm) Valid() bool {
	return slices.Contains([]SignatureAlgorithm{MD5, SHA1, SHA256, SHA512, OpenSSL}, a)
}

func (a SignatureAlgorithm) String() string {
	switch a {
	case MD5:
		return "MD5"
	case SHA1:
		return "SHA1"
	case SHA256:
		return "SHA256"
	case SHA512:
		return "SHA512"
	case OpenSSL:
		return "OPENSSL"
	default:
		return fmt.Sprintf("SignatureAlgorithm(%#x)", uint32(a))
	}
}

// HashType is the display name PHP reports for the algorithm.
func (a SignatureAlgorithm) HashType() string {
	switch a {
	case MD5:
		return "MD5"
	case SHA1:
		return "SHA-1"
	case SHA256:
		return "SHA-256"
	case SHA512:
		return "SHA-512"
	case OpenSSL:
		return "OpenSSL"
	default:
		return "Unknown"
	}
}

// SignatureNames returns the supported symbolic signature names.
func SignatureNames() []string {
	return []string{"MD5", "SHA1", "SHA256", "SHA512", "OPENSSL"}
}
