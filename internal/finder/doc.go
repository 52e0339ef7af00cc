// SPDX-License-Identifier: MPL-2.0

// Package finder parses declarative finder specifications and compiles them
// into filters used when walking a source tree.
//
// A specification is a map from method name to argument(s), mirroring the
// Symfony Finder fluent API that PHP projects already use in box.json:
//
//	{"in": "src", "name": "*.php", "exclude": ["Tests"], "depth": "< 3"}
package finder
