// SPDX-License-Identifier: MPL-2.0

// Package config resolves a Box build configuration document into an
// immutable BuildConfig.
//
// The document is discovered in the working directory (box.json, then
// box.json.dist, box.yaml, box.yml, box.toml) unless a path is given. It is
// decoded to a JSON-compatible map, validated against the embedded CUE schema
// (box_schema.cue), layered with defaults and BOX_-prefixed environment
// overrides through Viper, and finally resolved: paths are canonicalized
// against the base path, algorithm names are looked up, compactors are
// instantiated and the private key passphrase is obtained.
package config
