// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/pharbox/box/internal/phar"
)

// Recognized document keys.
const (
	KeyAlias             = "alias"
	KeyAlgorithm         = "algorithm"
	KeyBasePath          = "base-path"
	KeyBlacklist         = "blacklist"
	KeyChmod             = "chmod"
	KeyCompactors        = "compactors"
	KeyCompression       = "compression"
	KeyDirectories       = "directories"
	KeyBinaryDirectories = "directories-bin"
	KeyFiles             = "files"
	KeyBinaryFiles       = "files-bin"
	KeyFinder            = "finder"
	KeyBinaryFinder      = "finder-bin"
	KeyGitVersion        = "git-version"
	KeyIntercept         = "intercept"
	KeyPrivateKey        = "key"
	KeyPrivateKeyPass    = "key-pass"
	KeyMain              = "main"
	KeyMetadata          = "metadata"
	KeyMimeTypes         = "mimetypes"
	KeyMung              = "mung"
	KeyNotFound          = "not-found"
	KeyOutput            = "output"
	KeyReplacements      = "replacements"
	KeyStub              = "stub"
	KeyWeb               = "web"
)

const (
	defaultArchiveName    = "default.phar"
	defaultSigningAlgName = "SHA1"

	envPrefix = "BOX"
	envTrue   = "true"
	envFalse  = "false"
)

// Defaults applied when a key is absent from the document.
const (
	DefaultAlias  = defaultArchiveName
	DefaultOutput = defaultArchiveName
)

// DefaultSigningAlgorithm is used when the document names none.
const DefaultSigningAlgorithm = phar.SHA1

// scalarKeys are the keys Viper layers defaults and environment overrides
// onto. Structured values are taken from the document unchanged because
// Viper lowercases nested map keys.
var scalarKeys = []string{
	KeyAlias, KeyAlgorithm, KeyBasePath, KeyChmod, KeyCompression, KeyGitVersion,
	KeyIntercept, KeyPrivateKey, KeyPrivateKeyPass, KeyMain, KeyNotFound,
	KeyOutput, KeyStub, KeyWeb,
}

// layer returns a copy of doc with defaults and BOX_* environment overrides
// applied to the scalar keys (BOX_OUTPUT, BOX_KEY_PASS, ...).
func layer(doc map[string]any) (map[string]any, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault(KeyAlias, DefaultAlias)
	v.SetDefault(KeyOutput, DefaultOutput)
	v.SetDefault(KeyAlgorithm, defaultSigningAlgName)
	v.SetDefault(KeyIntercept, false)
	v.SetDefault(KeyWeb, false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	scalars := make(map[string]any, len(scalarKeys))
	for _, key := range scalarKeys {
		if val, ok := doc[key]; ok {
			scalars[key] = val
		}
	}
	if err := v.MergeConfigMap(scalars); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	out := maps.Clone(doc)
	if out == nil {
		out = map[string]any{}
	}
	for _, key := range scalarKeys {
		if !v.IsSet(key) {
			continue
		}
		val := v.Get(key)
		// Environment values arrive as strings.
		if s, ok := val.(string); ok {
			if orig, isStr := doc[key].(string); !isStr || orig != s {
				val = coerceEnv(key, s)
			}
		}
		out[key] = val
	}
	return out, nil
}

// coerceEnv converts an environment string to the type the key expects.
// Values that do not convert are kept as strings and rejected by Resolve.
func coerceEnv(key, s string) any {
	switch key {
	case KeyIntercept, KeyWeb:
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	case KeyStub, KeyPrivateKeyPass:
		switch s {
		case envTrue:
			return true
		case envFalse:
			return false
		}
	case KeyAlgorithm, KeyCompression:
		if i, err := strconv.ParseInt(s, 0, 64); err == nil {
			return i
		}
	}
	return s
}
