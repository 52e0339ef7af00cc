// SPDX-License-Identifier: MPL-2.0

package config

import (
	"maps"
	"slices"

	"github.com/pharbox/box/internal/compactor"
	"github.com/pharbox/box/internal/finder"
	"github.com/pharbox/box/internal/phar"
	"github.com/pharbox/box/pkg/types"
)

const (
	// StubNone keeps the container's default stub.
	StubNone StubMode = iota
	// StubGenerate generates a bootstrap stub for the main script.
	StubGenerate
	// StubFile uses the contents of an existing file as the stub.
	StubFile
)

type (
	// StubMode selects how the archive stub is produced.
	StubMode int

	// StubPolicy is the resolved "stub" setting. Path is only set for StubFile.
	StubPolicy struct {
		Mode StubMode
		Path string
	}

	// BuildConfig is the resolved, immutable view of a build configuration.
	// Paths are absolute unless documented otherwise; slice and map accessors
	// return copies.
	BuildConfig struct {
		file         string
		basePath     string
		outputPath   string
		alias        string
		mainPath     string
		notFoundPath string
		stub         StubPolicy

		compression phar.Compression
		signing     phar.SignatureAlgorithm
		keyPath     string
		keyPass     string

		fileMode    types.FileMode
		hasFileMode bool
		metadata    any
		hasMetadata bool

		replacements map[string]string
		mimeTypes    map[string]string
		mung         []string
		intercept    bool
		web          bool

		compactors compactor.Chain
		blacklist  []string

		files             []string
		binaryFiles       []string
		directories       []string
		binaryDirectories []string
		finders           []finder.Spec
		binaryFinders     []finder.Spec
	}
)

func (m StubMode) String() string {
	switch m {
	case StubGenerate:
		return "generate"
	case StubFile:
		return "file"
	default:
		return "none"
	}
}

// File is the configuration file the build was resolved from.
func (c *BuildConfig) File() string { return c.file }

// BasePath is the directory all relative paths are resolved against.
func (c *BuildConfig) BasePath() string { return c.basePath }

// OutputPath is where the archive is written.
func (c *BuildConfig) OutputPath() string { return c.outputPath }

// Alias is the archive alias used by Phar::mapPhar.
func (c *BuildConfig) Alias() string { return c.alias }

// MainScriptPath is the main script, or "" when none is configured.
func (c *BuildConfig) MainScriptPath() string { return c.mainPath }

// NotFoundPath is the archive-relative script run for unknown web requests.
func (c *BuildConfig) NotFoundPath() string { return c.notFoundPath }

// Stub returns the stub policy.
func (c *BuildConfig) Stub() StubPolicy { return c.stub }

// Compression returns the entry compression (phar.None when unset).
func (c *BuildConfig) Compression() phar.Compression { return c.compression }

// SigningAlgorithm returns the signature algorithm.
func (c *BuildConfig) SigningAlgorithm() phar.SignatureAlgorithm { return c.signing }

// PrivateKeyPath is the PEM private key used for OPENSSL signing.
func (c *BuildConfig) PrivateKeyPath() string { return c.keyPath }

// PrivateKeyPassphrase is the passphrase of the private key, possibly prompted.
func (c *BuildConfig) PrivateKeyPassphrase() string { return c.keyPass }

// FileMode returns the permissions applied to the archive, if configured.
func (c *BuildConfig) FileMode() (types.FileMode, bool) { return c.fileMode, c.hasFileMode }

// Metadata returns the archive metadata, if configured.
func (c *BuildConfig) Metadata() (any, bool) { return c.metadata, c.hasMetadata }

// Replacements maps placeholder names to values, git-version included.
func (c *BuildConfig) Replacements() map[string]string { return maps.Clone(c.replacements) }

// MimeTypes maps file extensions to MIME types for web archives.
func (c *BuildConfig) MimeTypes() map[string]string { return maps.Clone(c.mimeTypes) }

// MungVariables lists the $_SERVER variables Phar::mungServer rewrites.
func (c *BuildConfig) MungVariables() []string { return slices.Clone(c.mung) }

// InterceptFileFuncs reports whether Phar::interceptFileFuncs is called.
func (c *BuildConfig) InterceptFileFuncs() bool { return c.intercept }

// Web reports whether the stub uses Phar::webPhar.
func (c *BuildConfig) Web() bool { return c.web }

// Compactors returns the configured compactor chain.
func (c *BuildConfig) Compactors() compactor.Chain { return slices.Clone(c.compactors) }

// CompactorIDs returns the identifiers of the configured compactors.
func (c *BuildConfig) CompactorIDs() []string { return c.compactors.IDs() }

// Blacklist returns base-relative paths excluded from every source.
func (c *BuildConfig) Blacklist() []string { return slices.Clone(c.blacklist) }

// Files returns the text files to add. Trailing separators are kept.
func (c *BuildConfig) Files() []string { return slices.Clone(c.files) }

// BinaryFiles returns the files added without transformation.
func (c *BuildConfig) BinaryFiles() []string { return slices.Clone(c.binaryFiles) }

// Directories returns the directories whose files are added as text.
func (c *BuildConfig) Directories() []string { return slices.Clone(c.directories) }

// BinaryDirectories returns the directories whose files are added raw.
func (c *BuildConfig) BinaryDirectories() []string { return slices.Clone(c.binaryDirectories) }

// Finders returns the finder specifications for text files.
func (c *BuildConfig) Finders() []finder.Spec { return cloneSpecs(c.finders) }

// BinaryFinders returns the finder specifications for binary files.
func (c *BuildConfig) BinaryFinders() []finder.Spec { return cloneSpecs(c.binaryFinders) }

func cloneSpecs(specs []finder.Spec) []finder.Spec {
	if specs == nil {
		return nil
	}
	out := make([]finder.Spec, len(specs))
	for i, s := range specs {
		s.In = slices.Clone(s.In)
		s.Names = slices.Clone(s.Names)
		s.NotNames = slices.Clone(s.NotNames)
		s.Paths = slices.Clone(s.Paths)
		s.NotPaths = slices.Clone(s.NotPaths)
		s.Excludes = slices.Clone(s.Excludes)
		s.Contains = slices.Clone(s.Contains)
		s.NotContains = slices.Clone(s.NotContains)
		s.Depths = slices.Clone(s.Depths)
		s.Sizes = slices.Clone(s.Sizes)
		out[i] = s
	}
	return out
}
