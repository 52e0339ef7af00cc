// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"fmt"
)

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// WorkingDir is searched for the default file names (defaults to the
	// process working directory).
	WorkingDir string
	// Prompter is asked for the private key passphrase when required.
	Prompter Prompter
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*BuildConfig, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*BuildConfig, error) {
	return Load(ctx, opts)
}

// Load finds, decodes, validates, layers and resolves the build configuration.
func Load(ctx context.Context, opts LoadOptions) (*BuildConfig, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	path, err := Find(opts.WorkingDir, opts.ConfigFilePath)
	if err != nil {
		return nil, err
	}

	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateDocument(path, doc); err != nil {
		return nil, err
	}

	layered, err := layer(doc)
	if err != nil {
		return nil, err
	}

	return Resolve(ctx, layered, path, ResolveOptions{Prompter: opts.Prompter, WorkingDir: opts.WorkingDir})
}
