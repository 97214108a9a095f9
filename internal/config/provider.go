// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set
	// (the --config flag). The file must exist.
	ConfigFilePath string
	// ConfigDirPath replaces the <config dir>/extreg lookup when set. Only
	// tests set it; the CLI always uses ConfigDir.
	ConfigDirPath string
}

// Provider loads the layered extreg configuration: defaults, the CUE config
// file, then EXTREG_* environment variables.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
