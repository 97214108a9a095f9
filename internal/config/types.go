// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/extreg/extreg/pkg/platform"
)

const (
	// LogLevelDebug logs resolution decisions and document loading.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs only warnings and errors.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs only errors.
	LogLevelError LogLevel = "error"

	// OutputText renders human-readable tables.
	OutputText OutputFormat = "text"
	// OutputJSON renders JSON.
	OutputJSON OutputFormat = "json"
	// OutputYAML renders YAML.
	OutputYAML OutputFormat = "yaml"

	// ColorSchemeAuto detects the terminal background.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces the dark palette.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces the light palette.
	ColorSchemeLight ColorScheme = "light"

	// DefaultSearchPathVar is the dynamic-linker search path variable.
	DefaultSearchPathVar = "LD_LIBRARY_PATH"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidSearchPathVar is returned for a search path variable that is
	// not a valid shell variable name.
	ErrInvalidSearchPathVar = errors.New("invalid search path variable")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	varNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

type (
	// LogLevel is the minimum level written to stderr.
	LogLevel string

	// OutputFormat selects how command results are rendered.
	OutputFormat string

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidValueError is returned for an enum-like value that is not
	// recognized. Kind is the sentinel it wraps.
	InvalidValueError struct {
		Kind  error
		Value string
	}

	// InvalidConfigError collects field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Environment is the default environment document path.
		Environment string `json:"environment" yaml:"environment" mapstructure:"environment"`
		// Platform overrides host detection for compiler resolution.
		Platform PlatformConfig `json:"platform" yaml:"platform" mapstructure:"platform"`
		// SearchPathVar receives extra library search paths.
		SearchPathVar string `json:"search_path_var" yaml:"search_path_var" mapstructure:"search_path_var"`
		// LogLevel is the default log level; --verbose forces debug.
		LogLevel LogLevel `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
		// Output is the default output format.
		Output OutputFormat `json:"output" yaml:"output" mapstructure:"output"`
		// UI configures terminal rendering.
		UI UIConfig `json:"ui" yaml:"ui" mapstructure:"ui"`
	}

	// PlatformConfig is the configured (os, target) pair.
	PlatformConfig struct {
		OS     string `json:"os" yaml:"os" mapstructure:"os"`
		Target string `json:"target" yaml:"target" mapstructure:"target"`
	}

	// UIConfig configures terminal rendering.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" yaml:"color_scheme" mapstructure:"color_scheme"`
	}
)

// IsValid returns whether the level is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidValueError{Kind: ErrInvalidLogLevel, Value: string(l)}}
	}
}

// Level converts the level to its slog equivalent. Unknown levels map to
// info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsValid returns whether the format is one of the defined formats.
func (o OutputFormat) IsValid() (bool, []error) {
	switch o {
	case OutputText, OutputJSON, OutputYAML:
		return true, nil
	default:
		return false, []error{&InvalidValueError{Kind: ErrInvalidOutputFormat, Value: string(o)}}
	}
}

// IsValid returns whether the scheme is one of the defined schemes.
func (c ColorScheme) IsValid() (bool, []error) {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidValueError{Kind: ErrInvalidColorScheme, Value: string(c)}}
	}
}

// Platform converts the configured pair. Either part may be empty.
func (p PlatformConfig) Platform() platform.Platform {
	return platform.Platform{OS: p.OS, Target: p.Target}
}

// Validate checks every field and collects all failures.
func (c *Config) Validate() error {
	var errs []error
	if ok, fieldErrs := c.LogLevel.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.Output.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.UI.ColorScheme.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if !varNamePattern.MatchString(c.SearchPathVar) {
		errs = append(errs, &InvalidValueError{Kind: ErrInvalidSearchPathVar, Value: c.SearchPathVar})
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s %q", e.Kind, e.Value)
}

// Unwrap returns the sentinel for the value kind.
func (e *InvalidValueError) Unwrap() error { return e.Kind }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid config: %v", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Environment:   "",
		SearchPathVar: DefaultSearchPathVar,
		LogLevel:      LogLevelInfo,
		Output:        OutputText,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}
