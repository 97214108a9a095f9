// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"log/slog"
	"testing"
)

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level LogLevel
		want  bool
	}{
		{LogLevelDebug, true},
		{LogLevelInfo, true},
		{LogLevelWarn, true},
		{LogLevelError, true},
		{"", false},
		{"trace", false},
		{"INFO", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			t.Parallel()
			isValid, errs := tt.level.IsValid()
			if isValid != tt.want {
				t.Errorf("LogLevel(%q).IsValid() = %v, want %v", tt.level, isValid, tt.want)
			}
			if !tt.want {
				if len(errs) == 0 {
					t.Fatalf("LogLevel(%q).IsValid() returned no errors", tt.level)
				}
				if !errors.Is(errs[0], ErrInvalidLogLevel) {
					t.Errorf("error should wrap ErrInvalidLogLevel, got: %v", errs[0])
				}
			}
		})
	}
}

func TestLogLevel_Level(t *testing.T) {
	t.Parallel()

	tests := map[LogLevel]slog.Level{
		LogLevelDebug: slog.LevelDebug,
		LogLevelInfo:  slog.LevelInfo,
		LogLevelWarn:  slog.LevelWarn,
		LogLevelError: slog.LevelError,
		"bogus":       slog.LevelInfo,
	}
	for level, want := range tests {
		if got := level.Level(); got != want {
			t.Errorf("LogLevel(%q).Level() = %v, want %v", level, got, want)
		}
	}
}

func TestOutputFormat_IsValid(t *testing.T) {
	t.Parallel()

	for _, o := range []OutputFormat{OutputText, OutputJSON, OutputYAML} {
		if ok, errs := o.IsValid(); !ok || len(errs) != 0 {
			t.Errorf("OutputFormat(%q).IsValid() = %v, %v", o, ok, errs)
		}
	}
	ok, errs := OutputFormat("toml").IsValid()
	if ok {
		t.Fatal("OutputFormat(toml) should be invalid")
	}
	if !errors.Is(errs[0], ErrInvalidOutputFormat) {
		t.Errorf("error should wrap ErrInvalidOutputFormat, got: %v", errs[0])
	}
}

func TestColorScheme_IsValid(t *testing.T) {
	t.Parallel()

	for _, c := range []ColorScheme{ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight} {
		if ok, _ := c.IsValid(); !ok {
			t.Errorf("ColorScheme(%q) should be valid", c)
		}
	}
	if ok, errs := ColorScheme("neon").IsValid(); ok || !errors.Is(errs[0], ErrInvalidColorScheme) {
		t.Errorf("ColorScheme(neon).IsValid() = %v, %v", ok, errs)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid, got: %v", err)
	}

	cfg := DefaultConfig()
	cfg.LogLevel = "loud"
	cfg.Output = "xml"
	cfg.SearchPathVar = "1BAD-NAME"

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("error should wrap ErrInvalidConfig, got: %v", err)
	}
	var cfgErr *InvalidConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error should be *InvalidConfigError, got: %T", err)
	}
	if len(cfgErr.FieldErrors) != 3 {
		t.Errorf("expected 3 field errors, got %d: %v", len(cfgErr.FieldErrors), cfgErr.FieldErrors)
	}
	for _, sentinel := range []error{ErrInvalidLogLevel, ErrInvalidOutputFormat, ErrInvalidSearchPathVar} {
		if !errors.Is(err, sentinel) {
			t.Errorf("error should wrap %v", sentinel)
		}
	}
}

func TestPlatformConfig_Platform(t *testing.T) {
	t.Parallel()

	p := PlatformConfig{OS: "rhel8", Target: "zen2"}.Platform()
	if p.String() != "rhel8-zen2" {
		t.Errorf("Platform() = %q, want rhel8-zen2", p)
	}
	if !(PlatformConfig{}).Platform().IsZero() {
		t.Error("empty PlatformConfig should convert to a zero Platform")
	}
}
