// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as
// the file format.
//
// The config file lives at $XDG_CONFIG_HOME/extreg/config.cue (Linux),
// ~/Library/Application Support/extreg/config.cue (macOS) or
// %APPDATA%\extreg\config.cue (Windows) and is validated against the embedded
// config_schema.cue. EXTREG_* environment variables override file values,
// e.g. EXTREG_ENVIRONMENT or EXTREG_PLATFORM_TARGET.
package config
