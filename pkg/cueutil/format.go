// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	cuejson "cuelang.org/go/encoding/json"
	cueyaml "cuelang.org/go/encoding/yaml"
	"github.com/pelletier/go-toml/v2"
)

const (
	// FormatCUE is native CUE.
	FormatCUE Format = "cue"
	// FormatYAML is YAML 1.2.
	FormatYAML Format = "yaml"
	// FormatJSON is JSON.
	FormatJSON Format = "json"
	// FormatTOML is TOML 1.0. Table key order is not preserved.
	FormatTOML Format = "toml"
)

// ErrUnsupportedFormat is returned for inputs whose format cannot be
// determined or is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Format identifies an input encoding.
type Format string

// FormatOf returns the format implied by a filename extension.
func FormatOf(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".cue":
		return FormatCUE, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q (expected .yaml, .yml, .cue, .json or .toml)", ErrUnsupportedFormat, filename)
	}
}

// Compile turns raw input into a CUE value in ctx. The format comes from
// WithFormat or, failing that, the WithFilename extension; without either
// the input is treated as CUE. Errors are formatted with FormatError.
func Compile(ctx *cue.Context, data []byte, opts ...Option) (cue.Value, error) {
	options := buildOptions(opts)

	if err := CheckFileSize(data, options.maxFileSize, options.filename); err != nil {
		return cue.Value{}, err
	}

	format := options.format
	if format == "" {
		format = FormatCUE
		if options.filename != "<input>" {
			f, err := FormatOf(options.filename)
			if err != nil {
				return cue.Value{}, err
			}
			format = f
		}
	}

	var v cue.Value
	switch format {
	case FormatCUE:
		v = ctx.CompileBytes(data, cue.Filename(options.filename))
	case FormatYAML:
		f, err := cueyaml.Extract(options.filename, data)
		if err != nil {
			return cue.Value{}, FormatError(err, options.filename)
		}
		v = ctx.BuildFile(f)
	case FormatJSON:
		expr, err := cuejson.Extract(options.filename, data)
		if err != nil {
			return cue.Value{}, FormatError(err, options.filename)
		}
		v = ctx.BuildExpr(expr)
	case FormatTOML:
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return cue.Value{}, fmt.Errorf("%s: %w", options.filename, err)
		}
		v = ctx.Encode(doc)
	default:
		return cue.Value{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if v.Err() != nil {
		return cue.Value{}, FormatError(v.Err(), options.filename)
	}
	return v, nil
}
