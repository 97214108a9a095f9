// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates YAML, JSON, TOML and CUE inputs against an
// embedded CUE schema.
//
// Every input goes through the same three steps:
//
//  1. Compile the input into a CUE value (Compile)
//  2. Unify it with a schema definition and validate
//  3. Decode into a Go struct
//
// # Usage
//
//	//go:embed config_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.ParseAndDecode[Config](
//	    schemaBytes,
//	    fileBytes,
//	    "#Config",
//	    cueutil.WithFilename("config.cue"),
//	)
//	if err != nil {
//	    return nil, err // *ValidationError with CUE paths
//	}
//	return result.Value, nil
package cueutil
