// SPDX-License-Identifier: MPL-2.0

// Package document loads environment documents into a registry.
//
// A document is YAML, JSON, TOML or CUE, chosen by file extension, and is
// validated against the embedded #Document schema before any entry is
// registered. Documents listed under include are loaded first, depth-first,
// with $VAR expansion and paths relative to the including document.
//
// Loading is all-or-nothing: malformed specs, duplicate compilers, missing
// includes and include cycles abort the load without returning a registry.
package document
