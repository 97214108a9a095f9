// SPDX-License-Identifier: MPL-2.0

// Package spec parses and formats package spec strings.
//
// A spec names a package (or compiler) with an optional version, variant
// modifiers, a compiler binding and free-form key=value constraints:
//
//	openmpi@4.1.5~cuda+cxx%gcc@13.1.0 schedulers=slurm
//
// The same representation is used for registry entries and for resolution
// requests. On the request side an unset field means "don't care"; on the
// entry side it simply means "not declared".
//
// Equality ignores the order of variants and constraints, while String keeps
// constraints in the order they were written so output stays recognizable.
package spec
