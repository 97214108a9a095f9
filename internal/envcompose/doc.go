// SPDX-License-Identifier: MPL-2.0

// Package envcompose describes the environment needed to use resolved
// registry entries.
//
// Composition is pure. An Environment lists module loads, ordered variable
// mutations and extra library search paths; Apply evaluates it against a
// caller-provided base map and Script renders it as shell. The process
// environment is never read or written here.
package envcompose
