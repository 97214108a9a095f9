// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the extreg command tree.
//
// Every command loads the environment document chain named by --env (or the
// configured default), queries the resulting read-only registry and renders
// the answer as text, JSON or YAML. Commands never modify the process
// environment; `extreg env --shell` prints a script for the caller to
// evaluate instead.
package cmd
