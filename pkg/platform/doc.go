// SPDX-License-Identifier: MPL-2.0

// Package platform describes the (operating system, target) pair a compiler
// entry is valid for, and detects the host's pair.
//
// The operating system is a distribution token such as "rhel8" or
// "ubuntu22.04", not the Go GOOS value; the target is a microarchitecture
// family such as "x86_64" or "zen2".
package platform
