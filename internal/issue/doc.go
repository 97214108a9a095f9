// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of markdown issue
// pages rendered with glamour.
package issue
