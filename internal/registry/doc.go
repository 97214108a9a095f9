// SPDX-License-Identifier: MPL-2.0

// Package registry stores compiler and external package entries.
//
// Loading and querying are separate types. A Builder accumulates entries
// while documents are read, in include order; Build freezes them into a
// Registry that only answers queries. Entries are append-only: a later
// document never overwrites an earlier entry, it adds a candidate that the
// resolver prefers on ties. Compilers are the exception to "always add": the
// same family, version and platform registered twice is a configuration
// error.
package registry
