// SPDX-License-Identifier: MPL-2.0

// Package resolve matches request specs against a registry.
//
// A request passes through a fixed filter pipeline: name, version, variants,
// compiler binding, constraints and, for compilers, platform. Filters the
// request leaves unconstrained keep every candidate. Survivors stay in
// registration order and the last one is selected, so documents loaded later
// in the include chain win ties. An empty result is a *NoMatchError; several
// survivors are not an error and are logged at debug level.
package resolve
