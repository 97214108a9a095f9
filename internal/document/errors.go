// SPDX-License-Identifier: MPL-2.0

package document

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingInclude is returned when an included document cannot be read.
	ErrMissingInclude = errors.New("included document could not be loaded")

	// ErrIncludeCycle is returned when a document includes itself, directly
	// or through other documents.
	ErrIncludeCycle = errors.New("include cycle")

	// ErrExternalNameMismatch is returned when an external's spec names a
	// different package than the packages key it is listed under.
	ErrExternalNameMismatch = errors.New("external spec does not match its package")

	// ErrInvalidVariableName is returned for an environment key that is not
	// a valid shell variable name.
	ErrInvalidVariableName = errors.New("invalid environment variable name")
)

type (
	// MissingIncludeError names the include that failed and the document
	// that requested it. It wraps both ErrMissingInclude and the underlying
	// file system error.
	MissingIncludeError struct {
		Path         string
		IncludedFrom string
		Err          error
	}

	// IncludeCycleError lists the include chain that closes the cycle; the
	// last element repeats an earlier one.
	IncludeCycleError struct {
		Chain []string
	}

	// ExternalNameMismatchError is returned for an external listed under the
	// wrong package key.
	ExternalNameMismatchError struct {
		Package string
		Spec    string
	}

	// DocumentError locates a failure inside one document.
	DocumentError struct {
		Path  string
		Field string
		Err   error
	}
)

// Error implements the error interface.
func (e *MissingIncludeError) Error() string {
	return fmt.Sprintf("%s (included from %s): %v", e.Path, e.IncludedFrom, e.Err)
}

// Unwrap returns ErrMissingInclude and the underlying error.
func (e *MissingIncludeError) Unwrap() []error { return []error{ErrMissingInclude, e.Err} }

// Error implements the error interface.
func (e *IncludeCycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrIncludeCycle, strings.Join(e.Chain, " -> "))
}

// Unwrap returns ErrIncludeCycle.
func (e *IncludeCycleError) Unwrap() error { return ErrIncludeCycle }

// Error implements the error interface.
func (e *ExternalNameMismatchError) Error() string {
	return fmt.Sprintf("external %q is listed under package %q", e.Spec, e.Package)
}

// Unwrap returns ErrExternalNameMismatch.
func (e *ExternalNameMismatchError) Unwrap() error { return ErrExternalNameMismatch }

// Error implements the error interface.
func (e *DocumentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *DocumentError) Unwrap() error { return e.Err }
