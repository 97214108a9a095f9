// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"

	"github.com/extreg/extreg/pkg/platform"
	"github.com/extreg/extreg/pkg/spec"
)

var (
	// ErrDuplicateCompilerSpec is the sentinel error wrapped by DuplicateCompilerSpecError.
	ErrDuplicateCompilerSpec = errors.New("duplicate compiler spec")
	// ErrBuilderSealed is returned when a Builder is used after Build.
	ErrBuilderSealed = errors.New("registry builder already built")
)

// DuplicateCompilerSpecError is returned when a compiler with the same
// family, version and platform is registered twice.
type DuplicateCompilerSpecError struct {
	Spec        spec.CompilerRef
	Platform    platform.Platform
	FirstSource string
	Source      string
}

// Error implements the error interface.
func (e *DuplicateCompilerSpecError) Error() string {
	msg := fmt.Sprintf("compiler %s on %s is already registered", e.Spec, e.Platform)
	if e.FirstSource != "" {
		msg += " (first declared in " + e.FirstSource + ")"
	}
	return msg
}

// Unwrap returns ErrDuplicateCompilerSpec for errors.Is() compatibility.
func (e *DuplicateCompilerSpecError) Unwrap() error { return ErrDuplicateCompilerSpec }
