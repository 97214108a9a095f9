// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"

	"github.com/extreg/extreg/pkg/spec"
)

// ErrNoMatch is the sentinel error wrapped by NoMatchError.
var ErrNoMatch = errors.New("no matching registry entry")

// NoMatchError is returned when the filter pipeline leaves no candidate.
// Stage names the filter that removed the last candidate.
type NoMatchError struct {
	Request spec.Spec
	Kind    Kind
	Stage   Stage
	// Considered is the number of entries registered under the request name.
	Considered int
}

// Error implements the error interface.
func (e *NoMatchError) Error() string {
	if e.Stage == StageName {
		return fmt.Sprintf("no %s named %q is registered", e.Kind, e.Request.Name)
	}
	return fmt.Sprintf("no %s matches %q: %d candidate(s) rejected by %s filter",
		e.Kind, e.Request.String(), e.Considered, e.Stage)
}

// Unwrap returns ErrNoMatch for errors.Is() compatibility.
func (e *NoMatchError) Unwrap() error { return ErrNoMatch }
