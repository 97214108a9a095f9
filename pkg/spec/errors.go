// SPDX-License-Identifier: MPL-2.0

package spec

import (
	"errors"
	"fmt"
)

// ErrMalformedSpec is the sentinel error wrapped by MalformedSpecError.
var ErrMalformedSpec = errors.New("malformed spec")

// MalformedSpecError is returned when a spec string cannot be parsed.
// Offset is the byte offset of Fragment within Input.
type MalformedSpecError struct {
	Input    string
	Offset   int
	Fragment string
	Reason   string
}

// Error implements the error interface.
func (e *MalformedSpecError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("malformed spec %q: %s at offset %d", e.Input, e.Reason, e.Offset)
	}
	return fmt.Sprintf("malformed spec %q: %s at offset %d (near %q)", e.Input, e.Reason, e.Offset, e.Fragment)
}

// Unwrap returns ErrMalformedSpec for errors.Is() compatibility.
func (e *MalformedSpecError) Unwrap() error { return ErrMalformedSpec }
