// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

const (
	// ExitOK is returned when the command succeeded.
	ExitOK = 0
	// ExitFailure is returned for load, configuration and usage errors.
	ExitFailure = 1
	// ExitNoMatch is returned when a request matched no registry entry.
	ExitNoMatch = 2
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE
// handlers. An ExitError with a nil Err has already been reported.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
