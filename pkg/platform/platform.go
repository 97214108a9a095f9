// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPlatform is the sentinel error wrapped by InvalidPlatformError.
var ErrInvalidPlatform = errors.New("invalid platform")

type (
	// Platform is the (operating system, target) pair a compiler entry is
	// valid for. Both parts are compared verbatim.
	Platform struct {
		OS     string
		Target string
	}

	// InvalidPlatformError is returned when a platform string cannot be split
	// into an operating system and a target.
	InvalidPlatformError struct {
		Value string
	}
)

// String renders the platform as "os-target".
func (p Platform) String() string {
	return p.OS + "-" + p.Target
}

// IsZero reports whether neither part is set.
func (p Platform) IsZero() bool {
	return p.OS == "" && p.Target == ""
}

// Matches reports whether p satisfies the filter want. Empty parts of want
// match anything.
func (p Platform) Matches(want Platform) bool {
	if want.OS != "" && p.OS != want.OS {
		return false
	}
	return want.Target == "" || p.Target == want.Target
}

// IsValid returns whether both parts are non-empty.
func (p Platform) IsValid() (bool, []error) {
	if strings.TrimSpace(p.OS) == "" || strings.TrimSpace(p.Target) == "" {
		return false, []error{&InvalidPlatformError{Value: p.String()}}
	}
	return true, nil
}

// Parse reads "os-target" or the three-part "platform-os-target" form
// (e.g. "linux-rhel8-zen2"). The target is everything after the last dash.
func Parse(s string) (Platform, error) {
	s = strings.TrimSpace(s)
	idx := strings.LastIndex(s, "-")
	if idx <= 0 || idx == len(s)-1 {
		return Platform{}, &InvalidPlatformError{Value: s}
	}
	osPart, target := s[:idx], s[idx+1:]
	if prefix, rest, ok := strings.Cut(osPart, "-"); ok && isKernelName(prefix) {
		if rest == "" {
			return Platform{}, &InvalidPlatformError{Value: s}
		}
		osPart = rest
	}
	return Platform{OS: osPart, Target: target}, nil
}

func isKernelName(s string) bool {
	return s == Linux || s == Darwin || s == Windows || s == "cray"
}

// Error implements the error interface for InvalidPlatformError.
func (e *InvalidPlatformError) Error() string {
	return fmt.Sprintf("invalid platform %q: expected os-target", e.Value)
}

// Unwrap returns ErrInvalidPlatform for errors.Is() compatibility.
func (e *InvalidPlatformError) Unwrap() error { return ErrInvalidPlatform }
