// SPDX-License-Identifier: MPL-2.0

package platform

// OS name constants for runtime.GOOS comparisons.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// ListSeparator returns the path-list separator used by the given GOOS value.
func ListSeparator(goos string) string {
	if goos == Windows {
		return ";"
	}
	return ":"
}
