// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"bufio"
	"bytes"
	"os"
	"runtime"
	"strings"
	"sync"
)

// osReleasePath is the freedesktop os-release file read for the OS token.
const osReleasePath = "/etc/os-release"

// hostOnce caches the host detection for the lifetime of the process.
//
// INVARIANT: detectHostFrom MUST NOT panic; sync.OnceValue re-panics on every
// call after a panic.
var hostOnce = sync.OnceValue(func() Platform {
	return detectHostFrom(runtime.GOOS, runtime.GOARCH, os.ReadFile)
})

// Host returns the detected platform of the running machine.
func Host() Platform {
	return hostOnce()
}

// detectHostFrom derives the host platform using injectable lookups.
// On Linux the OS token is ID plus the major VERSION_ID from os-release
// ("rhel8", "ubuntu22.04" keeps its full version for Ubuntu-likes).
func detectHostFrom(goos, goarch string, readFile func(string) ([]byte, error)) Platform {
	p := Platform{OS: goos, Target: targetFor(goarch)}
	if goos != Linux {
		return p
	}

	data, err := readFile(osReleasePath)
	if err != nil {
		return p
	}
	fields := parseOSRelease(data)
	id := fields["ID"]
	if id == "" {
		return p
	}
	version := fields["VERSION_ID"]
	if id != "ubuntu" {
		version, _, _ = strings.Cut(version, ".")
	}
	p.OS = id + version
	return p
}

// targetFor maps GOARCH values to the target family names used in
// environment documents.
func targetFor(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "386":
		return "x86"
	default:
		return goarch
	}
}

func parseOSRelease(data []byte) map[string]string {
	fields := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = strings.Trim(value, `"'`)
	}
	return fields
}
