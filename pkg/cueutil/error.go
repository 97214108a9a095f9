// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ErrInvalid is wrapped by every ValidationError.
var ErrInvalid = errors.New("invalid document")

type (
	// ValidationError lists the problems CUE found in one input.
	ValidationError struct {
		// FilePath is the input being validated.
		FilePath string
		// Problems holds one entry per CUE error, in CUE's order.
		Problems []Problem
	}

	// Problem is a single CUE error located by path and position.
	Problem struct {
		// Path is the JSON-style path to the offending value (e.g.
		// "compilers[0].compiler.spec"). Empty for syntax errors.
		Path string
		// Line is the 1-based source line, or 0 when unknown.
		Line    int
		Message string
	}
)

// Error implements the error interface.
func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		lines[i] = p.String()
	}
	if len(lines) == 1 {
		return fmt.Sprintf("%s: %s", e.FilePath, lines[0])
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.FilePath, strings.Join(lines, "\n  "))
}

// Unwrap returns ErrInvalid.
func (e *ValidationError) Unwrap() error { return ErrInvalid }

// String renders the problem as "path: message (line N)".
func (p Problem) String() string {
	var sb strings.Builder
	if p.Path != "" {
		sb.WriteString(p.Path)
		sb.WriteString(": ")
	}
	sb.WriteString(p.Message)
	if p.Line > 0 {
		fmt.Fprintf(&sb, " (line %d)", p.Line)
	}
	return sb.String()
}

// FormatError converts a CUE error into a *ValidationError whose problems
// carry JSON-style paths, e.g.
//
//	env.yaml: compilers[0].compiler.paths.cc: conflicting values 3 and string
//
// Errors that do not come from CUE are wrapped with the file path.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	cueErrs := cueerrors.Errors(err)
	if len(cueErrs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	verr := &ValidationError{FilePath: filePath}
	for _, e := range cueErrs {
		pathStr := formatPath(cueerrors.Path(e))
		msg := e.Error()

		// CUE sometimes repeats the path at the start of the message.
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimPrefix(msg, pathStr)
			msg = strings.TrimPrefix(msg, ":")
			msg = strings.TrimSpace(msg)
		}

		p := Problem{Path: pathStr, Message: msg}
		if pos := e.Position(); pos.IsValid() {
			p.Line = pos.Line()
		}
		verr.Problems = append(verr.Problems, p)
	}
	return verr
}

// formatPath converts a CUE error path (["compilers", "0", "spec"]) to
// JSON-path notation ("compilers[0].spec"). A leading schema definition
// label is dropped.
func formatPath(path []string) string {
	if len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}
	if len(path) == 0 {
		return ""
	}

	var result strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			result.WriteString("[")
			result.WriteString(part)
			result.WriteString("]")
			continue
		}
		if i > 0 {
			result.WriteString(".")
		}
		result.WriteString(part)
	}
	return result.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize verifies that data does not exceed maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), maxSize)
	}
	return nil
}
