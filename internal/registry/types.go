// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"maps"
	"slices"

	"github.com/extreg/extreg/pkg/platform"
	"github.com/extreg/extreg/pkg/spec"
)

const (
	// RoleC is the C compiler driver.
	RoleC ToolRole = "c"
	// RoleCXX is the C++ compiler driver.
	RoleCXX ToolRole = "cxx"
	// RoleFortran77 is the fixed-form Fortran driver.
	RoleFortran77 ToolRole = "fortran77"
	// RoleFortran is the free-form Fortran driver.
	RoleFortran ToolRole = "fortran"

	// FlagCompile holds C compile flags.
	FlagCompile FlagClass = "compile"
	// FlagCXXCompile holds C++ compile flags.
	FlagCXXCompile FlagClass = "cxx-compile"
	// FlagFortranCompile holds Fortran compile flags.
	FlagFortranCompile FlagClass = "fortran-compile"
	// FlagLink holds linker flags.
	FlagLink FlagClass = "link"

	// OpPrepend prepends a value to a path-list variable.
	OpPrepend MutationOp = "prepend"
	// OpSet overwrites a variable.
	OpSet MutationOp = "set"
	// OpAppend appends a value to a path-list variable.
	OpAppend MutationOp = "append"
	// OpUnset removes a variable.
	OpUnset MutationOp = "unset"
)

type (
	// ToolRole names the language a compiler driver serves.
	ToolRole string

	// FlagClass names a group of compiler or linker flags.
	FlagClass string

	// MutationOp is an environment mutation operation.
	MutationOp string

	// Mutation is one environment change, applied in declaration order.
	Mutation struct {
		Op    MutationOp `json:"op" yaml:"op"`
		Name  string     `json:"name" yaml:"name"`
		Value string     `json:"value,omitempty" yaml:"value,omitempty"`
	}

	// CompilerDecl is a compiler as declared in a document, before its spec
	// string is parsed.
	CompilerDecl struct {
		// Spec is the compiler spec string, exactly family@version.
		Spec string
		// Paths maps a tool role to an absolute driver path.
		Paths map[ToolRole]string
		// Flags maps a flag class to its tokens. A missing key means no
		// override; an empty slice is an explicit empty override.
		Flags       map[FlagClass][]string
		Platform    platform.Platform
		Modules     []string
		Environment []Mutation
		ExtraRPaths []string
		// Source is the document the compiler was declared in.
		Source string
	}

	// CompilerEntry is a registered compiler.
	CompilerEntry struct {
		Spec        spec.CompilerRef
		Paths       map[ToolRole]string
		Flags       map[FlagClass][]string
		Platform    platform.Platform
		Modules     []string
		Environment []Mutation
		ExtraRPaths []string
		Source      string
	}

	// ExternalDecl is an external package as declared in a document.
	ExternalDecl struct {
		Spec    string
		Prefix  string
		Modules []string
		Source  string
	}

	// ExternalEntry is a registered external package. Prefix existence is
	// not verified at registration.
	ExternalEntry struct {
		Spec    spec.Spec
		Prefix  string
		Modules []string
		Source  string
	}
)

// AllRoles lists tool roles in display order.
func AllRoles() []ToolRole {
	return []ToolRole{RoleC, RoleCXX, RoleFortran77, RoleFortran}
}

// AllFlagClasses lists flag classes in display order.
func AllFlagClasses() []FlagClass {
	return []FlagClass{FlagCompile, FlagCXXCompile, FlagFortranCompile, FlagLink}
}

// String renders the compiler as family@version.
func (e CompilerEntry) String() string {
	return e.Spec.String()
}

// Flag returns the tokens for a flag class and whether an override exists.
func (e CompilerEntry) Flag(class FlagClass) ([]string, bool) {
	tokens, ok := e.Flags[class]
	return slices.Clone(tokens), ok
}

// clone returns a deep copy so callers cannot reach registry-owned state.
func (e CompilerEntry) clone() CompilerEntry {
	out := e
	out.Paths = maps.Clone(e.Paths)
	if e.Flags != nil {
		out.Flags = make(map[FlagClass][]string, len(e.Flags))
		for k, v := range e.Flags {
			out.Flags[k] = slices.Clone(v)
			if out.Flags[k] == nil {
				out.Flags[k] = []string{}
			}
		}
	}
	out.Modules = slices.Clone(e.Modules)
	out.Environment = slices.Clone(e.Environment)
	out.ExtraRPaths = slices.Clone(e.ExtraRPaths)
	return out
}

// String renders the external's spec.
func (e ExternalEntry) String() string {
	return e.Spec.String()
}

func (e ExternalEntry) clone() ExternalEntry {
	out := e
	out.Spec = e.Spec.Clone()
	out.Modules = slices.Clone(e.Modules)
	return out
}
