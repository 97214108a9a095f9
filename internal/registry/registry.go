// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"iter"
	"slices"

	"github.com/extreg/extreg/pkg/spec"
)

// Registry is the read-only result of a load phase. It has no mutation
// methods, so concurrent queries need no locking.
type Registry struct {
	st store
}

// AllCompilers yields the compilers of a family in registration order. The
// sequence is lazy and can be ranged over any number of times.
func (r *Registry) AllCompilers(family string) iter.Seq[CompilerEntry] {
	return func(yield func(CompilerEntry) bool) {
		for _, e := range r.st.compilers[family] {
			if !yield(e.clone()) {
				return
			}
		}
	}
}

// Compilers yields every compiler, grouped by family in the order families
// were first registered.
func (r *Registry) Compilers() iter.Seq[CompilerEntry] {
	return func(yield func(CompilerEntry) bool) {
		for _, family := range r.st.families {
			for _, e := range r.st.compilers[family] {
				if !yield(e.clone()) {
					return
				}
			}
		}
	}
}

// AllExternals yields the externals registered under name in registration
// order.
func (r *Registry) AllExternals(name string) iter.Seq[ExternalEntry] {
	return func(yield func(ExternalEntry) bool) {
		for _, e := range r.st.externals[name] {
			if !yield(e.clone()) {
				return
			}
		}
	}
}

// CompilerFamilies returns the registered compiler families, sorted.
func (r *Registry) CompilerFamilies() []string {
	return slices.Sorted(slices.Values(r.st.families))
}

// PackageNames returns the names with at least one external, sorted.
func (r *Registry) PackageNames() []string {
	return slices.Sorted(slices.Values(r.st.names))
}

// Buildable reports the buildable policy for a package and whether a policy
// was declared. Undeclared packages are buildable.
func (r *Registry) Buildable(name string) (buildable, declared bool) {
	buildable, declared = r.st.buildable[name]
	if !declared {
		return true, false
	}
	return buildable, true
}

// RootSpecs returns the requested root specs in document order.
func (r *Registry) RootSpecs() []spec.Spec {
	out := make([]spec.Spec, len(r.st.roots))
	for i, s := range r.st.roots {
		out[i] = s.Clone()
	}
	return out
}

// NumCompilers returns the total number of registered compilers.
func (r *Registry) NumCompilers() int {
	n := 0
	for _, entries := range r.st.compilers {
		n += len(entries)
	}
	return n
}

// NumExternals returns the total number of registered externals.
func (r *Registry) NumExternals() int {
	n := 0
	for _, entries := range r.st.externals {
		n += len(entries)
	}
	return n
}
