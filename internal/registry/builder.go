// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"fmt"
	"maps"
	"slices"

	"github.com/extreg/extreg/pkg/platform"
	"github.com/extreg/extreg/pkg/spec"
)

type (
	// Builder accumulates entries during the load phase. It is not safe for
	// concurrent use; loading is sequential by design of the include chain.
	Builder struct {
		st     store
		sealed bool
	}

	compilerKey struct {
		family   string
		version  string
		platform platform.Platform
	}

	// store is the shared backing data of Builder and Registry.
	store struct {
		compilers   map[string][]CompilerEntry
		families    []string
		compilerIdx map[compilerKey]int
		externals   map[string][]ExternalEntry
		names       []string
		buildable   map[string]bool
		roots       []spec.Spec
	}
)

// NewBuilder returns an empty registry builder.
func NewBuilder() *Builder {
	return &Builder{st: store{
		compilers:   make(map[string][]CompilerEntry),
		compilerIdx: make(map[compilerKey]int),
		externals:   make(map[string][]ExternalEntry),
		buildable:   make(map[string]bool),
	}}
}

// RegisterCompiler parses and adds a compiler. A compiler whose family,
// version and platform are already registered fails with
// *DuplicateCompilerSpecError; the earlier entry is never replaced.
func (b *Builder) RegisterCompiler(decl CompilerDecl) (CompilerEntry, error) {
	if b.sealed {
		return CompilerEntry{}, ErrBuilderSealed
	}

	ref, err := spec.ParseCompiler(decl.Spec)
	if err != nil {
		return CompilerEntry{}, err
	}
	if ok, errs := decl.Platform.IsValid(); !ok {
		return CompilerEntry{}, fmt.Errorf("compiler %s: %w", ref, errs[0])
	}

	key := compilerKey{family: ref.Family, version: ref.Version, platform: decl.Platform}
	if idx, exists := b.st.compilerIdx[key]; exists {
		return CompilerEntry{}, &DuplicateCompilerSpecError{
			Spec:        ref,
			Platform:    decl.Platform,
			FirstSource: b.st.compilers[ref.Family][idx].Source,
			Source:      decl.Source,
		}
	}

	entry := CompilerEntry{
		Spec:        ref,
		Paths:       decl.Paths,
		Flags:       decl.Flags,
		Platform:    decl.Platform,
		Modules:     decl.Modules,
		Environment: decl.Environment,
		ExtraRPaths: decl.ExtraRPaths,
		Source:      decl.Source,
	}.clone()

	if _, seen := b.st.compilers[ref.Family]; !seen {
		b.st.families = append(b.st.families, ref.Family)
	}
	b.st.compilerIdx[key] = len(b.st.compilers[ref.Family])
	b.st.compilers[ref.Family] = append(b.st.compilers[ref.Family], entry)
	return entry.clone(), nil
}

// RegisterExternal parses and adds an external package. Entries sharing a
// name are kept side by side in declaration order; the only failure is a
// malformed spec string.
func (b *Builder) RegisterExternal(decl ExternalDecl) (ExternalEntry, error) {
	if b.sealed {
		return ExternalEntry{}, ErrBuilderSealed
	}

	sp, err := spec.Parse(decl.Spec)
	if err != nil {
		return ExternalEntry{}, err
	}

	entry := ExternalEntry{
		Spec:    sp,
		Prefix:  decl.Prefix,
		Modules: slices.Clone(decl.Modules),
		Source:  decl.Source,
	}
	if _, seen := b.st.externals[sp.Name]; !seen {
		b.st.names = append(b.st.names, sp.Name)
	}
	b.st.externals[sp.Name] = append(b.st.externals[sp.Name], entry)
	return entry.clone(), nil
}

// SetBuildable records the buildable policy for a package name. Later calls
// override earlier ones, matching include precedence.
func (b *Builder) SetBuildable(name string, buildable bool) error {
	if b.sealed {
		return ErrBuilderSealed
	}
	b.st.buildable[name] = buildable
	return nil
}

// AddRootSpecs parses and appends requested root specs. Either every spec is
// added or none is.
func (b *Builder) AddRootSpecs(specs ...string) error {
	if b.sealed {
		return ErrBuilderSealed
	}
	parsed := make([]spec.Spec, 0, len(specs))
	for _, s := range specs {
		sp, err := spec.Parse(s)
		if err != nil {
			return err
		}
		parsed = append(parsed, sp)
	}
	b.st.roots = append(b.st.roots, parsed...)
	return nil
}

// Build freezes the accumulated entries into a read-only Registry. The
// builder rejects further registrations afterwards.
func (b *Builder) Build() *Registry {
	b.sealed = true
	st := b.st
	st.buildable = maps.Clone(b.st.buildable)
	return &Registry{st: st}
}
