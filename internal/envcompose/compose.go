// SPDX-License-Identifier: MPL-2.0

package envcompose

import (
	"path/filepath"
	"slices"

	"github.com/extreg/extreg/internal/registry"
)

// DefaultSearchVar is the dynamic-linker search path variable.
const DefaultSearchVar = "LD_LIBRARY_PATH"

type (
	// Part is what one registry entry contributes to an environment.
	Part struct {
		// Label identifies the entry in rendered output (e.g. "gcc@11.1.0").
		Label       string
		Modules     []string
		Mutations   []registry.Mutation
		SearchPaths []string
	}

	// Composer merges parts into an Environment description.
	Composer struct {
		// SearchVar receives the extra search paths. Defaults to DefaultSearchVar.
		SearchVar string
		// Separator joins path lists. Defaults to ":".
		Separator string
	}

	// Environment describes the changes needed to use a set of entries. It
	// is a description only: nothing here touches the process environment.
	Environment struct {
		Parts       []string            `json:"parts" yaml:"parts"`
		Modules     []string            `json:"modules" yaml:"modules"`
		Mutations   []registry.Mutation `json:"mutations" yaml:"mutations"`
		SearchPaths []string            `json:"search_paths" yaml:"search_paths"`
		SearchVar   string              `json:"search_var" yaml:"search_var"`
		Separator   string              `json:"separator" yaml:"separator"`
	}
)

// NewComposer returns a composer with default settings.
func NewComposer() *Composer {
	return &Composer{SearchVar: DefaultSearchVar, Separator: ":"}
}

// FromCompiler describes the environment a compiler needs.
func FromCompiler(e registry.CompilerEntry) Part {
	return Part{
		Label:       e.Spec.String(),
		Modules:     slices.Clone(e.Modules),
		Mutations:   slices.Clone(e.Environment),
		SearchPaths: slices.Clone(e.ExtraRPaths),
	}
}

// FromExternal describes the environment an external package needs: its
// modules, <prefix>/bin on PATH and <prefix>/lib{,64} on the search path.
func FromExternal(e registry.ExternalEntry) Part {
	p := Part{
		Label:   e.Spec.String(),
		Modules: slices.Clone(e.Modules),
	}
	if e.Prefix == "" {
		return p
	}
	p.Mutations = []registry.Mutation{
		{Op: registry.OpPrepend, Name: "PATH", Value: filepath.Join(e.Prefix, "bin")},
	}
	p.SearchPaths = []string{
		filepath.Join(e.Prefix, "lib"),
		filepath.Join(e.Prefix, "lib64"),
	}
	return p
}

// Compose merges parts in order. Module loads and search paths keep their
// first occurrence; mutations are concatenated unchanged.
func (c *Composer) Compose(parts ...Part) Environment {
	env := Environment{
		SearchVar: c.SearchVar,
		Separator: c.Separator,
	}
	if env.SearchVar == "" {
		env.SearchVar = DefaultSearchVar
	}
	if env.Separator == "" {
		env.Separator = ":"
	}

	for _, p := range parts {
		env.Parts = append(env.Parts, p.Label)
		for _, m := range p.Modules {
			if !slices.Contains(env.Modules, m) {
				env.Modules = append(env.Modules, m)
			}
		}
		env.Mutations = append(env.Mutations, p.Mutations...)
		for _, sp := range p.SearchPaths {
			if !slices.Contains(env.SearchPaths, sp) {
				env.SearchPaths = append(env.SearchPaths, sp)
			}
		}
	}
	return env
}
