// SPDX-License-Identifier: MPL-2.0

package document

import (
	_ "embed"
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"mvdan.cc/sh/v3/shell"
	"mvdan.cc/sh/v3/syntax"

	"github.com/extreg/extreg/internal/registry"
	"github.com/extreg/extreg/pkg/platform"
)

//go:embed document_schema.cue
var schemaBytes []byte

// wrapperKey is the optional single top-level key wrapping a document.
const wrapperKey = "spack"

var (
	toolKeys = []struct {
		key  string
		role registry.ToolRole
	}{
		{"cc", registry.RoleC},
		{"cxx", registry.RoleCXX},
		{"f77", registry.RoleFortran77},
		{"fc", registry.RoleFortran},
	}

	flagKeys = []struct {
		key   string
		class registry.FlagClass
	}{
		{"cflags", registry.FlagCompile},
		{"cxxflags", registry.FlagCXXCompile},
		{"fflags", registry.FlagFortranCompile},
		{"ldflags", registry.FlagLink},
	}

	envOps = map[string]registry.MutationOp{
		"prepend_path": registry.OpPrepend,
		"set":          registry.OpSet,
		"append_path":  registry.OpAppend,
		"unset":        registry.OpUnset,
	}

	errBadFlag = errors.New("flags must be a string or a list of strings")
)

type (
	documentData struct {
		Specs     []string               `json:"specs"`
		View      any                    `json:"view"`
		Include   []string               `json:"include"`
		Compilers []compilerItem         `json:"compilers"`
		Packages  map[string]packageData `json:"packages"`
	}

	compilerItem struct {
		Compiler compilerData `json:"compiler"`
	}

	compilerData struct {
		Spec            string             `json:"spec"`
		Paths           map[string]*string `json:"paths"`
		Flags           map[string]any     `json:"flags"`
		OperatingSystem string             `json:"operating_system"`
		Target          string             `json:"target"`
		Modules         []string           `json:"modules"`
		ExtraRPaths     []string           `json:"extra_rpaths"`
	}

	packageData struct {
		Externals []externalData `json:"externals"`
		Buildable *bool          `json:"buildable"`
	}

	externalData struct {
		Spec    string   `json:"spec"`
		Prefix  string   `json:"prefix"`
		Modules []string `json:"modules"`
	}
)

// compilerDecl converts decoded compiler data. env is the compiler's
// environment mapping from the undecoded document, so mutations keep their
// declaration order.
func compilerDecl(c compilerData, env cue.Value, source string) (registry.CompilerDecl, string, error) {
	decl := registry.CompilerDecl{
		Spec:        c.Spec,
		Platform:    platform.Platform{OS: c.OperatingSystem, Target: c.Target},
		Modules:     c.Modules,
		ExtraRPaths: c.ExtraRPaths,
		Source:      source,
	}

	for _, tk := range toolKeys {
		if p := c.Paths[tk.key]; p != nil {
			if decl.Paths == nil {
				decl.Paths = make(map[registry.ToolRole]string)
			}
			decl.Paths[tk.role] = *p
		}
	}

	for _, fk := range flagKeys {
		raw, ok := c.Flags[fk.key]
		if !ok || raw == nil {
			continue
		}
		tokens, err := flagTokens(raw)
		if err != nil {
			return registry.CompilerDecl{}, "flags." + fk.key, err
		}
		if decl.Flags == nil {
			decl.Flags = make(map[registry.FlagClass][]string)
		}
		decl.Flags[fk.class] = tokens
	}

	mutations, err := environment(env)
	if err != nil {
		return registry.CompilerDecl{}, "environment", err
	}
	decl.Environment = mutations
	return decl, "", nil
}

// flagTokens splits a flag string with POSIX shell word rules. Parameter
// references are kept literally; command substitution is rejected. A list
// is taken as already tokenised. The result is never nil, so an empty
// value stays an explicit empty override.
func flagTokens(raw any) ([]string, error) {
	switch v := raw.(type) {
	case string:
		tokens, err := shell.Fields(v, func(name string) string { return "$" + name })
		if err != nil {
			return nil, fmt.Errorf("cannot split %q: %w", v, err)
		}
		if tokens == nil {
			tokens = []string{}
		}
		return tokens, nil
	case []any:
		tokens := make([]string, 0, len(v))
		for _, t := range v {
			s, ok := t.(string)
			if !ok {
				return nil, errBadFlag
			}
			tokens = append(tokens, s)
		}
		return tokens, nil
	default:
		return nil, errBadFlag
	}
}

// environment walks an environment mapping in declaration order. Every
// variable name must be a valid shell name.
func environment(env cue.Value) ([]registry.Mutation, error) {
	if !env.Exists() || env.IsNull() {
		return nil, nil
	}

	ops, err := env.Fields()
	if err != nil {
		return nil, err
	}
	var out []registry.Mutation
	for ops.Next() {
		key := ops.Selector().Unquoted()
		op, ok := envOps[key]
		if !ok {
			return nil, fmt.Errorf("unknown environment operation %q", key)
		}
		v := ops.Value()
		if v.IsNull() {
			continue
		}

		if op == registry.OpUnset && v.Kind() == cue.ListKind {
			var names []string
			if err := v.Decode(&names); err != nil {
				return nil, err
			}
			for _, n := range names {
				if !syntax.ValidName(n) {
					return nil, fmt.Errorf("%s: %w %q", key, ErrInvalidVariableName, n)
				}
				out = append(out, registry.Mutation{Op: op, Name: n})
			}
			continue
		}

		vars, err := v.Fields()
		if err != nil {
			return nil, err
		}
		for vars.Next() {
			m := registry.Mutation{Op: op, Name: vars.Selector().Unquoted()}
			if !syntax.ValidName(m.Name) {
				return nil, fmt.Errorf("%s: %w %q", key, ErrInvalidVariableName, m.Name)
			}
			if op != registry.OpUnset {
				if m.Value, err = scalar(vars.Value()); err != nil {
					return nil, fmt.Errorf("%s.%s: %w", key, m.Name, err)
				}
			}
			out = append(out, m)
		}
	}
	return out, nil
}

// scalar renders a string, number or bool as the text a shell would see.
func scalar(v cue.Value) (string, error) {
	if v.Kind() == cue.StringKind {
		return v.String()
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// view interprets the view key: a bool, or a path meaning enabled.
func view(raw any) View {
	switch v := raw.(type) {
	case bool:
		return View{Enabled: v}
	case string:
		return View{Enabled: true, Path: v}
	default:
		return View{}
	}
}
