// SPDX-License-Identifier: MPL-2.0

package spec

import (
	"maps"
	"slices"
	"strings"
)

type (
	// Spec is the structured form of a spec string.
	Spec struct {
		// Name is the package or compiler family name. Always non-empty for a parsed spec.
		Name string
		// Version is the exact version token. Empty means unspecified.
		Version string
		// Variants maps a variant name to its sign: true for "+name", false for "~name".
		Variants map[string]bool
		// Compiler is the optional compiler binding introduced by "%".
		Compiler *CompilerRef
		// Constraints are the key=value pairs in the order they were written.
		Constraints []Constraint
	}

	// CompilerRef binds a spec to a compiler family and, optionally, a version.
	CompilerRef struct {
		Family  string
		Version string
	}

	// Constraint is a free-form key=value attribute such as fabrics=ucx.
	Constraint struct {
		Key   string
		Value string
	}
)

// String renders the compiler reference as family[@version].
func (c CompilerRef) String() string {
	if c.Version == "" {
		return c.Family
	}
	return c.Family + "@" + c.Version
}

// Matches reports whether the compiler reference want is satisfied by c.
// An empty version in want accepts any version of the same family.
func (c CompilerRef) Matches(want CompilerRef) bool {
	if c.Family != want.Family {
		return false
	}
	return want.Version == "" || c.Version == want.Version
}

// String renders the canonical form of the spec. Variants are sorted by
// name; constraints keep their declared order.
func (s Spec) String() string {
	var sb strings.Builder
	sb.WriteString(s.Name)
	if s.Version != "" {
		sb.WriteString("@")
		sb.WriteString(s.Version)
	}
	for _, name := range s.VariantNames() {
		if s.Variants[name] {
			sb.WriteString("+")
		} else {
			sb.WriteString("~")
		}
		sb.WriteString(name)
	}
	if s.Compiler != nil {
		sb.WriteString("%")
		sb.WriteString(s.Compiler.String())
	}
	for _, c := range s.Constraints {
		sb.WriteString(" ")
		sb.WriteString(c.Key)
		sb.WriteString("=")
		sb.WriteString(quoteValue(c.Value))
	}
	return sb.String()
}

// VariantNames returns the declared variant names in sorted order.
func (s Spec) VariantNames() []string {
	return slices.Sorted(maps.Keys(s.Variants))
}

// Variant reports the sign of a variant and whether it was declared at all.
func (s Spec) Variant(name string) (enabled, declared bool) {
	enabled, declared = s.Variants[name]
	return enabled, declared
}

// Constraint returns the value of the constraint with the given key.
func (s Spec) Constraint(key string) (string, bool) {
	for _, c := range s.Constraints {
		if c.Key == key {
			return c.Value, true
		}
	}
	return "", false
}

// ConstraintMap returns the constraints as a map.
func (s Spec) ConstraintMap() map[string]string {
	m := make(map[string]string, len(s.Constraints))
	for _, c := range s.Constraints {
		m[c.Key] = c.Value
	}
	return m
}

// IsPlain reports whether the spec carries only a name and a version.
func (s Spec) IsPlain() bool {
	return len(s.Variants) == 0 && s.Compiler == nil && len(s.Constraints) == 0
}

// Equal reports whether two specs are structurally identical. The order of
// variants and constraints is not significant.
func (s Spec) Equal(o Spec) bool {
	if s.Name != o.Name || s.Version != o.Version {
		return false
	}
	if len(s.Variants) != len(o.Variants) || !maps.Equal(s.Variants, o.Variants) {
		return false
	}
	switch {
	case s.Compiler == nil && o.Compiler != nil, s.Compiler != nil && o.Compiler == nil:
		return false
	case s.Compiler != nil && *s.Compiler != *o.Compiler:
		return false
	}
	return len(s.Constraints) == len(o.Constraints) && maps.Equal(s.ConstraintMap(), o.ConstraintMap())
}

// Clone returns a deep copy of the spec.
func (s Spec) Clone() Spec {
	out := Spec{
		Name:        s.Name,
		Version:     s.Version,
		Constraints: slices.Clone(s.Constraints),
	}
	if s.Variants != nil {
		out.Variants = maps.Clone(s.Variants)
	}
	if s.Compiler != nil {
		c := *s.Compiler
		out.Compiler = &c
	}
	return out
}

// quoteValue quotes a constraint value when it would not survive re-parsing
// as a bare word.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\r\n\"'\\") {
		return v
	}
	if !strings.ContainsAny(v, "'") {
		return "'" + v + "'"
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(v) + `"`
}
