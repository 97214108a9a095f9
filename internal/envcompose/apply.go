// SPDX-License-Identifier: MPL-2.0

package envcompose

import (
	"maps"
	"slices"
	"strings"

	"github.com/extreg/extreg/internal/registry"
)

// varPlan is the net effect of all mutations on one variable:
//
//	final = pre ++ (search paths, for the search variable) ++ prior ++ post
//
// where prior is the base value unless a set or unset replaced it.
type varPlan struct {
	name     string
	pre      []string
	prior    []string
	post     []string
	replaced bool
	exists   bool
}

// plan folds the mutations into one varPlan per variable, in the order the
// variables were first touched.
func (e Environment) plan() []*varPlan {
	var order []*varPlan
	byName := make(map[string]*varPlan)
	get := func(name string) *varPlan {
		if p, ok := byName[name]; ok {
			return p
		}
		p := &varPlan{name: name}
		byName[name] = p
		order = append(order, p)
		return p
	}

	for _, m := range e.Mutations {
		p := get(m.Name)
		switch m.Op {
		case registry.OpPrepend:
			p.pre = append([]string{m.Value}, p.pre...)
			p.exists = true
		case registry.OpAppend:
			p.post = append(p.post, m.Value)
			p.exists = true
		case registry.OpSet:
			p.pre, p.post = nil, nil
			p.prior = []string{m.Value}
			p.replaced, p.exists = true, true
		case registry.OpUnset:
			p.pre, p.post, p.prior = nil, nil, nil
			p.replaced, p.exists = true, false
		}
	}
	if len(e.SearchPaths) > 0 {
		get(e.searchVar()).exists = true
	}
	return order
}

// head is the part of a variable placed before its prior value.
func (e Environment) head(p *varPlan) []string {
	if p.name != e.searchVar() {
		return p.pre
	}
	return slices.Concat(p.pre, e.SearchPaths)
}

// Apply returns base with the environment applied. base is not modified;
// a nil base is treated as empty.
func (e Environment) Apply(base map[string]string) map[string]string {
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]string)
	}

	for _, p := range e.plan() {
		prior := p.prior
		if !p.replaced {
			prior = e.split(base[p.name])
		}
		list := slices.Concat(e.head(p), prior, p.post)
		switch {
		case len(list) > 0:
			out[p.name] = strings.Join(list, e.sep())
		case p.replaced && !p.exists:
			delete(out, p.name)
		}
	}
	return out
}

// SearchPath returns the search variable's entries after applying the
// environment to base.
func (e Environment) SearchPath(base map[string]string) []string {
	return e.split(e.Apply(base)[e.searchVar()])
}

// Variables returns the names of the variables the environment changes, in
// first-touch order.
func (e Environment) Variables() []string {
	plans := e.plan()
	names := make([]string, len(plans))
	for i, p := range plans {
		names[i] = p.name
	}
	return names
}

func (e Environment) split(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, e.sep())
}

func (e Environment) sep() string {
	if e.Separator == "" {
		return ":"
	}
	return e.Separator
}

func (e Environment) searchVar() string {
	if e.SearchVar == "" {
		return DefaultSearchVar
	}
	return e.SearchVar
}

// EnvironMap converts "KEY=VALUE" strings (as returned by os.Environ) into a
// map. Entries without "=" are skipped.
func EnvironMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		m[k] = v
	}
	return m
}
