// SPDX-License-Identifier: MPL-2.0

package envcompose

import (
	"errors"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/extreg/extreg/internal/registry"
	"github.com/extreg/extreg/pkg/spec"
)

func prepend(name, value string) registry.Mutation {
	return registry.Mutation{Op: registry.OpPrepend, Name: name, Value: value}
}

func TestApply_SearchPathOrder(t *testing.T) {
	t.Parallel()

	env := NewComposer().Compose(Part{
		Label:       "gcc@11.1.0",
		Mutations:   []registry.Mutation{prepend("LD_LIBRARY_PATH", "C")},
		SearchPaths: []string{"A", "B"},
	})

	got := env.SearchPath(map[string]string{"LD_LIBRARY_PATH": "P1:P2"})
	want := []string{"C", "A", "B", "P1", "P2"}
	if !slices.Equal(got, want) {
		t.Errorf("SearchPath() = %v, want %v", got, want)
	}

	if got := env.SearchPath(nil); !slices.Equal(got, []string{"C", "A", "B"}) {
		t.Errorf("SearchPath(nil) = %v, want [C A B]", got)
	}
}

func TestApply_Operations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutations []registry.Mutation
		base      map[string]string
		want      map[string]string
	}{
		{
			name:      "prepend to existing",
			mutations: []registry.Mutation{prepend("PATH", "/a")},
			base:      map[string]string{"PATH": "/usr/bin"},
			want:      map[string]string{"PATH": "/a:/usr/bin"},
		},
		{
			name:      "later prepend goes first",
			mutations: []registry.Mutation{prepend("PATH", "/a"), prepend("PATH", "/b")},
			base:      map[string]string{"PATH": "/usr/bin"},
			want:      map[string]string{"PATH": "/b:/a:/usr/bin"},
		},
		{
			name: "append after prior",
			mutations: []registry.Mutation{
				{Op: registry.OpAppend, Name: "MANPATH", Value: "/m1"},
				{Op: registry.OpAppend, Name: "MANPATH", Value: "/m2"},
			},
			base: map[string]string{"MANPATH": "/usr/share/man"},
			want: map[string]string{"MANPATH": "/usr/share/man:/m1:/m2"},
		},
		{
			name: "set replaces prior and earlier prepends",
			mutations: []registry.Mutation{
				prepend("CC", "ignored"),
				{Op: registry.OpSet, Name: "CC", Value: "/opt/gcc/bin/gcc"},
			},
			base: map[string]string{"CC": "cc"},
			want: map[string]string{"CC": "/opt/gcc/bin/gcc"},
		},
		{
			name: "prepend after set keeps set value",
			mutations: []registry.Mutation{
				{Op: registry.OpSet, Name: "CPATH", Value: "/inc"},
				prepend("CPATH", "/first"),
			},
			want: map[string]string{"CPATH": "/first:/inc"},
		},
		{
			name:      "unset removes",
			mutations: []registry.Mutation{{Op: registry.OpUnset, Name: "CRAY_LD_LIBRARY_PATH"}},
			base:      map[string]string{"CRAY_LD_LIBRARY_PATH": "/opt/cray", "HOME": "/home/u"},
			want:      map[string]string{"HOME": "/home/u"},
		},
		{
			name:      "untouched variables survive",
			mutations: []registry.Mutation{prepend("PATH", "/a")},
			base:      map[string]string{"HOME": "/home/u"},
			want:      map[string]string{"HOME": "/home/u", "PATH": "/a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var before map[string]string
			if tt.base != nil {
				before = maps.Clone(tt.base)
			}
			env := NewComposer().Compose(Part{Mutations: tt.mutations})
			got := env.Apply(tt.base)

			if !maps.Equal(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
			if tt.base != nil && !maps.Equal(tt.base, before) {
				t.Errorf("Apply() modified base: %v", tt.base)
			}
		})
	}
}

func TestCompose_MergesParts(t *testing.T) {
	t.Parallel()

	gcc := registry.CompilerEntry{
		Spec:        spec.CompilerRef{Family: "gcc", Version: "11.1.0"},
		Modules:     []string{"gcc/11.1.0"},
		Environment: []registry.Mutation{prepend("LD_LIBRARY_PATH", "/opt/gcc/lib64")},
		ExtraRPaths: []string{"/opt/gcc/lib64", "/opt/gcc/lib"},
	}
	mpi := registry.ExternalEntry{
		Spec:    spec.MustParse("openmpi@4.1.1%gcc@11.1.0"),
		Prefix:  "/opt/openmpi",
		Modules: []string{"gcc/11.1.0", "openmpi/4.1.1"},
	}

	env := NewComposer().Compose(FromCompiler(gcc), FromExternal(mpi))

	if !slices.Equal(env.Parts, []string{"gcc@11.1.0", "openmpi@4.1.1%gcc@11.1.0"}) {
		t.Errorf("Parts = %v", env.Parts)
	}
	if !slices.Equal(env.Modules, []string{"gcc/11.1.0", "openmpi/4.1.1"}) {
		t.Errorf("Modules = %v, want deduplicated activation order", env.Modules)
	}
	if !slices.Equal(env.SearchPaths, []string{"/opt/gcc/lib64", "/opt/gcc/lib", "/opt/openmpi/lib", "/opt/openmpi/lib64"}) {
		t.Errorf("SearchPaths = %v", env.SearchPaths)
	}
	if !slices.Equal(env.Variables(), []string{"LD_LIBRARY_PATH", "PATH"}) {
		t.Errorf("Variables() = %v, want [LD_LIBRARY_PATH PATH]", env.Variables())
	}

	applied := env.Apply(map[string]string{"PATH": "/usr/bin"})
	if applied["PATH"] != "/opt/openmpi/bin:/usr/bin" {
		t.Errorf("PATH = %q, want /opt/openmpi/bin:/usr/bin", applied["PATH"])
	}
	wantLD := "/opt/gcc/lib64:/opt/gcc/lib64:/opt/gcc/lib:/opt/openmpi/lib:/opt/openmpi/lib64"
	if applied["LD_LIBRARY_PATH"] != wantLD {
		t.Errorf("LD_LIBRARY_PATH = %q, want %q", applied["LD_LIBRARY_PATH"], wantLD)
	}
}

func TestCompose_CustomSearchVarAndSeparator(t *testing.T) {
	t.Parallel()

	c := &Composer{SearchVar: "DYLD_LIBRARY_PATH", Separator: ";"}
	env := c.Compose(Part{SearchPaths: []string{`C:\a`, `C:\b`}})

	got := env.Apply(map[string]string{"DYLD_LIBRARY_PATH": `C:\prior`})
	if got["DYLD_LIBRARY_PATH"] != `C:\a;C:\b;C:\prior` {
		t.Errorf("DYLD_LIBRARY_PATH = %q", got["DYLD_LIBRARY_PATH"])
	}
	if _, ok := got[DefaultSearchVar]; ok {
		t.Errorf("%s should not be touched", DefaultSearchVar)
	}
}

func TestFromExternal_NoPrefix(t *testing.T) {
	t.Parallel()

	p := FromExternal(registry.ExternalEntry{Spec: spec.MustParse("slurm"), Modules: []string{"slurm"}})
	if len(p.Mutations) != 0 || len(p.SearchPaths) != 0 {
		t.Errorf("FromExternal() without prefix = %+v, want modules only", p)
	}
}

func TestScript(t *testing.T) {
	t.Parallel()

	env := NewComposer().Compose(Part{
		Modules: []string{"gcc/11.1.0"},
		Mutations: []registry.Mutation{
			prepend("PATH", "/opt/gcc/bin"),
			{Op: registry.OpAppend, Name: "MANPATH", Value: "/opt/gcc/man"},
			{Op: registry.OpSet, Name: "CC", Value: "/opt/gcc/bin/gcc"},
			{Op: registry.OpUnset, Name: "CRAYPE_LINK_TYPE"},
		},
		SearchPaths: []string{"/opt/gcc/lib64"},
	})

	script, err := env.Script()
	if err != nil {
		t.Fatalf("Script() unexpected error: %v", err)
	}

	wantLines := []string{
		"module load gcc/11.1.0",
		`export PATH=/opt/gcc/bin"${PATH:+:${PATH}}"`,
		`export MANPATH="${MANPATH:+${MANPATH}:}"/opt/gcc/man`,
		"export CC=/opt/gcc/bin/gcc",
		"unset CRAYPE_LINK_TYPE",
		`export LD_LIBRARY_PATH=/opt/gcc/lib64"${LD_LIBRARY_PATH:+:${LD_LIBRARY_PATH}}"`,
	}
	lines := strings.Split(strings.TrimSpace(script), "\n")
	if !slices.Equal(lines, wantLines) {
		t.Errorf("Script() =\n%s\nwant\n%s", script, strings.Join(wantLines, "\n"))
	}
}

func TestScript_QuotesSpecialCharacters(t *testing.T) {
	t.Parallel()

	env := NewComposer().Compose(Part{
		Mutations: []registry.Mutation{{Op: registry.OpSet, Name: "NOTE", Value: "a b; rm -rf /"}},
	})
	script, err := env.Script()
	if err != nil {
		t.Fatalf("Script() unexpected error: %v", err)
	}
	if script != "export NOTE='a b; rm -rf /'\n" {
		t.Errorf("Script() = %q", script)
	}
}

func TestScript_RejectsInvalidNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  Environment
	}{
		{
			name: "command in set name",
			env: NewComposer().Compose(Part{
				Mutations: []registry.Mutation{{Op: registry.OpSet, Name: "A=1; touch /tmp/x; B", Value: "x"}},
			}),
		},
		{
			name: "brace in prepend name",
			env:  NewComposer().Compose(Part{Mutations: []registry.Mutation{prepend("X}", "/opt")}}),
		},
		{
			name: "space in unset name",
			env: NewComposer().Compose(Part{
				Mutations: []registry.Mutation{{Op: registry.OpUnset, Name: "MY VAR"}},
			}),
		},
		{
			name: "substitution in search var",
			env:  (&Composer{SearchVar: "$(id)"}).Compose(Part{SearchPaths: []string{"/opt/lib"}}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			script, err := tt.env.Script()
			if !errors.Is(err, ErrInvalidVariableName) {
				t.Fatalf("Script() error = %v, want ErrInvalidVariableName", err)
			}
			if script != "" {
				t.Errorf("Script() = %q, want no output on error", script)
			}
		})
	}
}

func TestEnvironMap(t *testing.T) {
	t.Parallel()

	got := EnvironMap([]string{"HOME=/home/u", "EMPTY=", "A=b=c", "broken", "=C:=C:\\"})
	want := map[string]string{"HOME": "/home/u", "EMPTY": "", "A": "b=c"}
	if !maps.Equal(got, want) {
		t.Errorf("EnvironMap() = %v, want %v", got, want)
	}
}
