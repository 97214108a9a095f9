// SPDX-License-Identifier: MPL-2.0

package document

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"testing"

	"github.com/extreg/extreg/internal/registry"
	"github.com/extreg/extreg/internal/resolve"
	"github.com/extreg/extreg/internal/testutil"
	"github.com/extreg/extreg/pkg/cueutil"
	"github.com/extreg/extreg/pkg/spec"
)

const siteDocument = `spack:
  specs:
  - hdf5+mpi%gcc@11.1.0
  view: /opt/view
  compilers:
  - compiler:
      spec: gcc@11.1.0
      paths:
        cc: /opt/gcc/bin/gcc
        cxx: /opt/gcc/bin/g++
        f77: null
        fc: /opt/gcc/bin/gfortran
      flags:
        cflags: '-O2 "-DNAME=a b" $EXTRA'
        ldflags: ""
      operating_system: rhel8
      target: x86_64
      modules: [gcc/11.1.0]
      environment:
        set:
          CC: /opt/gcc/bin/gcc
        prepend_path:
          LD_LIBRARY_PATH: /opt/gcc/lib64
        unset: [CRAY_LD_LIBRARY_PATH]
      extra_rpaths: [/opt/gcc/lib64]
  packages:
    openmpi:
      buildable: false
      externals:
      - spec: openmpi@4.1.1%gcc@11.1.0 +cuda
        prefix: /opt/openmpi
        modules: [openmpi/4.1.1]
    cmake:
      externals:
      - spec: cmake@3.20.2
        prefix: /usr
`

func compilerDoc(specStr string) string {
	return `compilers:
- compiler:
    spec: ` + specStr + `
    paths: {cc: /usr/bin/cc}
    operating_system: rhel8
    target: x86_64
`
}

func TestLoad_Document(t *testing.T) {
	t.Parallel()

	path := testutil.WriteFile(t, t.TempDir(), "spack.yaml", siteDocument)
	chain, err := Load(t.Context(), path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	reg := chain.Registry

	gccs := slices.Collect(reg.AllCompilers("gcc"))
	if len(gccs) != 1 {
		t.Fatalf("AllCompilers(gcc) = %d entries, want 1", len(gccs))
	}
	gcc := gccs[0]

	if gcc.Paths[registry.RoleC] != "/opt/gcc/bin/gcc" || gcc.Paths[registry.RoleFortran] != "/opt/gcc/bin/gfortran" {
		t.Errorf("Paths = %v", gcc.Paths)
	}
	if _, ok := gcc.Paths[registry.RoleFortran77]; ok {
		t.Error("null f77 path should leave the role without a tool")
	}

	cflags, ok := gcc.Flag(registry.FlagCompile)
	if !ok || !slices.Equal(cflags, []string{"-O2", "-DNAME=a b", "$EXTRA"}) {
		t.Errorf("Flag(compile) = %q, %v", cflags, ok)
	}
	ldflags, ok := gcc.Flag(registry.FlagLink)
	if !ok || len(ldflags) != 0 {
		t.Errorf("Flag(link) = %q, %v; want explicit empty override", ldflags, ok)
	}
	if _, ok := gcc.Flag(registry.FlagCXXCompile); ok {
		t.Error("absent cxxflags should not be an override")
	}

	if gcc.Platform.OS != "rhel8" || gcc.Platform.Target != "x86_64" {
		t.Errorf("Platform = %v", gcc.Platform)
	}
	wantEnv := []registry.Mutation{
		{Op: registry.OpSet, Name: "CC", Value: "/opt/gcc/bin/gcc"},
		{Op: registry.OpPrepend, Name: "LD_LIBRARY_PATH", Value: "/opt/gcc/lib64"},
		{Op: registry.OpUnset, Name: "CRAY_LD_LIBRARY_PATH"},
	}
	if !slices.Equal(gcc.Environment, wantEnv) {
		t.Errorf("Environment = %v, want %v", gcc.Environment, wantEnv)
	}
	if !slices.Equal(gcc.ExtraRPaths, []string{"/opt/gcc/lib64"}) || !slices.Equal(gcc.Modules, []string{"gcc/11.1.0"}) {
		t.Errorf("ExtraRPaths = %v, Modules = %v", gcc.ExtraRPaths, gcc.Modules)
	}
	if gcc.Source != path {
		t.Errorf("Source = %q, want %q", gcc.Source, path)
	}

	mpis := slices.Collect(reg.AllExternals("openmpi"))
	if len(mpis) != 1 {
		t.Fatalf("AllExternals(openmpi) = %d entries, want 1", len(mpis))
	}
	if got := mpis[0].Spec.String(); got != "openmpi@4.1.1+cuda%gcc@11.1.0" {
		t.Errorf("openmpi spec = %q", got)
	}
	if mpis[0].Prefix != "/opt/openmpi" || !slices.Equal(mpis[0].Modules, []string{"openmpi/4.1.1"}) {
		t.Errorf("openmpi entry = %+v", mpis[0])
	}

	if buildable, declared := reg.Buildable("openmpi"); buildable || !declared {
		t.Errorf("Buildable(openmpi) = %v, %v; want false, true", buildable, declared)
	}
	if !slices.Equal(reg.PackageNames(), []string{"cmake", "openmpi"}) {
		t.Errorf("PackageNames() = %v", reg.PackageNames())
	}
	if roots := reg.RootSpecs(); len(roots) != 1 || roots[0].Name != "hdf5" {
		t.Errorf("RootSpecs() = %v", roots)
	}

	if len(chain.Documents) != 1 {
		t.Fatalf("Documents = %d, want 1", len(chain.Documents))
	}
	doc := chain.Documents[0]
	if doc.View != (View{Enabled: true, Path: "/opt/view"}) {
		t.Errorf("View = %+v", doc.View)
	}
	if doc.Compilers != 1 || doc.Externals != 2 || doc.Specs != 1 || doc.Format != cueutil.FormatYAML {
		t.Errorf("Document = %+v", doc)
	}
}

func TestLoad_IncludePrecedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFile(t, dir, "base/base.yaml", compilerDoc("gcc@11.1.0")+`packages:
  boost:
    externals:
    - spec: boost@1.67.0
      prefix: /usr
`)
	site := testutil.WriteFile(t, dir, "site.yaml", `include: [base/base.yaml]
packages:
  boost:
    externals:
    - spec: boost@1.67.0
      prefix: /opt/boost
`)

	chain, err := Load(t.Context(), site)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	boosts := slices.Collect(chain.Registry.AllExternals("boost"))
	if len(boosts) != 2 || boosts[0].Prefix != "/usr" || boosts[1].Prefix != "/opt/boost" {
		t.Fatalf("AllExternals(boost) = %+v, want base then site", boosts)
	}

	res, err := resolve.New(chain.Registry).ResolveExternal(spec.MustParse("boost@1.67.0"))
	if err != nil {
		t.Fatalf("ResolveExternal() unexpected error: %v", err)
	}
	if res.Selected.Prefix != "/opt/boost" || !res.Ambiguous() {
		t.Errorf("Selected = %+v, want the including document's entry", res.Selected)
	}

	if len(chain.Documents) != 2 || chain.Documents[1].Path != site {
		t.Errorf("Documents = %+v, want base before site", chain.Documents)
	}
	if want := filepath.Join(dir, "base", "base.yaml"); !slices.Equal(chain.Documents[1].Includes, []string{want}) {
		t.Errorf("Includes = %v, want [%s]", chain.Documents[1].Includes, want)
	}
}

func TestLoad_DuplicateCompilerAcrossInclude(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFile(t, dir, "base.yaml", compilerDoc("gcc@11.1.0"))
	site := testutil.WriteFile(t, dir, "site.yaml", "include: [base.yaml]\n"+compilerDoc("gcc@11.1.0"))

	chain, err := Load(t.Context(), site)
	if !errors.Is(err, registry.ErrDuplicateCompilerSpec) {
		t.Fatalf("Load() error = %v, want ErrDuplicateCompilerSpec", err)
	}
	if chain != nil {
		t.Error("Load() returned a registry alongside an error")
	}

	var dup *registry.DuplicateCompilerSpecError
	if !errors.As(err, &dup) {
		t.Fatalf("expected *DuplicateCompilerSpecError, got %T", err)
	}
	if dup.FirstSource != filepath.Join(dir, "base.yaml") || dup.Source != site {
		t.Errorf("sources = %q, %q", dup.FirstSource, dup.Source)
	}
}

func TestLoad_IncludeErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing include", func(t *testing.T) {
		t.Parallel()

		site := testutil.WriteFile(t, t.TempDir(), "site.yaml", "include: [nope.yaml]\n")
		_, err := Load(t.Context(), site)
		if !errors.Is(err, ErrMissingInclude) {
			t.Fatalf("Load() error = %v, want ErrMissingInclude", err)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("error should wrap fs.ErrNotExist, got: %v", err)
		}
		var miss *MissingIncludeError
		if !errors.As(err, &miss) || miss.IncludedFrom != site {
			t.Errorf("MissingIncludeError = %+v", miss)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		testutil.WriteFile(t, dir, "a.yaml", "include: [b.yaml]\n")
		testutil.WriteFile(t, dir, "b.yaml", "include: [a.yaml]\n")
		_, err := Load(t.Context(), filepath.Join(dir, "a.yaml"))
		if !errors.Is(err, ErrIncludeCycle) {
			t.Fatalf("Load() error = %v, want ErrIncludeCycle", err)
		}
		var cycle *IncludeCycleError
		if !errors.As(err, &cycle) || len(cycle.Chain) != 3 {
			t.Errorf("IncludeCycleError = %+v, want a -> b -> a", cycle)
		}
	})

	t.Run("self include", func(t *testing.T) {
		t.Parallel()

		self := testutil.WriteFile(t, t.TempDir(), "self.yaml", "include: [./self.yaml]\n")
		if _, err := Load(t.Context(), self); !errors.Is(err, ErrIncludeCycle) {
			t.Fatalf("Load() error = %v, want ErrIncludeCycle", err)
		}
	})

	t.Run("missing root document", func(t *testing.T) {
		t.Parallel()

		_, err := Load(t.Context(), filepath.Join(t.TempDir(), "absent.yaml"))
		if !errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrMissingInclude) {
			t.Fatalf("Load() error = %v, want a plain not-exist error", err)
		}
	})
}

func TestLoad_DiamondIncludeLoadsOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFile(t, dir, "common.yaml", compilerDoc("gcc@11.1.0"))
	testutil.WriteFile(t, dir, "left.yaml", "include: [common.yaml]\n")
	testutil.WriteFile(t, dir, "right.yaml", "include: [common.yaml]\n")
	top := testutil.WriteFile(t, dir, "top.yaml", "include: [left.yaml, right.yaml]\n")

	chain, err := Load(t.Context(), top)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if n := chain.Registry.NumCompilers(); n != 1 {
		t.Errorf("NumCompilers() = %d, want 1", n)
	}
	var order []string
	for _, d := range chain.Documents {
		order = append(order, filepath.Base(d.Path))
	}
	if !slices.Equal(order, []string{"common.yaml", "left.yaml", "right.yaml", "top.yaml"}) {
		t.Errorf("load order = %v", order)
	}
}

func TestLoad_IncludeExpansion(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFile(t, dir, "shared/compilers.yaml", compilerDoc("clang@14.0.0"))
	site := testutil.WriteFile(t, t.TempDir(), "site.yaml", "include: [\"${SITE_CONFIG}/compilers.yaml\"]\n")

	getenv := func(name string) string {
		if name == "SITE_CONFIG" {
			return filepath.Join(dir, "shared")
		}
		return ""
	}
	chain, err := Load(t.Context(), site, WithGetenv(getenv))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if n := len(slices.Collect(chain.Registry.AllCompilers("clang"))); n != 1 {
		t.Errorf("AllCompilers(clang) = %d entries, want 1", n)
	}
}

func TestLoad_DocumentErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		content   string
		wantErr   error
		wantField string
	}{
		{
			name:      "malformed external spec",
			content:   "packages:\n  zlib:\n    externals:\n    - spec: zlib@@1\n      prefix: /usr\n",
			wantErr:   spec.ErrMalformedSpec,
			wantField: "packages.zlib.externals[0].spec",
		},
		{
			name:      "compiler spec with variant",
			content:   compilerDoc("gcc@11.1.0+debug"),
			wantErr:   spec.ErrMalformedSpec,
			wantField: "compilers[0].compiler.spec",
		},
		{
			name:      "external under wrong package",
			content:   "packages:\n  mpi:\n    externals:\n    - spec: openmpi@4.1.1\n      prefix: /opt\n",
			wantErr:   ErrExternalNameMismatch,
			wantField: "packages.mpi.externals[0].spec",
		},
		{
			name:      "malformed root spec",
			content:   "specs: [hdf5, '+mpi']\n",
			wantErr:   spec.ErrMalformedSpec,
			wantField: "specs[1]",
		},
		{
			name:      "shell syntax in environment key",
			content:   compilerDoc("gcc@11.1.0") + "    environment:\n      set: {\"A=1; touch /tmp/x; B\": x}\n",
			wantErr:   ErrInvalidVariableName,
			wantField: "compilers[0].compiler.environment",
		},
		{
			name:      "space in unset name",
			content:   compilerDoc("gcc@11.1.0") + "    environment:\n      unset: [\"MY VAR\"]\n",
			wantErr:   ErrInvalidVariableName,
			wantField: "compilers[0].compiler.environment",
		},
		{
			name:      "command substitution in flags",
			content:   compilerDoc("gcc@11.1.0") + "    flags:\n      cflags: -O2 $(uname -m)\n",
			wantField: "compilers[0].compiler.flags.cflags",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := testutil.WriteFile(t, t.TempDir(), "env.yaml", tt.content)
			chain, err := Load(t.Context(), path)
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if chain != nil {
				t.Error("Load() returned a registry alongside an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
			var derr *DocumentError
			if !errors.As(err, &derr) {
				t.Fatalf("expected *DocumentError, got %T: %v", err, err)
			}
			if derr.Field != tt.wantField || derr.Path != path {
				t.Errorf("DocumentError = %s / %s, want %s", derr.Path, derr.Field, tt.wantField)
			}
		})
	}
}

func TestLoad_SchemaErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown top-level key", content: "compiler: []\n"},
		{name: "missing paths", content: "compilers:\n- compiler:\n    spec: gcc@11.1.0\n    operating_system: rhel8\n    target: x86_64\n"},
		{name: "missing target", content: "compilers:\n- compiler:\n    spec: gcc@11.1.0\n    paths: {}\n    operating_system: rhel8\n"},
		{name: "buildable not bool", content: "packages:\n  zlib:\n    buildable: maybe\n"},
		{name: "unknown environment op", content: compilerDoc("gcc@11.1.0") + "    environment:\n      remove: {A: b}\n"},
		{name: "external without spec", content: "packages:\n  zlib:\n    externals:\n    - prefix: /usr\n"},
		{name: "wrapper with sibling keys", content: "spack:\n  specs: [zlib]\nspecs: [hdf5]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := testutil.WriteFile(t, t.TempDir(), "env.yaml", tt.content)
			if _, err := Load(t.Context(), path); !errors.Is(err, cueutil.ErrInvalid) {
				t.Fatalf("Load() error = %v, want cueutil.ErrInvalid", err)
			}
		})
	}
}

func TestLoad_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "env.toml",
			content: `[[compilers]]
[compilers.compiler]
spec = "clang@14.0.0"
operating_system = "rhel8"
target = "x86_64"
[compilers.compiler.paths]
cc = "/usr/bin/clang"

[packages.zlib]
buildable = true
[[packages.zlib.externals]]
spec = "zlib@1.2.11"
prefix = "/usr"
`,
		},
		{
			name: "cue",
			file: "env.cue",
			content: `compilers: [{compiler: {
	spec: "clang@14.0.0"
	paths: cc: "/usr/bin/clang"
	operating_system: "rhel8"
	target:           "x86_64"
}}]
packages: zlib: {
	buildable: true
	externals: [{spec: "zlib@1.2.11", prefix: "/usr"}]
}
`,
		},
		{
			name:    "json",
			file:    "env.json",
			content: `{"compilers": [{"compiler": {"spec": "clang@14.0.0", "paths": {"cc": "/usr/bin/clang"}, "operating_system": "rhel8", "target": "x86_64"}}], "packages": {"zlib": {"buildable": true, "externals": [{"spec": "zlib@1.2.11", "prefix": "/usr"}]}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := testutil.WriteFile(t, t.TempDir(), tt.file, tt.content)
			chain, err := Load(t.Context(), path)
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			reg := chain.Registry
			if reg.NumCompilers() != 1 || reg.NumExternals() != 1 {
				t.Errorf("NumCompilers() = %d, NumExternals() = %d", reg.NumCompilers(), reg.NumExternals())
			}
			if buildable, declared := reg.Buildable("zlib"); !buildable || !declared {
				t.Errorf("Buildable(zlib) = %v, %v", buildable, declared)
			}
		})
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := testutil.WriteFile(t, t.TempDir(), "env.ini", "x=1\n")
	if _, err := Load(t.Context(), path); !errors.Is(err, cueutil.ErrUnsupportedFormat) {
		t.Fatalf("Load() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	path := testutil.WriteFile(t, t.TempDir(), "env.yaml", siteDocument)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := Load(ctx, path); !errors.Is(err, context.Canceled) {
		t.Fatalf("Load() error = %v, want context.Canceled", err)
	}
}
