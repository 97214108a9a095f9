// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/extreg/extreg/internal/envcompose"
	"github.com/extreg/extreg/internal/registry"
	"github.com/extreg/extreg/internal/resolve"
	"github.com/extreg/extreg/pkg/platform"
	"github.com/extreg/extreg/pkg/spec"
)

// resolvedVar is one variable after the environment is applied to the
// current process environment.
type resolvedVar struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
	Unset bool   `json:"unset,omitempty" yaml:"unset,omitempty"`
}

var errNothingToCompose = errors.New("give a package spec, --compiler, or both")

func newEnvCommand(app *App) *cobra.Command {
	var (
		compilerReq string
		shell       bool
		resolved    bool
	)

	cmd := &cobra.Command{
		Use:   "env [spec]",
		Short: "Describe the environment needed to use an external or compiler",
		Long: `Describe the environment needed to use an external package, a compiler,
or both. The compiler is taken from --compiler or, failing that, from the
package request's %compiler binding.

By default the description lists module loads, variable mutations and
library search paths. --shell prints a POSIX script to evaluate:

  eval "$(extreg env hdf5 --shell)"

--resolved applies the description to the current environment and prints
the resulting values. extreg never changes its own environment.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && compilerReq == "" {
				return errNothingToCompose
			}

			chain, err := app.loadChain(cmd.Context())
			if err != nil {
				return err
			}
			parts, err := app.envParts(app.newResolver(chain.Registry), args, compilerReq)
			if err != nil {
				return err
			}

			composer := &envcompose.Composer{
				SearchVar: app.session.cfg.SearchPathVar,
				Separator: platform.ListSeparator(runtime.GOOS),
			}
			env := composer.Compose(parts...)
			w := cmd.OutOrStdout()

			switch {
			case shell:
				script, err := env.Script()
				if err != nil {
					return err
				}
				_, err = io.WriteString(w, script)
				return err
			case resolved:
				vars := resolveVariables(env, envcompose.EnvironMap(app.Environ()))
				return app.writeResult(w, vars, func(w io.Writer) error {
					for _, v := range vars {
						if v.Unset {
							fmt.Fprintf(w, "unset %s\n", v.Name)
							continue
						}
						fmt.Fprintf(w, "%s=%s\n", v.Name, v.Value)
					}
					return nil
				})
			default:
				return app.writeResult(w, env, func(w io.Writer) error {
					writeEnvironment(w, env)
					return nil
				})
			}
		},
	}

	cmd.Flags().StringVar(&compilerReq, "compiler", "", "compiler spec to include, e.g. gcc@11.1.0")
	cmd.Flags().BoolVar(&shell, "shell", false, "print a POSIX shell script")
	cmd.Flags().BoolVar(&resolved, "resolved", false, "print variables applied to the current environment")
	cmd.MarkFlagsMutuallyExclusive("shell", "resolved")
	return cmd
}

// envParts resolves the requested compiler and package. The compiler part
// comes first: the package's PATH prepend lands ahead of the compiler's,
// while the compiler's extra_rpaths stay ahead of the package's lib
// directories on the search path.
func (a *App) envParts(r *resolve.Resolver, args []string, compilerReq string) ([]envcompose.Part, error) {
	var (
		pkgReq  spec.Spec
		hasPkg  bool
		compReq *spec.Spec
	)

	if len(args) == 1 {
		req, err := parseRequest(args[0])
		if err != nil {
			return nil, err
		}
		pkgReq, hasPkg = req, true
		if req.Compiler != nil {
			compReq = &spec.Spec{Name: req.Compiler.Family, Version: req.Compiler.Version}
		}
	}
	if compilerReq != "" {
		req, err := parseRequest(compilerReq)
		if err != nil {
			return nil, err
		}
		compReq = &req
	}

	var parts []envcompose.Part
	if compReq != nil {
		res, err := r.ResolveCompiler(*compReq, resolve.OnPlatform(a.session.platform))
		if err != nil {
			return nil, noMatchError(*compReq, err)
		}
		parts = append(parts, envcompose.FromCompiler(res.Selected))
	}
	if hasPkg {
		res, err := r.ResolveExternal(pkgReq)
		if err != nil {
			return nil, noMatchError(pkgReq, err)
		}
		parts = append(parts, envcompose.FromExternal(res.Selected))
	}
	return parts, nil
}

// resolveVariables lists the changed variables with their applied values.
func resolveVariables(env envcompose.Environment, base map[string]string) []resolvedVar {
	applied := env.Apply(base)
	vars := []resolvedVar{}
	for _, name := range env.Variables() {
		v, ok := applied[name]
		vars = append(vars, resolvedVar{Name: name, Value: v, Unset: !ok})
	}
	return vars
}

func writeEnvironment(w io.Writer, env envcompose.Environment) {
	fmt.Fprintln(w, TitleStyle.Render("Environment for "+strings.Join(env.Parts, ", ")))
	for _, m := range env.Modules {
		field(w, "  ", "module", m)
	}
	for _, m := range env.Mutations {
		switch m.Op {
		case registry.OpUnset:
			field(w, "  ", string(m.Op), m.Name)
		default:
			field(w, "  ", string(m.Op), m.Name+" "+SpecStyle.Render(m.Value))
		}
	}
	for _, p := range env.SearchPaths {
		field(w, "  ", env.SearchVar, p)
	}
	if len(env.Modules) == 0 && len(env.Mutations) == 0 && len(env.SearchPaths) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("  (no changes)"))
	}
}
