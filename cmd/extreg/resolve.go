// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/extreg/extreg/internal/registry"
	"github.com/extreg/extreg/internal/resolve"
	"github.com/extreg/extreg/pkg/spec"
)

// resolution is the rendered outcome of one request.
type resolution struct {
	Request    string            `json:"request" yaml:"request"`
	Kind       resolve.Kind      `json:"kind" yaml:"kind"`
	Selected   string            `json:"selected" yaml:"selected"`
	Prefix     string            `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Platform   string            `json:"platform,omitempty" yaml:"platform,omitempty"`
	Paths      map[string]string `json:"paths,omitempty" yaml:"paths,omitempty"`
	Modules    []string          `json:"modules,omitempty" yaml:"modules,omitempty"`
	Source     string            `json:"source" yaml:"source"`
	Candidates []string          `json:"candidates" yaml:"candidates"`
	Ambiguous  bool              `json:"ambiguous" yaml:"ambiguous"`
}

func newResolveCommand(app *App) *cobra.Command {
	var (
		asCompiler bool
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [spec]",
		Short: "Resolve a request to a registered external or compiler",
		Long: `Resolve a request to the registry entry that satisfies it.

Candidates are filtered by name, version, variants, compiler binding and
constraints. When several entries survive, the one registered last wins:
entries of an including document override those of its includes.

Examples:
  extreg resolve openmpi@4.1.1+cuda
  extreg resolve 'hdf5%gcc@11.1.0'
  extreg resolve --compiler gcc@11.1.0 --platform rhel8-zen2
  extreg resolve --all`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := app.loadChain(cmd.Context())
			if err != nil {
				return err
			}
			r := app.newResolver(chain.Registry)

			if all {
				return app.resolveAll(cmd, r, chain.Registry.RootSpecs())
			}

			req, err := parseRequest(args[0])
			if err != nil {
				return err
			}
			res, err := app.resolveOne(r, req, asCompiler)
			if err != nil {
				return err
			}
			return app.writeResult(cmd.OutOrStdout(), res, func(w io.Writer) error {
				writeResolution(w, res)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asCompiler, "compiler", false, "resolve the request against compilers")
	cmd.Flags().BoolVar(&all, "all", false, "resolve every root spec of the document")
	cmd.MarkFlagsMutuallyExclusive("compiler", "all")
	return cmd
}

func (a *App) resolveOne(r *resolve.Resolver, req spec.Spec, asCompiler bool) (resolution, error) {
	if asCompiler {
		res, err := r.ResolveCompiler(req, resolve.OnPlatform(a.session.platform))
		if err != nil {
			return resolution{}, noMatchError(req, err)
		}
		return compilerResolution(res), nil
	}
	res, err := r.ResolveExternal(req)
	if err != nil {
		return resolution{}, noMatchError(req, err)
	}
	return externalResolution(res), nil
}

// resolveAll resolves each root spec and reports every failure before
// returning.
func (a *App) resolveAll(cmd *cobra.Command, r *resolve.Resolver, roots []spec.Spec) error {
	results := []resolution{}
	failed := 0
	for _, req := range roots {
		res, err := a.resolveOne(r, req, false)
		if err != nil {
			failed++
			fmt.Fprintln(cmd.ErrOrStderr(), errorIcon+" "+formatErrorForDisplay(err, false))
			continue
		}
		results = append(results, res)
	}

	if err := a.writeResult(cmd.OutOrStdout(), results, func(w io.Writer) error {
		if len(roots) == 0 {
			fmt.Fprintln(w, SubtitleStyle.Render("(no root specs declared)"))
		}
		for i, res := range results {
			if i > 0 {
				fmt.Fprintln(w)
			}
			writeResolution(w, res)
		}
		return nil
	}); err != nil {
		return err
	}

	if failed > 0 {
		return &ExitError{Code: ExitNoMatch}
	}
	return nil
}

func externalResolution(res resolve.Result[registry.ExternalEntry]) resolution {
	out := resolution{
		Request:   res.Request.String(),
		Kind:      resolve.KindExternal,
		Selected:  res.Selected.String(),
		Prefix:    res.Selected.Prefix,
		Modules:   res.Selected.Modules,
		Source:    res.Selected.Source,
		Ambiguous: res.Ambiguous(),
	}
	for _, c := range res.Candidates {
		out.Candidates = append(out.Candidates, c.String())
	}
	return out
}

func compilerResolution(res resolve.Result[registry.CompilerEntry]) resolution {
	out := resolution{
		Request:   res.Request.String(),
		Kind:      resolve.KindCompiler,
		Selected:  res.Selected.String(),
		Platform:  res.Selected.Platform.String(),
		Paths:     make(map[string]string, len(res.Selected.Paths)),
		Modules:   res.Selected.Modules,
		Source:    res.Selected.Source,
		Ambiguous: res.Ambiguous(),
	}
	for role, path := range res.Selected.Paths {
		out.Paths[string(role)] = path
	}
	for _, c := range res.Candidates {
		out.Candidates = append(out.Candidates, c.String()+" "+c.Platform.String())
	}
	return out
}

func writeResolution(w io.Writer, res resolution) {
	fmt.Fprintf(w, "%s %s %s\n", successIcon, SubtitleStyle.Render(res.Request+" ->"), SpecStyle.Render(res.Selected))
	if res.Prefix != "" {
		field(w, "  ", "prefix", res.Prefix)
	}
	if res.Platform != "" {
		field(w, "  ", "platform", res.Platform)
	}
	for _, role := range registry.AllRoles() {
		if p, ok := res.Paths[string(role)]; ok {
			field(w, "  ", string(role), p)
		}
	}
	for _, m := range res.Modules {
		field(w, "  ", "module", m)
	}
	field(w, "  ", "source", SubtitleStyle.Render(res.Source))
	if res.Ambiguous {
		others := slices.Clone(res.Candidates[:len(res.Candidates)-1])
		fmt.Fprintf(w, "  %s %d candidates matched; the last registered wins over %v\n",
			warningIcon, len(res.Candidates), others)
	}
}
