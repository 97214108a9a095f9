// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/extreg/extreg/internal/issue"
	"github.com/extreg/extreg/internal/registry"
)

type (
	// packageListing is one package name with its externals in registration
	// order.
	packageListing struct {
		Name      string            `json:"name" yaml:"name"`
		Buildable *bool             `json:"buildable,omitempty" yaml:"buildable,omitempty"`
		Externals []externalListing `json:"externals" yaml:"externals"`
	}

	externalListing struct {
		Spec    string   `json:"spec" yaml:"spec"`
		Prefix  string   `json:"prefix,omitempty" yaml:"prefix,omitempty"`
		Modules []string `json:"modules,omitempty" yaml:"modules,omitempty"`
		Source  string   `json:"source" yaml:"source"`
	}
)

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list [pattern]",
		Short: "List declared external packages",
		Long: `List declared external packages grouped by name.

The optional pattern is a glob matched against package names, e.g.
'py-*' or 'hdf{5,4}'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "*"
			if len(args) == 1 {
				pattern = args[0]
			}
			if !doublestar.ValidatePattern(pattern) {
				return issue.NewErrorContext().
					WithOperation("list packages").
					WithResource(pattern).
					WithSuggestion("Use '*', '?', '[...]' and '{a,b}' in patterns").
					Wrap(doublestar.ErrBadPattern).
					BuildError()
			}

			chain, err := app.loadChain(cmd.Context())
			if err != nil {
				return err
			}
			listing := listPackages(chain.Registry, pattern)
			return app.writeResult(cmd.OutOrStdout(), listing, func(w io.Writer) error {
				writePackageListing(w, listing)
				return nil
			})
		},
	}
}

// listPackages collects the packages whose name matches pattern.
func listPackages(reg *registry.Registry, pattern string) []packageListing {
	listing := []packageListing{}
	for _, name := range reg.PackageNames() {
		if ok, _ := doublestar.Match(pattern, name); !ok {
			continue
		}
		pkg := packageListing{Name: name, Externals: []externalListing{}}
		if buildable, declared := reg.Buildable(name); declared {
			pkg.Buildable = &buildable
		}
		for e := range reg.AllExternals(name) {
			pkg.Externals = append(pkg.Externals, externalListing{
				Spec:    e.String(),
				Prefix:  e.Prefix,
				Modules: e.Modules,
				Source:  e.Source,
			})
		}
		listing = append(listing, pkg)
	}
	return listing
}

func writePackageListing(w io.Writer, listing []packageListing) {
	if len(listing) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("(no matching packages)"))
		return
	}
	for i, pkg := range listing {
		if i > 0 {
			fmt.Fprintln(w)
		}
		header := TitleStyle.Render(pkg.Name)
		if pkg.Buildable != nil && !*pkg.Buildable {
			header += " " + WarningStyle.Render("(not buildable)")
		}
		fmt.Fprintln(w, header)
		for _, e := range pkg.Externals {
			location := e.Prefix
			if location == "" && len(e.Modules) > 0 {
				location = "module " + e.Modules[0]
			}
			fmt.Fprintf(w, "  %s  %s  %s\n", SpecStyle.Render(e.Spec), location, SubtitleStyle.Render(e.Source))
		}
	}
}
