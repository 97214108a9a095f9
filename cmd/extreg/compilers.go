// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/spf13/cobra"

	"github.com/extreg/extreg/internal/registry"
)

// compilerListing is one registered compiler.
type compilerListing struct {
	Spec        string              `json:"spec" yaml:"spec"`
	Platform    string              `json:"platform" yaml:"platform"`
	Paths       map[string]string   `json:"paths" yaml:"paths"`
	Flags       map[string][]string `json:"flags,omitempty" yaml:"flags,omitempty"`
	Modules     []string            `json:"modules,omitempty" yaml:"modules,omitempty"`
	ExtraRPaths []string            `json:"extra_rpaths,omitempty" yaml:"extra_rpaths,omitempty"`
	Source      string              `json:"source" yaml:"source"`
}

func newCompilersCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "compilers [family]",
		Short: "List registered compilers",
		Long: `List registered compilers in registration order, optionally only
those of one family. --platform narrows the listing to one platform.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := app.loadChain(cmd.Context())
			if err != nil {
				return err
			}

			seq := chain.Registry.Compilers()
			if len(args) == 1 {
				seq = chain.Registry.AllCompilers(args[0])
			}
			listing := listCompilers(seq, app.session)
			return app.writeResult(cmd.OutOrStdout(), listing, func(w io.Writer) error {
				writeCompilerListing(w, listing)
				return nil
			})
		},
	}
}

func listCompilers(seq iter.Seq[registry.CompilerEntry], s *session) []compilerListing {
	listing := []compilerListing{}
	for e := range seq {
		if !e.Platform.Matches(s.platform) {
			continue
		}
		c := compilerListing{
			Spec:        e.String(),
			Platform:    e.Platform.String(),
			Paths:       make(map[string]string, len(e.Paths)),
			Modules:     e.Modules,
			ExtraRPaths: e.ExtraRPaths,
			Source:      e.Source,
		}
		for role, path := range e.Paths {
			c.Paths[string(role)] = path
		}
		for _, class := range registry.AllFlagClasses() {
			if tokens, ok := e.Flag(class); ok {
				if c.Flags == nil {
					c.Flags = make(map[string][]string)
				}
				c.Flags[string(class)] = tokens
			}
		}
		listing = append(listing, c)
	}
	return listing
}

func writeCompilerListing(w io.Writer, listing []compilerListing) {
	if len(listing) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("(no matching compilers)"))
		return
	}
	for i, c := range listing {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", TitleStyle.Render(c.Spec), SubtitleStyle.Render(c.Platform))
		for _, role := range registry.AllRoles() {
			if p, ok := c.Paths[string(role)]; ok {
				field(w, "  ", string(role), p)
			}
		}
		for _, class := range registry.AllFlagClasses() {
			if tokens, ok := c.Flags[string(class)]; ok {
				field(w, "  ", string(class), strings.Join(tokens, " "))
			}
		}
		for _, m := range c.Modules {
			field(w, "  ", "module", m)
		}
		field(w, "  ", "source", SubtitleStyle.Render(c.Source))
	}
}
