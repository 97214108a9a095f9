// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/extreg/extreg/internal/document"
	"github.com/extreg/extreg/internal/issue"
	"github.com/extreg/extreg/internal/registry"
)

type (
	// validationReport summarises a loaded chain.
	validationReport struct {
		Documents       []document.Document `json:"documents" yaml:"documents"`
		Compilers       int                 `json:"compilers" yaml:"compilers"`
		Externals       int                 `json:"externals" yaml:"externals"`
		RootSpecs       int                 `json:"root_specs" yaml:"root_specs"`
		MissingPrefixes []missingPrefix     `json:"missing_prefixes,omitempty" yaml:"missing_prefixes,omitempty"`
	}

	missingPrefix struct {
		Spec   string `json:"spec" yaml:"spec"`
		Prefix string `json:"prefix" yaml:"prefix"`
		Source string `json:"source" yaml:"source"`
	}
)

var errPrefixesMissing = errors.New("external prefixes do not exist")

func newValidateCommand(app *App) *cobra.Command {
	var checkPrefixes bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the document chain and report what it declares",
		Long: `Load the environment document and its includes, validating each against
the document schema, and report what was registered.

Prefixes are not checked while loading. --check-prefixes verifies that
every external's prefix exists on this machine.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := app.loadChain(cmd.Context())
			if err != nil {
				return err
			}

			report := validationReport{
				Documents: chain.Documents,
				Compilers: chain.Registry.NumCompilers(),
				Externals: chain.Registry.NumExternals(),
				RootSpecs: len(chain.Registry.RootSpecs()),
			}
			if checkPrefixes {
				report.MissingPrefixes = findMissingPrefixes(chain.Registry)
			}

			if err := app.writeResult(cmd.OutOrStdout(), report, func(w io.Writer) error {
				writeValidationReport(w, report)
				return nil
			}); err != nil {
				return err
			}

			if len(report.MissingPrefixes) > 0 {
				return issue.NewErrorContext().
					WithOperation("check prefixes").
					WithResource(app.session.envPath).
					WithIssue(issue.PrefixMissingId).
					WithSuggestion("Install the packages or correct their prefix entries").
					Wrap(fmt.Errorf("%w: %d missing", errPrefixesMissing, len(report.MissingPrefixes))).
					BuildError()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkPrefixes, "check-prefixes", false, "verify that external prefixes exist")
	return cmd
}

func findMissingPrefixes(reg *registry.Registry) []missingPrefix {
	var missing []missingPrefix
	for _, name := range reg.PackageNames() {
		for e := range reg.AllExternals(name) {
			if e.Prefix == "" {
				continue
			}
			if info, err := os.Stat(e.Prefix); err == nil && info.IsDir() {
				continue
			}
			missing = append(missing, missingPrefix{Spec: e.String(), Prefix: e.Prefix, Source: e.Source})
		}
	}
	return missing
}

func writeValidationReport(w io.Writer, r validationReport) {
	for _, doc := range r.Documents {
		fmt.Fprintf(w, "%s %s %s\n", successIcon, SpecStyle.Render(doc.Path), SubtitleStyle.Render("("+string(doc.Format)+")"))
		field(w, "  ", "compilers", fmt.Sprint(doc.Compilers))
		field(w, "  ", "externals", fmt.Sprint(doc.Externals))
		if doc.Specs > 0 {
			field(w, "  ", "specs", fmt.Sprint(doc.Specs))
		}
		for _, inc := range doc.Includes {
			field(w, "  ", "include", inc)
		}
		if doc.View.Enabled {
			view := "enabled"
			if doc.View.Path != "" {
				view = doc.View.Path
			}
			field(w, "  ", "view", view+" "+SubtitleStyle.Render("(not materialised)"))
		}
	}
	fmt.Fprintf(w, "\n%d document(s), %d compiler(s), %d external(s), %d root spec(s)\n",
		len(r.Documents), r.Compilers, r.Externals, r.RootSpecs)

	for _, m := range r.MissingPrefixes {
		fmt.Fprintf(w, "%s %s: prefix %s does not exist %s\n",
			warningIcon, SpecStyle.Render(m.Spec), m.Prefix, SubtitleStyle.Render("("+m.Source+")"))
	}
}
