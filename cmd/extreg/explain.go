// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/extreg/extreg/internal/resolve"
)

type (
	// explanationView is the serialised form of a resolution trace.
	explanationView struct {
		Request        string       `json:"request" yaml:"request"`
		Kind           resolve.Kind `json:"kind" yaml:"kind"`
		Stages         []stageView  `json:"stages" yaml:"stages"`
		Candidates     []string     `json:"candidates" yaml:"candidates"`
		Selected       string       `json:"selected,omitempty" yaml:"selected,omitempty"`
		SelectedSource string       `json:"selected_source,omitempty" yaml:"selected_source,omitempty"`
	}

	stageView struct {
		Stage     resolve.Stage `json:"stage" yaml:"stage"`
		Applied   bool          `json:"applied" yaml:"applied"`
		Remaining int           `json:"remaining" yaml:"remaining"`
		Dropped   []string      `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	}
)

func newExplainCommand(app *App) *cobra.Command {
	var asCompiler bool

	cmd := &cobra.Command{
		Use:   "explain <spec>",
		Short: "Show how a request is matched, stage by stage",
		Long: `Show how a request is matched against the registry: how many candidates
each filter stage kept, which entries it dropped and which entry wins.

explain succeeds even when nothing matches; use 'resolve' to test a
request in scripts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseRequest(args[0])
			if err != nil {
				return err
			}
			chain, err := app.loadChain(cmd.Context())
			if err != nil {
				return err
			}

			r := app.newResolver(chain.Registry)
			var ex resolve.Explanation
			if asCompiler {
				ex = r.ExplainCompiler(req, resolve.OnPlatform(app.session.platform))
			} else {
				ex = r.ExplainExternal(req)
			}

			view := newExplanationView(ex)
			return app.writeResult(cmd.OutOrStdout(), view, func(w io.Writer) error {
				out, err := glamour.Render(explanationMarkdown(view), app.glamourStyle())
				if err != nil {
					return fmt.Errorf("render explanation: %w", err)
				}
				_, err = io.WriteString(w, out)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&asCompiler, "compiler", false, "explain the request against compilers")
	return cmd
}

func newExplanationView(ex resolve.Explanation) explanationView {
	v := explanationView{
		Request:        ex.Request.String(),
		Kind:           ex.Kind,
		Candidates:     ex.Candidates,
		Selected:       ex.Selected,
		SelectedSource: ex.SelectedSource,
	}
	if v.Candidates == nil {
		v.Candidates = []string{}
	}
	for _, s := range ex.Stages {
		v.Stages = append(v.Stages, stageView(s))
	}
	return v
}

// explanationMarkdown renders the trace as a markdown document.
func explanationMarkdown(v explanationView) string {
	var md strings.Builder
	fmt.Fprintf(&md, "# Resolving `%s` (%s)\n\n", v.Request, v.Kind)

	md.WriteString("| Stage | Applied | Remaining | Dropped |\n")
	md.WriteString("|---|---|---|---|\n")
	for _, s := range v.Stages {
		applied := "no"
		if s.Applied {
			applied = "yes"
		}
		dropped := make([]string, len(s.Dropped))
		for i, d := range s.Dropped {
			dropped[i] = "`" + d + "`"
		}
		fmt.Fprintf(&md, "| %s | %s | %d | %s |\n", s.Stage, applied, s.Remaining, strings.Join(dropped, ", "))
	}

	if v.Selected == "" {
		md.WriteString("\n**No match.**")
		for i := len(v.Stages) - 1; i >= 0; i-- {
			if v.Stages[i].Remaining == 0 && (i == 0 || v.Stages[i-1].Remaining > 0) {
				fmt.Fprintf(&md, " The %s filter removed the last candidate.", v.Stages[i].Stage)
				break
			}
		}
		md.WriteString("\n")
		return md.String()
	}

	fmt.Fprintf(&md, "\n**Selected:** `%s` from `%s`\n", v.Selected, v.SelectedSource)
	if len(v.Candidates) > 1 {
		md.WriteString("\nSeveral entries matched; the last registered wins:\n\n")
		for _, c := range v.Candidates {
			fmt.Fprintf(&md, "- `%s`\n", c)
		}
	}
	return md.String()
}
