// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/extreg/extreg/internal/config"
)

// writeResult renders v in the session's output format. text renders the
// human-readable form.
func (a *App) writeResult(w io.Writer, v any, text func(io.Writer) error) error {
	switch a.session.output {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return text(w)
	}
}

// field writes one "key value" detail line.
func field(w io.Writer, indent, key, value string) {
	fmt.Fprintf(w, "%s%s %s\n", indent, keyStyle.Render(fmt.Sprintf("%-16s", key)), value)
}
