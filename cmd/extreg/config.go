// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/extreg/extreg/internal/config"
)

// newConfigCommand creates the `extreg config` command tree.
func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage extreg configuration",
		Long: `Manage extreg configuration.

Configuration is stored in:
  - Linux: ~/.config/extreg/config.cue
  - macOS: ~/Library/Application Support/extreg/config.cue
  - Windows: %APPDATA%\extreg\config.cue

EXTREG_* environment variables override file values, e.g.
EXTREG_ENVIRONMENT=/site/spack.yaml or EXTREG_PLATFORM_TARGET=zen2.`,
		Annotations: map[string]string{annotationNoSession: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.session.cfg
			return app.writeResult(cmd.OutOrStdout(), cfg, func(w io.Writer) error {
				_, err := io.WriteString(w, config.GenerateCUE(cfg))
				return err
			})
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:         "path",
		Short:       "Show the configuration file path",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoSession: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, exists, err := config.FilePath(config.LoadOptions{ConfigFilePath: flags.configFile})
			if err != nil {
				return err
			}
			status := SubtitleStyle.Render("(not created; using defaults)")
			if exists {
				status = SuccessStyle.Render("(exists)")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", path, status)
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Create the default configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoSession: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig(config.LoadOptions{ConfigFilePath: flags.configFile}, force)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s already exists (use --force to overwrite)\n", warningIcon, path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Created %s\n", successIcon, path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}
