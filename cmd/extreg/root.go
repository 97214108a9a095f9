// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/extreg/extreg/internal/config"
	"github.com/extreg/extreg/internal/issue"
	"github.com/extreg/extreg/internal/resolve"
	"github.com/extreg/extreg/pkg/platform"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags holds the global flag values of one invocation.
type rootFlags struct {
	configFile string
	envPath    string
	platform   string
	output     string
	verbose    bool
}

// NewRootCommand builds the extreg command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "extreg",
		Short: "Resolve compilers and external packages from environment documents",
		Long: TitleStyle.Render("extreg") + SubtitleStyle.Render(" - toolchain and external package registry") + `

extreg reads an environment document (spack.yaml style, in YAML, CUE,
TOML or JSON) together with its includes, and answers questions about the
compilers and pre-installed packages it declares.

` + SubtitleStyle.Render("Examples:") + `
  extreg -e spack.yaml list                 List declared externals
  extreg -e spack.yaml resolve openmpi@4.1  Pick the matching external
  extreg -e spack.yaml compilers gcc        Show gcc compilers
  extreg -e spack.yaml env hdf5 --shell     Print a sourceable script
  extreg -e spack.yaml explain 'mpich%gcc'  Trace the matching pipeline`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoSession] != "" {
				return nil
			}
			return app.startSession(cmd.Context(), flags)
		},
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/extreg/config.cue)")
	pf.StringVarP(&flags.envPath, "env", "e", "", "environment document (default from config)")
	pf.StringVar(&flags.platform, "platform", "", `compiler platform as "os-target", or "host"`)
	pf.StringVarP(&flags.output, "output", "o", "", "output format: text, json or yaml")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging and error chains")

	rootCmd.AddCommand(
		newResolveCommand(app),
		newListCommand(app),
		newCompilersCommand(app),
		newEnvCommand(app),
		newExplainCommand(app),
		newValidateCommand(app),
		newConfigCommand(app, flags),
	)
	app.verbose = func() bool { return flags.verbose }
	return rootCmd
}

// annotationNoSession marks commands that manage configuration themselves.
const annotationNoSession = "extreg/no-session"

// startSession loads configuration and derives the logger, output format
// and document path for the invocation.
func (a *App) startSession(ctx context.Context, flags *rootFlags) error {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configFile})
	if err != nil {
		return err
	}

	level := cfg.LogLevel.Level()
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(log.NewWithOptions(a.stderr, log.Options{
		Level:  log.Level(level),
		Prefix: config.AppName,
	}))

	output := cfg.Output
	if flags.output != "" {
		output = config.OutputFormat(flags.output)
		if ok, errs := output.IsValid(); !ok {
			return errors.Join(errs...)
		}
	}

	plat := cfg.Platform.Platform()
	switch flags.platform {
	case "":
	case "host":
		plat = platform.Host()
	default:
		if plat, err = platform.Parse(flags.platform); err != nil {
			return err
		}
	}

	envPath := flags.envPath
	if envPath == "" {
		envPath = cfg.Environment
	}

	logger.Debug("session started",
		"environment", envPath,
		"platform", plat.String(),
		"output", string(output))

	a.session = &session{
		cfg:      cfg,
		logger:   logger,
		envPath:  envPath,
		output:   output,
		platform: plat,
	}
	return nil
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Run executes the command tree with os.Args and returns the process exit
// code.
func Run(ctx context.Context, app *App) int {
	rootCmd := NewRootCommand(app)
	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			app.renderError(w, err)
		}),
	)
	return exitCode(err)
}

// Execute runs extreg and exits. It is called by main.main().
func Execute() {
	os.Exit(Run(context.Background(), NewApp(Dependencies{})))
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, resolve.ErrNoMatch) {
		return ExitNoMatch
	}
	return ExitFailure
}

// renderError writes err for the user. Actionable errors show their
// suggestions; in verbose mode the error chain and the catalog entry for
// the issue follow.
func (a *App) renderError(w io.Writer, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	verbose := a.verbose != nil && a.verbose()
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))

	var ae *issue.ActionableError
	if !verbose || !errors.As(err, &ae) || ae.Issue == 0 {
		return
	}
	if entry := issue.Get(ae.Issue); entry != nil {
		if rendered, renderErr := entry.Render(a.glamourStyle()); renderErr == nil {
			fmt.Fprint(w, rendered)
		}
	}
}

// formatErrorForDisplay formats an error for user display. Actionable
// errors use their Format method.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// glamourStyle maps the configured color scheme to a glamour style name.
func (a *App) glamourStyle() string {
	if a.session == nil {
		return "auto"
	}
	switch a.session.cfg.UI.ColorScheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}
