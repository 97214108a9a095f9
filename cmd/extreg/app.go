// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/extreg/extreg/internal/config"
	"github.com/extreg/extreg/internal/document"
	"github.com/extreg/extreg/pkg/platform"
)

type (
	// App wires CLI services and shared dependencies. Command handlers
	// receive an App and delegate loading through its interfaces.
	App struct {
		Config    ConfigProvider
		Documents DocumentLoader
		Getenv    func(string) string
		Environ   func() []string
		stdout    io.Writer
		stderr    io.Writer

		// session is populated by the root PersistentPreRunE.
		session *session
		verbose func() bool
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    ConfigProvider
		Documents DocumentLoader
		Getenv    func(string) string
		Environ   func() []string
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// DocumentLoader loads an environment document chain.
	DocumentLoader interface {
		Load(ctx context.Context, path string, logger *slog.Logger) (*document.Chain, error)
	}

	// session is the per-invocation state derived from flags and config.
	session struct {
		cfg      *config.Config
		logger   *slog.Logger
		envPath  string
		output   config.OutputFormat
		platform platform.Platform
	}

	documentLoader struct {
		getenv func(string) string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}
	if deps.Environ == nil {
		deps.Environ = os.Environ
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Documents == nil {
		deps.Documents = &documentLoader{getenv: deps.Getenv}
	}

	return &App{
		Config:    deps.Config,
		Documents: deps.Documents,
		Getenv:    deps.Getenv,
		Environ:   deps.Environ,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
}

// Load reads the chain with include paths expanded from the App environment.
func (d *documentLoader) Load(ctx context.Context, path string, logger *slog.Logger) (*document.Chain, error) {
	return document.Load(ctx, path,
		document.WithLogger(logger),
		document.WithGetenv(d.getenv))
}
