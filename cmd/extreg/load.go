// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io/fs"

	"github.com/extreg/extreg/internal/document"
	"github.com/extreg/extreg/internal/issue"
	"github.com/extreg/extreg/internal/registry"
	"github.com/extreg/extreg/internal/resolve"
	"github.com/extreg/extreg/pkg/cueutil"
	"github.com/extreg/extreg/pkg/spec"
)

// errNoEnvironment is returned when neither --env nor the configuration
// names a document.
var errNoEnvironment = errors.New("no environment document given")

// loadChain loads the session's document chain.
func (a *App) loadChain(ctx context.Context) (*document.Chain, error) {
	path := a.session.envPath
	if path == "" {
		return nil, issue.NewErrorContext().
			WithOperation("load environment").
			WithIssue(issue.DocumentNotFoundId).
			WithSuggestion("Pass a document with --env, e.g. 'extreg -e spack.yaml list'").
			WithSuggestion("Set 'environment' in the config file or EXTREG_ENVIRONMENT").
			Wrap(errNoEnvironment).
			BuildError()
	}

	chain, err := a.Documents.Load(ctx, path, a.session.logger)
	if err != nil {
		return nil, loadError(path, err)
	}
	return chain, nil
}

// newResolver builds a resolver over the chain's registry.
func (a *App) newResolver(reg *registry.Registry) *resolve.Resolver {
	return resolve.New(reg, resolve.WithLogger(a.session.logger))
}

// loadError attaches the catalog entry and suggestions for a load failure.
func loadError(path string, err error) error {
	ec := issue.NewErrorContext().
		WithOperation("load environment").
		WithResource(path)

	var (
		missing  *document.MissingIncludeError
		cycle    *document.IncludeCycleError
		dup      *registry.DuplicateCompilerSpecError
		mismatch *document.ExternalNameMismatchError
	)
	switch {
	case errors.As(err, &missing):
		ec.WithIssue(issue.MissingIncludeId).
			WithSuggestion("Check the include path in " + missing.IncludedFrom).
			WithSuggestion("Relative includes resolve against the including document's directory")
	case errors.As(err, &cycle):
		ec.WithIssue(issue.IncludeCycleId).
			WithSuggestion("Remove one of the includes that closes the cycle")
	case errors.As(err, &dup):
		ec.WithIssue(issue.DuplicateCompilerId).
			WithSuggestion("Remove the entry from " + dup.Source + " or change its version or platform")
	case errors.As(err, &mismatch):
		ec.WithIssue(issue.DocumentInvalidId).
			WithSuggestion("List the external under the package named by its spec")
	case errors.Is(err, document.ErrInvalidVariableName):
		ec.WithIssue(issue.DocumentInvalidId).
			WithSuggestion("Environment keys must be shell variable names: letters, digits and _, not starting with a digit")
	case errors.Is(err, spec.ErrMalformedSpec):
		ec.WithIssue(issue.MalformedSpecId).
			WithSuggestion("Spec strings look like name@version+variant%compiler@version key=value")
	case errors.Is(err, cueutil.ErrInvalid), errors.Is(err, cueutil.ErrUnsupportedFormat):
		ec.WithIssue(issue.DocumentInvalidId).
			WithSuggestion("Documents must be YAML, CUE, TOML or JSON with spack-style keys")
	case errors.Is(err, fs.ErrNotExist):
		ec.WithIssue(issue.DocumentNotFoundId).
			WithSuggestion("Check the --env path")
	default:
		ec.WithIssue(issue.DocumentInvalidId)
	}
	return ec.Wrap(err).BuildError()
}

// parseRequest parses a spec given on the command line.
func parseRequest(s string) (spec.Spec, error) {
	req, err := spec.Parse(s)
	if err != nil {
		return spec.Spec{}, issue.NewErrorContext().
			WithOperation("parse request").
			WithResource(s).
			WithIssue(issue.MalformedSpecId).
			WithSuggestion("Quote the spec so the shell keeps it as one argument").
			Wrap(err).
			BuildError()
	}
	return req, nil
}

// noMatchError attaches the catalog entry for a failed resolution.
func noMatchError(req spec.Spec, err error) error {
	ec := issue.NewErrorContext().
		WithOperation("resolve").
		WithResource(req.String()).
		WithIssue(issue.NoMatchId)
	var nm *resolve.NoMatchError
	if errors.As(err, &nm) {
		if nm.Stage == resolve.StageName {
			ec.WithSuggestion("Run 'extreg list' to see the declared package names")
		} else {
			ec.WithSuggestion("Run 'extreg explain " + req.String() + "' to see which filter rejected the candidates")
		}
	}
	return ec.Wrap(err).BuildError()
}
