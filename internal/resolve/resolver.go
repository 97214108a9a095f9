// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"log/slog"

	"github.com/extreg/extreg/internal/registry"
	"github.com/extreg/extreg/pkg/platform"
	"github.com/extreg/extreg/pkg/spec"
)

const (
	// KindExternal resolves external packages.
	KindExternal Kind = "external"
	// KindCompiler resolves compilers.
	KindCompiler Kind = "compiler"
)

type (
	// Kind is the registry section a request is resolved against.
	Kind string

	// Resolver matches requests against a read-only registry. It holds no
	// mutable state and is safe for concurrent use.
	Resolver struct {
		reg    *registry.Registry
		logger *slog.Logger
	}

	// Option configures a Resolver.
	Option func(*Resolver)

	// QueryOption narrows a single compiler query.
	QueryOption func(*query)

	// Result is a successful resolution. Candidates holds every entry that
	// survived the filters in registration order; Selected is the last of
	// them.
	Result[T any] struct {
		Request    spec.Spec
		Selected   T
		Candidates []T
	}

	// Explanation is the stage-by-stage trace of a resolution, produced
	// whether or not the request matches.
	Explanation struct {
		Request    spec.Spec
		Kind       Kind
		Stages     []StageReport
		Candidates []string
		// Selected is empty when nothing matched.
		Selected       string
		SelectedSource string
	}
)

// WithLogger sets the logger used to report ambiguous resolutions.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// OnPlatform restricts compiler candidates to a platform. Empty parts of p
// match any value.
func OnPlatform(p platform.Platform) QueryOption {
	return func(q *query) {
		q.platform = p
	}
}

// New creates a resolver over reg.
func New(reg *registry.Registry, opts ...Option) *Resolver {
	r := &Resolver{
		reg:    reg,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ambiguous reports whether more than one entry matched and the
// registration-order tie-break decided the result.
func (r Result[T]) Ambiguous() bool {
	return len(r.Candidates) > 1
}

// ResolveExternal returns the external package best matching req. When
// several entries match, the last registered wins: entries from an including
// document are registered after its includes and therefore take precedence.
func (r *Resolver) ResolveExternal(req spec.Spec) (Result[registry.ExternalEntry], error) {
	q := query{req: req}
	kept, reports := run(q, r.externalCandidates(req.Name))
	return finish(r, q, KindExternal, kept, reports)
}

// ResolveCompiler returns the compiler best matching req, using the same
// pipeline and tie-break as ResolveExternal. Request constraints "os" and
// "target" match the compiler's platform.
func (r *Resolver) ResolveCompiler(req spec.Spec, opts ...QueryOption) (Result[registry.CompilerEntry], error) {
	q := query{req: req}
	for _, opt := range opts {
		opt(&q)
	}
	kept, reports := run(q, r.compilerCandidates(req.Name))
	return finish(r, q, KindCompiler, kept, reports)
}

// ExplainExternal traces how req is matched against the externals.
func (r *Resolver) ExplainExternal(req spec.Spec) Explanation {
	kept, reports := run(query{req: req}, r.externalCandidates(req.Name))
	return explain(req, KindExternal, kept, reports)
}

// ExplainCompiler traces how req is matched against the compilers.
func (r *Resolver) ExplainCompiler(req spec.Spec, opts ...QueryOption) Explanation {
	q := query{req: req}
	for _, opt := range opts {
		opt(&q)
	}
	kept, reports := run(q, r.compilerCandidates(req.Name))
	return explain(req, KindCompiler, kept, reports)
}

func (r *Resolver) externalCandidates(name string) []candidate[registry.ExternalEntry] {
	var cands []candidate[registry.ExternalEntry]
	for e := range r.reg.AllExternals(name) {
		cands = append(cands, candidate[registry.ExternalEntry]{entry: e, view: e.Spec, source: e.Source})
	}
	return cands
}

func (r *Resolver) compilerCandidates(family string) []candidate[registry.CompilerEntry] {
	var cands []candidate[registry.CompilerEntry]
	for e := range r.reg.AllCompilers(family) {
		cands = append(cands, candidate[registry.CompilerEntry]{
			entry:    e,
			view:     compilerView(e),
			platform: e.Platform,
			source:   e.Source,
		})
	}
	return cands
}

// compilerView exposes a compiler as a spec so the shared filters apply:
// the platform parts become "os" and "target" constraints.
func compilerView(e registry.CompilerEntry) spec.Spec {
	return spec.Spec{
		Name:    e.Spec.Family,
		Version: e.Spec.Version,
		Constraints: []spec.Constraint{
			{Key: "os", Value: e.Platform.OS},
			{Key: "target", Value: e.Platform.Target},
		},
	}
}

func finish[T any](r *Resolver, q query, kind Kind, kept []candidate[T], reports []StageReport) (Result[T], error) {
	if len(kept) == 0 {
		return Result[T]{}, &NoMatchError{
			Request:    q.req,
			Kind:       kind,
			Stage:      emptiedBy(reports),
			Considered: reports[0].Remaining,
		}
	}

	res := Result[T]{Request: q.req, Candidates: make([]T, len(kept))}
	for i, c := range kept {
		res.Candidates[i] = c.entry
	}
	last := kept[len(kept)-1]
	res.Selected = last.entry

	if len(kept) > 1 {
		r.logger.Debug("ambiguous request resolved by registration order",
			"kind", string(kind),
			"request", q.req.String(),
			"candidates", len(kept),
			"selected", label(last),
			"source", last.source)
	}
	return res, nil
}

func explain[T any](req spec.Spec, kind Kind, kept []candidate[T], reports []StageReport) Explanation {
	ex := Explanation{Request: req, Kind: kind, Stages: reports}
	for _, c := range kept {
		ex.Candidates = append(ex.Candidates, label(c))
	}
	if len(kept) > 0 {
		last := kept[len(kept)-1]
		ex.Selected = label(last)
		ex.SelectedSource = last.source
	}
	return ex
}
