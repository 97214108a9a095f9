// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"github.com/extreg/extreg/pkg/platform"
	"github.com/extreg/extreg/pkg/spec"
)

const (
	// StageName keeps entries registered under the requested name.
	StageName Stage = "name"
	// StageVersion keeps exact version matches.
	StageVersion Stage = "version"
	// StageVariants keeps entries declaring every requested variant with the same sign.
	StageVariants Stage = "variants"
	// StageCompiler keeps entries bound to the requested compiler.
	StageCompiler Stage = "compiler"
	// StageConstraints keeps entries carrying every requested key=value pair.
	StageConstraints Stage = "constraints"
	// StagePlatform keeps compilers valid for the requested platform.
	StagePlatform Stage = "platform"
)

type (
	// Stage names one filter of the matching pipeline.
	Stage string

	// StageReport records what a filter stage did.
	StageReport struct {
		Stage Stage
		// Applied is false when the request does not constrain this stage.
		Applied bool
		// Remaining is the number of candidates left after the stage.
		Remaining int
		// Dropped lists the entries the stage removed, rendered as specs.
		Dropped []string
	}

	// candidate pairs an entry with the spec view the filters inspect.
	candidate[T any] struct {
		entry    T
		view     spec.Spec
		platform platform.Platform
		source   string
	}

	filter struct {
		stage  Stage
		active func(q query) bool
		keep   func(q query, view spec.Spec, p platform.Platform) bool
	}

	// query is the request plus options the pipeline evaluates.
	query struct {
		req      spec.Spec
		platform platform.Platform
	}
)

// filters is the ordered matching pipeline. The name stage is handled by
// the registry lookup itself.
var filters = []filter{
	{
		stage:  StageVersion,
		active: func(q query) bool { return q.req.Version != "" },
		keep: func(q query, view spec.Spec, _ platform.Platform) bool {
			return view.Version == q.req.Version
		},
	},
	{
		stage:  StageVariants,
		active: func(q query) bool { return len(q.req.Variants) > 0 },
		keep: func(q query, view spec.Spec, _ platform.Platform) bool {
			for name, want := range q.req.Variants {
				got, declared := view.Variants[name]
				if !declared || got != want {
					return false
				}
			}
			return true
		},
	},
	{
		stage:  StageCompiler,
		active: func(q query) bool { return q.req.Compiler != nil },
		keep: func(q query, view spec.Spec, _ platform.Platform) bool {
			return view.Compiler != nil && view.Compiler.Matches(*q.req.Compiler)
		},
	},
	{
		stage:  StageConstraints,
		active: func(q query) bool { return len(q.req.Constraints) > 0 },
		keep: func(q query, view spec.Spec, _ platform.Platform) bool {
			for _, c := range q.req.Constraints {
				if v, ok := view.Constraint(c.Key); !ok || v != c.Value {
					return false
				}
			}
			return true
		},
	},
	{
		stage:  StagePlatform,
		active: func(q query) bool { return !q.platform.IsZero() },
		keep: func(q query, _ spec.Spec, p platform.Platform) bool {
			return p.Matches(q.platform)
		},
	},
}

// run applies every filter in order. It returns the surviving candidates in
// registration order and one report per stage, starting with the name stage.
func run[T any](q query, cands []candidate[T]) ([]candidate[T], []StageReport) {
	reports := make([]StageReport, 0, len(filters)+1)
	reports = append(reports, StageReport{Stage: StageName, Applied: true, Remaining: len(cands)})

	for _, f := range filters {
		if !f.active(q) {
			reports = append(reports, StageReport{Stage: f.stage, Remaining: len(cands)})
			continue
		}
		kept := cands[:0:0]
		var dropped []string
		for _, c := range cands {
			if f.keep(q, c.view, c.platform) {
				kept = append(kept, c)
			} else {
				dropped = append(dropped, label(c))
			}
		}
		cands = kept
		reports = append(reports, StageReport{
			Stage:     f.stage,
			Applied:   true,
			Remaining: len(cands),
			Dropped:   dropped,
		})
	}
	return cands, reports
}

// emptiedBy returns the first stage that left no candidates.
func emptiedBy(reports []StageReport) Stage {
	for _, r := range reports {
		if r.Remaining == 0 {
			return r.Stage
		}
	}
	return ""
}

func label[T any](c candidate[T]) string {
	if c.platform.IsZero() {
		return c.view.String()
	}
	return c.view.Name + "@" + c.view.Version + " (" + c.platform.String() + ")"
}
