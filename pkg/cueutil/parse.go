// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ParseResult contains the result of a successful parse.
type ParseResult[T any] struct {
	// Value is the decoded Go struct.
	Value *T

	// Unified is the data unified with the schema definition.
	Unified cue.Value

	// Data is the user data before unification. Its fields iterate in
	// declaration order, which Unified does not guarantee.
	Data cue.Value
}

// ParseAndDecode compiles data (see Compile for format selection), unifies
// it with the schemaPath definition of schema, validates and decodes it.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	ctx := cuecontext.New()
	v, err := Compile(ctx, data, opts...)
	if err != nil {
		return nil, err
	}
	return Decode[T](ctx, schema, schemaPath, v, opts...)
}

// Decode unifies an already compiled value with the schemaPath definition
// of schema, validates it and decodes it into T. data must belong to ctx.
func Decode[T any](ctx *cue.Context, schema []byte, schemaPath string, data cue.Value, opts ...Option) (*ParseResult[T], error) {
	options := buildOptions(opts)

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	unified := schemaRoot.Unify(data)

	var validateOpts []cue.Option
	if options.concrete {
		validateOpts = append(validateOpts, cue.Concrete(true))
	}
	if err := unified.Validate(validateOpts...); err != nil {
		return nil, FormatError(err, options.filename)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, options.filename)
	}

	return &ParseResult[T]{
		Value:   &result,
		Unified: unified,
		Data:    data,
	}, nil
}
