// SPDX-License-Identifier: MPL-2.0

package document

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"mvdan.cc/sh/v3/shell"

	"github.com/extreg/extreg/internal/registry"
	"github.com/extreg/extreg/pkg/cueutil"
)

type (
	// Loader reads an environment document and its include chain into a
	// registry. A Loader holds no state between Load calls.
	Loader struct {
		logger      *slog.Logger
		getenv      func(string) string
		maxFileSize int64
	}

	// Option configures a Loader.
	Option func(*Loader)

	// Chain is a fully loaded document chain.
	Chain struct {
		Registry *registry.Registry
		// Documents are listed in load order: includes before the documents
		// that include them, the root document last.
		Documents []Document
	}

	// Document summarises one loaded document.
	Document struct {
		Path      string         `json:"path" yaml:"path"`
		Format    cueutil.Format `json:"format" yaml:"format"`
		Includes  []string       `json:"includes,omitempty" yaml:"includes,omitempty"`
		View      View           `json:"view" yaml:"view"`
		Compilers int            `json:"compilers" yaml:"compilers"`
		Externals int            `json:"externals" yaml:"externals"`
		Specs     int            `json:"specs" yaml:"specs"`
	}

	// View is the decoded view setting. It is reported, never acted on.
	View struct {
		Enabled bool   `json:"enabled" yaml:"enabled"`
		Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	}

	loadState struct {
		builder *registry.Builder
		active  map[string]bool
		done    map[string]bool
		docs    []Document
	}

	parsedDocument struct {
		data   *documentData
		value  cue.Value
		format cueutil.Format
	}
)

// WithLogger sets the logger for load progress. Defaults to discarding.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithGetenv sets the variable lookup used to expand include paths.
// Defaults to os.Getenv.
func WithGetenv(getenv func(string) string) Option {
	return func(l *Loader) {
		l.getenv = getenv
	}
}

// WithMaxFileSize limits the size of each document.
func WithMaxFileSize(size int64) Option {
	return func(l *Loader) {
		l.maxFileSize = size
	}
}

// NewLoader returns a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		logger:      slog.New(slog.DiscardHandler),
		getenv:      os.Getenv,
		maxFileSize: cueutil.DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the document at path and, depth-first, every document it
// includes. Included documents register their entries before the including
// document, so later documents take precedence at resolution time. A
// document reached twice is loaded once. Any failure aborts the load and no
// registry is returned.
func (l *Loader) Load(ctx context.Context, path string) (*Chain, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve document path: %w", err)
	}

	st := &loadState{
		builder: registry.NewBuilder(),
		active:  make(map[string]bool),
		done:    make(map[string]bool),
	}
	if err := l.load(ctx, st, abs, nil); err != nil {
		return nil, err
	}

	reg := st.builder.Build()
	l.logger.Debug("document chain loaded",
		"documents", len(st.docs),
		"compilers", reg.NumCompilers(),
		"externals", reg.NumExternals())
	return &Chain{Registry: reg, Documents: st.docs}, nil
}

// Load reads a document chain with a default Loader.
func Load(ctx context.Context, path string, opts ...Option) (*Chain, error) {
	return NewLoader(opts...).Load(ctx, path)
}

func (l *Loader) load(ctx context.Context, st *loadState, path string, stack []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if st.active[path] {
		return &IncludeCycleError{Chain: append(slices.Clone(stack), path)}
	}
	if st.done[path] {
		l.logger.Debug("document already loaded", "path", path)
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if len(stack) > 0 {
			return &MissingIncludeError{Path: path, IncludedFrom: stack[len(stack)-1], Err: err}
		}
		return fmt.Errorf("read document: %w", err)
	}

	parsed, err := l.parse(path, raw)
	if err != nil {
		return err
	}

	doc := Document{
		Path:   path,
		Format: parsed.format,
		View:   view(parsed.data.View),
		Specs:  len(parsed.data.Specs),
	}

	st.active[path] = true
	stack = append(stack, path)
	for i, inc := range parsed.data.Include {
		target, err := l.resolveInclude(path, inc)
		if err != nil {
			return &DocumentError{Path: path, Field: fmt.Sprintf("include[%d]", i), Err: err}
		}
		doc.Includes = append(doc.Includes, target)
		if err := l.load(ctx, st, target, stack); err != nil {
			return err
		}
	}
	delete(st.active, path)
	st.done[path] = true

	if err := l.register(st.builder, &doc, parsed); err != nil {
		return err
	}
	st.docs = append(st.docs, doc)

	l.logger.Debug("document loaded",
		"path", path,
		"compilers", doc.Compilers,
		"externals", doc.Externals)
	return nil
}

func (l *Loader) parse(path string, raw []byte) (*parsedDocument, error) {
	format, err := cueutil.FormatOf(path)
	if err != nil {
		return nil, err
	}
	opts := []cueutil.Option{
		cueutil.WithFilename(path),
		cueutil.WithFormat(format),
		cueutil.WithMaxFileSize(l.maxFileSize),
	}

	ctx := cuecontext.New()
	value, err := cueutil.Compile(ctx, raw, opts...)
	if err != nil {
		return nil, err
	}
	if wrapped, ok := unwrap(value); ok {
		value = wrapped
	}

	result, err := cueutil.Decode[documentData](ctx, schemaBytes, "#Document", value, opts...)
	if err != nil {
		return nil, err
	}
	return &parsedDocument{data: result.Value, value: result.Data, format: format}, nil
}

// unwrap returns the value under wrapperKey when it is the document's only
// top-level field. A wrapper with siblings is left for the schema to reject.
func unwrap(value cue.Value) (cue.Value, bool) {
	iter, err := value.Fields()
	if err != nil {
		return value, false
	}
	var inner cue.Value
	n := 0
	for iter.Next() {
		n++
		if iter.Selector().Unquoted() == wrapperKey {
			inner = iter.Value()
		}
	}
	if n != 1 || !inner.Exists() {
		return value, false
	}
	return inner, true
}

// resolveInclude expands $VAR and ${VAR} in an include path and resolves it
// against the including document's directory.
func (l *Loader) resolveInclude(from, include string) (string, error) {
	expanded, err := shell.Expand(include, l.getenv)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", include, err)
	}
	if expanded == "" {
		return "", fmt.Errorf("include %q expands to an empty path", include)
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(filepath.Dir(from), expanded)
	}
	return filepath.Clean(expanded), nil
}

// register adds a document's entries to the builder: compilers first, then
// externals and package policy in declaration order, then root specs.
func (l *Loader) register(b *registry.Builder, doc *Document, parsed *parsedDocument) error {
	data := parsed.data

	for i, item := range data.Compilers {
		field := fmt.Sprintf("compilers[%d].compiler", i)
		env := parsed.value.LookupPath(cue.MakePath(
			cue.Str("compilers"), cue.Index(i), cue.Str("compiler"), cue.Str("environment")))

		decl, sub, err := compilerDecl(item.Compiler, env, doc.Path)
		if err != nil {
			return &DocumentError{Path: doc.Path, Field: field + "." + sub, Err: err}
		}
		if _, err := b.RegisterCompiler(decl); err != nil {
			return &DocumentError{Path: doc.Path, Field: field + ".spec", Err: err}
		}
		doc.Compilers++
	}

	names, err := packageOrder(parsed.value)
	if err != nil {
		return &DocumentError{Path: doc.Path, Field: "packages", Err: err}
	}
	for _, name := range names {
		pkg := data.Packages[name]
		for i, ext := range pkg.Externals {
			field := fmt.Sprintf("packages.%s.externals[%d].spec", name, i)
			entry, err := b.RegisterExternal(registry.ExternalDecl{
				Spec:    ext.Spec,
				Prefix:  ext.Prefix,
				Modules: ext.Modules,
				Source:  doc.Path,
			})
			if err != nil {
				return &DocumentError{Path: doc.Path, Field: field, Err: err}
			}
			if entry.Spec.Name != name {
				return &DocumentError{Path: doc.Path, Field: field, Err: &ExternalNameMismatchError{Package: name, Spec: ext.Spec}}
			}
			doc.Externals++
		}
		if pkg.Buildable != nil {
			if err := b.SetBuildable(name, *pkg.Buildable); err != nil {
				return err
			}
		}
	}

	for i, s := range data.Specs {
		if err := b.AddRootSpecs(s); err != nil {
			return &DocumentError{Path: doc.Path, Field: fmt.Sprintf("specs[%d]", i), Err: err}
		}
	}
	return nil
}

// packageOrder lists package keys in declaration order.
func packageOrder(doc cue.Value) ([]string, error) {
	pkgs := doc.LookupPath(cue.MakePath(cue.Str("packages")))
	if !pkgs.Exists() || pkgs.IsNull() {
		return nil, nil
	}
	iter, err := pkgs.Fields()
	if err != nil {
		return nil, err
	}
	var names []string
	for iter.Next() {
		names = append(names, iter.Selector().Unquoted())
	}
	return names, nil
}
