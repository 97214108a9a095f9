// SPDX-License-Identifier: MPL-2.0

package spec

import "strings"

type parser struct {
	input string
	pos   int
	spec  Spec
	// afterCompiler is set right after a compiler binding so a directly
	// following "@" belongs to the compiler, not the package.
	afterCompiler bool
}

// Parse converts a spec string into its structured form. A malformed string
// returns a *MalformedSpecError and a zero Spec; no partial result is ever
// returned.
func Parse(s string) (Spec, error) {
	p := &parser{input: s}
	if err := p.parse(); err != nil {
		return Spec{}, err
	}
	return p.spec, nil
}

// MustParse is like Parse but panics on malformed input. Intended for tests
// and package-level literals.
func MustParse(s string) Spec {
	sp, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return sp
}

// ParseCompiler parses a compiler spec, which must be exactly family@version.
func ParseCompiler(s string) (CompilerRef, error) {
	sp, err := Parse(s)
	if err != nil {
		return CompilerRef{}, err
	}
	if !sp.IsPlain() {
		return CompilerRef{}, &MalformedSpecError{
			Input:    s,
			Offset:   0,
			Fragment: strings.TrimSpace(s),
			Reason:   "compiler spec accepts only family@version",
		}
	}
	if sp.Version == "" {
		return CompilerRef{}, &MalformedSpecError{
			Input:  s,
			Offset: len(s),
			Reason: "compiler spec requires a version",
		}
	}
	return CompilerRef{Family: sp.Name, Version: sp.Version}, nil
}

func (p *parser) parse() error {
	p.skipSpace()
	if p.eof() {
		return p.fail(p.pos, "empty spec")
	}

	start := p.pos
	p.spec.Name = p.readWhile(isNameChar)
	if p.spec.Name == "" || !isAlnum(p.spec.Name[0]) {
		return p.fail(start, "expected package name")
	}

	for {
		spaced := p.skipSpace()
		if p.eof() {
			return nil
		}
		if spaced {
			p.afterCompiler = false
		}

		c := p.input[p.pos]
		var err error
		switch {
		case c == '@':
			err = p.parseVersion()
		case c == '+' || c == '~':
			p.afterCompiler = false
			err = p.parseVariant()
		case c == '%':
			err = p.parseCompiler()
		case isAlpha(c):
			p.afterCompiler = false
			err = p.parseConstraint()
		default:
			return p.fail(p.pos, "unexpected character")
		}
		if err != nil {
			return err
		}
	}
}

func (p *parser) parseVersion() error {
	at := p.pos
	p.pos++
	v := p.readWhile(isVersionChar)
	if v == "" {
		return p.fail(at, "expected version after '@'")
	}
	if p.afterCompiler {
		p.afterCompiler = false
		p.spec.Compiler.Version = v
		return nil
	}
	if p.spec.Version != "" && p.spec.Version != v {
		return p.fail(at, "conflicting version")
	}
	p.spec.Version = v
	return nil
}

func (p *parser) parseVariant() error {
	at := p.pos
	enabled := p.input[p.pos] == '+'
	p.pos++
	name := p.readWhile(isVariantChar)
	if name == "" {
		return p.fail(at, "expected variant name")
	}
	if prev, ok := p.spec.Variants[name]; ok && prev != enabled {
		return p.fail(at, "conflicting variant "+name)
	}
	if p.spec.Variants == nil {
		p.spec.Variants = make(map[string]bool)
	}
	p.spec.Variants[name] = enabled
	return nil
}

func (p *parser) parseCompiler() error {
	at := p.pos
	if p.spec.Compiler != nil {
		return p.fail(at, "duplicate compiler binding")
	}
	p.pos++
	family := p.readWhile(isNameChar)
	if family == "" || !isAlnum(family[0]) {
		return p.fail(at, "expected compiler name after '%'")
	}
	p.spec.Compiler = &CompilerRef{Family: family}
	p.afterCompiler = true
	return nil
}

func (p *parser) parseConstraint() error {
	at := p.pos
	key := p.readWhile(isKeyChar)
	if p.eof() || p.input[p.pos] != '=' {
		return p.fail(at, "expected key=value")
	}
	p.pos++

	var value string
	if !p.eof() && (p.input[p.pos] == '"' || p.input[p.pos] == '\'') {
		v, err := p.readQuoted()
		if err != nil {
			return err
		}
		value = v
	} else {
		value = p.readWhile(func(c byte) bool { return !isSpace(c) })
		if value == "" {
			return p.fail(at, "missing value for "+key)
		}
	}

	for _, c := range p.spec.Constraints {
		if c.Key != key {
			continue
		}
		if c.Value != value {
			return p.fail(at, "conflicting value for "+key)
		}
		return nil
	}
	p.spec.Constraints = append(p.spec.Constraints, Constraint{Key: key, Value: value})
	return nil
}

// readQuoted reads a single- or double-quoted value. Double quotes accept
// backslash escapes; single quotes are literal.
func (p *parser) readQuoted() (string, error) {
	open := p.pos
	quote := p.input[p.pos]
	p.pos++

	var sb strings.Builder
	for !p.eof() {
		c := p.input[p.pos]
		switch {
		case c == quote:
			p.pos++
			if !p.eof() && !isSpace(p.input[p.pos]) {
				return "", p.fail(p.pos, "unexpected character after quoted value")
			}
			return sb.String(), nil
		case c == '\\' && quote == '"' && p.pos+1 < len(p.input):
			sb.WriteByte(p.input[p.pos+1])
			p.pos += 2
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return "", p.fail(open, "unterminated quote")
}

func (p *parser) fail(offset int, reason string) error {
	end := offset
	for end < len(p.input) && !isSpace(p.input[end]) {
		end++
	}
	return &MalformedSpecError{
		Input:    p.input,
		Offset:   offset,
		Fragment: p.input[offset:end],
		Reason:   reason,
	}
}

func (p *parser) eof() bool { return p.pos >= len(p.input) }

// skipSpace advances past whitespace and reports whether any was skipped.
func (p *parser) skipSpace() bool {
	start := p.pos
	for !p.eof() && isSpace(p.input[p.pos]) {
		p.pos++
	}
	return p.pos > start
}

func (p *parser) readWhile(ok func(byte) bool) string {
	start := p.pos
	for !p.eof() && ok(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isAlnum(c byte) bool { return isAlpha(c) || (c >= '0' && c <= '9') }

func isNameChar(c byte) bool { return isAlnum(c) || c == '_' || c == '.' || c == '-' }

func isVersionChar(c byte) bool { return isAlnum(c) || c == '_' || c == '.' || c == '-' }

func isVariantChar(c byte) bool { return isAlnum(c) || c == '_' || c == '-' }

func isKeyChar(c byte) bool { return isAlnum(c) || c == '_' || c == '-' || c == '.' }
