// SPDX-License-Identifier: MPL-2.0

package envcompose

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrInvalidVariableName is returned by Script for a variable name that is
// not a valid shell name.
var ErrInvalidVariableName = errors.New("invalid shell variable name")

// Script renders the environment as a POSIX shell fragment: one
// "module load" line per module, then one export or unset per variable.
// Variables whose prior value is kept reference it with ${VAR:+...} so the
// fragment is correct whether or not VAR is already set.
func (e Environment) Script() (string, error) {
	var sb strings.Builder
	for _, m := range e.Modules {
		q, err := quote(m)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "module load %s\n", q)
	}

	sep := e.sep()
	for _, p := range e.plan() {
		if !syntax.ValidName(p.name) {
			return "", fmt.Errorf("%w %q", ErrInvalidVariableName, p.name)
		}
		head := e.head(p)
		if p.replaced {
			list := slices.Concat(head, p.prior, p.post)
			if len(list) == 0 && !p.exists {
				fmt.Fprintf(&sb, "unset %s\n", p.name)
				continue
			}
			q, err := quote(strings.Join(list, sep))
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "export %s=%s\n", p.name, q)
			continue
		}
		if len(head) == 0 && len(p.post) == 0 {
			continue
		}

		var value strings.Builder
		if len(head) > 0 {
			q, err := quote(strings.Join(head, sep))
			if err != nil {
				return "", err
			}
			value.WriteString(q)
			fmt.Fprintf(&value, `"${%s:+%s${%s}}"`, p.name, sep, p.name)
		}
		if len(p.post) > 0 {
			tail := strings.Join(p.post, sep)
			if len(head) > 0 {
				tail = sep + tail
			} else {
				fmt.Fprintf(&value, `"${%s:+${%s}%s}"`, p.name, p.name, sep)
			}
			q, err := quote(tail)
			if err != nil {
				return "", err
			}
			value.WriteString(q)
		}
		fmt.Fprintf(&sb, "export %s=%s\n", p.name, value.String())
	}
	return sb.String(), nil
}

// quote makes s safe as a single POSIX shell word.
func quote(s string) (string, error) {
	q, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		return "", fmt.Errorf("cannot quote %q for the shell: %w", s, err)
	}
	return q, nil
}
