// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	DocumentNotFoundId Id = iota + 1
	DocumentInvalidId
	MalformedSpecId
	DuplicateCompilerId
	MissingIncludeId
	IncludeCycleId
	NoMatchId
	ConfigLoadFailedId
	PrefixMissingId
)

type (
	// Id identifies a catalog entry.
	Id int

	// MarkdownMsg is the markdown body of an issue.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is a catalog entry explaining one class of failure.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the issue as terminal markdown. stylePath is a glamour
// style name such as "dark", "light" or "notty".
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("\n- <" + string(link) + ">")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	documentNotFoundIssue = &Issue{
		id: DocumentNotFoundId,
		mdMsg: `
# Environment document not found

extreg needs an environment document describing compilers and external
packages.

## Things you can try
- Pass the document explicitly:
~~~
$ extreg --env ./spack.yaml list
~~~
- Set a default in your config file:
~~~
$ extreg config init
~~~
  and edit ` + "`environment`" + `, or export ` + "`EXTREG_ENVIRONMENT`" + `.`,
	}

	documentInvalidIssue = &Issue{
		id: DocumentInvalidId,
		mdMsg: `
# Environment document is invalid

The document did not match the expected schema. The path in the message
(for example ` + "`compilers[0].compiler.paths.cc`" + `) points at the offending value.

## Things you can try
- Check indentation: each compiler is a list item with a single ` + "`compiler:`" + ` key
- Every compiler needs ` + "`spec`" + `, ` + "`paths`" + `, ` + "`operating_system`" + ` and ` + "`target`" + `
- Run ` + "`extreg validate --verbose`" + ` for the full error chain`,
		docLinks: []HttpLink{"https://spack.readthedocs.io/en/latest/getting_started.html#compiler-configuration"},
	}

	malformedSpecIssue = &Issue{
		id: MalformedSpecId,
		mdMsg: `
# Malformed spec

Specs follow ` + "`name[@version][+variant|~variant|key=value...][%compiler[@version]]`" + `.

## Examples
~~~
openmpi@4.1.1+cuda%gcc@11.1.0
hdf5~mpi target=zen2
cmake@3.26.0 os=rhel8
~~~

Compiler specs in a document must be exactly ` + "`family@version`" + `.`,
	}

	duplicateCompilerIssue = &Issue{
		id: DuplicateCompilerId,
		mdMsg: `
# Duplicate compiler

Two documents in the include chain declare the same compiler for the same
operating system and target. Compilers are never overwritten.

## Things you can try
- Remove the declaration from one of the documents
- Give the second declaration a different ` + "`operating_system`" + ` or ` + "`target`",
	}

	missingIncludeIssue = &Issue{
		id: MissingIncludeId,
		mdMsg: `
# Included document could not be loaded

Relative include paths are resolved against the directory of the document
that includes them. ` + "`$VAR`" + ` references are expanded from the environment.

## Things you can try
- Check that the file exists and is readable
- Check that every variable referenced in the include path is exported`,
		docLinks: []HttpLink{"https://spack.readthedocs.io/en/latest/environments.html#included-configurations"},
	}

	includeCycleIssue = &Issue{
		id: IncludeCycleId,
		mdMsg: `
# Include cycle

A document includes itself, directly or through other documents. Remove one
of the include entries listed in the chain.`,
	}

	noMatchIssue = &Issue{
		id: NoMatchId,
		mdMsg: `
# No matching entry

No registered entry satisfies the request. The message names the filter
stage that removed the last candidate.

## Things you can try
- See why each candidate was dropped:
~~~
$ extreg explain 'openmpi@4.1.1+cuda'
~~~
- List what is registered:
~~~
$ extreg list
$ extreg compilers
~~~`,
		docLinks: []HttpLink{"https://spack.readthedocs.io/en/latest/build_settings.html#external-packages"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

## Things you can try
- Show where extreg looks for its config:
~~~
$ extreg config path
~~~
- Regenerate a default file:
~~~
$ extreg config init --force
~~~`,
	}

	prefixMissingIssue = &Issue{
		id: PrefixMissingId,
		mdMsg: `
# External prefix does not exist

An external package points at an install prefix that is not present on this
machine. Prefixes are only checked by ` + "`extreg validate --check-prefixes`" + `.

## Things you can try
- Fix the ` + "`prefix`" + ` of the listed externals
- Run the check on the cluster the document describes`,
	}

	issues = map[Id]*Issue{
		documentNotFoundIssue.Id():  documentNotFoundIssue,
		documentInvalidIssue.Id():   documentInvalidIssue,
		malformedSpecIssue.Id():     malformedSpecIssue,
		duplicateCompilerIssue.Id(): duplicateCompilerIssue,
		missingIncludeIssue.Id():    missingIncludeIssue,
		includeCycleIssue.Id():      includeCycleIssue,
		noMatchIssue.Id():           noMatchIssue,
		configLoadFailedIssue.Id():  configLoadFailedIssue,
		prefixMissingIssue.Id():     prefixMissingIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
