// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestValues_CoversEveryId(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != int(PrefixMissingId) {
		t.Fatalf("Values() = %d issues, want %d", len(values), PrefixMissingId)
	}
	for i, v := range values {
		if v.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, v.Id(), i+1)
		}
		if strings.TrimSpace(string(v.MarkdownMsg())) == "" {
			t.Errorf("issue %d has an empty message", v.Id())
		}
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	if got := Get(NoMatchId); got == nil || got.Id() != NoMatchId {
		t.Errorf("Get(NoMatchId) = %v", got)
	}
	if got := Get(Id(0)); got != nil {
		t.Errorf("Get(0) = %v, want nil", got)
	}
}

func TestIssue_DocLinksClone(t *testing.T) {
	t.Parallel()

	i := Get(NoMatchId)
	links := i.DocLinks()
	if len(links) == 0 {
		t.Fatal("NoMatch issue should carry doc links")
	}
	links[0] = "modified"
	if i.DocLinks()[0] == "modified" {
		t.Error("DocLinks() should return a clone")
	}
}

// Not parallel: replaces the package-level renderer.
func TestIssue_Render(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	var gotStyle string
	render = func(in string, stylePath string) (string, error) {
		gotStyle = stylePath
		return in, nil
	}

	rendered, err := Get(MissingIncludeId).Render("notty")
	if err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}
	if gotStyle != "notty" {
		t.Errorf("style = %q, want notty", gotStyle)
	}
	if !strings.Contains(rendered, "Included document could not be loaded") {
		t.Errorf("Render() missing title:\n%s", rendered)
	}
	if !strings.Contains(rendered, "## See also") {
		t.Errorf("Render() missing links section:\n%s", rendered)
	}

	rendered, err = Get(IncludeCycleId).Render("notty")
	if err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}
	if strings.Contains(rendered, "See also") {
		t.Errorf("issue without links should not render a links section:\n%s", rendered)
	}
}
