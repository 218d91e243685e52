package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/SebastianScherer88/graphit/pkg/callgraph"
	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/extract"
	"github.com/SebastianScherer88/graphit/pkg/layout"
	"github.com/SebastianScherer88/graphit/pkg/resolve"
	"github.com/SebastianScherer88/graphit/pkg/source"
)

func sampleLayout(t *testing.T) *layout.Layout {
	t.Helper()
	modules := []source.Module{
		{ID: "ma", FilePath: "/p/app.py", ImportPath: "app"},
		{ID: "mb", FilePath: "/p/lib.py", ImportPath: "lib"},
	}
	call := func(name string) extract.CallTarget { return extract.Direct(name, extract.Location{}) }
	r := resolve.Resolve([]extract.Definition{
		{ID: "main", Handle: "main", ModuleID: "ma", Calls: []extract.CallTarget{call("left"), call("right")}},
		{ID: "left", Handle: "left", ModuleID: "mb", Calls: []extract.CallTarget{call("main")}},
		{ID: "right", Handle: "right", ModuleID: "mb"},
	})
	g, _ := callgraph.Build(r, "main", callgraph.Options{})
	return layout.Assign(g, layout.NewCatalog(modules, r.Definitions), layout.Palette{"#111111", "#222222"})
}

func TestToDOT_Shapes(t *testing.T) {
	dot := ToDOT(sampleLayout(t), Options{})

	if !strings.Contains(dot, "digraph G") {
		t.Error("ToDOT() output missing digraph declaration")
	}
	if strings.Contains(dot, "n1_idx [") {
		t.Error("root must not have an index circle")
	}
	for _, want := range []string{
		`n1_fn [label="main"`,
		`n1_mod [label="app"`,
		`n2_idx [label="1"`,
		`n2_fn [label="left"`,
		`n4_idx [label="2"`,
		`n4_fn [label="right"`,
		`fillcolor="#222222"`, // lib sorts after app
		`fillcolor="#111111"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %s", want)
		}
	}
}

func TestToDOT_Edges(t *testing.T) {
	dot := ToDOT(sampleLayout(t), Options{})

	for _, want := range []string{
		"n1_fn -> n2_idx;", // main -> left
		"n1_fn -> n4_idx;", // main -> right
		"n2_fn -> n3_idx;", // left -> main (truncated)
		"n2_idx -> n4_idx [style=dashed",
		"n2_idx -> n2_fn [arrowhead=none]",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing edge %s", want)
		}
	}
	if strings.Contains(dot, "n4_idx -> n5_idx") {
		t.Error("last child must not link to a sibling")
	}
}

func TestToDOT_Truncated(t *testing.T) {
	dot := ToDOT(sampleLayout(t), Options{})

	if !strings.Contains(dot, `n3_fn [label="main (cycle)"`) {
		t.Error("truncated node label missing reason")
	}
	if !strings.Contains(dot, `style="rounded,filled,dashed"`) {
		t.Error("truncated node missing dashed style")
	}
}

func TestToDOT_PinnedPositions(t *testing.T) {
	dot := ToDOT(sampleLayout(t), Options{XStep: 10, YStep: 1})

	// Row 2, generation 1: the index circle sits on the column line.
	if !strings.Contains(dot, `n2_idx [label="1", shape=circle, fixedsize=true, width=0.55, fontsize=10, pos="10.00,-2.00!"]`) {
		t.Errorf("unexpected index position in:\n%s", dot)
	}
	if !strings.Contains(dot, `pos="1.60,-1.00!"`) {
		t.Error("root handle box not pinned at generation 0, row 1")
	}
}

func TestRender_DOTPassthrough(t *testing.T) {
	out, err := Render(context.Background(), "digraph G {}", FormatDOT, Options{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(out) != "digraph G {}" {
		t.Errorf("Render() = %q", out)
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := Render(context.Background(), "digraph G {}", Format("gif"), Options{})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Render() error = %v, want INVALID_FORMAT", err)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.50 200.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))

	if !strings.Contains(out, `viewBox="0 0 100.50 200.00" width="100" height="200"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if !strings.Contains(out, "<g/>") {
		t.Error("normalizeViewBox() dropped content")
	}
}
