package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/SebastianScherer88/graphit/pkg/callgraph"
	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/extract"
	"github.com/SebastianScherer88/graphit/pkg/layout"
	"github.com/SebastianScherer88/graphit/pkg/resolve"
	"github.com/SebastianScherer88/graphit/pkg/source"
)

type fixture struct {
	modules []source.Module
	res     *resolve.Resolution
	layout  *layout.Layout
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	modules := []source.Module{
		{ID: "m1", FilePath: "/src/app/main.py", ImportPath: "app.main"},
		{ID: "m2", FilePath: "/src/app/util.py", ImportPath: "app.util"},
	}
	loc := func(line int) extract.Location { return extract.Location{Line: line} }
	res := resolve.Resolve([]extract.Definition{
		{ID: "f1", Handle: "outer", Kind: extract.KindFunction, ModuleID: "m1", Start: loc(1), End: loc(4),
			Calls: []extract.CallTarget{extract.Direct("print", loc(2)), extract.Direct("inner", loc(3))}},
		{ID: "f2", Handle: "inner", Kind: extract.KindFunction, ModuleID: "m2", Start: loc(1), End: loc(2)},
	})
	g, _ := callgraph.Build(res, "f1", callgraph.Options{})
	l := layout.Assign(g, layout.NewCatalog(modules, res.Definitions), layout.Palette{"#aaaaaa", "#bbbbbb"})
	return fixture{modules: modules, res: res, layout: l}
}

func readCSV(t *testing.T, data string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	return rows
}

func TestWriteModules(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	if err := WriteModules(&buf, f.modules); err != nil {
		t.Fatal(err)
	}
	rows := readCSV(t, buf.String())
	want := [][]string{
		ModuleColumns,
		{"m1", "/src/app/main.py", "app.main"},
		{"m2", "/src/app/util.py", "app.util"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestWriteFunctions(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	if err := WriteFunctions(&buf, f.res.Definitions); err != nil {
		t.Fatal(err)
	}
	rows := readCSV(t, buf.String())
	want := [][]string{
		FunctionColumns,
		{"f1", "outer", "function", "m1", "1", "4", "1"}, // print is unresolved
		{"f2", "inner", "function", "m2", "1", "2", "0"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestWriteDependencies(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	if err := WriteDependencies(&buf, f.res.Definitions); err != nil {
		t.Fatal(err)
	}
	rows := readCSV(t, buf.String())
	want := [][]string{DependencyColumns, {"f1", "f2", "0"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestWriteGraph(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	if err := WriteGraph(&buf, f.layout); err != nil {
		t.Fatal(err)
	}
	rows := readCSV(t, buf.String())
	want := [][]string{
		GraphColumns,
		{"0", "0", "", "0", "1", "outer", "/src/app/main.py", "app.main", "app.main.outer", "#aaaaaa", "false"},
		{"0", "1", "1", "1", "2", "inner", "/src/app/util.py", "app.util", "app.util.inner", "#bbbbbb", "false"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestWriteTables(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	paths, err := WriteTables(dir, Tables{Modules: f.modules, Definitions: f.res.Definitions})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 3 {
		t.Fatalf("wrote %d tables, want 3", len(paths))
	}
	for _, name := range []string{ModuleTable, FunctionTable, DependencyTable} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	path, err := ExportGraph(dir, f.layout)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "graphit_f1_graph_meta_data.csv" {
		t.Errorf("graph table = %s", path)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	path, err := ExportJSON(dir, f.layout)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "graphit_f1_graph.json" {
		t.Errorf("document = %s", path)
	}

	got, err := ImportJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.RootID != "f1" || got.RootHandle != "outer" || len(got.Nodes) != 2 {
		t.Fatalf("decoded layout = %+v", got)
	}
	child := got.Nodes[1]
	if child.Address.String() != "1" || child.Handle != "inner" || child.Y != 2 || child.ParentID != "f1" {
		t.Errorf("decoded child = %+v", child)
	}
	if len(got.Nodes[0].Children) != 1 || got.Nodes[0].Children[0].String() != "1" {
		t.Errorf("decoded root children = %v", got.Nodes[0].Children)
	}
	if child.HasSibling() {
		t.Error("decoded child should have no sibling")
	}
}

func TestReadJSONInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", `{"nodes": [`},
		{"empty", `{"root_id": "x", "nodes": []}`},
		{"bad address", `{"nodes": [{"address": ""}, {"address": "1.x"}]}`},
		{"duplicate", `{"nodes": [{"address": "1"}, {"address": "1"}]}`},
		{"out of order", `{"nodes": [{"address": "2"}, {"address": "1"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.doc))
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("ReadJSON() error = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestRunDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "output")
	start := time.Date(2024, 5, 1, 13, 45, 9, 0, time.UTC)

	dir, err := RunDir(base, start)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(dir) != "2024-05-01 13-45-09" {
		t.Errorf("run dir = %s", dir)
	}

	again, err := RunDir(base, start)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(again) != "2024-05-01 13-45-09 (1)" {
		t.Errorf("second run dir = %s", again)
	}
}
