package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/SebastianScherer88/graphit/pkg/cache"
	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/export"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// writeTree creates files under a temp dir and returns the dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

var outerInner = map[string]string{
	"a.py": "def outer():\n    return inner()\n",
	"b.py": "def inner():\n    return None\n",
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"dot", false},
		{"json", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{ReferenceDir: t.TempDir()}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Strategy != "ast" || opts.MaxDepth != DefaultMaxDepth || opts.MaxNodes != DefaultMaxNodes {
		t.Errorf("defaults not applied: %+v", opts)
	}
	if opts.OutputDir != DefaultOutputDir || len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("output defaults not applied: %+v", opts)
	}
	if len(opts.Ignore) != 2 || opts.Workers <= 0 || opts.Logger == nil {
		t.Errorf("runtime defaults not applied: %+v", opts)
	}
}

func TestValidateAndSetDefaultsErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing dir", Options{ReferenceDir: filepath.Join(dir, "nope")}, errors.ErrCodeInvalidPath},
		{"bad strategy", Options{ReferenceDir: dir, Strategy: "regex"}, errors.ErrCodeInvalidStrategy},
		{"bad depth", Options{ReferenceDir: dir, MaxDepth: -1}, errors.ErrCodeInvalidDepth},
		{"bad format", Options{ReferenceDir: dir, Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"bad scope", Options{ReferenceDir: dir, Scope: []string{"../outside"}}, errors.ErrCodeInvalidInput},
		{"bad workers", Options{ReferenceDir: dir, Workers: -2}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestDiagramFormats(t *testing.T) {
	opts := Options{Formats: []string{"svg", "json", "dot"}}
	got := opts.DiagramFormats()
	if len(got) != 2 || got[0] != "svg" || got[1] != "dot" {
		t.Errorf("DiagramFormats() = %v", got)
	}
	if !opts.WantsJSON() {
		t.Error("WantsJSON() = false")
	}
	opts.NoRender = true
	if len(opts.DiagramFormats()) != 0 {
		t.Error("NoRender should disable diagrams")
	}
}

func TestAnalyzeOuterInner(t *testing.T) {
	for _, strategy := range []string{"ast", "lines"} {
		t.Run(strategy, func(t *testing.T) {
			dir := writeTree(t, outerInner)
			r := NewRunner(nil, quietLogger())
			opts := Options{ReferenceDir: dir, Strategy: strategy}

			a, err := r.Analyze(context.Background(), opts)
			if err != nil {
				t.Fatal(err)
			}
			defs := a.Definitions()
			if len(defs) != 2 || defs[0].Handle != "outer" || defs[1].Handle != "inner" {
				t.Fatalf("definitions = %+v", defs)
			}
			if defs[0].ModuleID != a.Modules[0].ID || defs[1].ModuleID != a.Modules[1].ID {
				t.Error("definitions attributed to the wrong module")
			}
			if len(a.Roots) != 1 || a.Roots[0] != defs[0].ID {
				t.Fatalf("roots = %v, want [outer]", a.Roots)
			}

			graphs, err := r.BuildGraphs(context.Background(), a, opts)
			if err != nil {
				t.Fatal(err)
			}
			g := graphs[0]
			if len(g.Nodes) != 2 {
				t.Fatalf("graph has %d nodes, want 2", len(g.Nodes))
			}
			child := g.Nodes[1]
			if child.TargetID != defs[1].ID || child.Address.String() != "1" || child.DependencyIndex != 0 || child.Generation != 1 {
				t.Errorf("child = %+v", child)
			}
			if g.Generations() != 2 {
				t.Errorf("generations = %d, want 2", g.Generations())
			}
		})
	}
}

func TestAnalyzeDiagnostics(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.py":      "def helper():\n    return 1\n",
		"b.py":      "def helper():\n    return 2\n\ndef main():\n    return helper()\n",
		"broken.py": "def oops(:\n    return\n",
	})
	r := NewRunner(nil, quietLogger())
	a, err := r.Analyze(context.Background(), Options{ReferenceDir: dir})
	if err != nil {
		t.Fatal(err)
	}

	codes := map[errors.Code]int{}
	for _, d := range a.Diagnostics {
		codes[d.Code]++
	}
	if codes[errors.ErrCodeParse] != 1 || a.Stats.ParseErrors != 1 {
		t.Errorf("parse diagnostics = %d, stats = %d", codes[errors.ErrCodeParse], a.Stats.ParseErrors)
	}
	if codes[errors.ErrCodeDuplicateHandle] != 1 || a.Stats.Duplicates != 1 {
		t.Errorf("duplicate diagnostics = %d, stats = %d", codes[errors.ErrCodeDuplicateHandle], a.Stats.Duplicates)
	}

	// main resolves to the first helper, from a.py.
	main, _ := a.Resolution.ByHandle("main")
	first := a.Definitions()[0]
	if len(main.Edges) != 1 || main.Edges[0].TargetID != first.ID {
		t.Errorf("main edges = %+v, want first helper %s", main.Edges, first.ID)
	}
	if a.Stats.Modules != 3 || a.Stats.Definitions != 3 {
		t.Errorf("stats = %+v", a.Stats)
	}
}

func TestAnalyzeDropsUnresolvedQuietly(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app.py": "def main():\n    print(len([]))\n    return helper()\n\ndef helper():\n    return 1\n",
	})
	var buf strings.Builder
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)

	a, err := NewRunner(nil, logger).Analyze(context.Background(), Options{ReferenceDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if a.Stats.Unresolved != 2 {
		t.Errorf("Unresolved = %d, want 2", a.Stats.Unresolved)
	}
	for _, d := range a.Diagnostics {
		if d.Code == errors.ErrCodeResolutionMiss {
			t.Errorf("unresolved calls should not produce diagnostics: %v", d)
		}
	}
	main, _ := a.Resolution.ByHandle("main")
	if len(main.Edges) != 1 {
		t.Errorf("main edges = %+v, want only helper", main.Edges)
	}

	out := buf.String()
	for _, want := range []string{"dropped unresolved calls", "RESOLUTION_MISS", "print", "len"} {
		if !strings.Contains(out, want) {
			t.Errorf("debug log missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeNoModules(t *testing.T) {
	dir := writeTree(t, map[string]string{"README.md": "# nothing"})
	_, err := NewRunner(nil, quietLogger()).Analyze(context.Background(), Options{ReferenceDir: dir})
	if !errors.Is(err, errors.ErrCodeNoModules) {
		t.Errorf("error = %v, want NO_MODULES", err)
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	dir := writeTree(t, outerInner)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRunner(nil, quietLogger()).Analyze(ctx, Options{ReferenceDir: dir}); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}

func TestCycleHasNoRootsAndHalts(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"cycle.py": "def a():\n    return b()\n\ndef b():\n    return a()\n",
	})
	r := NewRunner(nil, quietLogger())
	opts := Options{ReferenceDir: dir}
	a, err := r.Analyze(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Roots) != 0 {
		t.Errorf("roots = %v, want none", a.Roots)
	}

	g, err := r.Graph(context.Background(), a, "a", opts)
	if err != nil {
		t.Fatal(err)
	}
	// a -> b -> a(truncated)
	if len(g.Nodes) != 3 || !g.Nodes[2].Truncated || g.Nodes[2].Address.String() != "1.1" {
		t.Errorf("nodes = %+v", g.Nodes)
	}
	if a.Stats.Overruns != 1 {
		t.Errorf("overruns = %d, want 1", a.Stats.Overruns)
	}

	if _, err := r.Graph(context.Background(), a, "missing", opts); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown handle error = %v", err)
	}
	if _, err := r.Expand(context.Background(), a, "no-such-id", opts); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown id error = %v", err)
	}

	b, _ := a.Resolution.ByHandle("b")
	g, err = r.Expand(context.Background(), a, b.ID, opts)
	if err != nil {
		t.Fatal(err)
	}
	if g.RootID != b.ID || len(g.Nodes) != 3 {
		t.Errorf("expand b = %+v", g)
	}
	if a.Stats.Graphs != 2 {
		t.Errorf("graphs = %d, want 2", a.Stats.Graphs)
	}
}

func TestIdempotentAcrossRuns(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app.py":   "def run():\n    load()\n    save()\n    return load()\n",
		"io_.py":   "def load():\n    return connect()\n\ndef save():\n    return connect()\n",
		"net.py":   "def connect():\n    return None\n",
		"cli.py":   "def cli():\n    return run()\n",
		"other.py": "def unused():\n    return print('x')\n",
	})

	shape := func() []string {
		r := NewRunner(nil, quietLogger())
		opts := Options{ReferenceDir: dir}
		a, err := r.Analyze(context.Background(), opts)
		if err != nil {
			t.Fatal(err)
		}
		graphs, err := r.BuildGraphs(context.Background(), a, opts)
		if err != nil {
			t.Fatal(err)
		}
		var out []string
		for _, d := range a.Definitions() {
			out = append(out, d.Handle+"/"+strings.Repeat("e", len(d.Edges)))
		}
		for _, g := range graphs {
			l := Layout(a, g, opts)
			for _, n := range l.Nodes {
				out = append(out, l.RootHandle+":"+n.Address.String()+"="+n.Handle)
			}
		}
		return out
	}

	first, second := shape(), shape()
	if strings.Join(first, ",") != strings.Join(second, ",") {
		t.Errorf("runs differ:\n%v\n%v", first, second)
	}
}

func TestExecuteWritesOutputs(t *testing.T) {
	dir := writeTree(t, outerInner)
	out := filepath.Join(t.TempDir(), "output")
	r := NewRunner(nil, quietLogger())
	r.Now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	res, err := r.Execute(context.Background(), Options{
		ReferenceDir: dir,
		OutputDir:    out,
		Formats:      []string{"dot", "json"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.OutputDir != filepath.Join(out, "2024-01-02 03-04-05") {
		t.Errorf("output dir = %s", res.OutputDir)
	}

	root := res.Roots[0]
	want := []string{
		export.ModuleTable,
		export.FunctionTable,
		export.DependencyTable,
		export.GraphTable(root),
		export.GraphDocument(root),
		DiagramFile(root, "dot"),
	}
	for _, name := range want {
		if _, err := os.Stat(filepath.Join(res.OutputDir, name)); err != nil {
			t.Errorf("missing %s", name)
		}
	}
	if len(res.Files) != len(want) {
		t.Errorf("files = %v", res.Files)
	}

	dot, _ := os.ReadFile(filepath.Join(res.OutputDir, DiagramFile(root, "dot")))
	if !strings.Contains(string(dot), `label="outer"`) || !strings.Contains(string(dot), `label="inner"`) {
		t.Errorf("diagram missing handles:\n%s", dot)
	}

	l, err := export.ImportJSON(filepath.Join(res.OutputDir, export.GraphDocument(root)))
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Nodes) != 2 || l.Nodes[1].Module != "b" {
		t.Errorf("graph document = %+v", l)
	}
}

func TestExecuteNoRender(t *testing.T) {
	dir := writeTree(t, outerInner)
	r := NewRunner(nil, quietLogger())
	res, err := r.Execute(context.Background(), Options{
		ReferenceDir: dir,
		OutputDir:    t.TempDir(),
		NoRender:     true,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range res.Files {
		if strings.Contains(f, "_graph_root_diagram.") {
			t.Errorf("diagram written despite NoRender: %s", f)
		}
	}
	if len(res.Layouts) != 1 || res.Layouts[0].Height != 2 {
		t.Errorf("layouts = %+v", res.Layouts)
	}
}

func TestExtractionCache(t *testing.T) {
	dir := writeTree(t, outerInner)
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, quietLogger())
	opts := Options{ReferenceDir: dir}

	first, err := r.Analyze(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.Stats.CacheHits != 0 {
		t.Errorf("first run cache hits = %d", first.Stats.CacheHits)
	}

	second, err := r.Analyze(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if second.Stats.CacheHits != 2 {
		t.Errorf("second run cache hits = %d, want 2", second.Stats.CacheHits)
	}
	// Cached definitions still get fresh ids.
	if first.Definitions()[0].ID == second.Definitions()[0].ID {
		t.Error("definition ids reused across runs")
	}
	if len(second.Roots) != 1 || second.Definitions()[1].ModuleID != second.Modules[1].ID {
		t.Errorf("cached analysis = %+v", second.Definitions())
	}
}
