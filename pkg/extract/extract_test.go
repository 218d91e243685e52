package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/source"
)

const sampleSource = `import os

CONSTANT = compute_constant()


@decorator()
def outer(x):
    value = inner(x)
    helper = os.path.join("a", "b")

    def nested():
        return deep_call()

    return format_result(inner(value), nested())


class Service(Base):
    def run(self):
        self.prepare()
        return outer(1)


async def fetch():
    return await client.get()


if __name__ == "__main__":
    outer(2)
`

func handles(defs []Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Handle
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTreeSitterDefinitions(t *testing.T) {
	defs, err := NewTreeSitter().Extract(context.Background(), []byte(sampleSource))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if got, want := handles(defs), []string{"outer", "Service", "fetch"}; !equalStrings(got, want) {
		t.Fatalf("handles = %v, want %v", got, want)
	}

	wantKinds := []Kind{KindFunction, KindClass, KindFunction}
	for i, d := range defs {
		if d.Kind != wantKinds[i] {
			t.Errorf("%s kind = %s, want %s", d.Handle, d.Kind, wantKinds[i])
		}
	}

	outer := defs[0]
	if outer.Start.Line != 7 {
		t.Errorf("outer starts on line %d, want 7 (the def line, not the decorator)", outer.Start.Line)
	}
	if outer.End.Line != 14 {
		t.Errorf("outer ends on line %d, want 14", outer.End.Line)
	}
}

func TestTreeSitterCallOrder(t *testing.T) {
	defs, err := NewTreeSitter().Extract(context.Background(), []byte(sampleSource))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	// Decorator first, then body calls in source order. Calls in the nested
	// function belong to outer. inner appears twice.
	want := []string{"decorator", "inner", "join", "deep_call", "format_result", "inner", "nested"}
	if got := defs[0].CallNames(); !equalStrings(got, want) {
		t.Errorf("outer calls = %v, want %v", got, want)
	}

	for i := 1; i < len(defs[0].Calls); i++ {
		if defs[0].Calls[i].Position.Before(defs[0].Calls[i-1].Position) {
			t.Errorf("call %d precedes call %d", i, i-1)
		}
	}
}

func TestTreeSitterCallKinds(t *testing.T) {
	defs, err := NewTreeSitter().Extract(context.Background(), []byte(sampleSource))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	service := defs[1]
	want := []CallTarget{
		{Kind: MemberCall, Name: "prepare"},
		{Kind: DirectCall, Name: "outer"},
	}
	if len(service.Calls) != len(want) {
		t.Fatalf("Service calls = %v, want %d entries", service.CallNames(), len(want))
	}
	for i, c := range service.Calls {
		if c.Kind != want[i].Kind || c.Name != want[i].Name {
			t.Errorf("call %d = %s(%s), want %s(%s)", i, c.Kind, c.Name, want[i].Kind, want[i].Name)
		}
	}

	fetch := defs[2]
	if got := fetch.CallNames(); !equalStrings(got, []string{"get"}) {
		t.Errorf("fetch calls = %v, want [get]", got)
	}
}

func TestTreeSitterSkipsUnnamedCallees(t *testing.T) {
	src := `def f():
    handlers["x"]()
    make()()
    (lambda: 1)()
    return g()
`
	defs, err := NewTreeSitter().Extract(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got, want := defs[0].CallNames(), []string{"make", "g"}; !equalStrings(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestTreeSitterParseError(t *testing.T) {
	_, err := NewTreeSitter().Extract(context.Background(), []byte("def broken(:\n    pass\n"))
	if !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("err = %v, want PARSE_ERROR", err)
	}
}

func TestLinesHeuristic(t *testing.T) {
	src := "def first(a):\n" +
		"    x = helper(a)\n" +
		"    obj.method()\n" +
		"    if (x):\n" +
		"        return x  # nested return is too deep\n" +
		"    return finish(x)\n" +
		"\n" +
		"def tabbed():\n" +
		"\tcall_it()\n" +
		"\treturn None\n" +
		"\n" +
		"def no_return():\n" +
		"    side_effect()\n" +
		"\n" +
		"    def indented():\n" +
		"        return 1\n"

	defs, err := NewLines().Extract(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if got, want := handles(defs), []string{"first", "tabbed", "no_return"}; !equalStrings(got, want) {
		t.Fatalf("handles = %v, want %v", got, want)
	}

	first := defs[0]
	if first.Start.Line != 1 || first.End.Line != 6 {
		t.Errorf("first span = %d-%d, want 1-6", first.Start.Line, first.End.Line)
	}
	if got, want := first.CallNames(), []string{"helper", "method", "finish"}; !equalStrings(got, want) {
		t.Errorf("first calls = %v, want %v", got, want)
	}
	if first.Calls[1].Kind != MemberCall {
		t.Errorf("method call kind = %s, want member", first.Calls[1].Kind)
	}

	tabbed := defs[1]
	if tabbed.End.Line != 10 {
		t.Errorf("tabbed ends on line %d, want 10", tabbed.End.Line)
	}
	if got := tabbed.CallNames(); !equalStrings(got, []string{"call_it"}) {
		t.Errorf("tabbed calls = %v, want [call_it]", got)
	}

	// No return at one indentation unit: span collapses, no calls.
	noReturn := defs[2]
	if noReturn.Start.Line != 12 || noReturn.End.Line != 12 || len(noReturn.Calls) != 0 {
		t.Errorf("no_return span = %d-%d with %d calls, want 12-12 with 0 calls",
			noReturn.Start.Line, noReturn.End.Line, len(noReturn.Calls))
	}
}

func TestLinesHeuristicMisbounds(t *testing.T) {
	// A definition without a return runs on into the next one.
	src := "def a():\n" +
		"    side()\n" +
		"\n" +
		"def b():\n" +
		"    return other()\n"

	defs, err := NewLines().Extract(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if defs[0].End.Line != 5 {
		t.Errorf("a ends on line %d, want 5", defs[0].End.Line)
	}
	if got, want := defs[0].CallNames(), []string{"side", "other"}; !equalStrings(got, want) {
		t.Errorf("a calls = %v, want %v", got, want)
	}
}

func TestLinesHeuristicReturnToken(t *testing.T) {
	src := "def inline():\n" +
		"    x = load(); return x\n" +
		"\n" +
		"def commented():\n" +
		"    step()  # return early?\n" +
		"    returned = finish()\n" +
		"    return returned\n"

	defs, err := NewLines().Extract(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("got %d definitions, want 2", len(defs))
	}

	if defs[0].End.Line != 2 {
		t.Errorf("inline ends on line %d, want 2", defs[0].End.Line)
	}
	if got := defs[0].CallNames(); !equalStrings(got, []string{"load"}) {
		t.Errorf("inline calls = %v, want [load]", got)
	}

	// Neither the comment nor the identifier "returned" closes the span.
	if defs[1].End.Line != 7 {
		t.Errorf("commented ends on line %d, want 7", defs[1].End.Line)
	}
	if got, want := defs[1].CallNames(), []string{"step", "finish"}; !equalStrings(got, want) {
		t.Errorf("commented calls = %v, want %v", got, want)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		strategy Strategy
		want     Strategy
		wantErr  bool
	}{
		{StrategyAST, StrategyAST, false},
		{StrategyLines, StrategyLines, false},
		{"", StrategyAST, false},
		{"regex", "", true},
	}

	for _, tt := range tests {
		ex, err := New(tt.strategy)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q) error = %v, wantErr %v", tt.strategy, err, tt.wantErr)
			continue
		}
		if err == nil && ex.Strategy() != tt.want {
			t.Errorf("New(%q).Strategy() = %q, want %q", tt.strategy, ex.Strategy(), tt.want)
		}
	}
}

func TestModule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	if err := os.WriteFile(path, []byte("def outer():\n    return inner()\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	mod := source.Module{ID: "mod-a", FilePath: path, ImportPath: "a"}

	defs, err := Module(context.Background(), NewTreeSitter(), mod)
	if err != nil {
		t.Fatalf("Module: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("got %d definitions, want 1", len(defs))
	}
	if defs[0].ID == "" || defs[0].ModuleID != "mod-a" {
		t.Errorf("definition ids not assigned: %+v", defs[0])
	}
}

func TestModuleFileAccess(t *testing.T) {
	mod := source.Module{ID: "m", FilePath: filepath.Join(t.TempDir(), "missing.py")}

	_, err := Module(context.Background(), NewLines(), mod)
	if !errors.Is(err, errors.ErrCodeFileAccess) {
		t.Errorf("err = %v, want FILE_ACCESS", err)
	}
	if !errors.Recoverable(err) {
		t.Error("file access errors should be recoverable")
	}
}
