package extract

import (
	"context"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/SebastianScherer88/graphit/pkg/errors"
)

// TreeSitter extracts definitions from a tree-sitter Python syntax tree.
// It is safe for concurrent use; each call builds its own parser.
type TreeSitter struct{}

// NewTreeSitter returns the structural extractor.
func NewTreeSitter() *TreeSitter {
	return &TreeSitter{}
}

// Strategy returns [StrategyAST].
func (t *TreeSitter) Strategy() Strategy { return StrategyAST }

// Extract parses src and returns its top-level definitions in source order.
// Source that does not parse cleanly yields PARSE_ERROR.
func (t *TreeSitter) Extract(ctx context.Context, src []byte) ([]Definition, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(python.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "tree-sitter parse")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, errors.New(errors.ErrCodeParse, "syntax error near line %d", firstErrorLine(root))
	}

	w := &treeWalker{src: src}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		w.topLevel(root.NamedChild(i))
	}
	return w.defs, nil
}

type treeWalker struct {
	src  []byte
	defs []Definition
}

func (w *treeWalker) topLevel(node *sitter.Node) {
	outer := node
	if node.Type() == "decorated_definition" {
		node = node.ChildByFieldName("definition")
		if node == nil {
			return
		}
	}

	var kind Kind
	switch node.Type() {
	case "function_definition":
		kind = KindFunction
	case "class_definition":
		kind = KindClass
	default:
		return
	}

	name := node.ChildByFieldName("name")
	if name == nil {
		return
	}

	w.defs = append(w.defs, Definition{
		Handle: name.Content(w.src),
		Kind:   kind,
		Start:  startOf(node),
		End:    endOf(outer),
		Calls:  w.calls(outer),
	})
}

// calls collects every call expression below node, nested scopes included.
func (w *treeWalker) calls(node *sitter.Node) []CallTarget {
	var out []CallTarget
	stack := []*sitter.Node{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Type() == "call" {
			if c, ok := w.callTarget(n); ok {
				out = append(out, c)
			}
		}
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.NamedChild(i))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position.Before(out[j].Position)
	})
	return out
}

func (w *treeWalker) callTarget(call *sitter.Node) (CallTarget, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return CallTarget{}, false
	}
	pos := startOf(call)
	switch fn.Type() {
	case "identifier":
		return Direct(fn.Content(w.src), pos), true
	case "attribute":
		attr := fn.ChildByFieldName("attribute")
		if attr == nil {
			return CallTarget{}, false
		}
		return Member(attr.Content(w.src), pos), true
	}
	// Calls through subscripts, call results and lambdas have no name.
	return CallTarget{}, false
}

func startOf(n *sitter.Node) Location {
	p := n.StartPoint()
	return Location{Line: int(p.Row) + 1, Column: int(p.Column)}
}

func endOf(n *sitter.Node) Location {
	p := n.EndPoint()
	return Location{Line: int(p.Row) + 1, Column: int(p.Column)}
}

func firstErrorLine(root *sitter.Node) int {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type() == "ERROR" || n.IsMissing() {
			return int(n.StartPoint().Row) + 1
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.Child(i))
		}
	}
	return int(root.StartPoint().Row) + 1
}

var _ Extractor = (*TreeSitter)(nil)
