package callgraph

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/resolve"
)

// Expansion limits.
const (
	// DefaultMaxDepth is the deepest generation expanded by default.
	DefaultMaxDepth = 32

	// DefaultMaxNodes caps the number of nodes in one graph by default.
	DefaultMaxNodes = 100_000
)

// TruncateReason explains why a node was not expanded.
type TruncateReason string

const (
	// TruncateCycle marks a node whose definition already occurs on its own
	// root-to-node path.
	TruncateCycle TruncateReason = "cycle"

	// TruncateDepth marks a node at the generation ceiling that still has
	// call edges.
	TruncateDepth TruncateReason = "depth"

	// TruncateSize marks a node left unexpanded because the graph reached
	// its node cap.
	TruncateSize TruncateReason = "size"
)

// =============================================================================
// Types
// =============================================================================

// Node is one edge instance of the unrolled expansion. A definition reached
// along several paths appears once per path.
type Node struct {
	ParentID        string         `json:"parent_id,omitempty"`
	TargetID        string         `json:"target_id"`
	Generation      int            `json:"generation"`
	DependencyIndex int            `json:"dependency_index"`
	Address         Address        `json:"address"`
	Truncated       bool           `json:"truncated,omitempty"`
	Reason          TruncateReason `json:"reason,omitempty"`
}

// IsRoot reports whether n is the generation 0 node.
func (n Node) IsRoot() bool { return n.Generation == 0 }

// Graph is the expansion of one root definition. Nodes are sorted by address.
type Graph struct {
	RootID string `json:"root_id"`
	Nodes  []Node `json:"nodes"`
}

// Generations returns the number of generations in g, root included.
func (g *Graph) Generations() int {
	deepest := -1
	for _, n := range g.Nodes {
		if n.Generation > deepest {
			deepest = n.Generation
		}
	}
	return deepest + 1
}

// Generation returns the nodes of generation gen in address order.
func (g *Graph) Generation(gen int) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Generation == gen {
			out = append(out, n)
		}
	}
	return out
}

// Truncated returns the nodes that were cut off by a termination rule.
func (g *Graph) Truncated() []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Truncated {
			out = append(out, n)
		}
	}
	return out
}

// Overrun is emitted whenever a termination rule cuts a branch.
type Overrun struct {
	RootID       string         `json:"root_id"`
	DefinitionID string         `json:"definition_id"`
	Address      Address        `json:"address"`
	Reason       TruncateReason `json:"reason"`
}

// Err describes the overrun with the EXPANSION_OVERRUN code.
func (o Overrun) Err() error {
	return errors.New(errors.ErrCodeExpansionOverrun,
		"expansion of %s truncated at address %q: %s on definition %s",
		o.RootID, o.Address.String(), o.Reason, o.DefinitionID)
}

// EdgeSource supplies the ordered call-edge targets of a definition.
// [*resolve.Resolution] implements it.
type EdgeSource interface {
	Edges(id string) []string
}

var _ EdgeSource = (*resolve.Resolution)(nil)

// Options bounds expansion.
type Options struct {
	MaxDepth int // deepest generation to expand (0 = DefaultMaxDepth)
	MaxNodes int // node cap per graph (0 = DefaultMaxNodes)
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	return o
}

// =============================================================================
// Roots
// =============================================================================

// Roots returns the ids of definitions that are never the target of a
// resolved call edge, in input order.
func Roots(defs []resolve.ResolvedDefinition) []string {
	called := make(map[string]bool)
	for _, d := range defs {
		for _, e := range d.Edges {
			called[e.TargetID] = true
		}
	}
	var roots []string
	for _, d := range defs {
		if !called[d.ID] {
			roots = append(roots, d.ID)
		}
	}
	return roots
}

// =============================================================================
// Expansion
// =============================================================================

// Build expands the graph rooted at rootID generation by generation.
//
// The j-th edge of a node becomes a child at address parent.(j+1). A child
// whose target already occurs on its own root path is emitted truncated
// with [TruncateCycle] and not expanded. A node at generation MaxDepth that
// still has edges is truncated with [TruncateDepth]. Expansion ends when a
// generation produces no children. Every truncation yields an [Overrun].
//
// rootID need not be a true root; any definition may be expanded.
func Build(src EdgeSource, rootID string, opts Options) (*Graph, []Overrun) {
	opts = opts.withDefaults()

	nodes := []Node{{TargetID: rootID, Address: Address{}}}
	parent := []int{-1}
	var overruns []Overrun

	truncate := func(idx int, reason TruncateReason) {
		nodes[idx].Truncated = true
		nodes[idx].Reason = reason
		overruns = append(overruns, Overrun{
			RootID:       rootID,
			DefinitionID: nodes[idx].TargetID,
			Address:      nodes[idx].Address,
			Reason:       reason,
		})
	}

	onPath := func(idx int, id string) bool {
		for i := idx; i >= 0; i = parent[i] {
			if nodes[i].TargetID == id {
				return true
			}
		}
		return false
	}

	frontier := []int{0}
	for gen := 0; len(frontier) > 0; gen++ {
		var next []int
		for _, idx := range frontier {
			n := nodes[idx]
			if n.Truncated {
				continue
			}
			edges := src.Edges(n.TargetID)
			if len(edges) == 0 {
				continue
			}
			if gen >= opts.MaxDepth {
				truncate(idx, TruncateDepth)
				continue
			}
			if len(nodes)+len(edges) > opts.MaxNodes {
				truncate(idx, TruncateSize)
				continue
			}
			for j, target := range edges {
				nodes = append(nodes, Node{
					ParentID:        n.TargetID,
					TargetID:        target,
					Generation:      gen + 1,
					DependencyIndex: j,
					Address:         n.Address.Child(j),
				})
				parent = append(parent, idx)
				child := len(nodes) - 1
				if onPath(idx, target) {
					truncate(child, TruncateCycle)
					continue
				}
				next = append(next, child)
			}
		}
		frontier = next
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Address.Less(nodes[j].Address)
	})
	return &Graph{RootID: rootID, Nodes: nodes}, overruns
}

// BuildAll builds one graph per root concurrently. The returned graphs are
// in roots order. workers <= 0 uses GOMAXPROCS.
func BuildAll(ctx context.Context, src EdgeSource, roots []string, opts Options, workers int) ([]*Graph, []Overrun, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	graphs := make([]*Graph, len(roots))
	overruns := make([][]Overrun, len(roots))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, root := range roots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			graphs[i], overruns[i] = Build(src, root, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var all []Overrun
	for _, o := range overruns {
		all = append(all, o...)
	}
	return graphs, all, nil
}
