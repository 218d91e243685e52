// Package callgraph builds per-root dependency graphs from resolved
// definitions.
//
// # Roots
//
// A root is a definition that no resolved call edge targets anywhere in the
// codebase. Entry points such as CLI mains and request handlers are roots;
// definitions that only call each other in a cycle are not.
//
// # Expansion
//
// [Build] unrolls the call relation breadth first. Generation 0 holds the
// root alone. Each node of generation g contributes one child per call edge
// of its definition to generation g+1, so a definition called along two
// paths appears twice. The graph is a tree of edge instances, not a
// deduplicated graph of definitions.
//
// # Addresses
//
// Every node carries an [Address] listing 1-based dependency positions from
// the root: the second call of the first callee is "1.2". Addresses compare
// numerically per segment, so "1.10" sorts after "1.9".
//
// # Termination
//
// Expansion re-visits a definition's edges every time it is reached, so a
// reachable cycle would never end. Two rules apply:
//
//   - Per-path cycle detection: a child whose definition already occurs on
//     its own root-to-node path is emitted with Truncated set and reason
//     [TruncateCycle], and is not expanded.
//   - Generation ceiling: a node at generation MaxDepth that still has call
//     edges is marked Truncated with reason [TruncateDepth].
//
// A node cap ([TruncateSize]) guards against pathological fan-out. Truncated
// nodes are distinguishable from leaves, and every truncation produces an
// [Overrun] naming the repeated definition and the address where the branch
// was cut. The rest of the graph still completes.
//
// # Concurrency
//
// Graphs of different roots are independent. [BuildAll] builds them on a
// bounded worker pool over a shared read-only [EdgeSource].
package callgraph
