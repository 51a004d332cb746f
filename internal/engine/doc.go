// Package engine resolves computations against a knowledge graph.
//
// Resolution binds every parameter of a computation to a concrete value
// for every entity the graph supports:
//
//  1. Fast reject: if no graph implementation reachable from the
//     computation's questions qualifies against the graph, stop.
//  2. Rank: compute the candidate set of every implementation. Graph
//     implementations run their compiled query; defaults and wrapped
//     constants are wildcards; composites intersect their operands.
//  3. Targets: the union of every non-wildcard candidate set.
//  4. Bind: per target, each question takes its first implementation (in
//     declared order) whose candidate set contains the target. A target
//     that some question cannot answer is dropped with a diagnostic.
//  5. Materialize: graph values are read from the point variable of the
//     query re-run with the root pinned to the target; composites are
//     evaluated after their operands.
//
// CRITICAL PATTERNS:
//
// Deterministic output:
// Targets are processed and returned in sorted order, queries return
// ordered rows, and the first row wins. Worker count never changes the
// result, only how fast it arrives.
//
// Declaration order is precedence:
// The lowest-index applicable implementation always wins. There is no
// other ranking signal.
//
// Per-target failures are local:
// Anything that goes wrong for one target drops that target and is
// reported through Diagnostics. Only collaborator failures outside
// per-target work, cancellation, and the target limit abort a run.
package engine
