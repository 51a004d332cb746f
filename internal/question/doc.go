// Package question holds the authored side of resolution: questions, their
// ordered implementations, algebraic composition, and the computations
// that consume them.
//
// A Question is a named, unit-typed piece of information a computation
// needs. It lists alternative Implementations in priority order:
//
//	GraphImplementation      value extracted from the graph by a shape
//	DefaultImplementation    constant, applies to every target
//	WrappedImplementation    precomputed constant, applies to every target
//	CompositeImplementation  operator over other questions or constants
//
// Composition is explicit: Combine(op, left, right) and Abs(x) build a
// CompositeImplementation that records its operands, so the resolver can
// discover the questions a composite depends on.
//
// A Computation declares its parameters explicitly as name → Question
// bindings; the Registry is the unit the resolver consumes.
//
// Everything in this package is immutable after construction. Resolved
// values never live here; they live in per-run results in package engine.
package question
