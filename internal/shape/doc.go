// Package shape provides the in-memory model of node-shape constraints.
//
// A Shape describes what a target entity must look like: which classes it
// belongs to, which typed relations it has, and which of those relations
// carries the value a question extracts (the point).
//
// SHAPE TREE:
//
//	Shape
//	  TargetClasses   OR-combined subtype-closure membership on the root
//	  Properties      ordered PropertyConstraint list
//	    Path          relation IRI
//	    Class | Node | Value   exactly one (or none: see below)
//	    Required      false = absence does not exclude the target
//	    Point         at most one per conjunctive branch
//	  Alternatives    OR-combined alternative shapes on the same root
//	  Conjuncts       further shapes the same root must satisfy
//
// A constraint with no class, node or value contributes nothing to the
// compiled query; it is kept so that authored shapes round-trip.
//
// IDENTITY:
//
// ID hashes the canonical encoding of a shape's content (see ir.ShapeID).
// Two independently built shapes with the same constraints share an ID,
// which makes the ID usable as a compiled-query cache key.
//
// AUTHORING:
//
// FromPattern builds a shape from the compact nested-sequence notation
//
//	[targetClass, path1, class1, path2, class2, ...]
//
// where a class position may hold a nested Pattern. Pairs are numbered
// depth-first across all patterns; the point index selects one.
package shape
