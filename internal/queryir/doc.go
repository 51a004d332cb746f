// Package queryir provides the graph-pattern intermediate representation
// that compiled shapes are expressed in.
//
// QueryIR is the boundary between the shape compiler and the backends that
// execute or render queries:
//
//	[shape] → [compiler] → [Query IR] → [store evaluator + SQL leaves]
//	                                  → [SPARQL text]
//
// PATTERN TREE:
//
// Pattern is a sealed interface using the marker method pattern. Only types
// in this package implement it, so backends can switch exhaustively:
//
//	switch p := pattern.(type) {
//	case *Group:    // conjunction, evaluated in order
//	case *Triple:   // subject predicate object
//	case *TypeOf:   // subject rdf:type/rdfs:subClassOf* class
//	case *Optional: // left join: rows survive when the inner pattern fails
//	case *Union:    // concatenation of branch results
//	}
//
// Terms inside patterns are ir.Term values; variables are ir.Var terms.
//
// SEMANTICS:
//
// Evaluation is over solution sequences (Binding rows). A Group threads
// rows through its children left to right. Optional keeps the input row
// when its child produces nothing for it. Union evaluates every branch
// against the same input rows and concatenates the results. Result rows
// are projected onto CompiledQuery.Project and de-duplicated; backends
// order them deterministically by the projected values.
package queryir
