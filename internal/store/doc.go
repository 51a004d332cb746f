// Package store provides the SQLite-backed knowledge graph that compiled
// shape queries run against.
//
// The store holds one table of RDF statements with SPO, POS and OSP
// indexes, and plays two collaborator roles for the resolver:
//
//   - Query: Select evaluates a compiled query (queryir) over the graph,
//     optionally with variables pre-bound, and returns projected rows.
//   - Validation: Qualify reports whether any entity conforms to a shape.
//     It walks the shape directly rather than running the compiled query,
//     and stops at the first conforming entity.
//
// Subtype-closure membership (rdf:type/rdfs:subClassOf*) is answered by
// recursive CTEs; see package querysql.
//
// # Critical Patterns
//
// Deterministic results:
//   - Every SQL query carries ORDER BY ... COLLATE BINARY
//   - Select sorts projected rows by their values
//
// Read-only resolution:
//   - Only AddTriples and the loaders write
//   - Every read collects its rows and closes the cursor before returning,
//     so nested evaluation never holds a cursor while issuing a query
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes for file databases
//   - One open connection: ":memory:" databases are per-connection, and
//     SQLite has a single writer anyway
//   - busy_timeout=5000: wait on lock contention
package store
