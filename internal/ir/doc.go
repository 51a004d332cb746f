// Package ir provides the foundational value types shared by every other
// package in SeeQ.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Three families of types live here:
//
//   - Term: an RDF term as it appears in a knowledge graph or a compiled
//     query (IRI, literal with datatype, or query variable).
//   - Value: a concrete value materialized by resolution (an entity, a
//     number, a boolean or a string).
//   - IRValue: constrained data used for canonical encoding. Shape and
//     invocation identities are SHA-256 hashes over RFC 8785 canonical
//     JSON of IRValues, so the encoding forbids floats and nulls.
//
// Key design constraints:
//   - Identities are content-addressed and stable across processes
//   - Strings are NFC normalized at every hashing boundary
//   - All JSON tags use snake_case
package ir
