// Package store provides a SQLite-backed triple store that implements the
// data source contract in-process.
//
// The store keeps two tables:
//   - terms: dictionary of IRIs, literals and blank nodes
//   - triples: (s, p, o) term id triples with set semantics
//
// # Critical Patterns
//
// Deterministic Query Results
//   - Every query compiled by querysql carries an ORDER BY
//   - Evaluate returns rows in term id order, which is insertion order
//
// Parameterized SQL
//   - Term values are always bound as parameters, never interpolated
//
// Statistics
//   - Class frequency: distinct subjects typed with the class over
//     distinct typed subjects
//   - Property frequency: triples using the property over all triples
//
// Ontology
//   - Broader classes follow one rdfs:subClassOf edge
//   - Broader properties follow one rdfs:subPropertyOf edge
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
