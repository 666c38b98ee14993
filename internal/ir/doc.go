// Package ir provides the query and clause model for qrelax.
//
// This package contains the data structures every other package operates
// on: terms, conditions (triple patterns), conjunctive queries and the
// residual filter expressions a query carries. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Conditions are values. Relaxation never mutates a condition in place,
//     it derives a new one (Condition.Derive).
//   - Condition identity is the term triple. Labels are for tracing and
//     lineage only and never take part in equality or set membership.
//   - A Query is a set of conditions. Operations that would "modify" a
//     query used by a search branch return a fresh query (Clone, Union,
//     Minus) so concurrently explored branches never alias.
//   - Canonical keys (Query.Key, CanonicalKey) use RFC 8785 canonical JSON
//     and SHA-256 with domain separation.
package ir
