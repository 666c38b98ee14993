// Package analysis explains why a conjunctive query fails.
//
// FindAllFailingCauses computes the Minimal Failing Subqueries (MFS) of a
// query: minimal condition sets that fail on their own. ComputeXSS derives
// the maximal Succeeding Subqueries (XSS) from them by removing one
// condition of every MFS (a hitting set) and keeping only the maximal
// remainders.
//
// Both operations are pure with respect to their inputs. Queries passed in
// are never mutated; every returned query is a fresh value.
package analysis
