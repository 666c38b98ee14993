// Package engine implements the best-first relaxation scheduler.
//
// Repair takes a failing query and a target k and returns the relaxations
// most similar to the query that together yield k results.
//
// ARCHITECTURE:
//
// Seed, Expand, Rank, Evaluate:
// 1. Seed: compute the MFS and XSS of the query. Each XSS x becomes a
// work item (Q - x, x): a remainder to relax and a base to union back.
// 2. Expand: every pending remainder is relaxed concurrently, one
// errgroup task per item, joined before ranking (a barrier, not a pool).
// 3. Rank: merged candidates go onto a max-heap keyed by similarity to
// the original query, ties broken by insertion sequence.
// 4. Evaluate: the coordinator pops candidates in order and runs them.
// Candidates with new results are accepted; the rest are queued for
// another relaxation round.
//
// When candidates or rounds run out before k results, the XSS themselves
// are evaluated as a fallback, most similar first.
//
// Strategies:
//   - naive: the loop above
//   - smart: naive plus GenFilter, which memoizes failing
//     sub-combinations of failed remainders and prunes their supersets
//     without a probe
//   - mbs: relaxes the whole query best-first and skips probing
//     candidates that still contain an intact MFS
//
// CRITICAL PATTERNS:
//
// Single coordinator:
// The heap, retry queue, result set, memo and key sets are mutated only
// by the goroutine running Repair. Expand tasks write to disjoint slots.
//
// Deterministic output:
// Candidates are pushed in slot order and stamped by Clock.Next(), so
// equal similarities pop in a stable order regardless of which Expand
// task finished first.
//
// Failure is not fatal:
// A data source error during a probe counts as zero results. Repair
// returns an error only for malformed input or context cancellation.
package engine
