// Package harness runs repair scenarios for conformance testing.
//
// A scenario names a graph fixture, a CUE workload and one of its
// queries, the repair parameters, and the expected outcome:
//
//	name: lecturer-smart
//	description: GenFilter prunes the two known failures
//	graph: ../lecturer/graph.yaml
//	workload: ../lecturer/workload.cue
//	query: lecturer
//	strategy: smart
//	k: 1
//	expect:
//	  outcome: satisfied
//	  mfs: [[t1, t2], [t2, t3]]
//	  accepted:
//	    - origin: relaxed
//	      kept: [t0, t2]
//	      relaxed: [t1, t3]
//	      similarity: 0.8333
//	  results:
//	    - p: ex:s1
//	  pruned: 2
//
// Each run loads the graph into a fresh in-memory SQLite store and repairs
// the query with a fixed request id and a deterministic clock, so the same
// scenario always yields the same report. Snapshot renders the stable
// parts of a report for golden comparison.
package harness
