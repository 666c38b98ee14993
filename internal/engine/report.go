package engine

import (
	"time"

	"github.com/roach88/qrelax/internal/datasource"
	"github.com/roach88/qrelax/internal/ir"
)

// Outcome is the terminal state of a repair.
type Outcome string

const (
	// OutcomeSatisfied means k results were collected.
	OutcomeSatisfied Outcome = "satisfied"
	// OutcomeExhausted means candidates ran out (or the round quota was
	// spent) before k results. Not an error.
	OutcomeExhausted Outcome = "exhausted"
)

// Origin tells where an accepted query came from.
type Origin string

const (
	// OriginOriginal is the input query, accepted because it already succeeds.
	OriginOriginal Origin = "original"
	// OriginRelaxed is a relaxation found by the search.
	OriginRelaxed Origin = "relaxed"
	// OriginFallback is an XSS evaluated after the search ran short.
	OriginFallback Origin = "fallback"
)

// Accepted is a query that contributed new results.
type Accepted struct {
	Query      *ir.Query `json:"-"`
	View       QueryView `json:"query"`
	Similarity float64   `json:"similarity"`
	Origin     Origin    `json:"origin"`
	// NewResults is how many previously unseen results it contributed.
	NewResults int `json:"new_results"`
}

// QueryView is the serialized form of a query in reports.
type QueryView struct {
	Labels []string `json:"labels"`
	SPARQL string   `json:"sparql"`
}

// ViewOf renders q for a report.
func ViewOf(q *ir.Query) QueryView {
	return QueryView{Labels: q.Labels(), SPARQL: q.SPARQL()}
}

func viewsOf(qs []*ir.Query) []QueryView {
	views := make([]QueryView, len(qs))
	for i, q := range qs {
		views[i] = ViewOf(q)
	}
	return views
}

// Counters summarize the work a repair did.
type Counters struct {
	// RoundTrips counts Evaluate and Count calls issued to the source,
	// including failure probes during analysis and GenFilter.
	RoundTrips int64 `json:"round_trips"`
	// Lookups counts statistics and ontology calls that missed the cache.
	Lookups int64 `json:"lookups"`
	// Generated counts candidates produced by relaxation.
	Generated int64 `json:"generated"`
	// Evaluated counts candidates executed against the source.
	Evaluated int64 `json:"evaluated"`
	// Pruned counts candidates skipped without a probe.
	Pruned int64 `json:"pruned"`
	// Rounds counts relaxation rounds.
	Rounds int `json:"rounds"`
}

// Report is the result of a repair.
//
// Results holds at most k distinct bindings. Accepted lists, in
// acceptance order, the queries those results came from.
type Report struct {
	RequestID string               `json:"request_id"`
	Strategy  Strategy             `json:"strategy"`
	K         int                  `json:"k"`
	Outcome   Outcome              `json:"outcome"`
	Query     QueryView            `json:"query"`
	Results   datasource.ResultSet `json:"results"`
	Accepted  []Accepted           `json:"accepted"`
	MFS       []QueryView          `json:"mfs"`
	XSS       []QueryView          `json:"xss"`
	Counters  Counters             `json:"counters"`
	Duration  time.Duration        `json:"duration_ns"`
}

// Analysis holds the failure explanation of a query.
type Analysis struct {
	RequestID string      `json:"request_id"`
	Query     QueryView   `json:"query"`
	MFS       []*ir.Query `json:"-"`
	XSS       []*ir.Query `json:"-"`
	MFSViews  []QueryView `json:"mfs"`
	XSSViews  []QueryView `json:"xss"`
	// RoundTrips counts failure probes issued.
	RoundTrips int64 `json:"round_trips"`
}
