package datasource

import (
	"context"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/qrelax/internal/ir"
)

var sourceRoundTrips = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "qrelax_source_roundtrips_total",
	Help: "Data source requests issued, by operation",
}, []string{"op"})

// Metered counts requests made through a Source.
//
// RoundTrips covers Evaluate and Count, which are the probes the search
// issues. Lookups covers statistics and ontology calls separately so a
// cache in front of them does not skew the round-trip figure.
//
// Thread-safe: counters are atomic and may be read while Expand tasks run.
type Metered struct {
	inner      Source
	roundTrips atomic.Int64
	lookups    atomic.Int64
}

// NewMetered wraps src.
func NewMetered(src Source) *Metered {
	return &Metered{inner: src}
}

// RoundTrips returns the number of Evaluate and Count calls so far.
func (m *Metered) RoundTrips() int64 {
	return m.roundTrips.Load()
}

// Lookups returns the number of statistics and ontology calls so far.
func (m *Metered) Lookups() int64 {
	return m.lookups.Load()
}

func (m *Metered) Evaluate(ctx context.Context, q *ir.Query) (ResultSet, error) {
	m.roundTrips.Add(1)
	sourceRoundTrips.WithLabelValues("evaluate").Inc()
	return m.inner.Evaluate(ctx, q)
}

func (m *Metered) Count(ctx context.Context, q *ir.Query, limit int) (int, error) {
	m.roundTrips.Add(1)
	sourceRoundTrips.WithLabelValues("count").Inc()
	return m.inner.Count(ctx, q, limit)
}

func (m *Metered) ClassFrequency(ctx context.Context, class ir.Term) (Frequency, error) {
	m.lookups.Add(1)
	sourceRoundTrips.WithLabelValues("statistics").Inc()
	return m.inner.ClassFrequency(ctx, class)
}

func (m *Metered) PropertyFrequency(ctx context.Context, property ir.Term) (Frequency, error) {
	m.lookups.Add(1)
	sourceRoundTrips.WithLabelValues("statistics").Inc()
	return m.inner.PropertyFrequency(ctx, property)
}

func (m *Metered) BroaderClasses(ctx context.Context, class ir.Term) ([]ir.Term, error) {
	m.lookups.Add(1)
	sourceRoundTrips.WithLabelValues("ontology").Inc()
	return m.inner.BroaderClasses(ctx, class)
}

func (m *Metered) BroaderProperties(ctx context.Context, property ir.Term) ([]ir.Term, error) {
	m.lookups.Add(1)
	sourceRoundTrips.WithLabelValues("ontology").Inc()
	return m.inner.BroaderProperties(ctx, property)
}
