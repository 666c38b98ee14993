package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	repairsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrelax_repairs_total",
		Help: "Total repairs by strategy and outcome",
	}, []string{"strategy", "outcome"})

	repairDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qrelax_repair_duration_seconds",
		Help:    "Wall-clock duration of a repair",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"strategy"})

	candidatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrelax_candidates_total",
		Help: "Candidates by outcome (accepted, failed, pruned)",
	}, []string{"outcome"})

	expandBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qrelax_expand_batch_size",
		Help:    "Work items relaxed concurrently per Expand barrier",
		Buckets: prometheus.LinearBuckets(1, 2, 8),
	})
)

const (
	candidateAccepted = "accepted"
	candidateFailed   = "failed"
	candidatePruned   = "pruned"
)
