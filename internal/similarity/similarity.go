// Package similarity scores how close a relaxed element, condition or
// query is to the original.
//
// Term scores follow the information content rules: an unchanged term
// scores 1, a term generalized to a broader class or property scores
// IC(c')/IC(c), a term erased to a variable scores 0 and a blank node
// scores -0.5. Conditions average their three terms and queries average
// their conditions paired by lineage.
package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"

	"github.com/roach88/qrelax/internal/datasource"
	"github.com/roach88/qrelax/internal/ir"
)

// ErrConditionCountMismatch is returned by Query when the relaxed query
// does not hold one condition per original condition.
var ErrConditionCountMismatch = errors.New("relaxed query has a different number of conditions")

// BlankScore is the score of a term relaxed to a blank node.
const BlankScore = -0.5

// DefaultCacheSize bounds the number of memoized information contents.
const DefaultCacheSize = 1024

// Estimator computes similarity scores from data source statistics.
//
// Information content lookups are memoized for the lifetime of the
// estimator. A lookup error scores the term 0 and is not memoized.
//
// Thread-safe: Expand tasks score alternatives concurrently.
type Estimator struct {
	stats  datasource.Statistics
	cache  *lru.Cache
	flight singleflight.Group
	logger *slog.Logger
	size   int
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithCacheSize sets the memo size. size <= 0 keeps the default.
func WithCacheSize(size int) Option {
	return func(e *Estimator) {
		if size > 0 {
			e.size = size
		}
	}
}

// WithLogger sets the logger used for lookup failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Estimator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an estimator over stats.
func New(stats datasource.Statistics, opts ...Option) (*Estimator, error) {
	e := &Estimator{stats: stats, logger: slog.Default(), size: DefaultCacheSize}
	for _, opt := range opts {
		opt(e)
	}
	cache, err := lru.New(e.size)
	if err != nil {
		return nil, errors.Wrap(err, "create similarity cache")
	}
	e.cache = cache
	return e, nil
}

// Term scores relaxed as a replacement for orig at role.
func (e *Estimator) Term(ctx context.Context, orig, relaxed ir.Term, role ir.Role) float64 {
	switch {
	case orig.Equal(relaxed):
		return 1
	case relaxed.Kind == ir.KindBlank:
		return BlankScore
	case relaxed.IsVariable():
		return 0
	}

	icOrig, ok := e.ic(ctx, orig, role)
	if !ok || icOrig == 0 {
		return 0
	}
	icRelaxed, ok := e.ic(ctx, relaxed, role)
	if !ok {
		return 0
	}
	return math.Min(icRelaxed/icOrig, 1)
}

// Condition scores a relaxed condition as the mean of its term scores.
func (e *Estimator) Condition(ctx context.Context, orig, relaxed ir.Condition) float64 {
	var sum float64
	for _, r := range ir.Roles {
		sum += e.Term(ctx, orig.Term(r), relaxed.Term(r), r)
	}
	return sum / 3
}

// Query scores relaxed against orig. Conditions are paired by origin
// label and the mean of the paired scores is returned.
//
// Returns ErrConditionCountMismatch when the condition counts differ or a
// condition of orig has no relaxed counterpart.
func (e *Estimator) Query(ctx context.Context, orig, relaxed *ir.Query) (float64, error) {
	if orig.Len() != relaxed.Len() {
		return 0, errors.Wrapf(ErrConditionCountMismatch, "original has %d, relaxed has %d",
			orig.Len(), relaxed.Len())
	}
	if orig.Len() == 0 {
		return 1, nil
	}
	byOrigin := lineage(relaxed)

	var sum float64
	for _, c := range orig.Conditions() {
		rc, ok := byOrigin[origin(c)]
		if !ok {
			return 0, errors.Wrapf(ErrConditionCountMismatch, "no condition derives from %s", origin(c))
		}
		sum += e.Condition(ctx, c, rc)
	}
	return sum / float64(orig.Len()), nil
}

// Subquery scores a query whose conditions are a relaxed subset of orig.
// A dropped condition scores 0. The mean is taken over orig.
func (e *Estimator) Subquery(ctx context.Context, orig, sub *ir.Query) float64 {
	if orig.Len() == 0 {
		return 1
	}
	byOrigin := lineage(sub)

	var sum float64
	for _, c := range orig.Conditions() {
		if rc, ok := byOrigin[origin(c)]; ok {
			sum += e.Condition(ctx, c, rc)
		}
	}
	return sum / float64(orig.Len())
}

func origin(c ir.Condition) string {
	if c.Origin != "" {
		return c.Origin
	}
	return c.Label
}

func lineage(q *ir.Query) map[string]ir.Condition {
	m := make(map[string]ir.Condition, q.Len())
	for _, c := range q.Conditions() {
		m[origin(c)] = c
	}
	return m
}

// ic returns the information content of t using class statistics for
// subjects and objects and property statistics for predicates.
func (e *Estimator) ic(ctx context.Context, t ir.Term, role ir.Role) (float64, bool) {
	kind := "class"
	if role == ir.RolePredicate {
		kind = "property"
	}
	key := kind + "|" + t.String()
	if v, ok := e.cache.Get(key); ok {
		return v.(float64), true
	}

	v, err, _ := e.flight.Do(key, func() (any, error) {
		if v, ok := e.cache.Get(key); ok {
			return v, nil
		}
		var f datasource.Frequency
		var err error
		if role == ir.RolePredicate {
			f, err = e.stats.PropertyFrequency(ctx, t)
		} else {
			f, err = e.stats.ClassFrequency(ctx, t)
		}
		if err != nil {
			return nil, err
		}
		ic := f.IC()
		e.cache.Add(key, ic)
		return ic, nil
	})
	if err != nil {
		e.logger.Warn("statistics lookup failed, scoring term 0",
			"term", t.String(),
			"kind", kind,
			"error", err)
		return 0, false
	}
	return v.(float64), true
}

// String describes the estimator for logs.
func (e *Estimator) String() string {
	return fmt.Sprintf("similarity.Estimator(cache=%d/%d)", e.cache.Len(), e.size)
}
