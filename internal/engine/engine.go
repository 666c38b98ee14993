package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/roach88/qrelax/internal/analysis"
	"github.com/roach88/qrelax/internal/datasource"
	"github.com/roach88/qrelax/internal/ir"
	"github.com/roach88/qrelax/internal/relax"
	"github.com/roach88/qrelax/internal/similarity"
)

// Defaults for engine options.
const (
	DefaultMaxRounds = 8
	DefaultK         = 1
)

// Engine repairs failing queries against one data source.
//
// An Engine holds configuration only. Every Repair call builds its own
// per-request state (metered and cached source view, relaxer, estimator,
// queues, memo), so concurrent Repair calls share nothing mutable.
//
// Thread-safety: Repair and Analyze may be called from any goroutine.
type Engine struct {
	source        datasource.Source
	strategy      Strategy
	k0            int
	maxRounds     int
	expandWorkers int
	placeholder   bool
	cacheSize     int
	logger        *slog.Logger
	ids           RequestIDGenerator
	now           func() time.Time
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithStrategy selects the search variant. Default: StrategySmart.
func WithStrategy(s Strategy) EngineOption {
	return func(e *Engine) {
		e.strategy = s
	}
}

// WithK0 sets the failure threshold: a query with at most k0 answers
// fails. Default: 0.
func WithK0(k0 int) EngineOption {
	return func(e *Engine) {
		e.k0 = max(k0, 0)
	}
}

// WithMaxRounds sets the round quota.
//
// Default: 8 rounds (DefaultMaxRounds)
// Use WithMaxRounds(1) for testing quota enforcement.
func WithMaxRounds(n int) EngineOption {
	return func(e *Engine) {
		e.maxRounds = n
	}
}

// WithExpandWorkers caps concurrent Expand tasks. 0 starts one task per
// pending work item.
func WithExpandWorkers(n int) EngineOption {
	return func(e *Engine) {
		e.expandWorkers = max(n, 0)
	}
}

// WithPlaceholderBroader enables synthetic broader terms in relaxation.
func WithPlaceholderBroader(enabled bool) EngineOption {
	return func(e *Engine) {
		e.placeholder = enabled
	}
}

// WithCacheSize sets the per-request lookup cache size.
func WithCacheSize(n int) EngineOption {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRequestIDGenerator sets the request id source. Default: UUIDv7.
func WithRequestIDGenerator(g RequestIDGenerator) EngineOption {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithNow sets the wall clock used for report durations.
func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Engine over src.
func New(src datasource.Source, opts ...EngineOption) *Engine {
	e := &Engine{
		source:    src,
		strategy:  StrategySmart,
		maxRounds: DefaultMaxRounds,
		cacheSize: datasource.DefaultCacheSize,
		logger:    slog.Default(),
		ids:       UUIDv7Generator{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strategy returns the configured strategy.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// session is the per-request view of the engine.
type session struct {
	id      string
	logger  *slog.Logger
	metered *datasource.Metered
	source  datasource.Source
	failing analysis.Predicate
	relaxer *relax.Relaxer
	sim     *similarity.Estimator
}

func (e *Engine) newSession(strategy Strategy) (*session, error) {
	id := e.ids.Generate()
	logger := e.logger.With("request_id", id, "strategy", strategy.String())

	metered := datasource.NewMetered(e.source)
	cached, err := datasource.NewCached(metered, e.cacheSize)
	if err != nil {
		return nil, err
	}
	sim, err := similarity.New(cached, similarity.WithCacheSize(e.cacheSize), similarity.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	relaxOpts := []relax.Option{relax.WithScorer(sim), relax.WithLogger(logger)}
	if e.placeholder {
		relaxOpts = append(relaxOpts, relax.WithPlaceholderBroader())
	}

	return &session{
		id:      id,
		logger:  logger,
		metered: metered,
		source:  cached,
		failing: datasource.FailurePredicate(cached, e.k0, logger),
		relaxer: relax.New(cached, relaxOpts...),
		sim:     sim,
	}, nil
}

// Analyze computes the MFS and XSS of q.
func (e *Engine) Analyze(ctx context.Context, q *ir.Query) (*Analysis, error) {
	s, err := e.newSession(e.strategy)
	if err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, NewMalformedQueryError(s.id, err)
	}

	mfs, err := analysis.FindAllFailingCauses(ctx, q, s.failing)
	if err != nil {
		return nil, errors.Wrap(err, "find failing causes")
	}
	var xss []*ir.Query
	if len(mfs) > 0 {
		xss = analysis.ComputeXSS(q, mfs)
	}
	return &Analysis{
		RequestID:  s.id,
		Query:      ViewOf(q),
		MFS:        mfs,
		XSS:        xss,
		MFSViews:   viewsOf(mfs),
		XSSViews:   viewsOf(xss),
		RoundTrips: s.metered.RoundTrips(),
	}, nil
}

// Repair finds the relaxations of q most similar to it that together
// return k results.
//
// Repair returns an error only for malformed input or context
// cancellation. Data source failures count as zero results and running
// out of candidates is reported as OutcomeExhausted. k < 1 is treated as 1.
func (e *Engine) Repair(ctx context.Context, q *ir.Query, k int) (*Report, error) {
	start := e.now()
	k = max(k, DefaultK)

	s, err := e.newSession(e.strategy)
	if err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		s.logger.Warn("rejecting malformed query", "error", err)
		return nil, NewMalformedQueryError(s.id, err)
	}

	s.logger.Info("repair started", "query", q.String(), "k", k)

	mfs, err := analysis.FindAllFailingCauses(ctx, q, s.failing)
	if err != nil {
		return nil, errors.Wrap(err, "find failing causes")
	}

	st := newSearch(e, s, q, k)
	st.report.MFS = viewsOf(mfs)

	if len(mfs) == 0 {
		st.acceptOriginal(ctx)
	} else {
		xss := analysis.ComputeXSS(q, mfs)
		st.report.XSS = viewsOf(xss)
		s.logger.Debug("analysis complete", "mfs", len(mfs), "xss", len(xss))

		switch e.strategy {
		case StrategyMBS:
			err = st.runMBS(ctx, mfs)
		default:
			err = st.runBestFirst(ctx, xss)
		}
		if err != nil {
			return nil, err
		}
		if !st.done() {
			st.fallback(ctx, xss)
		}
	}

	return st.finish(start), nil
}
