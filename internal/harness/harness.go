package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/qrelax/internal/compiler"
	"github.com/roach88/qrelax/internal/engine"
	"github.com/roach88/qrelax/internal/ir"
	"github.com/roach88/qrelax/internal/store"
	"github.com/roach88/qrelax/internal/testutil"
)

// Harness is the scenario execution environment.
// It repairs with a fixed request id and a deterministic clock.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	clock    *testutil.DeterministicClock
	ids      *testutil.FixedRequestIDGenerator
	logger   *slog.Logger
	prefixes compiler.Prefixes
	query    *ir.Query
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and load the graph fixture
// 2. Compile the workload and pick the named query
// 3. Repair it with the scenario's parameters
// 4. Check the report against the expectation
//
// An error is returned when the scenario cannot run at all. A repair
// that runs but differs from the expectation is a failed Result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := setup(ctx, st, scenario)
	if err != nil {
		return nil, err
	}

	report, err := h.engine.Repair(ctx, h.query, scenario.K)
	if err != nil {
		return nil, fmt.Errorf("repair %s: %w", scenario.Query, err)
	}

	result := NewResult(report)
	for _, msg := range Check(report, scenario.Expect, h.prefixes) {
		result.AddError(msg)
	}
	return result, nil
}

func setup(ctx context.Context, st *store.Store, scenario *Scenario) (*Harness, error) {
	graph, err := compiler.LoadGraph(scenario.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	if _, err := st.InsertTriples(ctx, graph.Triples); err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}

	workload, err := compiler.LoadWorkload(scenario.Workload)
	if err != nil {
		return nil, fmt.Errorf("failed to load workload: %w", err)
	}
	entry, err := workload.Query(scenario.Query)
	if err != nil {
		return nil, err
	}

	strategy, err := engine.ParseStrategy(scenario.Strategy)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store:    st,
		clock:    testutil.NewDeterministicClock(),
		ids:      testutil.NewFixedRequestIDGenerator(scenario.RequestID),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		prefixes: graph.Prefixes.With(workload.Prefixes),
		query:    entry.Query,
	}

	opts := []engine.EngineOption{
		engine.WithStrategy(strategy),
		engine.WithK0(scenario.K0),
		engine.WithRequestIDGenerator(h.ids),
		engine.WithNow(h.clock.Now),
		engine.WithLogger(h.logger),
	}
	if scenario.MaxRounds != nil {
		opts = append(opts, engine.WithMaxRounds(*scenario.MaxRounds))
	}
	h.engine = engine.New(st, opts...)
	return h, nil
}
