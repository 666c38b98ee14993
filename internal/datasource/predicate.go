package datasource

import (
	"context"
	"log/slog"

	"github.com/roach88/qrelax/internal/ir"
)

// FailurePredicate answers "does q, run alone, return at most k0 answers".
//
// It counts up to k0+1 rows so the source never enumerates more than it
// must. Any evaluator error counts as failing: a probe that could not run
// must not hide a real failing subquery.
func FailurePredicate(ev Evaluator, k0 int, logger *slog.Logger) func(context.Context, *ir.Query) bool {
	if logger == nil {
		logger = slog.Default()
	}
	if k0 < 0 {
		k0 = 0
	}
	return func(ctx context.Context, q *ir.Query) bool {
		n, err := ev.Count(ctx, q, k0+1)
		if err != nil {
			logger.Warn("failure probe errored, treating as failing",
				"query", q.String(),
				"error", err)
			return true
		}
		return n <= k0
	}
}

// QueryRunner is the subset of Evaluator needed by CountByEvaluate.
type QueryRunner interface {
	Evaluate(ctx context.Context, q *ir.Query) (ResultSet, error)
}

// CountByEvaluate implements Count for sources without a native count by
// evaluating the query and capping the result size.
func CountByEvaluate(ctx context.Context, r QueryRunner, q *ir.Query, limit int) (int, error) {
	rs, err := r.Evaluate(ctx, q)
	if err != nil {
		return 0, err
	}
	n := len(rs)
	if limit > 0 && n > limit {
		n = limit
	}
	return n, nil
}
