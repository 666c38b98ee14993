package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/qrelax/internal/engine"
)

// GoldenDir is where scenario snapshots live, relative to this package.
const GoldenDir = "../../testdata/scenarios"

// GoldenSuffix is appended to the scenario name to form the golden file name.
const GoldenSuffix = ".golden"

// Snapshot renders the stable parts of a report as text for golden
// comparison. Condition sets are printed by label, sorted, so snapshots
// do not depend on search order among equally similar candidates.
// Round-trip counters and durations are left out.
func Snapshot(name string, report *engine.Report) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)
	fmt.Fprintf(&b, "strategy: %s\n", report.Strategy)
	fmt.Fprintf(&b, "k: %d\n", report.K)
	fmt.Fprintf(&b, "outcome: %s\n", report.Outcome)
	fmt.Fprintf(&b, "mfs: %s\n", orNone(strings.Join(labelSets(viewLabels(report.MFS)), " ")))
	fmt.Fprintf(&b, "xss: %s\n", orNone(strings.Join(labelSets(viewLabels(report.XSS)), " ")))

	if len(report.Accepted) == 0 {
		b.WriteString("accepted: none\n")
	} else {
		b.WriteString("accepted:\n")
		for _, a := range report.Accepted {
			kept, relaxed := split(a.Query)
			fmt.Fprintf(&b, "  %s %.4f kept=%s relaxed=%s new=%d\n",
				a.Origin, a.Similarity, labelSet(kept), labelSet(relaxed), a.NewResults)
		}
	}
	fmt.Fprintf(&b, "results: %d\n", len(report.Results))
	return []byte(b.String())
}

func viewLabels(views []engine.QueryView) [][]string {
	out := make([][]string, len(views))
	for i, v := range views {
		out[i] = v.Labels
	}
	return out
}

// RunWithGolden executes a scenario, fails the test on any unmet
// expectation, and compares its snapshot against the golden file
// GoldenDir/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	result, err := Run(ctx, scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, msg := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, msg)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(GoldenSuffix),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario.Name, result.Report))
	return result
}
