package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/qrelax/internal/compiler"
	"github.com/roach88/qrelax/internal/datasource"
	"github.com/roach88/qrelax/internal/engine"
	"github.com/roach88/qrelax/internal/ir"
)

// similarityTolerance absorbs rounding in hand-written expectations.
const similarityTolerance = 1e-4

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Field    string // Expectation field, e.g. "accepted[0].origin"
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// Check compares a report with an expectation and returns one message
// per mismatch. Result terms are parsed with prefixes.
func Check(report *engine.Report, expect Expectation, prefixes compiler.Prefixes) []string {
	var errs []error

	if string(report.Outcome) != expect.Outcome {
		errs = append(errs, &AssertionError{Field: "outcome", Expected: expect.Outcome, Actual: string(report.Outcome)})
	}
	if expect.MFS != nil {
		if err := checkLabelSets("mfs", expect.MFS, report.MFS); err != nil {
			errs = append(errs, err)
		}
	}
	if expect.XSS != nil {
		if err := checkLabelSets("xss", expect.XSS, report.XSS); err != nil {
			errs = append(errs, err)
		}
	}
	if expect.Accepted != nil {
		errs = append(errs, checkAccepted(expect.Accepted, report.Accepted)...)
	}
	for i, row := range expect.Results {
		if err := checkResultRow(i, row, report.Results, prefixes); err != nil {
			errs = append(errs, err)
		}
	}
	if expect.ResultCount != nil && len(report.Results) != *expect.ResultCount {
		errs = append(errs, &AssertionError{
			Field:    "result_count",
			Expected: fmt.Sprint(*expect.ResultCount),
			Actual:   fmt.Sprint(len(report.Results)),
		})
	}
	if expect.Pruned != nil && report.Counters.Pruned != *expect.Pruned {
		errs = append(errs, &AssertionError{
			Field:    "pruned",
			Expected: fmt.Sprint(*expect.Pruned),
			Actual:   fmt.Sprint(report.Counters.Pruned),
		})
	}

	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return msgs
}

// labelSet renders labels as a sorted set, e.g. "{t0, t2}".
func labelSet(labels []string) string {
	sorted := slices.Clone(labels)
	slices.Sort(sorted)
	return "{" + strings.Join(sorted, ", ") + "}"
}

// labelSets renders a family of label sets in sorted order.
func labelSets(sets [][]string) []string {
	out := make([]string, len(sets))
	for i, s := range sets {
		out[i] = labelSet(s)
	}
	slices.Sort(out)
	return out
}

func checkLabelSets(field string, want [][]string, got []engine.QueryView) error {
	actual := make([][]string, len(got))
	for i, v := range got {
		actual[i] = v.Labels
	}
	w, a := labelSets(want), labelSets(actual)
	if slices.Equal(w, a) {
		return nil
	}
	return &AssertionError{
		Field:    field,
		Expected: strings.Join(w, " "),
		Actual:   orNone(strings.Join(a, " ")),
	}
}

// split separates the conditions of an accepted query into labels kept
// unchanged and origin labels of relaxed conditions.
func split(q *ir.Query) (kept, relaxed []string) {
	for _, c := range q.Conditions() {
		if c.Origin == "" {
			kept = append(kept, c.Label)
		} else {
			relaxed = append(relaxed, c.Origin)
		}
	}
	return kept, relaxed
}

func checkAccepted(want []AcceptedExpectation, got []engine.Accepted) []error {
	if len(want) != len(got) {
		return []error{&AssertionError{
			Field:    "accepted",
			Expected: fmt.Sprintf("%d queries", len(want)),
			Actual:   fmt.Sprintf("%d queries", len(got)),
		}}
	}

	var errs []error
	for i, w := range want {
		a := got[i]
		field := fmt.Sprintf("accepted[%d]", i)
		if string(a.Origin) != w.Origin {
			errs = append(errs, &AssertionError{Field: field + ".origin", Expected: w.Origin, Actual: string(a.Origin)})
		}
		kept, relaxed := split(a.Query)
		if w.Kept != nil && labelSet(w.Kept) != labelSet(kept) {
			errs = append(errs, &AssertionError{Field: field + ".kept", Expected: labelSet(w.Kept), Actual: labelSet(kept)})
		}
		if w.Relaxed != nil && labelSet(w.Relaxed) != labelSet(relaxed) {
			errs = append(errs, &AssertionError{Field: field + ".relaxed", Expected: labelSet(w.Relaxed), Actual: labelSet(relaxed)})
		}
		if w.Similarity != nil && math.Abs(*w.Similarity-a.Similarity) > similarityTolerance {
			errs = append(errs, &AssertionError{
				Field:    field + ".similarity",
				Expected: fmt.Sprintf("%.4f", *w.Similarity),
				Actual:   fmt.Sprintf("%.4f", a.Similarity),
			})
		}
	}
	return errs
}

func checkResultRow(i int, row map[string]string, results datasource.ResultSet, prefixes compiler.Prefixes) error {
	field := fmt.Sprintf("results[%d]", i)
	want := make(datasource.Binding, len(row))
	for name, tok := range row {
		t, err := compiler.ParseTerm(tok, prefixes)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", field, name, err)
		}
		want[ir.Var(name).Value] = t
	}

	for _, b := range results {
		if matchBinding(b, want) {
			return nil
		}
	}
	return &AssertionError{
		Field:    field,
		Expected: "a row with " + describe(want),
		Actual:   fmt.Sprintf("%d rows without it", len(results)),
	}
}

// matchBinding reports whether b binds every variable of want to the same
// term (subset semantics).
func matchBinding(b, want datasource.Binding) bool {
	for name, t := range want {
		got, ok := b[name]
		if !ok || !got.Equal(t) {
			return false
		}
	}
	return true
}

func describe(b datasource.Binding) string {
	parts := make([]string, 0, len(b))
	for _, name := range b.Variables() {
		parts = append(parts, "?"+name+"="+b[name].String())
	}
	return strings.Join(parts, " ")
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
