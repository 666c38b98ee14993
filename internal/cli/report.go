package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/qrelax/internal/datasource"
	"github.com/roach88/qrelax/internal/engine"
)

// labelSet renders condition labels as {t0, t2}.
func labelSet(labels []string) string {
	return "{" + strings.Join(labels, ", ") + "}"
}

func viewSets(views []engine.QueryView) string {
	if len(views) == 0 {
		return "none"
	}
	sets := make([]string, len(views))
	for i, v := range views {
		sets[i] = labelSet(v.Labels)
	}
	return strings.Join(sets, " ")
}

// formatBinding renders a result row as ?p=<...> ?n="US", variables sorted.
func formatBinding(b datasource.Binding) string {
	parts := make([]string, 0, len(b))
	for _, v := range b.Variables() {
		parts = append(parts, fmt.Sprintf("?%s=%s", v, b[v]))
	}
	return strings.Join(parts, " ")
}

// writeSPARQL indents a rendered query under its heading.
func writeSPARQL(w io.Writer, query string) {
	for _, line := range strings.Split(strings.TrimRight(query, "\n"), "\n") {
		fmt.Fprintf(w, "      %s\n", line)
	}
}

// writeReport prints a repair report for humans. withSPARQL adds the
// rendered text of every accepted query.
func writeReport(w io.Writer, name string, r *engine.Report, withSPARQL bool) {
	fmt.Fprintf(w, "Query:    %s %s\n", name, labelSet(r.Query.Labels))
	fmt.Fprintf(w, "Request:  %s\n", r.RequestID)
	fmt.Fprintf(w, "Strategy: %s  k=%d  outcome=%s\n", r.Strategy, r.K, r.Outcome)
	fmt.Fprintf(w, "MFS:      %s\n", viewSets(r.MFS))
	fmt.Fprintf(w, "XSS:      %s\n", viewSets(r.XSS))

	if len(r.Accepted) == 0 {
		fmt.Fprintln(w, "Accepted: none")
	} else {
		fmt.Fprintln(w, "Accepted:")
		for _, a := range r.Accepted {
			fmt.Fprintf(w, "  %-8s %.4f %s +%d\n", a.Origin, a.Similarity, labelSet(a.View.Labels), a.NewResults)
			if withSPARQL {
				writeSPARQL(w, a.View.SPARQL)
			}
		}
	}

	fmt.Fprintf(w, "Results:  %d\n", len(r.Results))
	for _, b := range r.Results {
		fmt.Fprintf(w, "  %s\n", formatBinding(b))
	}

	c := r.Counters
	fmt.Fprintf(w, "Counters: round_trips=%d lookups=%d generated=%d evaluated=%d pruned=%d rounds=%d\n",
		c.RoundTrips, c.Lookups, c.Generated, c.Evaluated, c.Pruned, c.Rounds)
	fmt.Fprintf(w, "Duration: %s\n", r.Duration)
}

// writeAnalysis prints a failure explanation for humans.
func writeAnalysis(w io.Writer, name string, a *engine.Analysis, withSPARQL bool) {
	fmt.Fprintf(w, "Query:    %s %s\n", name, labelSet(a.Query.Labels))
	fmt.Fprintf(w, "Request:  %s\n", a.RequestID)
	if len(a.MFSViews) == 0 {
		fmt.Fprintln(w, "The query succeeds; nothing to explain.")
	}
	for _, section := range []struct {
		title string
		views []engine.QueryView
	}{
		{"MFS", a.MFSViews},
		{"XSS", a.XSSViews},
	} {
		fmt.Fprintf(w, "%s:      %s\n", section.title, viewSets(section.views))
		if withSPARQL {
			for _, v := range section.views {
				fmt.Fprintf(w, "  %s\n", labelSet(v.Labels))
				writeSPARQL(w, v.SPARQL)
			}
		}
	}
	fmt.Fprintf(w, "Probes:   %d\n", a.RoundTrips)
}
