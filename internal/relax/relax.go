// Package relax generates weakened variants of conditions and queries.
//
// A constant term relaxes to itself (level 0), to every broader class or
// property one ontology edge away (level 1) and to an erased variable
// (LevelErased, weakest). Variables never relax. A condition relaxes to
// the product of its three term alternatives and a query to the product
// of its conditions' alternatives.
package relax

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/qrelax/internal/datasource"
	"github.com/roach88/qrelax/internal/ir"
)

// Relaxation levels of a term alternative.
const (
	LevelSelf    = 0
	LevelBroader = 1
	LevelErased  = -1
)

// Default term scores used when no TermScorer is configured.
const (
	defaultSelfScore    = 1.0
	defaultBroaderScore = 0.9
	defaultErasedScore  = 0.0
)

// TermScorer scores a relaxed term against the original.
// *similarity.Estimator implements it.
type TermScorer interface {
	Term(ctx context.Context, orig, relaxed ir.Term, role ir.Role) float64
}

// Alternative is one relaxed form of a condition.
type Alternative struct {
	Condition ir.Condition
	// Levels holds the relaxation level of subject, predicate and object.
	Levels [3]int
	// Similarity is the mean of the three term scores.
	Similarity float64
}

// Identity reports whether no term was relaxed.
func (a Alternative) Identity() bool {
	return a.Levels == [3]int{}
}

// Relaxer produces relaxations against an ontology.
//
// Thread-safe: a Relaxer holds no mutable state. Ontology and scorer must
// be safe for concurrent use when Expand tasks share the Relaxer.
type Relaxer struct {
	ontology    datasource.Ontology
	scorer      TermScorer
	namespace   *Namespace
	placeholder bool
	logger      *slog.Logger
}

// Option configures a Relaxer.
type Option func(*Relaxer)

// WithScorer scores alternatives with s instead of level defaults.
func WithScorer(s TermScorer) Option {
	return func(r *Relaxer) {
		r.scorer = s
	}
}

// WithNamespace sets the namespace erased variables are minted from.
func WithNamespace(ns *Namespace) Option {
	return func(r *Relaxer) {
		if ns != nil {
			r.namespace = ns
		}
	}
}

// WithPlaceholderBroader synthesizes a broader term by rewriting "P" to
// "SuperP" in the IRI when the ontology has none. Off by default; the
// placeholder has no ontological meaning and exists for benchmark parity.
func WithPlaceholderBroader() Option {
	return func(r *Relaxer) {
		r.placeholder = true
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relaxer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Relaxer. A nil ontology offers no broader terms.
func New(ontology datasource.Ontology, opts ...Option) *Relaxer {
	r := &Relaxer{
		ontology:  ontology,
		namespace: NewNamespace(""),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type termAlt struct {
	term  ir.Term
	level int
	score float64
}

// RelaxCondition returns the alternatives of c. The identity comes first,
// the rest follow in descending similarity (stable).
func (r *Relaxer) RelaxCondition(ctx context.Context, c ir.Condition) ([]Alternative, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var perRole [3][]termAlt
	for _, role := range ir.Roles {
		perRole[role] = r.relaxTerm(ctx, c, role)
		if len(perRole[role]) == 0 {
			return nil, errors.AssertionFailedf("condition %s: no alternative for %s", c.Label, role)
		}
	}

	alts := make([]Alternative, 0, len(perRole[0])*len(perRole[1])*len(perRole[2]))
	for _, s := range perRole[ir.RoleSubject] {
		for _, p := range perRole[ir.RolePredicate] {
			for _, o := range perRole[ir.RoleObject] {
				alts = append(alts, Alternative{
					Condition:  ir.Condition{Subject: s.term, Predicate: p.term, Object: o.term},
					Levels:     [3]int{s.level, p.level, o.level},
					Similarity: (s.score + p.score + o.score) / 3,
				})
			}
		}
	}
	if len(alts) == 0 || !alts[0].Identity() {
		return nil, errors.AssertionFailedf("condition %s: identity alternative missing", c.Label)
	}

	rest := alts[1:]
	slices.SortStableFunc(rest, func(a, b Alternative) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		}
		return 0
	})

	alts[0].Condition = c
	for i := 1; i < len(alts); i++ {
		a := alts[i].Condition
		alts[i].Condition = c.Derive(i, a.Subject, a.Predicate, a.Object)
	}
	return alts, nil
}

// relaxTerm lists the alternatives of the term at role, identity first.
func (r *Relaxer) relaxTerm(ctx context.Context, c ir.Condition, role ir.Role) []termAlt {
	t := c.Term(role)
	alts := []termAlt{{term: t, level: LevelSelf, score: r.score(ctx, t, t, role, defaultSelfScore)}}
	if t.IsVariable() {
		return alts
	}

	if t.Kind == ir.KindIRI {
		for _, b := range r.broader(ctx, t, role) {
			b := b
			if b.Equal(t) || slices.ContainsFunc(alts, func(a termAlt) bool { return a.term.Equal(b) }) {
				continue
			}
			alts = append(alts, termAlt{term: b, level: LevelBroader, score: r.score(ctx, t, b, role, defaultBroaderScore)})
		}
	}

	origin := c.Origin
	if origin == "" {
		origin = c.Label
	}
	erased := r.namespace.Erased(origin, role)
	return append(alts, termAlt{term: erased, level: LevelErased, score: r.score(ctx, t, erased, role, defaultErasedScore)})
}

func (r *Relaxer) score(ctx context.Context, orig, relaxed ir.Term, role ir.Role, fallback float64) float64 {
	if r.scorer == nil {
		return fallback
	}
	return r.scorer.Term(ctx, orig, relaxed, role)
}

// broader returns the terms one hierarchy edge above t. Lookup errors are
// logged and leave erasure as the only relaxation.
func (r *Relaxer) broader(ctx context.Context, t ir.Term, role ir.Role) []ir.Term {
	var (
		out []ir.Term
		err error
	)
	if r.ontology != nil {
		if role == ir.RolePredicate {
			out, err = r.ontology.BroaderProperties(ctx, t)
		} else {
			out, err = r.ontology.BroaderClasses(ctx, t)
		}
	}
	if err != nil {
		r.logger.Warn("broader lookup failed, only erasure remains",
			"term", t.String(),
			"role", role.String(),
			"error", err)
		return nil
	}
	if len(out) == 0 && r.placeholder {
		if super := strings.Replace(t.Value, "P", "SuperP", -1); super != t.Value {
			return []ir.Term{ir.IRI(super)}
		}
	}
	return out
}

// Combinations returns every combination of the conditions' alternatives
// as a query. The first combination is always the identity. Each query
// keeps q's output variables and filters.
func (r *Relaxer) Combinations(ctx context.Context, q *ir.Query) ([]*ir.Query, error) {
	perCond := make([][]Alternative, 0, q.Len())
	for _, c := range q.Conditions() {
		alts, err := r.RelaxCondition(ctx, c)
		if err != nil {
			return nil, errors.Wrapf(err, "relax %s", c.Label)
		}
		perCond = append(perCond, alts)
	}

	combos := [][]ir.Condition{{}}
	for _, alts := range perCond {
		next := make([][]ir.Condition, 0, len(combos)*len(alts))
		for _, prefix := range combos {
			for _, a := range alts {
				next = append(next, append(slices.Clip(prefix), a.Condition))
			}
		}
		combos = next
	}

	out := make([]*ir.Query, len(combos))
	for i, conds := range combos {
		out[i] = q.WithConditions(conds)
	}
	return out, nil
}

// RelaxQuery returns the strictly weaker relaxations of q: every
// combination except the identity.
func (r *Relaxer) RelaxQuery(ctx context.Context, q *ir.Query) ([]*ir.Query, error) {
	all, err := r.Combinations(ctx, q)
	if err != nil {
		return nil, err
	}
	return all[1:], nil
}
