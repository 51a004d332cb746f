package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/queryir"
)

// Select evaluates a compiled query and returns its projected solutions.
//
// initial pre-binds variables, typically the root to a target entity. Rows
// are de-duplicated on the projection and sorted by their values, so the
// same graph always yields the same rows in the same order.
//
// Evaluation is a nested loop over the pattern tree: each leaf is compiled
// to SQL once per input row with that row's bindings substituted.
func (s *Store) Select(ctx context.Context, q *queryir.CompiledQuery, initial queryir.Binding) ([]queryir.Binding, error) {
	if q == nil || q.Where == nil {
		return nil, fmt.Errorf("cannot evaluate empty query")
	}
	start := queryir.Binding{}
	if initial != nil {
		start = initial.Clone()
	}

	rows, err := s.eval(ctx, q.Where, []queryir.Binding{start})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(rows))
	out := make([]queryir.Binding, 0, len(rows))
	for _, row := range rows {
		key := row.Key(q.Project)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row.Project(q.Project))
	}
	slices.SortFunc(out, func(a, b queryir.Binding) int {
		return strings.Compare(a.Key(q.Project), b.Key(q.Project))
	})
	return out, nil
}

func (s *Store) eval(ctx context.Context, p queryir.Pattern, rows []queryir.Binding) ([]queryir.Binding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch n := p.(type) {
	case *queryir.Group:
		var err error
		for _, child := range n.Patterns {
			if len(rows) == 0 {
				return nil, nil
			}
			rows, err = s.eval(ctx, child, rows)
			if err != nil {
				return nil, err
			}
		}
		return rows, nil

	case *queryir.Triple:
		var out []queryir.Binding
		for _, row := range rows {
			if !subjectUsable(n.Subject, row) {
				continue
			}
			matches, err := s.Match(ctx, n, row)
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				if ext, ok := unify(row, n, m); ok {
					out = append(out, ext)
				}
			}
		}
		return out, nil

	case *queryir.TypeOf:
		var out []queryir.Binding
		for _, row := range rows {
			if !subjectUsable(n.Subject, row) {
				continue
			}
			subj := n.Subject
			if subj.IsVar() {
				if bound, ok := row[subj.Value]; ok {
					subj = bound
				}
			}
			if !subj.IsVar() {
				ok, err := s.IsInstance(ctx, subj.Value, n.Class)
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, row)
				}
				continue
			}
			instances, err := s.Instances(ctx, n.Class)
			if err != nil {
				return nil, err
			}
			for _, e := range instances {
				ext := row.Clone()
				ext[subj.Value] = ir.IRI(e)
				out = append(out, ext)
			}
		}
		return out, nil

	case *queryir.Optional:
		var out []queryir.Binding
		for _, row := range rows {
			inner, err := s.eval(ctx, n.Pattern, []queryir.Binding{row})
			if err != nil {
				return nil, err
			}
			if len(inner) == 0 {
				out = append(out, row)
				continue
			}
			out = append(out, inner...)
		}
		return out, nil

	case *queryir.Union:
		var out []queryir.Binding
		for _, br := range n.Branches {
			res, err := s.eval(ctx, br, rows)
			if err != nil {
				return nil, err
			}
			out = append(out, res...)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported pattern %T", p)
	}
}

// subjectUsable reports whether the subject position can match anything
// under row. A variable bound to a literal never can.
func subjectUsable(subj ir.Term, row queryir.Binding) bool {
	if subj.IsVar() {
		if bound, ok := row[subj.Value]; ok {
			return bound.IsIRI()
		}
		return true
	}
	return subj.IsIRI()
}

// unify extends row with the variable bindings that make pattern equal to
// the matched statement. It fails when one variable occurs twice and the
// statement disagrees with itself.
func unify(row queryir.Binding, pattern *queryir.Triple, m ir.Triple) (queryir.Binding, bool) {
	ext := row.Clone()
	pairs := [3][2]ir.Term{
		{pattern.Subject, m.Subject},
		{pattern.Predicate, m.Predicate},
		{pattern.Object, m.Object},
	}
	for _, pr := range pairs {
		pat, val := pr[0], pr[1]
		if !pat.IsVar() {
			continue
		}
		if bound, ok := ext[pat.Value]; ok {
			if bound != val && !(bound.IsLiteral() && ir.MatchesLiteral(bound, val)) {
				return nil, false
			}
			continue
		}
		ext[pat.Value] = val
	}
	return ext, true
}
