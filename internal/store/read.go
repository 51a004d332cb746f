package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/queryir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/querysql"
)

// Match returns the statements matching a triple pattern, with variables
// bound in b substituted. Unbound variables match anything. Results are
// ordered by subject, predicate, object.
func (s *Store) Match(ctx context.Context, p *queryir.Triple, b queryir.Binding) ([]ir.Triple, error) {
	query, params, err := s.sql.CompileTriple(p, b)
	if err != nil {
		return nil, fmt.Errorf("compile triple pattern: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query triples: %w", err)
	}
	defer rows.Close()

	var out []ir.Triple
	for rows.Next() {
		var subj, pred, obj, datatype string
		var kind int
		if err := rows.Scan(&subj, &pred, &obj, &kind, &datatype); err != nil {
			return nil, fmt.Errorf("scan triple: %w", err)
		}
		t := ir.Triple{Subject: ir.IRI(subj), Predicate: ir.IRI(pred), Object: ir.IRI(obj)}
		if kind == querysql.KindLiteral {
			t.Object = ir.Literal(obj, datatype)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate triples: %w", err)
	}
	return out, nil
}

// Objects returns the values reachable from subject over predicate.
func (s *Store) Objects(ctx context.Context, subject, predicate string) ([]ir.Term, error) {
	triples, err := s.Match(ctx, &queryir.Triple{
		Subject:   ir.IRI(subject),
		Predicate: ir.IRI(predicate),
		Object:    ir.Var("o"),
	}, nil)
	if err != nil {
		return nil, err
	}
	out := make([]ir.Term, len(triples))
	for i, t := range triples {
		out[i] = t.Object
	}
	return out, nil
}

// Instances returns the entities typed with class or with any of its
// transitive subclasses.
func (s *Store) Instances(ctx context.Context, class string) ([]string, error) {
	query, params, err := s.sql.CompileTypeOf(&queryir.TypeOf{Subject: ir.Var("x"), Class: class}, nil)
	if err != nil {
		return nil, fmt.Errorf("compile type test: %w", err)
	}
	return s.strings(ctx, query, params)
}

// IsInstance reports whether entity is typed with class or with any of its
// transitive subclasses.
func (s *Store) IsInstance(ctx context.Context, entity, class string) (bool, error) {
	query, params, err := s.sql.CompileTypeOf(&queryir.TypeOf{Subject: ir.IRI(entity), Class: class}, nil)
	if err != nil {
		return false, fmt.Errorf("compile type test: %w", err)
	}
	found, err := s.strings(ctx, query, params)
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

// Subclasses returns class and all its transitive subclasses.
func (s *Store) Subclasses(ctx context.Context, class string) ([]string, error) {
	query, params, err := s.sql.CompileSubclasses(class)
	if err != nil {
		return nil, err
	}
	return s.strings(ctx, query, params)
}

// Subjects returns the distinct entities having predicate.
func (s *Store) Subjects(ctx context.Context, predicate string) ([]string, error) {
	query, params, err := s.sql.CompileSubjects(predicate)
	if err != nil {
		return nil, err
	}
	return s.strings(ctx, query, params)
}

// Entities returns every distinct subject in the graph.
func (s *Store) Entities(ctx context.Context) ([]string, error) {
	query, params, err := s.sql.CompileEntities()
	if err != nil {
		return nil, err
	}
	return s.strings(ctx, query, params)
}

// strings runs a single-column query and collects the results.
func (s *Store) strings(ctx context.Context, query string, params []any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return out, nil
}
