package store

import (
	"context"
	"fmt"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/querysql"
)

// AddTriples inserts statements in a single transaction. Statements that
// already exist are ignored, so loading the same data twice is a no-op.
// Returns the number of statements actually inserted.
func (s *Store) AddTriples(ctx context.Context, triples ...ir.Triple) (int, error) {
	for i, t := range triples {
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("triple %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO triples (subject, predicate, object, object_kind, datatype)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, t := range triples {
		kind := querysql.KindIRI
		if t.Object.IsLiteral() {
			kind = querysql.KindLiteral
		}
		res, err := stmt.ExecContext(ctx, t.Subject.Value, t.Predicate.Value, t.Object.Value, kind, t.Object.Datatype)
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", t, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}
