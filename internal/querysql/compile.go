package querysql

import (
	"fmt"
	"strings"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/queryir"
)

// Object kinds stored in triples.object_kind.
const (
	KindIRI     = 0
	KindLiteral = 1
)

// Column list returned by every triple query, in scan order.
const tripleColumns = "subject, predicate, object, object_kind, datatype"

// SQLCompiler compiles the leaf patterns of the query IR (Triple and
// TypeOf) to parameterized SQL over the triples table. Composite patterns
// (Group, Optional, Union) are evaluated by the store, which calls the
// compiler once per leaf and input row.
//
// CRITICAL: ALL queries include ORDER BY with COLLATE BINARY for
// deterministic results.
// CRITICAL: All values are parameterized, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// resolve substitutes a bound variable with its value. Unbound variables
// resolve to the zero Term.
func resolve(t ir.Term, b queryir.Binding) ir.Term {
	if !t.IsVar() {
		return t
	}
	if v, ok := b[t.Value]; ok {
		return v
	}
	return ir.Term{}
}

// CompileTriple compiles a triple pattern with variables in b substituted.
// Returns (sql, params, error). The query selects the full triple.
func (c *SQLCompiler) CompileTriple(t *queryir.Triple, b queryir.Binding) (string, []any, error) {
	if t == nil {
		return "", nil, fmt.Errorf("cannot compile nil triple")
	}
	var conds []string
	var params []any

	subj := resolve(t.Subject, b)
	switch {
	case subj.IsZero():
	case subj.IsIRI():
		conds = append(conds, "subject = ?")
		params = append(params, subj.Value)
	default:
		return "", nil, fmt.Errorf("subject must be an IRI, got %s", subj)
	}

	pred := resolve(t.Predicate, b)
	switch {
	case pred.IsZero():
	case pred.IsIRI():
		conds = append(conds, "predicate = ?")
		params = append(params, pred.Value)
	default:
		return "", nil, fmt.Errorf("predicate must be an IRI, got %s", pred)
	}

	obj := resolve(t.Object, b)
	switch {
	case obj.IsZero():
	case obj.IsIRI():
		conds = append(conds, "object = ?", "object_kind = ?")
		params = append(params, obj.Value, KindIRI)
	case obj.IsLiteral():
		conds = append(conds, "object = ?", "object_kind = ?")
		params = append(params, obj.Value, KindLiteral)
		if obj.Datatype != "" {
			conds = append(conds, "datatype = ?")
			params = append(params, obj.Datatype)
		}
	default:
		return "", nil, fmt.Errorf("object cannot be %s", obj)
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + tripleColumns + " FROM triples")
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY " + stableTripleOrder())
	return sb.String(), params, nil
}

// CompileTypeOf compiles a subtype-closure membership test. The query
// returns the distinct instances of the class (or of any transitive
// subclass), restricted to the subject when it is bound.
//
// The recursive CTE uses UNION, not UNION ALL, so subclass cycles in the
// data terminate.
func (c *SQLCompiler) CompileTypeOf(t *queryir.TypeOf, b queryir.Binding) (string, []any, error) {
	if t == nil {
		return "", nil, fmt.Errorf("cannot compile nil type test")
	}
	if t.Class == "" {
		return "", nil, fmt.Errorf("type test has no class")
	}

	sql := subclassClosureCTE() +
		"SELECT DISTINCT t.subject FROM triples t JOIN closure c ON t.object = c.class" +
		" WHERE t.predicate = ? AND t.object_kind = ?"
	params := []any{t.Class, ir.RDFSSubClassOf, KindIRI, ir.RDFType, KindIRI}

	subj := resolve(t.Subject, b)
	switch {
	case subj.IsZero():
	case subj.IsIRI():
		sql += " AND t.subject = ?"
		params = append(params, subj.Value)
	default:
		return "", nil, fmt.Errorf("type test subject must be an IRI, got %s", subj)
	}

	sql += " ORDER BY t.subject COLLATE BINARY"
	return sql, params, nil
}

// CompileSubclasses compiles the reflexive-transitive subclass closure of
// a class. Returns the class itself and every descendant, ordered.
func (c *SQLCompiler) CompileSubclasses(class string) (string, []any, error) {
	if class == "" {
		return "", nil, fmt.Errorf("class is empty")
	}
	sql := subclassClosureCTE() + "SELECT class FROM closure ORDER BY class COLLATE BINARY"
	return sql, []any{class, ir.RDFSSubClassOf, KindIRI}, nil
}

// CompileSubjects compiles the distinct subjects having predicate.
func (c *SQLCompiler) CompileSubjects(predicate string) (string, []any, error) {
	if predicate == "" {
		return "", nil, fmt.Errorf("predicate is empty")
	}
	return "SELECT DISTINCT subject FROM triples WHERE predicate = ? ORDER BY subject COLLATE BINARY",
		[]any{predicate}, nil
}

// subclassClosureCTE binds closure(class) to a class and all its
// descendants. Params: class, rdfs:subClassOf, KindIRI.
func subclassClosureCTE() string {
	return "WITH RECURSIVE closure(class) AS (" +
		"SELECT ? UNION " +
		"SELECT s.subject FROM triples s JOIN closure c ON s.object = c.class" +
		" WHERE s.predicate = ? AND s.object_kind = ?) "
}

// stableTripleOrder returns the ORDER BY clause for triple queries.
// MANDATORY: every triple query uses it. COLLATE BINARY keeps ordering
// independent of locale.
func stableTripleOrder() string {
	return "subject COLLATE BINARY, predicate COLLATE BINARY, object COLLATE BINARY, object_kind, datatype COLLATE BINARY"
}

// CompileEntities compiles the distinct subjects of the whole graph.
func (c *SQLCompiler) CompileEntities() (string, []any, error) {
	return "SELECT DISTINCT subject FROM triples ORDER BY subject COLLATE BINARY", nil, nil
}
