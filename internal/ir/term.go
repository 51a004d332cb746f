package ir

import (
	"fmt"
	"strings"
)

// TermKind discriminates the three kinds of RDF term.
type TermKind uint8

const (
	// TermIRI is a named entity, class or predicate.
	TermIRI TermKind = iota
	// TermLiteral is a lexical value with an optional datatype IRI.
	TermLiteral
	// TermVar is a query variable. Variables never appear in a graph.
	TermVar
)

// String returns the lower-case name of the kind.
func (k TermKind) String() string {
	switch k {
	case TermIRI:
		return "iri"
	case TermLiteral:
		return "literal"
	case TermVar:
		return "var"
	default:
		return fmt.Sprintf("TermKind(%d)", k)
	}
}

// Term is an RDF term. Terms are small comparable values and are passed
// by value everywhere.
//
// For TermIRI, Value holds the full IRI. For TermLiteral, Value holds the
// lexical form and Datatype the datatype IRI (empty for a plain literal).
// For TermVar, Value holds the variable name without the leading '?'.
type Term struct {
	Kind     TermKind `json:"kind"`
	Value    string   `json:"value"`
	Datatype string   `json:"datatype,omitempty"`
}

// IRI returns an IRI term.
func IRI(iri string) Term {
	return Term{Kind: TermIRI, Value: iri}
}

// Literal returns a typed literal. An empty datatype yields a plain literal.
func Literal(lexical, datatype string) Term {
	return Term{Kind: TermLiteral, Value: lexical, Datatype: datatype}
}

// Var returns a variable term.
func Var(name string) Term {
	return Term{Kind: TermVar, Value: name}
}

// IsIRI reports whether t is an IRI.
func (t Term) IsIRI() bool { return t.Kind == TermIRI }

// IsLiteral reports whether t is a literal.
func (t Term) IsLiteral() bool { return t.Kind == TermLiteral }

// IsVar reports whether t is a variable.
func (t Term) IsVar() bool { return t.Kind == TermVar }

// IsZero reports whether t is the zero Term.
func (t Term) IsZero() bool { return t == Term{} }

// String renders t in N-Triples-like syntax: <iri>, "lex"^^<dt>, ?var.
func (t Term) String() string {
	switch t.Kind {
	case TermIRI:
		return "<" + t.Value + ">"
	case TermLiteral:
		q := fmt.Sprintf("%q", t.Value)
		if t.Datatype == "" {
			return q
		}
		return q + "^^<" + t.Datatype + ">"
	case TermVar:
		return "?" + t.Value
	default:
		return fmt.Sprintf("Term(%d,%q)", t.Kind, t.Value)
	}
}

// Canonical returns the canonical encoding of t used inside shape identities.
func (t Term) Canonical() IRObject {
	obj := IRObject{
		"kind":  IRString(t.Kind.String()),
		"value": IRString(t.Value),
	}
	if t.Datatype != "" {
		obj["datatype"] = IRString(t.Datatype)
	}
	return obj
}

// SanitizeVar maps an authored name onto a legal variable name: runs of
// whitespace become a single '_' and a leading '?' is dropped.
func SanitizeVar(name string) string {
	return strings.Join(strings.Fields(strings.TrimPrefix(name, "?")), "_")
}

// Triple is one graph statement. Subject and predicate are IRIs; the
// object is an IRI or a literal.
type Triple struct {
	Subject   Term `json:"subject"`
	Predicate Term `json:"predicate"`
	Object    Term `json:"object"`
}

// Validate checks that t is a legal graph statement.
func (t Triple) Validate() error {
	if !t.Subject.IsIRI() || t.Subject.Value == "" {
		return fmt.Errorf("subject must be an IRI, got %s", t.Subject)
	}
	if !t.Predicate.IsIRI() || t.Predicate.Value == "" {
		return fmt.Errorf("predicate must be an IRI, got %s", t.Predicate)
	}
	if t.Object.IsVar() || (t.Object.IsIRI() && t.Object.Value == "") {
		return fmt.Errorf("object must be an IRI or literal, got %s", t.Object)
	}
	return nil
}

// String renders t as an N-Triples line without the trailing dot.
func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String()
}

// MatchesLiteral reports whether actual matches the literal pattern p.
// A pattern without datatype matches on lexical form alone.
func MatchesLiteral(p, actual Term) bool {
	if !p.IsLiteral() || !actual.IsLiteral() || p.Value != actual.Value {
		return false
	}
	return p.Datatype == "" || p.Datatype == actual.Datatype
}
