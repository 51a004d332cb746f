package queryir

import (
	"slices"
	"strings"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
)

// Pattern is a node in a graph-pattern tree.
//
// This is a sealed interface - only types in this package implement it.
type Pattern interface {
	patternNode() // Marker method - seals interface to this package
}

// Triple matches graph triples. Any position may be a variable.
type Triple struct {
	Subject   ir.Term
	Predicate ir.Term
	Object    ir.Term
}

func (*Triple) patternNode() {}

// TypeOf tests subtype-closure membership: Subject is an instance of Class
// or of any class that is (transitively) rdfs:subClassOf Class.
type TypeOf struct {
	Subject ir.Term
	Class   string
}

func (*TypeOf) patternNode() {}

// Group is a conjunction of patterns.
type Group struct {
	Patterns []Pattern
}

func (*Group) patternNode() {}

// Optional wraps a pattern whose failure does not discard the row.
type Optional struct {
	Pattern Pattern
}

func (*Optional) patternNode() {}

// Union is a disjunction of alternative patterns.
type Union struct {
	Branches []Pattern
}

func (*Union) patternNode() {}

// CompiledQuery is the immutable result of compiling a shape.
//
// Root names the variable bound to the target entity. Point names the
// variable holding the extracted value, or is empty when the shape has no
// point, in which case the value is the target itself.
type CompiledQuery struct {
	ShapeID string
	Label   string
	Root    string
	Point   string
	Where   *Group
	Project []string
}

// ValueVar returns the variable holding the value this query extracts.
func (q *CompiledQuery) ValueVar() string {
	if q.Point != "" {
		return q.Point
	}
	return q.Root
}

// Binding is one solution row: variable name to term.
type Binding map[string]ir.Term

// Clone returns a shallow copy of b.
func (b Binding) Clone() Binding {
	out := make(Binding, len(b)+2)
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Project returns the subset of b restricted to vars. Unbound variables
// are omitted.
func (b Binding) Project(vars []string) Binding {
	out := make(Binding, len(vars))
	for _, v := range vars {
		if t, ok := b[v]; ok {
			out[v] = t
		}
	}
	return out
}

// Key returns a string that is equal for two bindings iff they agree on
// vars. Used for de-duplication and deterministic ordering.
func (b Binding) Key(vars []string) string {
	var sb strings.Builder
	for _, v := range vars {
		t, ok := b[v]
		if ok {
			sb.WriteString(t.String())
		}
		sb.WriteByte(0)
	}
	return sb.String()
}

// Vars returns the variables appearing in p, in order of first occurrence.
func Vars(p Pattern) []string {
	var out []string
	walkTerms(p, func(t ir.Term) {
		if t.IsVar() && !slices.Contains(out, t.Value) {
			out = append(out, t.Value)
		}
	})
	return out
}

// RequiredVars returns the variables that every solution of p binds:
// variables appearing outside Optional, and in every branch of a Union.
func RequiredVars(p Pattern) []string {
	switch n := p.(type) {
	case *Triple:
		return Vars(n)
	case *TypeOf:
		return Vars(n)
	case *Group:
		var out []string
		for _, child := range n.Patterns {
			for _, v := range RequiredVars(child) {
				if !slices.Contains(out, v) {
					out = append(out, v)
				}
			}
		}
		return out
	case *Union:
		if len(n.Branches) == 0 {
			return nil
		}
		out := RequiredVars(n.Branches[0])
		for _, br := range n.Branches[1:] {
			other := RequiredVars(br)
			out = slices.DeleteFunc(out, func(v string) bool { return !slices.Contains(other, v) })
		}
		return out
	default:
		return nil
	}
}

func walkTerms(p Pattern, fn func(ir.Term)) {
	switch n := p.(type) {
	case *Triple:
		fn(n.Subject)
		fn(n.Predicate)
		fn(n.Object)
	case *TypeOf:
		fn(n.Subject)
	case *Group:
		for _, child := range n.Patterns {
			walkTerms(child, fn)
		}
	case *Optional:
		walkTerms(n.Pattern, fn)
	case *Union:
		for _, br := range n.Branches {
			walkTerms(br, fn)
		}
	}
}
