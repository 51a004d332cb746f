package queryir

import (
	"fmt"
	"slices"
)

// ValidationResult lists structural problems found in a compiled query.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes each violation found.
	Problems []string
}

// Validate checks that a compiled query is well formed:
//  1. Where is present and contains no nil or empty nodes
//  2. Root and Point (when set) are projected
//  3. Every projected variable occurs in Where, except Root, which a
//     target-only query binds through pre-binding
//  4. Triple predicates are IRIs or variables, never literals
//
// Validate is a pure function with no side effects.
func Validate(q *CompiledQuery) ValidationResult {
	v := &validator{problems: []string{}}
	v.validate(q)
	return ValidationResult{Valid: len(v.problems) == 0, Problems: v.problems}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validate(q *CompiledQuery) {
	if q == nil {
		v.addProblem("nil query")
		return
	}
	if q.Where == nil {
		v.addProblem("query has no where clause")
		return
	}
	if q.Root == "" {
		v.addProblem("query has no root variable")
	}
	if !slices.Contains(q.Project, q.Root) {
		v.addProblem("root variable ?%s is not projected", q.Root)
	}
	if q.Point != "" && !slices.Contains(q.Project, q.Point) {
		v.addProblem("point variable ?%s is not projected", q.Point)
	}

	occurs := Vars(q.Where)
	for _, p := range q.Project {
		if p != q.Root && !slices.Contains(occurs, p) {
			v.addProblem("projected variable ?%s does not occur in the pattern", p)
		}
	}
	v.validatePattern(q.Where)
}

func (v *validator) validatePattern(p Pattern) {
	switch n := p.(type) {
	case nil:
		v.addProblem("nil pattern")
	case *Triple:
		if n.Predicate.IsLiteral() {
			v.addProblem("literal predicate %s", n.Predicate)
		}
		if n.Subject.IsLiteral() {
			v.addProblem("literal subject %s", n.Subject)
		}
	case *TypeOf:
		if n.Class == "" {
			v.addProblem("type test on %s has no class", n.Subject)
		}
	case *Group:
		for _, child := range n.Patterns {
			v.validatePattern(child)
		}
	case *Optional:
		v.validatePattern(n.Pattern)
	case *Union:
		if len(n.Branches) == 0 {
			v.addProblem("union has no branches")
		}
		for _, br := range n.Branches {
			v.validatePattern(br)
		}
	default:
		v.addProblem("unknown pattern type %T", p)
	}
}
