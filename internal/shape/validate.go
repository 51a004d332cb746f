package shape

import (
	"fmt"
	"strings"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
)

// Variable names reserved in compiled queries.
const (
	RootVar  = "target"
	PointVar = "point"
)

// Validate checks that s is well formed:
//   - s is not empty
//   - every constraint has a path
//   - no constraint carries more than one of class, node and value
//   - each conjunctive branch has at most one point
//   - the point is a class or node constraint, since only those bind a value
//   - authored names are not empty and do not take RootVar, or PointVar
//     outside the point
//   - no shape nests itself
//
// The first violation is returned as a *CompilationError.
func Validate(s *Shape) error {
	if s == nil {
		return &CompilationError{Code: ErrCodeEmptyShape, Message: "shape is nil"}
	}
	v := &validator{root: displayName(s), onStack: make(map[*Shape]bool)}
	if err := v.walk(s, ""); err != nil {
		return err
	}
	_, err := v.points(s, "")
	return err
}

type validator struct {
	root    string
	onStack map[*Shape]bool
}

func (v *validator) fail(code, field, format string, args ...any) error {
	return &CompilationError{
		Code:    code,
		Shape:   v.root,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func (v *validator) walk(s *Shape, field string) error {
	if s == nil {
		return v.fail(ErrCodeEmptyShape, field, "shape is nil")
	}
	if v.onStack[s] {
		return v.fail(ErrCodeNestingCycle, field, "shape nests itself")
	}
	if s.IsEmpty() {
		return v.fail(ErrCodeEmptyShape, field, "shape has no target class, property, alternative or conjunct")
	}
	v.onStack[s] = true
	defer delete(v.onStack, s)

	for i, p := range s.Properties {
		pf := join(field, fmt.Sprintf("properties[%d]", i))
		if strings.TrimSpace(p.Path) == "" {
			return v.fail(ErrCodeMissingPath, pf, "constraint has no path")
		}
		n := 0
		if p.Class != "" {
			n++
		}
		if p.Node != nil {
			n++
		}
		if p.Value != nil {
			n++
		}
		if n > 1 {
			return v.fail(ErrCodeConflictingKinds, pf, "constraint sets more than one of class, node and value")
		}
		if p.Name != "" {
			if err := v.checkName(p, pf); err != nil {
				return err
			}
		}
		if p.Point && p.Class == "" && p.Node == nil {
			return v.fail(ErrCodePointNotVariable, pf, "point must be a class or node constraint, got %s", p.Kind())
		}
		if p.Node != nil {
			if err := v.walk(p.Node, join(pf, "node")); err != nil {
				return err
			}
		}
	}
	for i, alt := range s.Alternatives {
		if err := v.walk(alt, join(field, fmt.Sprintf("or[%d]", i))); err != nil {
			return err
		}
	}
	for i, c := range s.Conjuncts {
		if err := v.walk(c, join(field, fmt.Sprintf("node[%d]", i))); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) checkName(p PropertyConstraint, field string) error {
	switch ir.SanitizeVar(p.Name) {
	case "":
		return v.fail(ErrCodeReservedName, join(field, "name"), "variable name %q is empty", p.Name)
	case RootVar:
		return v.fail(ErrCodeReservedName, join(field, "name"), "variable name %q is reserved for the target", p.Name)
	case PointVar:
		if !p.Point {
			return v.fail(ErrCodeReservedName, join(field, "name"), "variable name %q is reserved for the point", p.Name)
		}
	}
	return nil
}

// points returns the largest number of points any single conjunctive
// branch through s can bind, failing once that exceeds one. Alternatives
// are separate branches; everything else is conjunctive. walk has already
// rejected cycles.
func (v *validator) points(s *Shape, field string) (int, error) {
	n := 0
	for i, p := range s.Properties {
		if p.Point {
			n++
		}
		if p.Node != nil {
			k, err := v.points(p.Node, join(field, fmt.Sprintf("properties[%d].node", i)))
			if err != nil {
				return 0, err
			}
			n += k
		}
	}
	for i, c := range s.Conjuncts {
		k, err := v.points(c, join(field, fmt.Sprintf("node[%d]", i)))
		if err != nil {
			return 0, err
		}
		n += k
	}
	best := 0
	for i, alt := range s.Alternatives {
		k, err := v.points(alt, join(field, fmt.Sprintf("or[%d]", i)))
		if err != nil {
			return 0, err
		}
		best = max(best, k)
	}
	n += best
	if n > 1 {
		return 0, v.fail(ErrCodeMultiplePoints, field, "%d constraints are marked as the point", n)
	}
	return n, nil
}

func join(a, b string) string {
	if a == "" {
		return b
	}
	return a + "." + b
}

func displayName(s *Shape) string {
	if s.Label != "" {
		return s.Label
	}
	return "<anonymous>"
}
