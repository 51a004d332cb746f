package shape

import (
	"fmt"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
)

// ID returns the content-addressed identity of s. Labels do not take part;
// every constraint does, in declared order.
func ID(s *Shape) (string, error) {
	c, err := Canonical(s)
	if err != nil {
		return "", err
	}
	return ir.ShapeID(c)
}

// MustID is like ID but panics on error. Use only for shapes known to be
// acyclic, such as test fixtures.
func MustID(s *Shape) string {
	id, err := ID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Canonical returns the canonical encoding of s. A shape that nests itself
// has no finite encoding and yields a CompilationError.
func Canonical(s *Shape) (ir.IRObject, error) {
	return canonical(s, make(map[*Shape]bool))
}

func canonical(s *Shape, onStack map[*Shape]bool) (ir.IRObject, error) {
	if s == nil {
		return nil, &CompilationError{Code: ErrCodeEmptyShape, Message: "shape is nil"}
	}
	if onStack[s] {
		return nil, &CompilationError{Code: ErrCodeNestingCycle, Shape: displayName(s), Message: "shape nests itself"}
	}
	onStack[s] = true
	defer delete(onStack, s)

	props := make(ir.IRArray, 0, len(s.Properties))
	for i, p := range s.Properties {
		obj := ir.IRObject{
			"path":      ir.IRString(p.Path),
			"required":  ir.IRBool(p.Required),
			"qualified": ir.IRBool(p.Qualified),
			"point":     ir.IRBool(p.Point),
		}
		if p.Class != "" {
			obj["class"] = ir.IRString(p.Class)
		}
		if p.Name != "" {
			obj["name"] = ir.IRString(p.Name)
		}
		if p.Value != nil {
			obj["value"] = p.Value.Canonical()
		}
		if p.Node != nil {
			node, err := canonical(p.Node, onStack)
			if err != nil {
				return nil, fmt.Errorf("properties[%d].node: %w", i, err)
			}
			obj["node"] = node
		}
		props = append(props, obj)
	}

	alts, err := canonicalList(s.Alternatives, "or", onStack)
	if err != nil {
		return nil, err
	}
	conj, err := canonicalList(s.Conjuncts, "node", onStack)
	if err != nil {
		return nil, err
	}
	return ir.IRObject{
		"target_class": ir.Strings(s.TargetClasses),
		"property":     props,
		"or":           alts,
		"node":         conj,
	}, nil
}

func canonicalList(list []*Shape, field string, onStack map[*Shape]bool) (ir.IRArray, error) {
	out := make(ir.IRArray, 0, len(list))
	for i, sub := range list {
		c, err := canonical(sub, onStack)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		out = append(out, c)
	}
	return out, nil
}
