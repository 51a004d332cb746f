package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/shape"
)

// Qualify reports whether at least one entity in the graph conforms to s.
//
// It walks the shape directly instead of evaluating the compiled query and
// returns at the first conforming entity, which makes it a cheap existence
// check before per-target evaluation. Conformance follows the same rules
// as compiled queries: optional and bare constraints never reject, and
// unqualified class constraints on one path must be met by a single value.
func (s *Store) Qualify(ctx context.Context, sh *shape.Shape) (bool, error) {
	if err := shape.Validate(sh); err != nil {
		return false, err
	}
	c := &conformer{store: s, instance: make(map[[2]string]bool)}
	focus, err := c.focus(ctx, sh)
	if err != nil {
		return false, err
	}
	for _, e := range focus {
		ok, err := c.conforms(ctx, ir.IRI(e), sh)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Conforms reports whether entity conforms to s.
func (s *Store) Conforms(ctx context.Context, entity string, sh *shape.Shape) (bool, error) {
	if err := shape.Validate(sh); err != nil {
		return false, err
	}
	c := &conformer{store: s, instance: make(map[[2]string]bool)}
	return c.conforms(ctx, ir.IRI(entity), sh)
}

type conformer struct {
	store    *Store
	instance map[[2]string]bool
}

// focus returns the entities worth checking against sh: instances of its
// target classes, the subjects of its first required path, or failing
// both every subject in the graph.
func (c *conformer) focus(ctx context.Context, sh *shape.Shape) ([]string, error) {
	if len(sh.TargetClasses) > 0 {
		var out []string
		for _, class := range sh.TargetClasses {
			found, err := c.store.Instances(ctx, class)
			if err != nil {
				return nil, err
			}
			out = append(out, found...)
		}
		slices.Sort(out)
		return slices.Compact(out), nil
	}
	for _, p := range sh.Properties {
		if p.Required && p.Kind() != shape.KindBare {
			return c.store.Subjects(ctx, p.Path)
		}
	}
	return c.store.Entities(ctx)
}

func (c *conformer) conforms(ctx context.Context, node ir.Term, sh *shape.Shape) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if len(sh.TargetClasses) > 0 {
		ok, err := c.anyClass(ctx, node, sh.TargetClasses)
		if err != nil || !ok {
			return false, err
		}
	}
	for _, conj := range sh.Conjuncts {
		ok, err := c.conforms(ctx, node, conj)
		if err != nil || !ok {
			return false, err
		}
	}

	shared := make(map[string][]string)
	var paths []string
	for _, p := range sh.Properties {
		if !p.Required {
			continue
		}
		if p.SharesVariable() {
			if _, ok := shared[p.Path]; !ok {
				paths = append(paths, p.Path)
			}
			if p.Class != "" {
				shared[p.Path] = append(shared[p.Path], p.Class)
			} else if shared[p.Path] == nil {
				shared[p.Path] = []string{}
			}
			continue
		}
		ok, err := c.property(ctx, node, p)
		if err != nil || !ok {
			return false, err
		}
	}
	for _, path := range paths {
		classes := shared[path]
		if len(classes) == 0 {
			continue
		}
		ok, err := c.someValue(ctx, node, path, func(v ir.Term) (bool, error) {
			return c.allClasses(ctx, v, classes)
		})
		if err != nil || !ok {
			return false, err
		}
	}

	if len(sh.Alternatives) == 0 {
		return true, nil
	}
	for _, alt := range sh.Alternatives {
		ok, err := c.conforms(ctx, node, alt)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// property checks one required, unshared constraint.
func (c *conformer) property(ctx context.Context, node ir.Term, p shape.PropertyConstraint) (bool, error) {
	switch p.Kind() {
	case shape.KindClass:
		return c.someValue(ctx, node, p.Path, func(v ir.Term) (bool, error) {
			return c.isInstance(ctx, v, p.Class)
		})
	case shape.KindNode:
		return c.someValue(ctx, node, p.Path, func(v ir.Term) (bool, error) {
			return c.conforms(ctx, v, p.Node)
		})
	case shape.KindValue:
		want := *p.Value
		return c.someValue(ctx, node, p.Path, func(v ir.Term) (bool, error) {
			if want.IsLiteral() {
				return ir.MatchesLiteral(want, v), nil
			}
			return v == want, nil
		})
	default:
		return true, nil
	}
}

func (c *conformer) someValue(ctx context.Context, node ir.Term, path string, pred func(ir.Term) (bool, error)) (bool, error) {
	if !node.IsIRI() {
		return false, nil
	}
	values, err := c.store.Objects(ctx, node.Value, path)
	if err != nil {
		return false, fmt.Errorf("values of %s on %s: %w", path, node, err)
	}
	for _, v := range values {
		ok, err := pred(v)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (c *conformer) anyClass(ctx context.Context, node ir.Term, classes []string) (bool, error) {
	for _, class := range classes {
		ok, err := c.isInstance(ctx, node, class)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (c *conformer) allClasses(ctx context.Context, node ir.Term, classes []string) (bool, error) {
	for _, class := range classes {
		ok, err := c.isInstance(ctx, node, class)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (c *conformer) isInstance(ctx context.Context, node ir.Term, class string) (bool, error) {
	if !node.IsIRI() {
		return false, nil
	}
	key := [2]string{node.Value, class}
	if ok, cached := c.instance[key]; cached {
		return ok, nil
	}
	ok, err := c.store.IsInstance(ctx, node.Value, class)
	if err != nil {
		return false, err
	}
	c.instance[key] = ok
	return ok, nil
}
