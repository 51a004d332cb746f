package compiler

import (
	"fmt"
	"slices"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/queryir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/shape"
)

// Reserved variable names in compiled queries.
const (
	RootVar  = shape.RootVar
	PointVar = shape.PointVar
)

// Compile translates a shape into a graph-pattern query.
//
// Compilation is pure: the same shape content always yields the same
// query, variable names included, because fresh names come from a counter
// scoped to this call. Malformed shapes fail with *shape.CompilationError.
//
// Translation rules, per shape rooted at variable r:
//  1. Each target class c emits TypeOf(r, c); several classes form a Union.
//  2. Conjunct shapes compile inline on r.
//  3. Unqualified class filters and bare constraints on the same path
//     share one value variable.
//  4. A class constraint emits (r path v) plus TypeOf(v, class); a node
//     constraint emits (r path v) plus the nested shape compiled on v; a
//     value constraint emits (r path value) with no variable. Optional
//     constraints are wrapped in Optional.
//  5. Alternatives compile independently on r and form a Union.
//
// A constraint carrying no class, node or value emits no clause at all,
// so the path is not even required to exist.
func Compile(s *shape.Shape) (*queryir.CompiledQuery, error) {
	if err := shape.Validate(s); err != nil {
		return nil, err
	}
	id, err := shape.ID(s)
	if err != nil {
		return nil, err
	}

	c := &shapeCompiler{
		label:   s.Label,
		used:    map[string]bool{RootVar: true},
		onStack: make(map[*shape.Shape]bool),
	}
	c.reserveNames(s, make(map[*shape.Shape]bool))
	where, err := c.compile(s, RootVar, "")
	if err != nil {
		return nil, err
	}

	q := &queryir.CompiledQuery{
		ShapeID: id,
		Label:   s.Label,
		Root:    RootVar,
		Where:   where,
		Project: c.projection(),
	}
	if slices.Contains(c.introduced, PointVar) {
		q.Point = PointVar
	}
	if res := queryir.Validate(q); !res.Valid {
		return nil, fmt.Errorf("compiler produced an invalid query for shape %s: %v", ir.ShortID(id), res.Problems)
	}
	return q, nil
}

type shapeCompiler struct {
	label      string
	counter    int
	used       map[string]bool
	introduced []string
	onStack    map[*shape.Shape]bool
}

func (c *shapeCompiler) fail(code, field, format string, args ...any) error {
	return &shape.CompilationError{
		Code:    code,
		Shape:   c.label,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// reserveNames marks every authored name in s as used so that generated
// names never collide with them.
func (c *shapeCompiler) reserveNames(s *shape.Shape, seen map[*shape.Shape]bool) {
	if seen[s] {
		return
	}
	seen[s] = true
	for _, p := range s.Properties {
		if p.Name != "" && !p.Point {
			c.used[ir.SanitizeVar(p.Name)] = true
		}
		if p.Node != nil {
			c.reserveNames(p.Node, seen)
		}
	}
	for _, sub := range s.Alternatives {
		c.reserveNames(sub, seen)
	}
	for _, sub := range s.Conjuncts {
		c.reserveNames(sub, seen)
	}
}

// fresh returns an unused generated variable name.
func (c *shapeCompiler) fresh() string {
	for {
		name := fmt.Sprintf("v%d", c.counter)
		c.counter++
		if !c.used[name] {
			c.used[name] = true
			return name
		}
	}
}

// varFor names the value variable of a constraint. Authored names are
// reused verbatim, so two constraints naming the same variable join on it.
func (c *shapeCompiler) varFor(p shape.PropertyConstraint) string {
	switch {
	case p.Point:
		c.used[PointVar] = true
		return PointVar
	case p.Name != "":
		name := ir.SanitizeVar(p.Name)
		c.used[name] = true
		return name
	default:
		return c.fresh()
	}
}

func (c *shapeCompiler) introduce(name string) {
	if name != RootVar && !slices.Contains(c.introduced, name) {
		c.introduced = append(c.introduced, name)
	}
}

// projection returns root, then point, then every other variable in order
// of introduction.
func (c *shapeCompiler) projection() []string {
	out := []string{RootVar}
	if slices.Contains(c.introduced, PointVar) {
		out = append(out, PointVar)
	}
	for _, v := range c.introduced {
		if v != PointVar {
			out = append(out, v)
		}
	}
	return out
}

func (c *shapeCompiler) compile(s *shape.Shape, root, field string) (*queryir.Group, error) {
	if c.onStack[s] {
		return nil, c.fail(shape.ErrCodeNestingCycle, field, "shape nests itself")
	}
	c.onStack[s] = true
	defer delete(c.onStack, s)

	g := &queryir.Group{}
	rootTerm := ir.Var(root)

	switch len(s.TargetClasses) {
	case 0:
	case 1:
		g.Patterns = append(g.Patterns, &queryir.TypeOf{Subject: rootTerm, Class: s.TargetClasses[0]})
	default:
		u := &queryir.Union{}
		for _, class := range s.TargetClasses {
			u.Branches = append(u.Branches, &queryir.Group{Patterns: []queryir.Pattern{
				&queryir.TypeOf{Subject: rootTerm, Class: class},
			}})
		}
		g.Patterns = append(g.Patterns, u)
	}

	for i, conj := range s.Conjuncts {
		sub, err := c.compile(conj, root, join(field, fmt.Sprintf("node[%d]", i)))
		if err != nil {
			return nil, err
		}
		g.Patterns = append(g.Patterns, sub.Patterns...)
	}

	props, err := c.compileProperties(s.Properties, rootTerm, field)
	if err != nil {
		return nil, err
	}
	g.Patterns = append(g.Patterns, props...)

	if len(s.Alternatives) > 0 {
		u := &queryir.Union{}
		for i, alt := range s.Alternatives {
			sub, err := c.compile(alt, root, join(field, fmt.Sprintf("or[%d]", i)))
			if err != nil {
				return nil, err
			}
			u.Branches = append(u.Branches, sub)
		}
		g.Patterns = append(g.Patterns, u)
	}
	return g, nil
}

// pathGroup collects the constraints sharing one path variable.
type pathGroup struct {
	variable string
	members  []shape.PropertyConstraint
	emitted  bool
}

func (c *shapeCompiler) compileProperties(props []shape.PropertyConstraint, root ir.Term, field string) ([]queryir.Pattern, error) {
	groups := c.groupByPath(props)

	var out []queryir.Pattern
	for i, p := range props {
		pf := join(field, fmt.Sprintf("properties[%d]", i))
		path := ir.IRI(p.Path)

		if p.SharesVariable() {
			pg := groups[p.Path]
			if pg.emitted {
				continue
			}
			pg.emitted = true
			out = append(out, c.sharedClauses(pg, root, path)...)
			continue
		}

		var clauses []queryir.Pattern
		switch p.Kind() {
		case shape.KindValue:
			clauses = []queryir.Pattern{&queryir.Triple{Subject: root, Predicate: path, Object: *p.Value}}
		case shape.KindClass:
			v := c.varFor(p)
			c.introduce(v)
			clauses = []queryir.Pattern{
				&queryir.Triple{Subject: root, Predicate: path, Object: ir.Var(v)},
				&queryir.TypeOf{Subject: ir.Var(v), Class: p.Class},
			}
		case shape.KindNode:
			v := c.varFor(p)
			c.introduce(v)
			sub, err := c.compile(p.Node, v, join(pf, "node"))
			if err != nil {
				return nil, err
			}
			clauses = append([]queryir.Pattern{
				&queryir.Triple{Subject: root, Predicate: path, Object: ir.Var(v)},
			}, sub.Patterns...)
		default:
			// Qualified bare constraint: no clause.
			continue
		}

		if p.Required {
			out = append(out, clauses...)
		} else {
			out = append(out, &queryir.Optional{Pattern: &queryir.Group{Patterns: clauses}})
		}
	}
	return out, nil
}

// groupByPath assigns one variable per shared path. The point takes
// precedence over an authored name, which takes precedence over a fresh one.
func (c *shapeCompiler) groupByPath(props []shape.PropertyConstraint) map[string]*pathGroup {
	groups := make(map[string]*pathGroup)
	var order []string
	for _, p := range props {
		if !p.SharesVariable() {
			continue
		}
		pg, ok := groups[p.Path]
		if !ok {
			pg = &pathGroup{}
			groups[p.Path] = pg
			order = append(order, p.Path)
		}
		pg.members = append(pg.members, p)
	}
	for _, path := range order {
		pg := groups[path]
		pg.variable = c.groupVar(pg.members)
	}
	return groups
}

func (c *shapeCompiler) groupVar(members []shape.PropertyConstraint) string {
	for _, m := range members {
		if m.Point {
			return c.varFor(m)
		}
	}
	for _, m := range members {
		if m.Name != "" {
			return c.varFor(m)
		}
	}
	return c.fresh()
}

// sharedClauses emits one triple for the path plus a type test per class
// member. When every class member is optional the whole group is optional;
// otherwise optional members add nothing, since the value is already
// required to exist. Groups of bare constraints emit nothing.
func (c *shapeCompiler) sharedClauses(pg *pathGroup, root, path ir.Term) []queryir.Pattern {
	v := ir.Var(pg.variable)
	var required, optional []queryir.Pattern
	for _, m := range pg.members {
		if m.Kind() != shape.KindClass {
			continue
		}
		test := &queryir.TypeOf{Subject: v, Class: m.Class}
		if m.Required {
			required = append(required, test)
		} else {
			optional = append(optional, test)
		}
	}
	if len(required) == 0 && len(optional) == 0 {
		return nil
	}
	c.introduce(pg.variable)

	triple := &queryir.Triple{Subject: root, Predicate: path, Object: v}
	if len(required) == 0 {
		return []queryir.Pattern{&queryir.Optional{Pattern: &queryir.Group{
			Patterns: append([]queryir.Pattern{triple}, optional...),
		}}}
	}
	return append([]queryir.Pattern{triple}, required...)
}

func join(a, b string) string {
	if a == "" {
		return b
	}
	return a + "." + b
}
