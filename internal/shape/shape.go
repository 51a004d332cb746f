package shape

import "github.com/dimavrok/SeeQ-Programming-Model/internal/ir"

// Shape is a node-shape constraint anchored at a root entity.
// Shapes are built once and treated as immutable afterwards.
type Shape struct {
	// Label is a human-readable name. It is not part of the identity.
	Label string

	TargetClasses []string
	Properties    []PropertyConstraint
	Alternatives  []*Shape
	Conjuncts     []*Shape
}

// PropertyConstraint constrains the values reachable from the root over
// one path. At most one of Class, Node and Value is set.
type PropertyConstraint struct {
	Path string

	// Class requires the value to be an instance of Class or of any of
	// its subclasses, transitively.
	Class string

	// Node requires the value to satisfy a nested shape.
	Node *Shape

	// Value requires the path to lead to this exact term.
	Value *ir.Term

	// Required=false makes the constraint optional: a root without a
	// matching value still satisfies the shape.
	Required bool

	// Qualified constraints get their own value variable instead of
	// sharing one with other constraints on the same path.
	Qualified bool

	// Point marks the value this shape extracts.
	Point bool

	// Name is an authored variable name for the value.
	Name string
}

// Kind reports which value constraint c carries.
func (c PropertyConstraint) Kind() ConstraintKind {
	switch {
	case c.Node != nil:
		return KindNode
	case c.Value != nil:
		return KindValue
	case c.Class != "":
		return KindClass
	default:
		return KindBare
	}
}

// ConstraintKind discriminates the value constraint of a PropertyConstraint.
type ConstraintKind uint8

const (
	KindBare ConstraintKind = iota
	KindClass
	KindNode
	KindValue
)

// String returns the lower-case name of the kind.
func (k ConstraintKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindNode:
		return "node"
	case KindValue:
		return "value"
	default:
		return "bare"
	}
}

// SharesVariable reports whether c is grouped with other constraints on
// the same path. Only unqualified class filters and bare paths share.
func (c PropertyConstraint) SharesVariable() bool {
	if c.Qualified {
		return false
	}
	k := c.Kind()
	return k == KindClass || k == KindBare
}

// New returns a shape targeting the given classes with the given constraints.
func New(targetClasses []string, props ...PropertyConstraint) *Shape {
	return &Shape{TargetClasses: targetClasses, Properties: props}
}

// Class returns a required, qualified class constraint.
func Class(path, class string) PropertyConstraint {
	return PropertyConstraint{Path: path, Class: class, Required: true, Qualified: true}
}

// Nested returns a required constraint whose value must satisfy node.
func Nested(path string, node *Shape) PropertyConstraint {
	return PropertyConstraint{Path: path, Node: node, Required: true, Qualified: true}
}

// HasValue returns a required constraint fixing the path to value.
func HasValue(path string, value ir.Term) PropertyConstraint {
	v := value
	return PropertyConstraint{Path: path, Value: &v, Required: true}
}

// Optional returns c with Required cleared.
func (c PropertyConstraint) Optional() PropertyConstraint {
	c.Required = false
	return c
}

// AsPoint returns c marked as the extraction point.
func (c PropertyConstraint) AsPoint() PropertyConstraint {
	c.Point = true
	return c
}

// Shared returns c with Qualified cleared so it joins the path group.
func (c PropertyConstraint) Shared() PropertyConstraint {
	c.Qualified = false
	return c
}

// Named returns c with an authored variable name.
func (c PropertyConstraint) Named(name string) PropertyConstraint {
	c.Name = name
	return c
}

// Or returns a shape whose root satisfies at least one alternative.
func Or(alternatives ...*Shape) *Shape {
	return &Shape{Alternatives: alternatives}
}

// HasPoint reports whether any constraint reachable from s, nested
// shapes included, is marked as the point.
func (s *Shape) HasPoint() bool {
	for _, p := range s.Properties {
		if p.Point {
			return true
		}
	}
	for _, list := range [][]*Shape{s.Alternatives, s.Conjuncts} {
		for _, sub := range list {
			if sub != nil && sub.HasPoint() {
				return true
			}
		}
	}
	for _, p := range s.Properties {
		if p.Node != nil && p.Node.HasPoint() {
			return true
		}
	}
	return false
}

// IsEmpty reports whether s constrains nothing.
func (s *Shape) IsEmpty() bool {
	return len(s.TargetClasses) == 0 && len(s.Properties) == 0 &&
		len(s.Alternatives) == 0 && len(s.Conjuncts) == 0
}
