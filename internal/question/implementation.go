package question

import (
	"fmt"
	"strings"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/shape"
)

// Implementation is one strategy for answering a question.
//
// This is a sealed interface - only types in this package implement it.
type Implementation interface {
	implementation() // Marker method - seals interface to this package
	String() string
}

// GraphImplementation extracts the value from the graph: the entities
// matching Shape's root are its candidates, and the point variable holds
// the value.
type GraphImplementation struct {
	Shape *shape.Shape

	// Point is the authored pair index, or shape.NoPoint. Informational:
	// the shape itself carries the point marker.
	Point int
}

func (*GraphImplementation) implementation() {}

func (g *GraphImplementation) String() string {
	if g.Shape != nil && g.Shape.Label != "" {
		return "graph(" + g.Shape.Label + ")"
	}
	return "graph"
}

// DefaultImplementation answers every target with the same constant.
type DefaultImplementation struct {
	Value ir.Value
}

func (*DefaultImplementation) implementation() {}

func (d *DefaultImplementation) String() string {
	return "default(" + d.Value.String() + ")"
}

// WrappedImplementation answers every target with a precomputed value.
// Folding a composite of constants yields one.
type WrappedImplementation struct {
	Value ir.Value
}

func (*WrappedImplementation) implementation() {}

func (w *WrappedImplementation) String() string {
	return "wrapped(" + w.Value.String() + ")"
}

// CompositeImplementation applies Op to the values of its operands. It
// applies to a target only where every operand applies.
type CompositeImplementation struct {
	Op       Operator
	Operands []Operand
}

func (*CompositeImplementation) implementation() {}

func (c *CompositeImplementation) String() string {
	parts := make([]string, len(c.Operands))
	for i, o := range c.Operands {
		parts[i] = o.String()
	}
	return string(c.Op) + "(" + strings.Join(parts, ", ") + ")"
}

// Eval applies the operator to already-resolved operand values.
func (c *CompositeImplementation) Eval(values []ir.Value) (ir.Value, error) {
	if len(values) != len(c.Operands) {
		return ir.Value{}, fmt.Errorf("%s: got %d values for %d operands", c.Op, len(values), len(c.Operands))
	}
	return c.Op.Apply(values...)
}

// Graph builds a graph implementation from the pattern notation.
func Graph(point int, patterns ...shape.Pattern) (*GraphImplementation, error) {
	s, err := shape.FromPattern(point, patterns...)
	if err != nil {
		return nil, err
	}
	return &GraphImplementation{Shape: s, Point: point}, nil
}

// MustGraph is like Graph but panics on error. Use for static definitions.
func MustGraph(point int, patterns ...shape.Pattern) *GraphImplementation {
	g, err := Graph(point, patterns...)
	if err != nil {
		panic(err)
	}
	return g
}

// FromShape wraps an already-built shape.
func FromShape(s *shape.Shape) *GraphImplementation {
	return &GraphImplementation{Shape: s, Point: shape.NoPoint}
}

// Default returns a numeric default.
func Default(n float64) *DefaultImplementation {
	return &DefaultImplementation{Value: ir.Number(n)}
}

// DefaultValue returns a default of any value kind.
func DefaultValue(v ir.Value) *DefaultImplementation {
	return &DefaultImplementation{Value: v}
}

// Wrap returns a precomputed value.
func Wrap(v ir.Value) *WrappedImplementation {
	return &WrappedImplementation{Value: v}
}

// IsWildcard reports whether impl applies to every target without
// consulting the graph.
func IsWildcard(impl Implementation) bool {
	switch impl.(type) {
	case *DefaultImplementation, *WrappedImplementation:
		return true
	}
	return false
}
