package question

import (
	"fmt"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
)

// Operand is one input of a composite: a question, an implementation or
// a constant. Exactly one field is set.
type Operand struct {
	Question *Question
	Impl     Implementation
	Const    *ir.Value
}

// Ref uses every implementation of q, in q's priority order.
func Ref(q *Question) Operand { return Operand{Question: q} }

// Use pins one implementation.
func Use(impl Implementation) Operand { return Operand{Impl: impl} }

// Const is a constant operand.
func Const(v ir.Value) Operand { return Operand{Const: &v} }

// Num is a numeric constant operand.
func Num(n float64) Operand { return Const(ir.Number(n)) }

// IsConst reports whether o is a constant. A wildcard implementation is
// not a constant: it stays a dependency edge.
func (o Operand) IsConst() bool { return o.Const != nil }

func (o Operand) String() string {
	switch {
	case o.Question != nil:
		return o.Question.ID
	case o.Impl != nil:
		return o.Impl.String()
	case o.Const != nil:
		return o.Const.String()
	default:
		return "<empty>"
	}
}

func (o Operand) validate() error {
	n := 0
	if o.Question != nil {
		n++
	}
	if o.Impl != nil {
		n++
	}
	if o.Const != nil {
		n++
	}
	if n != 1 {
		return fmt.Errorf("operand must set exactly one of question, implementation and constant")
	}
	return nil
}

// Combine derives an implementation from two operands. When both operands
// are constants the result is folded into a WrappedImplementation.
func Combine(op Operator, left, right Operand) (Implementation, error) {
	return compose(op, left, right)
}

// Abs derives the absolute value of an operand.
func Abs(x Operand) (Implementation, error) {
	return compose(OpAbsoluteValue, x)
}

// MustCombine is like Combine but panics on error.
func MustCombine(op Operator, left, right Operand) Implementation {
	impl, err := Combine(op, left, right)
	if err != nil {
		panic(err)
	}
	return impl
}

func compose(op Operator, operands ...Operand) (Implementation, error) {
	if op.Arity() == 0 {
		return nil, fmt.Errorf("unknown operator %q", string(op))
	}
	if len(operands) != op.Arity() {
		return nil, fmt.Errorf("%s takes %d operands, got %d", op, op.Arity(), len(operands))
	}

	allConst := true
	for i, o := range operands {
		if err := o.validate(); err != nil {
			return nil, fmt.Errorf("%s: operand %d: %w", op, i, err)
		}
		allConst = allConst && o.IsConst()
	}

	if allConst {
		vals := make([]ir.Value, len(operands))
		for i, o := range operands {
			vals[i] = *o.Const
		}
		v, err := op.Apply(vals...)
		if err != nil {
			return nil, err
		}
		return Wrap(v), nil
	}

	return &CompositeImplementation{Op: op, Operands: operands}, nil
}
