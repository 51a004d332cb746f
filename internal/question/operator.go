package question

import (
	"fmt"
	"math"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
)

// Operator tags a composition.
type Operator string

const (
	OpAdd            Operator = "add"
	OpSubtract       Operator = "subtract"
	OpMultiply       Operator = "multiply"
	OpDivide         Operator = "divide"
	OpLessThan       Operator = "lessThan"
	OpLessOrEqual    Operator = "lessOrEqual"
	OpGreaterThan    Operator = "greaterThan"
	OpGreaterOrEqual Operator = "greaterOrEqual"
	OpAnd            Operator = "and"
	OpAbsoluteValue  Operator = "absoluteValue"
)

var operators = map[Operator]int{
	OpAdd:            2,
	OpSubtract:       2,
	OpMultiply:       2,
	OpDivide:         2,
	OpLessThan:       2,
	OpLessOrEqual:    2,
	OpGreaterThan:    2,
	OpGreaterOrEqual: 2,
	OpAnd:            2,
	OpAbsoluteValue:  1,
}

// aliases accepted by ParseOperator in addition to the canonical tags.
var operatorAliases = map[string]Operator{
	"+":   OpAdd,
	"sub": OpSubtract,
	"-":   OpSubtract,
	"mul": OpMultiply,
	"*":   OpMultiply,
	"div": OpDivide,
	"/":   OpDivide,
	"lt":  OpLessThan,
	"<":   OpLessThan,
	"le":  OpLessOrEqual,
	"<=":  OpLessOrEqual,
	"gt":  OpGreaterThan,
	">":   OpGreaterThan,
	"ge":  OpGreaterOrEqual,
	">=":  OpGreaterOrEqual,
	"&&":  OpAnd,
	"abs": OpAbsoluteValue,
}

// ParseOperator accepts a canonical tag ("subtract") or a short alias
// ("sub", "-").
func ParseOperator(s string) (Operator, error) {
	if _, ok := operators[Operator(s)]; ok {
		return Operator(s), nil
	}
	if op, ok := operatorAliases[s]; ok {
		return op, nil
	}
	return "", fmt.Errorf("unknown operator %q", s)
}

// Arity returns the number of operands op takes, or 0 for an unknown op.
func (o Operator) Arity() int {
	return operators[o]
}

// Apply evaluates op. Arithmetic and comparison operators take numbers;
// OpAnd takes booleans. Division by zero is an error rather than an infinity.
func (o Operator) Apply(args ...ir.Value) (ir.Value, error) {
	arity := o.Arity()
	if arity == 0 {
		return ir.Value{}, fmt.Errorf("unknown operator %q", string(o))
	}
	if len(args) != arity {
		return ir.Value{}, fmt.Errorf("%s takes %d operands, got %d", o, arity, len(args))
	}

	if o == OpAnd {
		a, err := args[0].AsBool()
		if err != nil {
			return ir.Value{}, fmt.Errorf("%s: left: %w", o, err)
		}
		b, err := args[1].AsBool()
		if err != nil {
			return ir.Value{}, fmt.Errorf("%s: right: %w", o, err)
		}
		return ir.Bool(a && b), nil
	}

	nums := make([]float64, len(args))
	for i, a := range args {
		n, err := a.AsNumber()
		if err != nil {
			return ir.Value{}, fmt.Errorf("%s: operand %d: %w", o, i, err)
		}
		nums[i] = n
	}

	switch o {
	case OpAbsoluteValue:
		return ir.Number(math.Abs(nums[0])), nil
	case OpAdd:
		return ir.Number(nums[0] + nums[1]), nil
	case OpSubtract:
		return ir.Number(nums[0] - nums[1]), nil
	case OpMultiply:
		return ir.Number(nums[0] * nums[1]), nil
	case OpDivide:
		if nums[1] == 0 {
			return ir.Value{}, fmt.Errorf("%s: division by zero", o)
		}
		return ir.Number(nums[0] / nums[1]), nil
	case OpLessThan:
		return ir.Bool(nums[0] < nums[1]), nil
	case OpLessOrEqual:
		return ir.Bool(nums[0] <= nums[1]), nil
	case OpGreaterThan:
		return ir.Bool(nums[0] > nums[1]), nil
	case OpGreaterOrEqual:
		return ir.Bool(nums[0] >= nums[1]), nil
	}
	return ir.Value{}, fmt.Errorf("operator %q has no evaluator", string(o))
}
