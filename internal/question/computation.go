package question

import (
	"context"
	"fmt"
	"slices"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
)

// Func is the body of a computation, run once per bound target with the
// resolved value of every parameter.
type Func func(ctx context.Context, target string, values map[string]ir.Value) error

// Param binds a computation parameter to the question answering it.
type Param struct {
	Name     string
	Question *Question
}

// Bind returns a Param.
func Bind(name string, q *Question) Param {
	return Param{Name: name, Question: q}
}

// Computation is a function plus its explicit parameter bindings.
// Fn may be nil for computations that are only resolved, never run.
type Computation struct {
	Name   string
	Params []Param
	Fn     Func
}

// NewComputation validates and returns a computation.
func NewComputation(name string, fn Func, params ...Param) (*Computation, error) {
	c := &Computation{Name: name, Params: params, Fn: fn}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks names are present and unique and every question is valid.
func (c *Computation) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("computation has no name")
	}
	if len(c.Params) == 0 {
		return fmt.Errorf("computation %s has no parameters", c.Name)
	}
	seen := make(map[string]bool, len(c.Params))
	for _, p := range c.Params {
		if p.Name == "" {
			return fmt.Errorf("computation %s: parameter has no name", c.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("computation %s: duplicate parameter %q", c.Name, p.Name)
		}
		seen[p.Name] = true
		if err := p.Question.Validate(); err != nil {
			return fmt.Errorf("computation %s: parameter %q: %w", c.Name, p.Name, err)
		}
	}
	return nil
}

// Questions returns the distinct questions the computation requires, in
// parameter order.
func (c *Computation) Questions() []*Question {
	var out []*Question
	for _, p := range c.Params {
		if !slices.Contains(out, p.Question) {
			out = append(out, p.Question)
		}
	}
	return out
}
