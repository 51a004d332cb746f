package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/engine"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
)

// AssertionContext carries what assertions need beyond the result.
type AssertionContext struct {
	// Prefixes expand CURIEs in targets and entity values.
	Prefixes ir.Prefixes
}

// expand turns a CURIE into an IRI, leaving anything unexpandable as is.
func (c *AssertionContext) expand(s string) string {
	if c == nil || c.Prefixes == nil {
		return s
	}
	iri, err := c.Prefixes.Expand(s)
	if err != nil {
		return s
	}
	return iri
}

// AssertionError is returned when an assertion fails.
// It includes the result summary to help debug the failure.
type AssertionError struct {
	Type     string         // Assertion type for categorization
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Result   *engine.Result // Full result for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Result != nil {
		fmt.Fprintf(&buf, "\nResult (%s):\n", e.Result.Outcome)
		for i, inv := range e.Result.Invocations {
			fmt.Fprintf(&buf, "  [%d] %s %v\n", i+1, inv.Target, inv.Values)
		}
		for _, d := range e.Result.Dropped {
			fmt.Fprintf(&buf, "  dropped %s: %s\n", d.Target, d.Code)
		}
	}
	return buf.String()
}

func assertOutcome(res *engine.Result, a Assertion) error {
	if string(res.Outcome) != a.Outcome {
		return &AssertionError{
			Type:     AssertOutcome,
			Expected: a.Outcome,
			Actual:   string(res.Outcome),
			Result:   res,
		}
	}
	return nil
}

func assertTargets(res *engine.Result, a Assertion, actx *AssertionContext) error {
	want := make([]string, len(a.Targets))
	for i, t := range a.Targets {
		want[i] = actx.expand(t)
	}
	got := res.Targets()
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     AssertTargets,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", got),
			Result:   res,
		}
	}
	return nil
}

func assertInvocationCount(res *engine.Result, a Assertion) error {
	if len(res.Invocations) != a.Count {
		return &AssertionError{
			Type:     AssertInvocationCount,
			Expected: fmt.Sprintf("%d invocations", a.Count),
			Actual:   fmt.Sprintf("%d invocations", len(res.Invocations)),
			Result:   res,
		}
	}
	return nil
}

// findInvocation returns the invocation bound for target.
func findInvocation(res *engine.Result, target string) (*engine.BoundInvocation, bool) {
	for i := range res.Invocations {
		if res.Invocations[i].Target == target {
			return &res.Invocations[i], true
		}
	}
	return nil, false
}

func assertValue(res *engine.Result, a Assertion, actx *AssertionContext) error {
	target := actx.expand(a.Target)
	inv, ok := findInvocation(res, target)
	if !ok {
		return &AssertionError{
			Type:     AssertValue,
			Expected: fmt.Sprintf("invocation for %s", target),
			Actual:   "target not bound",
			Result:   res,
		}
	}
	got, ok := inv.Values[a.Param]
	if !ok {
		return &AssertionError{
			Type:     AssertValue,
			Expected: fmt.Sprintf("value for parameter %s", a.Param),
			Actual:   "parameter not bound",
			Result:   res,
		}
	}
	if !valueMatches(got, a.Value, actx) {
		return &AssertionError{
			Type:     AssertValue,
			Expected: fmt.Sprintf("%s.%s = %v", target, a.Param, a.Value),
			Actual:   fmt.Sprintf("%s %s", got.Kind, got),
			Result:   res,
		}
	}
	return nil
}

// valueMatches compares a resolved value with a YAML-decoded expectation.
// Numbers compare within 1e-9 so authored decimals match computed ones.
func valueMatches(got ir.Value, want any, actx *AssertionContext) bool {
	switch w := want.(type) {
	case string:
		switch got.Kind {
		case ir.KindEntity:
			return got.Entity == actx.expand(w)
		case ir.KindString:
			return got.Str == w
		}
		return false
	case bool:
		return got.Kind == ir.KindBool && got.Flag == w
	case int:
		return got.Kind == ir.KindNumber && closeTo(got.Num, float64(w))
	case float64:
		return got.Kind == ir.KindNumber && closeTo(got.Num, w)
	default:
		return false
	}
}

func closeTo(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func assertChoice(res *engine.Result, a Assertion, actx *AssertionContext) error {
	target := actx.expand(a.Target)
	inv, ok := findInvocation(res, target)
	if !ok {
		return &AssertionError{
			Type:     AssertChoice,
			Expected: fmt.Sprintf("invocation for %s", target),
			Actual:   "target not bound",
			Result:   res,
		}
	}
	for _, c := range inv.Choices {
		if c.Param != a.Param {
			continue
		}
		if c.Index != a.Index {
			return &AssertionError{
				Type:     AssertChoice,
				Expected: fmt.Sprintf("%s.%s uses implementation %d", target, a.Param, a.Index),
				Actual:   fmt.Sprintf("implementation %d (%s)", c.Index, c.Implementation),
				Result:   res,
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertChoice,
		Expected: fmt.Sprintf("choice for parameter %s", a.Param),
		Actual:   "parameter not bound",
		Result:   res,
	}
}

func assertDropped(res *engine.Result, a Assertion, actx *AssertionContext) error {
	target := actx.expand(a.Target)
	for _, d := range res.Dropped {
		if d.Target != target {
			continue
		}
		if a.Code != "" && string(d.Code) != a.Code {
			continue
		}
		if a.Question != "" && d.Question != a.Question {
			continue
		}
		return nil
	}
	expected := "dropped " + target
	if a.Code != "" {
		expected += " with " + a.Code
	}
	if a.Question != "" {
		expected += " for " + a.Question
	}
	return &AssertionError{
		Type:     AssertDropped,
		Expected: expected,
		Actual:   fmt.Sprintf("%d dropped targets, none matching", len(res.Dropped)),
		Result:   res,
	}
}

// EvaluateAssertions runs all assertions against res.
// Returns error messages for failed assertions; empty if all pass.
func EvaluateAssertions(res *engine.Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertOutcome:
			err = assertOutcome(res, a)
		case AssertTargets:
			err = assertTargets(res, a, actx)
		case AssertInvocationCount:
			err = assertInvocationCount(res, a)
		case AssertValue:
			err = assertValue(res, a, actx)
		case AssertChoice:
			err = assertChoice(res, a, actx)
		case AssertDropped:
			err = assertDropped(res, a, actx)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}
