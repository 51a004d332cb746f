package engine

import (
	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
)

// Outcome summarizes a resolution run.
type Outcome string

const (
	// OutcomeResolved means at least one target was bound.
	OutcomeResolved Outcome = "resolved"

	// OutcomeEmpty means no target could be bound. Not an error.
	OutcomeEmpty Outcome = "empty"

	// OutcomeRejected means the graph failed the fast-reject check: no
	// graph implementation the computation could use qualifies.
	OutcomeRejected Outcome = "rejected"
)

// Choice records which implementation answered a question for a target.
// Together, the choices of an invocation are its resolution binding.
type Choice struct {
	Param          string `json:"param"`
	Question       string `json:"question"`
	Index          int    `json:"index"`
	Implementation string `json:"implementation"`
}

// BoundInvocation is a computation fully bound for one target.
type BoundInvocation struct {
	// ID is content-addressed from run, computation, target and choices.
	ID          string              `json:"id"`
	RunID       string              `json:"run_id"`
	Computation string              `json:"computation"`
	Target      string              `json:"target"`
	Values      map[string]ir.Value `json:"values"`
	Choices     []Choice            `json:"choices"`
}

// Result is the outcome of one resolution run. Invocations are sorted by
// target; Dropped lists every target that was excluded, with the reason.
type Result struct {
	RunID       string            `json:"run_id"`
	Computation string            `json:"computation"`
	Outcome     Outcome           `json:"outcome"`
	Invocations []BoundInvocation `json:"invocations"`
	Dropped     []Diagnostic      `json:"dropped,omitempty"`
}

// Targets returns the bound targets in order.
func (r *Result) Targets() []string {
	out := make([]string, len(r.Invocations))
	for i, inv := range r.Invocations {
		out[i] = inv.Target
	}
	return out
}

func choicesCanonical(choices []Choice) ir.IRObject {
	obj := make(ir.IRObject, len(choices))
	for _, c := range choices {
		obj[c.Param] = ir.IRObject{
			"question":       ir.IRString(c.Question),
			"index":          ir.IRInt(c.Index),
			"implementation": ir.IRString(c.Implementation),
		}
	}
	return obj
}
