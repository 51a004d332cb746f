package engine

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// DiagnosticCode categorizes resolution diagnostics.
type DiagnosticCode string

const (
	// CodeNoApplicableImplementation indicates a question has no
	// implementation whose candidate set contains the target.
	CodeNoApplicableImplementation DiagnosticCode = "NO_APPLICABLE_IMPLEMENTATION"

	// CodePointUnbound indicates a graph implementation matched the target
	// but its point variable had no value.
	CodePointUnbound DiagnosticCode = "POINT_UNBOUND"

	// CodeEvaluationFailed indicates a composite could not be evaluated,
	// e.g. a non-numeric operand or division by zero.
	CodeEvaluationFailed DiagnosticCode = "EVALUATION_FAILED"

	// CodeQueryFailed indicates the graph failed while materializing a
	// value for one target.
	CodeQueryFailed DiagnosticCode = "QUERY_FAILED"

	// CodeTargetLimitExceeded indicates the run had more targets than the
	// configured limit. Fatal for the run.
	CodeTargetLimitExceeded DiagnosticCode = "TARGET_LIMIT_EXCEEDED"
)

// Diagnostic describes why a target was dropped, or why a run failed.
//
// Diagnostic implements error so fatal diagnostics can be returned
// directly and matched with errors.As.
type Diagnostic struct {
	// Code identifies the diagnostic category.
	Code DiagnosticCode `json:"code"`

	// Computation names the computation being resolved.
	Computation string `json:"computation"`

	// Target is the affected entity. Empty for run-level diagnostics.
	Target string `json:"target,omitempty"`

	// Question is the question that could not be answered, if any.
	Question string `json:"question,omitempty"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	var sb strings.Builder
	sb.WriteString(string(d.Code))
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	var ctx []string
	if d.Computation != "" {
		ctx = append(ctx, "computation="+d.Computation)
	}
	if d.Target != "" {
		ctx = append(ctx, "target="+d.Target)
	}
	if d.Question != "" {
		ctx = append(ctx, "question="+d.Question)
	}
	if len(ctx) > 0 {
		sb.WriteString(" (" + strings.Join(ctx, ", ") + ")")
	}
	return sb.String()
}

func hasCode(err error, code DiagnosticCode) bool {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d.Code == code
	}
	return false
}

// IsNoApplicable returns true if err is a NO_APPLICABLE_IMPLEMENTATION
// diagnostic. Uses errors.As to handle wrapped errors.
func IsNoApplicable(err error) bool {
	return hasCode(err, CodeNoApplicableImplementation)
}

// IsTargetLimit returns true if err reports an exceeded target limit.
func IsTargetLimit(err error) bool {
	return hasCode(err, CodeTargetLimitExceeded)
}

// IsEvaluationFailed returns true if err reports a failed composite.
func IsEvaluationFailed(err error) bool {
	return hasCode(err, CodeEvaluationFailed)
}

func newNoApplicable(computation, target, question string) Diagnostic {
	return Diagnostic{
		Code:        CodeNoApplicableImplementation,
		Computation: computation,
		Target:      target,
		Question:    question,
		Message:     "no implementation of the question applies to the target",
	}
}

func newTargetLimit(computation string, targets, limit int) *Diagnostic {
	return &Diagnostic{
		Code:        CodeTargetLimitExceeded,
		Computation: computation,
		Message:     fmt.Sprintf("%d targets exceed the limit of %d", targets, limit),
	}
}

// Diagnostics receives the targets a run drops. Implementations must be
// safe for concurrent use when the resolver runs with several workers.
type Diagnostics interface {
	Report(Diagnostic)
}

// DiagnosticsFunc adapts a function to Diagnostics.
type DiagnosticsFunc func(Diagnostic)

// Report calls f(d).
func (f DiagnosticsFunc) Report(d Diagnostic) { f(d) }

// Collector accumulates diagnostics in memory. Safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

// Report records d.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, d)
}

// Diagnostics returns everything reported so far, ordered by computation,
// target and question.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	out := slices.Clone(c.items)
	c.mu.Unlock()
	slices.SortStableFunc(out, compareDiagnostics)
	return out
}

func compareDiagnostics(a, b Diagnostic) int {
	if c := strings.Compare(a.Computation, b.Computation); c != 0 {
		return c
	}
	if c := strings.Compare(a.Target, b.Target); c != 0 {
		return c
	}
	return strings.Compare(a.Question, b.Question)
}
