package harness

import "github.com/dimavrok/SeeQ-Programming-Model/internal/engine"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Resolution is the resolver's result for the scenario's application.
	Resolution *engine.Result `json:"resolution"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result for res.
func NewResult(res *engine.Result) *Result {
	return &Result{Pass: true, Resolution: res, Errors: []string{}}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
