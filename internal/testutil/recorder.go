package testutil

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
)

// Call is one recorded computation call.
type Call struct {
	Target string
	Values map[string]ir.Value
}

// Recorder captures the calls a computation receives.
//
// Thread-safety: Recorder is safe for concurrent use via internal mutex.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// Func records each call and succeeds. Its signature matches question.Func.
func (r *Recorder) Func(_ context.Context, target string, values map[string]ir.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Target: target, Values: maps.Clone(values)})
	return nil
}

// Calls returns the recorded calls in arrival order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Targets returns the called targets in arrival order.
func (r *Recorder) Targets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Target
	}
	return out
}
