package question

import (
	"fmt"
	"sync"
)

// Registry holds named questions and computations. Names are the question
// ID by default; RegisterAs adds an authored alias. Safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	questions     map[string]*Question
	questionOrder []string

	computations     map[string]*Computation
	computationOrder []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		questions:    make(map[string]*Question),
		computations: make(map[string]*Computation),
	}
}

// Register adds q under its ID.
func (r *Registry) Register(q *Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	return r.RegisterAs(q.ID, q)
}

// RegisterAs adds q under name. Registering the same question under the
// same name twice is a no-op; a different question is an error.
func (r *Registry) RegisterAs(name string, q *Question) error {
	if name == "" {
		return fmt.Errorf("question name is empty")
	}
	if err := q.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.questions[name]; ok {
		if existing == q {
			return nil
		}
		return fmt.Errorf("question %q already registered", name)
	}
	r.questions[name] = q
	r.questionOrder = append(r.questionOrder, name)
	return nil
}

// Question looks a question up by name.
func (r *Registry) Question(name string) (*Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[name]
	return q, ok
}

// QuestionNames returns every registered name in registration order.
func (r *Registry) QuestionNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.questionOrder...)
}

// RegisterComputation adds c under its name.
func (r *Registry) RegisterComputation(c *Computation) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.computations[c.Name]; ok {
		return fmt.Errorf("computation %q already registered", c.Name)
	}
	r.computations[c.Name] = c
	r.computationOrder = append(r.computationOrder, c.Name)
	return nil
}

// Computation looks a computation up by name.
func (r *Registry) Computation(name string) (*Computation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.computations[name]
	return c, ok
}

// Computations returns every registered computation in registration order.
func (r *Registry) Computations() []*Computation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Computation, len(r.computationOrder))
	for i, name := range r.computationOrder {
		out[i] = r.computations[name]
	}
	return out
}
