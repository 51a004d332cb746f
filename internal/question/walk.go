package question

// Dependencies returns the questions impl refers to directly, in operand
// order. Only composites have dependencies.
func Dependencies(impl Implementation) []*Question {
	var out []*Question
	var visit func(Implementation)
	visit = func(impl Implementation) {
		c, ok := impl.(*CompositeImplementation)
		if !ok {
			return
		}
		for _, o := range c.Operands {
			switch {
			case o.Question != nil:
				out = append(out, o.Question)
			case o.Impl != nil:
				visit(o.Impl)
			}
		}
	}
	visit(impl)
	return out
}

// Closure returns qs plus every question reachable through composite
// operands, each once, in discovery order. Cyclic references are
// tolerated: each question is visited once.
func Closure(qs ...*Question) []*Question {
	seen := make(map[*Question]bool)
	var out []*Question
	var visit func(*Question)
	visit = func(q *Question) {
		if q == nil || seen[q] {
			return
		}
		seen[q] = true
		out = append(out, q)
		for _, impl := range q.Implementations {
			for _, dep := range Dependencies(impl) {
				visit(dep)
			}
		}
	}
	for _, q := range qs {
		visit(q)
	}
	return out
}

// GraphImplementations returns every graph implementation reachable from
// qs, directly or through composites, each once.
func GraphImplementations(qs ...*Question) []*GraphImplementation {
	seen := make(map[*GraphImplementation]bool)
	var out []*GraphImplementation
	var visit func(Implementation)
	visit = func(impl Implementation) {
		switch n := impl.(type) {
		case *GraphImplementation:
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		case *CompositeImplementation:
			for _, o := range n.Operands {
				if o.Impl != nil {
					visit(o.Impl)
				}
			}
		}
	}
	for _, q := range Closure(qs...) {
		for _, impl := range q.Implementations {
			visit(impl)
		}
	}
	return out
}
