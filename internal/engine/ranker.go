package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/compiler"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/question"
)

// Ranker computes candidate sets and picks the best implementation of a
// question for a target.
//
// Candidate sets are memoized for the lifetime of the Ranker, which the
// resolver scopes to one run: the graph is read-only during a run, so a
// set never changes once computed. Safe for concurrent use.
type Ranker struct {
	graph   Graph
	cache   *compiler.Cache
	metrics *Metrics

	mu        sync.Mutex
	impls     map[question.Implementation]CandidateSet
	questions map[*question.Question]CandidateSet
	onStack   map[*question.Question]bool
}

// NewRanker returns a ranker over graph. A nil cache gets a private one.
func NewRanker(graph Graph, cache *compiler.Cache) *Ranker {
	if cache == nil {
		cache = compiler.NewCache()
	}
	return &Ranker{
		graph:     graph,
		cache:     cache,
		impls:     make(map[question.Implementation]CandidateSet),
		questions: make(map[*question.Question]CandidateSet),
		onStack:   make(map[*question.Question]bool),
	}
}

// Candidates returns the targets impl applies to.
func (r *Ranker) Candidates(ctx context.Context, impl question.Implementation) (CandidateSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.candidates(ctx, impl)
}

// QuestionCandidates returns the targets any implementation of q applies to.
func (r *Ranker) QuestionCandidates(ctx context.Context, q *question.Question) (CandidateSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.questionCandidates(ctx, q)
}

// Best returns the first implementation of q, in declared order, whose
// candidate set contains target, and its index. ok is false when no
// implementation applies.
func (r *Ranker) Best(ctx context.Context, q *question.Question, target string) (impl question.Implementation, index int, ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, impl := range q.Implementations {
		set, err := r.candidates(ctx, impl)
		if err != nil {
			return nil, 0, false, err
		}
		if set.Contains(target) {
			return impl, i, true, nil
		}
	}
	return nil, 0, false, nil
}

func (r *Ranker) candidates(ctx context.Context, impl question.Implementation) (CandidateSet, error) {
	if set, ok := r.impls[impl]; ok {
		return set, nil
	}

	var set CandidateSet
	switch n := impl.(type) {
	case *question.DefaultImplementation, *question.WrappedImplementation:
		set = Wildcard()

	case *question.GraphImplementation:
		q, hit, err := r.cache.Compile(n.Shape)
		if err != nil {
			return CandidateSet{}, fmt.Errorf("compile %s: %w", n, err)
		}
		r.metrics.observeCompile(hit)
		rows, err := r.graph.Select(ctx, q, nil)
		r.metrics.observeQuery(err)
		if err != nil {
			return CandidateSet{}, fmt.Errorf("candidates of %s: %w", n, err)
		}
		set = NewCandidateSet()
		for _, row := range rows {
			if t, ok := row[q.Root]; ok && t.IsIRI() {
				set.members[t.Value] = struct{}{}
			}
		}

	case *question.CompositeImplementation:
		set = Wildcard()
		for _, o := range n.Operands {
			var opSet CandidateSet
			var err error
			switch {
			case o.Question != nil:
				opSet, err = r.questionCandidates(ctx, o.Question)
			case o.Impl != nil:
				opSet, err = r.candidates(ctx, o.Impl)
			default:
				opSet = Wildcard()
			}
			if err != nil {
				return CandidateSet{}, err
			}
			set = set.Intersect(opSet)
		}

	default:
		return CandidateSet{}, fmt.Errorf("unsupported implementation %T", impl)
	}

	r.impls[impl] = set
	return set, nil
}

func (r *Ranker) questionCandidates(ctx context.Context, q *question.Question) (CandidateSet, error) {
	if set, ok := r.questions[q]; ok {
		return set, nil
	}
	if r.onStack[q] {
		return CandidateSet{}, fmt.Errorf("question %s depends on itself", q.ID)
	}
	r.onStack[q] = true
	defer delete(r.onStack, q)

	set := NewCandidateSet()
	for _, impl := range q.Implementations {
		s, err := r.candidates(ctx, impl)
		if err != nil {
			return CandidateSet{}, fmt.Errorf("question %s: %w", q.ID, err)
		}
		set = set.Union(s)
	}
	r.questions[q] = set
	return set, nil
}
