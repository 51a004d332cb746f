package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/compiler"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/queryir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/question"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/shape"
)

// Graph is the knowledge graph the resolver reads. *store.Store
// implements it.
type Graph interface {
	// Select evaluates a compiled query with some variables pre-bound and
	// returns its rows in a deterministic order.
	Select(ctx context.Context, q *queryir.CompiledQuery, initial queryir.Binding) ([]queryir.Binding, error)

	// Qualify reports whether some entity conforms to the shape.
	Qualify(ctx context.Context, s *shape.Shape) (bool, error)
}

// Resolver binds computations to targets in a graph.
//
// A Resolver holds no per-run state and may be shared; every Resolve call
// gets its own ranker and memo tables.
type Resolver struct {
	graph       Graph
	cache       *compiler.Cache
	workers     int
	maxTargets  int
	qualify     bool
	diagnostics Diagnostics
	logger      *slog.Logger
	metrics     *Metrics
	runIDs      RunIDGenerator
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithWorkers resolves up to n targets concurrently. Default 1.
// The result does not depend on n.
func WithWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithMaxTargets fails a run whose target count exceeds n. Zero means
// unlimited, the default.
func WithMaxTargets(n int) Option {
	return func(r *Resolver) {
		r.maxTargets = n
	}
}

// WithDiagnostics delivers dropped-target diagnostics to d as well as to
// the Result.
func WithDiagnostics(d Diagnostics) Option {
	return func(r *Resolver) {
		r.diagnostics = d
	}
}

// WithLogger sets the logger. Default slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records run metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithRunIDs sets the run ID generator. Default UUIDv7Generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(r *Resolver) {
		if g != nil {
			r.runIDs = g
		}
	}
}

// WithoutQualify skips the fast-reject conformance check.
func WithoutQualify() Option {
	return func(r *Resolver) {
		r.qualify = false
	}
}

// WithCache shares a compiled-query cache across resolvers.
func WithCache(c *compiler.Cache) Option {
	return func(r *Resolver) {
		if c != nil {
			r.cache = c
		}
	}
}

// New creates a Resolver over graph.
func New(graph Graph, opts ...Option) *Resolver {
	r := &Resolver{
		graph:   graph,
		cache:   compiler.NewCache(),
		workers: 1,
		qualify: true,
		logger:  slog.Default(),
		runIDs:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve binds comp to every target the graph supports.
//
// Returns an error only for invalid computations, collaborator failures
// outside per-target work, cancellation, and an exceeded target limit.
// An empty or rejected result is not an error.
func (r *Resolver) Resolve(ctx context.Context, comp *question.Computation) (*Result, error) {
	if err := comp.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	runID := r.runIDs.Generate()
	logger := r.logger.With("run_id", runID, "computation", comp.Name)
	logger.Info("resolution started", "params", len(comp.Params))

	res, err := r.resolve(ctx, comp, runID, logger)
	if err != nil {
		logger.Error("resolution failed", "error", err)
		return nil, err
	}

	for _, d := range res.Dropped {
		logger.Warn("target dropped", "code", d.Code, "target", d.Target, "question", d.Question, "reason", d.Message)
		r.metrics.observeDropped(d)
		if r.diagnostics != nil {
			r.diagnostics.Report(d)
		}
	}
	r.metrics.observeRun(comp.Name, res.Outcome, len(res.Invocations), time.Since(start))
	logger.Info("resolution finished",
		"outcome", res.Outcome,
		"invocations", len(res.Invocations),
		"dropped", len(res.Dropped),
		"elapsed", time.Since(start))
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, comp *question.Computation, runID string, logger *slog.Logger) (*Result, error) {
	res := &Result{RunID: runID, Computation: comp.Name, Outcome: OutcomeEmpty}
	qs := comp.Questions()

	if r.qualify {
		ok, err := r.anyQualifies(ctx, qs)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Debug("no graph implementation qualifies")
			res.Outcome = OutcomeRejected
			return res, nil
		}
	}

	ranker := NewRanker(r.graph, r.cache)
	ranker.metrics = r.metrics

	all := NewCandidateSet()
	for _, q := range qs {
		for _, impl := range q.Implementations {
			set, err := ranker.Candidates(ctx, impl)
			if err != nil {
				return nil, err
			}
			logger.Debug("candidates", "question", q.ID, "implementation", impl.String(), "count", set.Len())
			if !set.IsWildcard() {
				all = all.Union(set)
			}
		}
	}
	targets := all.Targets()
	if len(targets) == 0 {
		return res, nil
	}
	if r.maxTargets > 0 && len(targets) > r.maxTargets {
		return nil, newTargetLimit(comp.Name, len(targets), r.maxTargets)
	}

	type outcome struct {
		inv  *BoundInvocation
		diag *Diagnostic
	}
	outcomes := make([]outcome, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, target := range targets {
		g.Go(func() error {
			inv, diag, err := r.bind(gctx, ranker, comp, runID, target)
			if err != nil {
				return err
			}
			outcomes[i] = outcome{inv: inv, diag: diag}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, o := range outcomes {
		switch {
		case o.inv != nil:
			res.Invocations = append(res.Invocations, *o.inv)
		case o.diag != nil:
			res.Dropped = append(res.Dropped, *o.diag)
		}
	}
	if len(res.Invocations) > 0 {
		res.Outcome = OutcomeResolved
	}
	return res, nil
}

// anyQualifies reports whether some graph implementation reachable from qs
// conforms. Computations with no graph implementation at all pass: their
// targets are decided by candidate sets alone.
func (r *Resolver) anyQualifies(ctx context.Context, qs []*question.Question) (bool, error) {
	graphs := question.GraphImplementations(qs...)
	if len(graphs) == 0 {
		return true, nil
	}
	for _, g := range graphs {
		ok, err := r.graph.Qualify(ctx, g.Shape)
		if err != nil {
			return false, fmt.Errorf("qualify %s: %w", g, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// bind resolves every parameter of comp for one target. A non-nil
// diagnostic means the target is dropped; a non-nil error aborts the run.
func (r *Resolver) bind(ctx context.Context, ranker *Ranker, comp *question.Computation, runID, target string) (*BoundInvocation, *Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	ev := &evaluator{
		resolver:    r,
		ranker:      ranker,
		computation: comp.Name,
		target:      target,
		values:      make(map[question.Implementation]ir.Value),
	}

	inv := &BoundInvocation{
		RunID:       runID,
		Computation: comp.Name,
		Target:      target,
		Values:      make(map[string]ir.Value, len(comp.Params)),
	}

	// Choices first: a target lacking any question is dropped before any
	// value is materialized.
	impls := make([]question.Implementation, len(comp.Params))
	for i, p := range comp.Params {
		impl, idx, ok, err := ranker.Best(ctx, p.Question, target)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			d := newNoApplicable(comp.Name, target, p.Question.ID)
			return nil, &d, nil
		}
		impls[i] = impl
		inv.Choices = append(inv.Choices, Choice{
			Param:          p.Name,
			Question:       p.Question.ID,
			Index:          idx,
			Implementation: impl.String(),
		})
	}

	for i, p := range comp.Params {
		v, diag, err := ev.value(ctx, p.Question.ID, impls[i])
		if err != nil {
			return nil, nil, err
		}
		if diag != nil {
			return nil, diag, nil
		}
		inv.Values[p.Name] = v
	}

	id, err := ir.InvocationID(runID, comp.Name, target, choicesCanonical(inv.Choices))
	if err != nil {
		return nil, nil, err
	}
	inv.ID = id
	r.logger.Debug("target bound", "run_id", runID, "computation", comp.Name, "target", target)
	return inv, nil, nil
}

// evaluator materializes implementation values for one target, each
// implementation at most once.
type evaluator struct {
	resolver    *Resolver
	ranker      *Ranker
	computation string
	target      string
	values      map[question.Implementation]ir.Value
	onStack     []question.Implementation
}

func (e *evaluator) drop(code DiagnosticCode, q string, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Code:        code,
		Computation: e.computation,
		Target:      e.target,
		Question:    q,
		Message:     fmt.Sprintf(format, args...),
	}
}

func (e *evaluator) value(ctx context.Context, q string, impl question.Implementation) (ir.Value, *Diagnostic, error) {
	if v, ok := e.values[impl]; ok {
		return v, nil, nil
	}
	for _, open := range e.onStack {
		if open == impl {
			return ir.Value{}, e.drop(CodeEvaluationFailed, q, "%s depends on itself", impl), nil
		}
	}

	var v ir.Value
	switch n := impl.(type) {
	case *question.DefaultImplementation:
		v = n.Value
	case *question.WrappedImplementation:
		v = n.Value
	case *question.GraphImplementation:
		var diag *Diagnostic
		var err error
		v, diag, err = e.graphValue(ctx, q, n)
		if err != nil || diag != nil {
			return ir.Value{}, diag, err
		}
	case *question.CompositeImplementation:
		e.onStack = append(e.onStack, impl)
		var diag *Diagnostic
		var err error
		v, diag, err = e.composite(ctx, q, n)
		e.onStack = e.onStack[:len(e.onStack)-1]
		if err != nil || diag != nil {
			return ir.Value{}, diag, err
		}
	default:
		return ir.Value{}, nil, fmt.Errorf("unsupported implementation %T", impl)
	}
	e.values[impl] = v
	return v, nil, nil
}

func (e *evaluator) graphValue(ctx context.Context, q string, g *question.GraphImplementation) (ir.Value, *Diagnostic, error) {
	cq, hit, err := e.resolver.cache.Compile(g.Shape)
	if err != nil {
		return ir.Value{}, nil, fmt.Errorf("compile %s: %w", g, err)
	}
	e.resolver.metrics.observeCompile(hit)

	rows, err := e.resolver.graph.Select(ctx, cq, queryir.Binding{cq.Root: ir.IRI(e.target)})
	e.resolver.metrics.observeQuery(err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ir.Value{}, nil, ctxErr
		}
		return ir.Value{}, e.drop(CodeQueryFailed, q, "%s: %v", g, err), nil
	}
	if len(rows) == 0 {
		return ir.Value{}, e.drop(CodePointUnbound, q, "%s has no match for the target", g), nil
	}
	t, ok := rows[0][cq.ValueVar()]
	if !ok {
		return ir.Value{}, e.drop(CodePointUnbound, q, "%s leaves ?%s unbound", g, cq.ValueVar()), nil
	}
	return ir.ValueOf(t), nil, nil
}

func (e *evaluator) composite(ctx context.Context, q string, c *question.CompositeImplementation) (ir.Value, *Diagnostic, error) {
	vals := make([]ir.Value, len(c.Operands))
	for i, o := range c.Operands {
		switch {
		case o.Const != nil:
			vals[i] = *o.Const
		case o.Impl != nil:
			v, diag, err := e.value(ctx, q, o.Impl)
			if err != nil || diag != nil {
				return ir.Value{}, diag, err
			}
			vals[i] = v
		case o.Question != nil:
			impl, _, ok, err := e.ranker.Best(ctx, o.Question, e.target)
			if err != nil {
				return ir.Value{}, nil, err
			}
			if !ok {
				d := newNoApplicable(e.computation, e.target, o.Question.ID)
				return ir.Value{}, &d, nil
			}
			v, diag, err := e.value(ctx, o.Question.ID, impl)
			if err != nil || diag != nil {
				return ir.Value{}, diag, err
			}
			vals[i] = v
		default:
			return ir.Value{}, nil, errors.New("composite operand is empty")
		}
	}
	v, err := c.Eval(vals)
	if err != nil {
		return ir.Value{}, e.drop(CodeEvaluationFailed, q, "%v", err), nil
	}
	return v, nil, nil
}

// Run resolves comp and calls its function once per bound invocation, in
// target order. Resolution results are returned even when a call fails.
func (r *Resolver) Run(ctx context.Context, comp *question.Computation) (*Result, error) {
	res, err := r.Resolve(ctx, comp)
	if err != nil {
		return nil, err
	}
	if comp.Fn == nil {
		return res, nil
	}
	for _, inv := range res.Invocations {
		if err := comp.Fn(ctx, inv.Target, inv.Values); err != nil {
			return res, fmt.Errorf("computation %s on %s: %w", comp.Name, inv.Target, err)
		}
	}
	return res, nil
}
