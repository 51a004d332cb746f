package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/compiler"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/engine"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/store"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/testutil"
)

// Options configures scenario execution.
type Options struct {
	// Logger receives resolver logs. Defaults to a discarding logger.
	Logger *slog.Logger

	// Metrics, if set, is passed to the resolver.
	Metrics *engine.Metrics
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory store with run IDs starting at
// "run-0001".
//
// Execution flow:
//  1. Open an in-memory store and load the graph
//  2. Compile the question catalog and look up the application
//  3. Resolve the application
//  4. Evaluate assertions against the resolution result
//
// A failed assertion fails the result; a setup or resolution failure is
// returned as an error.
func Run(ctx context.Context, s *Scenario, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	st, err := store.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	fixture := s.Fixture
	if s.Graph != "" {
		if fixture, err = store.ReadFixture(s.Graph); err != nil {
			return nil, err
		}
	}
	if _, err := st.Load(ctx, fixture); err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}

	cat, err := compiler.LoadDir(s.Specs)
	if err != nil {
		return nil, fmt.Errorf("failed to compile specs: %w", err)
	}
	comp, ok := cat.Registry.Computation(s.Application)
	if !ok {
		return nil, fmt.Errorf("unknown application %q", s.Application)
	}

	resolverOpts := []engine.Option{
		engine.WithRunIDs(testutil.NewSequentialRunIDs()),
		engine.WithLogger(logger.With("scenario", s.Name)),
	}
	if s.Workers > 0 {
		resolverOpts = append(resolverOpts, engine.WithWorkers(s.Workers))
	}
	if s.MaxTargets > 0 {
		resolverOpts = append(resolverOpts, engine.WithMaxTargets(s.MaxTargets))
	}
	if s.NoQualify {
		resolverOpts = append(resolverOpts, engine.WithoutQualify())
	}
	if opts.Metrics != nil {
		resolverOpts = append(resolverOpts, engine.WithMetrics(opts.Metrics))
	}

	res, err := engine.New(st, resolverOpts...).Resolve(ctx, comp)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", s.Application, err)
	}

	result := NewResult(res)
	actx := &AssertionContext{Prefixes: cat.Prefixes.With(fixture.Prefixes)}
	for _, msg := range EvaluateAssertions(res, s.Assertions, actx) {
		result.AddError(msg)
	}
	logger.Debug("scenario finished", "scenario", s.Name, "pass", result.Pass, "errors", len(result.Errors))
	return result, nil
}

// Snapshot returns the canonical form of res used for golden comparison.
// Invocation IDs are omitted: they hash the choices, which the snapshot
// already shows.
func Snapshot(name string, res *engine.Result) ir.IRObject {
	invocations := make(ir.IRArray, 0, len(res.Invocations))
	for _, inv := range res.Invocations {
		values := make(ir.IRObject, len(inv.Values))
		for k, v := range inv.Values {
			values[k] = v.Canonical()
		}
		choices := make(ir.IRArray, 0, len(inv.Choices))
		for _, c := range inv.Choices {
			choices = append(choices, ir.IRObject{
				"param":          ir.IRString(c.Param),
				"question":       ir.IRString(c.Question),
				"index":          ir.IRInt(c.Index),
				"implementation": ir.IRString(c.Implementation),
			})
		}
		invocations = append(invocations, ir.IRObject{
			"target":  ir.IRString(inv.Target),
			"values":  values,
			"choices": choices,
		})
	}

	dropped := make(ir.IRArray, 0, len(res.Dropped))
	for _, d := range res.Dropped {
		dropped = append(dropped, ir.IRObject{
			"code":     ir.IRString(string(d.Code)),
			"target":   ir.IRString(d.Target),
			"question": ir.IRString(d.Question),
		})
	}

	return ir.IRObject{
		"scenario":    ir.IRString(name),
		"run_id":      ir.IRString(res.RunID),
		"computation": ir.IRString(res.Computation),
		"outcome":     ir.IRString(string(res.Outcome)),
		"invocations": invocations,
		"dropped":     dropped,
	}
}
