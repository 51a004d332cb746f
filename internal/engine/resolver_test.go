package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/question"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/shape"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/store"
)

const (
	brick = "https://brickschema.org/schema/Brick#"
	ex    = "urn:ex#"
)

const plantYAML = `
prefixes:
  brick: https://brickschema.org/schema/Brick#
  ex: "urn:ex#"
triples:
  - [brick:Supply_Air_Temperature_Sensor, rdfs:subClassOf, brick:Air_Temperature_Sensor]
  - [ex:ahu1, rdf:type, brick:AHU]
  - [ex:ahu1, brick:hasPoint, ex:sensor1]
  - [ex:sensor1, rdf:type, brick:Supply_Air_Temperature_Sensor]
  - [ex:ahu2, rdf:type, brick:AHU]
  - [ex:ahu2, brick:hasPoint, ex:sensor2]
  - [ex:sensor2, rdf:type, brick:Mixed_Air_Temperature_Sensor]
  - [ex:ahu3, rdf:type, brick:AHU]
`

func setupGraph(t *testing.T, yaml string) *store.Store {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	f, err := store.ParseFixture([]byte(yaml))
	require.NoError(t, err)
	_, err = st.Load(context.Background(), f)
	require.NoError(t, err)
	return st
}

func newTestResolver(t *testing.T, g Graph, opts ...Option) *Resolver {
	t.Helper()
	ids := make([]string, 16)
	for i := range ids {
		ids[i] = fmt.Sprintf("run-%d", i+1)
	}
	base := []Option{
		WithRunIDs(NewFixedGenerator(ids...)),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	}
	return New(g, append(base, opts...)...)
}

func ahuQuestion() *question.Question {
	return question.New("AHU", "", question.MustGraph(shape.NoPoint, shape.P(brick+"AHU")))
}

func supplyTempQuestion() *question.Question {
	return question.New("AHU Tsa", "degC",
		question.MustGraph(0, shape.P(brick+"AHU", brick+"hasPoint", brick+"Supply_Air_Temperature_Sensor")))
}

func mustComputation(t *testing.T, name string, params ...question.Param) *question.Computation {
	t.Helper()
	c, err := question.NewComputation(name, nil, params...)
	require.NoError(t, err)
	return c
}

func TestResolve_SensorLookup(t *testing.T) {
	g := setupGraph(t, plantYAML)
	comp := mustComputation(t, "check_tsa", question.Bind("tsa", supplyTempQuestion()))

	res, err := newTestResolver(t, g).Resolve(context.Background(), comp)
	require.NoError(t, err)

	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "run-1", res.RunID)
	require.Len(t, res.Invocations, 1)
	inv := res.Invocations[0]
	assert.Equal(t, ex+"ahu1", inv.Target)
	assert.Equal(t, ir.Entity(ex+"sensor1"), inv.Values["tsa"])
	assert.Equal(t, []Choice{{Param: "tsa", Question: "AHU_Tsa", Index: 0, Implementation: inv.Choices[0].Implementation}}, inv.Choices)
	assert.Len(t, inv.ID, 64)
	assert.Empty(t, res.Dropped)
}

func TestResolve_BestIsLowestIndex(t *testing.T) {
	g := setupGraph(t, plantYAML)
	air := question.MustGraph(0, shape.P(brick+"AHU", brick+"hasPoint", brick+"Air_Temperature_Sensor"))
	mixed := question.MustGraph(0, shape.P(brick+"AHU", brick+"hasPoint", brick+"Mixed_Air_Temperature_Sensor"))
	q := question.New("AHU temp", "degC", air, mixed, question.Default(20))

	ranker := NewRanker(g, nil)
	ctx := context.Background()

	impl, idx, ok, err := ranker.Best(ctx, q, ex+"ahu1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Same(t, air, impl)

	_, idx, ok, err = ranker.Best(ctx, q, ex+"ahu2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, idx, ok, err = ranker.Best(ctx, q, ex+"ahu3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	_, _, ok, err = ranker.Best(ctx, supplyTempQuestion(), ex+"ahu3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_TargetSetIsWhereEveryQuestionApplies(t *testing.T) {
	g := setupGraph(t, plantYAML)
	collector := &Collector{}
	comp := mustComputation(t, "two_params",
		question.Bind("ahu", ahuQuestion()),
		question.Bind("tsa", supplyTempQuestion()))

	res, err := newTestResolver(t, g, WithDiagnostics(collector)).Resolve(context.Background(), comp)
	require.NoError(t, err)

	assert.Equal(t, []string{ex + "ahu1"}, res.Targets())
	require.Len(t, res.Dropped, 2)
	for i, target := range []string{ex + "ahu2", ex + "ahu3"} {
		d := res.Dropped[i]
		assert.Equal(t, CodeNoApplicableImplementation, d.Code)
		assert.Equal(t, target, d.Target)
		assert.Equal(t, "AHU_Tsa", d.Question)
		assert.True(t, IsNoApplicable(&d))
	}
	assert.Equal(t, res.Dropped, collector.Diagnostics())
}

func TestResolve_OptionalConstraintDoesNotExclude(t *testing.T) {
	g := setupGraph(t, plantYAML)
	s := shape.New([]string{brick + "AHU"},
		shape.Class(brick+"hasPoint", brick+"Supply_Air_Temperature_Sensor").Optional())
	comp := mustComputation(t, "all_ahus", question.Bind("ahu", question.New("AHU any", "", question.FromShape(s))))

	res, err := newTestResolver(t, g).Resolve(context.Background(), comp)
	require.NoError(t, err)
	assert.Equal(t, []string{ex + "ahu1", ex + "ahu2", ex + "ahu3"}, res.Targets())
	for _, inv := range res.Invocations {
		assert.Equal(t, ir.Entity(inv.Target), inv.Values["ahu"])
	}
}

func TestResolve_DefaultAppliesToEveryTarget(t *testing.T) {
	g := setupGraph(t, plantYAML)
	eps := question.New("Epsilon t", "", question.Default(2.33))
	comp := mustComputation(t, "with_default",
		question.Bind("ahu", ahuQuestion()),
		question.Bind("eps", eps))

	res, err := newTestResolver(t, g).Resolve(context.Background(), comp)
	require.NoError(t, err)
	require.Len(t, res.Invocations, 3)
	for _, inv := range res.Invocations {
		assert.Equal(t, ir.Number(2.33), inv.Values["eps"])
		assert.Equal(t, 0, inv.Choices[1].Index)
	}
}

func TestResolve_AllWildcardIsEmpty(t *testing.T) {
	g := setupGraph(t, plantYAML)
	comp := mustComputation(t, "constants", question.Bind("eps", question.New("Epsilon", "", question.Default(1))))

	res, err := newTestResolver(t, g).Resolve(context.Background(), comp)
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, res.Outcome)
	assert.Empty(t, res.Invocations)
}

func TestResolve_Composites(t *testing.T) {
	a := question.New("A", "", question.Default(2))
	b := question.New("B", "", question.Default(3))

	tests := []struct {
		op   question.Operator
		want float64
	}{
		{question.OpAdd, 5},
		{question.OpSubtract, -1},
		{question.OpMultiply, 6},
		{question.OpDivide, 2.0 / 3.0},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			g := setupGraph(t, plantYAML)
			c := question.New("C", "", question.MustCombine(tt.op, question.Ref(a), question.Ref(b)))
			comp := mustComputation(t, "arith",
				question.Bind("ahu", ahuQuestion()),
				question.Bind("c", c))

			res, err := newTestResolver(t, g).Resolve(context.Background(), comp)
			require.NoError(t, err)
			require.Len(t, res.Invocations, 3)
			for _, inv := range res.Invocations {
				assert.InDelta(t, tt.want, inv.Values["c"].Num, 1e-12)
			}
		})
	}
}

func TestResolve_EvaluationFailureDropsTarget(t *testing.T) {
	g := setupGraph(t, plantYAML)
	tsa := supplyTempQuestion()
	bad := question.New("Tsa plus one", "", question.MustCombine(question.OpAdd, question.Ref(tsa), question.Num(1)))
	comp := mustComputation(t, "bad_arith", question.Bind("x", bad))

	res, err := newTestResolver(t, g).Resolve(context.Background(), comp)
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, res.Outcome)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, CodeEvaluationFailed, res.Dropped[0].Code)
	assert.Equal(t, ex+"ahu1", res.Dropped[0].Target)
	assert.Contains(t, res.Dropped[0].Message, "expected number")
}

func TestResolve_DivisionByZeroDropsTarget(t *testing.T) {
	g := setupGraph(t, plantYAML)
	a := question.New("A", "", question.Default(2))
	ratio := question.New("Ratio", "", question.MustCombine(question.OpDivide, question.Ref(a), question.Num(0)))
	comp := mustComputation(t, "div",
		question.Bind("ahu", ahuQuestion()),
		question.Bind("ratio", ratio))

	res, err := newTestResolver(t, g).Resolve(context.Background(), comp)
	require.NoError(t, err)
	assert.Empty(t, res.Invocations)
	require.Len(t, res.Dropped, 3)
	for _, d := range res.Dropped {
		assert.True(t, IsEvaluationFailed(&d))
	}
}

func TestResolve_PointUnbound(t *testing.T) {
	g := setupGraph(t, plantYAML)
	s := shape.New([]string{brick + "AHU"},
		shape.Class(brick+"hasPoint", brick+"Supply_Air_Temperature_Sensor").Optional().AsPoint())
	comp := mustComputation(t, "maybe_tsa", question.Bind("tsa", question.New("Maybe Tsa", "", question.FromShape(s))))

	res, err := newTestResolver(t, g).Resolve(context.Background(), comp)
	require.NoError(t, err)
	assert.Equal(t, []string{ex + "ahu1"}, res.Targets())
	require.Len(t, res.Dropped, 2)
	assert.Equal(t, CodePointUnbound, res.Dropped[0].Code)
	assert.Equal(t, ex+"ahu2", res.Dropped[0].Target)
}

func TestResolve_LiteralPointIsValue(t *testing.T) {
	g := setupGraph(t, `
prefixes:
  brick: https://brickschema.org/schema/Brick#
  ex: "urn:ex#"
triples:
  - [ex:ahu1, rdf:type, brick:AHU]
  - [ex:ahu1, ex:rating, 5]
`)
	rated := shape.New(nil, shape.PropertyConstraint{Path: ex + "unit"})
	s := shape.New([]string{brick + "AHU"}, shape.Nested(ex+"rating", rated).AsPoint())
	comp := mustComputation(t, "rating", question.Bind("r", question.New("Rating", "", question.FromShape(s))))

	res, err := newTestResolver(t, g).Resolve(context.Background(), comp)
	require.NoError(t, err)
	assert.Empty(t, res.Dropped)
	require.Len(t, res.Invocations, 1)
	assert.Equal(t, ir.Number(5), res.Invocations[0].Values["r"])
}

func TestResolve_NoMatchIsRejected(t *testing.T) {
	g := setupGraph(t, `
prefixes: {brick: "https://brickschema.org/schema/Brick#", ex: "urn:ex#"}
triples:
  - [ex:vav1, rdf:type, brick:VAV]
`)
	comp := mustComputation(t, "check_tsa", question.Bind("tsa", supplyTempQuestion()))

	res, err := newTestResolver(t, g).Resolve(context.Background(), comp)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Empty(t, res.Invocations)

	res, err = newTestResolver(t, g, WithoutQualify()).Resolve(context.Background(), comp)
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, res.Outcome)
	assert.Empty(t, res.Invocations)
}

func TestResolve_TargetLimit(t *testing.T) {
	g := setupGraph(t, plantYAML)
	comp := mustComputation(t, "all", question.Bind("ahu", ahuQuestion()))

	_, err := newTestResolver(t, g, WithMaxTargets(2)).Resolve(context.Background(), comp)
	require.Error(t, err)
	assert.True(t, IsTargetLimit(err))

	res, err := newTestResolver(t, g, WithMaxTargets(3)).Resolve(context.Background(), comp)
	require.NoError(t, err)
	assert.Len(t, res.Invocations, 3)
}

func TestResolve_WorkersDoNotChangeResult(t *testing.T) {
	g := setupGraph(t, plantYAML)
	eps := question.New("Epsilon", "", question.Default(2.33))
	comp := mustComputation(t, "mixed",
		question.Bind("ahu", ahuQuestion()),
		question.Bind("tsa", supplyTempQuestion()),
		question.Bind("eps", eps))

	serial, err := newTestResolver(t, g).Resolve(context.Background(), comp)
	require.NoError(t, err)
	parallel, err := newTestResolver(t, g, WithWorkers(4)).Resolve(context.Background(), comp)
	require.NoError(t, err)
	assert.Equal(t, serial, parallel)
}

func TestResolve_CancelledContext(t *testing.T) {
	g := setupGraph(t, plantYAML)
	comp := mustComputation(t, "all", question.Bind("ahu", ahuQuestion()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestResolver(t, g).Resolve(ctx, comp)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_InvalidComputation(t *testing.T) {
	g := setupGraph(t, plantYAML)
	_, err := newTestResolver(t, g).Resolve(context.Background(), &question.Computation{Name: "empty"})
	assert.Error(t, err)
}

func TestResolve_Metrics(t *testing.T) {
	g := setupGraph(t, plantYAML)
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	comp := mustComputation(t, "two_params",
		question.Bind("ahu", ahuQuestion()),
		question.Bind("tsa", supplyTempQuestion()))
	_, err := newTestResolver(t, g, WithMetrics(m)).Resolve(context.Background(), comp)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("two_params", "resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("two_params")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DroppedTargets.WithLabelValues("two_params", string(CodeNoApplicableImplementation))))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.GraphQueries.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

func TestRun_CallsFunctionPerInvocation(t *testing.T) {
	g := setupGraph(t, plantYAML)
	var calls []string
	comp, err := question.NewComputation("record",
		func(_ context.Context, target string, values map[string]ir.Value) error {
			calls = append(calls, target+"="+values["ahu"].String())
			return nil
		},
		question.Bind("ahu", ahuQuestion()))
	require.NoError(t, err)

	_, err = newTestResolver(t, g).Run(context.Background(), comp)
	require.NoError(t, err)
	assert.Equal(t, []string{
		ex + "ahu1=" + ex + "ahu1",
		ex + "ahu2=" + ex + "ahu2",
		ex + "ahu3=" + ex + "ahu3",
	}, calls)
}

func TestRun_FunctionErrorStops(t *testing.T) {
	g := setupGraph(t, plantYAML)
	calls := 0
	comp, err := question.NewComputation("fail",
		func(context.Context, string, map[string]ir.Value) error {
			calls++
			return fmt.Errorf("boom")
		},
		question.Bind("ahu", ahuQuestion()))
	require.NoError(t, err)

	res, err := newTestResolver(t, g).Run(context.Background(), comp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.NotNil(t, res)
	assert.Equal(t, 1, calls)
}
