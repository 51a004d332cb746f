package compiler

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/queryir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/shape"
)

const (
	ahu      = "urn:brick:AHU"
	rtu      = "urn:brick:RTU"
	fan      = "urn:brick:Fan"
	vav      = "urn:brick:VAV"
	sensor   = "urn:brick:Supply_Air_Temperature_Sensor"
	hasPoint = "urn:brick:hasPoint"
	hasPart  = "urn:brick:hasPart"
	feeds    = "urn:brick:feeds"
	status   = "urn:ex:status"
)

func v(name string) ir.Term { return ir.Var(name) }

func triple(s ir.Term, p string, o ir.Term) *queryir.Triple {
	return &queryir.Triple{Subject: s, Predicate: ir.IRI(p), Object: o}
}

func typeOf(s ir.Term, class string) *queryir.TypeOf {
	return &queryir.TypeOf{Subject: s, Class: class}
}

func group(ps ...queryir.Pattern) *queryir.Group {
	return &queryir.Group{Patterns: ps}
}

func mustCompile(t *testing.T, s *shape.Shape) *queryir.CompiledQuery {
	t.Helper()
	q, err := Compile(s)
	require.NoError(t, err)
	return q
}

func assertWhere(t *testing.T, want *queryir.Group, got *queryir.CompiledQuery) {
	t.Helper()
	if diff := cmp.Diff(want, got.Where); diff != "" {
		t.Errorf("where mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_PointPattern(t *testing.T) {
	q := mustCompile(t, shape.MustFromPattern(0, shape.P(ahu, hasPoint, sensor)))

	assertWhere(t, group(
		typeOf(v("target"), ahu),
		triple(v("target"), hasPoint, v("point")),
		typeOf(v("point"), sensor),
	), q)
	assert.Equal(t, []string{"target", "point"}, q.Project)
	assert.Equal(t, "target", q.Root)
	assert.Equal(t, "point", q.Point)
	assert.Equal(t, shape.MustID(shape.MustFromPattern(0, shape.P(ahu, hasPoint, sensor))), q.ShapeID)
	assert.Equal(t, "AHU_hasPoint_Supply_Air_Temperature_Sensor", q.Label)
}

func TestCompile_NoPointGeneratesVariable(t *testing.T) {
	q := mustCompile(t, shape.MustFromPattern(shape.NoPoint, shape.P(ahu, hasPoint, sensor)))

	assertWhere(t, group(
		typeOf(v("target"), ahu),
		triple(v("target"), hasPoint, v("v0")),
		typeOf(v("v0"), sensor),
	), q)
	assert.Equal(t, []string{"target", "v0"}, q.Project)
	assert.Empty(t, q.Point)
	assert.Equal(t, "target", q.ValueVar())
}

func TestCompile_SecondPairIsPoint(t *testing.T) {
	q := mustCompile(t, shape.MustFromPattern(1, shape.P(ahu, hasPart, fan, hasPoint, sensor)))

	assertWhere(t, group(
		typeOf(v("target"), ahu),
		triple(v("target"), hasPart, v("v0")),
		typeOf(v("v0"), fan),
		triple(v("target"), hasPoint, v("point")),
		typeOf(v("point"), sensor),
	), q)
	assert.Equal(t, []string{"target", "point", "v0"}, q.Project)
}

func TestCompile_NestedRebasesRoot(t *testing.T) {
	q := mustCompile(t, shape.MustFromPattern(1, shape.P(ahu, hasPart, shape.P(fan, hasPoint, sensor))))

	assertWhere(t, group(
		typeOf(v("target"), ahu),
		triple(v("target"), hasPart, v("v0")),
		typeOf(v("v0"), fan),
		triple(v("v0"), hasPoint, v("point")),
		typeOf(v("point"), sensor),
	), q)
	assert.Equal(t, []string{"target", "point", "v0"}, q.Project)
}

func TestCompile_OptionalConstraint(t *testing.T) {
	s := shape.New([]string{ahu},
		shape.Class(hasPoint, sensor).AsPoint(),
		shape.Class(feeds, vav).Optional(),
	)
	q := mustCompile(t, s)

	assertWhere(t, group(
		typeOf(v("target"), ahu),
		triple(v("target"), hasPoint, v("point")),
		typeOf(v("point"), sensor),
		&queryir.Optional{Pattern: group(
			triple(v("target"), feeds, v("v0")),
			typeOf(v("v0"), vav),
		)},
	), q)
	assert.Equal(t, []string{"target", "point", "v0"}, q.Project)
	assert.Equal(t, []string{"target", "point"}, queryir.RequiredVars(q.Where))
}

func TestCompile_TargetClassesUnion(t *testing.T) {
	q := mustCompile(t, shape.New([]string{ahu, rtu}, shape.Class(hasPoint, sensor).AsPoint()))

	assertWhere(t, group(
		&queryir.Union{Branches: []queryir.Pattern{
			group(typeOf(v("target"), ahu)),
			group(typeOf(v("target"), rtu)),
		}},
		triple(v("target"), hasPoint, v("point")),
		typeOf(v("point"), sensor),
	), q)
}

func TestCompile_SharedPathVariable(t *testing.T) {
	other := "urn:brick:Temperature_Sensor"
	s := shape.New([]string{ahu},
		shape.Class(hasPoint, sensor).Shared(),
		shape.Class(hasPoint, other).Shared(),
	)
	q := mustCompile(t, s)

	assertWhere(t, group(
		typeOf(v("target"), ahu),
		triple(v("target"), hasPoint, v("v0")),
		typeOf(v("v0"), sensor),
		typeOf(v("v0"), other),
	), q)
	assert.Equal(t, []string{"target", "v0"}, q.Project)
}

func TestCompile_SharedPathTakesPointName(t *testing.T) {
	other := "urn:brick:Temperature_Sensor"
	s := shape.New([]string{ahu},
		shape.Class(hasPoint, sensor).Shared(),
		shape.Class(hasPoint, other).Shared().AsPoint(),
	)
	q := mustCompile(t, s)

	assertWhere(t, group(
		typeOf(v("target"), ahu),
		triple(v("target"), hasPoint, v("point")),
		typeOf(v("point"), sensor),
		typeOf(v("point"), other),
	), q)
	assert.Equal(t, "point", q.Point)
}

func TestCompile_AllOptionalSharedGroup(t *testing.T) {
	s := shape.New([]string{ahu}, shape.Class(hasPoint, sensor).Shared().Optional())
	q := mustCompile(t, s)

	assertWhere(t, group(
		typeOf(v("target"), ahu),
		&queryir.Optional{Pattern: group(
			triple(v("target"), hasPoint, v("v0")),
			typeOf(v("v0"), sensor),
		)},
	), q)
}

func TestCompile_LiteralValue(t *testing.T) {
	on := ir.Literal("on", "")
	s := shape.New([]string{ahu},
		shape.HasValue(status, on),
		shape.HasValue(feeds, ir.IRI("urn:ex:vav1")).Optional(),
	)
	q := mustCompile(t, s)

	assertWhere(t, group(
		typeOf(v("target"), ahu),
		triple(v("target"), status, on),
		&queryir.Optional{Pattern: group(triple(v("target"), feeds, ir.IRI("urn:ex:vav1")))},
	), q)
	assert.Equal(t, []string{"target"}, q.Project)
}

func TestCompile_Alternation(t *testing.T) {
	s := shape.Or(
		shape.New([]string{ahu}, shape.Class(hasPoint, sensor).AsPoint()),
		shape.New([]string{rtu}, shape.Class(hasPart, fan), shape.Class(hasPoint, sensor).AsPoint()),
	)
	q := mustCompile(t, s)

	assertWhere(t, group(
		&queryir.Union{Branches: []queryir.Pattern{
			group(
				typeOf(v("target"), ahu),
				triple(v("target"), hasPoint, v("point")),
				typeOf(v("point"), sensor),
			),
			group(
				typeOf(v("target"), rtu),
				triple(v("target"), hasPart, v("v0")),
				typeOf(v("v0"), fan),
				triple(v("target"), hasPoint, v("point")),
				typeOf(v("point"), sensor),
			),
		}},
	), q)
	assert.Equal(t, []string{"target", "point", "v0"}, q.Project, "projections are pooled")
}

func TestCompile_Conjuncts(t *testing.T) {
	s := shape.New([]string{ahu}, shape.Class(hasPoint, sensor).AsPoint())
	s.Conjuncts = []*shape.Shape{shape.New(nil, shape.Class(feeds, vav))}
	q := mustCompile(t, s)

	assertWhere(t, group(
		typeOf(v("target"), ahu),
		triple(v("target"), feeds, v("v0")),
		typeOf(v("v0"), vav),
		triple(v("target"), hasPoint, v("point")),
		typeOf(v("point"), sensor),
	), q)
}

func TestCompile_BareConstraintEmitsNothing(t *testing.T) {
	s := shape.New([]string{ahu}, shape.PropertyConstraint{Path: hasPoint, Required: true})
	q := mustCompile(t, s)

	assertWhere(t, group(typeOf(v("target"), ahu)), q)
	assert.Equal(t, []string{"target"}, q.Project)
}

func TestCompile_AuthoredNames(t *testing.T) {
	s := shape.New([]string{ahu},
		shape.Class(hasPoint, sensor).Named("supply  air"),
		shape.Class(hasPart, fan).Named("v0"),
		shape.Class(feeds, vav),
	)
	q := mustCompile(t, s)

	assertWhere(t, group(
		typeOf(v("target"), ahu),
		triple(v("target"), hasPoint, v("supply_air")),
		typeOf(v("supply_air"), sensor),
		triple(v("target"), hasPart, v("v0")),
		typeOf(v("v0"), fan),
		triple(v("target"), feeds, v("v1")),
		typeOf(v("v1"), vav),
	), q)
	assert.Equal(t, []string{"target", "supply_air", "v0", "v1"}, q.Project)
}

func TestCompile_GeneratedNamesAvoidAuthoredNames(t *testing.T) {
	s := shape.New([]string{ahu},
		shape.Class(hasPoint, sensor),
		shape.Class(feeds, vav).Named("v0"),
	)
	q := mustCompile(t, s)

	assertWhere(t, group(
		typeOf(v("target"), ahu),
		triple(v("target"), hasPoint, v("v1")),
		typeOf(v("v1"), sensor),
		triple(v("target"), feeds, v("v0")),
		typeOf(v("v0"), vav),
	), q)
	assert.Equal(t, []string{"target", "v1", "v0"}, q.Project)
}

func TestCompile_Deterministic(t *testing.T) {
	build := func() *shape.Shape {
		return shape.MustFromPattern(2,
			shape.P(ahu, hasPart, shape.P(fan, hasPoint, sensor), feeds, vav))
	}
	a := mustCompile(t, build())
	b := mustCompile(t, build())

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("compilation is not deterministic (-first +second):\n%s", diff)
	}
	assert.Len(t, b.Project, len(a.Project))
}

func TestCompile_Errors(t *testing.T) {
	cyclic := &shape.Shape{TargetClasses: []string{ahu}}
	cyclic.Properties = []shape.PropertyConstraint{shape.Nested(hasPart, cyclic)}

	tests := []struct {
		name  string
		shape *shape.Shape
		code  string
	}{
		{"missing path", shape.New(nil, shape.PropertyConstraint{Class: sensor}), shape.ErrCodeMissingPath},
		{"empty", &shape.Shape{}, shape.ErrCodeEmptyShape},
		{"cycle", cyclic, shape.ErrCodeNestingCycle},
		{"two points", shape.New(nil,
			shape.Class(hasPoint, sensor).AsPoint(),
			shape.Class(hasPart, fan).AsPoint()), shape.ErrCodeMultiplePoints},
		{"named target", shape.New([]string{ahu}, shape.Class(hasPoint, sensor).Named("target")), shape.ErrCodeReservedName},
		{"named point", shape.New([]string{ahu}, shape.Class(hasPoint, sensor).Named("point")), shape.ErrCodeReservedName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.shape)
			require.Error(t, err)
			assert.True(t, shape.IsCompilationError(err))
			assert.Equal(t, tt.code, shape.ErrorCode(err))
		})
	}
}

func TestCache_HitsByContent(t *testing.T) {
	c := NewCache()

	first, hit, err := c.Compile(shape.MustFromPattern(0, shape.P(ahu, hasPoint, sensor)))
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := c.Compile(shape.MustFromPattern(0, shape.P(ahu, hasPoint, sensor)))
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, second)

	_, hit, err = c.Compile(shape.MustFromPattern(shape.NoPoint, shape.P(ahu, hasPoint, sensor)))
	require.NoError(t, err)
	assert.False(t, hit)

	assert.Equal(t, CacheStats{Hits: 1, Misses: 2, Entries: 2}, c.Stats())
}

func TestCache_KeepsCallerLabel(t *testing.T) {
	c := NewCache()
	a := shape.MustFromPattern(0, shape.P(ahu, hasPoint, sensor))
	b := shape.MustFromPattern(0, shape.P(ahu, hasPoint, sensor))
	b.Label = "Supply_Temp"

	first, _, err := c.Compile(a)
	require.NoError(t, err)
	second, hit, err := c.Compile(b)
	require.NoError(t, err)
	assert.True(t, hit)

	assert.Equal(t, a.Label, first.Label)
	assert.Equal(t, "Supply_Temp", second.Label)
	assert.Same(t, first.Where, second.Where)

	again, _, err := c.Compile(a)
	require.NoError(t, err)
	assert.Same(t, first, again)
}

func TestCache_ErrorsNotCached(t *testing.T) {
	c := NewCache()
	bad := shape.New(nil, shape.PropertyConstraint{Class: sensor})

	_, _, err := c.Compile(bad)
	require.Error(t, err)
	_, _, err = c.Compile(bad)
	require.Error(t, err)
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache()
	s := shape.MustFromPattern(0, shape.P(ahu, hasPoint, sensor))

	const n = 16
	results := make([]*queryir.CompiledQuery, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, _, err := c.Compile(s)
			assert.NoError(t, err)
			results[i] = q
		}()
	}
	wg.Wait()

	for _, q := range results[1:] {
		assert.Same(t, results[0], q)
	}
	assert.Equal(t, 1, c.Stats().Entries)
}
