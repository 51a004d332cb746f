package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/testutil"
)

func TestRanker_BrickBuilding(t *testing.T) {
	ctx := context.Background()
	cat := testutil.BrickCatalog(t)
	ranker := NewRanker(testutil.BrickStore(t), nil)

	tsa, ok := cat.Registry.Question("AHU_Tsa")
	require.True(t, ok)
	set, err := ranker.QuestionCandidates(ctx, tsa)
	require.NoError(t, err)
	assert.Equal(t, []string{testutil.Building + "ahu1", testutil.Building + "ahu3"}, set.Targets())

	tma, _ := cat.Registry.Question("AHU_Tma")
	impl, index, ok, err := ranker.Best(ctx, tma, testutil.Building+"ahu3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, index)
	assert.Same(t, tma.Implementations[0], impl)

	second, err := ranker.Candidates(ctx, tma.Implementations[1])
	require.NoError(t, err)
	assert.Equal(t, []string{testutil.Building + "ahu3"}, second.Targets())

	_, _, ok, err = ranker.Best(ctx, tsa, testutil.Building+"ahu2")
	require.NoError(t, err)
	assert.False(t, ok)

	tolerance, _ := cat.Registry.Question("Tolerance")
	set, err = ranker.QuestionCandidates(ctx, tolerance)
	require.NoError(t, err)
	assert.True(t, set.IsWildcard())
}
