package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/compiler"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/testutil"
)

func TestMapFieldToErrorCode(t *testing.T) {
	tests := map[string]string{
		"question":                           ErrCodeCycle,
		"question.Q.implementation[0].graph": ErrCodeQuestion,
		"application.app.params.x":           ErrCodeApplication,
		"prefix.brick":                       ErrCodePrefix,
		"cue":                                ErrCodeLoadFailed,
		"something.else":                     ErrCodeGeneric,
	}
	for field, want := range tests {
		assert.Equal(t, want, MapFieldToErrorCode(field), field)
	}
}

func TestConvertCompileError(t *testing.T) {
	err := convertCompileError(&compiler.CompileError{Field: "question.Q", Message: "bad"})
	assert.Equal(t, ErrCodeQuestion, err.Code)
	assert.Equal(t, "E101: question.Q: bad", err.Error())

	err = convertCompileError(errors.New("boom"))
	assert.Equal(t, ErrCodeLoadFailed, err.Code)
	assert.Equal(t, "E004: boom", err.Error())
}

func TestLoadCatalog(t *testing.T) {
	cat, err := LoadCatalog(testutil.BrickSpecsDir(t))
	require.NoError(t, err)
	assert.Len(t, cat.Labels, 8)

	_, err = LoadCatalog(testutil.BrickGraphFile(t))
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
	assert.Contains(t, loadErr.Message, "not a directory")
}

func TestLookupApplication(t *testing.T) {
	cat := testutil.BrickCatalog(t)

	comp, err := LookupApplication(cat, "vav_supply")
	require.NoError(t, err)
	assert.Equal(t, "vav_supply", comp.Name)
	require.Len(t, comp.Params, 1)
	assert.Equal(t, "tsa", comp.Params[0].Name)

	_, err = LookupApplication(cat, "")
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeUnknownApplication, loadErr.Code)

	single := t.TempDir()
	writeFile(t, single, "q.cue", `package specs

question: Q: implementation: [{default: 1}]
application: only: params: x: "Q"
`)
	cat, err = LoadCatalog(single)
	require.NoError(t, err)
	comp, err = LookupApplication(cat, "")
	require.NoError(t, err)
	assert.Equal(t, "only", comp.Name)
}

func TestOpenGraph(t *testing.T) {
	ctx := context.Background()

	st, err := OpenGraph(ctx, testutil.BrickGraphFile(t))
	require.NoError(t, err)
	defer st.Close()
	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	_, err = OpenGraph(ctx, "/nonexistent/graph.yaml")
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}
