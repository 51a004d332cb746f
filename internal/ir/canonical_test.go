package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeysAndSkipsHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical(IRObject{
		"b": IRInt(2),
		"a": IRString("<x&y>"),
		"c": IRArray{IRBool(true), IRString("z")},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<x&y>","b":2,"c":[true,"z"]}`, string(got))
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates D83D DE00, which sort before U+FB01.
	got, err := MarshalCanonical(IRObject{
		"\uFB01":     IRInt(1),
		"\U0001F600": IRInt(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uFB01\":1}", string(got))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	decomposed, err := MarshalCanonical(IRString("e\u0301"))
	require.NoError(t, err)
	composed, err := MarshalCanonical(IRString("\u00e9"))
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonical_LineSeparatorsStayLiteral(t *testing.T) {
	got, err := MarshalCanonical(IRString("a\u2028b\u2029c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(got))

	got, err = MarshalCanonical(IRString(`x\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"x\\u2028"`, string(got))
}

func TestMarshalCanonical_RejectsNull(t *testing.T) {
	_, err := MarshalCanonical(IRObject{"k": nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null is forbidden")
}

func TestShapeID_StableAndContentAddressed(t *testing.T) {
	a := IRObject{"target_class": Strings([]string{"urn:AHU"})}
	b := IRObject{"target_class": Strings([]string{"urn:AHU"})}
	c := IRObject{"target_class": Strings([]string{"urn:VAV"})}

	idA, err := ShapeID(a)
	require.NoError(t, err)
	idB, err := ShapeID(b)
	require.NoError(t, err)
	idC, err := ShapeID(c)
	require.NoError(t, err)

	assert.Equal(t, idA, idB)
	assert.NotEqual(t, idA, idC)
	assert.Len(t, idA, 64)
	assert.Equal(t, idA[:12], ShortID(idA))
}

func TestInvocationID_DependsOnEveryInput(t *testing.T) {
	choices := IRObject{"tsa": IRInt(0)}
	base, err := InvocationID("run", "fdd", "urn:ahu1", choices)
	require.NoError(t, err)

	other, err := InvocationID("run", "fdd", "urn:ahu2", choices)
	require.NoError(t, err)
	assert.NotEqual(t, base, other)

	other, err = InvocationID("run", "fdd", "urn:ahu1", IRObject{"tsa": IRInt(1)})
	require.NoError(t, err)
	assert.NotEqual(t, base, other)
}
