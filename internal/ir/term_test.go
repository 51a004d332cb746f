package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermString(t *testing.T) {
	assert.Equal(t, "<urn:a>", IRI("urn:a").String())
	assert.Equal(t, `"21.5"^^<`+XSDDouble+`>`, Literal("21.5", XSDDouble).String())
	assert.Equal(t, `"x"`, Literal("x", "").String())
	assert.Equal(t, "?point", Var("point").String())
}

func TestSanitizeVar(t *testing.T) {
	assert.Equal(t, "supply_air_temp", SanitizeVar("?supply  air\ttemp"))
	assert.Equal(t, "point", SanitizeVar("point"))
}

func TestPrefixesExpand(t *testing.T) {
	p := DefaultPrefixes().With(map[string]string{"brick": "https://brickschema.org/schema/Brick#"})

	got, err := p.Expand("brick:AHU")
	require.NoError(t, err)
	assert.Equal(t, "https://brickschema.org/schema/Brick#AHU", got)

	got, err = p.Expand("rdf:type")
	require.NoError(t, err)
	assert.Equal(t, RDFType, got)

	got, err = p.Expand("<urn:x>")
	require.NoError(t, err)
	assert.Equal(t, "urn:x", got)

	got, err = p.Expand("urn:ex:ahu1")
	require.NoError(t, err)
	assert.Equal(t, "urn:ex:ahu1", got)

	_, err = p.Expand("nope:AHU")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown prefix")

	_, err = p.Expand("AHU")
	require.Error(t, err)
}

func TestPrefixesCompact(t *testing.T) {
	p := DefaultPrefixes().With(map[string]string{"brick": "https://brickschema.org/schema/Brick#"})
	assert.Equal(t, "brick:AHU", p.Compact("https://brickschema.org/schema/Brick#AHU"))
	assert.Equal(t, "rdfs:subClassOf", p.Compact(RDFSSubClassOf))
	assert.Equal(t, "urn:other", p.Compact("urn:other"))
}

func TestLocalName(t *testing.T) {
	assert.Equal(t, "AHU", LocalName("https://brickschema.org/schema/Brick#AHU"))
	assert.Equal(t, "ahu1", LocalName("urn:ex:ahu1"))
	assert.Equal(t, "b", LocalName("http://x/a/b"))
}

func TestValueOf(t *testing.T) {
	assert.Equal(t, Entity("urn:s1"), ValueOf(IRI("urn:s1")))
	assert.Equal(t, Number(21.5), ValueOf(Literal("21.5", XSDDouble)))
	assert.Equal(t, Number(3), ValueOf(Literal("3", XSDInteger)))
	assert.Equal(t, Bool(true), ValueOf(Literal("true", XSDBoolean)))
	assert.Equal(t, String("abc"), ValueOf(Literal("abc", "")))
	assert.Equal(t, String("x1"), ValueOf(Literal("x1", XSDDouble)))
}

func TestValueAccessors(t *testing.T) {
	n, err := Number(2.5).AsNumber()
	require.NoError(t, err)
	assert.Equal(t, 2.5, n)

	_, err = Entity("urn:s1").AsNumber()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected number, got entity")

	b, err := Bool(true).AsBool()
	require.NoError(t, err)
	assert.True(t, b)

	assert.Equal(t, "5", Number(5).String())
	assert.Equal(t, "-1.25", Number(-1.25).String())
}

func TestValueMarshalJSON(t *testing.T) {
	got, err := Number(5).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "5", string(got))

	got, err = Entity("urn:s1").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"urn:s1"`, string(got))

	got, err = Bool(false).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "false", string(got))
}
