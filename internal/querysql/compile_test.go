package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/queryir"
)

const order = " ORDER BY subject COLLATE BINARY, predicate COLLATE BINARY, object COLLATE BINARY, object_kind, datatype COLLATE BINARY"

func TestCompileTriple_UnboundVariables(t *testing.T) {
	c := NewSQLCompiler()
	sql, params, err := c.CompileTriple(&queryir.Triple{
		Subject:   ir.Var("target"),
		Predicate: ir.IRI("urn:hasPoint"),
		Object:    ir.Var("point"),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "SELECT subject, predicate, object, object_kind, datatype FROM triples WHERE predicate = ?"+order, sql)
	assert.Equal(t, []any{"urn:hasPoint"}, params)
}

func TestCompileTriple_BoundVariables(t *testing.T) {
	c := NewSQLCompiler()
	sql, params, err := c.CompileTriple(&queryir.Triple{
		Subject:   ir.Var("target"),
		Predicate: ir.IRI("urn:hasPoint"),
		Object:    ir.Var("point"),
	}, queryir.Binding{"target": ir.IRI("urn:ahu1"), "point": ir.IRI("urn:s1")})
	require.NoError(t, err)

	assert.Equal(t, "SELECT subject, predicate, object, object_kind, datatype FROM triples"+
		" WHERE subject = ? AND predicate = ? AND object = ? AND object_kind = ?"+order, sql)
	assert.Equal(t, []any{"urn:ahu1", "urn:hasPoint", "urn:s1", KindIRI}, params)
}

func TestCompileTriple_Literals(t *testing.T) {
	c := NewSQLCompiler()

	sql, params, err := c.CompileTriple(&queryir.Triple{
		Subject: ir.Var("s"), Predicate: ir.IRI("urn:status"), Object: ir.Literal("on", ""),
	}, nil)
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE predicate = ? AND object = ? AND object_kind = ? ORDER BY")
	assert.Equal(t, []any{"urn:status", "on", KindLiteral}, params)

	sql, params, err = c.CompileTriple(&queryir.Triple{
		Subject: ir.Var("s"), Predicate: ir.IRI("urn:value"), Object: ir.Literal("2", ir.XSDInteger),
	}, nil)
	require.NoError(t, err)
	assert.Contains(t, sql, "AND datatype = ? ORDER BY")
	assert.Equal(t, []any{"urn:value", "2", KindLiteral, ir.XSDInteger}, params)
}

func TestCompileTriple_NoConditions(t *testing.T) {
	sql, params, err := NewSQLCompiler().CompileTriple(&queryir.Triple{
		Subject: ir.Var("s"), Predicate: ir.Var("p"), Object: ir.Var("o"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT subject, predicate, object, object_kind, datatype FROM triples"+order, sql)
	assert.Empty(t, params)
}

func TestCompileTriple_Errors(t *testing.T) {
	c := NewSQLCompiler()

	_, _, err := c.CompileTriple(nil, nil)
	assert.Error(t, err)

	_, _, err = c.CompileTriple(&queryir.Triple{
		Subject: ir.Var("s"), Predicate: ir.IRI("urn:p"), Object: ir.Var("o"),
	}, queryir.Binding{"s": ir.Literal("x", "")})
	assert.ErrorContains(t, err, "subject must be an IRI")

	_, _, err = c.CompileTriple(&queryir.Triple{
		Subject: ir.Var("s"), Predicate: ir.Literal("p", ""), Object: ir.Var("o"),
	}, nil)
	assert.ErrorContains(t, err, "predicate must be an IRI")
}

func TestCompileTypeOf(t *testing.T) {
	c := NewSQLCompiler()
	const prefix = "WITH RECURSIVE closure(class) AS (SELECT ? UNION " +
		"SELECT s.subject FROM triples s JOIN closure c ON s.object = c.class" +
		" WHERE s.predicate = ? AND s.object_kind = ?) " +
		"SELECT DISTINCT t.subject FROM triples t JOIN closure c ON t.object = c.class" +
		" WHERE t.predicate = ? AND t.object_kind = ?"

	sql, params, err := c.CompileTypeOf(&queryir.TypeOf{Subject: ir.Var("target"), Class: "urn:AHU"}, nil)
	require.NoError(t, err)
	assert.Equal(t, prefix+" ORDER BY t.subject COLLATE BINARY", sql)
	assert.Equal(t, []any{"urn:AHU", ir.RDFSSubClassOf, KindIRI, ir.RDFType, KindIRI}, params)

	sql, params, err = c.CompileTypeOf(&queryir.TypeOf{Subject: ir.Var("target"), Class: "urn:AHU"},
		queryir.Binding{"target": ir.IRI("urn:ahu1")})
	require.NoError(t, err)
	assert.Equal(t, prefix+" AND t.subject = ? ORDER BY t.subject COLLATE BINARY", sql)
	assert.Equal(t, "urn:ahu1", params[len(params)-1])

	_, _, err = c.CompileTypeOf(&queryir.TypeOf{Subject: ir.Var("x")}, nil)
	assert.ErrorContains(t, err, "no class")
}

func TestCompileSubclassesAndSubjects(t *testing.T) {
	c := NewSQLCompiler()

	sql, params, err := c.CompileSubclasses("urn:Sensor")
	require.NoError(t, err)
	assert.Contains(t, sql, "SELECT class FROM closure ORDER BY class COLLATE BINARY")
	assert.Equal(t, []any{"urn:Sensor", ir.RDFSSubClassOf, KindIRI}, params)

	sql, params, err = c.CompileSubjects("urn:hasPoint")
	require.NoError(t, err)
	assert.Equal(t, "SELECT DISTINCT subject FROM triples WHERE predicate = ? ORDER BY subject COLLATE BINARY", sql)
	assert.Equal(t, []any{"urn:hasPoint"}, params)
}
