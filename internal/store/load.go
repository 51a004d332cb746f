package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
)

// Fixture is a graph written in YAML:
//
//	prefixes:
//	  brick: https://brickschema.org/schema/Brick#
//	  ex: urn:ex#
//	triples:
//	  - [ex:ahu1, rdf:type, brick:AHU]
//	  - [ex:s1, brick:hasValue, 21.5]
//	  - [ex:s1, rdfs:label, {literal: "Supply temp"}]
//
// Subjects and predicates are IRIs or CURIEs. A string object is an IRI;
// YAML integers, floats and booleans become xsd:integer, xsd:double and
// xsd:boolean literals; a {literal, datatype} map is an explicit literal.
type Fixture struct {
	Prefixes map[string]string `yaml:"prefixes"`
	Triples  [][]yaml.Node     `yaml:"triples"`
}

type literalNode struct {
	Literal  string `yaml:"literal"`
	Datatype string `yaml:"datatype"`
}

// ParseFixture decodes a YAML graph. Unknown top-level fields are errors.
func ParseFixture(data []byte) (*Fixture, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse graph fixture: %w", err)
	}
	return &f, nil
}

// Statements expands the fixture into graph statements. The default
// prefixes (rdf, rdfs, xsd, sh) are always available.
func (f *Fixture) Statements() ([]ir.Triple, error) {
	prefixes := ir.DefaultPrefixes().With(f.Prefixes)
	out := make([]ir.Triple, 0, len(f.Triples))
	for i, row := range f.Triples {
		if len(row) != 3 {
			return nil, fmt.Errorf("triples[%d]: expected [subject, predicate, object], got %d elements", i, len(row))
		}
		subj, err := iriNode(prefixes, &row[0])
		if err != nil {
			return nil, fmt.Errorf("triples[%d] subject: %w", i, err)
		}
		pred, err := iriNode(prefixes, &row[1])
		if err != nil {
			return nil, fmt.Errorf("triples[%d] predicate: %w", i, err)
		}
		obj, err := objectNode(prefixes, &row[2])
		if err != nil {
			return nil, fmt.Errorf("triples[%d] object: %w", i, err)
		}
		out = append(out, ir.Triple{Subject: subj, Predicate: pred, Object: obj})
	}
	return out, nil
}

func iriNode(prefixes ir.Prefixes, n *yaml.Node) (ir.Term, error) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		return ir.Term{}, fmt.Errorf("line %d: expected an IRI string", n.Line)
	}
	iri, err := prefixes.Expand(n.Value)
	if err != nil {
		return ir.Term{}, fmt.Errorf("line %d: %w", n.Line, err)
	}
	return ir.IRI(iri), nil
}

func objectNode(prefixes ir.Prefixes, n *yaml.Node) (ir.Term, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!str":
			return iriNode(prefixes, n)
		case "!!int":
			return ir.Literal(n.Value, ir.XSDInteger), nil
		case "!!float":
			return ir.Literal(n.Value, ir.XSDDouble), nil
		case "!!bool":
			return ir.Literal(n.Value, ir.XSDBoolean), nil
		default:
			return ir.Term{}, fmt.Errorf("line %d: unsupported scalar %s", n.Line, n.ShortTag())
		}
	case yaml.MappingNode:
		var lit literalNode
		if err := n.Decode(&lit); err != nil {
			return ir.Term{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		datatype := ""
		if lit.Datatype != "" {
			dt, err := prefixes.Expand(lit.Datatype)
			if err != nil {
				return ir.Term{}, fmt.Errorf("line %d: %w", n.Line, err)
			}
			datatype = dt
		}
		return ir.Literal(lit.Literal, datatype), nil
	default:
		return ir.Term{}, fmt.Errorf("line %d: object must be a string, number, boolean or {literal, datatype}", n.Line)
	}
}

// Load inserts the fixture's statements. Returns the number inserted.
func (s *Store) Load(ctx context.Context, f *Fixture) (int, error) {
	triples, err := f.Statements()
	if err != nil {
		return 0, err
	}
	return s.AddTriples(ctx, triples...)
}

// ReadFixture reads and parses a YAML graph file.
func ReadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph %s: %w", path, err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// LoadFile reads a YAML graph from path and inserts it.
func (s *Store) LoadFile(ctx context.Context, path string) (int, error) {
	f, err := ReadFixture(path)
	if err != nil {
		return 0, err
	}
	n, err := s.Load(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}
