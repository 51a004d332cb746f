package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind discriminates resolved values.
type ValueKind uint8

const (
	// KindEntity is a graph entity identified by IRI.
	KindEntity ValueKind = iota
	// KindNumber is a numeric value.
	KindNumber
	// KindBool is a boolean value.
	KindBool
	// KindString is any other literal.
	KindString
)

// String returns the lower-case name of the kind.
func (k ValueKind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// Value is a concrete value produced by resolving a question for a target.
// Values are immutable and comparable.
type Value struct {
	Kind   ValueKind
	Entity string
	Num    float64
	Flag   bool
	Str    string
}

// Entity returns an entity value.
func Entity(iri string) Value { return Value{Kind: KindEntity, Entity: iri} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Flag: b} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// ValueOf converts a graph term into a value. IRIs become entities;
// numeric and boolean literals are parsed; everything else is a string.
// A numeric literal whose lexical form does not parse falls back to a
// string value.
func ValueOf(t Term) Value {
	switch t.Kind {
	case TermIRI:
		return Entity(t.Value)
	case TermLiteral:
		if IsNumericDatatype(t.Datatype) {
			if n, err := strconv.ParseFloat(t.Value, 64); err == nil {
				return Number(n)
			}
		}
		if t.Datatype == XSDBoolean {
			if b, err := strconv.ParseBool(t.Value); err == nil {
				return Bool(b)
			}
		}
		return String(t.Value)
	default:
		return String(t.String())
	}
}

// AsNumber returns the numeric value or an error naming the actual kind.
func (v Value) AsNumber() (float64, error) {
	if v.Kind != KindNumber {
		return 0, fmt.Errorf("expected number, got %s %s", v.Kind, v)
	}
	return v.Num, nil
}

// AsBool returns the boolean value or an error naming the actual kind.
func (v Value) AsBool() (bool, error) {
	if v.Kind != KindBool {
		return false, fmt.Errorf("expected bool, got %s %s", v.Kind, v)
	}
	return v.Flag, nil
}

// String renders the value for display.
func (v Value) String() string {
	switch v.Kind {
	case KindEntity:
		return v.Entity
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Flag)
	default:
		return v.Str
	}
}

// Canonical returns the canonical encoding of v. Numbers are encoded by
// their shortest decimal string because canonical JSON forbids floats.
func (v Value) Canonical() IRObject {
	return IRObject{
		"kind":  IRString(v.Kind.String()),
		"value": IRString(v.String()),
	}
}

// MarshalJSON encodes entities and strings as JSON strings, numbers as
// JSON numbers and booleans as JSON booleans.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Flag)
	default:
		return json.Marshal(v.String())
	}
}
