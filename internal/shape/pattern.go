package shape

import (
	"fmt"
	"strings"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
)

// NoPoint selects no pair: the extracted value is the target itself.
const NoPoint = -1

// Pattern is the compact authoring notation
//
//	[targetClass, path1, class1, path2, class2, ...]
//
// Elements are strings (IRIs or CURIEs), or, in class positions, a nested
// Pattern. An empty target class means "any entity". []any is accepted in
// place of Pattern so decoded CUE or YAML can be passed straight through.
type Pattern []any

// P builds a Pattern.
func P(elems ...any) Pattern { return Pattern(elems) }

// PatternOptions configures FromPatternWith.
type PatternOptions struct {
	// Prefixes expands CURIEs. Nil means identifiers are used verbatim.
	Prefixes ir.Prefixes
}

// FromPattern builds a shape from one or more patterns. The first element
// of every pattern is a target class (OR-combined across patterns); every
// (path, class) pair becomes a required, qualified constraint on the root.
// A nested pattern in a class position constrains that value with a
// nested shape whose own pairs hang off the nested value.
//
// Pairs are numbered depth-first across all patterns in order; the pair
// whose number equals point is marked as the point. NoPoint, or a point
// of 0 for patterns without pairs, makes the target itself the value.
func FromPattern(point int, patterns ...Pattern) (*Shape, error) {
	return FromPatternWith(PatternOptions{}, point, patterns...)
}

// MustFromPattern is like FromPattern but panics on error.
func MustFromPattern(point int, patterns ...Pattern) *Shape {
	s, err := FromPattern(point, patterns...)
	if err != nil {
		panic(err)
	}
	return s
}

// FromPatternWith is FromPattern with CURIE expansion.
func FromPatternWith(opts PatternOptions, point int, patterns ...Pattern) (*Shape, error) {
	b := &patternBuilder{opts: opts, point: point}
	if len(patterns) == 0 {
		return nil, b.fail(ErrCodeArity, "", "no pattern given")
	}

	root := &Shape{}
	for i, p := range patterns {
		if err := b.fill(root, p, fmt.Sprintf("pattern[%d]", i)); err != nil {
			return nil, err
		}
	}
	root.Label = strings.Join(b.fragments, "_")

	switch {
	case point == NoPoint:
	case b.pairs == 0 && point == 0:
	case point < 0 || point >= b.pairs:
		return nil, b.fail(ErrCodePointOutOfRange, "",
			"point %d out of range: pattern has %d pairs", point, b.pairs)
	}
	return root, nil
}

type patternBuilder struct {
	opts      PatternOptions
	point     int
	pairs     int
	fragments []string
}

func (b *patternBuilder) fail(code, field, format string, args ...any) error {
	return &CompilationError{
		Code:    code,
		Shape:   strings.Join(b.fragments, "_"),
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func (b *patternBuilder) expand(s, field string) (string, error) {
	if b.opts.Prefixes == nil {
		return s, nil
	}
	iri, err := b.opts.Prefixes.Expand(s)
	if err != nil {
		return "", b.fail(ErrCodeBadPatternElement, field, "%v", err)
	}
	return iri, nil
}

func (b *patternBuilder) fill(s *Shape, p Pattern, field string) error {
	if len(p) == 0 || len(p)%2 == 0 {
		return b.fail(ErrCodeArity, field,
			"pattern must be [targetClass, path, class, ...]; got %d elements", len(p))
	}

	tc, ok := p[0].(string)
	if !ok {
		return b.fail(ErrCodeBadPatternElement, field+"[0]", "target class must be a string, got %T", p[0])
	}
	if tc != "" {
		iri, err := b.expand(tc, field+"[0]")
		if err != nil {
			return err
		}
		s.TargetClasses = append(s.TargetClasses, iri)
		b.fragments = append(b.fragments, ir.LocalName(tc))
	}

	for i := 1; i < len(p); i += 2 {
		pf := fmt.Sprintf("%s[%d]", field, i)
		path, ok := p[i].(string)
		if !ok || path == "" {
			return b.fail(ErrCodeBadPatternElement, pf, "path must be a non-empty string, got %v", p[i])
		}
		pathIRI, err := b.expand(path, pf)
		if err != nil {
			return err
		}
		b.fragments = append(b.fragments, ir.LocalName(path))

		c := PropertyConstraint{
			Path:      pathIRI,
			Required:  true,
			Qualified: true,
			Point:     b.pairs == b.point,
		}
		b.pairs++

		cf := fmt.Sprintf("%s[%d]", field, i+1)
		switch v := p[i+1].(type) {
		case string:
			if v == "" {
				return b.fail(ErrCodeBadPatternElement, cf, "class must be a non-empty string")
			}
			iri, err := b.expand(v, cf)
			if err != nil {
				return err
			}
			c.Class = iri
			b.fragments = append(b.fragments, ir.LocalName(v))
		case Pattern:
			if err := b.nested(&c, v, cf); err != nil {
				return err
			}
		case []any:
			if err := b.nested(&c, Pattern(v), cf); err != nil {
				return err
			}
		default:
			return b.fail(ErrCodeBadPatternElement, cf, "class must be a string or nested pattern, got %T", v)
		}
		s.Properties = append(s.Properties, c)
	}
	return nil
}

func (b *patternBuilder) nested(c *PropertyConstraint, p Pattern, field string) error {
	node := &Shape{}
	if err := b.fill(node, p, field); err != nil {
		return err
	}
	c.Node = node
	return nil
}
