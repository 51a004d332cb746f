// Package querysparql renders compiled queries as SPARQL text.
//
// The store evaluates the query IR directly; SPARQL output exists so that
// authors can read what a shape means and run it against any SPARQL
// endpoint holding the same model.
package querysparql

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/queryir"
)

const indentUnit = "  "

// Render returns the SELECT query for q. IRIs are compacted with prefixes
// and a PREFIX line is emitted for every prefix the body uses, sorted by
// name. Subtype-closure membership renders as rdf:type/rdfs:subClassOf*.
func Render(q *queryir.CompiledQuery, prefixes ir.Prefixes) (string, error) {
	if q == nil || q.Where == nil {
		return "", fmt.Errorf("cannot render nil query")
	}
	r := &renderer{
		prefixes: ir.DefaultPrefixes().With(prefixes),
		used:     make(map[string]bool),
	}

	var body strings.Builder
	if err := r.group(&body, q.Where, 1); err != nil {
		return "", err
	}

	var out strings.Builder
	for _, name := range slices.Sorted(maps.Keys(r.used)) {
		fmt.Fprintf(&out, "PREFIX %s: <%s>\n", name, r.prefixes[name])
	}
	out.WriteString("SELECT")
	for _, v := range q.Project {
		out.WriteString(" ?" + v)
	}
	out.WriteString(" WHERE {\n")
	out.WriteString(body.String())
	out.WriteString("}\n")
	return out.String(), nil
}

type renderer struct {
	prefixes ir.Prefixes
	used     map[string]bool
}

func (r *renderer) group(sb *strings.Builder, g *queryir.Group, depth int) error {
	for _, p := range g.Patterns {
		if err := r.pattern(sb, p, depth); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) pattern(sb *strings.Builder, p queryir.Pattern, depth int) error {
	indent := strings.Repeat(indentUnit, depth)
	switch n := p.(type) {
	case *queryir.Triple:
		fmt.Fprintf(sb, "%s%s %s %s .\n", indent, r.term(n.Subject), r.term(n.Predicate), r.term(n.Object))
	case *queryir.TypeOf:
		fmt.Fprintf(sb, "%s%s %s/%s* %s .\n", indent,
			r.term(n.Subject), r.iri(ir.RDFType), r.iri(ir.RDFSSubClassOf), r.iri(n.Class))
	case *queryir.Group:
		sb.WriteString(indent + "{\n")
		if err := r.group(sb, n, depth+1); err != nil {
			return err
		}
		sb.WriteString(indent + "}\n")
	case *queryir.Optional:
		sb.WriteString(indent + "OPTIONAL {\n")
		if err := r.block(sb, n.Pattern, depth+1); err != nil {
			return err
		}
		sb.WriteString(indent + "}\n")
	case *queryir.Union:
		if len(n.Branches) == 0 {
			return fmt.Errorf("union has no branches")
		}
		for i, br := range n.Branches {
			if i == 0 {
				sb.WriteString(indent + "{\n")
			} else {
				sb.WriteString(indent + "} UNION {\n")
			}
			if err := r.block(sb, br, depth+1); err != nil {
				return err
			}
		}
		sb.WriteString(indent + "}\n")
	default:
		return fmt.Errorf("unknown pattern type %T", p)
	}
	return nil
}

// block renders p as the contents of an enclosing { }: a group's children
// go inline rather than in a nested group.
func (r *renderer) block(sb *strings.Builder, p queryir.Pattern, depth int) error {
	if g, ok := p.(*queryir.Group); ok {
		return r.group(sb, g, depth)
	}
	return r.pattern(sb, p, depth)
}

func (r *renderer) term(t ir.Term) string {
	switch t.Kind {
	case ir.TermVar:
		return "?" + t.Value
	case ir.TermIRI:
		return r.iri(t.Value)
	case ir.TermLiteral:
		lit := `"` + literalEscaper.Replace(t.Value) + `"`
		if t.Datatype != "" {
			lit += "^^" + r.iri(t.Datatype)
		}
		return lit
	default:
		return t.String()
	}
}

// iri compacts to a prefixed name when the local part is a plain name,
// and falls back to <iri> otherwise.
func (r *renderer) iri(iri string) string {
	c := r.prefixes.Compact(iri)
	name, local, ok := strings.Cut(c, ":")
	if ok && c != iri && plainLocal(local) {
		r.used[name] = true
		return c
	}
	return "<" + iri + ">"
}

func plainLocal(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)
