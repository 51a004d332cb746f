package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/ir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/question"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/shape"
)

// Catalog is the result of compiling authored questions and applications.
type Catalog struct {
	// Prefixes are the default prefixes plus every authored "prefix" entry.
	Prefixes ir.Prefixes

	// Registry holds every question, under its label and its ID, and every
	// application as a computation.
	Registry *question.Registry

	// Labels lists the question labels, referenced questions first.
	Labels []string
}

// LoadDir compiles every .cue file in dir as one CUE instance.
func LoadDir(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("specs directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}
	v := cuecontext.New().BuildInstance(inst)
	return CompileValue(v)
}

// LoadSource compiles CUE source text. filename is used in error positions.
func LoadSource(filename string, src []byte) (*Catalog, error) {
	v := cuecontext.New().CompileBytes(src, cue.Filename(filename))
	return CompileValue(v)
}

// CompileValue compiles questions and applications from a CUE value:
//
//	prefix: brick: "https://brickschema.org/schema/Brick#"
//
//	question: AHU_Tsa: {
//		description: "AHU Tsa"
//		unit:        "degC"
//		implementation: [
//			{graph: {point: 0, pattern: ["brick:AHU", "brick:hasPoint", "brick:Supply_Air_Temperature_Sensor"]}},
//		]
//	}
//
//	application: check_tsa: params: tsa: "AHU_Tsa"
//
// Implementations are tried in list order. Each is one of graph, shape,
// default, wrapped or combine. Combine operands are a question label, a
// number or boolean constant, or an inline implementation.
func CompileValue(v cue.Value) (*Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	prefixes, err := parsePrefixes(v.LookupPath(cue.ParsePath("prefix")))
	if err != nil {
		return nil, err
	}

	sources, err := collectQuestions(v.LookupPath(cue.ParsePath("question")))
	if err != nil {
		return nil, err
	}

	graph := make(dependencyGraph, len(sources))
	for label, src := range sources {
		refs, err := questionRefs(src, "question."+label)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			if _, ok := sources[ref.label]; !ok {
				return nil, &CompileError{
					Field:   "question." + label,
					Message: fmt.Sprintf("unknown question %q", ref.label),
					Pos:     ref.pos,
				}
			}
		}
		graph[label] = labelsOf(refs)
	}
	order, err := orderByDependencies(graph)
	if err != nil {
		return nil, &CompileError{Field: "question", Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("question")).Pos()}
	}

	c := &catalogCompiler{prefixes: prefixes, questions: make(map[string]*question.Question, len(order))}
	reg := question.NewRegistry()
	for _, label := range order {
		q, err := c.question(label, sources[label])
		if err != nil {
			return nil, err
		}
		c.questions[label] = q
		if err := reg.RegisterAs(label, q); err != nil {
			return nil, &CompileError{Field: "question." + label, Message: err.Error(), Pos: sources[label].Pos()}
		}
		if q.ID != label {
			if err := reg.RegisterAs(q.ID, q); err != nil {
				return nil, &CompileError{Field: "question." + label, Message: err.Error(), Pos: sources[label].Pos()}
			}
		}
	}

	if err := c.applications(reg, v.LookupPath(cue.ParsePath("application"))); err != nil {
		return nil, err
	}
	return &Catalog{Prefixes: prefixes, Registry: reg, Labels: order}, nil
}

func parsePrefixes(v cue.Value) (ir.Prefixes, error) {
	prefixes := ir.DefaultPrefixes()
	if !v.Exists() {
		return prefixes, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	extra := make(map[string]string)
	for iter.Next() {
		ns, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: "prefix." + iter.Label(), Message: "namespace must be a string", Pos: iter.Value().Pos()}
		}
		extra[iter.Label()] = ns
	}
	return prefixes.With(extra), nil
}

func collectQuestions(v cue.Value) (map[string]cue.Value, error) {
	out := make(map[string]cue.Value)
	if !v.Exists() {
		return out, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		out[iter.Label()] = iter.Value()
	}
	return out, nil
}

type questionRef struct {
	label string
	pos   token.Pos
}

func labelsOf(refs []questionRef) []string {
	var out []string
	for _, r := range refs {
		if !slices.Contains(out, r.label) {
			out = append(out, r.label)
		}
	}
	return out
}

// questionRefs returns the question labels referenced by combine operands
// anywhere in a question's implementations.
func questionRefs(q cue.Value, field string) ([]questionRef, error) {
	implsVal := q.LookupPath(cue.ParsePath("implementation"))
	if !implsVal.Exists() {
		return nil, nil
	}
	impls, err := listValues(implsVal, field+".implementation")
	if err != nil {
		return nil, err
	}
	var out []questionRef
	var visitImpl func(cue.Value) error
	var visitOperand func(cue.Value) error
	visitImpl = func(impl cue.Value) error {
		comb := impl.LookupPath(cue.ParsePath("combine"))
		if !comb.Exists() {
			return nil
		}
		for _, side := range []string{"left", "right"} {
			o := comb.LookupPath(cue.ParsePath(side))
			if o.Exists() {
				if err := visitOperand(o); err != nil {
					return err
				}
			}
		}
		return nil
	}
	visitOperand = func(o cue.Value) error {
		if s, err := o.String(); err == nil {
			out = append(out, questionRef{label: s, pos: o.Pos()})
			return nil
		}
		if ref := o.LookupPath(cue.ParsePath("question")); ref.Exists() {
			s, err := ref.String()
			if err != nil {
				return &CompileError{Field: field, Message: "question reference must be a string", Pos: ref.Pos()}
			}
			out = append(out, questionRef{label: s, pos: ref.Pos()})
			return nil
		}
		return visitImpl(o)
	}
	for _, impl := range impls {
		if err := visitImpl(impl); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type catalogCompiler struct {
	prefixes  ir.Prefixes
	questions map[string]*question.Question
}

func (c *catalogCompiler) question(label string, v cue.Value) (*question.Question, error) {
	field := "question." + label

	description := label
	if d := v.LookupPath(cue.ParsePath("description")); d.Exists() {
		s, err := d.String()
		if err != nil {
			return nil, &CompileError{Field: field + ".description", Message: "description must be a string", Pos: d.Pos()}
		}
		description = s
	}
	var unit string
	if u := v.LookupPath(cue.ParsePath("unit")); u.Exists() {
		s, err := u.String()
		if err != nil {
			return nil, &CompileError{Field: field + ".unit", Message: "unit must be a string", Pos: u.Pos()}
		}
		unit = s
	}

	implsVal := v.LookupPath(cue.ParsePath("implementation"))
	if !implsVal.Exists() {
		return nil, &CompileError{Field: field + ".implementation", Message: "at least one implementation is required", Pos: v.Pos()}
	}
	items, err := listValues(implsVal, field+".implementation")
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &CompileError{Field: field + ".implementation", Message: "at least one implementation is required", Pos: implsVal.Pos()}
	}

	q := question.New(description, unit)
	for i, item := range items {
		impl, err := c.implementation(item, fmt.Sprintf("%s.implementation[%d]", field, i))
		if err != nil {
			return nil, err
		}
		q.Implementations = append(q.Implementations, impl)
	}
	return q, nil
}

var implementationKinds = []string{"graph", "shape", "default", "wrapped", "combine"}

func (c *catalogCompiler) implementation(v cue.Value, field string) (question.Implementation, error) {
	var kind string
	for _, k := range implementationKinds {
		if v.LookupPath(cue.ParsePath(k)).Exists() {
			if kind != "" {
				return nil, &CompileError{Field: field, Message: fmt.Sprintf("implementation sets both %s and %s", kind, k), Pos: v.Pos()}
			}
			kind = k
		}
	}
	if kind == "" {
		return nil, &CompileError{Field: field, Message: "implementation must be one of graph, shape, default, wrapped, combine", Pos: v.Pos()}
	}
	body := v.LookupPath(cue.ParsePath(kind))
	field = field + "." + kind

	switch kind {
	case "graph":
		return c.graph(body, field)
	case "shape":
		s, err := c.shape(body, field)
		if err != nil {
			return nil, err
		}
		return question.FromShape(s), nil
	case "default":
		val, err := parseValue(body, field)
		if err != nil {
			return nil, err
		}
		return question.DefaultValue(val), nil
	case "wrapped":
		val, err := parseValue(body, field)
		if err != nil {
			return nil, err
		}
		return question.Wrap(val), nil
	default:
		return c.combine(body, field)
	}
}

func (c *catalogCompiler) graph(v cue.Value, field string) (question.Implementation, error) {
	point := shape.NoPoint
	if p := v.LookupPath(cue.ParsePath("point")); p.Exists() {
		n, err := p.Int64()
		if err != nil {
			return nil, &CompileError{Field: field + ".point", Message: "point must be an integer", Pos: p.Pos()}
		}
		point = int(n)
	}

	var patterns []shape.Pattern
	single := v.LookupPath(cue.ParsePath("pattern"))
	multi := v.LookupPath(cue.ParsePath("patterns"))
	switch {
	case single.Exists() && multi.Exists():
		return nil, &CompileError{Field: field, Message: "set pattern or patterns, not both", Pos: v.Pos()}
	case single.Exists():
		var p []any
		if err := single.Decode(&p); err != nil {
			return nil, &CompileError{Field: field + ".pattern", Message: err.Error(), Pos: single.Pos()}
		}
		patterns = append(patterns, p)
	case multi.Exists():
		var ps [][]any
		if err := multi.Decode(&ps); err != nil {
			return nil, &CompileError{Field: field + ".patterns", Message: err.Error(), Pos: multi.Pos()}
		}
		for _, p := range ps {
			patterns = append(patterns, p)
		}
	default:
		return nil, &CompileError{Field: field, Message: "graph implementation needs pattern or patterns", Pos: v.Pos()}
	}

	s, err := shape.FromPatternWith(shape.PatternOptions{Prefixes: c.prefixes}, point, patterns...)
	if err != nil {
		return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return &question.GraphImplementation{Shape: s, Point: point}, nil
}

// shape parses the structured shape form:
//
//	{label?, targetClass: string | [...string], property: [...], or: [...], node: [...]}
//
// Each property is {path, class? | node? | hasValue?, optional?,
// qualified?, point?, name?}. Properties are required and share their
// path variable unless marked otherwise.
func (c *catalogCompiler) shape(v cue.Value, field string) (*shape.Shape, error) {
	s := &shape.Shape{}
	if l := v.LookupPath(cue.ParsePath("label")); l.Exists() {
		s.Label, _ = l.String()
	}

	if tc := v.LookupPath(cue.ParsePath("targetClass")); tc.Exists() {
		classes, err := c.iris(tc, field+".targetClass")
		if err != nil {
			return nil, err
		}
		s.TargetClasses = classes
	}

	if pv := v.LookupPath(cue.ParsePath("property")); pv.Exists() {
		items, err := listValues(pv, field+".property")
		if err != nil {
			return nil, err
		}
		for i, item := range items {
			p, err := c.property(item, fmt.Sprintf("%s.property[%d]", field, i))
			if err != nil {
				return nil, err
			}
			s.Properties = append(s.Properties, p)
		}
	}

	for _, key := range []string{"or", "node"} {
		lv := v.LookupPath(cue.ParsePath(key))
		if !lv.Exists() {
			continue
		}
		items, err := listValues(lv, field+"."+key)
		if err != nil {
			return nil, err
		}
		for i, item := range items {
			sub, err := c.shape(item, fmt.Sprintf("%s.%s[%d]", field, key, i))
			if err != nil {
				return nil, err
			}
			if key == "or" {
				s.Alternatives = append(s.Alternatives, sub)
			} else {
				s.Conjuncts = append(s.Conjuncts, sub)
			}
		}
	}

	if err := shape.Validate(s); err != nil {
		return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return s, nil
}

func (c *catalogCompiler) property(v cue.Value, field string) (shape.PropertyConstraint, error) {
	p := shape.PropertyConstraint{Required: true}

	pathVal := v.LookupPath(cue.ParsePath("path"))
	if !pathVal.Exists() {
		return p, &CompileError{Field: field + ".path", Message: "path is required", Pos: v.Pos()}
	}
	path, err := c.iri(pathVal, field+".path")
	if err != nil {
		return p, err
	}
	p.Path = path

	if cv := v.LookupPath(cue.ParsePath("class")); cv.Exists() {
		if p.Class, err = c.iri(cv, field+".class"); err != nil {
			return p, err
		}
	}
	if nv := v.LookupPath(cue.ParsePath("node")); nv.Exists() {
		if p.Node, err = c.shape(nv, field+".node"); err != nil {
			return p, err
		}
		p.Qualified = true
	}
	if hv := v.LookupPath(cue.ParsePath("hasValue")); hv.Exists() {
		t, err := c.term(hv, field+".hasValue")
		if err != nil {
			return p, err
		}
		p.Value = &t
	}

	flags := []struct {
		key string
		set func(bool)
	}{
		{"optional", func(b bool) { p.Required = !b }},
		{"qualified", func(b bool) { p.Qualified = b }},
		{"point", func(b bool) { p.Point = b }},
	}
	for _, f := range flags {
		fv := v.LookupPath(cue.ParsePath(f.key))
		if !fv.Exists() {
			continue
		}
		b, err := fv.Bool()
		if err != nil {
			return p, &CompileError{Field: field + "." + f.key, Message: f.key + " must be a boolean", Pos: fv.Pos()}
		}
		f.set(b)
	}
	if nv := v.LookupPath(cue.ParsePath("name")); nv.Exists() {
		if p.Name, err = nv.String(); err != nil {
			return p, &CompileError{Field: field + ".name", Message: "name must be a string", Pos: nv.Pos()}
		}
	}
	return p, nil
}

func (c *catalogCompiler) combine(v cue.Value, field string) (question.Implementation, error) {
	opVal := v.LookupPath(cue.ParsePath("op"))
	opName, err := opVal.String()
	if err != nil {
		return nil, &CompileError{Field: field + ".op", Message: "op is required and must be a string", Pos: v.Pos()}
	}
	op, err := question.ParseOperator(opName)
	if err != nil {
		return nil, &CompileError{Field: field + ".op", Message: err.Error(), Pos: opVal.Pos()}
	}

	sides := []string{"left", "right"}[:op.Arity()]
	operands := make([]question.Operand, 0, len(sides))
	for _, side := range sides {
		ov := v.LookupPath(cue.ParsePath(side))
		if !ov.Exists() {
			return nil, &CompileError{Field: field + "." + side, Message: fmt.Sprintf("%s needs a %s operand", op, side), Pos: v.Pos()}
		}
		o, err := c.operand(ov, field+"."+side)
		if err != nil {
			return nil, err
		}
		operands = append(operands, o)
	}
	if op.Arity() == 1 && v.LookupPath(cue.ParsePath("right")).Exists() {
		return nil, &CompileError{Field: field + ".right", Message: fmt.Sprintf("%s takes one operand", op), Pos: v.Pos()}
	}

	var impl question.Implementation
	if op.Arity() == 1 {
		impl, err = question.Abs(operands[0])
	} else {
		impl, err = question.Combine(op, operands[0], operands[1])
	}
	if err != nil {
		return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return impl, nil
}

func (c *catalogCompiler) operand(v cue.Value, field string) (question.Operand, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		label, _ := v.String()
		return c.ref(label, field, v)
	case cue.IntKind, cue.FloatKind, cue.NumberKind, cue.BoolKind:
		val, err := parseValue(v, field)
		if err != nil {
			return question.Operand{}, err
		}
		return question.Const(val), nil
	}
	if ref := v.LookupPath(cue.ParsePath("question")); ref.Exists() {
		label, err := ref.String()
		if err != nil {
			return question.Operand{}, &CompileError{Field: field + ".question", Message: "question reference must be a string", Pos: ref.Pos()}
		}
		return c.ref(label, field, ref)
	}
	if cv := v.LookupPath(cue.ParsePath("value")); cv.Exists() {
		val, err := parseValue(cv, field+".value")
		if err != nil {
			return question.Operand{}, err
		}
		return question.Const(val), nil
	}
	impl, err := c.implementation(v, field)
	if err != nil {
		return question.Operand{}, err
	}
	return question.Use(impl), nil
}

func (c *catalogCompiler) ref(label, field string, v cue.Value) (question.Operand, error) {
	q, ok := c.questions[label]
	if !ok {
		return question.Operand{}, &CompileError{Field: field, Message: fmt.Sprintf("unknown question %q", label), Pos: v.Pos()}
	}
	return question.Ref(q), nil
}

func (c *catalogCompiler) applications(reg *question.Registry, v cue.Value) error {
	if !v.Exists() {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		field := "application." + name
		paramsVal := iter.Value().LookupPath(cue.ParsePath("params"))
		if !paramsVal.Exists() {
			return &CompileError{Field: field + ".params", Message: "params are required", Pos: iter.Value().Pos()}
		}
		pIter, err := paramsVal.Fields()
		if err != nil {
			return formatCUEError(err)
		}
		var params []question.Param
		for pIter.Next() {
			label, err := pIter.Value().String()
			if err != nil {
				return &CompileError{Field: field + ".params." + pIter.Label(), Message: "parameter must name a question", Pos: pIter.Value().Pos()}
			}
			q, ok := reg.Question(label)
			if !ok {
				return &CompileError{Field: field + ".params." + pIter.Label(), Message: fmt.Sprintf("unknown question %q", label), Pos: pIter.Value().Pos()}
			}
			params = append(params, question.Bind(pIter.Label(), q))
		}
		comp, err := question.NewComputation(name, nil, params...)
		if err != nil {
			return &CompileError{Field: field, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		if err := reg.RegisterComputation(comp); err != nil {
			return &CompileError{Field: field, Message: err.Error(), Pos: iter.Value().Pos()}
		}
	}
	return nil
}

func (c *catalogCompiler) iri(v cue.Value, field string) (string, error) {
	s, err := v.String()
	if err != nil {
		return "", &CompileError{Field: field, Message: "expected an IRI or CURIE string", Pos: v.Pos()}
	}
	iri, err := c.prefixes.Expand(s)
	if err != nil {
		return "", &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return iri, nil
}

func (c *catalogCompiler) iris(v cue.Value, field string) ([]string, error) {
	if v.IncompleteKind() == cue.StringKind {
		iri, err := c.iri(v, field)
		if err != nil {
			return nil, err
		}
		return []string{iri}, nil
	}
	items, err := listValues(v, field)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		iri, err := c.iri(item, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out = append(out, iri)
	}
	return out, nil
}

// term parses a hasValue: a string is an IRI, a number or boolean is a
// typed literal, and {literal, datatype?} is an explicit literal.
func (c *catalogCompiler) term(v cue.Value, field string) (ir.Term, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		iri, err := c.iri(v, field)
		return ir.IRI(iri), err
	case cue.IntKind:
		n, _ := v.Int64()
		return ir.Literal(fmt.Sprint(n), ir.XSDInteger), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return ir.Term{}, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.Literal(ir.Number(f).String(), ir.XSDDouble), nil
	case cue.BoolKind:
		b, _ := v.Bool()
		return ir.Literal(fmt.Sprint(b), ir.XSDBoolean), nil
	}
	lit := v.LookupPath(cue.ParsePath("literal"))
	lex, err := lit.String()
	if err != nil {
		return ir.Term{}, &CompileError{Field: field, Message: "hasValue must be an IRI, number, boolean or {literal, datatype}", Pos: v.Pos()}
	}
	var datatype string
	if dt := v.LookupPath(cue.ParsePath("datatype")); dt.Exists() {
		if datatype, err = c.iri(dt, field+".datatype"); err != nil {
			return ir.Term{}, err
		}
	}
	return ir.Literal(lex, datatype), nil
}

// parseValue converts a concrete CUE scalar into a value.
func parseValue(v cue.Value, field string) (ir.Value, error) {
	switch v.IncompleteKind() {
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return ir.Value{}, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.Number(f), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return ir.Value{}, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.Bool(b), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return ir.Value{}, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.String(s), nil
	default:
		return ir.Value{}, &CompileError{Field: field, Message: "value must be a number, boolean or string", Pos: v.Pos()}
	}
}

func listValues(v cue.Value, field string) ([]cue.Value, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "expected a list", Pos: v.Pos()}
	}
	var out []cue.Value
	for iter.Next() {
		out = append(out, iter.Value())
	}
	return out, nil
}
