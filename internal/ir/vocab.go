package ir

// Well-known namespaces.
const (
	NamespaceRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NamespaceRDFS = "http://www.w3.org/2000/01/rdf-schema#"
	NamespaceXSD  = "http://www.w3.org/2001/XMLSchema#"
	NamespaceSH   = "http://www.w3.org/ns/shacl#"
)

// Well-known IRIs used by subtype-closure membership tests.
const (
	RDFType        = NamespaceRDF + "type"
	RDFSSubClassOf = NamespaceRDFS + "subClassOf"
)

// XSD datatypes recognised when converting literals to values.
const (
	XSDString  = NamespaceXSD + "string"
	XSDBoolean = NamespaceXSD + "boolean"
	XSDInteger = NamespaceXSD + "integer"
	XSDInt     = NamespaceXSD + "int"
	XSDLong    = NamespaceXSD + "long"
	XSDDecimal = NamespaceXSD + "decimal"
	XSDDouble  = NamespaceXSD + "double"
	XSDFloat   = NamespaceXSD + "float"
)

// IsNumericDatatype reports whether dt is one of the XSD numeric types.
func IsNumericDatatype(dt string) bool {
	switch dt {
	case XSDInteger, XSDInt, XSDLong, XSDDecimal, XSDDouble, XSDFloat:
		return true
	}
	return false
}
