package ir

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Prefixes maps CURIE prefixes to namespace IRIs.
type Prefixes map[string]string

// DefaultPrefixes returns the prefixes every document gets for free.
func DefaultPrefixes() Prefixes {
	return Prefixes{
		"rdf":  NamespaceRDF,
		"rdfs": NamespaceRDFS,
		"xsd":  NamespaceXSD,
		"sh":   NamespaceSH,
	}
}

// With returns a copy of p extended with extra. Entries in extra win.
func (p Prefixes) With(extra map[string]string) Prefixes {
	out := make(Prefixes, len(p)+len(extra))
	maps.Copy(out, p)
	maps.Copy(out, extra)
	return out
}

// Expand turns a CURIE ("brick:AHU") into a full IRI. Strings that are
// already absolute IRIs (containing "://", or a "urn:" prefix) and
// strings wrapped in angle brackets are returned as-is. An unknown prefix
// is an error.
func (p Prefixes) Expand(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty identifier")
	}
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		return s[1 : len(s)-1], nil
	}
	if strings.Contains(s, "://") || strings.HasPrefix(s, "urn:") {
		return s, nil
	}
	prefix, local, ok := strings.Cut(s, ":")
	if !ok {
		return "", fmt.Errorf("identifier %q is neither a CURIE nor an absolute IRI", s)
	}
	ns, ok := p[prefix]
	if !ok {
		return "", fmt.Errorf("unknown prefix %q in %q", prefix, s)
	}
	return ns + local, nil
}

// Compact is the inverse of Expand: it returns the shortest CURIE for iri,
// or iri itself when no prefix matches. Ties break on prefix name.
func (p Prefixes) Compact(iri string) string {
	best, bestNS := "", ""
	for _, name := range slices.Sorted(maps.Keys(p)) {
		ns := p[name]
		if ns != "" && strings.HasPrefix(iri, ns) && len(ns) > len(bestNS) {
			best, bestNS = name, ns
		}
	}
	if bestNS == "" {
		return iri
	}
	return best + ":" + strings.TrimPrefix(iri, bestNS)
}

// LocalName returns the fragment or last path segment of an IRI.
func LocalName(iri string) string {
	if i := strings.LastIndexAny(iri, "#/:"); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	return iri
}
