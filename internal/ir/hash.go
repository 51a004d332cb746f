package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows future algorithm migration.
const (
	DomainShape      = "seeq/shape/v" + FormatVersion
	DomainInvocation = "seeq/invocation/v" + FormatVersion
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ShapeID computes the content-addressed identity of a shape from its
// canonical encoding. Two shapes with the same constraint content always
// share an ID, regardless of where or when they were built.
func ShapeID(content IRObject) (string, error) {
	canonical, err := MarshalCanonical(content)
	if err != nil {
		return "", fmt.Errorf("ShapeID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainShape, canonical), nil
}

// InvocationID computes the identity of one bound invocation: the same
// computation resolved for the same target with the same choices in the
// same run always gets the same ID.
func InvocationID(runID, computation, target string, choices IRObject) (string, error) {
	obj := IRObject{
		"run_id":      IRString(runID),
		"computation": IRString(computation),
		"target":      IRString(target),
		"choices":     choices,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("InvocationID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainInvocation, canonical), nil
}

// ShortID returns the first 12 hex characters of an identity, for display.
func ShortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
