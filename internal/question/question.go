package question

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Question is a named, unit-typed piece of information with ordered
// alternative implementations. Position in Implementations is priority.
type Question struct {
	ID              string
	Description     string
	Unit            string
	Implementations []Implementation
}

// New returns a question whose ID is derived from description.
func New(description, unit string, impls ...Implementation) *Question {
	return &Question{
		ID:              NormalizeID(description),
		Description:     description,
		Unit:            unit,
		Implementations: impls,
	}
}

// NormalizeID derives a question identifier from a human-readable
// description: NFC normalized, trimmed, with every run of whitespace
// collapsed to a single '_'.
func NormalizeID(description string) string {
	return strings.Join(strings.Fields(norm.NFC.String(description)), "_")
}

// Validate checks that q can take part in resolution.
func (q *Question) Validate() error {
	if q == nil {
		return fmt.Errorf("question is nil")
	}
	if q.ID == "" {
		return fmt.Errorf("question has no identifier")
	}
	if len(q.Implementations) == 0 {
		return fmt.Errorf("question %s has no implementations", q.ID)
	}
	for i, impl := range q.Implementations {
		if impl == nil {
			return fmt.Errorf("question %s: implementation %d is nil", q.ID, i)
		}
	}
	return nil
}

// String returns the question ID.
func (q *Question) String() string {
	return q.ID
}
