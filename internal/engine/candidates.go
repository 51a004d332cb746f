package engine

import (
	"maps"
	"slices"
)

// CandidateSet is the set of targets an implementation applies to. The
// wildcard set applies to every target and is never materialized.
type CandidateSet struct {
	wildcard bool
	members  map[string]struct{}
}

// Wildcard returns the set containing every target.
func Wildcard() CandidateSet {
	return CandidateSet{wildcard: true}
}

// NewCandidateSet returns the set of the given targets.
func NewCandidateSet(targets ...string) CandidateSet {
	s := CandidateSet{members: make(map[string]struct{}, len(targets))}
	for _, t := range targets {
		s.members[t] = struct{}{}
	}
	return s
}

// IsWildcard reports whether s contains every target.
func (s CandidateSet) IsWildcard() bool { return s.wildcard }

// Contains reports whether target is in s.
func (s CandidateSet) Contains(target string) bool {
	if s.wildcard {
		return true
	}
	_, ok := s.members[target]
	return ok
}

// Len returns the number of members. The wildcard set reports -1.
func (s CandidateSet) Len() int {
	if s.wildcard {
		return -1
	}
	return len(s.members)
}

// Intersect returns the targets in both s and o.
func (s CandidateSet) Intersect(o CandidateSet) CandidateSet {
	switch {
	case s.wildcard:
		return o
	case o.wildcard:
		return s
	}
	out := NewCandidateSet()
	for t := range s.members {
		if _, ok := o.members[t]; ok {
			out.members[t] = struct{}{}
		}
	}
	return out
}

// Union returns the targets in s or o.
func (s CandidateSet) Union(o CandidateSet) CandidateSet {
	if s.wildcard || o.wildcard {
		return Wildcard()
	}
	out := NewCandidateSet()
	maps.Copy(out.members, s.members)
	maps.Copy(out.members, o.members)
	return out
}

// Targets returns the members in sorted order, or nil for the wildcard.
func (s CandidateSet) Targets() []string {
	if s.wildcard {
		return nil
	}
	return slices.Sorted(maps.Keys(s.members))
}
