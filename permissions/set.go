// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package permissions

import "sort"

// Set is a set of permission codes.
type Set map[Code]struct{}

// NewSet returns a set holding codes.
func NewSet(codes ...Code) Set {
	s := make(Set, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether c is in the set.
func (s Set) Has(c Code) bool {
	_, ok := s[c]
	return ok
}

// Add inserts codes into the set.
func (s Set) Add(codes ...Code) {
	for _, c := range codes {
		s[c] = struct{}{}
	}
}

// Union returns a new set containing the codes of s and other.
func (s Set) Union(other Set) Set {
	ret := make(Set, len(s)+len(other))
	for c := range s {
		ret[c] = struct{}{}
	}
	for c := range other {
		ret[c] = struct{}{}
	}
	return ret
}

// Difference returns the codes of s that are not in other.
func (s Set) Difference(other Set) Set {
	ret := Set{}
	for c := range s {
		if !other.Has(c) {
			ret[c] = struct{}{}
		}
	}
	return ret
}

// Slice returns the codes in ascending order.
func (s Set) Slice() []Code {
	codes := make([]Code, 0, len(s))
	for c := range s {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
