// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

// package access implements the permission model for the console: immutable
// capability snapshots per session and a pure requirement evaluator that
// decides whether the current actor may see or use an affordance.
package access

import "sort"

// Capability is an opaque permission token, e.g. "catalog.edit_bank".
// Unknown or misspelled tokens are ordinary non-matching strings; they are
// never special-cased or normalized.
type Capability string

// CapabilitySet is an immutable snapshot of the capability tokens granted
// to an actor, plus a readiness flag. Until the set is loaded (ready), every
// requirement evaluates to deny so the UI renders nothing rather than
// flashing unauthorized affordances.
//
// The zero value is a not-ready set.
type CapabilitySet struct {
	ready  bool
	tokens map[Capability]struct{}
}

// NewCapabilitySet builds a ready set from the given tokens. The input is
// copied and deduplicated; later changes to the caller's slice do not affect
// the set.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	tokens := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		tokens[c] = struct{}{}
	}
	return CapabilitySet{ready: true, tokens: tokens}
}

// NotReady returns a set that denies everything until a real load happens.
func NotReady() CapabilitySet { return CapabilitySet{} }

// Ready reports whether the set has been loaded for this session.
func (s CapabilitySet) Ready() bool { return s.ready }

// Has reports whether the set contains the given token. A not-ready set
// contains nothing.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s.tokens[c]
	return ok
}

// Len returns the number of distinct tokens in the set.
func (s CapabilitySet) Len() int { return len(s.tokens) }

// Tokens returns a sorted copy of the tokens in the set.
func (s CapabilitySet) Tokens() []Capability {
	out := make([]Capability, 0, len(s.tokens))
	for c := range s.tokens {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
