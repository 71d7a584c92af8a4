// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

package access

type requirementKind int

const (
	kindUnconditional requirementKind = iota
	kindAnyOf
	kindAllOf
)

// Requirement expresses what an affordance demands of the actor's
// capability set. It is a tagged value: unconditional, any-of a token set,
// or all-of a token set. Call sites state their intent as a typed value
// instead of inferring it from the shape of a token list.
type Requirement struct {
	kind requirementKind
	caps []Capability
}

// Unconditional returns a requirement that always allows (once the set is
// ready).
func Unconditional() Requirement {
	return Requirement{kind: kindUnconditional}
}

// AnyOf requires at least one of the given tokens. An empty token set
// allows.
func AnyOf(caps ...Capability) Requirement {
	return Requirement{kind: kindAnyOf, caps: append([]Capability(nil), caps...)}
}

// AllOf requires every one of the given tokens. An empty token set allows.
func AllOf(caps ...Capability) Requirement {
	return Requirement{kind: kindAllOf, caps: append([]Capability(nil), caps...)}
}

// Evaluate reports whether the capability set satisfies the requirement.
// It is a pure function with no side effects. A not-ready set denies every
// requirement, including Unconditional (fail-closed).
func Evaluate(s CapabilitySet, r Requirement) bool {
	if !s.Ready() {
		return false
	}
	switch r.kind {
	case kindUnconditional:
		return true
	case kindAnyOf:
		if len(r.caps) == 0 {
			return true
		}
		for _, c := range r.caps {
			if s.Has(c) {
				return true
			}
		}
		return false
	case kindAllOf:
		for _, c := range r.caps {
			if !s.Has(c) {
				return false
			}
		}
		return true
	}
	return false
}

// Composite pairs an any-of and an all-of requirement; it allows only when
// both individually allow.
type Composite struct {
	Any Requirement
	All Requirement
}

// EvaluateComposite reports whether the set satisfies both halves of the
// composite.
func EvaluateComposite(s CapabilitySet, c Composite) bool {
	return Evaluate(s, c.Any) && Evaluate(s, c.All)
}

// Require is the programmatic counterpart to Evaluate for callers that need
// a typed error instead of a silent deny: operations invoked without a
// rendered affordance (e.g. direct CLI calls) still have to be rejected.
func Require(s CapabilitySet, r Requirement) error {
	if !s.Ready() {
		return ErrPermissionsNotReady
	}
	if !Evaluate(s, r) {
		return ErrUnauthorized
	}
	return nil
}

// RequireComposite is Require for composite requirements.
func RequireComposite(s CapabilitySet, c Composite) error {
	if !s.Ready() {
		return ErrPermissionsNotReady
	}
	if !EvaluateComposite(s, c) {
		return ErrUnauthorized
	}
	return nil
}
