// Package pmeerr defines the engine's typed error kinds.
// MalformedCircuit, MalformedProof, and UnknownVariable surface to the
// public pkg/pme/engine API as typed errors; UnsupportedBackend is a
// construction-time error; internal inconsistencies are never meant to
// be recovered from — see Internal below.
package pmeerr

import "github.com/pkg/errors"

// MalformedCircuit reports an AIG that references an undefined literal, or
// declares a gate whose lhs is already in use.
type MalformedCircuit struct{ Reason string }

func (e *MalformedCircuit) Error() string { return "malformed circuit: " + e.Reason }

// NewMalformedCircuit wraps reason into a *MalformedCircuit.
func NewMalformedCircuit(reason string) error {
	return &MalformedCircuit{Reason: reason}
}

// MalformedProof reports a proof clause containing literal 0, or an empty
// clause.
type MalformedProof struct{ Reason string }

func (e *MalformedProof) Error() string { return "malformed proof: " + e.Reason }

// NewMalformedProof wraps reason into a *MalformedProof.
func NewMalformedProof(reason string) error {
	return &MalformedProof{Reason: reason}
}

// UnknownVariable reports a lookup of an external or internal identifier
// that was never minted.
type UnknownVariable struct{ Reason string }

func (e *UnknownVariable) Error() string { return "unknown variable: " + e.Reason }

// NewUnknownVariable wraps reason into an *UnknownVariable.
func NewUnknownVariable(reason string) error {
	return &UnknownVariable{Reason: reason}
}

// UnsupportedBackend reports a request for a SAT backend or algorithm
// variant that isn't compiled in or implemented.
type UnsupportedBackend struct{ Reason string }

func (e *UnsupportedBackend) Error() string { return "unsupported backend: " + e.Reason }

// NewUnsupportedBackend wraps reason into an *UnsupportedBackend.
func NewUnsupportedBackend(reason string) error {
	return &UnsupportedBackend{Reason: reason}
}

// Debug controls whether Internal panics (checked builds) or returns a
// wrapped generic error (release builds). It defaults to false; tests that
// want to assert a specific invariant violation set it to true.
var Debug = false

// Internal reports an assertion-style fault: a trace invariant
// violation, an unexpected SAT result, an empty core where one was
// guaranteed. These are never recovered from. In Debug builds this
// panics so the fault surfaces at its origin; otherwise it returns a
// generic wrapped error for the caller to propagate.
func Internal(reason string) error {
	err := errors.New("internal inconsistency: " + reason)
	if Debug {
		panic(err)
	}
	return err
}

// Wrap is a thin re-export of pkg/errors.Wrap so callers in this module
// don't need a second import for the common case.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf is a thin re-export of pkg/errors.Wrapf.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
