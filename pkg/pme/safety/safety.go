// Package safety defines the result shape shared by every safety-checking
// engine in the module: a verdict, a counterexample trace when the verdict
// is unsafe, and an inductive proof when it is safe.
package safety

import "github.com/ryanberryhill/pme-sub000/pkg/pme/ids"

// Result is a safety engine's verdict.
type Result int

const (
	// Unknown means the engine exhausted its bound or ceiling without a
	// verdict (bounded engines only; unbounded engines never return it).
	Unknown Result = iota
	// Safe means no reachable state satisfies the bad literal.
	Safe
	// Unsafe means a concrete trace reaches the bad literal.
	Unsafe
)

func (r Result) String() string {
	switch r {
	case Safe:
		return "safe"
	case Unsafe:
		return "unsafe"
	default:
		return "unknown"
	}
}

// Step is one step of a counterexample trace: the primary-input values
// driven at that step and the latch state the circuit was in.
type Step struct {
	Inputs ids.Cube
	State  ids.Cube
}

// Trace is a counterexample, ordered from the initial state to the
// violating state. It always has length >= 1.
type Trace []Step

// Proof is an inductive invariant as a set of clauses over current-frame
// latch literals.
type Proof = ids.ClauseVec

// SafetyResult bundles a verdict with its witness.
type SafetyResult struct {
	Result Result
	Cex    Trace
	Proof  Proof
}

// Safe reports whether the verdict is Safe.
func (s SafetyResult) Safe() bool { return s.Result == Safe }

// Unsafe reports whether the verdict is Unsafe.
func (s SafetyResult) Unsafe() bool { return s.Result == Unsafe }
