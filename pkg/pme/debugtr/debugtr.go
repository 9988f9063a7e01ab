// Package debugtr augments a transition relation with a debug latch and
// debug input per AND-gate, turning "which gates are necessary for this
// proof" into a SAT question: asserting a debug latch
// lets that gate's output be driven arbitrarily by its paired input,
// and a cardinality constraint over the active debug latches bounds how
// many gates may be corrupted at once.
package debugtr

import (
	"github.com/ryanberryhill/pme-sub000/pkg/pme/circuit"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/tr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

// DebugTransitionRelation wraps a *tr.TransitionRelation, replacing each
// gate's plain Tseitin CNF with a debug-augmented version and adding one
// self-looping, reset-0 debug latch and one free debug input per gate.
type DebugTransitionRelation struct {
	base *tr.TransitionRelation
	vars *variable.Manager

	debugLatchOf map[ids.ID]ids.ID // gate lhs -> debug latch
	gateOfLatch  map[ids.ID]ids.ID // debug latch -> gate lhs
	debugInputOf map[ids.ID]ids.ID // gate lhs -> debug input

	extraLatches []ids.ID
	extraInputs  []ids.ID
}

// New builds a debug-augmented transition relation over base, minting one
// debug latch and one debug input per gate base reports.
func New(vars *variable.Manager, base *tr.TransitionRelation) *DebugTransitionRelation {
	d := &DebugTransitionRelation{
		base:         base,
		vars:         vars,
		debugLatchOf: make(map[ids.ID]ids.ID),
		gateOfLatch:  make(map[ids.ID]ids.ID),
		debugInputOf: make(map[ids.ID]ids.ID),
	}
	for _, g := range base.Gates() {
		dl := vars.GetNewID("", 0)
		di := vars.GetNewID("", 0)
		d.debugLatchOf[g.Lhs] = dl
		d.gateOfLatch[dl] = g.Lhs
		d.debugInputOf[g.Lhs] = di
		d.extraLatches = append(d.extraLatches, dl)
		d.extraInputs = append(d.extraInputs, di)
	}
	return d
}

// DebugLatchForGate returns the debug latch paired with gate g's lhs ID.
func (d *DebugTransitionRelation) DebugLatchForGate(g ids.ID) ids.ID {
	return d.debugLatchOf[ids.Strip(g)]
}

// DebugPPIForGate returns the debug input (pseudo-primary-input) paired
// with gate g's lhs ID.
func (d *DebugTransitionRelation) DebugPPIForGate(g ids.ID) ids.ID {
	return d.debugInputOf[ids.Strip(g)]
}

// GateForDebugLatch inverts DebugLatchForGate.
func (d *DebugTransitionRelation) GateForDebugLatch(dl ids.ID) ids.ID {
	return d.gateOfLatch[ids.Strip(dl)]
}

// DebugLatches returns every debug latch, in gate order.
func (d *DebugTransitionRelation) DebugLatches() []ids.ID {
	return d.extraLatches
}

// gateCNF is the per-gate CNF override: the original Tseitin clauses
// each extended by ∨ dl, plus two clauses enforcing lhs = di when
// dl = 1.
func (d *DebugTransitionRelation) gateCNF(lhs, rhs0, rhs1, dl, di ids.ID, n uint) ids.ClauseVec {
	l := ids.Prime(lhs, n)
	r0 := ids.Prime(rhs0, n)
	r1 := ids.Prime(rhs1, n)
	dlp := ids.Prime(dl, n)
	dip := ids.Prime(di, n)

	return ids.ClauseVec{
		{ids.Negate(l), r0, dlp},
		{ids.Negate(l), r1, dlp},
		{l, ids.Negate(r0), ids.Negate(r1), dlp},
		{l, ids.Negate(dip), ids.Negate(dlp)},
		{ids.Negate(l), dip, ids.Negate(dlp)},
	}
}

// debugLatchCNF is the self-loop equation for a debug latch: next = itself.
func debugLatchCNF(dl ids.ID, n uint) ids.ClauseVec {
	cur := ids.Prime(dl, n+1)
	next := ids.Prime(dl, n)
	return ids.ClauseVec{
		{ids.Negate(cur), next},
		{cur, ids.Negate(next)},
	}
}

// UnrollFrame returns the CNF of Tr(k) with every gate replaced by its
// debug-augmented form and every debug latch's self-loop equation added,
// plus everything base.UnrollFrame(k) contributes for latches and
// constraints (gates are NOT taken from base — they're fully replaced).
func (d *DebugTransitionRelation) UnrollFrame(k uint) ids.ClauseVec {
	var out ids.ClauseVec
	for _, g := range d.base.Gates() {
		dl := d.debugLatchOf[g.Lhs]
		di := d.debugInputOf[g.Lhs]
		out = append(out, d.gateCNF(g.Lhs, g.Rhs0, g.Rhs1, dl, di, k)...)
		out = append(out, debugLatchCNF(dl, k)...)
	}
	for _, l := range d.base.Latches() {
		cur := ids.Prime(l.ID, k+1)
		next := ids.Prime(l.Next, k)
		out = append(out,
			ids.Clause{ids.Negate(cur), next},
			ids.Clause{cur, ids.Negate(next)},
		)
	}
	for _, c := range d.base.Constraints() {
		out = append(out, ids.Clause{ids.Prime(c, k)})
	}
	return out
}

// Unroll concatenates UnrollFrame(0)..UnrollFrame(N-1) plus a final copy of
// the constraints primed to N, mirroring tr.TransitionRelation.Unroll.
func (d *DebugTransitionRelation) Unroll(n uint) ids.ClauseVec {
	var out ids.ClauseVec
	for k := uint(0); k < n; k++ {
		out = append(out, d.UnrollFrame(k)...)
	}
	for _, c := range d.base.Constraints() {
		out = append(out, ids.Clause{ids.Prime(c, n)})
	}
	return out
}

// InitState fixes every debug latch to 0 (self-looping, reset 0) in
// addition to base's own latch resets. Activating a gate therefore
// breaks initiation; at depth an activation must be assumed, never
// derived.
func (d *DebugTransitionRelation) InitState() ids.ClauseVec {
	out := append(ids.ClauseVec{}, d.base.InitState()...)
	for _, dl := range d.extraLatches {
		out = append(out, ids.Clause{ids.Negate(dl)})
	}
	return out
}

// UnrollWithInit returns Unroll(n) ∪ InitState().
func (d *DebugTransitionRelation) UnrollWithInit(n uint) ids.ClauseVec {
	return append(d.Unroll(n), d.InitState()...)
}

// Bad returns the property literal, unchanged from the base relation.
func (d *DebugTransitionRelation) Bad() ids.ID { return d.base.Bad() }

// Base returns the unaugmented relation.
func (d *DebugTransitionRelation) Base() *tr.TransitionRelation { return d.base }

// Inputs returns the base relation's inputs followed by every debug input.
func (d *DebugTransitionRelation) Inputs() []ids.ID {
	out := append([]ids.ID(nil), d.base.Inputs()...)
	return append(out, d.extraInputs...)
}

// Latches returns the base relation's latches followed by every debug
// latch (self-looping, reset 0).
func (d *DebugTransitionRelation) Latches() []tr.LatchInfo {
	out := append([]tr.LatchInfo(nil), d.base.Latches()...)
	for _, dl := range d.extraLatches {
		out = append(out, tr.LatchInfo{ID: dl, Next: dl, Reset: circuit.ResetZero})
	}
	return out
}

// Constraints returns the base relation's invariant constraints.
func (d *DebugTransitionRelation) Constraints() []ids.ID { return d.base.Constraints() }

// VariableManager returns the manager all IDs here were minted from.
func (d *DebugTransitionRelation) VariableManager() *variable.Manager { return d.vars }
