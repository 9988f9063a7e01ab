// Package debugger localizes faults: over a debug-augmented transition
// relation, it searches for sets of gates whose outputs must be corrupted
// for the bad literal to become reachable, bounded by a cardinality
// constraint on how many gates may be active at once. Implementations
// differ in the safety engine underneath: unbounded, bounded, or a hybrid
// of the two.
package debugger

import (
	"sort"

	"github.com/ryanberryhill/pme-sub000/pkg/pme/debugtr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
)

// Debugger is the fault-localization surface. A Solution is a set of gate
// IDs; Debug finds one consistent with the current cardinality bound and
// every blocked solution, or reports that none remains.
type Debugger interface {
	// SetCardinality bounds how many debug latches may be active.
	SetCardinality(n uint)
	// ClearCardinality removes the bound.
	ClearCardinality()
	// Debug searches for a solution under the current bound.
	Debug() (bool, []ids.ID)
	// DebugOverGates is Debug restricted to candidates among gates: every
	// other debug latch is pinned to zero.
	DebugOverGates(gates []ids.ID) (bool, []ids.ID)
	// BlockSolution excludes soln (and its supersets) from every later
	// Debug call.
	BlockSolution(soln []ids.ID)
}

// solutionFromState reads the gates whose debug latches are active out of
// a latch-state cube.
func solutionFromState(dtr *debugtr.DebugTransitionRelation, state ids.Cube) []ids.ID {
	active := make(map[ids.ID]bool, len(state))
	for _, lit := range state {
		if !ids.IsNegated(lit) {
			active[ids.Strip(lit)] = true
		}
	}
	var gates []ids.ID
	for _, dl := range dtr.DebugLatches() {
		if active[dl] {
			gates = append(gates, dtr.GateForDebugLatch(dl))
		}
	}
	sort.Slice(gates, func(i, j int) bool { return gates[i] < gates[j] })
	return gates
}

// complementLatches returns the debug latches of every gate not in gates.
func complementLatches(dtr *debugtr.DebugTransitionRelation, gates []ids.ID) []ids.ID {
	keep := make(map[ids.ID]bool, len(gates))
	for _, g := range gates {
		keep[ids.Strip(g)] = true
	}
	var out []ids.ID
	for _, dl := range dtr.DebugLatches() {
		if !keep[ids.Strip(dtr.GateForDebugLatch(dl))] {
			out = append(out, dl)
		}
	}
	return out
}

// blockingClause turns a solution into the clause forbidding it and every
// superset: at least one of its debug latches must stay off.
func blockingClause(dtr *debugtr.DebugTransitionRelation, soln []ids.ID) ids.Clause {
	cls := make(ids.Clause, 0, len(soln))
	for _, g := range soln {
		cls = append(cls, ids.Negate(dtr.DebugLatchForGate(g)))
	}
	return cls
}
