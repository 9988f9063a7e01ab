// Package tr owns the transition relation derived from a parsed circuit:
// input/latch/gate ID allocation, Tseitin CNF lowering of AND-gates,
// k-frame unrolling, init-state clauses, and the gate-abstraction used to
// build IVC candidate substrates. This is the universal CNF source every
// other component in the engine either queries through or is built on top
// of (pkg/pme/satx, pkg/pme/debugtr, pkg/pme/ic3/frame).
package tr

import (
	"github.com/ryanberryhill/pme-sub000/internal/pmeerr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/circuit"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

// LatchInfo records a latch's internal ID, its next-state ID, and its
// reset disposition.
type LatchInfo struct {
	ID    ids.ID
	Next  ids.ID
	Reset circuit.Reset
}

// GateInfo records an AND-gate's internal IDs: lhs = rhs0 ∧ rhs1.
type GateInfo struct {
	Lhs, Rhs0, Rhs1 ids.ID
}

// TransitionRelation is the internalized form of a circuit.Circuit: every
// node has an internal ID, and the relation can be queried for CNF at any
// unrolling depth.
type TransitionRelation struct {
	vars *variable.Manager

	inputs  []ids.ID
	latches []LatchInfo
	gates   []GateInfo

	bad         ids.ID
	constraints []ids.ID
}

// New internalizes circ: every input, latch, and gate gets a fresh
// internal ID (latch next-state and gate operand literals are resolved
// against IDs already minted for inputs/latches/earlier gates, so circ's
// nodes must appear in an order where every operand is defined before use,
// the standard AIG convention). Returns MalformedCircuit if any operand
// literal was never defined.
func New(vars *variable.Manager, circ *circuit.Circuit) (*TransitionRelation, error) {
	t := &TransitionRelation{vars: vars}

	for _, in := range circ.Inputs {
		id := vars.GetNewID("", variable.ExternalID(in.Lit))
		t.inputs = append(t.inputs, id)
	}

	// Latches are allocated IDs for their own output up front, but their
	// next-state literal is resolved only after every gate has been
	// internalized below: a latch's next-state function commonly is a gate
	// that appears later in the AIG's topological order (gates themselves
	// only ever reference inputs, latch outputs, and earlier gates, so
	// they can be resolved in a single forward pass).
	latchID := make(map[circuit.Lit]ids.ID, len(circ.Latches))
	for _, l := range circ.Latches {
		id := vars.GetNewID("", variable.ExternalID(l.Lit))
		latchID[l.Lit.Strip()] = id
	}

	for _, g := range circ.Gates {
		id := vars.GetNewID("", variable.ExternalID(g.Lhs))
		rhs0, err := t.resolve(g.Rhs0)
		if err != nil {
			return nil, err
		}
		rhs1, err := t.resolve(g.Rhs1)
		if err != nil {
			return nil, err
		}
		t.gates = append(t.gates, GateInfo{Lhs: id, Rhs0: rhs0, Rhs1: rhs1})
	}

	for _, l := range circ.Latches {
		next, err := t.resolve(l.Next)
		if err != nil {
			return nil, err
		}
		t.latches = append(t.latches, LatchInfo{
			ID:    latchID[l.Lit.Strip()],
			Next:  next,
			Reset: l.Reset,
		})
	}

	bad, err := t.resolve(circ.Bad)
	if err != nil {
		return nil, err
	}
	t.bad = bad

	for _, c := range circ.Constraints {
		cid, err := t.resolve(c)
		if err != nil {
			return nil, err
		}
		t.constraints = append(t.constraints, cid)
	}

	return t, nil
}

// resolve maps an already-internalized external literal (input, latch, or
// an earlier gate's lhs) to its internal ID, preserving sign. The
// constants 0/1 always resolve.
func (t *TransitionRelation) resolve(lit circuit.Lit) (ids.ID, error) {
	internal, err := t.vars.ToInternal(variable.ExternalID(lit))
	if err != nil {
		return ids.ID_NULL, pmeerr.NewMalformedCircuit(
			"literal references an undefined node: " + err.Error())
	}
	return internal, nil
}

// Inputs, Latches, Gates, Bad, Constraints expose the internalized circuit
// to callers building CNF outside this package (pkg/pme/debugtr extends
// gate CNF; pkg/pme/ic3/frame freezes latches by ID).
func (t *TransitionRelation) Inputs() []ids.ID          { return t.inputs }
func (t *TransitionRelation) Latches() []LatchInfo      { return t.latches }
func (t *TransitionRelation) Gates() []GateInfo         { return t.gates }
func (t *TransitionRelation) Bad() ids.ID               { return t.bad }
func (t *TransitionRelation) Constraints() []ids.ID     { return t.constraints }
func (t *TransitionRelation) VariableManager() *variable.Manager { return t.vars }

// gateCNF returns the three Tseitin clauses for lhs = rhs0 ∧ rhs1,
// primed by n.
func gateCNF(g GateInfo, n uint) ids.ClauseVec {
	lhs := ids.Prime(g.Lhs, n)
	rhs0 := ids.Prime(g.Rhs0, n)
	rhs1 := ids.Prime(g.Rhs1, n)
	return ids.ClauseVec{
		{ids.Negate(lhs), rhs0},
		{ids.Negate(lhs), rhs1},
		{lhs, ids.Negate(rhs0), ids.Negate(rhs1)},
	}
}

// latchCNF returns the clauses equating latch' (primed n+1) to its
// next-state function (primed n): latch'_{n+1} = next_n, i.e. the standard
// two-clause equivalence encoding.
func latchCNF(l LatchInfo, n uint) ids.ClauseVec {
	cur := ids.Prime(l.ID, n+1)
	next := ids.Prime(l.Next, n)
	return ids.ClauseVec{
		{ids.Negate(cur), next},
		{cur, ids.Negate(next)},
	}
}

// UnrollFrame returns the CNF of Tr(k): every gate and every latch
// next-state equality, with every literal's prime count set to k for the
// gates (and k/k+1 for the latch equation, per latchCNF), plus the
// constraints primed to k.
func (t *TransitionRelation) UnrollFrame(k uint) ids.ClauseVec {
	var out ids.ClauseVec
	for _, g := range t.gates {
		out = append(out, gateCNF(g, k)...)
	}
	for _, l := range t.latches {
		out = append(out, latchCNF(l, k)...)
	}
	for _, c := range t.constraints {
		out = append(out, ids.Clause{ids.Prime(c, k)})
	}
	return out
}

// Unroll concatenates UnrollFrame(0)..UnrollFrame(N-1) plus a final
// copy of the constraints primed to N, so a length-2 unrolling carries
// both current and once-primed constraints.
func (t *TransitionRelation) Unroll(n uint) ids.ClauseVec {
	var out ids.ClauseVec
	for k := uint(0); k < n; k++ {
		out = append(out, t.UnrollFrame(k)...)
	}
	for _, c := range t.constraints {
		out = append(out, ids.Clause{ids.Prime(c, n)})
	}
	return out
}

// InitState returns the unit clauses fixing the reset value of every latch
// with a concrete (non-free) reset.
func (t *TransitionRelation) InitState() ids.ClauseVec {
	var out ids.ClauseVec
	for _, l := range t.latches {
		switch l.Reset {
		case circuit.ResetZero:
			out = append(out, ids.Clause{ids.Negate(l.ID)})
		case circuit.ResetOne:
			out = append(out, ids.Clause{l.ID})
		case circuit.ResetFree:
			// no constraint
		}
	}
	return out
}

// UnrollWithInit returns Unroll(n) ∪ InitState().
func (t *TransitionRelation) UnrollWithInit(n uint) ids.ClauseVec {
	out := t.Unroll(n)
	return append(out, t.InitState()...)
}

// Abstract constructs a gate-abstracted transition relation in which
// every gate not in keptGates is replaced by a fresh free input literal.
// Latches, constraints, and bad are preserved verbatim. A safe abstract
// relation means keptGates suffices to prove the property.
func (t *TransitionRelation) Abstract(keptGates []ids.ID) *TransitionRelation {
	kept := make(map[ids.ID]bool, len(keptGates))
	for _, g := range keptGates {
		kept[ids.Strip(g)] = true
	}

	abs := &TransitionRelation{
		vars:        t.vars,
		inputs:      append([]ids.ID(nil), t.inputs...),
		latches:     append([]LatchInfo(nil), t.latches...),
		bad:         t.bad,
		constraints: append([]ids.ID(nil), t.constraints...),
	}

	for _, g := range t.gates {
		if kept[ids.Strip(g.Lhs)] {
			abs.gates = append(abs.gates, g)
			continue
		}
		// Abstracted away: the gate's lhs becomes a fresh free input
		// rather than a defined AND, so no CNF is emitted for it at all
		// (it is simply omitted from abs.gates and added to abs.inputs).
		abs.inputs = append(abs.inputs, g.Lhs)
	}

	return abs
}
