package debugger

import (
	"github.com/ryanberryhill/pme-sub000/pkg/pme/bmc"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/debugtr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/satx"
)

// BMCDebugger localizes faults with a bounded unrolling: solutions whose
// witnessing trace fits inside the depth bound are found quickly, and the
// cardinality bound is assumed rather than compiled into initial-state
// clauses. A bounded debugger can miss solutions that need longer traces;
// pair it with an unbounded one when completeness matters.
type BMCDebugger struct {
	dtr  *debugtr.DebugTransitionRelation
	kMax uint

	bounded *bmc.Solver
	card    *debugtr.CardinalityConstraint

	bound     int
	exhausted bool
}

// NewBMC returns a bounded debugger over dtr that searches traces of
// length at most kMax.
func NewBMC(dtr *debugtr.DebugTransitionRelation, kMax uint, opts *pmeopts.Options) *BMCDebugger {
	if opts == nil {
		opts = pmeopts.Default()
	}
	card := debugtr.NewCardinalityConstraint(dtr.VariableManager())
	for _, dl := range dtr.DebugLatches() {
		card.AddInput(dl)
	}
	return &BMCDebugger{
		dtr:     dtr,
		kMax:    kMax,
		bounded: newDebugBMC(dtr, opts),
		card:    card,
		bound:   -1,
	}
}

// newDebugBMC builds a bounded solver whose initial states leave the
// debug latches free: the base resets are asserted directly instead of
// the debug relation's own init clauses.
func newDebugBMC(dtr *debugtr.DebugTransitionRelation, opts *pmeopts.Options) *bmc.Solver {
	s := bmc.NewWithInit(dtr, dtr.Base().InitState(), opts)
	return s
}

// SetCardinality bounds the active debug-latch count to n. The totalizer
// is grown and its new clauses sent into the running instance; the bound
// itself is an assumption, so it can move freely in both directions.
func (d *BMCDebugger) SetCardinality(n uint) {
	d.bound = int(n)
	d.card.SetCardinality(n + 1)
	_ = d.bounded.AddClauses(d.card.IncrementalCNFize())
}

// ClearCardinality removes the bound.
func (d *BMCDebugger) ClearCardinality() {
	d.bound = -1
}

func (d *BMCDebugger) assumptions() ids.Cube {
	if d.bound < 0 {
		return nil
	}
	return d.card.AssumeLEq(uint(d.bound))
}

// Debug searches depths 0..kMax for a trace reaching bad under the bound.
func (d *BMCDebugger) Debug() (bool, []ids.ID) {
	return d.debug(nil)
}

// DebugOverGates is Debug with the complement's debug latches assumed off.
func (d *BMCDebugger) DebugOverGates(gates []ids.ID) (bool, []ids.ID) {
	var pinned ids.Cube
	for _, dl := range complementLatches(d.dtr, gates) {
		pinned = append(pinned, ids.Negate(dl))
	}
	return d.debug(pinned)
}

func (d *BMCDebugger) debug(extra ids.Cube) (bool, []ids.ID) {
	if d.exhausted {
		return false, nil
	}
	assumps := append(d.assumptions(), extra...)
	for k := uint(0); k <= d.kMax; k++ {
		if d.bounded.SolveAtDepth(k, assumps) {
			return true, d.extractSolution()
		}
	}
	return false, nil
}

func (d *BMCDebugger) extractSolution() []ids.ID {
	var state ids.Cube
	for _, dl := range d.dtr.DebugLatches() {
		if d.bounded.Assignment(dl) == satx.True {
			state = append(state, dl)
		} else {
			state = append(state, ids.Negate(dl))
		}
	}
	return solutionFromState(d.dtr, state)
}

// BlockSolution forbids soln and its supersets by clause at time zero:
// the latches self-loop, so excluding the combination at reset excludes
// it everywhere.
func (d *BMCDebugger) BlockSolution(soln []ids.ID) {
	if len(soln) == 0 {
		d.exhausted = true
		return
	}
	_ = d.bounded.AddClauses(ids.ClauseVec{blockingClause(d.dtr, soln)})
}

// HybridDebugger tries the bounded debugger first and falls back to the
// unbounded one, so short-trace solutions come cheap without giving up
// completeness.
type HybridDebugger struct {
	bounded   *BMCDebugger
	unbounded *IC3Debugger
}

// NewHybrid returns a hybrid debugger over dtr with the given bounded
// depth.
func NewHybrid(dtr *debugtr.DebugTransitionRelation, kMax uint, opts *pmeopts.Options) *HybridDebugger {
	return &HybridDebugger{
		bounded:   NewBMC(dtr, kMax, opts),
		unbounded: NewIC3(dtr, opts),
	}
}

// SetCardinality applies the bound to both engines.
func (h *HybridDebugger) SetCardinality(n uint) {
	h.bounded.SetCardinality(n)
	h.unbounded.SetCardinality(n)
}

// ClearCardinality removes the bound from both engines.
func (h *HybridDebugger) ClearCardinality() {
	h.bounded.ClearCardinality()
	h.unbounded.ClearCardinality()
}

// Debug answers from the bounded engine when it can, the unbounded one
// otherwise.
func (h *HybridDebugger) Debug() (bool, []ids.ID) {
	if found, soln := h.bounded.Debug(); found {
		return true, soln
	}
	return h.unbounded.Debug()
}

// DebugOverGates mirrors Debug over a gate subset.
func (h *HybridDebugger) DebugOverGates(gates []ids.ID) (bool, []ids.ID) {
	if found, soln := h.bounded.DebugOverGates(gates); found {
		return true, soln
	}
	return h.unbounded.DebugOverGates(gates)
}

// BlockSolution blocks soln in both engines.
func (h *HybridDebugger) BlockSolution(soln []ids.ID) {
	h.bounded.BlockSolution(soln)
	h.unbounded.BlockSolution(soln)
}
