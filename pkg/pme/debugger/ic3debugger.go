package debugger

import (
	"github.com/ryanberryhill/pme-sub000/pkg/pme/debugtr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ic3"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
)

// IC3Debugger runs the unbounded engine over the debug relation. The
// cardinality constraint is compiled into the initial states: debug
// latches are free at reset but at most n of them may be active, and
// since they self-loop the bound persists along every trace.
type IC3Debugger struct {
	dtr  *debugtr.DebugTransitionRelation
	opts *pmeopts.Options

	solver  *ic3.Solver
	card    *debugtr.CardinalityConstraint
	cardCNF ids.ClauseVec

	// bound < 0 means no cardinality constraint is in force.
	bound int

	blocked ids.ClauseVec

	// exhausted is set when the empty solution is blocked: nothing can be
	// excluded beyond "no corruption at all", so no further solutions
	// exist.
	exhausted bool
}

// NewIC3 returns an IC3-backed debugger over dtr.
func NewIC3(dtr *debugtr.DebugTransitionRelation, opts *pmeopts.Options) *IC3Debugger {
	if opts == nil {
		opts = pmeopts.Default()
	}
	card := debugtr.NewCardinalityConstraint(dtr.VariableManager())
	for _, dl := range dtr.DebugLatches() {
		card.AddInput(dl)
	}
	d := &IC3Debugger{
		dtr:    dtr,
		opts:   opts,
		solver: ic3.New(dtr, opts),
		card:   card,
		bound:  -1,
	}
	d.installInitialStates()
	return d
}

// initialStates is the debugging init description: the base circuit's
// resets (debug latches stay free), the cardinality CNF, and the unit
// clauses bounding the count.
func (d *IC3Debugger) initialStates() ids.ClauseVec {
	out := append(ids.ClauseVec(nil), d.dtr.Base().InitState()...)
	out = append(out, d.cardCNF...)
	if d.bound >= 0 {
		for _, lit := range d.card.AssumeLEq(uint(d.bound)) {
			out = append(out, ids.Clause{lit})
		}
	}
	return out
}

func (d *IC3Debugger) installInitialStates() {
	d.solver.SetInitialStates(d.initialStates())
}

func (d *IC3Debugger) reinstallBlocked() {
	for _, cls := range d.blocked {
		d.solver.AddBlockingClause(cls)
	}
}

// SetCardinality bounds the number of active debug latches to n. Raising
// the bound widens the initial states, so the lemma trace is discarded;
// lowering it keeps every lemma.
func (d *IC3Debugger) SetCardinality(n uint) {
	widened := d.bound < 0 || uint(d.bound) < n
	d.bound = int(n)
	d.card.SetCardinality(n + 1)
	d.cardCNF = append(d.cardCNF, d.card.IncrementalCNFize()...)
	d.installInitialStates()
	if widened {
		d.solver.InitialStatesExpanded()
		d.reinstallBlocked()
	}
}

// ClearCardinality removes the bound entirely, widening the initial
// states.
func (d *IC3Debugger) ClearCardinality() {
	d.bound = -1
	d.installInitialStates()
	d.solver.InitialStatesExpanded()
	d.reinstallBlocked()
}

// Debug searches for a solution under the current bound and blocked set.
func (d *IC3Debugger) Debug() (bool, []ids.ID) {
	if d.exhausted {
		return false, nil
	}
	result := d.solver.Prove()
	if !result.Unsafe() {
		return false, nil
	}
	return true, solutionFromState(d.dtr, result.Cex[0].State)
}

// DebugOverGates is Debug with every debug latch outside gates pinned to
// zero for the duration of the call.
func (d *IC3Debugger) DebugOverGates(gates []ids.ID) (bool, []ids.ID) {
	for _, dl := range complementLatches(d.dtr, gates) {
		d.solver.AddInitialStateRestriction(ids.Clause{ids.Negate(dl)})
	}
	found, soln := d.Debug()
	d.solver.ClearInitialStateRestrictions()
	d.reinstallBlocked()
	return found, soln
}

// BlockSolution excludes soln and its supersets from all later queries.
func (d *IC3Debugger) BlockSolution(soln []ids.ID) {
	if len(soln) == 0 {
		d.exhausted = true
		return
	}
	cls := blockingClause(d.dtr, soln)
	d.blocked = append(d.blocked, cls)
	d.solver.AddBlockingClause(cls)
}
