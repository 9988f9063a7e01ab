// Package lift generalizes concrete predecessor states: given a
// predecessor cube, the inputs recorded with it, and the successor cube it
// reaches, a second SAT instance derives the sub-cube of the predecessor
// that already forces the successor under those inputs. Shorter
// predecessor cubes block more states per lemma, which is what makes
// IC3-style search converge.
package lift

import (
	"github.com/ryanberryhill/pme-sub000/internal/pmeerr"
	"github.com/ryanberryhill/pme-sub000/internal/pmelog"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ic3/trace"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/satx"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/tr"
)

// Lifter owns a SAT instance loaded with the simplified two-frame
// transition relation plus every lemma the trace holds at the infinite
// level. Construct with New; call RenewSAT (or let the first Lift do it)
// after the trace's infinite frame changes in bulk.
type Lifter struct {
	tr    tr.Relation
	trace *trace.InductiveTrace
	opts  pmeopts.Options
	log   *pmelog.Logger

	solver     *satx.Adaptor
	unrolled   ids.ClauseVec
	solverInit bool
}

// New returns a Lifter over t and inductive. No SAT work happens until the
// first query.
func New(t tr.Relation, inductive *trace.InductiveTrace, opts pmeopts.Options) *Lifter {
	var l *pmelog.Logger
	if opts.Logger != nil {
		l = pmelog.New(opts.Logger, pmelog.ChannelIC3, opts.Verbosity.IC3)
	}
	return &Lifter{
		tr:     t,
		trace:  inductive,
		opts:   opts,
		log:    l,
		solver: satx.New(opts.Backend, false, l),
	}
}

func (l *Lifter) computeTR() {
	if l.opts.SimplifyFrameSolver {
		residual, units, err := tr.SimplifyTR(l.tr, l.log)
		if err == nil {
			l.unrolled = residual
			for _, u := range units {
				l.unrolled = append(l.unrolled, ids.Clause{u})
			}
			return
		}
	}
	l.unrolled = l.tr.Unroll(2)
}

// RenewSAT rebuilds the lifter's solver: the (possibly simplified)
// two-frame transition relation plus every infinite-level lemma.
func (l *Lifter) RenewSAT() {
	if len(l.unrolled) == 0 {
		l.computeTR()
	}
	l.solver.Reset()
	for _, cls := range l.unrolled {
		_ = l.solver.AddClause(cls)
	}
	for id := range l.trace.Frame(trace.LevelInf) {
		l.sendLemma(id)
	}
	l.solverInit = true
}

// AddLemma asserts an infinite-level lemma's clause into the running
// solver. Lemmas at finite levels are not the lifter's business: the lift
// query is sound without them and they would have to be retracted as
// frames move.
func (l *Lifter) AddLemma(id trace.LemmaID) {
	if !l.solverInit {
		return
	}
	if l.trace.GetLemma(id).Level != trace.LevelInf {
		return
	}
	l.sendLemma(id)
}

func (l *Lifter) sendLemma(id trace.LemmaID) {
	lemma := l.trace.GetLemma(id)
	_ = l.solver.AddClause(ids.NegateSlice(lemma.Cube))
}

// Lift returns the sub-cube of pred sufficient to force succ in one step
// under the recorded inputs: it solves pred ∧ inp ∧ Tr ∧ pinp' ∧ ¬succ',
// which is UNSAT by construction, and intersects the critical assumptions
// with pred. pinp must already be primed one frame. If every predecessor
// literal turns out to be a don't-care, a single arbitrary literal of pred
// is returned so the result is never the empty cube.
func (l *Lifter) Lift(pred, succ, inp, pinp ids.Cube) ids.Cube {
	if !l.solverInit {
		l.RenewSAT()
	}
	if len(pred) == 0 || len(succ) == 0 {
		panic(pmeerr.Internal("lifter: Lift with empty predecessor or successor"))
	}

	assumps := make(ids.Cube, 0, len(pred)+len(inp)+len(pinp)+1)
	assumps = append(assumps, pred...)
	assumps = append(assumps, inp...)
	assumps = append(assumps, pinp...)

	var sat bool
	var crits ids.Cube
	if len(succ) == 1 {
		assumps = append(assumps, ids.Negate(ids.Prime(succ[0], 1)))
		sat, crits = l.solver.Solve(assumps, true)
	} else {
		gid := l.solver.CreateGroup()
		negSucc := make(ids.Clause, 0, len(succ))
		for _, s := range succ {
			negSucc = append(negSucc, ids.Negate(ids.Prime(s, 1)))
		}
		l.solver.AddGroupClause(gid, negSucc)
		sat, crits = l.solver.GroupSolve(gid, assumps)
	}

	if sat {
		panic(pmeerr.Internal("lifter: lift query was satisfiable"))
	}

	inPred := make(map[ids.ID]bool, len(pred))
	for _, p := range pred {
		inPred[p] = true
	}
	lifted := make(ids.Cube, 0, len(pred))
	for _, c := range crits {
		if inPred[c] {
			lifted = append(lifted, c)
		}
	}
	if len(lifted) == 0 {
		lifted = append(lifted, pred[0])
	}
	return lifted
}
