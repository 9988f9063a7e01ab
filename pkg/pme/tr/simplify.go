package tr

import (
	"github.com/ryanberryhill/pme-sub000/internal/pmelog"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/satx"
)

// SimplifyTR runs a two-frame unrolling of t through a simplifying SAT
// backend and returns the residual CNF plus any unit clauses the backend's
// elimination pass discovers. Latches, constraints, inputs, and bad/bad'
// are frozen so the simplifier may only fold away the per-gate Tseitin
// auxiliaries, never the literals callers still need to assume over
// afterward. This is the common preprocessor for consecution solvers.
//
// log is threaded through to the adaptor for SAT-channel diagnostics; it
// may be nil.
func SimplifyTR(t Relation, log *pmelog.Logger) (ids.ClauseVec, ids.Clause, error) {
	a := satx.New(pmeopts.BackendSimplifying, false, log)

	if err := a.AddClauses(t.Unroll(2)); err != nil {
		return nil, nil, err
	}

	for _, l := range t.Latches() {
		a.Freeze(l.ID)
		a.Freeze(ids.Prime(l.ID, 1))
	}
	for _, c := range t.Constraints() {
		a.Freeze(c)
		a.Freeze(ids.Prime(c, 1))
	}
	for _, in := range t.Inputs() {
		a.Freeze(in)
		a.Freeze(ids.Prime(in, 1))
	}
	a.Freeze(t.Bad())
	a.Freeze(ids.Prime(t.Bad(), 1))

	return a.Simplify()
}
