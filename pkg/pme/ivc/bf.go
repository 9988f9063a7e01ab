package ivc

import (
	"github.com/ryanberryhill/pme-sub000/internal/pmeerr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/correction"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ic3"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/minimize"
)

// bfFinder shrinks from the full gate set: one minimal core, found by
// trying every gate's removal against the hybrid checker.
type bfFinder struct {
	*context
}

// FindIVCs computes one minimal core.
func (f *bfFinder) FindIVCs() error {
	if !f.isSafe(f.gates) {
		return pmeerr.Internal("ivc: circuit is not safe, no validity core exists")
	}
	f.record(f.shrink(f.gates))
	return nil
}

// ucbfFinder shrinks from an unsatisfiable-core seed instead of the full
// gate set: a proof of the property is found and minimized, the gates
// needed for that invariant's consecution are extracted as a MUS of
// Inv ∧ Tr ∧ ¬Inv' with per-gate soft groups, and only that remainder is
// brute-forced.
type ucbfFinder struct {
	*context
}

// FindIVCs computes one minimal core through the invariant-level core.
func (f *ucbfFinder) FindIVCs() error {
	result := ic3.New(f.rel, f.opts).Prove()
	if !result.Safe() {
		return pmeerr.Internal("ivc: circuit is not safe, no validity core exists")
	}

	inv := result.Proof
	if len(inv) > 0 {
		min, err := minimize.NewMinimizer(minimize.BruteForce, f.rel, inv, f.opts)
		if err == nil && min.Minimize() == nil && min.NumProofs() > 0 {
			inv = min.GetMinimumProof()
		}
	}

	seed := f.gates
	if len(inv) > 0 {
		if gates, err := f.invariantCore(inv); err == nil {
			seed = gates
		}
	}
	if !f.isSafe(seed) {
		// The invariant core under-approximates when the minimized proof
		// leaned on clauses the property check supplies implicitly; fall
		// back to the full universe.
		seed = f.gates
		if !f.isSafe(seed) {
			return pmeerr.Internal("ivc: safe circuit failed the full-gate check")
		}
	}
	f.record(f.shrink(seed))
	return nil
}

// invariantCore extracts the gates appearing in a minimal unsatisfiable
// subset of Inv ∧ Tr ∧ ¬Inv', with each gate's frame-0 clauses grouped
// soft and everything else hard.
func (f *ucbfFinder) invariantCore(inv ids.ClauseVec) ([]ids.ID, error) {
	vars := f.rel.VariableManager()
	m := correction.NewMUSFinder(vars, f.opts)

	for _, cls := range inv {
		if err := m.AddHardClause(cls); err != nil {
			return nil, err
		}
	}

	// Latch equations, constraint copies: the non-gate part of the
	// one-step unrolling stays hard.
	for _, l := range f.rel.Latches() {
		next := ids.Prime(l.ID, 1)
		_ = m.AddHardClause(ids.Clause{ids.Negate(next), l.Next})
		_ = m.AddHardClause(ids.Clause{next, ids.Negate(l.Next)})
	}
	for _, c := range f.rel.Constraints() {
		_ = m.AddHardClause(ids.Clause{c})
		_ = m.AddHardClause(ids.Clause{ids.Prime(c, 1)})
	}

	// ¬Inv': at least one invariant clause is violated in the next
	// frame, via one selector per clause.
	sel := make(ids.Clause, 0, len(inv))
	for _, cls := range inv {
		s := vars.GetNewID("", 0)
		sel = append(sel, s)
		for _, lit := range cls {
			_ = m.AddHardClause(ids.Clause{ids.Negate(s), ids.Negate(ids.Prime(lit, 1))})
		}
	}
	if err := m.AddHardClause(sel); err != nil {
		return nil, err
	}

	gateOf := make(map[correction.GroupID]ids.ID, len(f.rel.Gates()))
	for _, g := range f.rel.Gates() {
		var cnf ids.ClauseVec
		for n := uint(0); n <= 1; n++ {
			lhs := ids.Prime(g.Lhs, n)
			r0 := ids.Prime(g.Rhs0, n)
			r1 := ids.Prime(g.Rhs1, n)
			cnf = append(cnf,
				ids.Clause{ids.Negate(lhs), r0},
				ids.Clause{ids.Negate(lhs), r1},
				ids.Clause{lhs, ids.Negate(r0), ids.Negate(r1)},
			)
		}
		gateOf[m.AddSoftGroup(cnf)] = g.Lhs
	}

	mus, err := m.FindMUS()
	if err != nil {
		return nil, err
	}
	var gates []ids.ID
	for _, g := range mus {
		gates = append(gates, gateOf[g])
	}
	return sortGates(gates), nil
}
