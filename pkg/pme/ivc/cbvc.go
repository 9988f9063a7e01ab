package ivc

import (
	"github.com/ryanberryhill/pme-sub000/pkg/pme/bmc"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/correction"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/debugger"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/debugtr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/mapsolver"
)

// cbvcFinder works through bounded validity cores: at each depth the
// hitting-set solver proposes gate sets whose bounded unrolling is safe,
// refuted candidates contribute depth-bounded correction sets, and a
// candidate that survives the unbounded check is a core. Depths escalate
// until the solver runs dry or the depth ceiling is hit.
type cbvcFinder struct {
	*context
}

// FindIVCs runs the depth-escalation loop.
func (f *cbvcFinder) FindIVCs() error {
	vars := f.rel.VariableManager()
	dtr := debugtr.New(vars, f.rel)
	hitter := mapsolver.NewMinimalMaxSAT(vars, f.gates, f.opts)

	maxDepth := uint(f.opts.IterationCeilings.MaxBVCDepth)
	if maxDepth == 0 {
		maxDepth = f.bmcBound()
	}

	for depth := uint(0); depth <= maxDepth; depth++ {
		finder := correction.NewMCSFinder(dtr, debugger.NewBMC(dtr, depth, f.opts), f.opts)
		for {
			found, cand := hitter.FindMinimalSeed()
			if !found {
				return nil
			}
			if !f.boundedSafe(cand, depth) {
				refined, mcs := finder.FindOverGates(f.complement(cand))
				if !refined {
					hitter.BlockUp(cand)
				} else {
					hitter.RequireOneOf(mcs)
				}
				continue
			}
			if f.isSafe(cand) {
				f.record(cand)
				hitter.BlockUp(cand)
				continue
			}
			// Safe at this depth but not in general: a deeper round will
			// separate it.
			break
		}
	}
	return nil
}

// boundedSafe reports whether the abstraction keeping gates has no
// counterexample of length <= depth.
func (f *cbvcFinder) boundedSafe(gates []ids.ID, depth uint) bool {
	abs := f.rel.Abstract(ids.SortedCopy(gates))
	return !bmc.New(abs, f.opts).Solve(depth).Unsafe()
}
