package ivc

import (
	"github.com/ryanberryhill/pme-sub000/pkg/pme/correction"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/debugtr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/mapsolver"
)

// caivcFinder enumerates cores through the hitting-set duality: every
// validity core intersects every correction set, so an upfront correction
// set enumeration followed by minimal-hitting-set extraction yields
// candidate cores directly, with refinement adding new correction sets
// whenever a candidate fails verification.
type caivcFinder struct {
	*context
}

// FindIVCs enumerates all cores up to the refinement ceiling.
func (f *caivcFinder) FindIVCs() error {
	vars := f.rel.VariableManager()
	dtr := debugtr.New(vars, f.rel)
	mcsFinder := correction.NewApproximateMCSFinder(dtr, f.bmcBound(), f.opts)

	hitter := mapsolver.NewMinimalMaxSAT(vars, f.gates, f.opts)
	for _, mcs := range mcsFinder.FindAll() {
		hitter.RequireOneOf(mcs)
	}

	ceiling := f.opts.IterationCeilings.MaxCAIVCRefinements
	for iter := 0; ceiling <= 0 || iter < ceiling; iter++ {
		found, cand := hitter.FindMinimalSeed()
		if !found {
			return nil
		}
		if f.isSafe(cand) {
			f.record(cand)
			hitter.BlockUp(cand)
			continue
		}
		// The candidate misses a correction set; it must live entirely in
		// the complement, or the enumeration has gone inconsistent.
		refined, mcs := mcsFinder.FindOverGates(f.complement(cand))
		if !refined {
			hitter.BlockUp(cand)
			continue
		}
		hitter.RequireOneOf(mcs)
	}
	return nil
}
