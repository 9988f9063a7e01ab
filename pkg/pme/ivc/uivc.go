package ivc

import (
	"github.com/ryanberryhill/pme-sub000/pkg/pme/correction"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/debugtr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/mapsolver"
)

// uivcFinder unifies the map-guided and hitting-set searches: seeds come
// from a two-sided (zigzag) map solver, safe seeds shrink to cores, and
// unsafe seeds are refined with a correction set over their complement
// that is folded into the map as a covering constraint. The safety cache
// in context keeps the two exploration directions from re-verifying the
// same abstraction.
type uivcFinder struct {
	*context
}

// FindIVCs drains the zigzag exploration.
func (f *uivcFinder) FindIVCs() error {
	vars := f.rel.VariableManager()
	dtr := debugtr.New(vars, f.rel)
	mcsFinder := correction.NewApproximateMCSFinder(dtr, f.bmcBound(), f.opts)

	ms := mapsolver.NewArbitraryMaxSAT(vars, f.gates, f.opts)
	for {
		found, seed := ms.FindSeed()
		if !found {
			return nil
		}
		if f.isSafe(seed) {
			ivc := f.shrink(seed)
			f.record(ivc)
			ms.BlockUp(ivc)
			continue
		}
		ms.BlockDown(seed)
		if refined, mcs := mcsFinder.FindOverGates(f.complement(seed)); refined {
			// Every core hits every correction set; teach the map solver
			// so whole barren regions disappear at once.
			ms.RequireOneOf(mcs)
		}
	}
}
