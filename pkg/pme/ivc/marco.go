package ivc

import (
	"github.com/ryanberryhill/pme-sub000/pkg/pme/mapsolver"
)

// marcoFinder enumerates every minimal core: safety of the kept-gate set
// is monotone upward, so a maximal unexplored seed either contains a core
// (shrink it, block its upward closure) or proves that its whole downward
// closure is barren.
type marcoFinder struct {
	*context
}

// FindIVCs drains the map.
func (f *marcoFinder) FindIVCs() error {
	ms := mapsolver.NewMaximalMaxSAT(f.rel.VariableManager(), f.gates, f.opts)
	for {
		found, seed := ms.FindMaximalSeed()
		if !found {
			return nil
		}
		if !f.isSafe(seed) {
			ms.BlockDown(seed)
			continue
		}
		ivc := f.shrink(seed)
		f.record(ivc)
		ms.BlockUp(ivc)
	}
}
