package mapsolver

import (
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
)

// SATMapSolver is the plain SAT-backed implementation: FindSeed returns
// whatever model the solver produces, and the extremal variants walk from
// that model by point queries against the blocking clauses.
type SATMapSolver struct {
	*base
}

// NewSAT returns a SATMapSolver over idSet.
func NewSAT(idSet []ids.ID, opts *pmeopts.Options) *SATMapSolver {
	return &SATMapSolver{base: newBase(idSet, opts)}
}

// FindSeed returns an arbitrary unexplored seed.
func (m *SATMapSolver) FindSeed() (bool, Seed) {
	sat, _ := m.sat.Solve(nil, false)
	if !sat {
		return false, nil
	}
	return true, m.modelSeed()
}

// FindMinimalSeed shrinks an arbitrary seed by trial removals: each
// element whose removal leaves an unexplored point is dropped.
func (m *SATMapSolver) FindMinimalSeed() (bool, Seed) {
	found, seed := m.FindSeed()
	if !found {
		return false, nil
	}
	for i := 0; i < len(seed); {
		cand := make(Seed, 0, len(seed)-1)
		cand = append(cand, seed[:i]...)
		cand = append(cand, seed[i+1:]...)
		if m.CheckSeed(cand) {
			seed = cand
		} else {
			i++
		}
	}
	return true, seed
}

// FindMaximalSeed grows an arbitrary seed by trial additions: each absent
// element whose addition stays unexplored is adopted.
func (m *SATMapSolver) FindMaximalSeed() (bool, Seed) {
	found, seed := m.FindSeed()
	if !found {
		return false, nil
	}
	inSeed := make(map[ids.ID]bool, len(seed))
	for _, id := range seed {
		inSeed[id] = true
	}
	for _, id := range m.idSet {
		if inSeed[id] {
			continue
		}
		cand := sortSeed(append(append(Seed(nil), seed...), id))
		if m.CheckSeed(cand) {
			seed = cand
			inSeed[id] = true
		}
	}
	return true, seed
}
