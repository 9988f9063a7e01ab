package mapsolver

import (
	"github.com/ryanberryhill/pme-sub000/pkg/pme/debugtr"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/variable"
)

// maxsatBase extends the SAT base with a totalizer over the whole ID set,
// realizing the weight-1 soft-clause objective (each member costs or pays
// one) as a bound search over the totalizer outputs.
type maxsatBase struct {
	*base
	card *debugtr.CardinalityConstraint
}

func newMaxsatBase(vars *variable.Manager, idSet []ids.ID, opts *pmeopts.Options) *maxsatBase {
	b := newBase(idSet, opts)
	card := debugtr.NewCardinalityConstraint(vars)
	for _, id := range b.idSet {
		card.AddInput(id)
	}
	card.SetCardinality(uint(len(b.idSet)))
	for _, cls := range card.CNFize() {
		_ = b.sat.AddClause(cls)
	}
	return &maxsatBase{base: b, card: card}
}

// minimalSeed finds a smallest unexplored seed by raising the allowed
// count until a model appears.
func (m *maxsatBase) minimalSeed() (bool, Seed) {
	n := uint(len(m.idSet))
	for k := uint(0); k <= n; k++ {
		sat, _ := m.sat.Solve(m.card.AssumeLEq(k), false)
		if sat {
			return true, m.modelSeed()
		}
	}
	return false, nil
}

// maximalSeed finds a largest unexplored seed by lowering the required
// count until a model appears.
func (m *maxsatBase) maximalSeed() (bool, Seed) {
	n := uint(len(m.idSet))
	for k := n + 1; k > 0; k-- {
		var assumps ids.Cube
		if k-1 > 0 {
			assumps = m.card.AssumeGEq(k - 1)
		}
		sat, _ := m.sat.Solve(assumps, false)
		if sat {
			return true, m.modelSeed()
		}
	}
	return false, nil
}

// MinimalMaxSATMapSolver hands out smallest-first seeds.
type MinimalMaxSATMapSolver struct {
	*maxsatBase
}

// NewMinimalMaxSAT returns a minimal-seed solver over idSet, minting
// totalizer variables from vars.
func NewMinimalMaxSAT(vars *variable.Manager, idSet []ids.ID, opts *pmeopts.Options) *MinimalMaxSATMapSolver {
	return &MinimalMaxSATMapSolver{maxsatBase: newMaxsatBase(vars, idSet, opts)}
}

// FindSeed returns a minimum-size unexplored seed; for this variant the
// arbitrary and minimal queries coincide.
func (m *MinimalMaxSATMapSolver) FindSeed() (bool, Seed) { return m.minimalSeed() }

// FindMinimalSeed returns a minimum-size unexplored seed.
func (m *MinimalMaxSATMapSolver) FindMinimalSeed() (bool, Seed) { return m.minimalSeed() }

// FindMaximalSeed returns a maximum-size unexplored seed.
func (m *MinimalMaxSATMapSolver) FindMaximalSeed() (bool, Seed) { return m.maximalSeed() }

// MaximalMaxSATMapSolver hands out largest-first seeds.
type MaximalMaxSATMapSolver struct {
	*maxsatBase
}

// NewMaximalMaxSAT returns a maximal-seed solver over idSet, minting
// totalizer variables from vars.
func NewMaximalMaxSAT(vars *variable.Manager, idSet []ids.ID, opts *pmeopts.Options) *MaximalMaxSATMapSolver {
	return &MaximalMaxSATMapSolver{maxsatBase: newMaxsatBase(vars, idSet, opts)}
}

// FindSeed returns a maximum-size unexplored seed; for this variant the
// arbitrary and maximal queries coincide.
func (m *MaximalMaxSATMapSolver) FindSeed() (bool, Seed) { return m.maximalSeed() }

// FindMinimalSeed returns a minimum-size unexplored seed.
func (m *MaximalMaxSATMapSolver) FindMinimalSeed() (bool, Seed) { return m.minimalSeed() }

// FindMaximalSeed returns a maximum-size unexplored seed.
func (m *MaximalMaxSATMapSolver) FindMaximalSeed() (bool, Seed) { return m.maximalSeed() }

// ArbitraryMaxSATMapSolver holds a minimal-seed solver and a maximal-seed
// solver side by side and alternates between them, so an exploration loop
// sees the lattice from both ends. Blocking applies to both.
type ArbitraryMaxSATMapSolver struct {
	up   *MinimalMaxSATMapSolver
	down *MaximalMaxSATMapSolver
	flip bool
}

// NewArbitraryMaxSAT returns the two-solver routing variant over idSet.
func NewArbitraryMaxSAT(vars *variable.Manager, idSet []ids.ID, opts *pmeopts.Options) *ArbitraryMaxSATMapSolver {
	return &ArbitraryMaxSATMapSolver{
		up:   NewMinimalMaxSAT(vars, idSet, opts),
		down: NewMaximalMaxSAT(vars, idSet, opts),
	}
}

// FindSeed alternates between the minimal and maximal solvers.
func (m *ArbitraryMaxSATMapSolver) FindSeed() (bool, Seed) {
	m.flip = !m.flip
	if m.flip {
		return m.down.FindSeed()
	}
	return m.up.FindSeed()
}

// FindMinimalSeed routes to the minimal solver.
func (m *ArbitraryMaxSATMapSolver) FindMinimalSeed() (bool, Seed) {
	return m.up.FindMinimalSeed()
}

// FindMaximalSeed routes to the maximal solver.
func (m *ArbitraryMaxSATMapSolver) FindMaximalSeed() (bool, Seed) {
	return m.down.FindMaximalSeed()
}

// BlockUp blocks in both underlying solvers.
func (m *ArbitraryMaxSATMapSolver) BlockUp(seed Seed) {
	m.up.BlockUp(seed)
	m.down.BlockUp(seed)
}

// BlockDown blocks in both underlying solvers.
func (m *ArbitraryMaxSATMapSolver) BlockDown(seed Seed) {
	m.up.BlockDown(seed)
	m.down.BlockDown(seed)
}

// RequireOneOf applies the covering constraint to both underlying
// solvers.
func (m *ArbitraryMaxSATMapSolver) RequireOneOf(seed Seed) {
	m.up.RequireOneOf(seed)
	m.down.RequireOneOf(seed)
}

// CheckSeed answers from the minimal solver; both hold the same blocking
// constraints.
func (m *ArbitraryMaxSATMapSolver) CheckSeed(seed Seed) bool {
	return m.up.CheckSeed(seed)
}
