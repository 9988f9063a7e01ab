// Package mapsolver enumerates seeds — subsets of a fixed ID set — over
// the power-set lattice. A map solver hands out unexplored points and
// accepts blocking constraints that carve out the upward or downward
// closure of a seed; minimization and validity-core harnesses drive their
// whole search through this surface.
package mapsolver

import (
	"sort"

	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/satx"
)

// Seed is a sorted subset of the solver's ID set.
type Seed = []ids.ID

// MapSolver is the seed-enumeration surface. FindSeed returns any
// unexplored seed; the Minimal/Maximal variants return an inclusion-
// extremal one. BlockUp forbids a seed and all supersets, BlockDown a
// seed and all subsets. CheckSeed asks whether a specific seed is still
// unexplored.
type MapSolver interface {
	FindSeed() (bool, Seed)
	FindMinimalSeed() (bool, Seed)
	FindMaximalSeed() (bool, Seed)
	BlockUp(seed Seed)
	BlockDown(seed Seed)
	CheckSeed(seed Seed) bool
}

// base carries the SAT instance and ID-set bookkeeping shared by every
// implementation.
type base struct {
	sat   *satx.Adaptor
	idSet []ids.ID
	inSet map[ids.ID]bool
}

func newBase(idSet []ids.ID, opts *pmeopts.Options) *base {
	if opts == nil {
		opts = pmeopts.Default()
	}
	b := &base{
		sat:   satx.New(opts.Backend, false, nil),
		idSet: ids.SortedCopy(idSet),
		inSet: make(map[ids.ID]bool, len(idSet)),
	}
	for _, id := range b.idSet {
		b.inSet[id] = true
		// A tautology introduces the variable so models always assign it.
		_ = b.sat.AddClause(ids.Clause{id, ids.Negate(id)})
	}
	return b
}

// BlockUp forbids seed and every superset: some member must be absent.
func (b *base) BlockUp(seed Seed) {
	cls := make(ids.Clause, 0, len(seed))
	for _, id := range seed {
		cls = append(cls, ids.Negate(id))
	}
	if len(cls) == 0 {
		// The empty seed's upward closure is the whole lattice.
		cls = ids.Clause{ids.ID_FALSE}
	}
	_ = b.sat.AddClause(cls)
}

// BlockDown forbids seed and every subset: some non-member must be
// present. Blocking the full set degenerates to the always-false clause.
func (b *base) BlockDown(seed Seed) {
	inSeed := make(map[ids.ID]bool, len(seed))
	for _, id := range seed {
		inSeed[id] = true
	}
	var cls ids.Clause
	for _, id := range b.idSet {
		if !inSeed[id] {
			cls = append(cls, id)
		}
	}
	if len(cls) == 0 {
		cls = ids.Clause{ids.ID_FALSE}
	}
	_ = b.sat.AddClause(cls)
}

// RequireOneOf constrains every future seed to contain at least one
// member of seed. Hitting-set style callers use it to fold a newly
// discovered covering constraint into the exploration.
func (b *base) RequireOneOf(seed Seed) {
	cls := make(ids.Clause, 0, len(seed))
	for _, id := range seed {
		cls = append(cls, id)
	}
	if len(cls) == 0 {
		cls = ids.Clause{ids.ID_FALSE}
	}
	_ = b.sat.AddClause(cls)
}

// CheckSeed reports whether seed itself is still unexplored, by asking
// for the one model that assigns exactly seed.
func (b *base) CheckSeed(seed Seed) bool {
	sat, _ := b.sat.Solve(b.pointAssumps(seed), false)
	return sat
}

func (b *base) pointAssumps(seed Seed) ids.Cube {
	inSeed := make(map[ids.ID]bool, len(seed))
	for _, id := range seed {
		inSeed[id] = true
	}
	assumps := make(ids.Cube, 0, len(b.idSet))
	for _, id := range b.idSet {
		if inSeed[id] {
			assumps = append(assumps, id)
		} else {
			assumps = append(assumps, ids.Negate(id))
		}
	}
	return assumps
}

func (b *base) modelSeed() Seed {
	var seed Seed
	for _, id := range b.idSet {
		if b.sat.SafeGetAssignment(id) == satx.True {
			seed = append(seed, id)
		}
	}
	return seed
}

func sortSeed(s Seed) Seed {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s
}
