// Package satx adapts the engine's literal space onto a gini SAT solver
// (github.com/go-air/gini), driven directly through inter.S rather than
// through a vendored or hand-rolled solver. Three backend variants are
// offered: a plain incremental solver, the same solver with
// critical-assumption (UNSAT-core) extraction wired up, and a simplifying
// solver that additionally records its clause set so a variable-elimination
// pass can hand back a residual CNF.
package satx

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"

	"github.com/ryanberryhill/pme-sub000/internal/pmeerr"
	"github.com/ryanberryhill/pme-sub000/internal/pmelog"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
	"github.com/ryanberryhill/pme-sub000/pkg/pme/pmeopts"
)

// TriVal is a three-valued assignment: a variable may be unseen by the
// backend, in which case SafeGetAssignment reports Undef rather than
// guessing a default.
type TriVal int8

const (
	Undef TriVal = iota
	False
	True
)

// GroupID names an activation group created by CreateGroup. At most one
// group may be active in a given GroupSolve call.
type GroupID uint32

// Adaptor is a SAT backend keyed on the internal ID space. Construct with
// New; the zero value is not usable.
type Adaptor struct {
	backend pmeopts.Backend
	log     *pmelog.Logger
	dedup   bool

	g inter.S

	toLit map[ids.ID]z.Lit
	toID  map[z.Lit]ids.ID

	frozen map[ids.ID]bool

	// recorded mirrors every clause added to a simplifying backend so
	// Simplify can run elimination over the accumulated CNF; nil for the
	// other variants.
	recorded ids.ClauseVec

	// Group activation variables are minted directly from the backend and
	// never enter the ID space, so they can never collide with IDs a
	// caller mints through a variable manager.
	groups      map[GroupID][]ids.Clause
	groupAct    map[GroupID]z.Lit
	groupLoaded map[GroupID]bool
	nextGroup   GroupID

	seenClause map[string]bool
}

// New constructs an Adaptor for the requested backend. A nil log silences
// the SAT channel.
func New(backend pmeopts.Backend, dedupClauses bool, log *pmelog.Logger) *Adaptor {
	if log == nil {
		log = pmelog.Silent()
	}
	a := &Adaptor{
		backend:     backend,
		log:         log,
		dedup:       dedupClauses,
		toLit:       make(map[ids.ID]z.Lit),
		toID:        make(map[z.Lit]ids.ID),
		frozen:      make(map[ids.ID]bool),
		groups:      make(map[GroupID][]ids.Clause),
		groupAct:    make(map[GroupID]z.Lit),
		groupLoaded: make(map[GroupID]bool),
		seenClause:  make(map[string]bool),
	}
	a.rebuild()
	return a
}

func (a *Adaptor) rebuild() {
	a.g = gini.New()
	if a.backend == pmeopts.BackendSimplifying {
		a.recorded = nil
	}
	// ID_TRUE is always unit-asserted so truth constants behave as
	// constants in every query.
	a.addClauseToBackend(ids.Clause{ids.ID_TRUE})
}

func (a *Adaptor) lit(id ids.ID) z.Lit {
	base := ids.Strip(id)
	m, ok := a.toLit[base]
	if !ok {
		m = a.g.Lit()
		a.toLit[base] = m
		a.toID[m] = base
	}
	if ids.IsNegated(id) {
		return m.Not()
	}
	return m
}

func (a *Adaptor) addClauseToBackend(cls ids.Clause) {
	for _, id := range cls {
		a.g.Add(a.lit(id))
	}
	a.g.Add(z.LitNull)
	if a.backend == pmeopts.BackendSimplifying {
		a.recorded = append(a.recorded, append(ids.Clause(nil), cls...))
	}
}

// AddClause adds a clause to the backend, translating each internal ID to
// its backend literal (minting backend variables on first use). Empty
// clauses are rejected with a MalformedProof error: an empty clause is
// never a legal input anywhere in the engine.
func (a *Adaptor) AddClause(cls ids.Clause) error {
	if len(cls) == 0 {
		return pmeerr.NewMalformedProof("empty clause")
	}
	if a.dedup {
		key := ids.CubeKey(ids.SortedCopy(cls))
		if a.seenClause[key] {
			return nil
		}
		a.seenClause[key] = true
	}
	a.addClauseToBackend(cls)
	return nil
}

// AddClauses adds every clause of vec; the first error stops the loop.
func (a *Adaptor) AddClauses(vec ids.ClauseVec) error {
	for _, cls := range vec {
		if err := a.AddClause(cls); err != nil {
			return err
		}
	}
	return nil
}

// solve outcome codes match gini's own Solve()/Test() convention.
const (
	satisfiable   = 1
	unsatisfiable = -1
)

// Solve checks satisfiability under assumps. If wantCrits is true and the
// instance is UNSAT, the returned crits is the subset of assumps appearing
// in the conflict (sufficient, on its own, for the UNSAT).
func (a *Adaptor) Solve(assumps ids.Cube, wantCrits bool) (sat bool, crits ids.Cube) {
	return a.solveRaw(nil, assumps, wantCrits)
}

func (a *Adaptor) solveRaw(extra []z.Lit, assumps ids.Cube, wantCrits bool) (bool, ids.Cube) {
	a.g.Assume(extra...)
	ms := make([]z.Lit, len(assumps))
	for i, id := range assumps {
		ms[i] = a.lit(id)
	}
	a.g.Assume(ms...)

	switch a.g.Solve() {
	case satisfiable:
		return true, nil
	case unsatisfiable:
		var crits ids.Cube
		if wantCrits {
			crits = a.critsOf(assumps)
		}
		return false, crits
	default:
		panic(pmeerr.Internal("sat adaptor: solve returned unknown"))
	}
}

func (a *Adaptor) critsOf(assumps ids.Cube) ids.Cube {
	whys := a.g.Why(nil)
	whySet := make(map[z.Lit]bool, len(whys))
	for _, m := range whys {
		whySet[m] = true
	}
	out := make(ids.Cube, 0, len(assumps))
	for _, id := range assumps {
		if whySet[a.lit(id)] {
			out = append(out, id)
		}
	}
	return out
}

// GetAssignment returns the model value of id after a SAT solve. It panics
// if id was never introduced to the backend; callers that aren't sure
// should use SafeGetAssignment.
func (a *Adaptor) GetAssignment(id ids.ID) bool {
	v, ok := a.tryAssignment(id)
	if !ok {
		panic(pmeerr.Internal("sat adaptor: GetAssignment on unseen variable"))
	}
	return v == True
}

// SafeGetAssignment returns Undef for a variable the backend never saw,
// instead of panicking.
func (a *Adaptor) SafeGetAssignment(id ids.ID) TriVal {
	v, _ := a.tryAssignment(id)
	return v
}

func (a *Adaptor) tryAssignment(id ids.ID) (TriVal, bool) {
	base := ids.Strip(id)
	m, ok := a.toLit[base]
	if !ok {
		return Undef, false
	}
	val := a.g.Value(m)
	if ids.IsNegated(id) {
		val = !val
	}
	if val {
		return True, true
	}
	return False, true
}

// CreateGroup mints a fresh activation group and returns a handle for
// AddGroupClause/GroupSolve. The activation variable lives entirely inside
// the backend.
func (a *Adaptor) CreateGroup() GroupID {
	a.nextGroup++
	g := a.nextGroup
	a.groups[g] = nil
	return g
}

// AddGroupClause stores cls ∨ ¬g for later activation by GroupSolve(g,
// ...). The clause is not sent to the backend until the group is first
// activated.
func (a *Adaptor) AddGroupClause(g GroupID, cls ids.Clause) {
	if _, ok := a.groups[g]; !ok {
		panic(pmeerr.Internal("sat adaptor: AddGroupClause on unknown group"))
	}
	a.groups[g] = append(a.groups[g], append(ids.Clause(nil), cls...))
	if a.groupLoaded[g] {
		a.sendGroupClause(a.groupAct[g], cls)
	}
}

func (a *Adaptor) sendGroupClause(act z.Lit, cls ids.Clause) {
	for _, id := range cls {
		a.g.Add(a.lit(id))
	}
	a.g.Add(act.Not())
	a.g.Add(z.LitNull)
}

// GroupSolve activates exactly group g (asserting cls ∨ ¬g for each of its
// stored clauses, then assuming g) and solves under assumps. At most one
// group may be active per call. Criticals reported back never include the
// group's activation variable, which is invisible to callers.
func (a *Adaptor) GroupSolve(g GroupID, assumps ids.Cube) (sat bool, crits ids.Cube) {
	if _, ok := a.groups[g]; !ok {
		panic(pmeerr.Internal("sat adaptor: GroupSolve on unknown group"))
	}
	if !a.groupLoaded[g] {
		act := a.g.Lit()
		a.groupAct[g] = act
		for _, cls := range a.groups[g] {
			a.sendGroupClause(act, cls)
		}
		a.groupLoaded[g] = true
	}
	return a.solveRaw([]z.Lit{a.groupAct[g]}, assumps, true)
}

// Freeze pins id so the simplifying backend's Simplify never eliminates
// it. It is a no-op on non-simplifying backends.
func (a *Adaptor) Freeze(id ids.ID) {
	a.frozen[ids.Strip(id)] = true
}

// Reset rebuilds the underlying backend from scratch, reseeds ID_TRUE, and
// clears activation groups. The frozen set survives a reset; backend
// variables are re-minted lazily as IDs are reused.
func (a *Adaptor) Reset() {
	a.groups = make(map[GroupID][]ids.Clause)
	a.groupAct = make(map[GroupID]z.Lit)
	a.groupLoaded = make(map[GroupID]bool)
	a.seenClause = make(map[string]bool)
	a.toLit = make(map[ids.ID]z.Lit)
	a.toID = make(map[z.Lit]ids.ID)
	a.rebuild()
}
